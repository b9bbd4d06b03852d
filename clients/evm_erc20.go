package clients

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

// purchaseABIJSON describes the sale contract. Purchased tokens are
// delivered to destination on Solana.
const purchaseABIJSON = `[
	{"inputs":[{"name":"destination","type":"string"},{"name":"sender","type":"address"},{"name":"amount","type":"uint256"}],"name":"buy","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var (
	erc20ABI    = mustParseABI(erc20ABIJSON)
	purchaseABI = mustParseABI(purchaseABIJSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("parse abi: %v", err))
	}
	return parsed
}

// PackApprove encodes approve(spender, amount).
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return erc20ABI.Pack("approve", spender, amount)
}

// PackBuy encodes buy(destination, sender, amount) for the purchase contract.
func PackBuy(destination string, sender common.Address, amount *big.Int) ([]byte, error) {
	return purchaseABI.Pack("buy", destination, sender, amount)
}

// UnpackBuy decodes buy calldata. Used to check what a provider is about
// to send.
func UnpackBuy(data []byte) (destination string, sender common.Address, amount *big.Int, err error) {
	if len(data) < 4 {
		return "", common.Address{}, nil, fmt.Errorf("calldata too short")
	}
	method, err := purchaseABI.MethodById(data[:4])
	if err != nil {
		return "", common.Address{}, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return "", common.Address{}, nil, err
	}
	if len(args) != 3 {
		return "", common.Address{}, nil, fmt.Errorf("unexpected argument count %d", len(args))
	}

	destination, ok1 := args[0].(string)
	sender, ok2 := args[1].(common.Address)
	amount, ok3 := args[2].(*big.Int)
	if !ok1 || !ok2 || !ok3 {
		return "", common.Address{}, nil, fmt.Errorf("unexpected argument types")
	}
	return destination, sender, amount, nil
}
