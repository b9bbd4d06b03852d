package clients

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/vitwit/crosspay/types"
)

// EVMClient talks to the Chain B node: ERC-20 reads, receipt lookups and
// raw transaction submission.
type EVMClient struct {
	network  types.Network
	eth      *ethclient.Client
	token    common.Address
	purchase common.Address
	chainID  *big.Int
	gasLimit uint64
}

// NewEVMClient dials the configured RPC endpoint.
func NewEVMClient(cfg types.EVMConfig) (*EVMClient, error) {
	if strings.TrimSpace(cfg.RPCUrl) == "" {
		return nil, fmt.Errorf("evm rpc url is required")
	}
	if !cfg.Network.IsEVM() {
		return nil, fmt.Errorf("network %q is not an evm network", cfg.Network)
	}

	eth, err := ethclient.Dial(cfg.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("ethereum rpc dial: %w", err)
	}

	var chainID *big.Int
	if cfg.ChainID > 0 {
		chainID = big.NewInt(cfg.ChainID)
	}

	return &EVMClient{
		network:  cfg.Network,
		eth:      eth,
		token:    common.HexToAddress(cfg.TokenAddress),
		purchase: common.HexToAddress(cfg.PurchaseContract),
		chainID:  chainID,
		gasLimit: cfg.GasLimit,
	}, nil
}

func (c *EVMClient) Network() types.Network { return c.network }

func (c *EVMClient) Token() common.Address { return c.token }

func (c *EVMClient) PurchaseContract() common.Address { return c.purchase }

func (c *EVMClient) Close() { c.eth.Close() }

// ChainID returns the configured chain id, asking the node when unset.
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	c.chainID = id
	return id, nil
}

// Decimals reads decimals() from the payment token.
func (c *EVMClient) Decimals(ctx context.Context) (uint8, error) {
	out, err := c.callToken(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	v, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected type %T", out[0])
	}
	return v, nil
}

// Allowance reads allowance(owner, spender) from the payment token in
// smallest units.
func (c *EVMClient) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	out, err := c.callToken(ctx, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("allowance: unexpected type %T", out[0])
	}
	return v, nil
}

func (c *EVMClient) callToken(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	token := c.token
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	out, err := erc20ABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", method, ErrEmptyResult)
	}
	return out, nil
}

// TransactionStatus maps the receipt of hash to a TxStatus. A missing
// receipt means the transaction is still pending.
func (c *EVMClient) TransactionStatus(ctx context.Context, hash string) (types.TxStatus, string, error) {
	if !isTxHash(hash) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	}

	receipt, err := c.eth.TransactionReceipt(ctx, common.HexToHash(hash))
	if errors.Is(err, ethereum.NotFound) {
		return types.TxStatusPending, "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("transaction receipt: %w", err)
	}

	if receipt.Status == ethtypes.ReceiptStatusSuccessful {
		return types.TxStatusConfirmed, "", nil
	}
	return types.TxStatusFailed, ReasonReverted, nil
}

// SendCall signs a zero-value contract call with key and broadcasts it.
func (c *EVMClient) SendCall(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, data []byte) (common.Hash, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	chainID, err := c.ChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	gasLimit := c.gasLimit
	if gasLimit == 0 {
		gasLimit, err = c.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimate gas failed: %w", err)
		}
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price failed: %w", err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce failed: %w", err)
	}

	tx := ethtypes.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)

	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(chainID), key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx failed: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send tx failed: %w", err)
	}

	return signed.Hash(), nil
}

func isTxHash(s string) bool {
	b, err := hexutil.Decode(s)
	return err == nil && len(b) == common.HashLength
}
