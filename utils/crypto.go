package utils

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

// PrivateKeyFromHex parses a hex secp256k1 key, with or without 0x.
func PrivateKeyFromHex(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")

	return crypto.HexToECDSA(hexKey)
}

// AddressFromPrivateKey derives the Ethereum address from a private key
func AddressFromPrivateKey(privateKey *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(privateKey.PublicKey)
}

// NormalizeAddress ensures an address is properly checksummed
func NormalizeAddress(address string) string {
	if !common.IsHexAddress(address) {
		return ""
	}
	return common.HexToAddress(address).Hex()
}

// EVMKeyFromEnv reads the EVM signing key from CROSSPAY_EVM_PRIVATE_KEY.
func EVMKeyFromEnv() (*ecdsa.PrivateKey, error) {
	raw := os.Getenv(EnvEVMPrivateKey)
	if raw == "" {
		return nil, fmt.Errorf("%s is not set", EnvEVMPrivateKey)
	}
	key, err := PrivateKeyFromHex(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvEVMPrivateKey, err)
	}
	return key, nil
}

// SolanaKeyFromEnv reads the base58 Solana keypair from
// CROSSPAY_SOLANA_PRIVATE_KEY.
func SolanaKeyFromEnv() (solana.PrivateKey, error) {
	raw := strings.TrimSpace(os.Getenv(EnvSolanaPrivateKey))
	if raw == "" {
		return nil, fmt.Errorf("%s is not set", EnvSolanaPrivateKey)
	}
	key, err := solana.PrivateKeyFromBase58(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvSolanaPrivateKey, err)
	}
	return key, nil
}
