package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vitwit/crosspay/types"
)

// Environment variables read by LoadConfig.
const (
	EnvSolanaRPC         = "CROSSPAY_SOLANA_RPC_URL"
	EnvSolanaCollection  = "CROSSPAY_SOLANA_COLLECTION_ADDRESS"
	EnvEVMRPC            = "CROSSPAY_EVM_RPC_URL"
	EnvEVMToken          = "CROSSPAY_EVM_TOKEN_ADDRESS"
	EnvEVMPurchase       = "CROSSPAY_EVM_PURCHASE_CONTRACT"
	EnvLogLevel          = "CROSSPAY_LOG_LEVEL"
	EnvSolanaPrivateKey  = "CROSSPAY_SOLANA_PRIVATE_KEY"
	EnvEVMPrivateKey     = "CROSSPAY_EVM_PRIVATE_KEY"
	defaultDotEnvFile    = ".env"
	solanaAddressTagName = "solana_addr"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation(solanaAddressTagName, validateSolanaAddressTag); err != nil {
		panic(err)
	}
}

func validateSolanaAddressTag(fl validator.FieldLevel) bool {
	return IsSolanaAddress(fl.Field().String())
}

// ParseConfig decodes a YAML (or JSON) document on top of the defaults and
// validates the result.
func ParseConfig(data []byte) (*types.Config, error) {
	cfg := types.DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, types.Wrap(types.ErrConfig, fmt.Errorf("failed to parse config: %w", err))
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfig loads an optional .env file, reads the config file at path (an
// empty path keeps the defaults), applies CROSSPAY_* overrides and
// validates.
func LoadConfig(path string) (*types.Config, error) {
	if err := godotenv.Load(defaultDotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, types.Wrap(types.ErrConfig, fmt.Errorf("failed to load %s: %w", defaultDotEnvFile, err))
	}

	cfg := types.DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, types.Wrap(types.ErrConfig, fmt.Errorf("failed to read config: %w", err))
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, types.Wrap(types.ErrConfig, fmt.Errorf("failed to parse config: %w", err))
		}
	}

	ApplyEnvOverrides(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides replaces config fields with non-empty CROSSPAY_* values.
func ApplyEnvOverrides(cfg *types.Config) {
	override(&cfg.Solana.RPCUrl, EnvSolanaRPC)
	override(&cfg.Solana.CollectionAddress, EnvSolanaCollection)
	override(&cfg.EVM.RPCUrl, EnvEVMRPC)
	override(&cfg.EVM.TokenAddress, EnvEVMToken)
	override(&cfg.EVM.PurchaseContract, EnvEVMPurchase)
	override(&cfg.LogLevel, EnvLogLevel)
}

func override(field *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*field = v
	}
}

// ValidateConfig runs the struct tag validation.
func ValidateConfig(cfg *types.Config) error {
	if err := validate.Struct(cfg); err != nil {
		return types.Wrap(types.ErrConfig, fmt.Errorf("validation failed: %w", err))
	}

	return nil
}
