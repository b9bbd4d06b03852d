package crosspay

import (
	"fmt"

	"github.com/vitwit/crosspay/clients"
	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/utils"
	"github.com/vitwit/crosspay/wallet"
)

// Dial opens the RPC clients for cfg and registers a wallet provider for each
// private key found in the environment. A payment kind without a key fails
// at Connect with ProviderNotFound.
func Dial(cfg *types.Config, confirm wallet.ConfirmFunc, log logger.Logger, opts ...Option) (*Engine, error) {
	log = logger.OrNoop(log)

	solClient, err := clients.NewSolanaClient(cfg.Solana)
	if err != nil {
		return nil, fmt.Errorf("failed to create Solana client for %s: %w", cfg.Solana.Network, err)
	}

	evmClient, err := clients.NewEVMClient(cfg.EVM)
	if err != nil {
		solClient.Close()
		return nil, fmt.Errorf("failed to create EVM client for %s: %w", cfg.EVM.Network, err)
	}

	for _, network := range []types.Network{solClient.Network(), evmClient.Network()} {
		if !network.IsTestnet() {
			log.Warn("mainnet network selected, purchases spend real funds", map[string]any{"network": string(network)})
		}
	}
	log.Info("chain clients ready", map[string]any{
		"solana": string(solClient.Network()),
		"evm":    string(evmClient.Network()),
	})

	var providers []wallet.Provider
	if key, err := utils.SolanaKeyFromEnv(); err == nil {
		providers = append(providers, wallet.NewKeypairProvider(key, confirm))
	} else {
		log.Debug("solana wallet unavailable", map[string]any{"error": err})
	}
	if key, err := utils.EVMKeyFromEnv(); err == nil {
		providers = append(providers, wallet.NewKeyedEVMProvider(key, evmClient, confirm))
	} else {
		log.Debug("evm wallet unavailable", map[string]any{"error": err})
	}

	opts = append([]Option{WithLogger(log), WithProviders(providers...)}, opts...)
	engine, err := New(cfg, Backends{Solana: solClient, EVM: evmClient}, opts...)
	if err != nil {
		solClient.Close()
		evmClient.Close()
		return nil, err
	}
	engine.closers = append(engine.closers, solClient.Close, evmClient.Close)
	return engine, nil
}
