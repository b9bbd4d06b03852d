package clients

import (
	"context"
	"fmt"

	binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/vitwit/crosspay/types"
)

// SolanaClient talks to the Chain A RPC endpoint.
type SolanaClient struct {
	network    types.Network
	client     *rpc.Client
	commitment rpc.CommitmentType
}

// NewSolanaClient creates a Solana client for the configured endpoint.
func NewSolanaClient(cfg types.SolanaConfig) (*SolanaClient, error) {
	if cfg.RPCUrl == "" {
		return nil, fmt.Errorf("solana rpc url is required")
	}
	if !cfg.Network.IsSolana() {
		return nil, fmt.Errorf("network %q is not a solana network", cfg.Network)
	}

	commitment := rpc.CommitmentType(cfg.Commitment)
	if commitment == "" {
		commitment = rpc.CommitmentFinalized
	}

	return &SolanaClient{
		network:    cfg.Network,
		client:     rpc.New(cfg.RPCUrl),
		commitment: commitment,
	}, nil
}

// Network is the cluster this client was configured for.
func (s *SolanaClient) Network() types.Network { return s.network }

func (s *SolanaClient) Close() { _ = s.client.Close() }

// GetRecentAnchor fetches the latest blockhash. Callers must request a
// fresh one for every transaction they build.
func (s *SolanaClient) GetRecentAnchor(ctx context.Context) (solana.Hash, error) {
	out, err := s.client.GetLatestBlockhash(ctx, s.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w", ErrEmptyResult)
	}
	return out.Value.Blockhash, nil
}

// SendRawTransaction broadcasts an already signed, serialized transaction.
func (s *SolanaClient) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	sig, err := s.client.SendRawTransaction(ctx, raw)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("broadcast failed: %w", err)
	}
	return sig, nil
}

// TransactionStatus maps the signature status to a TxStatus. A transaction
// is confirmed once it reaches the configured commitment.
func (s *SolanaClient) TransactionStatus(ctx context.Context, hash string) (types.TxStatus, string, error) {
	sig, err := solana.SignatureFromBase58(hash)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}

	out, err := s.client.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return "", "", fmt.Errorf("get signature statuses: %w", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return types.TxStatusPending, "", nil
	}

	status := out.Value[0]
	if status.Err != nil {
		return types.TxStatusFailed, fmt.Sprintf("%s: %v", ReasonInstructionErr, status.Err), nil
	}
	if reachesCommitment(status.ConfirmationStatus, s.commitment) {
		return types.TxStatusConfirmed, "", nil
	}
	return types.TxStatusPending, "", nil
}

func reachesCommitment(got rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch want {
	case rpc.CommitmentProcessed:
		return got == rpc.ConfirmationStatusProcessed ||
			got == rpc.ConfirmationStatusConfirmed ||
			got == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentConfirmed:
		return got == rpc.ConfirmationStatusConfirmed || got == rpc.ConfirmationStatusFinalized
	default:
		return got == rpc.ConfirmationStatusFinalized
	}
}

// DecodeTransaction parses a serialized transaction.
func DecodeTransaction(raw []byte) (*solana.Transaction, error) {
	tx, err := solana.TransactionFromDecoder(binary.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("tx decode failed: %w", err)
	}
	return tx, nil
}

// Transfer is a decoded system transfer.
type Transfer struct {
	From     solana.PublicKey
	To       solana.PublicKey
	Lamports uint64
}

// SingleTransfer returns the transfer carried by tx, which must hold exactly
// one system program instruction and nothing else.
func SingleTransfer(tx *solana.Transaction) (*Transfer, error) {
	if len(tx.Message.Instructions) != 1 {
		return nil, ErrInstructionsLength
	}
	inst := tx.Message.Instructions[0]

	if int(inst.ProgramIDIndex) >= len(tx.Message.AccountKeys) {
		return nil, fmt.Errorf("program index %d out of range", inst.ProgramIDIndex)
	}
	if !tx.Message.AccountKeys[inst.ProgramIDIndex].Equals(solana.SystemProgramID) {
		return nil, ErrNotATransfer
	}

	accountMetas := make([]*solana.AccountMeta, len(inst.Accounts))
	for i, accIdx := range inst.Accounts {
		if int(accIdx) >= len(tx.Message.AccountKeys) {
			return nil, fmt.Errorf("account index %d out of range", accIdx)
		}
		pub := tx.Message.AccountKeys[accIdx]
		writable, err := tx.Message.IsWritable(pub)
		if err != nil {
			return nil, fmt.Errorf("failed to decode transaction: %w", err)
		}
		accountMetas[i] = &solana.AccountMeta{
			PublicKey:  pub,
			IsSigner:   tx.Message.IsSigner(pub),
			IsWritable: writable,
		}
	}

	sysInst, err := system.DecodeInstruction(accountMetas, inst.Data)
	if err != nil {
		return nil, fmt.Errorf("decode system instruction: %w", err)
	}
	transfer, ok := sysInst.Impl.(*system.Transfer)
	if !ok || transfer.Lamports == nil || len(accountMetas) < 2 {
		return nil, ErrNotATransfer
	}

	return &Transfer{
		From:     accountMetas[0].PublicKey,
		To:       accountMetas[1].PublicKey,
		Lamports: *transfer.Lamports,
	}, nil
}
