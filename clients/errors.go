package clients

import "errors"

// Failure reasons recorded on failed transactions.
const (
	ReasonReverted       = "execution_reverted"
	ReasonInstructionErr = "instruction_error"
)

var (
	ErrInvalidHash        = errors.New("invalid transaction hash")
	ErrEmptyResult        = errors.New("empty rpc result")
	ErrNotATransfer       = errors.New("instruction is not a system transfer")
	ErrInstructionsLength = errors.New("transaction must carry exactly one instruction")
)
