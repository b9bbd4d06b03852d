package types

import (
	"errors"
	"fmt"
)

// PaymentError is the coded error every crosspay component returns. Message
// is safe to show to the user; Cause carries the underlying failure.
type PaymentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *PaymentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PaymentError) Unwrap() error {
	return e.Cause
}

// Is matches on Code so wrapped copies of a sentinel still compare equal.
func (e *PaymentError) Is(target error) bool {
	var t *PaymentError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Common error codes
const (
	CodeNoTokenSelected       = "NO_TOKEN_SELECTED"
	CodeProviderNotFound      = "PROVIDER_NOT_FOUND"
	CodeUserRejected          = "USER_REJECTED"
	CodeSigningRejected       = "SIGNING_REJECTED"
	CodeInvalidAmount         = "INVALID_AMOUNT"
	CodeInvalidAddress        = "INVALID_ADDRESS"
	CodeInvalidDestination    = "INVALID_DESTINATION"
	CodeInsufficientAllowance = "INSUFFICIENT_ALLOWANCE"
	CodeApprovalRejected      = "APPROVAL_REJECTED"
	CodeSubmissionFailed      = "SUBMISSION_FAILED"
	CodeContractCallFailed    = "CONTRACT_CALL_FAILED"
	CodeRPCFailure            = "RPC_FAILURE"
	CodeNotConnected          = "NOT_CONNECTED"
	CodePurchaseInFlight      = "PURCHASE_IN_FLIGHT"
	CodeConfigError           = "CONFIG_ERROR"
)

var (
	ErrNoTokenSelected = &PaymentError{
		Code:    CodeNoTokenSelected,
		Message: "Please Select Payment Token First!",
	}
	ErrProviderNotFound = &PaymentError{
		Code:    CodeProviderNotFound,
		Message: "wallet provider not found",
	}
	ErrUserRejected = &PaymentError{
		Code:    CodeUserRejected,
		Message: "request rejected in wallet",
	}
	ErrSigningRejected = &PaymentError{
		Code:    CodeSigningRejected,
		Message: "transaction signing was rejected",
	}
	ErrInvalidAmount = &PaymentError{
		Code:    CodeInvalidAmount,
		Message: "Please enter a valid amount.",
	}
	ErrInvalidAddress = &PaymentError{
		Code:    CodeInvalidAddress,
		Message: "invalid address",
	}
	ErrInvalidDestination = &PaymentError{
		Code:    CodeInvalidDestination,
		Message: "Please enter a valid Solana address.",
	}
	// ErrMissingDestination shares the InvalidDestination code.
	ErrMissingDestination = &PaymentError{
		Code:    CodeInvalidDestination,
		Message: "Please enter a Solana address.",
	}
	ErrInsufficientAllowance = &PaymentError{
		Code:    CodeInsufficientAllowance,
		Message: "token allowance is insufficient, approval did not complete",
	}
	ErrApprovalRejected = &PaymentError{
		Code:    CodeApprovalRejected,
		Message: "token approval failed",
	}
	ErrSubmissionFailed = &PaymentError{
		Code:    CodeSubmissionFailed,
		Message: "failed to broadcast transaction",
	}
	ErrContractCallFailed = &PaymentError{
		Code:    CodeContractCallFailed,
		Message: "purchase contract call failed",
	}
	ErrRPCFailure = &PaymentError{
		Code:    CodeRPCFailure,
		Message: "network request failed",
	}
	ErrNotConnected = &PaymentError{
		Code:    CodeNotConnected,
		Message: "Please connect your wallet first.",
	}
	ErrPurchaseInFlight = &PaymentError{
		Code:    CodePurchaseInFlight,
		Message: "a transaction is already in progress",
	}
	ErrConfig = &PaymentError{
		Code:    CodeConfigError,
		Message: "invalid configuration",
	}
)

// Wrap returns a copy of sentinel carrying cause. A nil cause returns the
// sentinel itself.
func Wrap(sentinel *PaymentError, cause error) error {
	if cause == nil {
		return sentinel
	}
	return &PaymentError{
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Cause:   cause,
	}
}

// Code extracts the code of the first PaymentError in err's chain.
func Code(err error) string {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// UserMessage returns the message to surface to the user for err.
func UserMessage(err error) string {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return "Something went wrong, please try again."
}
