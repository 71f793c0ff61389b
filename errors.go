package demurrage

import (
	"errors"
	"fmt"

	"github.com/xraph/demurrage/schedule"
)

// Sentinel errors for common failure scenarios.
var (
	// Operation errors
	ErrInsufficientBalance      = errors.New("demurrage: insufficient balance")
	ErrInvalidRateCheckpoint    = schedule.ErrInvalidCheckpoint
	ErrPendingCheckpoint        = schedule.ErrPendingCheckpoint
	ErrPermissionDenied         = errors.New("demurrage: permission denied")
	ErrCollateralTransferFailed = errors.New("demurrage: collateral transfer failed")
	ErrInvalidAmount            = errors.New("demurrage: amount must be positive")
	ErrInvalidHolder            = errors.New("demurrage: holder identity is empty")

	// Record errors
	ErrAccountNotFound    = errors.New("demurrage: account not found")
	ErrEntryNotFound      = errors.New("demurrage: journal entry not found")
	ErrCheckpointExists   = errors.New("demurrage: checkpoint already exists")
	ErrEntryAlreadyExists = errors.New("demurrage: journal entry already exists")

	// Store errors
	ErrStoreNotReady   = errors.New("demurrage: store not ready")
	ErrStoreClosed     = errors.New("demurrage: store is closed")
	ErrMigrationFailed = errors.New("demurrage: migration failed")
	ErrNotStarted      = errors.New("demurrage: ledger not started")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("demurrage: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}

// IsRejected returns true if the operation was refused because of its
// input or the caller, and reissuing it unchanged would fail again.
func IsRejected(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidRateCheckpoint) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidHolder)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady)
}
