package audithook

// Action constants for audit events.
const (
	// Token actions
	ActionMinted      = "token.minted"
	ActionTransferred = "token.transferred"
	ActionWithdrawn   = "token.withdrawn"

	// Demurrage actions
	ActionRateUpdated   = "rate.updated"
	ActionDecayRealized = "decay.realized"

	// Failures
	ActionOperationFailed = "operation.failed"
)

// Resource constants for audit events.
const (
	ResourceAccount    = "account"
	ResourceCheckpoint = "rate_checkpoint"
)

// Category constants for audit events.
const (
	CategoryToken      = "token"
	CategoryCollateral = "collateral"
	CategoryGovernance = "governance"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
