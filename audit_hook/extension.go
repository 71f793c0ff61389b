// Package audithook bridges demurrage ledger events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/journal"
	"github.com/xraph/demurrage/plugin"
	"github.com/xraph/demurrage/schedule"
	"github.com/xraph/demurrage/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin            = (*Extension)(nil)
	_ plugin.OnMinted          = (*Extension)(nil)
	_ plugin.OnTransferred     = (*Extension)(nil)
	_ plugin.OnWithdrawn       = (*Extension)(nil)
	_ plugin.OnRateUpdated     = (*Extension)(nil)
	_ plugin.OnDecayRealized   = (*Extension)(nil)
	_ plugin.OnOperationFailed = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It matches chronicle.Emitter; callers inject the concrete
// *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Token hooks
// ──────────────────────────────────────────────────

// OnMinted implements plugin.OnMinted.
func (e *Extension) OnMinted(ctx context.Context, entry *journal.Entry) error {
	return e.record(ctx, ActionMinted, SeverityInfo, OutcomeSuccess,
		ResourceAccount, entry.Holder, CategoryCollateral, nil,
		"entry_id", entry.ID.String(),
		"amount", entry.Amount.String(),
	)
}

// OnTransferred implements plugin.OnTransferred.
func (e *Extension) OnTransferred(ctx context.Context, entry *journal.Entry) error {
	return e.record(ctx, ActionTransferred, SeverityInfo, OutcomeSuccess,
		ResourceAccount, entry.Holder, CategoryToken, nil,
		"entry_id", entry.ID.String(),
		"recipient", entry.Counterparty,
		"amount", entry.Amount.String(),
		"fee", entry.Fee.String(),
	)
}

// OnWithdrawn implements plugin.OnWithdrawn.
func (e *Extension) OnWithdrawn(ctx context.Context, entry *journal.Entry) error {
	return e.record(ctx, ActionWithdrawn, SeverityInfo, OutcomeSuccess,
		ResourceAccount, entry.Holder, CategoryCollateral, nil,
		"entry_id", entry.ID.String(),
		"amount", entry.Amount.String(),
		"fee", entry.Fee.String(),
	)
}

// OnDecayRealized implements plugin.OnDecayRealized.
func (e *Extension) OnDecayRealized(ctx context.Context, holder string, decayed types.Amount) error {
	return e.record(ctx, ActionDecayRealized, SeverityInfo, OutcomeSuccess,
		ResourceAccount, holder, CategoryToken, nil,
		"decayed", decayed.String(),
	)
}

// ──────────────────────────────────────────────────
// Governance hooks
// ──────────────────────────────────────────────────

// OnRateUpdated implements plugin.OnRateUpdated.
func (e *Extension) OnRateUpdated(ctx context.Context, c *schedule.Checkpoint) error {
	return e.record(ctx, ActionRateUpdated, SeverityInfo, OutcomeSuccess,
		ResourceCheckpoint, c.ID.String(), CategoryGovernance, nil,
		"rate", c.Rate.String(),
		"effective_at", c.EffectiveAt,
	)
}

// OnOperationFailed implements plugin.OnOperationFailed. Rejected requests
// are warnings; anything else, including a failed compensation, is an error.
func (e *Extension) OnOperationFailed(ctx context.Context, op string, err error) error {
	severity := SeverityError
	switch {
	case errors.Is(err, demurrage.ErrPermissionDenied):
		severity = SeverityCritical
	case demurrage.IsRejected(err):
		severity = SeverityWarning
	}
	return e.record(ctx, ActionOperationFailed, severity, OutcomeFailure,
		"", "", categoryFor(op), err,
		"op", op,
	)
}

func categoryFor(op string) string {
	switch op {
	case "mint", "withdraw":
		return CategoryCollateral
	case "update_rate":
		return CategoryGovernance
	default:
		return CategoryToken
	}
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
