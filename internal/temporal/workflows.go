// Package temporal runs bridge calls under a caller-owned Temporal retry
// policy. The bridge itself never retries; this package decides, per call,
// whether a failure may be repeated.
package temporal

import (
	"encoding/json"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/agriservices/farmbridge/internal/bridge"
)

// =============================================================================
// NAMES
// =============================================================================

const (
	BridgeOperationWorkflowName = "bridgeOperationWorkflow"
	InvokeOperationActivityName = "InvokeOperation"

	// DefaultTaskQueue is the queue served by `farmbridge worker`.
	DefaultTaskQueue = "farmbridge"
)

// =============================================================================
// ACTIVITY OPTIONS
// =============================================================================

// nonRetryableKinds are failure kinds that repeating the call cannot fix.
var nonRetryableKinds = []string{
	string(bridge.KindUnknownOperation),
	string(bridge.KindMissingParameter),
	string(bridge.KindInvalidParameter),
	string(bridge.KindMalformedResponse),
	string(bridge.KindBackendFault),
}

const (
	defaultMaxAttempts      = 5
	defaultTransportTimeout = 30 * time.Second

	// startToCloseMargin covers activity bookkeeping around the exchange.
	startToCloseMargin = 15 * time.Second
)

// operationActivityOptions bounds one attempt by the transport timeout so
// Temporal never times out an exchange that is still in flight. Operations
// not marked idempotent get exactly one attempt: a StartToClose timeout or a
// worker crash is retried by the server without consulting the activity.
func operationActivityOptions(input OperationInput) workflow.ActivityOptions {
	timeout := input.TransportTimeout
	if timeout <= 0 {
		timeout = defaultTransportTimeout
	}
	attempts := input.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	if !input.Idempotent {
		attempts = 1
	}
	return workflow.ActivityOptions{
		StartToCloseTimeout: timeout + startToCloseMargin,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        30 * time.Second,
			MaximumAttempts:        attempts,
			NonRetryableErrorTypes: nonRetryableKinds,
		},
	}
}

// =============================================================================
// WORKFLOW INPUTS/OUTPUTS
// =============================================================================

// OperationInput is the input of BridgeOperationWorkflow and InvokeOperation.
type OperationInput struct {
	OperationID string         `json:"operationId"`
	Params      map[string]any `json:"params,omitempty"`

	// Idempotent comes from the operation descriptor. Without it the
	// operation runs at most once.
	Idempotent bool `json:"idempotent,omitempty"`

	// MaxAttempts bounds retries of idempotent operations (default 5).
	MaxAttempts int32 `json:"maxAttempts,omitempty"`

	// TransportTimeout is the worker's per-exchange timeout (default 30s).
	TransportTimeout time.Duration `json:"transportTimeout,omitempty"`
}

// NewOperationInput describes a call to operationID for the workflow,
// copying the retry-relevant facts from the registry.
func NewOperationInput(registry *bridge.Registry, operationID string, params bridge.Params, transportTimeout time.Duration) (OperationInput, error) {
	desc, _, err := registry.Lookup(operationID)
	if err != nil {
		return OperationInput{}, err
	}
	return OperationInput{
		OperationID:      desc.ID,
		Params:           params,
		Idempotent:       desc.Idempotent,
		TransportTimeout: transportTimeout,
	}, nil
}

// OperationOutput is the JSON rendering of a bridge.Result.
type OperationOutput struct {
	OperationID string          `json:"operationId"`
	CallID      string          `json:"callId"`
	Empty       bool            `json:"empty"`
	Value       json.RawMessage `json:"value,omitempty"`
}

// =============================================================================
// BRIDGE OPERATION WORKFLOW
// =============================================================================

// BridgeOperationWorkflow executes one bridge operation with the retry policy
// above.
func BridgeOperationWorkflow(ctx workflow.Context, input OperationInput) (*OperationOutput, error) {
	logger := workflow.GetLogger(ctx)
	if input.OperationID == "" {
		return nil, temporal.NewApplicationError("operationId is required", string(bridge.KindUnknownOperation))
	}

	actCtx := workflow.WithActivityOptions(ctx, operationActivityOptions(input))
	var out OperationOutput
	if err := workflow.ExecuteActivity(actCtx, InvokeOperationActivityName, input).Get(actCtx, &out); err != nil {
		logger.Warn("bridge operation failed", "operation", input.OperationID, "error", err)
		return nil, err
	}
	logger.Info("bridge operation completed", "operation", input.OperationID, "callId", out.CallID, "empty", out.Empty)
	return &out, nil
}

// =============================================================================
// REGISTRATION
// =============================================================================

// Registrar is satisfied by worker.Worker and the SDK test environments.
type Registrar interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register adds the workflow and activity under their stable names.
func Register(r Registrar, acts *Activities) {
	r.RegisterWorkflowWithOptions(BridgeOperationWorkflow, workflow.RegisterOptions{Name: BridgeOperationWorkflowName})
	r.RegisterActivityWithOptions(acts.InvokeOperation, activity.RegisterOptions{Name: InvokeOperationActivityName})
}
