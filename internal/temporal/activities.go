package temporal

import (
	"context"
	"encoding/json"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/agriservices/farmbridge/internal/bridge"
)

// Activities holds the bridge used by InvokeOperation.
type Activities struct {
	invoker  bridge.Invoker
	registry *bridge.Registry
}

// NewActivities creates the activity set over a dispatcher.
func NewActivities(d *bridge.Dispatcher) *Activities {
	return &Activities{invoker: d, registry: d.Registry()}
}

// InvokeOperation performs exactly one bridge call. Bridge failures are
// returned as application errors typed by their kind; only transport-level
// failures of idempotent operations stay retryable.
func (a *Activities) InvokeOperation(ctx context.Context, input OperationInput) (*OperationOutput, error) {
	logger := activity.GetLogger(ctx)
	attempt := activity.GetInfo(ctx).Attempt
	logger.Info("invoking bridge operation", "operation", input.OperationID, "attempt", attempt)

	if desc, _, err := a.registry.Lookup(input.OperationID); err == nil && input.Idempotent && !desc.Idempotent {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("%s is not idempotent and cannot run under a retry policy", input.OperationID),
			string(bridge.KindInvalidParameter), nil)
	}

	result, err := a.invoker.Invoke(ctx, input.OperationID, bridge.Params(input.Params))
	if err != nil {
		return nil, a.applicationError(input.OperationID, err)
	}

	value, err := json.Marshal(result.Value)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("encode result of %s: %v", input.OperationID, err),
			string(bridge.KindMalformedResponse), err)
	}
	return &OperationOutput{
		OperationID: result.OperationID,
		CallID:      result.CallID,
		Empty:       result.Empty,
		Value:       value,
	}, nil
}

func (a *Activities) applicationError(operationID string, err error) error {
	be, ok := bridge.AsError(err)
	if !ok {
		return err
	}
	if be.Retryable() && a.idempotent(operationID) {
		return temporal.NewApplicationErrorWithCause(be.Error(), string(be.Kind), be)
	}
	return temporal.NewNonRetryableApplicationError(be.Error(), string(be.Kind), be)
}

func (a *Activities) idempotent(operationID string) bool {
	desc, _, err := a.registry.Lookup(operationID)
	return err == nil && desc.Idempotent
}
