package temporal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/agriservices/farmbridge/internal/bridge"
	"github.com/agriservices/farmbridge/internal/connector"
	"github.com/agriservices/farmbridge/internal/connector/soap"
	"github.com/agriservices/farmbridge/internal/soaptest"
)

// flakySender fails the first `failures` exchanges with a transport error.
type flakySender struct {
	inner    bridge.Sender
	failures atomic.Int32
	calls    atomic.Int32
}

func (f *flakySender) Send(ctx context.Context, address string, action bridge.Action, env bridge.Envelope) (*bridge.RawResponse, error) {
	f.calls.Add(1)
	if f.failures.Add(-1) >= 0 {
		return nil, fmt.Errorf("%w: connection reset by peer", bridge.ErrTransportFailure)
	}
	return f.inner.Send(ctx, address, action, env)
}

type fixture struct {
	crops   *soaptest.CropServer
	billing *soaptest.BillingServer
	sender   *flakySender
	registry *bridge.Registry
	acts     *Activities
}

func newFixture(t *testing.T, failures int32) *fixture {
	t.Helper()
	f := &fixture{
		crops:   soaptest.NewCropServer(t, soaptest.CropRecord{ID: 1, Name: "Wheat", Type: "Cereal", DiseaseStatus: "Healthy"}),
		billing: soaptest.NewBillingServer(t),
		sender:  &flakySender{inner: soap.NewClient(nil, nil)},
	}
	f.sender.failures.Store(failures)
	f.registry = connector.NewRegistry(connector.Endpoints{CropURL: f.crops.URL, BillingURL: f.billing.URL})
	f.acts = NewActivities(bridge.NewDispatcher(f.registry, f.sender))
	return f
}

func (f *fixture) input(t *testing.T, operationID string, params bridge.Params) OperationInput {
	t.Helper()
	in, err := NewOperationInput(f.registry, operationID, params, 0)
	require.NoError(t, err)
	return in
}

func runWorkflow(t *testing.T, f *fixture, input OperationInput) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	Register(env, f.acts)
	env.ExecuteWorkflow(BridgeOperationWorkflowName, input)
	require.True(t, env.IsWorkflowCompleted())
	return env
}

func applicationError(t *testing.T, err error) *temporal.ApplicationError {
	t.Helper()
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr), "expected application error, got %v", err)
	return appErr
}

func TestBridgeOperationWorkflow_Unit_GenerateInvoice(t *testing.T) {
	f := newFixture(t, 0)
	env := runWorkflow(t, f, f.input(t, "billing.invoice.generate", bridge.Params{"farmerName": "Alice Martin", "amount": 1250.75}))
	require.NoError(t, env.GetWorkflowError())

	var out OperationOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, "billing.invoice.generate", out.OperationID)
	assert.NotEmpty(t, out.CallID)
	assert.False(t, out.Empty)

	var message string
	require.NoError(t, json.Unmarshal(out.Value, &message))
	assert.Contains(t, message, "Facture 102")
	assert.Contains(t, string(f.billing.Requests()[0].Body), "<tem:amount>1250.75</tem:amount>")
}

func TestBridgeOperationWorkflow_Unit_RetriesTransportFailureOfIdempotentCall(t *testing.T) {
	f := newFixture(t, 2)
	env := runWorkflow(t, f, f.input(t, "crop.list", nil))
	require.NoError(t, env.GetWorkflowError())

	var out OperationOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.JSONEq(t, `[{"id":1,"name":"Wheat","type":"Cereal","diseaseStatus":"Healthy"}]`, string(out.Value))
	assert.Equal(t, int32(3), f.sender.calls.Load())
	assert.Len(t, f.crops.Requests(), 1)
}

func TestBridgeOperationWorkflow_Unit_DoesNotRetryNonIdempotentCall(t *testing.T) {
	f := newFixture(t, 1)
	env := runWorkflow(t, f, f.input(t, "crop.create", bridge.Params{"name": "Rice", "type": "Cereal", "diseaseStatus": "Healthy"}))

	appErr := applicationError(t, env.GetWorkflowError())
	assert.Equal(t, string(bridge.KindTransportFailure), appErr.Type())
	assert.True(t, appErr.NonRetryable())
	assert.Equal(t, int32(1), f.sender.calls.Load())
	assert.Empty(t, f.crops.Requests())
}

func TestOperationActivityOptions_Unit(t *testing.T) {
	f := newFixture(t, 0)

	generate, err := NewOperationInput(f.registry, "billing.invoice.generate", bridge.Params{"farmerName": "Bob", "amount": 1}, 3*time.Minute)
	require.NoError(t, err)
	assert.False(t, generate.Idempotent)
	generate.MaxAttempts = 5

	opts := operationActivityOptions(generate)
	assert.Equal(t, 3*time.Minute+startToCloseMargin, opts.StartToCloseTimeout, "attempt outlives the exchange")
	assert.Equal(t, int32(1), opts.RetryPolicy.MaximumAttempts, "non-idempotent operations run once")

	list := f.input(t, "crop.list", nil)
	assert.True(t, list.Idempotent)
	opts = operationActivityOptions(list)
	assert.Equal(t, defaultTransportTimeout+startToCloseMargin, opts.StartToCloseTimeout)
	assert.Equal(t, int32(defaultMaxAttempts), opts.RetryPolicy.MaximumAttempts)

	list.MaxAttempts = 2
	assert.Equal(t, int32(2), operationActivityOptions(list).RetryPolicy.MaximumAttempts)

	_, err = NewOperationInput(f.registry, "crop.harvest", nil, 0)
	assert.ErrorIs(t, err, bridge.ErrUnknownOperation)
}

func TestBridgeOperationWorkflow_Unit_NonIdempotentAttemptIsNeverRepeated(t *testing.T) {
	f := newFixture(t, 0)
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	Register(env, f.acts)

	// A retryable failure stands in for a StartToClose timeout or a lost
	// worker: the server repeats those without asking the activity.
	var attempts atomic.Int32
	env.OnActivity(InvokeOperationActivityName, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in OperationInput) (*OperationOutput, error) {
			attempts.Add(1)
			return nil, temporal.NewApplicationError("activity timed out", string(bridge.KindTimeout))
		})

	env.ExecuteWorkflow(BridgeOperationWorkflowName,
		f.input(t, "billing.invoice.generate", bridge.Params{"farmerName": "Alice Martin", "amount": 10}))
	require.True(t, env.IsWorkflowCompleted())

	appErr := applicationError(t, env.GetWorkflowError())
	assert.Equal(t, string(bridge.KindTimeout), appErr.Type())
	assert.Equal(t, int32(1), attempts.Load())
	assert.Empty(t, f.billing.Requests())
}

func TestBridgeOperationWorkflow_Unit_BackendFaultIsFinal(t *testing.T) {
	f := newFixture(t, 0)
	f.billing.FailNext(soaptest.Failure{Status: 500})
	env := runWorkflow(t, f, f.input(t, "billing.invoice.get", bridge.Params{"invoiceId": 101}))

	appErr := applicationError(t, env.GetWorkflowError())
	assert.Equal(t, string(bridge.KindBackendFault), appErr.Type())
	assert.Len(t, f.billing.Requests(), 1)
}

func TestBridgeOperationWorkflow_Unit_RequiresOperationID(t *testing.T) {
	f := newFixture(t, 0)
	env := runWorkflow(t, f, OperationInput{})

	appErr := applicationError(t, env.GetWorkflowError())
	assert.Equal(t, string(bridge.KindUnknownOperation), appErr.Type())
	assert.Zero(t, f.sender.calls.Load())
}

func TestInvokeOperation_Unit_EmptyResult(t *testing.T) {
	f := newFixture(t, 0)
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestActivityEnvironment()
	env.RegisterActivity(f.acts)

	val, err := env.ExecuteActivity(f.acts.InvokeOperation, OperationInput{
		OperationID: "crop.get",
		Params:      map[string]any{"id": 77},
	})
	require.NoError(t, err)

	var out OperationOutput
	require.NoError(t, val.Get(&out))
	assert.True(t, out.Empty)
	assert.JSONEq(t, `null`, string(out.Value))
}

func TestInvokeOperation_Unit_InvalidParameterIsNonRetryable(t *testing.T) {
	f := newFixture(t, 0)
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestActivityEnvironment()
	env.RegisterActivity(f.acts)

	_, err := env.ExecuteActivity(f.acts.InvokeOperation, OperationInput{
		OperationID: "crop.get",
		Params:      map[string]any{"id": -3},
	})
	appErr := applicationError(t, err)
	assert.Equal(t, string(bridge.KindInvalidParameter), appErr.Type())
	assert.True(t, appErr.NonRetryable())
	assert.Zero(t, f.sender.calls.Load())
}

func TestInvokeOperation_Unit_RejectsIdempotentClaimForWriteOperation(t *testing.T) {
	f := newFixture(t, 0)
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestActivityEnvironment()
	env.RegisterActivity(f.acts)

	_, err := env.ExecuteActivity(f.acts.InvokeOperation, OperationInput{
		OperationID: "billing.invoice.generate",
		Params:      map[string]any{"farmerName": "Bob", "amount": 1},
		Idempotent:  true,
	})
	appErr := applicationError(t, err)
	assert.True(t, appErr.NonRetryable())
	assert.Zero(t, f.sender.calls.Load())
}
