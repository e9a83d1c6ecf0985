package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the position of a call in the dispatch state machine.
type State string

const (
	StateStarted State = "started"
	StateBuilt   State = "built"
	StateSent    State = "sent"
	StateParsed  State = "parsed"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Dispatcher is the public entry point of the bridge. It holds no per-call
// state and is safe for concurrent use.
type Dispatcher struct {
	registry *Registry
	sender   Sender
	logger   *zap.Logger
	newID    func() string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithCallIDGenerator overrides the per-call identifier source.
func WithCallIDGenerator(fn func() string) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.newID = fn
		}
	}
}

// NewDispatcher creates a dispatcher over a populated registry.
func NewDispatcher(registry *Registry, sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		sender:   sender,
		logger:   zap.NewNop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the dispatcher's operation registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Invoke runs one call through lookup, build, send and parse. Every failure is
// returned as *Error tagged with the failing stage; partial results are never
// returned.
func (d *Dispatcher) Invoke(ctx context.Context, operationID string, params Params) (*Result, error) {
	callID := d.newID()
	ctx = WithCallID(ctx, callID)
	start := time.Now()
	log := d.logger.With(zap.String("operation", operationID), zap.String("call_id", callID))

	fail := func(stage Stage, fallback Kind, err error) (*Result, error) {
		be := newError(KindOf(err, fallback), stage, operationID, err)
		log.Debug("bridge call failed",
			zap.String("state", string(StateFailed)),
			zap.String("stage", string(stage)),
			zap.String("kind", string(be.Kind)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, be
	}

	desc, codec, err := d.registry.Lookup(operationID)
	if err != nil {
		return fail(StageLookup, KindUnknownOperation, err)
	}

	env, err := codec.Build(desc, params)
	if err != nil {
		return fail(StageBuild, KindInvalidParameter, err)
	}
	log.Debug("envelope built", zap.String("state", string(StateBuilt)), zap.Int("bytes", len(env)))

	raw, err := d.sender.Send(ctx, desc.Address, desc.Action, env)
	if err != nil {
		return fail(StageSend, KindTransportFailure, err)
	}
	log.Debug("response received",
		zap.String("state", string(StateSent)),
		zap.Int("status", raw.StatusCode),
		zap.Int("bytes", len(raw.Body)))

	value, err := codec.Parse(desc, raw)
	empty := false
	switch {
	case err == nil:
	case errors.Is(err, ErrNoResult):
		empty = true
	default:
		return fail(StageParse, KindMalformedResponse, err)
	}
	log.Debug("response parsed", zap.String("state", string(StateParsed)), zap.Bool("empty", empty))

	log.Debug("bridge call done",
		zap.String("state", string(StateDone)),
		zap.Duration("duration", time.Since(start)))
	return &Result{
		OperationID: operationID,
		CallID:      callID,
		Value:       value,
		Empty:       empty,
	}, nil
}
