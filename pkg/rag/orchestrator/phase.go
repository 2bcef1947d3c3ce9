package orchestrator

import (
	"context"
	"fmt"

	"paperchat-be/internal/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Phase is a state of the per-turn state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConfigCheck
	PhaseRetrieving
	PhaseReconciling
	PhaseAppended
	PhaseFaulted
)

var phaseNames = map[Phase]string{
	PhaseIdle:        "idle",
	PhaseConfigCheck: "config_check",
	PhaseRetrieving:  "retrieving",
	PhaseReconciling: "reconciling",
	PhaseAppended:    "appended",
	PhaseFaulted:     "faulted",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

var transitions = map[Phase][]Phase{
	PhaseIdle:        {PhaseConfigCheck},
	PhaseConfigCheck: {PhaseRetrieving, PhaseFaulted},
	PhaseRetrieving:  {PhaseReconciling, PhaseFaulted},
	PhaseReconciling: {PhaseAppended},
}

func (p Phase) CanTransition(to Phase) bool {
	for _, next := range transitions[p] {
		if next == to {
			return true
		}
	}
	return false
}

func (p Phase) Terminal() bool {
	return p == PhaseAppended || p == PhaseFaulted
}

// turnRun tracks one turn through its phases. Every non-terminal phase gets a child span.
type turnRun struct {
	phase     Phase
	root      context.Context
	ctx       context.Context
	span      trace.Span
	tracer    trace.Tracer
	logger    logger.ILogger
	sessionID string
}

func newTurnRun(root context.Context, tracer trace.Tracer, logger logger.ILogger, sessionID string) *turnRun {
	return &turnRun{
		phase:     PhaseIdle,
		root:      root,
		ctx:       root,
		tracer:    tracer,
		logger:    logger,
		sessionID: sessionID,
	}
}

// enter moves the run to phase to. An illegal transition is a programming error and panics.
func (r *turnRun) enter(to Phase) {
	if !r.phase.CanTransition(to) {
		panic(fmt.Sprintf("orchestrator: illegal turn transition %s -> %s", r.phase, to))
	}
	if r.span != nil {
		r.span.End()
		r.span = nil
	}

	r.logger.Debug("Orchestrator", "Turn phase changed", map[string]interface{}{
		"session_id": r.sessionID,
		"from":       r.phase.String(),
		"to":         to.String(),
	})
	r.phase = to

	if to.Terminal() {
		r.ctx = r.root
		return
	}
	r.ctx, r.span = r.tracer.Start(r.root, "turn."+to.String(),
		trace.WithAttributes(attribute.String("session.id", r.sessionID)))
}

// fail records err on the current phase span and moves to Faulted.
func (r *turnRun) fail(err error) {
	if r.span != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	}
	r.enter(PhaseFaulted)
}

// Context is the context of the current phase span.
func (r *turnRun) Context() context.Context {
	return r.ctx
}

func (r *turnRun) Phase() Phase {
	return r.phase
}
