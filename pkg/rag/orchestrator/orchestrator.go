package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"paperchat-be/internal/pkg/logger"
	"paperchat-be/pkg/events"
	"paperchat-be/pkg/rag/citation"
	"paperchat-be/pkg/rag/conversation"
	"paperchat-be/pkg/rag/modelconfig"
	"paperchat-be/pkg/rag/pipeline"
	"paperchat-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const publishTimeout = 5 * time.Second

// TurnOutcome is what one submitted query produced. Reply is an
// AssistantTurn when Phase is PhaseAppended and a FaultedTurn otherwise.
type TurnOutcome struct {
	User    conversation.UserTurn
	Reply   conversation.Turn
	Phase   Phase
	Rebuilt bool
	Err     error
}

func (o *TurnOutcome) Faulted() bool {
	return o.Phase == PhaseFaulted
}

type Option func(*Orchestrator)

// WithPublisher sends a turn event after every terminal phase.
func WithPublisher(p events.Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// Orchestrator runs dialogue turns: it keeps each session's pipeline in step
// with the model configuration, calls the pipeline and reconciles citations.
type Orchestrator struct {
	source    modelconfig.Source
	factory   pipeline.Factory
	publisher events.Publisher
	tracer    trace.Tracer
	logger    logger.ILogger
}

func New(source modelconfig.Source, factory pipeline.Factory, logger logger.ILogger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:  source,
		factory: factory,
		logger:  logger,
		tracer:  otel.Tracer("paperchat-be/orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit runs one turn for query on session. The user turn is appended before
// retrieval starts and is always answered by an assistant or faulted turn.
// An error is returned only when a precondition fails, in which case nothing is appended.
// Once started the turn ignores cancellation of ctx.
func (o *Orchestrator) Submit(ctx context.Context, session *conversation.Session, query string) (*TurnOutcome, error) {
	if session == nil {
		return nil, ErrNilSession
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	release, err := session.BeginTurn()
	if err != nil {
		return nil, err
	}
	defer release()

	doc := session.ActiveDocument()
	if doc == nil {
		return nil, ErrNoActiveDocument
	}

	ctx, span := o.tracer.Start(context.WithoutCancel(ctx), "chat.turn",
		trace.WithAttributes(
			attribute.String("session.id", session.ID.String()),
			attribute.String("document.id", doc.ID),
		))
	defer span.End()

	state := session.State()
	outcome := &TurnOutcome{User: conversation.NewUserTurn(query)}
	if _, err := state.Append(outcome.User); err != nil {
		return nil, err
	}

	run := newTurnRun(ctx, o.tracer, o.logger, session.ID.String())

	run.enter(PhaseConfigCheck)
	bound, rebuilt, err := o.ensurePipeline(run.Context(), session)
	if err != nil {
		o.fault(run, session, doc, outcome, err)
		span.SetStatus(codes.Error, err.Error())
		return outcome, nil
	}
	outcome.Rebuilt = rebuilt

	run.enter(PhaseRetrieving)
	res, err := o.retrieve(run.Context(), bound, query, doc)
	if err != nil {
		o.fault(run, session, doc, outcome, err)
		span.SetStatus(codes.Error, err.Error())
		return outcome, nil
	}

	run.enter(PhaseReconciling)
	// model output never carries anchors of its own
	answer := citation.ReconcileText(citation.StripAnchors(res.Answer), res.Evidence)
	reply := conversation.NewAssistantTurn(answer, res.Answer)
	if _, err := state.Append(reply); err != nil {
		return nil, err
	}
	run.enter(PhaseAppended)

	outcome.Reply = reply
	outcome.Phase = run.Phase()

	o.logger.Info("Orchestrator", "Turn appended", map[string]interface{}{
		"session_id": session.ID.String(),
		"retrieved":  res.Evidence.Len(),
		"cited":      len(answer.Cited),
		"rebuilt":    rebuilt,
	})

	cited := make([]int, len(answer.Cited))
	for i, p := range answer.Cited {
		cited[i] = p.ID
	}
	o.publish(ctx, events.NewTurnAppended(events.TurnRecord{
		SessionID:  session.ID.String(),
		UserID:     session.UserID,
		DocumentID: doc.ID,
		TurnID:     reply.ID.String(),
		Query:      query,
		Content:    reply.Content,
		RawContent: reply.RawContent,
		CitedIDs:   cited,
	}, reply.CreatedAt))

	return outcome, nil
}

// ensurePipeline returns the session's pipeline, rebuilding it first when the
// configuration differs from the one it was built with.
func (o *Orchestrator) ensurePipeline(ctx context.Context, session *conversation.Session) (conversation.Binding, bool, error) {
	cfg, err := o.source.Current(ctx)
	if err != nil {
		return conversation.Binding{}, false, &ConfigRebuildError{Err: fmt.Errorf("read model configuration: %w", err)}
	}
	cfg = cfg.Normalize()

	if b, ok := session.Binding(); ok && b.Config == cfg {
		return b, false, nil
	}

	p, err := o.build(ctx, cfg)
	if err != nil {
		return conversation.Binding{}, false, &ConfigRebuildError{Provider: cfg.Provider, Model: cfg.Model, Err: err}
	}
	session.Rebind(cfg, p)

	o.logger.Info("Orchestrator", "Pipeline rebuilt", map[string]interface{}{
		"session_id": session.ID.String(),
		"config":     cfg.String(),
	})
	return conversation.Binding{Config: cfg, Pipeline: p}, true, nil
}

func (o *Orchestrator) build(ctx context.Context, cfg modelconfig.Config) (p pipeline.Pipeline, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("pipeline factory panicked: %v", r)
		}
	}()
	p, err = o.factory.Build(ctx, cfg)
	if err == nil && p == nil {
		err = errNilPipeline
	}
	return p, err
}

func (o *Orchestrator) retrieve(ctx context.Context, b conversation.Binding, query string, doc *store.Document) (res *pipeline.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &RetrievalError{Kind: RetrievalProvider, Err: fmt.Errorf("pipeline panicked: %v", r)}
		}
	}()

	res, err = b.Pipeline.Run(ctx, pipeline.Request{
		Query:    query,
		Document: doc,
		TopK:     b.Config.TopK,
		Stream:   false,
	})
	if err == nil {
		switch {
		case res == nil:
			err = errMissingResult
		case res.Evidence == nil:
			err = errMissingEvidence
		case strings.TrimSpace(res.Answer) == "":
			err = pipeline.ErrEmptyAnswer
		}
	}
	if err != nil {
		return nil, &RetrievalError{Kind: classify(err), Err: err}
	}
	return res, nil
}

func (o *Orchestrator) fault(run *turnRun, session *conversation.Session, doc *store.Document, outcome *TurnOutcome, cause error) {
	run.fail(cause)

	reason := faultReason(cause)
	reply := conversation.NewFaultedTurn("Error: "+cause.Error(), reason)
	if _, err := session.State().Append(reply); err != nil {
		o.logger.Error("Orchestrator", "Failed to append faulted turn", map[string]interface{}{"error": err.Error()})
	}

	outcome.Reply = reply
	outcome.Phase = run.Phase()
	outcome.Err = cause

	o.logger.Warn("Orchestrator", "Turn faulted", map[string]interface{}{
		"session_id": session.ID.String(),
		"reason":     reason,
		"error":      cause.Error(),
	})

	o.publish(run.root, events.NewTurnFaulted(events.TurnRecord{
		SessionID:  session.ID.String(),
		UserID:     session.UserID,
		DocumentID: doc.ID,
		TurnID:     reply.ID.String(),
		Query:      outcome.User.Content,
		Content:    reply.Message,
		Reason:     reason,
	}, reply.CreatedAt))
}

// publish is best effort; a lost event never changes the turn.
func (o *Orchestrator) publish(ctx context.Context, event events.Event) {
	if o.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Warn("Orchestrator", "Failed to publish turn event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}
