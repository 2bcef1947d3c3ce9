package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"paperchat-be/internal/pkg/logger"
	"paperchat-be/pkg/events"
	"paperchat-be/pkg/rag/citation"
	"paperchat-be/pkg/rag/conversation"
	"paperchat-be/pkg/rag/evidence"
	"paperchat-be/pkg/rag/modelconfig"
	"paperchat-be/pkg/rag/pipeline"
	"paperchat-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type mutableSource struct {
	mu  sync.Mutex
	cfg modelconfig.Config
	err error
}

func (s *mutableSource) Current(ctx context.Context) (modelconfig.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.err
}

func (s *mutableSource) set(cfg modelconfig.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

type scriptedPipeline struct {
	id       int
	answer   string
	evidence *evidence.Set
	err      error
	requests []pipeline.Request
	block    chan struct{}
}

func (p *scriptedPipeline) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	p.requests = append(p.requests, req)
	if p.block != nil {
		<-p.block
	}
	if p.err != nil {
		return nil, p.err
	}
	return &pipeline.Result{Answer: p.answer, Evidence: p.evidence}, nil
}

type countingFactory struct {
	built   []*scriptedPipeline
	configs []modelconfig.Config
	err     error
	next    func() *scriptedPipeline
}

func (f *countingFactory) Build(ctx context.Context, cfg modelconfig.Config) (pipeline.Pipeline, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := f.next()
	p.id = len(f.built) + 1
	f.built = append(f.built, p)
	f.configs = append(f.configs, cfg)
	return p, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

// ctxCheckingPipeline records whether the context it ran with was already done.
type ctxCheckingPipeline struct {
	seen error
}

func (p *ctxCheckingPipeline) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	p.seen = ctx.Err()
	return &pipeline.Result{Answer: "ok", Evidence: revenueSet()}, nil
}

func revenueSet() *evidence.Set {
	return evidence.MustSet(
		evidence.Passage{ID: 1, Text: "Revenue rose 10% YoY", Metadata: map[string]interface{}{"page": 3}},
		evidence.Passage{ID: 2, Text: "Costs were flat"},
	)
}

func baseConfig() modelconfig.Config {
	return modelconfig.Config{Provider: "ollama", Model: "llama3", TopK: 5}
}

func newSession(t *testing.T) *conversation.Session {
	t.Helper()
	s := conversation.NewSession("user-1")
	_, err := s.SwitchDocument(&store.Document{ID: "doc-1", Title: "Annual Report"})
	require.NoError(t, err)
	return s
}

func answering(answer string, set *evidence.Set) func() *scriptedPipeline {
	return func() *scriptedPipeline {
		return &scriptedPipeline{answer: answer, evidence: set}
	}
}

func TestSubmit_AppendsReconciledAnswer(t *testing.T) {
	source := &mutableSource{cfg: baseConfig()}
	factory := &countingFactory{next: answering("Revenue grew 10% [1].", revenueSet())}
	pub := &recordingPublisher{}
	o := New(source, factory, logger.NewNopLogger(), WithPublisher(pub))
	session := newSession(t)

	out, err := o.Submit(context.Background(), session, "How did revenue change?")
	require.NoError(t, err)
	assert.Equal(t, PhaseAppended, out.Phase)
	assert.False(t, out.Faulted())
	assert.True(t, out.Rebuilt)

	reply, ok := out.Reply.(conversation.AssistantTurn)
	require.True(t, ok)
	assert.Equal(t, "Revenue grew 10% "+citation.Anchor(1)+".", reply.Content)
	assert.Equal(t, "Revenue grew 10% [1].", reply.RawContent)
	require.Len(t, reply.Cited, 1)
	assert.Equal(t, 1, reply.Cited[0].ID)

	turns := session.State().Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, conversation.KindUser, turns[0].Kind())
	assert.Equal(t, "How did revenue change?", turns[0].Text())
	assert.Equal(t, conversation.KindAssistant, turns[1].Kind())

	req := factory.built[0].requests[0]
	assert.False(t, req.Stream)
	assert.Equal(t, 5, req.TopK)
	assert.Equal(t, "doc-1", req.Document.ID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeTurnAppended, pub.events[0].EventType())
	assert.Equal(t, []int{1}, pub.events[0].Payload()["cited_ids"])
}

func TestSubmit_ModelCannotForgeAnchors(t *testing.T) {
	forged := "Claim " + citation.Anchor(2) + " and [^2], fact [1]."
	factory := &countingFactory{next: answering(forged, revenueSet())}
	o := New(&mutableSource{cfg: baseConfig()}, factory, logger.NewNopLogger())

	out, err := o.Submit(context.Background(), newSession(t), "What happened?")
	require.NoError(t, err)

	reply, ok := out.Reply.(conversation.AssistantTurn)
	require.True(t, ok)
	assert.Equal(t, "Claim  and [^2], fact "+citation.Anchor(1)+".", reply.Content)
	assert.Equal(t, forged, reply.RawContent)
	require.Len(t, reply.Cited, 1)
	assert.Equal(t, 1, reply.Cited[0].ID)
}

func TestSubmit_UnresolvedMarkerStripped(t *testing.T) {
	set := evidence.MustSet(evidence.Passage{ID: 1, Text: "x"})
	o := New(&mutableSource{cfg: baseConfig()}, &countingFactory{next: answering("See [9] for details.", set)}, logger.NewNopLogger())
	session := newSession(t)

	out, err := o.Submit(context.Background(), session, "details?")
	require.NoError(t, err)
	reply := out.Reply.(conversation.AssistantTurn)
	assert.Equal(t, "See  for details.", reply.Content)
	assert.Empty(t, reply.Cited)
}

func TestSubmit_TopKChangeRebuildsPipeline(t *testing.T) {
	source := &mutableSource{cfg: baseConfig()}
	factory := &countingFactory{next: answering("ok [1]", revenueSet())}
	o := New(source, factory, logger.NewNopLogger())
	session := newSession(t)

	first, err := o.Submit(context.Background(), session, "q1")
	require.NoError(t, err)
	assert.True(t, first.Rebuilt)

	same, err := o.Submit(context.Background(), session, "q2")
	require.NoError(t, err)
	assert.False(t, same.Rebuilt)
	require.Len(t, factory.built, 1)

	cfg := baseConfig()
	cfg.TopK = 8
	source.set(cfg)

	changed, err := o.Submit(context.Background(), session, "q3")
	require.NoError(t, err)
	assert.True(t, changed.Rebuilt)
	require.Len(t, factory.built, 2)

	assert.Len(t, factory.built[0].requests, 2)
	require.Len(t, factory.built[1].requests, 1)
	assert.Equal(t, 8, factory.built[1].requests[0].TopK)
	assert.Equal(t, 8, factory.configs[1].TopK)

	b, ok := session.Binding()
	require.True(t, ok)
	assert.Equal(t, cfg, b.Config)
}

func TestSubmit_RetrievalErrorFaultsTurn(t *testing.T) {
	boom := errors.New("connection refused")
	factory := &countingFactory{next: func() *scriptedPipeline { return &scriptedPipeline{err: boom} }}
	pub := &recordingPublisher{}
	o := New(&mutableSource{cfg: baseConfig()}, factory, logger.NewNopLogger(), WithPublisher(pub))
	session := newSession(t)

	out, err := o.Submit(context.Background(), session, "How did revenue change?")
	require.NoError(t, err)
	assert.True(t, out.Faulted())

	var retrieval *RetrievalError
	require.ErrorAs(t, out.Err, &retrieval)
	assert.Equal(t, RetrievalProvider, retrieval.Kind)
	assert.ErrorIs(t, out.Err, boom)

	turns := session.State().Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, out.User, turns[0])
	assert.Equal(t, "assistant", turns[1].Role())
	assert.Equal(t, "Error: connection refused", turns[1].Text())
	assert.Empty(t, conversation.CitedEvidence(turns[1]))

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeTurnFaulted, pub.events[0].EventType())
	assert.Equal(t, "provider", pub.events[0].Payload()["reason"])
}

func TestSubmit_RetrievalErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		p    *scriptedPipeline
		want RetrievalErrorKind
	}{
		{name: "streaming", p: &scriptedPipeline{err: pipeline.ErrStreamingUnsupported}, want: RetrievalUnsupported},
		{name: "empty answer", p: &scriptedPipeline{answer: "   ", evidence: revenueSet()}, want: RetrievalInvalidOutput},
		{name: "missing evidence", p: &scriptedPipeline{answer: "ok"}, want: RetrievalInvalidOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := &countingFactory{next: func() *scriptedPipeline { return tt.p }}
			o := New(&mutableSource{cfg: baseConfig()}, factory, logger.NewNopLogger())

			out, err := o.Submit(context.Background(), newSession(t), "q")
			require.NoError(t, err)
			var retrieval *RetrievalError
			require.ErrorAs(t, out.Err, &retrieval)
			assert.Equal(t, tt.want, retrieval.Kind)
			assert.Equal(t, string(tt.want), out.Reply.(conversation.FaultedTurn).Reason)
		})
	}
}

func TestSubmit_ConfigFailuresFaultTurn(t *testing.T) {
	tests := []struct {
		name    string
		source  *mutableSource
		factory *countingFactory
	}{
		{
			name:    "source unavailable",
			source:  &mutableSource{err: errors.New("redis: connection refused")},
			factory: &countingFactory{next: answering("x", revenueSet())},
		},
		{
			name:    "build fails",
			source:  &mutableSource{cfg: baseConfig()},
			factory: &countingFactory{err: errors.New("unsupported LLM provider: mystery")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(tt.source, tt.factory, logger.NewNopLogger())
			session := newSession(t)

			out, err := o.Submit(context.Background(), session, "q")
			require.NoError(t, err)
			assert.True(t, out.Faulted())

			var rebuild *ConfigRebuildError
			require.ErrorAs(t, out.Err, &rebuild)
			assert.Equal(t, "config", out.Reply.(conversation.FaultedTurn).Reason)
			assert.Equal(t, 2, session.State().Len())
			_, bound := session.Binding()
			assert.False(t, bound)
		})
	}
}

func TestSubmit_Preconditions(t *testing.T) {
	o := New(&mutableSource{cfg: baseConfig()}, &countingFactory{next: answering("x", revenueSet())}, logger.NewNopLogger())

	_, err := o.Submit(context.Background(), nil, "q")
	assert.ErrorIs(t, err, ErrNilSession)

	session := newSession(t)
	_, err = o.Submit(context.Background(), session, "  \t")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	noDoc := conversation.NewSession("user-1")
	_, err = o.Submit(context.Background(), noDoc, "q")
	assert.ErrorIs(t, err, ErrNoActiveDocument)

	assert.Equal(t, 0, session.State().Len())
	assert.Equal(t, 0, noDoc.State().Len())
}

func TestSubmit_RejectsConcurrentTurn(t *testing.T) {
	block := make(chan struct{})
	factory := &countingFactory{next: func() *scriptedPipeline {
		return &scriptedPipeline{answer: "ok", evidence: revenueSet(), block: block}
	}}
	o := New(&mutableSource{cfg: baseConfig()}, factory, logger.NewNopLogger())
	session := newSession(t)

	done := make(chan *TurnOutcome)
	go func() {
		out, _ := o.Submit(context.Background(), session, "first")
		done <- out
	}()

	require.Eventually(t, func() bool { return session.State().Len() == 1 }, timeout, tick)

	_, err := o.Submit(context.Background(), session, "second")
	assert.ErrorIs(t, err, ErrTurnInProgress)

	close(block)
	out := <-done
	assert.Equal(t, PhaseAppended, out.Phase)
	assert.Equal(t, 2, session.State().Len())
}

func TestSubmit_IgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &ctxCheckingPipeline{}
	o := New(&mutableSource{cfg: baseConfig()}, pipeline.FactoryFunc(func(ctx context.Context, cfg modelconfig.Config) (pipeline.Pipeline, error) {
		return p, nil
	}), logger.NewNopLogger())

	out, err := o.Submit(ctx, newSession(t), "q")
	require.NoError(t, err)
	assert.Equal(t, PhaseAppended, out.Phase)
	assert.NoError(t, p.seen)
}

func TestSubmit_DocumentSwitchStartsEmpty(t *testing.T) {
	o := New(&mutableSource{cfg: baseConfig()}, &countingFactory{next: answering("ok [2]", revenueSet())}, logger.NewNopLogger())
	session := newSession(t)

	_, err := o.Submit(context.Background(), session, "q1")
	require.NoError(t, err)
	require.Equal(t, 2, session.State().Len())

	cleared, err := session.SwitchDocument(&store.Document{ID: "doc-2"})
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Equal(t, 0, session.State().Len())

	out, err := o.Submit(context.Background(), session, "q2")
	require.NoError(t, err)
	turns := session.State().Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, out.User, turns[0])
}

func TestSubmit_PhaseSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	o := New(&mutableSource{cfg: baseConfig()}, &countingFactory{next: answering("ok [1]", revenueSet())},
		logger.NewNopLogger(), WithTracer(tp.Tracer("test")))

	_, err := o.Submit(context.Background(), newSession(t), "q")
	require.NoError(t, err)

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"turn.config_check", "turn.retrieving", "turn.reconciling", "chat.turn"}, names)
}
