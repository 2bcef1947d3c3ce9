package pipeline

import (
	"context"
	"fmt"
	"strings"

	"paperchat-be/internal/pkg/logger"
	"paperchat-be/pkg/llm"
	"paperchat-be/pkg/llm/factory"
	"paperchat-be/pkg/rag/evidence"
	"paperchat-be/pkg/rag/modelconfig"
	"paperchat-be/pkg/rag/prompt"
	"paperchat-be/pkg/search"
)

// DocumentPipeline ranks the chunks of the active document lexically and asks
// the configured model to answer from the top passages.
type DocumentPipeline struct {
	provider llm.LLMProvider
	ranker   *search.Ranker
	cfg      modelconfig.Config
	logger   logger.ILogger
}

func NewDocumentPipeline(provider llm.LLMProvider, cfg modelconfig.Config, logger logger.ILogger) *DocumentPipeline {
	return &DocumentPipeline{
		provider: provider,
		ranker:   search.NewRanker(),
		cfg:      cfg.Normalize(),
		logger:   logger,
	}
}

// Config returns the configuration the pipeline was built from.
func (p *DocumentPipeline) Config() modelconfig.Config {
	return p.cfg
}

func (p *DocumentPipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Stream {
		return nil, ErrStreamingUnsupported
	}
	if req.Document == nil {
		return nil, ErrNoDocument
	}

	topK := req.TopK
	if topK < 1 {
		topK = p.cfg.TopK
	}

	chunks := p.ranker.Rank(req.Query, req.Document.Chunks, topK)
	passages := make([]evidence.Passage, len(chunks))
	for i, c := range chunks {
		passages[i] = evidence.Passage{
			ID:   i + 1,
			Text: c.Text,
			Metadata: map[string]interface{}{
				"page":        c.Page,
				"ordinal":     c.Ordinal,
				"score":       c.Score,
				"document_id": req.Document.ID,
			},
		}
	}
	set, err := evidence.NewSet(passages)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Pipeline", "Passages retrieved", map[string]interface{}{
		"document_id": req.Document.ID,
		"top_k":       topK,
		"retrieved":   len(passages),
	})

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompt.SystemPrompt},
		{Role: llm.RoleUser, Content: prompt.NewCitationBuilder(req.Document.Title, req.Query, passages).Build()},
	}
	answer, err := p.provider.Chat(ctx, messages, llm.WithTemperature(p.cfg.Temperature))
	if err != nil {
		return nil, fmt.Errorf("%s generation failed: %w", p.cfg.Provider, err)
	}
	if strings.TrimSpace(answer) == "" {
		return nil, ErrEmptyAnswer
	}

	return &Result{Answer: answer, Evidence: set}, nil
}

// ProviderFactory builds document pipelines backed by the LLM provider named in the config.
type ProviderFactory struct {
	keys   factory.Keys
	logger logger.ILogger
}

func NewFactory(keys factory.Keys, logger logger.ILogger) *ProviderFactory {
	return &ProviderFactory{keys: keys, logger: logger}
}

func (f *ProviderFactory) Build(ctx context.Context, cfg modelconfig.Config) (Pipeline, error) {
	provider, err := factory.NewLLMProvider(ctx, cfg.Provider, cfg.Model, cfg.BaseURL, f.keys)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Pipeline", "Pipeline built", map[string]interface{}{"config": cfg.String()})
	return NewDocumentPipeline(provider, cfg, f.logger), nil
}
