package pipeline

import (
	"context"
	"errors"

	"paperchat-be/pkg/rag/evidence"
	"paperchat-be/pkg/rag/modelconfig"
	"paperchat-be/pkg/store"
)

var (
	ErrStreamingUnsupported = errors.New("pipeline does not support streaming")
	ErrEmptyAnswer          = errors.New("pipeline returned an empty answer")
	ErrNoDocument           = errors.New("no document given to the pipeline")
)

// Request is one retrieval-generation call.
type Request struct {
	Query    string
	Document *store.Document
	TopK     int
	Stream   bool
}

// Result is the complete output of a non-streaming call.
type Result struct {
	Answer   string
	Evidence *evidence.Set
}

// Pipeline runs retrieval and generation as one blocking operation.
type Pipeline interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// Factory builds a pipeline instance for a model configuration.
type Factory interface {
	Build(ctx context.Context, cfg modelconfig.Config) (Pipeline, error)
}

type FactoryFunc func(ctx context.Context, cfg modelconfig.Config) (Pipeline, error)

func (f FactoryFunc) Build(ctx context.Context, cfg modelconfig.Config) (Pipeline, error) {
	return f(ctx, cfg)
}
