package orchestrator

import (
	"errors"
	"fmt"

	"paperchat-be/pkg/rag/conversation"
	"paperchat-be/pkg/rag/pipeline"
)

// Precondition errors. Submit returns them without touching the conversation.
var (
	ErrEmptyQuery       = errors.New("query is empty")
	ErrNoActiveDocument = errors.New("no active document selected")
	ErrNilSession       = errors.New("session is nil")
	ErrTurnInProgress   = conversation.ErrTurnInProgress
)

// ConfigRebuildError means the pipeline could not be built for the current configuration.
type ConfigRebuildError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ConfigRebuildError) Error() string {
	if e.Provider == "" && e.Model == "" {
		return fmt.Sprintf("pipeline configuration failed: %v", e.Err)
	}
	return fmt.Sprintf("could not initialize %s/%s pipeline: %v", e.Provider, e.Model, e.Err)
}

func (e *ConfigRebuildError) Unwrap() error { return e.Err }

type RetrievalErrorKind string

const (
	RetrievalProvider      RetrievalErrorKind = "provider"
	RetrievalInvalidOutput RetrievalErrorKind = "invalid_output"
	RetrievalUnsupported   RetrievalErrorKind = "unsupported"
)

// RetrievalError means the retrieval-generation call failed or returned an unusable result.
type RetrievalError struct {
	Kind RetrievalErrorKind
	Err  error
}

func (e *RetrievalError) Error() string {
	return e.Err.Error()
}

func (e *RetrievalError) Unwrap() error { return e.Err }

var (
	errNilPipeline     = errors.New("factory returned no pipeline")
	errMissingResult   = errors.New("pipeline returned no result")
	errMissingEvidence = errors.New("pipeline returned no evidence set")
)

func classify(err error) RetrievalErrorKind {
	switch {
	case errors.Is(err, pipeline.ErrStreamingUnsupported):
		return RetrievalUnsupported
	case errors.Is(err, pipeline.ErrEmptyAnswer),
		errors.Is(err, errMissingResult),
		errors.Is(err, errMissingEvidence):
		return RetrievalInvalidOutput
	default:
		return RetrievalProvider
	}
}

// faultReason is the short machine-readable cause stored on a faulted turn.
func faultReason(err error) string {
	var rebuild *ConfigRebuildError
	if errors.As(err, &rebuild) {
		return "config"
	}
	var retrieval *RetrievalError
	if errors.As(err, &retrieval) {
		return string(retrieval.Kind)
	}
	return "unknown"
}
