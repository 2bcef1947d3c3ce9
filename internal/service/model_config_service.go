package service

import (
	"context"

	"paperchat-be/internal/dto"
	"paperchat-be/internal/pkg/logger"
	"paperchat-be/pkg/rag/modelconfig"
)

// ModelConfigStore is the writable side of the live model configuration.
type ModelConfigStore interface {
	modelconfig.Source
	Save(ctx context.Context, cfg modelconfig.Config) error
}

type IModelConfigService interface {
	Get(ctx context.Context) (*dto.ModelConfigResponse, error)
	Update(ctx context.Context, req *dto.UpdateModelConfigRequest) (*dto.ModelConfigResponse, error)
}

type modelConfigService struct {
	store  ModelConfigStore
	logger logger.ILogger
}

func NewModelConfigService(store ModelConfigStore, logger logger.ILogger) IModelConfigService {
	return &modelConfigService{store: store, logger: logger}
}

func (s *modelConfigService) Get(ctx context.Context) (*dto.ModelConfigResponse, error) {
	cfg, err := s.store.Current(ctx)
	if err != nil {
		return nil, err
	}
	return toModelConfigResponse(cfg), nil
}

// Update replaces the live configuration. Sessions pick it up on their next turn.
func (s *modelConfigService) Update(ctx context.Context, req *dto.UpdateModelConfigRequest) (*dto.ModelConfigResponse, error) {
	cfg := modelconfig.Config{
		Provider:    req.Provider,
		Model:       req.Model,
		BaseURL:     req.BaseURL,
		Temperature: req.Temperature,
		TopK:        req.TopK,
	}.Normalize()

	if err := s.store.Save(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("ModelConfigService", "Model configuration updated", map[string]interface{}{"config": cfg.String()})
	return toModelConfigResponse(cfg), nil
}

func toModelConfigResponse(cfg modelconfig.Config) *dto.ModelConfigResponse {
	return &dto.ModelConfigResponse{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
		TopK:        cfg.TopK,
	}
}
