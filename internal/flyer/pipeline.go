package flyer

import (
	"context"
	"errors"
	"time"

	"flyercalbackend/internal/llm"
)

// Config carries the fixed constants a pipeline instance runs with. It is
// passed in at construction so instances stay independently testable and
// parallelizable.
type Config struct {
	Model           string
	MaxTokens       int
	DefaultDuration time.Duration
	StartPolicy     StartPolicy
	Location        *time.Location
}

// Pipeline runs the end-to-end flow for one flyer: model call, payload
// extraction, and normalization. Instances share no mutable state, so one
// pipeline can serve concurrent documents; cancelling one document's
// context discards its partial results without affecting others.
type Pipeline struct {
	extractor *Extractor
}

// NewPipeline constructs a pipeline around a vision model client.
func NewPipeline(client llm.MessagesClient, cfg Config) (*Pipeline, error) {
	if client == nil {
		return nil, errors.New("pipeline requires a model client")
	}
	if cfg.Model == "" {
		return nil, errors.New("pipeline requires a model name")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = 2 * time.Hour
	}

	resolver := NewResolver(cfg.DefaultDuration)
	resolver.Location = cfg.Location

	return &Pipeline{
		extractor: &Extractor{
			Client:    client,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Normalizer: &Normalizer{
				Resolver: resolver,
				Policy:   cfg.StartPolicy,
			},
		},
	}, nil
}

// Run processes one flyer image into canonical events.
func (p *Pipeline) Run(ctx context.Context, image FlyerImage) ([]CanonicalEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.extractor.Extract(ctx, image)
}
