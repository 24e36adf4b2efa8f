package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jonathan/hired/internal/config"
	"github.com/jonathan/hired/internal/gateway"
	"github.com/jonathan/hired/internal/llm"
	"github.com/jonathan/hired/internal/observability"
	"github.com/jonathan/hired/internal/server"
	"github.com/jonathan/hired/internal/store"
	"github.com/jonathan/hired/internal/types"
)

// loadConfig reads --config and the environment, then configures logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	observability.Setup(os.Stderr, cfg.Log)
	return cfg, nil
}

// llmConfig maps the service configuration onto provider defaults.
func llmConfig(c config.LLMConfig) (*llm.Config, error) {
	cfg := llm.ConfigFor(llm.Provider(c.Provider))
	if cfg.Provider == llm.ProviderVertex {
		cfg.Project = c.Project
		cfg.Location = c.Location
	}
	for tier, model := range c.Models {
		switch t := llm.ModelTier(tier); t {
		case llm.TierLite, llm.TierStandard, llm.TierAdvanced:
			cfg = cfg.WithModel(t, model)
		default:
			return nil, fmt.Errorf("unknown model tier %q (want lite, standard or advanced)", tier)
		}
	}
	return cfg, nil
}

func apiKeyVar(provider string) string {
	if provider == config.ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// newAI builds the model gateway. Tests replace it.
var newAI = func(ctx context.Context, c config.LLMConfig) (server.AI, func() error, error) {
	if c.Provider != config.ProviderVertex && c.APIKey == "" {
		return nil, nil, fmt.Errorf("%s environment variable is required", apiKeyVar(c.Provider))
	}
	cfg, err := llmConfig(c)
	if err != nil {
		return nil, nil, err
	}
	client, err := llm.NewClient(ctx, cfg, c.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return gateway.New(client), client.Close, nil
}

// openStore connects to the configured backend. An unreachable database degrades to
// store.Unavailable so the interview still runs; results just are not saved.
func openStore(ctx context.Context, c config.StoreConfig) (store.Store, error) {
	st, err := store.Open(ctx, c)
	if errors.Is(err, types.ErrStoreUnavailable) {
		observability.Logger().Warn("session store unavailable, results will not be saved",
			"backend", c.Backend, "error", err)
		return store.Unavailable{Reason: err}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return st, nil
}
