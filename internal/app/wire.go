package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/tbxark/formchat/agent"
	"github.com/tbxark/formchat/internal/config"
	"github.com/tbxark/formchat/store"
)

// NewChatModel builds the OpenAI compatible chat model described by cfg.
func NewChatModel(ctx context.Context, cfg config.Config) (model.ToolCallingChatModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key is required (api_key or FORMCHAT_API_KEY)")
	}
	mc := &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}
	if cfg.Temperature > 0 {
		temperature := cfg.Temperature
		mc.Temperature = &temperature
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		mc.MaxCompletionTokens = &maxTokens
	}
	cm, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return cm, nil
}

// NewCheckpointStore opens the backend selected by store.driver. The
// returned close function releases it.
func NewCheckpointStore(ctx context.Context, cfg config.StoreConfig) (*agent.CheckpointStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case config.StoreMemory, "":
		return agent.NewMemoryCheckpointStore(), noop, nil
	case config.StoreSQLite:
		db, err := store.OpenSQLite(ctx, store.SQLiteDSN(cfg.Path), cfg.Table)
		if err != nil {
			return nil, nil, err
		}
		return agent.NewCheckpointStore(db), db.Close, nil
	case config.StoreBlob:
		return agent.NewCheckpointStore(store.NewBlob(cfg.URL)), noop, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// NewRunner builds the runner for cfg around the given chat model.
func NewRunner(ctx context.Context, cfg config.Config, cm model.ToolCallingChatModel, cs *agent.CheckpointStore) (*agent.Runner, error) {
	rc := &agent.Config{
		Model:        cm,
		Store:        cs,
		Instructions: cfg.Agent.Instructions,
		MaxSteps:     cfg.Agent.MaxSteps,
	}
	if cfg.Agent.HistoryWindow > 0 {
		rc.Trimmer = agent.KeepSystemLastNTrimmer{N: cfg.Agent.HistoryWindow}
	}
	return agent.NewRunner(ctx, rc)
}
