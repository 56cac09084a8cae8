package app

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/formchat/agent"
	"github.com/tbxark/formchat/internal/config"
)

// TestLiveAsksForMissingInformation talks to the configured model. The
// model is expected to request at least one field for the default
// instructions.
func TestLiveAsksForMissingInformation(t *testing.T) {
	if os.Getenv("FORMCHAT_RUN_LIVE_TESTS") != "1" {
		t.Skip("set FORMCHAT_RUN_LIVE_TESTS=1 to run live LLM tests")
	}
	cfg, err := config.Load(os.Getenv("FORMCHAT_CONFIG"))
	require.NoError(t, err)
	if cfg.APIKey == "" {
		t.Skip("no api key configured")
	}

	ctx := context.Background()
	cm, err := NewChatModel(ctx, cfg)
	require.NoError(t, err)
	runner, err := NewRunner(ctx, cfg, cm, agent.NewMemoryCheckpointStore())
	require.NoError(t, err)

	resp, err := runner.Chat(ctx, "live", "Hi, I'd like to register.")
	require.NoError(t, err)
	require.Equal(t, agent.StatusSuspended, resp.Status, resp.Message)
	require.NotNil(t, resp.Interrupt)
	assert.NotEmpty(t, resp.Interrupt.ID)
}
