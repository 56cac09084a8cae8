package agent

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/formchat/field"
	"github.com/tbxark/formchat/patch"
)

const (
	CheckpointVersion   = "1.0"
	CheckpointNamespace = "formchat:checkpoint"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusSuspended Status = "suspended"
	StatusCompleted Status = "completed"
)

// Pending is the outstanding suspension of a session.
type Pending struct {
	ToolCall    schema.ToolCall   `json:"tool_call"`
	Queued      []schema.ToolCall `json:"queued,omitempty"`
	Request     *field.Request    `json:"request"`
	SuspendedAt time.Time         `json:"suspended_at"`
}

// Checkpoint is everything needed to continue a conversation in any process.
type Checkpoint struct {
	Version   string            `json:"version"`
	SessionID string            `json:"session_id"`
	Status    Status            `json:"status"`
	Messages  []*schema.Message `json:"messages"`
	Pending   *Pending          `json:"pending,omitempty"`
	Answers   patch.Sheet       `json:"answers,omitempty"`
	Steps     int               `json:"steps"`
	// Today is the date the current turn started; resumes reuse it so the
	// model input is a function of the checkpoint alone.
	Today     civil.Date        `json:"today"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func NewCheckpoint(sessionID string, now time.Time) *Checkpoint {
	return &Checkpoint{
		Version:   CheckpointVersion,
		SessionID: sessionID,
		Status:    StatusRunning,
		Today:     civil.DateOf(now),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

const skippedToolResult = "The user did not answer this request and wrote a new message instead."

// skipPending closes the outstanding suspension so the history stays a
// valid sequence of tool calls and tool results.
func (c *Checkpoint) skipPending() {
	if c.Pending == nil {
		return
	}
	calls := append([]schema.ToolCall{c.Pending.ToolCall}, c.Pending.Queued...)
	for _, call := range calls {
		c.Messages = append(c.Messages, schema.ToolMessage(skippedToolResult, call.ID, schema.WithToolName(call.Function.Name)))
	}
	c.Pending = nil
	c.Status = StatusRunning
}

func (c *Checkpoint) suspend(call schema.ToolCall, queued []schema.ToolCall, req *field.Request, now time.Time) {
	var rest []schema.ToolCall
	if len(queued) > 0 {
		rest = make([]schema.ToolCall, len(queued))
		copy(rest, queued)
	}
	c.Pending = &Pending{
		ToolCall:    call,
		Queued:      rest,
		Request:     req,
		SuspendedAt: now,
	}
	c.Status = StatusSuspended
}

// CheckpointStore persists checkpoints as JSON in a byte cache.
type CheckpointStore struct {
	store Store[[]byte]
}

func NewCheckpointStore(core Cache[[]byte]) *CheckpointStore {
	return &CheckpointStore{store: NewStore(core, CheckpointNamespace)}
}

func NewMemoryCheckpointStore() *CheckpointStore {
	return NewCheckpointStore(NewMemoryCache[[]byte]())
}

func (s *CheckpointStore) Load(ctx context.Context, sessionID string) (*Checkpoint, bool, error) {
	data, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("load checkpoint %q: %w", sessionID, err)
	}
	if !ok {
		return nil, false, nil
	}
	var cp Checkpoint
	if err := sonic.Unmarshal(data, &cp); err != nil {
		return nil, false, fmt.Errorf("decode checkpoint %q: %w", sessionID, err)
	}
	if cp.Version != CheckpointVersion {
		return nil, false, fmt.Errorf("%w: session %q has version %q, want %q", ErrIncompatibleCheckpoint, sessionID, cp.Version, CheckpointVersion)
	}
	return &cp, true, nil
}

func (s *CheckpointStore) Save(ctx context.Context, cp *Checkpoint) error {
	data, err := sonic.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint %q: %w", cp.SessionID, err)
	}
	if err := s.store.Set(ctx, cp.SessionID, data); err != nil {
		return fmt.Errorf("save checkpoint %q: %w", cp.SessionID, err)
	}
	return nil
}

func (s *CheckpointStore) Delete(ctx context.Context, sessionID string) error {
	return s.store.Del(ctx, sessionID)
}

func (s *CheckpointStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	return s.store.Exists(ctx, sessionID)
}
