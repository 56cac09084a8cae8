package agent

import (
	"github.com/cloudwego/eino/schema"
)

// Trimmer picks the part of a session history that is sent to the model.
// The stored history is never trimmed.
type Trimmer interface {
	Trim(history []*schema.Message) []*schema.Message
}

// KeepSystemLastNTrimmer keeps all system messages and roughly the last N
// other messages. The window never starts with tool results whose
// assistant call was cut off. When N <= 0 the history is kept whole.
type KeepSystemLastNTrimmer struct {
	N int
}

func (t KeepSystemLastNTrimmer) Trim(history []*schema.Message) []*schema.Message {
	history = normalizeHistory(history)
	if t.N <= 0 || len(history) == 0 {
		return history
	}

	nonSystemIdx := make([]int, 0, len(history))
	for i, m := range history {
		if m.Role != schema.System {
			nonSystemIdx = append(nonSystemIdx, i)
		}
	}
	if len(nonSystemIdx) <= t.N {
		return history
	}

	kept := nonSystemIdx[len(nonSystemIdx)-t.N:]
	for len(kept) > 0 && history[kept[0]].Role == schema.Tool {
		kept = kept[1:]
	}
	keep := make(map[int]struct{}, len(kept))
	for _, i := range kept {
		keep[i] = struct{}{}
	}

	out := make([]*schema.Message, 0, len(kept))
	for i, m := range history {
		if m.Role == schema.System {
			out = append(out, m)
			continue
		}
		if _, ok := keep[i]; ok {
			out = append(out, m)
		}
	}
	return out
}

func normalizeHistory(history []*schema.Message) []*schema.Message {
	if len(history) == 0 {
		return history
	}
	out := make([]*schema.Message, 0, len(history))
	for _, m := range history {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
