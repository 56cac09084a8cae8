package patch

import (
	"time"

	"github.com/tbxark/formchat/field"
)

const (
	OperationAdd     = "add"
	OperationRemove  = "remove"
	OperationReplace = "replace"
)

type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// Entry is the latest answer recorded for one question.
type Entry struct {
	FieldID    string     `json:"field_id"`
	Type       field.Type `json:"type"`
	Value      any        `json:"value"`
	AnsweredAt time.Time  `json:"answered_at"`
}

// Sheet holds the collected answers keyed by the question asked.
type Sheet map[string]Entry
