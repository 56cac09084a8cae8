package field

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type InputBase struct {
	ID   string `json:"id"`
	Type Type   `json:"type"`
}

type TextInput struct {
	InputBase
	Value string `json:"value"`
}

type NumberInput struct {
	InputBase
	Value decimal.Decimal `json:"value"`
}

type DateInput struct {
	InputBase
	Value civil.Date `json:"value"`
}

// CheckboxInput carries the selected option identifiers under "values".
type CheckboxInput struct {
	InputBase
	Values []string `json:"values"`
}

type RadioInput struct {
	InputBase
	Value string `json:"value"`
}

// Answer is a parsed response bound to the definition it answers.
type Answer struct {
	FieldID     string `json:"field_id"`
	Type        Type   `json:"type"`
	Description string `json:"description"`
	Value       any    `json:"value"`
}
