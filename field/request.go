package field

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

type RequestType string

const (
	RequestTypeField RequestType = "field"
	RequestTypeForm  RequestType = "form"
	RequestTypeText  RequestType = "text"
)

// Request is the envelope surfaced to the caller when the agent suspends.
type Request struct {
	ID     string      `json:"id"`
	Type   RequestType `json:"type"`
	Field  Field       `json:"field,omitempty"`
	Prompt string      `json:"prompt,omitempty"`
}

// NewRequest wraps a field definition in a field request.
func NewRequest(f Field) *Request {
	return &Request{
		ID:    uuid.NewString(),
		Type:  RequestTypeField,
		Field: f,
	}
}

func RequestNumber(description string) *Request {
	return NewRequest(NewNumberField(description))
}

type TextOption func(*TextField)

func WithPlaceholder(placeholder string) TextOption {
	return func(f *TextField) {
		f.Placeholder = placeholder
	}
}

func WithMaxLength(maxLength int) TextOption {
	return func(f *TextField) {
		f.MaxLength = maxLength
	}
}

func RequestText(description string, opts ...TextOption) (*Request, error) {
	f := NewTextField(description, "", DefaultMaxLength)
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.MaxLength <= 0 {
		return nil, &ConstructionError{Type: TypeText, Reason: fmt.Sprintf("max_length must be positive, got %d", f.MaxLength)}
	}
	return NewRequest(f), nil
}

func RequestDate(description string) *Request {
	return NewRequest(NewDateField(description))
}

func RequestCheckbox(description string, options []string) (*Request, error) {
	if err := checkOptions(TypeCheckbox, options); err != nil {
		return nil, err
	}
	return NewRequest(NewCheckboxField(description, options)), nil
}

func RequestRadio(description string, options []string) (*Request, error) {
	if err := checkOptions(TypeRadio, options); err != nil {
		return nil, err
	}
	return NewRequest(NewRadioField(description, options)), nil
}

// RequestPrompt wraps a free-form prompt into a text request.
func RequestPrompt(prompt string) *Request {
	return &Request{
		ID:     uuid.NewString(),
		Type:   RequestTypeText,
		Prompt: prompt,
	}
}

func checkOptions(t Type, options []string) error {
	if len(options) == 0 {
		return &ConstructionError{Type: t, Reason: "options must not be empty"}
	}
	seen := make(map[string]struct{}, len(options))
	for i, opt := range options {
		if strings.TrimSpace(opt) == "" {
			return &ConstructionError{Type: t, Reason: fmt.Sprintf("option %d is blank", i)}
		}
		if _, dup := seen[opt]; dup {
			return &ConstructionError{Type: t, Reason: fmt.Sprintf("duplicate option %q", opt)}
		}
		seen[opt] = struct{}{}
	}
	return nil
}

// Validate checks that the request envelope is consistent with its kind.
func (r *Request) Validate() error {
	if r == nil {
		return &ConstructionError{Reason: "request is nil"}
	}
	if r.ID == "" {
		return &ConstructionError{Reason: "request id is empty"}
	}
	switch r.Type {
	case RequestTypeField:
		if r.Field == nil {
			return &ConstructionError{Reason: "field request without field"}
		}
		want, ok := variantType(r.Field)
		if !ok {
			return &ConstructionError{Reason: fmt.Sprintf("unsupported field variant %T", r.Field)}
		}
		if got := r.Field.FieldType(); got != want {
			return &ConstructionError{Type: want, Reason: fmt.Sprintf("type tag %q does not match variant", got)}
		}
		if r.Field.FieldID() == "" {
			return &ConstructionError{Type: want, Reason: "field id is empty"}
		}
		switch want {
		case TypeCheckbox, TypeRadio:
			return checkOptions(want, Options(r.Field))
		case TypeText:
			if f := r.Field.(*TextField); f.MaxLength <= 0 {
				return &ConstructionError{Type: want, Reason: fmt.Sprintf("max_length must be positive, got %d", f.MaxLength)}
			}
		}
		return nil
	case RequestTypeText:
		return nil
	case RequestTypeForm:
		return &ConstructionError{Reason: "form requests are not supported"}
	default:
		return &ConstructionError{Reason: fmt.Sprintf("unknown request type %q", r.Type)}
	}
}

type requestWire struct {
	ID     string          `json:"id"`
	Type   RequestType     `json:"type"`
	Field  json.RawMessage `json:"field,omitempty"`
	Prompt string          `json:"prompt,omitempty"`
}

func (r *Request) UnmarshalJSON(data []byte) error {
	var wire requestWire
	if err := sonic.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.ID = wire.ID
	r.Type = wire.Type
	r.Prompt = wire.Prompt
	r.Field = nil
	if len(wire.Field) == 0 || string(wire.Field) == "null" {
		return nil
	}
	f, err := UnmarshalField(wire.Field)
	if err != nil {
		return err
	}
	r.Field = f
	return nil
}

// UnmarshalField decodes a field definition, dispatching on its type tag.
func UnmarshalField(data []byte) (Field, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := sonic.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode field: %w", err)
	}
	var f Field
	switch head.Type {
	case TypeText:
		f = &TextField{}
	case TypeNumber:
		f = &NumberField{}
	case TypeDate:
		f = &DateField{}
	case TypeCheckbox:
		f = &CheckboxField{}
	case TypeRadio:
		f = &RadioField{}
	default:
		return nil, &ConstructionError{Reason: fmt.Sprintf("unknown field type %q", head.Type)}
	}
	if err := sonic.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("decode %s field: %w", head.Type, err)
	}
	return f, nil
}
