package field

import (
	"github.com/google/uuid"
)

// Type is the closed set of requestable field kinds.
type Type string

const (
	TypeText     Type = "text"
	TypeNumber   Type = "number"
	TypeDate     Type = "date"
	TypeCheckbox Type = "checkbox"
	TypeRadio    Type = "radio"
)

var allTypes = []Type{TypeText, TypeNumber, TypeDate, TypeCheckbox, TypeRadio}

// Types returns every field kind in declaration order.
func Types() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeCheckbox, TypeRadio:
		return true
	default:
		return false
	}
}

const DefaultMaxLength = 255

// Field is a field definition. The set of implementations is closed:
// *TextField, *NumberField, *DateField, *CheckboxField and *RadioField.
type Field interface {
	FieldID() string
	FieldType() Type
	FieldDescription() string
	sealed()
}

type Base struct {
	ID          string `json:"id" jsonschema:"description=Id of the field"`
	Type        Type   `json:"type" jsonschema:"enum=text,enum=number,enum=date,enum=checkbox,enum=radio,description=Type of field"`
	Description string `json:"description" jsonschema:"description=Description of the field"`
}

func (b Base) FieldID() string          { return b.ID }
func (b Base) FieldType() Type          { return b.Type }
func (b Base) FieldDescription() string { return b.Description }
func (Base) sealed()                    {}

func newBase(t Type, description string) Base {
	return Base{
		ID:          uuid.NewString(),
		Type:        t,
		Description: description,
	}
}

type TextField struct {
	Base
	Placeholder string `json:"placeholder"`
	MaxLength   int    `json:"max_length"`
}

type NumberField struct {
	Base
}

type DateField struct {
	Base
}

type CheckboxField struct {
	Base
	Options []string `json:"options"`
}

type RadioField struct {
	Base
	Options []string `json:"options"`
}

// NewTextField returns a text field. Zero or negative maxLength falls back to DefaultMaxLength.
func NewTextField(description, placeholder string, maxLength int) *TextField {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &TextField{
		Base:        newBase(TypeText, description),
		Placeholder: placeholder,
		MaxLength:   maxLength,
	}
}

func NewNumberField(description string) *NumberField {
	return &NumberField{Base: newBase(TypeNumber, description)}
}

func NewDateField(description string) *DateField {
	return &DateField{Base: newBase(TypeDate, description)}
}

func NewCheckboxField(description string, options []string) *CheckboxField {
	return &CheckboxField{
		Base:    newBase(TypeCheckbox, description),
		Options: cloneStrings(options),
	}
}

func NewRadioField(description string, options []string) *RadioField {
	return &RadioField{
		Base:    newBase(TypeRadio, description),
		Options: cloneStrings(options),
	}
}

func variantType(f Field) (Type, bool) {
	switch f.(type) {
	case *TextField:
		return TypeText, true
	case *NumberField:
		return TypeNumber, true
	case *DateField:
		return TypeDate, true
	case *CheckboxField:
		return TypeCheckbox, true
	case *RadioField:
		return TypeRadio, true
	default:
		return "", false
	}
}

// Options returns the option labels of a choice field, or nil for other kinds.
func Options(f Field) []string {
	switch v := f.(type) {
	case *CheckboxField:
		return cloneStrings(v.Options)
	case *RadioField:
		return cloneStrings(v.Options)
	default:
		return nil
	}
}

// Equal reports whether two definitions match on every attribute, identifier included.
func Equal(a, b Field) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *TextField:
		y, ok := b.(*TextField)
		return ok && x.Base == y.Base && x.Placeholder == y.Placeholder && x.MaxLength == y.MaxLength
	case *NumberField:
		y, ok := b.(*NumberField)
		return ok && x.Base == y.Base
	case *DateField:
		y, ok := b.(*DateField)
		return ok && x.Base == y.Base
	case *CheckboxField:
		y, ok := b.(*CheckboxField)
		return ok && x.Base == y.Base && equalStrings(x.Options, y.Options)
	case *RadioField:
		y, ok := b.(*RadioField)
		return ok && x.Base == y.Base && equalStrings(x.Options, y.Options)
	default:
		return false
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
