package field

import (
	"fmt"

	"github.com/eino-contrib/jsonschema"
)

type textInputSchema struct {
	ID    string `json:"id" jsonschema:"required,description=Id of the requested field"`
	Type  Type   `json:"type" jsonschema:"required,enum=text"`
	Value string `json:"value" jsonschema:"required,description=Entered text"`
}

type numberInputSchema struct {
	ID    string `json:"id" jsonschema:"required,description=Id of the requested field"`
	Type  Type   `json:"type" jsonschema:"required,enum=number"`
	Value string `json:"value" jsonschema:"required,description=Decimal value; a JSON number or a numeric string"`
}

type dateInputSchema struct {
	ID    string `json:"id" jsonschema:"required,description=Id of the requested field"`
	Type  Type   `json:"type" jsonschema:"required,enum=date"`
	Value string `json:"value" jsonschema:"required,format=date,description=Calendar date in YYYY-MM-DD form"`
}

type checkboxInputSchema struct {
	ID     string   `json:"id" jsonschema:"required,description=Id of the requested field"`
	Type   Type     `json:"type" jsonschema:"required,enum=checkbox"`
	Values []string `json:"values" jsonschema:"required,description=Selected option labels; may be empty"`
}

type radioInputSchema struct {
	ID    string `json:"id" jsonschema:"required,description=Id of the requested field"`
	Type  Type   `json:"type" jsonschema:"required,enum=radio"`
	Value string `json:"value" jsonschema:"required,minLength=1,description=The single selected option label"`
}

// InputSchema returns the JSON Schema a response payload for kind t must satisfy.
func InputSchema(t Type) (*jsonschema.Schema, error) {
	var s *jsonschema.Schema
	switch t {
	case TypeText:
		s = jsonschema.Reflect(&textInputSchema{})
	case TypeNumber:
		s = jsonschema.Reflect(&numberInputSchema{})
	case TypeDate:
		s = jsonschema.Reflect(&dateInputSchema{})
	case TypeCheckbox:
		s = jsonschema.Reflect(&checkboxInputSchema{})
	case TypeRadio:
		s = jsonschema.Reflect(&radioInputSchema{})
	default:
		return nil, fmt.Errorf("unknown field type %q", t)
	}
	s.Title = fmt.Sprintf("%s field input", t)
	return s, nil
}
