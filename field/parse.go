package field

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

// payloadAPI keeps numbers as json.Number so decimals survive decoding untouched.
var payloadAPI = sonic.Config{UseNumber: true}.Froze()

// DecodePayload parses raw JSON into the untyped tree the parsers accept.
func DecodePayload(data []byte) (any, error) {
	var out any
	if err := payloadAPI.Unmarshal(data, &out); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	return out, nil
}

func ParseText(payload any) (string, error) {
	in, err := DecodeText(payload)
	if err != nil {
		return "", err
	}
	return in.Value, nil
}

func ParseNumber(payload any) (decimal.Decimal, error) {
	in, err := DecodeNumber(payload)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return in.Value, nil
}

func ParseDate(payload any) (civil.Date, error) {
	in, err := DecodeDate(payload)
	if err != nil {
		return civil.Date{}, err
	}
	return in.Value, nil
}

func ParseCheckbox(payload any) ([]string, error) {
	in, err := DecodeCheckbox(payload)
	if err != nil {
		return nil, err
	}
	return in.Values, nil
}

func ParseRadio(payload any) (string, error) {
	in, err := DecodeRadio(payload)
	if err != nil {
		return "", err
	}
	return in.Value, nil
}

func DecodeText(payload any) (*TextInput, error) {
	obj, base, err := envelope(TypeText, payload)
	if err != nil {
		return nil, err
	}
	raw, ok := obj["value"]
	if !ok {
		return nil, invalid(TypeText, "value", "is required")
	}
	s, ok := raw.(string)
	if !ok {
		return nil, invalid(TypeText, "value", "must be a string, got %s", kindOf(raw))
	}
	return &TextInput{InputBase: base, Value: s}, nil
}

func DecodeNumber(payload any) (*NumberInput, error) {
	obj, base, err := envelope(TypeNumber, payload)
	if err != nil {
		return nil, err
	}
	raw, ok := obj["value"]
	if !ok {
		return nil, invalid(TypeNumber, "value", "is required")
	}
	var d decimal.Decimal
	switch v := raw.(type) {
	case json.Number:
		d, err = decimal.NewFromString(v.String())
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, invalid(TypeNumber, "value", "is empty")
		}
		d, err = decimal.NewFromString(s)
	case float64:
		d = decimal.NewFromFloat(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case decimal.Decimal:
		d = v
	default:
		return nil, invalid(TypeNumber, "value", "must be a number, got %s", kindOf(raw))
	}
	if err != nil {
		return nil, invalid(TypeNumber, "value", "%q is not a decimal number", fmt.Sprint(raw))
	}
	return &NumberInput{InputBase: base, Value: d}, nil
}

func DecodeDate(payload any) (*DateInput, error) {
	obj, base, err := envelope(TypeDate, payload)
	if err != nil {
		return nil, err
	}
	raw, ok := obj["value"]
	if !ok {
		return nil, invalid(TypeDate, "value", "is required")
	}
	var d civil.Date
	switch v := raw.(type) {
	case string:
		d, err = civil.ParseDate(strings.TrimSpace(v))
		if err != nil {
			return nil, invalid(TypeDate, "value", "%q is not an ISO date (YYYY-MM-DD)", v)
		}
	case civil.Date:
		d = v
	default:
		return nil, invalid(TypeDate, "value", "must be an ISO date string, got %s", kindOf(raw))
	}
	if !d.IsValid() {
		return nil, invalid(TypeDate, "value", "%s is not a valid date", d)
	}
	return &DateInput{InputBase: base, Value: d}, nil
}

func DecodeCheckbox(payload any) (*CheckboxInput, error) {
	obj, base, err := envelope(TypeCheckbox, payload)
	if err != nil {
		return nil, err
	}
	raw, ok := obj["values"]
	if !ok {
		if _, singular := obj["value"]; singular {
			return nil, invalid(TypeCheckbox, "values", "is required (found \"value\")")
		}
		return nil, invalid(TypeCheckbox, "values", "is required")
	}
	values, err := stringList(TypeCheckbox, "values", raw)
	if err != nil {
		return nil, err
	}
	return &CheckboxInput{InputBase: base, Values: values}, nil
}

func DecodeRadio(payload any) (*RadioInput, error) {
	obj, base, err := envelope(TypeRadio, payload)
	if err != nil {
		return nil, err
	}
	raw, ok := obj["value"]
	if !ok {
		return nil, invalid(TypeRadio, "value", "is required")
	}
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, invalid(TypeRadio, "value", "exactly one option must be selected")
		}
		return &RadioInput{InputBase: base, Value: v}, nil
	case []any:
		return nil, invalid(TypeRadio, "value", "exactly one option must be selected, got a list of %d", len(v))
	case []string:
		return nil, invalid(TypeRadio, "value", "exactly one option must be selected, got a list of %d", len(v))
	default:
		return nil, invalid(TypeRadio, "value", "must be a string, got %s", kindOf(raw))
	}
}

// Parse validates payload against the kind of f and returns the typed answer.
func Parse(f Field, payload any) (*Answer, error) {
	if f == nil {
		return nil, &ConstructionError{Reason: "field is nil"}
	}
	var value any
	var err error
	switch f.(type) {
	case *TextField:
		value, err = ParseText(payload)
	case *NumberField:
		value, err = ParseNumber(payload)
	case *DateField:
		value, err = ParseDate(payload)
	case *CheckboxField:
		value, err = ParseCheckbox(payload)
	case *RadioField:
		value, err = ParseRadio(payload)
	default:
		return nil, &ConstructionError{Reason: fmt.Sprintf("unsupported field variant %T", f)}
	}
	if err != nil {
		return nil, err
	}
	return &Answer{
		FieldID:     f.FieldID(),
		Type:        f.FieldType(),
		Description: f.FieldDescription(),
		Value:       value,
	}, nil
}

// MatchRequest checks that payload answers the field carried by req:
// same type tag and same field identifier.
func MatchRequest(req *Request, payload any) error {
	if req == nil || req.Type != RequestTypeField || req.Field == nil {
		return nil
	}
	t := req.Field.FieldType()
	_, base, err := envelope(t, payload)
	if err != nil {
		return err
	}
	if base.ID != req.Field.FieldID() {
		return invalid(t, "id", "%q does not match pending field %q", base.ID, req.Field.FieldID())
	}
	return nil
}

func envelope(t Type, payload any) (map[string]any, InputBase, error) {
	obj, err := asObject(t, payload)
	if err != nil {
		return nil, InputBase{}, err
	}
	rawType, ok := obj["type"]
	if !ok {
		return nil, InputBase{}, invalid(t, "type", "is required")
	}
	tag, ok := rawType.(string)
	if !ok {
		return nil, InputBase{}, invalid(t, "type", "must be a string, got %s", kindOf(rawType))
	}
	if Type(tag) != t {
		return nil, InputBase{}, invalid(t, "type", "expected %q, got %q", t, tag)
	}
	rawID, ok := obj["id"]
	if !ok {
		return nil, InputBase{}, invalid(t, "id", "is required")
	}
	id, ok := rawID.(string)
	if !ok || strings.TrimSpace(id) == "" {
		return nil, InputBase{}, invalid(t, "id", "must be a non-empty string")
	}
	return obj, InputBase{ID: id, Type: t}, nil
}

func asObject(t Type, payload any) (map[string]any, error) {
	switch p := payload.(type) {
	case nil:
		return nil, invalid(t, "", "payload is empty")
	case map[string]any:
		return p, nil
	case json.RawMessage:
		return decodeObject(t, p)
	case []byte:
		return decodeObject(t, p)
	case TextInput:
		return inputObject(p.InputBase, "value", p.Value), nil
	case NumberInput:
		return inputObject(p.InputBase, "value", p.Value), nil
	case DateInput:
		return inputObject(p.InputBase, "value", p.Value), nil
	case CheckboxInput:
		return inputObject(p.InputBase, "values", p.Values), nil
	case RadioInput:
		return inputObject(p.InputBase, "value", p.Value), nil
	case *TextInput, *NumberInput, *DateInput, *CheckboxInput, *RadioInput:
		rv := reflect.ValueOf(p)
		if rv.IsNil() {
			return nil, invalid(t, "", "payload is empty")
		}
		return asObject(t, rv.Elem().Interface())
	default:
		return nil, invalid(t, "", "payload must be an object, got %s", kindOf(payload))
	}
}

// inputObject exposes a typed input to the envelope checks without a JSON
// round trip, so decimal scale reaches the decoders untouched.
func inputObject(base InputBase, key string, value any) map[string]any {
	return map[string]any{"id": base.ID, "type": string(base.Type), key: value}
}

func decodeObject(t Type, data []byte) (map[string]any, error) {
	tree, err := DecodePayload(data)
	if err != nil {
		return nil, invalid(t, "", "%s", err.(*ValidationError).Reason)
	}
	obj, ok := tree.(map[string]any)
	if !ok {
		return nil, invalid(t, "", "payload must be an object, got %s", kindOf(tree))
	}
	return obj, nil
}

func stringList(t Type, key string, raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return cloneStringsNonNil(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, invalid(t, key, "item %d must be a string, got %s", i, kindOf(item))
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, invalid(t, key, "must be a list of strings, got %s", kindOf(raw))
	}
}

func cloneStringsNonNil(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64:
		return "number"
	case []any, []string:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
