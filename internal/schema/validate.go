package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/qri-io/jsonpointer"
)

var ErrUnknownEvent = errors.New("unknown event")

// Reason categorizes a validation failure.
type Reason string

const (
	ReasonMissingField   Reason = "missing_field"
	ReasonInvalidNumeric Reason = "invalid_numeric"
)

// ValidationError reports the first rule violated by a payload.
type ValidationError struct {
	FieldPath string
	Reason    Reason
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonMissingField:
		return fmt.Sprintf("missing required field %q", e.FieldPath)
	case ReasonInvalidNumeric:
		return fmt.Sprintf("field %q violates its numeric constraint", e.FieldPath)
	default:
		return fmt.Sprintf("field %q is invalid", e.FieldPath)
	}
}

// Validate checks a payload against the schema registered for eventName.
// It is a pure function of (schema, payload) and short-circuits on the
// first violated rule.
func (r *Registry) Validate(eventName string, payload map[string]any) error {
	def, ok := r.Lookup(eventName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, eventName)
	}
	return def.Schema.Validate(payload)
}

// Validate applies every field rule in declaration order.
func (s EventSchema) Validate(payload map[string]any) error {
	for _, f := range s {
		value, present := resolve(payload, f.Path)

		if !present || isBlank(value) {
			if f.Rule.Required {
				return &ValidationError{FieldPath: f.Path, Reason: ReasonMissingField}
			}
			continue
		}

		if f.Rule.Numeric != nil {
			if err := f.Rule.Numeric.check(value); err != nil {
				return &ValidationError{FieldPath: f.Path, Reason: ReasonInvalidNumeric}
			}
		}
	}
	return nil
}

// resolve walks a dotted field path into the nested payload.
func resolve(payload map[string]any, path string) (any, bool) {
	ptr, err := jsonpointer.Parse("/" + strings.ReplaceAll(path, ".", "/"))
	if err != nil {
		return nil, false
	}
	value, err := ptr.Eval(payload)
	if err != nil || value == nil {
		return nil, false
	}
	return value, true
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func (n *NumericRule) check(v any) error {
	f, ok := asNumber(v)
	if !ok {
		return fmt.Errorf("not a number: %v", v)
	}
	if n.IntegerOnly && f != math.Trunc(f) {
		return fmt.Errorf("not an integer: %v", f)
	}
	if n.MustBePositive && f <= 0 {
		return fmt.Errorf("not strictly positive: %v", f)
	}
	return nil
}

// asNumber accepts only values that arrived as JSON numbers. Numeric strings
// are rejected on purpose, matching the noStrings behavior of the schemas.
func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
