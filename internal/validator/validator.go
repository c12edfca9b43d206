// Package validator turns untrusted language-model output into checked,
// normalised JSON values. It never panics or returns a bare decode error:
// every failure is a *ValidationError.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrorKind classifies a ValidationError.
type ErrorKind string

const (
	KindUnparseable  ErrorKind = "Unparseable"
	KindMissingField ErrorKind = "MissingField"
	KindTypeMismatch ErrorKind = "TypeMismatch"
	KindInvalidValue ErrorKind = "InvalidValue"
)

// ValidationError describes why model output was rejected.
type ValidationError struct {
	Kind     ErrorKind
	Field    string
	Expected string
	Got      string
	Detail   string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindUnparseable:
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case KindMissingField:
		return fmt.Sprintf("%s: field %q is required", e.Kind, e.Field)
	case KindTypeMismatch:
		return fmt.Sprintf("%s: field %q expected %s, got %s", e.Kind, e.Field, e.Expected, e.Got)
	default:
		msg := fmt.Sprintf("%s: field %q expected %s, got %s", e.Kind, e.Field, e.Expected, e.Got)
		if e.Detail != "" {
			msg += " (" + e.Detail + ")"
		}
		return msg
	}
}

// Parsed is a successfully validated value.
type Parsed struct {
	// Value holds only declared fields. Integers are int, dates are
	// time.Time, enum strings use their declared spelling.
	Value map[string]any

	// Variant is the discriminator value, lower-cased. It may name a
	// variant the schema does not declare.
	Variant string

	// Repairs lists the heuristics that were needed, in order.
	Repairs []Repair
}

// Known reports whether Variant is declared by the schema.
func (p Parsed) Known(s Schema) bool {
	_, ok := s.variant(p.Variant)
	return ok
}

// Validator checks model output against a Schema.
type Validator struct {
	schema Schema
	now    func() time.Time
	dates  *when.Parser
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock sets the reference time for relative dates.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// New creates a Validator for schema.
func New(schema Schema, opts ...Option) *Validator {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	v := &Validator{schema: schema, now: time.Now, dates: w}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Schema returns the schema the validator enforces.
func (v *Validator) Schema() Schema {
	return v.schema
}

// Validate parses raw, applying the ordered repair heuristics only when a
// strict parse fails, then checks the result against the schema.
func (v *Validator) Validate(raw string) (Parsed, *ValidationError) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Parsed{}, &ValidationError{Kind: KindUnparseable, Detail: "empty response"}
	}

	value, err := decode(text)
	var applied []Repair
	for i := 0; err != nil && i < len(repairs); i++ {
		out, changed := repairs[i].fn(text)
		if !changed {
			continue
		}
		text = out
		applied = append(applied, repairs[i].name)
		value, err = decode(text)
	}
	if err != nil {
		return Parsed{Repairs: applied}, &ValidationError{Kind: KindUnparseable, Detail: err.Error()}
	}

	parsed, verr := v.check(value)
	parsed.Repairs = applied
	return parsed, verr
}

func decode(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected content after JSON value")
	}
	return v, nil
}

func (v *Validator) check(value any) (Parsed, *ValidationError) {
	obj, ok := value.(map[string]any)
	if !ok {
		return Parsed{}, &ValidationError{Kind: KindTypeMismatch, Field: "$", Expected: "object", Got: jsonType(value)}
	}

	disc := v.schema.Discriminator
	raw, present := obj[disc]
	if !present || raw == nil {
		return Parsed{}, &ValidationError{Kind: KindMissingField, Field: disc}
	}
	name, ok := raw.(string)
	if !ok {
		return Parsed{}, &ValidationError{Kind: KindTypeMismatch, Field: disc, Expected: "string", Got: jsonType(raw)}
	}
	name = strings.ToLower(strings.TrimSpace(name))

	out := map[string]any{disc: name}
	variant, known := v.schema.variant(name)
	if !known {
		return Parsed{Value: out, Variant: name}, nil
	}
	out[disc] = variant.Name

	fields, verr := v.checkFields(obj, variant.Fields, "")
	if verr != nil {
		return Parsed{Variant: variant.Name}, verr
	}
	for k, val := range fields {
		out[k] = val
	}
	return Parsed{Value: out, Variant: variant.Name}, nil
}

func (v *Validator) checkFields(obj map[string]any, fields []Field, prefix string) (map[string]any, *ValidationError) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		path := prefix + f.Name
		raw, present := obj[f.Name]
		if !present || raw == nil || raw == "" {
			if f.Required {
				return nil, &ValidationError{Kind: KindMissingField, Field: path}
			}
			continue
		}
		val, verr := v.checkValue(f, raw, path)
		if verr != nil {
			return nil, verr
		}
		out[f.Name] = val
	}
	return out, nil
}

func (v *Validator) checkValue(f Field, raw any, path string) (any, *ValidationError) {
	mismatch := func() *ValidationError {
		return &ValidationError{Kind: KindTypeMismatch, Field: path, Expected: f.Type.String(), Got: jsonType(raw)}
	}

	switch f.Type {
	case TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, mismatch()
		}
		s = strings.TrimSpace(s)
		if len(f.Enum) == 0 {
			return s, nil
		}
		for _, e := range f.Enum {
			if foldEnum(e) == foldEnum(s) {
				return e, nil
			}
		}
		return nil, &ValidationError{
			Kind:     KindInvalidValue,
			Field:    path,
			Expected: "one of " + strings.Join(f.Enum, "|"),
			Got:      fmt.Sprintf("%q", s),
		}

	case TypeInteger:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, mismatch()
		}
		fl, err := n.Float64()
		if err != nil || fl != math.Trunc(fl) || math.Abs(fl) > math.MaxInt32 {
			return nil, &ValidationError{Kind: KindTypeMismatch, Field: path, Expected: "integer", Got: n.String()}
		}
		i := int(fl)
		if f.Min != nil && i < *f.Min {
			return nil, &ValidationError{
				Kind:     KindInvalidValue,
				Field:    path,
				Expected: fmt.Sprintf("integer >= %d", *f.Min),
				Got:      n.String(),
			}
		}
		return i, nil

	case TypeDate:
		s, ok := raw.(string)
		if !ok {
			return nil, mismatch()
		}
		t, err := v.parseDate(s)
		if err != nil {
			return nil, &ValidationError{Kind: KindInvalidValue, Field: path, Expected: "date (YYYY-MM-DD)", Got: fmt.Sprintf("%q", s), Detail: err.Error()}
		}
		return t, nil

	case TypeObject:
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, mismatch()
		}
		return v.checkFields(obj, f.Fields, path+".")
	}
	return nil, mismatch()
}

// parseDate accepts ISO dates, RFC 3339 timestamps and relative English
// phrases. The result is midnight in the reference clock's location.
func (v *Validator) parseDate(s string) (time.Time, error) {
	now := v.now()
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(time.DateOnly, s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.In(now.Location())
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	r, err := v.dates.Parse(s, now)
	if err != nil {
		return time.Time{}, err
	}
	if r == nil {
		return time.Time{}, errors.New("not a recognisable date")
	}
	return time.Date(r.Time.Year(), r.Time.Month(), r.Time.Day(), 0, 0, 0, 0, now.Location()), nil
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
