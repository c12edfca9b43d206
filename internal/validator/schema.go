package validator

import "strings"

// Type is the expected JSON type of a field.
type Type int

const (
	TypeString Type = iota
	TypeInteger
	TypeObject
	// TypeDate is a string holding a calendar date, either ISO-8601 or a
	// relative phrase such as "next friday".
	TypeDate
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeObject:
		return "object"
	case TypeDate:
		return "date"
	}
	return "unknown"
}

// Field declares one member of an object.
type Field struct {
	Name     string
	Type     Type
	Required bool

	// Enum restricts string values. Matching ignores case, spaces, '-' and '_'
	// and the declared spelling is returned.
	Enum []string

	// Min is the smallest accepted integer, if set.
	Min *int

	// Fields declares the members of a nested object.
	Fields []Field

	// Doc is a short hint used when the schema is described to a model.
	Doc string
}

// Schema describes a tagged union of objects. The Discriminator field selects
// which Variant's fields are checked.
type Schema struct {
	Discriminator string
	Variants      []Variant
}

// Variant is one shape of the union.
type Variant struct {
	Name   string
	Fields []Field
	Doc    string
}

func (s Schema) variant(name string) (Variant, bool) {
	for _, v := range s.Variants {
		if foldEnum(v.Name) == foldEnum(name) {
			return v, true
		}
	}
	return Variant{}, false
}

// Describe renders a compact, model-readable description of the schema.
func (s Schema) Describe() string {
	var sb strings.Builder
	for _, v := range s.Variants {
		sb.WriteString("- ")
		sb.WriteString(`{"` + s.Discriminator + `": "` + v.Name + `"`)
		for _, f := range v.Fields {
			sb.WriteString(", ")
			describeField(&sb, f)
		}
		sb.WriteString("}")
		if v.Doc != "" {
			sb.WriteString("  // ")
			sb.WriteString(v.Doc)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func describeField(sb *strings.Builder, f Field) {
	sb.WriteString(`"` + f.Name + `": `)
	switch {
	case f.Type == TypeObject:
		sb.WriteString("{")
		for i, sub := range f.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			describeField(sb, sub)
		}
		sb.WriteString("}")
	case len(f.Enum) > 0:
		sb.WriteString(strings.Join(f.Enum, "|"))
	default:
		sb.WriteString(f.Type.String())
	}
	if !f.Required {
		sb.WriteString("?")
	}
	if f.Doc != "" {
		sb.WriteString(" (" + f.Doc + ")")
	}
}

func foldEnum(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
