package catalog

import (
	"fmt"
	"strings"

	"github.com/kbukum/linepipe/errors"
	"github.com/kbukum/linepipe/pipeline"
)

// ElementType is the type records are interpreted as.
type ElementType string

const (
	Text    ElementType = "text"
	Integer ElementType = "integer"
	Real    ElementType = "real"
)

var typeAliases = map[string]ElementType{
	"text":    Text,
	"string":  Text,
	"str":     Text,
	"integer": Integer,
	"int":     Integer,
	"long":    Integer,
	"real":    Real,
	"double":  Real,
	"float":   Real,
}

// ParseElementType resolves a type name or alias, ignoring case.
func ParseElementType(s string) (ElementType, error) {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", errors.InvalidConfig("pipeline.type",
		fmt.Sprintf("unknown element type %q (want text, integer or real)", s))
}

// ForType builds the text-in, text-out Transform for the given element type
// and operation names. Typed catalogs are wrapped in a View with the type's
// codec.
func ForType(kind string, ops []string) (pipeline.Transform[string], error) {
	t, err := ParseElementType(kind)
	if err != nil {
		return pipeline.Transform[string]{}, err
	}
	switch t {
	case Integer:
		return pipeline.View(Integers().Build(ops), ParseInteger, FormatInteger), nil
	case Real:
		return pipeline.View(Reals().Build(ops), ParseReal, FormatReal), nil
	default:
		return Texts().Build(ops), nil
	}
}

// UnknownFor returns the operation names that the catalog for t does not
// define.
func UnknownFor(t ElementType, ops []string) []string {
	switch t {
	case Integer:
		return Integers().Unknown(ops)
	case Real:
		return Reals().Unknown(ops)
	default:
		return Texts().Unknown(ops)
	}
}

// NamesFor lists the operations defined for t.
func NamesFor(t ElementType) []string {
	switch t {
	case Integer:
		return Integers().Names()
	case Real:
		return Reals().Names()
	default:
		return Texts().Names()
	}
}
