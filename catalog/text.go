package catalog

import (
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kbukum/linepipe/pipeline"
)

var texts = New[string](string(Text)).
	Register("capitalize", pipeline.Of(Capitalize)).
	Register("reverse", pipeline.Of(ReverseText))

// Texts returns the catalog for text records.
func Texts() *Catalog[string] { return texts }

// Capitalize upper-cases every character using Unicode full case mapping,
// so "ß" becomes "SS".
func Capitalize(s string) string {
	// a Caser keeps state between calls and is not safe for concurrent use
	return cases.Upper(language.Und).String(s)
}

// ReverseText reverses the sequence of code points.
func ReverseText(s string) string {
	r := []rune(s)
	slices.Reverse(r)
	return string(r)
}
