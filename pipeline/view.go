package pipeline

import (
	"fmt"

	"github.com/kbukum/linepipe/errors"
)

// View lifts a typed Transform to text: each element is parsed, transformed
// and formatted back. A parse failure is returned as a PARSE_ERROR carrying
// the raw text; it is fatal for the run, not skipped.
func View[T any](t Transform[T], parse func(string) (T, error), format func(T) string) Transform[string] {
	return Identity[string]().ThenTry(func(raw string) (string, error) {
		v, err := parse(raw)
		if err != nil {
			if !errors.IsAppError(err) {
				var zero T
				err = errors.ParseFailed(raw, fmt.Sprintf("%T", zero), err)
			}
			return "", err
		}
		out, err := t.Apply(v)
		if err != nil {
			return "", err
		}
		return format(out), nil
	})
}
