package catalog

import (
	stderrors "errors"
	"math"
	"strconv"
	"strings"

	"github.com/kbukum/linepipe/errors"
	"github.com/kbukum/linepipe/pipeline"
)

// reverse is deliberately absent for reals.
var reals = New[float64](string(Real)).
	Register("neg", pipeline.Of(NegateReal))

// Reals returns the catalog for real-number records.
func Reals() *Catalog[float64] { return reals }

// NegateReal returns -v.
func NegateReal(v float64) float64 { return -v }

// ParseReal parses a decimal or hexadecimal floating-point number,
// ignoring surrounding whitespace. "NaN", "Infinity" and a trailing d or f
// type suffix are accepted; out-of-range magnitudes become ±Infinity.
func ParseReal(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil && len(trimmed) > 1 && strings.ContainsRune("dDfF", rune(trimmed[len(trimmed)-1])) {
		v, err = strconv.ParseFloat(trimmed[:len(trimmed)-1], 64)
	}
	if err != nil && !stderrors.Is(err, strconv.ErrRange) {
		return 0, errors.ParseFailed(s, string(Real), err)
	}
	return v, nil
}

// FormatReal renders v the way the JVM prints a double: "NaN", "Infinity"
// and "-Infinity" for the special values; plain decimal with at least one
// fractional digit when 1e-3 <= |v| < 1e7 or v is zero ("3.0", "-0.5");
// otherwise scientific notation with an upper-case E and no plus sign
// ("1.0E7", "1.5E-4"). Digits are the shortest that round-trip.
func FormatReal(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}

	abs := math.Abs(v)
	if abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	// "1.5e-04" -> mantissa "1.5", exponent "-04"
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	e, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(e)
}
