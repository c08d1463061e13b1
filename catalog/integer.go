package catalog

import (
	"fmt"
	"math"
	"strconv"

	"github.com/kbukum/linepipe/errors"
	"github.com/kbukum/linepipe/pipeline"
)

var integers = New[int64](string(Integer)).
	Register("reverse", pipeline.Identity[int64]().ThenTry(ReverseInteger)).
	Register("neg", pipeline.Identity[int64]().ThenTry(NegateInteger))

// Integers returns the catalog for integer records.
func Integers() *Catalog[int64] { return integers }

// ReverseInteger reverses the decimal digits of |n| and reapplies the sign:
// -120 becomes -21. A result outside the int64 range is an error.
func ReverseInteger(n int64) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	abs := uint64(n)
	if n < 0 {
		abs = -abs
	}
	digits := []byte(strconv.FormatUint(abs, 10))
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	rev, err := strconv.ParseUint(string(digits), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("reverse of %d overflows int64", n)
	}
	if n < 0 {
		if rev > uint64(math.MaxInt64)+1 {
			return 0, fmt.Errorf("reverse of %d overflows int64", n)
		}
		return int64(-rev), nil
	}
	if rev > math.MaxInt64 {
		return 0, fmt.Errorf("reverse of %d overflows int64", n)
	}
	return int64(rev), nil
}

// NegateInteger returns -n. Negating math.MinInt64 is an error.
func NegateInteger(n int64) (int64, error) {
	if n == math.MinInt64 {
		return 0, fmt.Errorf("negation of %d overflows int64", n)
	}
	return -n, nil
}

// ParseInteger parses a base-10 integer. Surrounding whitespace is not
// accepted; a leading sign is.
func ParseInteger(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.ParseFailed(s, string(Integer), err)
	}
	return n, nil
}

// FormatInteger formats n in base 10.
func FormatInteger(n int64) string {
	return strconv.FormatInt(n, 10)
}
