package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	// ErrCodeInvalidConfig indicates the run configuration was rejected
	// before any record was processed.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeParse indicates a record could not be converted to the
	// configured element type.
	ErrCodeParse ErrorCode = "PARSE_ERROR"
	// ErrCodeTransformFault indicates a transformation step failed or
	// panicked while processing a record.
	ErrCodeTransformFault ErrorCode = "TRANSFORM_FAULT"
	// ErrCodeIO indicates reading the record source or writing the sink failed.
	ErrCodeIO ErrorCode = "IO_ERROR"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Process exit codes, following sysexits(3) where one fits.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
	ExitDataErr = 65
	ExitFault   = 70
	ExitIOErr   = 74
)

var exitCodes = map[ErrorCode]int{
	ErrCodeInvalidConfig:  ExitUsage,
	ErrCodeParse:          ExitDataErr,
	ErrCodeTransformFault: ExitFault,
	ErrCodeIO:             ExitIOErr,
	ErrCodeInternal:       ExitFailure,
}

// ExitCodeFor returns the exit code associated with code.
func ExitCodeFor(code ErrorCode) int {
	if c, ok := exitCodes[code]; ok {
		return c
	}
	return ExitFailure
}
