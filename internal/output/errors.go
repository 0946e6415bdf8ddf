package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/semmy-space/keyring/pkg/keyring"
)

// Exit codes following sysexits.h convention
const (
	ExitOK          = 0  // Success
	ExitGeneral     = 1  // General error
	ExitUsage       = 2  // Invalid usage / bad arguments
	ExitNotFound    = 4  // No matching credential
	ExitConflict    = 5  // Ambiguous: several credentials match
	ExitForbidden   = 6  // Storage not accessible
	ExitStoreError  = 9  // Store failure (non-specific)
	ExitConfigError = 10 // Configuration error
)

// CLIError represents a structured error with exit code and optional hint
type CLIError struct {
	ExitCode int
	Message  string
	Hint     string
}

// Error implements the error interface
func (e *CLIError) Error() string {
	return e.Message
}

// NewCLIError creates a new CLIError
func NewCLIError(code int, msg string) *CLIError {
	return &CLIError{
		ExitCode: code,
		Message:  msg,
	}
}

// WithHint adds a user-facing hint to the error
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// FromKeyringError converts a keyring error into a CLIError with the exit
// code for its kind. Other errors become ExitGeneral; a CLIError is
// returned unchanged.
func FromKeyringError(err error) *CLIError {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	switch keyring.KindOf(err) {
	case keyring.KindNoEntry:
		return NewCLIError(ExitNotFound, err.Error())
	case keyring.KindAmbiguous:
		return NewCLIError(ExitConflict, err.Error()).WithHint(ambiguityHint(keyring.Candidates(err)))
	case keyring.KindInvalid, keyring.KindTooLong, keyring.KindBadEncoding:
		return NewCLIError(ExitUsage, err.Error())
	case keyring.KindNoStorageAccess:
		return NewCLIError(ExitForbidden, err.Error())
	case keyring.KindPlatformFailure, keyring.KindInternal:
		return NewCLIError(ExitStoreError, err.Error())
	case keyring.KindNotSupported:
		return NewCLIError(ExitGeneral, err.Error())
	case keyring.KindNoDefaultStore:
		return NewCLIError(ExitConfigError, err.Error()).WithHint("Run: keyring config set store auto")
	default:
		return NewCLIError(ExitGeneral, err.Error())
	}
}

// ambiguityHint lists the candidates by UUID where the store reports one.
func ambiguityHint(candidates []*keyring.Entry) string {
	lines := make([]string, 1, len(candidates)+1)
	withUUID := false
	for _, c := range candidates {
		line := "  " + c.Key().String()
		if attrs, err := c.GetAttributes(); err == nil && attrs["uuid"] != "" {
			line += fmt.Sprintf(" (uuid %s)", attrs["uuid"])
			withUUID = true
		}
		lines = append(lines, line)
	}
	if withUUID {
		lines[0] = "Select one with --uuid UUID. Matching credentials:"
	} else {
		lines[0] = "Narrow the match with -m key=value. Matching credentials:"
	}
	return strings.Join(lines, "\n")
}

// Report prints err via the formatter and returns the exit code to use.
// Actual os.Exit call stays in main.go
func Report(formatter Formatter, err error) int {
	cliErr := FromKeyringError(err)
	formatter.PrintError(cliErr)
	if cliErr.Hint != "" {
		formatter.PrintHint(cliErr.Hint)
	}
	return cliErr.ExitCode
}
