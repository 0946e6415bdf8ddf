package keyring

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind classifies a keyring error
type Kind int

const (
	KindUnknown Kind = iota
	KindNoEntry
	KindAmbiguous
	KindInvalid
	KindBadEncoding
	KindTooLong
	KindNoDefaultStore
	KindNoStorageAccess
	KindPlatformFailure
	KindInternal
	KindNotSupported
)

// String returns a string representation of the error kind
func (k Kind) String() string {
	switch k {
	case KindNoEntry:
		return "no-entry"
	case KindAmbiguous:
		return "ambiguous"
	case KindInvalid:
		return "invalid"
	case KindBadEncoding:
		return "bad-encoding"
	case KindTooLong:
		return "too-long"
	case KindNoDefaultStore:
		return "no-default-store"
	case KindNoStorageAccess:
		return "no-storage-access"
	case KindPlatformFailure:
		return "platform-failure"
	case KindInternal:
		return "internal"
	case KindNotSupported:
		return "not-supported"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by the core and by stores.
// Only the fields relevant to Kind are populated.
type Error struct {
	Kind Kind

	// Attr names the offending attribute for Invalid and TooLong.
	Attr string
	// Reason explains an Invalid error, or carries the Internal message
	// or the vendor for NotSupported.
	Reason string
	// Max is the length limit that was exceeded (TooLong).
	Max int
	// Data holds the undecodable bytes (BadEncoding).
	Data []byte
	// Candidates are wrapping entries over every matching credential (Ambiguous).
	Candidates []*Entry
	// Err is the underlying provider error (NoStorageAccess, PlatformFailure).
	Err error
}

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrNoEntry         = &Error{Kind: KindNoEntry}
	ErrAmbiguous       = &Error{Kind: KindAmbiguous}
	ErrInvalid         = &Error{Kind: KindInvalid}
	ErrBadEncoding     = &Error{Kind: KindBadEncoding}
	ErrTooLong         = &Error{Kind: KindTooLong}
	ErrNoDefaultStore  = &Error{Kind: KindNoDefaultStore}
	ErrNoStorageAccess = &Error{Kind: KindNoStorageAccess}
	ErrPlatformFailure = &Error{Kind: KindPlatformFailure}
	ErrInternal        = &Error{Kind: KindInternal}
	ErrNotSupported    = &Error{Kind: KindNotSupported}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindNoEntry:
		return "no matching entry found in secure storage"
	case KindAmbiguous:
		names := make([]string, len(e.Candidates))
		for i, c := range e.Candidates {
			names[i] = c.String()
		}
		return fmt.Sprintf("entry is matched by %d credentials: [%s]", len(e.Candidates), strings.Join(names, ", "))
	case KindInvalid:
		return fmt.Sprintf("attribute %s is invalid: %s", e.Attr, e.Reason)
	case KindBadEncoding:
		return "data is not UTF-8 encoded"
	case KindTooLong:
		return fmt.Sprintf("attribute '%s' is longer than the platform limit of %d chars", e.Attr, e.Max)
	case KindNoDefaultStore:
		return "no default store has been set, so cannot search or create entries"
	case KindNoStorageAccess:
		return fmt.Sprintf("couldn't access secure storage: %v", e.Err)
	case KindPlatformFailure:
		return fmt.Sprintf("secure storage failure: %v", e.Err)
	case KindInternal:
		return fmt.Sprintf("internal error: %s", e.Reason)
	case KindNotSupported:
		return fmt.Sprintf("the store (%s) does not support this operation", e.Reason)
	default:
		return "unknown keyring error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NoEntry returns a fresh NoEntry error.
func NoEntry() *Error {
	return &Error{Kind: KindNoEntry}
}

// Ambiguous returns an Ambiguous error carrying the given wrapping entries.
func Ambiguous(candidates []*Entry) *Error {
	return &Error{Kind: KindAmbiguous, Candidates: candidates}
}

// Invalid returns an Invalid error for the named attribute.
func Invalid(attr, reason string) *Error {
	return &Error{Kind: KindInvalid, Attr: attr, Reason: reason}
}

// BadEncoding returns a BadEncoding error holding the raw data.
func BadEncoding(data []byte) *Error {
	return &Error{Kind: KindBadEncoding, Data: data}
}

// TooLong returns a TooLong error for the named attribute.
func TooLong(attr string, max int) *Error {
	return &Error{Kind: KindTooLong, Attr: attr, Max: max}
}

// NoDefaultStore returns a NoDefaultStore error.
func NoDefaultStore() *Error {
	return &Error{Kind: KindNoDefaultStore}
}

// NoStorageAccess wraps a provider error meaning the backing medium is unavailable.
func NoStorageAccess(err error) *Error {
	return &Error{Kind: KindNoStorageAccess, Err: err}
}

// PlatformFailure wraps an opaque provider error.
func PlatformFailure(err error) *Error {
	return &Error{Kind: KindPlatformFailure, Err: err}
}

// Internal reports a broken invariant.
func Internal(msg string) *Error {
	return &Error{Kind: KindInternal, Reason: msg}
}

// NotSupported reports an operation the given vendor's store cannot do.
func NotSupported(vendor string) *Error {
	return &Error{Kind: KindNotSupported, Reason: vendor}
}

// KindOf returns the Kind of err, or KindUnknown if err is not a *Error.
func KindOf(err error) Kind {
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.Kind
	}
	return KindUnknown
}

// Candidates returns the wrapping entries carried by an Ambiguous error,
// or nil for any other error.
func Candidates(err error) []*Entry {
	var kerr *Error
	if errors.As(err, &kerr) && kerr.Kind == KindAmbiguous {
		return kerr.Candidates
	}
	return nil
}

// DecodePassword interprets secret as a UTF-8 password.
func DecodePassword(secret []byte) (string, error) {
	if !utf8.Valid(secret) {
		return "", BadEncoding(secret)
	}
	return string(secret), nil
}
