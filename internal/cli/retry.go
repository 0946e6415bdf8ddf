package cli

import (
	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"github.com/semmy-space/keyring/pkg/keyring"
)

// newBackOff returns the retry schedule; tests replace it.
var newBackOff = func() backoff.BackOff {
	return backoff.NewExponentialBackOff()
}

// transient reports whether err may go away on retry.
func transient(err error) bool {
	switch keyring.KindOf(err) {
	case keyring.KindPlatformFailure, keyring.KindNoStorageAccess:
		return true
	default:
		return false
	}
}

// withRetry runs op, retrying up to retries extra times while it fails
// with a transient store error. Other errors are returned at once.
func withRetry(retries uint64, op func() error) error {
	if retries == 0 {
		return op()
	}
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !transient(err) {
			return backoff.Permanent(err)
		}
		slog.Debug("transient store failure", "attempt", attempt, "error", err)
		return err
	}, backoff.WithMaxRetries(newBackOff(), retries))
}
