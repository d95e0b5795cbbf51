package gen

import "errors"

var (
	// ErrMissingAPIKey indicates no Gemini API key was configured.
	ErrMissingAPIKey = errors.New("gemini api key missing")
	// ErrNoImage indicates a generation call returned zero images.
	// Retryable within the attempt budget.
	ErrNoImage = errors.New("generation returned no image")
	// ErrAuthentication indicates the API rejected the credentials.
	// Fatal: aborts the entire run without retry.
	ErrAuthentication = errors.New("authentication rejected")
	// ErrQuotaExceeded indicates the API quota is exhausted.
	// Fatal for the current run; surfaced, not auto-retried.
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// Fatal reports whether an error must abort the whole run rather than
// consume a retry attempt.
func Fatal(err error) bool {
	return errors.Is(err, ErrAuthentication) || errors.Is(err, ErrQuotaExceeded)
}
