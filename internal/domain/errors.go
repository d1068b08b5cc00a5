package domain

import "errors"

var (
	// ErrMissingInput is returned when a request carries neither text nor image.
	ErrMissingInput = errors.New("no valid input provided")
	// ErrImageDecode is returned when an uploaded image cannot be read or decoded.
	ErrImageDecode = errors.New("image processing failed")
	// ErrBackend is returned when the generative backend call fails.
	ErrBackend = errors.New("generation failed")
	// ErrStorage is returned when a session store operation fails.
	ErrStorage = errors.New("storage failure")
)

// OutcomeFor maps an error returned by the chat flow to its outcome label.
func OutcomeFor(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrMissingInput):
		return OutcomeMissingInput
	case errors.Is(err, ErrImageDecode):
		return OutcomeImageDecode
	case errors.Is(err, ErrBackend):
		return OutcomeBackendFailed
	case errors.Is(err, ErrStorage):
		return OutcomeStorageFailed
	default:
		return OutcomeInternal
	}
}
