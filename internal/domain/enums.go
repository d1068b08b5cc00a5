// Package domain defines the core domain models for the session service.
package domain

// Role identifies who authored a stored message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r can be stored.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Route is the handling path selected for a chat request.
type Route string

const (
	RouteTextOnly     Route = "TEXT_ONLY"
	RouteImageOnly    Route = "IMAGE_ONLY"
	RouteTextAndImage Route = "TEXT_AND_IMAGE"
	RouteInvalid      Route = "INVALID"
)

// HasImage reports whether the route carries an image to the backend.
func (r Route) HasImage() bool {
	return r == RouteImageOnly || r == RouteTextAndImage
}

// Outcome labels how a chat turn ended.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeMissingInput    Outcome = "missing_input"
	OutcomeImageDecode     Outcome = "image_decode_failed"
	OutcomeBackendFailed   Outcome = "backend_failed"
	OutcomeStorageFailed   Outcome = "storage_failed"
	OutcomeReplyUnrecorded Outcome = "reply_unrecorded"
	OutcomeInternal        Outcome = "internal_error"
)

// ImageMarker is stored in place of image bytes.
const ImageMarker = "[image uploaded]"
