package domain

// ChatRequest is the inbound request descriptor for one chat turn.
// Image bytes may arrive raw (multipart) or base64 encoded (JSON); both are
// treated identically once decoded.
type ChatRequest struct {
	SessionID     string `json:"session_id,omitempty"`
	Text          string `json:"text,omitempty"`
	Image         []byte `json:"-"`
	ImageBase64   string `json:"image_base64,omitempty"`
	ImageFilename string `json:"-"`
}

// HasImage reports whether any image representation is present.
func (r ChatRequest) HasImage() bool {
	return len(r.Image) > 0 || r.ImageBase64 != ""
}

// ChatResponse is the outbound shape for a chat turn.
type ChatResponse struct {
	Success          bool   `json:"success"`
	SessionID        string `json:"session_id"`
	TextResponse     string `json:"text_response,omitempty"`
	ImageResponse    string `json:"image_response,omitempty"`
	UploadedImageRef string `json:"uploaded_image_ref,omitempty"`
	Error            string `json:"error,omitempty"`
}

// ClearRequest asks for a session's history to be removed.
type ClearRequest struct {
	SessionID string `json:"session_id"`
}

// ClearResponse reports the result of a clear request.
type ClearResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
