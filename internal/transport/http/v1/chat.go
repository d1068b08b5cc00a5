package v1

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

// Chat runs one conversational turn.
// POST /v1/chat
//
// Accepts JSON {session_id, text, image_base64} or a multipart form with
// session_id, message (or text) and an image file.
func (h *Handler) Chat(c echo.Context) error {
	req, err := bindChatRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, &domain.ChatResponse{
			Success:   false,
			SessionID: req.SessionID,
			Error:     err.Error(),
		})
	}

	resp, err := h.service.Chat(c.Request().Context(), req)
	return c.JSON(statusFor(err), resp)
}

func bindChatRequest(c echo.Context) (domain.ChatRequest, error) {
	var req domain.ChatRequest

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		if err := c.Bind(&req); err != nil {
			return req, fmt.Errorf("invalid request body")
		}
		return req, nil
	}

	req.SessionID = c.FormValue("session_id")
	req.Text = c.FormValue("message")
	if req.Text == "" {
		req.Text = c.FormValue("text")
	}

	data, filename, err := formImage(c)
	if err != nil {
		return req, err
	}
	req.Image = data
	req.ImageFilename = filename
	return req, nil
}

// formImage reads the optional "image" file of a multipart form.
func formImage(c echo.Context) ([]byte, string, error) {
	file, err := c.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("invalid image upload: %w", err)
	}
	if file.Filename == "" {
		return nil, "", nil
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("invalid image upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", fmt.Errorf("invalid image upload: %w", err)
	}
	return data, file.Filename, nil
}

// ClearHistory deletes a session's history.
// POST /v1/chat/clear
func (h *Handler) ClearHistory(c echo.Context) error {
	var req domain.ClearRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, &domain.ClearResponse{Success: false, Error: "invalid request body"})
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return c.JSON(http.StatusBadRequest, &domain.ClearResponse{Success: false, Error: "session_id required"})
	}

	if err := h.service.ClearSession(c.Request().Context(), req.SessionID); err != nil {
		return c.JSON(statusFor(err), &domain.ClearResponse{Success: false, Error: err.Error()})
	}
	return c.JSON(http.StatusOK, &domain.ClearResponse{Success: true, Message: "Chat history cleared."})
}
