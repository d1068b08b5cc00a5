package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/adapter/imaging"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/observability"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/policy"
)

// recordTimeout bounds the history writes after a successful backend call.
const recordTimeout = 10 * time.Second

// Chat runs one conversational turn. The returned response is never nil;
// on failure it carries success=false and the error is returned as well so
// transports can pick a status code.
func (s *Service) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = s.newID()
	}
	resp := &domain.ChatResponse{SessionID: sessionID}

	route := Classify(req)
	logger := observability.LoggerFromContext(ctx).With("session_id", sessionID, "route", string(route))

	if route == domain.RouteInvalid {
		return s.fail(logger, resp, route, domain.ErrMissingInput)
	}

	var upload *imaging.Upload
	if route.HasImage() {
		var err error
		upload, err = s.stage(ctx, req)
		if err != nil {
			return s.fail(logger, resp, route, err)
		}
		defer func() {
			if err := upload.Release(); err != nil {
				logger.Warn("failed to remove staged upload", "upload", upload.Name, "error", err)
			}
		}()
		resp.UploadedImageRef = upload.Name
		logger.Debug("image staged", "upload", upload.Name, "filename", req.ImageFilename, "bytes", len(upload.JPEG))
	}

	decision, err := s.policyEngine.Evaluate(ctx, route)
	if err != nil {
		return s.fail(logger, resp, route, fmt.Errorf("generation policy: %w", err))
	}

	history, err := s.window(ctx, sessionID, route, decision)
	if err != nil {
		return s.fail(logger, resp, route, err)
	}

	p := s.buildPlan(route, req.Text, upload, history, decision.WindowSize)

	start := time.Now()
	completion, err := s.llmClient.CreateChatCompletion(ctx, &p.request)
	s.metrics.BackendLatency.WithLabelValues(string(route)).Observe(time.Since(start).Seconds())
	var reply string
	if err == nil {
		reply, err = completion.Reply()
	}
	if err != nil {
		if decision.PersistOnFailure {
			if _, serr := s.store.AppendMessage(ctx, sessionID, domain.RoleUser, p.userTurn); serr != nil {
				logger.Error("failed to record user turn after backend failure", "error", serr)
			}
		}
		return s.fail(logger, resp, route, fmt.Errorf("%w: %w", domain.ErrBackend, err))
	}

	resp.Success = true
	if p.imageReply {
		resp.ImageResponse = reply
	} else {
		resp.TextResponse = reply
	}

	// The reply has already been paid for; keep it even if the caller has gone.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	outcome := domain.OutcomeOK
	if err := s.record(recordCtx, sessionID, p.userTurn, reply); err != nil {
		outcome = domain.OutcomeReplyUnrecorded
		s.metrics.RepliesUnrecorded.WithLabelValues(string(route)).Inc()
		logger.Error("reply returned but not recorded", "event", "reply_unrecorded", "error", err)
	}
	s.metrics.ChatTurns.WithLabelValues(string(route), string(outcome)).Inc()
	logger.Info("chat turn completed", "outcome", string(outcome), "history", len(history))
	return resp, nil
}

// stage decodes and stages the request image. Anything other than a
// cancelled context is reported as an image processing failure.
func (s *Service) stage(ctx context.Context, req domain.ChatRequest) (*imaging.Upload, error) {
	data := req.Image
	if len(data) == 0 {
		var err error
		data, err = imaging.DecodeBase64(req.ImageBase64)
		if err != nil {
			return nil, err
		}
	}

	upload, err := s.stager.Stage(ctx, data)
	if err == nil {
		return upload, nil
	}
	if errors.Is(err, domain.ErrImageDecode) || ctx.Err() != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrImageDecode, err)
}

func (s *Service) window(ctx context.Context, sessionID string, route domain.Route, decision policy.Decision) ([]domain.Message, error) {
	if route == domain.RouteImageOnly || decision.WindowSize <= 0 {
		return nil, nil
	}
	return s.store.GetHistory(ctx, sessionID, decision.WindowSize)
}

// record stores the user turn then the reply. The reply is skipped when the
// user turn could not be written so a session never holds an orphan answer.
func (s *Service) record(ctx context.Context, sessionID, userTurn, reply string) error {
	if _, err := s.store.AppendMessage(ctx, sessionID, domain.RoleUser, userTurn); err != nil {
		return err
	}
	if _, err := s.store.AppendMessage(ctx, sessionID, domain.RoleAssistant, reply); err != nil {
		return err
	}
	return nil
}

func (s *Service) fail(logger *slog.Logger, resp *domain.ChatResponse, route domain.Route, err error) (*domain.ChatResponse, error) {
	outcome := domain.OutcomeFor(err)
	s.metrics.ChatTurns.WithLabelValues(string(route), string(outcome)).Inc()

	level := slog.LevelWarn
	if outcome == domain.OutcomeStorageFailed || outcome == domain.OutcomeInternal {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "chat turn failed", "outcome", string(outcome), "error", err)

	resp.Success = false
	resp.Error = err.Error()
	return resp, err
}
