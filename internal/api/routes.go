package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/circhioz/alexa-assistant/domain/entities"
	"github.com/circhioz/alexa-assistant/domain/repositories"
	"github.com/circhioz/alexa-assistant/internal/auth"
	"github.com/circhioz/alexa-assistant/internal/monitor"
	"github.com/circhioz/alexa-assistant/internal/skill"
	"github.com/circhioz/alexa-assistant/usecase"
)

const defaultSampleRate = 16000

// InitRoutes wires the skill webhook, the operator API and the monitor
// websocket. transcriber may be nil, in which case audio payloads on the
// direct API are rejected.
func InitRoutes(
	e *echo.Echo,
	skillHandler *skill.Handler,
	service *usecase.AssistService,
	transcriber repositories.Transcriber,
	hub *monitor.Hub,
	logger *zap.Logger,
) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":          "ok",
			"service":         "alexa-assistant",
			"monitor_clients": hub.ClientCount(),
		})
	})

	e.POST("/alexa", skillHandler.Handle)

	v1 := e.Group("/api/v1", operatorAuth(logger))
	v1.POST("/assist", func(c echo.Context) error {
		return directAssist(c, service, transcriber, logger)
	})

	e.GET("/ws/monitor", func(c echo.Context) error {
		return monitorWithAuth(hub, c, logger)
	}, operatorAuth(logger))
}

// operatorAuth validates the bearer token and requires the operator role.
func operatorAuth(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "missing_token",
					Message: "Bearer token is required in Authorization header",
				})
			}

			claims, err := auth.ValidateToken(token)
			if err != nil {
				logger.Warn("Rejected operator token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "invalid_token",
					Message: "Invalid or expired token",
				})
			}
			if claims.Role != auth.RoleOperator {
				logger.Warn("Rejected token with wrong role", zap.String("role", claims.Role))
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "invalid_role",
					Message: "Operator role is required",
				})
			}

			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// directAssist runs one exchange on behalf of an operator, transcribing
// raw audio first when no text query is given.
func directAssist(c echo.Context, service *usecase.AssistService, transcriber repositories.Transcriber, logger *zap.Logger) error {
	var req AssistRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.SessionID == "" || req.UserID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "session_id and user_id are required",
		})
	}

	locale := req.Locale
	if locale == "" {
		locale = service.DefaultLocale()
	}

	text := req.Text
	var transcript string
	if text == "" {
		if req.Audio == "" {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "missing_fields",
				Message: "either text or audio is required",
			})
		}
		if transcriber == nil {
			return c.JSON(http.StatusNotImplemented, ErrorResponse{
				Error:   "transcription_unavailable",
				Message: "Audio transcription is not configured",
			})
		}

		pcm, err := base64.StdEncoding.DecodeString(req.Audio)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_audio",
				Message: "Audio must be base64-encoded",
			})
		}

		sampleRate := req.SampleRate
		if sampleRate == 0 {
			sampleRate = defaultSampleRate
		}
		encoding := req.Encoding
		if encoding == "" {
			encoding = "LINEAR16"
		}

		transcript, err = transcriber.TranscribeAudio(c.Request().Context(), pcm, repositories.AudioConfig{
			SampleRate: sampleRate,
			Encoding:   encoding,
			Language:   locale,
		})
		if err != nil {
			logger.Error("Transcription failed", zap.Error(err))
			return c.JSON(http.StatusBadGateway, ErrorResponse{
				Error:   "transcription_failed",
				Message: "Failed to transcribe utterance audio",
			})
		}
		text = transcript
	}

	outcome, err := service.Assist(c.Request().Context(), entities.Utterance{
		Text:        text,
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		Locale:      locale,
		AccessToken: req.AccessToken,
	})
	if err != nil {
		return assistError(c, err, logger)
	}

	return c.JSON(http.StatusOK, AssistResponse{
		Text:           outcome.DisplayText,
		Transcript:     transcript,
		MicrophoneMode: string(outcome.MicMode),
		Volume:         outcome.VolumePercent,
		AudioBytes:     len(outcome.Audio),
	})
}

func assistError(c echo.Context, err error, logger *zap.Logger) error {
	if errors.Is(err, entities.ErrAccountNotLinked) {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "account_not_linked",
			Message: "A delegated Google access token is required",
		})
	}
	logger.Error("Exchange failed", zap.Error(err))
	return c.JSON(http.StatusBadGateway, ErrorResponse{
		Error:   "exchange_failed",
		Message: "The assistant exchange did not complete",
	})
}

// monitorWithAuth hands an authenticated connection to the hub.
func monitorWithAuth(hub *monitor.Hub, c echo.Context, logger *zap.Logger) error {
	logger.Info("Monitor client connecting", zap.String("remote", c.RealIP()))
	return hub.ServeWS(c.Response(), c.Request())
}
