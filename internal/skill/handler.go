package skill

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/circhioz/alexa-assistant/domain/entities"
	"github.com/circhioz/alexa-assistant/usecase"
)

const (
	requestTypeLaunch       = "LaunchRequest"
	requestTypeIntent       = "IntentRequest"
	requestTypeSessionEnded = "SessionEndedRequest"

	intentSearch = "SearchIntent"

	// conversation state rides the session attributes as base64 so a
	// turn can continue even when a different process serves it
	attrConversationState = "conversation_state"
)

// Handler routes skill requests to the assist service and maps outcomes
// and failures to response envelopes.
type Handler struct {
	service   *usecase.AssistService
	assembler usecase.ReplyAssembler
	logger    *zap.Logger
}

func NewHandler(service *usecase.AssistService, assembler usecase.ReplyAssembler, logger *zap.Logger) *Handler {
	return &Handler{
		service:   service,
		assembler: assembler,
		logger:    logger,
	}
}

// Handle is the webhook entry point.
func (h *Handler) Handle(c echo.Context) error {
	var env RequestEnvelope
	if err := c.Bind(&env); err != nil {
		h.logger.Error("Failed to parse request envelope", zap.Error(err))
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request envelope"})
	}

	locale := env.Request.Locale
	if locale == "" {
		locale = h.service.DefaultLocale()
	}

	var resp *ResponseEnvelope
	switch env.Request.Type {
	case requestTypeLaunch:
		h.logger.Info("LaunchRequest", zap.String("session_id", env.Session.SessionID))
		resp = h.assist(c, &env, locale, localize(locale, msgHello))

	case requestTypeIntent:
		if env.Request.Intent != nil && env.Request.Intent.Name == intentSearch {
			h.logger.Info("SearchIntent", zap.String("session_id", env.Session.SessionID))
			resp = h.assist(c, &env, locale, env.Request.SlotValue("search"))
		} else {
			resp = h.fallback(&env, locale)
		}

	case requestTypeSessionEnded:
		h.logger.Info("Session ended",
			zap.String("session_id", env.Session.SessionID),
			zap.String("reason", env.Request.Reason))
		h.service.EndSession(env.Session.SessionID)
		resp = newEnvelope()

	default:
		resp = h.fallback(&env, locale)
	}

	return c.JSON(http.StatusOK, resp)
}

// assist runs one exchange and assembles the reply, mapping every failure
// class to a localized spoken response so the handler never errors out.
func (h *Handler) assist(c echo.Context, env *RequestEnvelope, locale, query string) *ResponseEnvelope {
	ctx := c.Request().Context()

	user := env.Session.User
	if user.UserID == "" {
		user = env.Context.System.User
	}

	utt := entities.Utterance{
		Text:        query,
		UserID:      user.UserID,
		SessionID:   env.Session.SessionID,
		Locale:      locale,
		AccessToken: user.AccessToken,
	}

	if raw, ok := env.Session.Attributes[attrConversationState].(string); ok && raw != "" {
		if state, err := base64.StdEncoding.DecodeString(raw); err == nil {
			h.service.SeedConversationState(utt.SessionID, state)
		}
	}

	outcome, err := h.service.Assist(ctx, utt)
	if err != nil {
		return h.errorReply(err, locale)
	}

	reply, err := h.assembler.Assemble(ctx, entities.DeviceIdentity(utt.UserID), outcome)
	if err != nil {
		h.logger.Error("Failed to assemble reply", zap.Error(err))
		return newEnvelope().speak(localize(locale, msgErrorGeneric)).endSession(true)
	}

	resp := newEnvelope().endSession(reply.EndSession)
	switch {
	case reply.SpeechSSML != "":
		resp.speakSSML(reply.SpeechSSML)
	case reply.SpeechText != "":
		resp.speak(reply.SpeechText)
	default:
		resp.speak(localize(locale, msgFallback))
	}
	if reply.CardTitle != "" {
		resp.withSimpleCard(reply.CardTitle, reply.CardText)
	}
	if !reply.EndSession && len(outcome.ConversationState) > 0 {
		resp.SessionAttributes = map[string]interface{}{
			attrConversationState: base64.StdEncoding.EncodeToString(outcome.ConversationState),
		}
	}
	return resp
}

func (h *Handler) errorReply(err error, locale string) *ResponseEnvelope {
	var regErr *entities.RegistrationError

	switch {
	case errors.Is(err, entities.ErrAccountNotLinked):
		h.logger.Info("User must link their Google account")
		return newEnvelope().
			speak(localize(locale, msgLinkAccount)).
			withLinkAccountCard().
			endSession(true)

	case errors.As(err, &regErr):
		h.logger.Error("Device registration failed", zap.Error(err))
		return newEnvelope().
			speak(localize(locale, msgErrorRegistration)).
			endSession(true)

	default:
		h.logger.Error("Exchange failed", zap.Error(err))
		return newEnvelope().
			speak(localize(locale, msgErrorGeneric)).
			endSession(true)
	}
}

func (h *Handler) fallback(env *RequestEnvelope, locale string) *ResponseEnvelope {
	h.logger.Debug("Unhandled request",
		zap.String("type", env.Request.Type))
	return newEnvelope().speak(localize(locale, msgFallback)).endSession(false)
}
