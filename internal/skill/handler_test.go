package skill

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/circhioz/alexa-assistant/adapters/memory"
	"github.com/circhioz/alexa-assistant/domain/entities"
	"github.com/circhioz/alexa-assistant/domain/repositories"
	"github.com/circhioz/alexa-assistant/usecase"
)

// fakeAssistant returns one scripted outcome per opened stream.
type fakeAssistant struct {
	frames  []*entities.AssistFrame
	openErr error
	prompts []*entities.AssistPrompt
}

func (a *fakeAssistant) OpenStream(ctx context.Context, accessToken string) (repositories.AssistStream, error) {
	if a.openErr != nil {
		return nil, a.openErr
	}
	return &fakeStream{owner: a}, nil
}

func (a *fakeAssistant) Retryable(err error) bool { return false }

type fakeStream struct {
	owner *fakeAssistant
	next  int
}

func (s *fakeStream) Send(prompt *entities.AssistPrompt) error {
	s.owner.prompts = append(s.owner.prompts, prompt)
	return nil
}

func (s *fakeStream) Recv() (*entities.AssistFrame, error) {
	if s.next < len(s.owner.frames) {
		frame := s.owner.frames[s.next]
		s.next++
		return frame, nil
	}
	return nil, io.EOF
}

func (s *fakeStream) CloseSend() error { return nil }
func (s *fakeStream) Close() error     { return nil }

type noopRegistrar struct{ err error }

func (r *noopRegistrar) Register(ctx context.Context, accessToken, deviceID string) error {
	return r.err
}

type handlerEnv struct {
	handler   *Handler
	assistant *fakeAssistant
	registrar *noopRegistrar
	sessions  *memory.SessionStore
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	env := &handlerEnv{
		assistant: &fakeAssistant{},
		registrar: &noopRegistrar{},
		sessions:  memory.NewSessionStore(),
	}
	service := usecase.NewAssistService(
		env.assistant,
		env.sessions,
		memory.NewPersistentStore(),
		env.registrar,
		nil,
		usecase.AssistConfig{ModelID: "m", DefaultLocale: "en-US"},
		zaptest.NewLogger(t),
	)
	env.handler = NewHandler(service, usecase.NewTextReplyAssembler(), zaptest.NewLogger(t))
	return env
}

func (env *handlerEnv) invoke(t *testing.T, reqEnv RequestEnvelope) *ResponseEnvelope {
	t.Helper()
	body, err := json.Marshal(reqEnv)
	if err != nil {
		t.Fatalf("Failed to encode envelope: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/alexa", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := env.handler.Handle(c); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp ResponseEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return &resp
}

func launchEnvelope() RequestEnvelope {
	return RequestEnvelope{
		Version: "1.0",
		Session: Session{
			SessionID: "session-1",
			User:      User{UserID: "user-1", AccessToken: "token"},
		},
		Request: Request{Type: requestTypeLaunch, Locale: "en-US"},
	}
}

func searchEnvelope(query string) RequestEnvelope {
	env := launchEnvelope()
	env.Request = Request{
		Type:   requestTypeIntent,
		Locale: "en-US",
		Intent: &Intent{
			Name:  intentSearch,
			Slots: map[string]Slot{"search": {Name: "search", Value: query}},
		},
	}
	return env
}

func TestLaunchRequestSpeaksHello(t *testing.T) {
	env := newHandlerEnv(t)
	env.assistant.frames = []*entities.AssistFrame{{DisplayText: "Hi there"}}

	resp := env.invoke(t, launchEnvelope())

	if len(env.assistant.prompts) != 1 {
		t.Fatalf("Expected one prompt, got %d", len(env.assistant.prompts))
	}
	if env.assistant.prompts[0].TextQuery != "Hello" {
		t.Errorf("Expected launch to send the hello query, got %q", env.assistant.prompts[0].TextQuery)
	}
	if resp.Response.OutputSpeech == nil || resp.Response.OutputSpeech.Text != "Hi there" {
		t.Errorf("Expected the display text to be spoken, got %+v", resp.Response.OutputSpeech)
	}
}

func TestSearchIntentForwardsSlot(t *testing.T) {
	env := newHandlerEnv(t)
	env.assistant.frames = []*entities.AssistFrame{{DisplayText: "42"}}

	resp := env.invoke(t, searchEnvelope("what is the answer"))

	if env.assistant.prompts[0].TextQuery != "what is the answer" {
		t.Errorf("Expected slot value as query, got %q", env.assistant.prompts[0].TextQuery)
	}
	if !resp.Response.ShouldEndSession {
		t.Error("Expected the session to end without a follow-on signal")
	}
	if resp.Response.Card == nil || resp.Response.Card.Content != "42" {
		t.Error("Expected a simple card with the display text")
	}
}

func TestFollowOnKeepsSessionOpen(t *testing.T) {
	env := newHandlerEnv(t)
	env.assistant.frames = []*entities.AssistFrame{
		{DisplayText: "which city?", MicMode: entities.MicrophoneFollowOn},
	}

	resp := env.invoke(t, searchEnvelope("weather"))

	if resp.Response.ShouldEndSession {
		t.Error("Expected follow-on to keep the session open")
	}
}

func TestMissingAccessTokenPromptsAccountLinking(t *testing.T) {
	env := newHandlerEnv(t)
	reqEnv := launchEnvelope()
	reqEnv.Session.User.AccessToken = ""

	resp := env.invoke(t, reqEnv)

	if resp.Response.Card == nil || resp.Response.Card.Type != "LinkAccount" {
		t.Errorf("Expected LinkAccount card, got %+v", resp.Response.Card)
	}
	if resp.Response.OutputSpeech == nil || resp.Response.OutputSpeech.Text != localize("en-US", msgLinkAccount) {
		t.Error("Expected the account-linking prompt to be spoken")
	}
}

func TestRegistrationFailureSpeaksApology(t *testing.T) {
	env := newHandlerEnv(t)
	env.registrar.err = &entities.RegistrationError{StatusCode: 500, ModelID: "m"}

	resp := env.invoke(t, launchEnvelope())

	want := localize("en-US", msgErrorRegistration)
	if resp.Response.OutputSpeech == nil || resp.Response.OutputSpeech.Text != want {
		t.Errorf("Expected registration apology, got %+v", resp.Response.OutputSpeech)
	}
}

func TestTransportFailureSpeaksGenericApology(t *testing.T) {
	env := newHandlerEnv(t)
	env.assistant.openErr = errors.New("backend down")

	resp := env.invoke(t, searchEnvelope("hi"))

	want := localize("en-US", msgErrorGeneric)
	if resp.Response.OutputSpeech == nil || resp.Response.OutputSpeech.Text != want {
		t.Errorf("Expected generic apology, got %+v", resp.Response.OutputSpeech)
	}
	if !resp.Response.ShouldEndSession {
		t.Error("Expected the session to close on a fatal failure")
	}
}

func TestSessionEndedDropsState(t *testing.T) {
	env := newHandlerEnv(t)
	env.sessions.SetConversationState("session-1", []byte{0x01})

	reqEnv := launchEnvelope()
	reqEnv.Request = Request{Type: requestTypeSessionEnded, Reason: "USER_INITIATED"}

	resp := env.invoke(t, reqEnv)

	if resp.Response.OutputSpeech != nil {
		t.Error("Expected an empty response for session end")
	}
	if env.sessions.GetConversationState("session-1") != nil {
		t.Error("Expected conversation state to be dropped")
	}
}

func TestMissingLocaleUsesConfiguredDefault(t *testing.T) {
	assistant := &fakeAssistant{}
	service := usecase.NewAssistService(
		assistant,
		memory.NewSessionStore(),
		memory.NewPersistentStore(),
		&noopRegistrar{},
		nil,
		usecase.AssistConfig{ModelID: "m", DefaultLocale: "it-IT"},
		zaptest.NewLogger(t),
	)
	env := &handlerEnv{
		handler:   NewHandler(service, usecase.NewTextReplyAssembler(), zaptest.NewLogger(t)),
		assistant: assistant,
	}

	reqEnv := launchEnvelope()
	reqEnv.Request.Locale = ""
	reqEnv.Session.User.AccessToken = ""

	resp := env.invoke(t, reqEnv)

	// Error replies must localize with the same default the prompt
	// would have used, not with the raw empty platform locale.
	want := localize("it-IT", msgLinkAccount)
	if resp.Response.OutputSpeech == nil || resp.Response.OutputSpeech.Text != want {
		t.Errorf("Expected Italian account-linking prompt, got %+v", resp.Response.OutputSpeech)
	}
}

func TestConversationStateRidesSessionAttributes(t *testing.T) {
	env := newHandlerEnv(t)
	env.assistant.frames = []*entities.AssistFrame{
		{
			DisplayText:       "which one?",
			ConversationState: []byte{0xCA, 0xFE},
			MicMode:           entities.MicrophoneFollowOn,
		},
	}

	resp := env.invoke(t, searchEnvelope("play music"))

	raw, ok := resp.SessionAttributes[attrConversationState].(string)
	if !ok || raw == "" {
		t.Fatalf("Expected conversation state in session attributes, got %+v", resp.SessionAttributes)
	}
	state, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("Session attribute is not base64: %v", err)
	}
	if !bytes.Equal(state, []byte{0xCA, 0xFE}) {
		t.Errorf("Expected continuation blob round-tripped, got %x", state)
	}

	// A follow-up carrying only the envelope attribute should continue
	// the conversation even with an empty server-side store.
	env.sessions.Drop("session-1")
	env.assistant.frames = []*entities.AssistFrame{{DisplayText: "done"}}
	followUp := searchEnvelope("the second")
	followUp.Session.Attributes = map[string]interface{}{attrConversationState: raw}

	env.invoke(t, followUp)

	last := env.assistant.prompts[len(env.assistant.prompts)-1]
	if last.NewConversation {
		t.Error("Expected seeded state to continue the conversation")
	}
	if !bytes.Equal(last.ConversationState, []byte{0xCA, 0xFE}) {
		t.Errorf("Expected seeded blob sent verbatim, got %x", last.ConversationState)
	}
}

func TestUnknownIntentFallsBack(t *testing.T) {
	env := newHandlerEnv(t)

	reqEnv := launchEnvelope()
	reqEnv.Request = Request{
		Type:   requestTypeIntent,
		Locale: "it-IT",
		Intent: &Intent{Name: "AMAZON.HelpIntent"},
	}

	resp := env.invoke(t, reqEnv)

	want := localize("it-IT", msgFallback)
	if resp.Response.OutputSpeech == nil || resp.Response.OutputSpeech.Text != want {
		t.Errorf("Expected localized fallback, got %+v", resp.Response.OutputSpeech)
	}
	if resp.Response.ShouldEndSession {
		t.Error("Expected fallback to leave the session open")
	}
}
