// Package skill terminates the Alexa Skills Kit webhook: envelope
// parsing, intent dispatch, localized replies, and error mapping.
package skill

// RequestEnvelope is the subset of the skill request payload the bridge
// consumes.
type RequestEnvelope struct {
	Version string  `json:"version"`
	Session Session `json:"session"`
	Context Context `json:"context"`
	Request Request `json:"request"`
}

type Session struct {
	New        bool                   `json:"new"`
	SessionID  string                 `json:"sessionId"`
	User       User                   `json:"user"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

type User struct {
	UserID      string `json:"userId"`
	AccessToken string `json:"accessToken,omitempty"`
}

type Context struct {
	System System `json:"System"`
}

type System struct {
	User   User   `json:"user"`
	Device Device `json:"device"`
}

type Device struct {
	DeviceID string `json:"deviceId"`
}

type Request struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId"`
	Locale    string  `json:"locale,omitempty"`
	Intent    *Intent `json:"intent,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots,omitempty"`
}

type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// SlotValue returns a named slot's value, empty when absent.
func (r *Request) SlotValue(name string) string {
	if r.Intent == nil {
		return ""
	}
	return r.Intent.Slots[name].Value
}

// ResponseEnvelope is the skill response payload.
type ResponseEnvelope struct {
	Version           string                 `json:"version"`
	SessionAttributes map[string]interface{} `json:"sessionAttributes,omitempty"`
	Response          Response               `json:"response"`
}

type Response struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Card             *Card         `json:"card,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

type OutputSpeech struct {
	Type string `json:"type"` // "PlainText" or "SSML"
	Text string `json:"text,omitempty"`
	SSML string `json:"ssml,omitempty"`
}

type Card struct {
	Type    string `json:"type"` // "Simple" or "LinkAccount"
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

func newEnvelope() *ResponseEnvelope {
	return &ResponseEnvelope{Version: "1.0"}
}

// speak sets plain text output speech.
func (e *ResponseEnvelope) speak(text string) *ResponseEnvelope {
	e.Response.OutputSpeech = &OutputSpeech{Type: "PlainText", Text: text}
	return e
}

// speakSSML sets SSML output speech.
func (e *ResponseEnvelope) speakSSML(ssml string) *ResponseEnvelope {
	e.Response.OutputSpeech = &OutputSpeech{Type: "SSML", SSML: ssml}
	return e
}

func (e *ResponseEnvelope) withSimpleCard(title, content string) *ResponseEnvelope {
	e.Response.Card = &Card{Type: "Simple", Title: title, Content: content}
	return e
}

func (e *ResponseEnvelope) withLinkAccountCard() *ResponseEnvelope {
	e.Response.Card = &Card{Type: "LinkAccount"}
	return e
}

func (e *ResponseEnvelope) endSession(end bool) *ResponseEnvelope {
	e.Response.ShouldEndSession = end
	return e
}
