package entities

// MicrophoneMode tells the voice platform whether to expect an immediate
// follow-up utterance after the reply is played.
type MicrophoneMode string

const (
	MicrophoneClosed   MicrophoneMode = "closed"
	MicrophoneOpen     MicrophoneMode = "open"
	MicrophoneFollowOn MicrophoneMode = "follow_on" // wire signal, resolves to open
)

// Volume boundaries for the assistant's audio output. Values arrive as
// integer percentages from the remote service and are persisted per user.
const (
	MinVolume     = 1
	MaxVolume     = 100
	DefaultVolume = 50
)

// Utterance is one user query entering the bridge, either typed out by the
// skill's search slot or transcribed from raw device audio. It is immutable
// for the lifetime of the exchange.
type Utterance struct {
	Text        string
	UserID      string
	SessionID   string
	Locale      string
	AccessToken string
}

// AssistPrompt is the single outbound request of one exchange. It carries
// the prior conversation state verbatim so the remote service can resume a
// multi-turn dialog.
type AssistPrompt struct {
	TextQuery         string
	Locale            string
	ConversationState []byte
	NewConversation   bool
	DeviceID          string
	DeviceModelID     string
	VolumePercent     int
}

// AssistFrame is one unit of the streamed response. Any subset of the
// fields may be populated; scalar signals in later frames overwrite the
// ones from earlier frames within the same exchange.
type AssistFrame struct {
	Audio             []byte
	ConversationState []byte
	VolumePercent     int // 0 means "no update"
	MicMode           MicrophoneMode
	DisplayText       string
}

// ExchangeOutcome is the aggregated result of one fully consumed stream.
type ExchangeOutcome struct {
	Audio             []byte
	ConversationState []byte
	VolumePercent     int // 0 means the service never signalled a change
	MicMode           MicrophoneMode
	DisplayText       string
}

// KeepSessionOpen reports whether the platform session should stay open so
// the user can fire a follow-on query without re-invoking the skill.
func (o *ExchangeOutcome) KeepSessionOpen() bool {
	return o.MicMode == MicrophoneOpen || o.MicMode == MicrophoneFollowOn
}

// ClampVolume forces a volume percentage into the supported range.
func ClampVolume(v int) int {
	if v < MinVolume {
		return MinVolume
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}
