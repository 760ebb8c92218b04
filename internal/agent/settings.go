package agent

import (
    "strings"

    "voicebridge/agent/internal/tools"
)

// Templates carries the per-session agent configuration folded into the
// Settings handshake sent right after connect.
type Templates struct {
    VoiceModel      string
    VoiceName       string
    Greeting        string
    Prompt          string
    UserSampleRate  int
    AgentSampleRate int
}

// WithDefaults fills the voice name from the model id when it was not given.
func (t Templates) WithDefaults() Templates {
    if t.VoiceName == "" {
        t.VoiceName = VoiceNameFromModel(t.VoiceModel)
    }
    return t
}

// VoiceNameFromModel derives a display name from a synthesis model id,
// e.g. "aura-2-apollo-en" -> "Apollo".
func VoiceNameFromModel(model string) string {
    s := strings.TrimPrefix(model, "aura-2-")
    s = strings.TrimPrefix(s, "aura-")
    if i := strings.Index(s, "-"); i >= 0 {
        s = s[:i]
    }
    if s == "" {
        return ""
    }
    return strings.ToUpper(s[:1]) + s[1:]
}

type SettingsMessage struct {
    Type  string        `json:"type"`
    Audio AudioSettings `json:"audio"`
    Agent AgentSettings `json:"agent"`
}

type AudioSettings struct {
    Input  AudioFormat `json:"input"`
    Output AudioFormat `json:"output"`
}

type AudioFormat struct {
    Encoding   string `json:"encoding"`
    SampleRate int    `json:"sample_rate"`
    Container  string `json:"container,omitempty"`
}

type AgentSettings struct {
    Language string        `json:"language"`
    Listen   ListenConfig  `json:"listen"`
    Think    ThinkConfig   `json:"think"`
    Speak    SpeakConfig   `json:"speak"`
    Greeting string        `json:"greeting"`
}

type Provider struct {
    Type        string  `json:"type"`
    Model       string  `json:"model"`
    Temperature float64 `json:"temperature,omitempty"`
}

type ListenConfig struct {
    Provider Provider `json:"provider"`
}

type ThinkConfig struct {
    Provider  Provider           `json:"provider"`
    Prompt    string             `json:"prompt"`
    Functions []tools.Definition `json:"functions"`
}

type SpeakConfig struct {
    Provider Provider `json:"provider"`
}

// Settings builds the handshake message advertising audio formats, the
// model pipeline, and the tool schema.
func (t Templates) Settings(defs []tools.Definition) SettingsMessage {
    return SettingsMessage{
        Type: "Settings",
        Audio: AudioSettings{
            Input:  AudioFormat{Encoding: "linear16", SampleRate: t.UserSampleRate},
            Output: AudioFormat{Encoding: "linear16", SampleRate: t.AgentSampleRate, Container: "none"},
        },
        Agent: AgentSettings{
            Language: "en",
            Listen:   ListenConfig{Provider: Provider{Type: "deepgram", Model: "nova-3"}},
            Think: ThinkConfig{
                Provider:  Provider{Type: "open_ai", Model: "gpt-4o-mini", Temperature: 0.7},
                Prompt:    t.Prompt,
                Functions: defs,
            },
            Speak:    SpeakConfig{Provider: Provider{Type: "deepgram", Model: t.VoiceModel}},
            Greeting: t.Greeting,
        },
    }
}
