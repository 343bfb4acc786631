package models

import (
	"fmt"
	"strings"
)

// Voice is one of the fixed speech presets.
type Voice string

const (
	VoiceAlloy Voice = "alloy"
	VoiceEcho  Voice = "echo"
	VoiceFable Voice = "fable"
	VoiceOnyx  Voice = "onyx"
	VoiceNova  Voice = "nova"
)

// Voices lists every supported preset in display order.
var Voices = []Voice{VoiceAlloy, VoiceEcho, VoiceFable, VoiceOnyx, VoiceNova}

// ParseVoice resolves a preset name case-insensitively.
func ParseVoice(name string) (Voice, error) {
	v := Voice(strings.ToLower(strings.TrimSpace(name)))
	if v.Valid() {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q (expected one of %v)", ErrInvalidVoice, name, Voices)
}

// Valid reports whether v is one of the presets.
func (v Voice) Valid() bool {
	for _, p := range Voices {
		if v == p {
			return true
		}
	}
	return false
}

// Audio is a rendered speech payload before it is written to disk.
type Audio struct {
	Data      []byte
	MIMEType  string
	Extension string
}
