package gemini

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/itish2003/voicerag/models"
)

func TestPCMToWAV_Header(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	wav := PCMToWAV(pcm, 24000)

	require.Len(t, wav, 44+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]))
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, pcm, wav[44:])
}

func TestSampleRateOf(t *testing.T) {
	assert.Equal(t, 16000, sampleRateOf("audio/L16;codec=pcm;rate=16000"))
	assert.Equal(t, defaultSampleRate, sampleRateOf("audio/L16"))
	assert.Equal(t, defaultSampleRate, sampleRateOf("audio/L16;rate=abc"))
}

func TestPrebuiltVoices_CoverEveryVoice(t *testing.T) {
	for _, v := range models.Voices {
		assert.NotEmpty(t, prebuiltVoices[v], "voice %s has no Gemini mapping", v)
	}
}

func TestSpeechPrompt(t *testing.T) {
	assert.Equal(t, "hello", speechPrompt("hello", "  "))
	p := speechPrompt("hello", "Speak warmly.")
	assert.Contains(t, p, "Speak warmly.")
	assert.Contains(t, p, "hello")
}

func TestTextOf(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Hello, "}, {Text: "world"}}},
		}},
	}
	assert.Equal(t, "Hello, world", textOf(resp))
	assert.Empty(t, textOf(&genai.GenerateContentResponse{}))
	assert.Empty(t, textOf(nil))
}

func TestInlineDataOf(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "ignored"},
				{InlineData: &genai.Blob{Data: []byte{1, 2}, MIMEType: "audio/L16;rate=24000"}},
			}},
		}},
	}
	blob := inlineDataOf(resp)
	require.NotNil(t, blob)
	assert.Equal(t, []byte{1, 2}, blob.Data)
	assert.Nil(t, inlineDataOf(&genai.GenerateContentResponse{}))
}
