package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestAudioFromResponse(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{
					{Text: "ignored"},
					{InlineData: &genai.Blob{MIMEType: "audio/L16;rate=24000", Data: []byte{0x01, 0x00}}},
					{InlineData: &genai.Blob{MIMEType: "audio/L16;rate=24000", Data: []byte{0x02, 0x00}}},
				},
			},
		}},
	}

	pcm, err := audioFromResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x02, 0x00}, pcm)
}

func TestAudioFromResponseWithoutAudio(t *testing.T) {
	t.Parallel()

	_, err := audioFromResponse(&genai.GenerateContentResponse{})
	require.Error(t, err)

	_, err = audioFromResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "hi"}}}}},
	})
	require.Error(t, err)
}
