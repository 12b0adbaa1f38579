package services

import (
	"bytes"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPCMProducesValidWAV(t *testing.T) {
	t.Parallel()

	pcm := []byte{0x00, 0x00, 0xff, 0x7f, 0x00, 0x80, 0x10, 0x00}
	data, err := WrapPCM(pcm, 24000, 1)
	require.NoError(t, err)
	assert.True(t, IsWAV(data))
	assert.Equal(t, []byte("RIFF"), data[:4])

	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, uint32(24000), dec.SampleRate)
	assert.Equal(t, uint16(1), dec.NumChans)
	assert.Equal(t, []int{0, 32767, -32768, 16}, buf.Data)
}

func TestWrapPCMRejectsOddLength(t *testing.T) {
	t.Parallel()

	_, err := WrapPCM([]byte{0x01, 0x02, 0x03}, 22050, 1)
	require.Error(t, err)
}

func TestIsWAVRejectsGarbage(t *testing.T) {
	t.Parallel()

	assert.False(t, IsWAV([]byte("not audio")))
	assert.False(t, IsWAV(nil))
}
