package speech_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bobarin/speechgate/internal/models"
	"github.com/bobarin/speechgate/internal/services"
	"github.com/bobarin/speechgate/internal/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	mu       sync.Mutex
	audio    []byte
	err      error
	speakers []string
	texts    []string
	deadline bool
}

func (e *stubEngine) Infer(ctx context.Context, speaker, text string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speakers = append(e.speakers, speaker)
	e.texts = append(e.texts, text)
	_, e.deadline = ctx.Deadline()
	return e.audio, e.err
}

type stubFiles struct {
	calls    int
	filename string
	purpose  string
	data     []byte
	err      error
}

func (f *stubFiles) Create(_ context.Context, filename, purpose string, data []byte) (*models.FileObject, error) {
	f.calls++
	f.filename, f.purpose, f.data = filename, purpose, data
	if f.err != nil {
		return nil, f.err
	}
	return &models.FileObject{
		ID:        "file_test",
		Bytes:     int64(len(data)),
		CreatedAt: 1700000000,
		Filename:  filename,
		Object:    models.ObjectFile,
		Purpose:   purpose,
	}, nil
}

func TestStreamingBackendReturnsAudio(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{audio: []byte("RIFF1234")}
	backend, err := speech.New(speech.ModeStream, engine, nil, speech.Options{DefaultVoice: "0", Timeout: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, speech.ModeStream, backend.Mode())

	res, err := backend.Synthesize(context.Background(), models.SpeechRequest{Input: "hello"})
	require.NoError(t, err)
	assert.Len(t, res.Audio, 8)
	assert.Nil(t, res.File)

	assert.Equal(t, []string{"0"}, engine.speakers)
	assert.Equal(t, []string{"hello"}, engine.texts)
	assert.True(t, engine.deadline)
}

func TestPersistingBackendStoresOutput(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{audio: []byte("RIFF1234")}
	files := &stubFiles{}
	backend, err := speech.New(speech.ModePersist, engine, files, speech.Options{})
	require.NoError(t, err)

	res, err := backend.Synthesize(context.Background(), models.SpeechRequest{Input: "hello", VoiceSelector: "3"})
	require.NoError(t, err)
	require.NotNil(t, res.File)
	assert.Equal(t, int64(8), res.File.Bytes)
	assert.Equal(t, speech.OutputFilename, files.filename)
	assert.Equal(t, models.PurposeAssistantsOutput, files.purpose)
	assert.Equal(t, []string{"3"}, engine.speakers)
}

func TestBackendPropagatesEngineErrors(t *testing.T) {
	t.Parallel()

	engineErr := &services.EngineError{Engine: "stub", Kind: services.KindInput, Err: errors.New("unknown speaker")}
	files := &stubFiles{}
	backend, err := speech.New(speech.ModePersist, &stubEngine{err: engineErr}, files, speech.Options{})
	require.NoError(t, err)

	_, err = backend.Synthesize(context.Background(), models.SpeechRequest{Input: "hello"})
	require.Error(t, err)
	assert.Equal(t, services.KindInput, services.KindOf(err))
	assert.Zero(t, files.calls, "failed synthesis must not store a file")
}

func TestBackendRejectsEmptyAudio(t *testing.T) {
	t.Parallel()

	backend, err := speech.New(speech.ModeStream, &stubEngine{}, nil, speech.Options{})
	require.NoError(t, err)

	_, err = backend.Synthesize(context.Background(), models.SpeechRequest{Input: "hello"})
	require.Error(t, err)
	assert.Equal(t, services.KindRuntime, services.KindOf(err))
}

func TestPersistingBackendStoreFailure(t *testing.T) {
	t.Parallel()

	files := &stubFiles{err: errors.New("disk full")}
	backend, err := speech.New(speech.ModePersist, &stubEngine{audio: []byte("RIFF")}, files, speech.Options{})
	require.NoError(t, err)

	_, err = backend.Synthesize(context.Background(), models.SpeechRequest{Input: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestNewValidatesArguments(t *testing.T) {
	t.Parallel()

	_, err := speech.New("both", &stubEngine{}, nil, speech.Options{})
	assert.Error(t, err)

	_, err = speech.New(speech.ModePersist, &stubEngine{}, nil, speech.Options{})
	assert.Error(t, err)

	_, err = speech.New(speech.ModeStream, nil, nil, speech.Options{})
	assert.Error(t, err)
}
