package services

import (
	"context"
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Engine is the common interface for speech synthesis engines
// Every provider turns (speaker, text) into a complete WAV byte stream, so
// callers never need to know which engine is configured.
// ---------------------------------------------------------------------------

// Engine synthesizes text with the given speaker and returns WAV bytes.
type Engine interface {
	Infer(ctx context.Context, speaker, text string) ([]byte, error)
}

// ErrorKind classifies engine failures.
type ErrorKind int

const (
	// KindInput means the engine rejected the speaker or the text.
	KindInput ErrorKind = iota + 1
	// KindRuntime means the engine failed while synthesizing.
	KindRuntime
)

func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// EngineError is returned by engines for every synthesis failure.
type EngineError struct {
	Engine string
	Kind   ErrorKind
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s engine %s error: %v", e.Engine, e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func inputError(engine string, err error) error {
	return &EngineError{Engine: engine, Kind: KindInput, Err: err}
}

func runtimeError(engine string, err error) error {
	return &EngineError{Engine: engine, Kind: KindRuntime, Err: err}
}

// KindOf returns the kind of an engine error, or 0 when err is not one.
func KindOf(err error) ErrorKind {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return 0
}
