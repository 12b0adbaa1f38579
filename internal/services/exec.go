package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
)

const execEngineName = "exec"

// exitInputError is the exit status an engine command uses to reject its input.
const exitInputError = 2

// ExecEngine runs an external synthesis command once per request. The command
// reads {"speaker","text"} JSON on stdin and writes WAV bytes to stdout.
type ExecEngine struct {
	cmd    []string
	logger *slog.Logger
}

var _ Engine = (*ExecEngine)(nil)

type execRequest struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

func NewExecEngine(command string, logger *slog.Logger) (*ExecEngine, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = true
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse tts command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("tts command empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecEngine{
		cmd:    args,
		logger: logger.With(slog.String("component", "engine.exec")),
	}, nil
}

func (e *ExecEngine) Infer(ctx context.Context, speaker, text string) ([]byte, error) {
	payload, err := json.Marshal(execRequest{Speaker: speaker, Text: text})
	if err != nil {
		return nil, runtimeError(execEngineName, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.cmd[0], e.cmd[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == exitInputError {
			return nil, inputError(execEngineName, errors.New(msg))
		}
		if ctx.Err() != nil {
			return nil, runtimeError(execEngineName, ctx.Err())
		}
		return nil, runtimeError(execEngineName, errors.New(msg))
	}

	audio := stdout.Bytes()
	if len(audio) == 0 {
		return nil, runtimeError(execEngineName, errors.New("command produced no audio"))
	}
	if !IsWAV(audio) {
		e.logger.Warn("engine output is not a RIFF/WAVE stream", slog.Int("bytes", len(audio)))
	}

	e.logger.Debug("speech generated",
		slog.String("speaker", speaker),
		slog.Int("text_len", len(text)),
		slog.Int("bytes", len(audio)))
	return audio, nil
}
