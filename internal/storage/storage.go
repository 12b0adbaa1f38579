package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Budget for a single remote archive operation
const operationTimeout = 60 * time.Second

// Archive stores file content keyed by file id and filename. Implementations
// return models.ErrNotFound (wrapped) for unknown keys.
type Archive interface {
	Put(ctx context.Context, id, filename string, data []byte) error
	Get(ctx context.Context, id, filename string) ([]byte, error)
	Delete(ctx context.Context, id, filename string) error
}

// ObjectKey returns the archive-relative key "<id>/<filename>".
func ObjectKey(id, filename string) (string, error) {
	if err := validateSegment("file id", id); err != nil {
		return "", err
	}
	if err := validateSegment("filename", filename); err != nil {
		return "", err
	}
	return id + "/" + filename, nil
}

// validateSegment rejects anything that could escape the archive root.
func validateSegment(kind, s string) error {
	if s == "" || s == "." || s == ".." {
		return fmt.Errorf("invalid %s %q", kind, s)
	}
	if strings.ContainsAny(s, "/\\\x00") {
		return fmt.Errorf("invalid %s %q: path separators are not allowed", kind, s)
	}
	return nil
}

// withTimeout runs op once under the per-operation budget. Failures are
// returned as-is; remote archives are never retried.
func withTimeout(ctx context.Context, op func(ctx context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()
	return op(opCtx)
}
