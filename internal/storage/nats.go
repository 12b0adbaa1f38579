package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bobarin/speechgate/internal/models"
	"github.com/nats-io/nats.go"
)

// NATS keeps file content in a JetStream object store bucket.
type NATS struct {
	bucket string
	store  nats.ObjectStore
	logger *slog.Logger
}

var _ Archive = (*NATS)(nil)

// NewNATS binds to bucket, creating it when it does not exist yet.
func NewNATS(js nats.JetStreamContext, bucket string, logger *slog.Logger) (*NATS, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "archive.nats"))

	store, err := js.ObjectStore(bucket)
	if err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) && !errors.Is(err, nats.ErrBucketNotFound) {
			return nil, fmt.Errorf("failed to bind object store bucket '%s': %w", bucket, err)
		}

		store, err = js.CreateObjectStore(&nats.ObjectStoreConfig{
			Bucket:      bucket,
			Description: "speechgate file archive",
			Storage:     nats.FileStorage,
			Replicas:    1,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucket, err)
		}
		logger.Info("created object store bucket", slog.String("bucket", bucket))
	}

	return &NATS{bucket: bucket, store: store, logger: logger}, nil
}

func (n *NATS) Put(ctx context.Context, id, filename string, data []byte) error {
	key, err := ObjectKey(id, filename)
	if err != nil {
		return err
	}

	return withTimeout(ctx, func(ctx context.Context) error {
		if _, err := n.store.PutBytes(key, data, nats.Context(ctx)); err != nil {
			return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
		}
		return nil
	})
}

func (n *NATS) Get(ctx context.Context, id, filename string) ([]byte, error) {
	key, err := ObjectKey(id, filename)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = withTimeout(ctx, func(ctx context.Context) error {
		var getErr error
		data, getErr = n.store.GetBytes(key, nats.Context(ctx))
		if errors.Is(getErr, nats.ErrObjectNotFound) {
			return fmt.Errorf("file %s: %w", id, models.ErrNotFound)
		}
		if getErr != nil {
			return fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, getErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (n *NATS) Delete(ctx context.Context, id, filename string) error {
	key, err := ObjectKey(id, filename)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Delete on an already deleted object succeeds, so check visibility first.
	if _, err := n.store.GetInfo(key); err != nil {
		if errors.Is(err, nats.ErrObjectNotFound) {
			return fmt.Errorf("file %s: %w", id, models.ErrNotFound)
		}
		return fmt.Errorf("failed to stat object '%s' in bucket '%s': %w", key, n.bucket, err)
	}

	if err := n.store.Delete(key); err != nil {
		if errors.Is(err, nats.ErrObjectNotFound) {
			return fmt.Errorf("file %s: %w", id, models.ErrNotFound)
		}
		return fmt.Errorf("failed to delete object '%s' from bucket '%s': %w", key, n.bucket, err)
	}
	return nil
}
