package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bobarin/speechgate/internal/models"
)

// Disk keeps files under <root>/<file_id>/<filename>.
type Disk struct {
	root string
}

var _ Archive = (*Disk)(nil)

func NewDisk(root string) (*Disk, error) {
	if err := EnsureDir(root); err != nil {
		return nil, err
	}
	return &Disk{root: root}, nil
}

func (d *Disk) Root() string {
	return d.root
}

// EnsureDir creates dir and any missing parents. Calling it on an existing
// directory is a no-op.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

func (d *Disk) path(id, filename string) (string, error) {
	key, err := ObjectKey(id, filename)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(key)), nil
}

// Put writes data to a temporary file in the destination directory and
// renames it into place, so readers never observe a partial file.
func (d *Disk) Put(ctx context.Context, id, filename string, data []byte) error {
	dest, err := d.path(id, filename)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(dest)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", dest, err)
	}

	committed = true
	return nil
}

func (d *Disk) Get(ctx context.Context, id, filename string) ([]byte, error) {
	src, err := d.path(id, filename)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src, err)
	}
	return data, nil
}

// Delete removes the file and, when it is left empty, its id directory.
func (d *Disk) Delete(ctx context.Context, id, filename string) error {
	target, err := d.path(id, filename)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file %s: %w", id, models.ErrNotFound)
		}
		return fmt.Errorf("failed to remove %s: %w", target, err)
	}

	// Non-empty directories are left alone.
	_ = os.Remove(filepath.Dir(target))
	return nil
}
