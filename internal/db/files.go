package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bobarin/speechgate/internal/models"
)

func (db *DB) InsertFile(ctx context.Context, file *models.FileObject) error {
	query := db.rebind(`
		INSERT INTO files (id, bytes, created_at, filename, purpose)
		VALUES (?, ?, ?, ?, ?)
	`)

	_, err := db.ExecContext(ctx, query,
		file.ID, file.Bytes, file.CreatedAt, file.Filename, file.Purpose,
	)
	if err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}
	return nil
}

func (db *DB) GetFile(ctx context.Context, id string) (*models.FileObject, error) {
	query := db.rebind(`
		SELECT id, bytes, created_at, filename, purpose
		FROM files
		WHERE id = ?
	`)

	file := &models.FileObject{Object: models.ObjectFile}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&file.ID, &file.Bytes, &file.CreatedAt, &file.Filename, &file.Purpose,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	return file, nil
}

// ListFiles returns every file, oldest first.
func (db *DB) ListFiles(ctx context.Context) ([]models.FileObject, error) {
	query := `
		SELECT id, bytes, created_at, filename, purpose
		FROM files
		ORDER BY created_at, id
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	files := []models.FileObject{}
	for rows.Next() {
		file := models.FileObject{Object: models.ObjectFile}
		if err := rows.Scan(&file.ID, &file.Bytes, &file.CreatedAt, &file.Filename, &file.Purpose); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

func (db *DB) DeleteFile(ctx context.Context, id string) error {
	query := db.rebind(`DELETE FROM files WHERE id = ?`)

	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	return nil
}
