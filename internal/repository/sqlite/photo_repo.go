package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"calai/internal/domain"
	"calai/internal/port"
)

type photoRepo struct {
	db *sql.DB
}

// NewPhotoRepo creates a new SQLite-backed PhotoRepository.
func NewPhotoRepo(db *sql.DB) port.PhotoRepository {
	return &photoRepo{db: db}
}

func (r *photoRepo) Save(ctx context.Context, meta *domain.PhotoMeta) error {
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO photos
		(id, session_id, file_name, original_name, file_type, file_size, storage_key, content_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		meta.ID.String(), meta.SessionID, meta.FileName, meta.OriginalName,
		string(meta.FileType), meta.FileSize, meta.StorageKey, meta.ContentType,
		meta.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("photoRepo.Save: %w", err)
	}
	return nil
}

func (r *photoRepo) GetByID(ctx context.Context, id string) (*domain.PhotoMeta, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, session_id, file_name, original_name, file_type, file_size, storage_key, content_type, created_at
		 FROM photos WHERE id = ?`, id)

	var (
		meta      domain.PhotoMeta
		idStr     string
		fileType  string
		createdAt string
	)
	err := row.Scan(&idStr, &meta.SessionID, &meta.FileName, &meta.OriginalName,
		&fileType, &meta.FileSize, &meta.StorageKey, &meta.ContentType, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("photoRepo.GetByID: %w", err)
	}
	if meta.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parsing photo id: %w", err)
	}
	meta.FileType = domain.FileType(fileType)
	if meta.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &meta, nil
}
