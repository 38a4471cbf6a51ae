package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"calai/internal/config"
	"calai/internal/domain"
	"calai/internal/port"
)

// PhotoUploadInput is the DTO for photo upload requests.
type PhotoUploadInput struct {
	SessionID string
	File      multipart.File
	Header    *multipart.FileHeader
}

// PhotoService stores uploaded meal photos and serves them back.
type PhotoService interface {
	Upload(ctx context.Context, input PhotoUploadInput) (*domain.PhotoMeta, error)
	GetByID(ctx context.Context, photoID uuid.UUID) (*domain.PhotoMeta, error)
	GetBytes(ctx context.Context, photoID uuid.UUID) ([]byte, *domain.PhotoMeta, error)
	GetDownloadURL(ctx context.Context, photoID uuid.UUID) (string, error)
}

type photoService struct {
	photoRepo port.PhotoRepository
	storage   port.ObjectStorage
	cfg       *config.StorageConfig
}

// NewPhotoService creates a new PhotoService implementation.
func NewPhotoService(photoRepo port.PhotoRepository, storage port.ObjectStorage, cfg *config.StorageConfig) PhotoService {
	return &photoService{
		photoRepo: photoRepo,
		storage:   storage,
		cfg:       cfg,
	}
}

func (s *photoService) Upload(ctx context.Context, input PhotoUploadInput) (*domain.PhotoMeta, error) {
	// Validate file extension
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	// Validate file size
	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if input.Header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Read first 512 bytes for magic-byte content type detection
	buf := make([]byte, 512)
	n, err := input.File.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading file header: %w", err)
	}
	detectedType := http.DetectContentType(buf[:n])
	if _, validContent := domain.AllowedContentTypes[detectedType]; !validContent {
		return nil, domain.ErrUnsupportedFileType
	}

	// Seek back to beginning for upload
	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}

	photoID := uuid.New()
	storageKey := fmt.Sprintf("sessions/%s/photos/%s.%s", input.SessionID, photoID, ext)

	meta := &domain.PhotoMeta{
		ID:           photoID,
		SessionID:    input.SessionID,
		FileName:     photoID.String() + "." + ext,
		OriginalName: input.Header.Filename,
		FileType:     fileType,
		FileSize:     input.Header.Size,
		StorageKey:   storageKey,
		ContentType:  detectedType,
		CreatedAt:    time.Now().UTC(),
	}

	log.Printf("photoService.Upload: storing %s (%s, %d bytes) for session %s",
		input.Header.Filename, detectedType, input.Header.Size, input.SessionID)

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Key:         storageKey,
		Body:        input.File,
		ContentType: detectedType,
		Size:        input.Header.Size,
	}); err != nil {
		log.Printf("photoService.Upload: storage upload failed for photo %s: %v", photoID, err)
		return nil, domain.ErrUploadFailed
	}

	if err := s.photoRepo.Save(ctx, meta); err != nil {
		return nil, fmt.Errorf("saving photo metadata: %w", err)
	}
	return meta, nil
}

func (s *photoService) GetByID(ctx context.Context, photoID uuid.UUID) (*domain.PhotoMeta, error) {
	return s.photoRepo.GetByID(ctx, photoID.String())
}

func (s *photoService) GetBytes(ctx context.Context, photoID uuid.UUID) ([]byte, *domain.PhotoMeta, error) {
	meta, err := s.photoRepo.GetByID(ctx, photoID.String())
	if err != nil {
		return nil, nil, err
	}
	data, err := s.storage.Download(ctx, meta.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("downloading photo: %w", err)
	}
	return data, meta, nil
}

func (s *photoService) GetDownloadURL(ctx context.Context, photoID uuid.UUID) (string, error) {
	meta, err := s.photoRepo.GetByID(ctx, photoID.String())
	if err != nil {
		return "", err
	}
	return s.storage.GetPresignedURL(ctx, meta.StorageKey, s.cfg.S3.PresignExpiry)
}
