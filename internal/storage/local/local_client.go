package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"calai/internal/domain"
	"calai/internal/port"
)

type localClient struct {
	root string
}

// NewLocalClient creates an ObjectStorage implementation backed by a
// directory on the local filesystem. Keys map to file paths under root.
func NewLocalClient(root string) (port.ObjectStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("local storage directory not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &localClient{root: root}, nil
}

// resolve rejects keys that would escape the storage root.
func (c *localClient) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(c.root, clean), nil
}

func (c *localClient) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	path, err := c.resolve(input.Key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("local upload mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("local upload: %w", err)
	}
	if _, err := io.Copy(tmp, input.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("local upload write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("local upload close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("local upload rename: %w", err)
	}

	return &port.UploadOutput{Location: path}, nil
}

func (c *localClient) Download(ctx context.Context, key string) ([]byte, error) {
	path, err := c.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("local download: %w", err)
	}
	return data, nil
}

func (c *localClient) Delete(ctx context.Context, key string) error {
	path, err := c.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("local delete: %w", err)
	}
	return nil
}

// GetPresignedURL returns a file URL. Local storage has no expiry
// semantics, so the expiry argument is ignored.
func (c *localClient) GetPresignedURL(ctx context.Context, key string, expirySeconds int64) (string, error) {
	path, err := c.resolve(key)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("local presign: %w", err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}
