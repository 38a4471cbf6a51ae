package segmenter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"calai/internal/config"
	"calai/internal/domain"
	"calai/internal/port"
)

// Client implements port.VolumeEstimator against the segmentation
// service. The service runs on the same host and shares a filesystem:
// it writes per-segment crop images plus a metadata file, and replies
// with the metadata file path.
type Client struct {
	baseURL    string
	plateRatio float64
	client     *http.Client
}

// NewClient creates a segmentation service client from config.
func NewClient(cfg *config.SegmenterConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		plateRatio: cfg.PlateRatio,
		client:     &http.Client{Timeout: timeout},
	}
}

type predictResponse struct {
	MetadataFile string `json:"metadata_file"`
}

// segmentMeta mirrors one entry of the service's metadata file.
type segmentMeta struct {
	SegmentID    int     `json:"segment_id"`
	FoodName     string  `json:"food_name"`
	VolumeLitres float64 `json:"volume_litres"`
	ImagePath    string  `json:"image_path"`
}

func (c *Client) Estimate(ctx context.Context, imagePath string) (*port.VolumeEstimate, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("img", filepath.Base(imagePath))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copying image: %w", err)
	}
	if c.plateRatio > 0 {
		if err := w.WriteField("plate_ratio", strconv.FormatFloat(c.plateRatio, 'f', -1, 64)); err != nil {
			return nil, fmt.Errorf("writing form field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling segmentation service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("segmentation service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed predictResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if parsed.MetadataFile == "" {
		return nil, fmt.Errorf("segmentation service returned no metadata file")
	}

	return readMetadata(parsed.MetadataFile)
}

func readMetadata(path string) (*port.VolumeEstimate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading segment metadata: %w", err)
	}

	var metas []segmentMeta
	if err := json.Unmarshal(data, &metas); err != nil {
		return nil, fmt.Errorf("unmarshaling segment metadata: %w", err)
	}

	est := &port.VolumeEstimate{MetadataPath: path}
	for _, m := range metas {
		est.Segments = append(est.Segments, domain.FoodSegment{
			SegmentID:    m.SegmentID,
			FoodName:     m.FoodName,
			VolumeLitres: m.VolumeLitres,
			ImagePath:    m.ImagePath,
		})
	}
	return est, nil
}
