package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// ErrInvalidUpload marks a client-side upload validation failure; the
// request never reaches the network.
var ErrInvalidUpload = fmt.Errorf("invalid upload")

// supportedUploadExt matches the file types the server can parse.
var supportedUploadExt = []string{".csv", ".xlsx", ".xls"}

// ValidateUpload checks an upload before any bytes are sent: the dataset
// needs a name and the file must be CSV or Excel.
func ValidateUpload(filename, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: dataset name is required", ErrInvalidUpload)
	}
	lower := strings.ToLower(filename)
	for _, ext := range supportedUploadExt {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}
	return fmt.Errorf("%w: only CSV and Excel files are supported", ErrInvalidUpload)
}

// UploadDataset sends the file as a multipart body together with the
// dataset name and optional description, returning the created summary.
func (c *Client) UploadDataset(ctx context.Context, file io.Reader, filename, name, description string) (*DatasetSummary, error) {
	if err := ValidateUpload(filename, name); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("Failed to upload dataset: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("Failed to upload dataset: read file: %w", err)
	}
	if err := mw.WriteField("name", name); err != nil {
		return nil, fmt.Errorf("Failed to upload dataset: %w", err)
	}
	if description != "" {
		if err := mw.WriteField("description", description); err != nil {
			return nil, fmt.Errorf("Failed to upload dataset: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("Failed to upload dataset: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+datasetsPath, &body)
	if err != nil {
		return nil, fmt.Errorf("Failed to upload dataset: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out DatasetSummary
	if err := c.send(req, &out, "Failed to upload dataset", false); err != nil {
		return nil, err
	}
	return &out, nil
}
