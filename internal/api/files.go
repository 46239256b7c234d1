package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// UploadResponse describes the result of a file upload.
type UploadResponse struct {
	Message              string        `json:"message"`
	Filename             string        `json:"filename"`
	Size                 int64         `json:"size"`
	Type                 string        `json:"type"`
	ProcessedForQuerying bool          `json:"processed_for_querying"`
	S3Uploaded           bool          `json:"s3_uploaded"`
	GeneratedBRD         *GeneratedBRD `json:"brd_auto_generated,omitempty"`
}

// GeneratedBRD is the draft the service produces from uploaded files.
type GeneratedBRD struct {
	Success        bool   `json:"success"`
	ID             string `json:"brd_id"`
	ContentPreview string `json:"content_preview"`
	FilePath       string `json:"file_path"`
	FrontendURL    string `json:"frontend_url"`
}

// HasDraft reports whether the upload produced a usable BRD draft.
func (r *UploadResponse) HasDraft() bool {
	return r != nil && r.GeneratedBRD != nil && r.GeneratedBRD.Success && r.GeneratedBRD.ContentPreview != ""
}

// UploadFile is one file to upload.
type UploadFile struct {
	Name   string
	Reader io.Reader
}

// UploadPaths opens files from disk and uploads them in one request.
func (c *Client) UploadPaths(ctx context.Context, paths []string) (*UploadResponse, error) {
	files := make([]UploadFile, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", p, err)
		}
		defer f.Close()
		files = append(files, UploadFile{Name: filepath.Base(p), Reader: f})
	}
	return c.Upload(ctx, files)
}

// Upload sends files as multipart form data. Every file uses the "file"
// field and the form asks for a non-streaming reply.
func (c *Client) Upload(ctx context.Context, files []UploadFile) (*UploadResponse, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile("file", f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
	}
	if err := w.WriteField("stream", "false"); err != nil {
		return nil, fmt.Errorf("failed to write form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to write form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/files/upload/", nil), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out UploadResponse
	if err := classify(c.doJSON(req, &out)); err != nil {
		return nil, fmt.Errorf("failed to upload files: %w", err)
	}
	return &out, nil
}

// downloadRequest is the body for rendering a BRD document.
type downloadRequest struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// DownloadBRD renders text into a .docx document and returns its bytes.
func (c *Client) DownloadBRD(ctx context.Context, text, filename string) ([]byte, error) {
	payload := downloadRequest{Text: text, Filename: DocxName(filename)}
	body, err := jsonBody(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/files/brd/download", nil), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(c.http, req)
	if err != nil {
		return nil, fmt.Errorf("failed to download BRD: %w", classify(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

// DocxName ensures filename carries a .docx extension.
func DocxName(filename string) string {
	if filename == "" {
		filename = "BRD_Document"
	}
	if strings.HasSuffix(strings.ToLower(filename), ".docx") {
		return filename
	}
	return filename + ".docx"
}
