package spool

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Spool keeps the raw upload and the rendered result of one request on local
// disk for the duration of that request. Cleanup runs on every exit path so
// sustained traffic cannot grow the spool without bound.
type Spool struct {
	uploadDir string
	resultDir string
}

func New(uploadDir, resultDir string) (*Spool, error) {
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	if resultDir == "" {
		resultDir = "./results"
	}
	for _, dir := range []string{uploadDir, resultDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create spool dir %s: %w", dir, err)
		}
	}
	return &Spool{uploadDir: uploadDir, resultDir: resultDir}, nil
}

func (s *Spool) SaveUpload(_ context.Context, requestID string, data io.Reader) (string, error) {
	path := s.uploadPath(requestID)
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Spool) SaveResult(_ context.Context, requestID string, data []byte) (string, error) {
	path := s.resultPath(requestID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write result file: %w", err)
	}
	return path, nil
}

func (s *Spool) Cleanup(requestID string) {
	_ = os.Remove(s.uploadPath(requestID))
	_ = os.Remove(s.resultPath(requestID))
}

func (s *Spool) uploadPath(requestID string) string {
	return filepath.Join(s.uploadDir, fmt.Sprintf("upload_%s.jpg", requestID))
}

func (s *Spool) resultPath(requestID string) string {
	return filepath.Join(s.resultDir, fmt.Sprintf("result_%s.jpg", requestID))
}

// writeFile never leaves a partial file behind: a failed copy removes what
// was written before the error.
func writeFile(path string, data io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}
