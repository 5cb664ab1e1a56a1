package spool

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSpoolSaveAndCleanup(t *testing.T) {
	base := t.TempDir()
	s, err := New(filepath.Join(base, "uploads"), filepath.Join(base, "results"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	uploadPath, err := s.SaveUpload(ctx, "20250101_120000", strings.NewReader("raw-bytes"))
	if err != nil {
		t.Fatalf("SaveUpload() error = %v", err)
	}
	if filepath.Base(uploadPath) != "upload_20250101_120000.jpg" {
		t.Fatalf("unexpected upload name %s", uploadPath)
	}

	resultPath, err := s.SaveResult(ctx, "20250101_120000", []byte("annotated"))
	if err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}

	raw, err := os.ReadFile(uploadPath)
	if err != nil || string(raw) != "raw-bytes" {
		t.Fatalf("upload content = %q, err = %v", raw, err)
	}

	s.Cleanup("20250101_120000")
	if _, err := os.Stat(uploadPath); !os.IsNotExist(err) {
		t.Fatalf("expected upload removed, stat err = %v", err)
	}
	if _, err := os.Stat(resultPath); !os.IsNotExist(err) {
		t.Fatalf("expected result removed, stat err = %v", err)
	}
}

// brokenReader yields some bytes, then fails, like a client connection
// dropping mid-upload.
type brokenReader struct {
	prefix io.Reader
}

func (r *brokenReader) Read(p []byte) (int, error) {
	n, err := r.prefix.Read(p)
	if err == io.EOF {
		return n, errors.New("connection reset")
	}
	return n, err
}

func TestSaveUploadRemovesPartialFileOnReadError(t *testing.T) {
	base := t.TempDir()
	s, err := New(filepath.Join(base, "u"), filepath.Join(base, "r"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = s.SaveUpload(context.Background(), "20260830_120000", &brokenReader{prefix: strings.NewReader("partial-bytes")})
	if err == nil {
		t.Fatalf("SaveUpload() with a failing reader must error")
	}

	leftover := filepath.Join(base, "u", "upload_20260830_120000.jpg")
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Fatalf("partial upload file left behind, stat err = %v", err)
	}
}

func TestCleanupToleratesMissingFiles(t *testing.T) {
	base := t.TempDir()
	s, err := New(filepath.Join(base, "u"), filepath.Join(base, "r"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	// Nothing spooled under this id; Cleanup must not panic.
	s.Cleanup("19700101_000000")
}
