package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/defexvision/inspection-service/internal/core/domain"
)

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "result_20250101_120000.jpg")
	if err := os.WriteFile(path, []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestUploadSendsSignedMultipartRequest(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("api_key") != "key-123" {
			t.Errorf("api_key = %q", r.FormValue("api_key"))
		}
		ts := r.FormValue("timestamp")
		want := sha1.Sum([]byte("timestamp=" + ts + "secret-456"))
		if r.FormValue("signature") != hex.EncodeToString(want[:]) {
			t.Errorf("signature mismatch for ts %q", ts)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file part missing: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo/result.jpg"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "demo", "key-123", "secret-456", nil)
	c.now = func() time.Time { return time.Unix(1735732800, 0) }

	url, err := c.Upload(context.Background(), writeArtifact(t))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if url != "https://res.cloudinary.com/demo/result.jpg" {
		t.Fatalf("unexpected url %q", url)
	}
	if gotPath != "/v1_1/demo/image/upload" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestUploadWrapsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "demo", "key", "secret", nil)
	_, err := c.Upload(context.Background(), writeArtifact(t))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrUpload) {
		t.Fatalf("expected ErrUpload kind, got %v", err)
	}
}

func TestUploadFailsOnMissingArtifact(t *testing.T) {
	c := New("http://127.0.0.1:0", "demo", "key", "secret", nil)
	_, err := c.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	if err == nil {
		t.Fatalf("expected error for missing artifact")
	}
	if !domain.IsKind(err, domain.ErrUpload) {
		t.Fatalf("expected ErrUpload kind, got %v", err)
	}
}
