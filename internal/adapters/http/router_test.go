package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/defexvision/inspection-service/internal/core/domain"
)

type inspectorFake struct {
	result        *domain.InspectionResult
	err           error
	lastRecipient string
	lastPayload   []byte
	calls         int
}

func (f *inspectorFake) Inspect(_ context.Context, image io.Reader, recipientEmail string) (*domain.InspectionResult, error) {
	f.calls++
	f.lastRecipient = recipientEmail
	payload, err := io.ReadAll(image)
	if err != nil {
		return nil, err
	}
	f.lastPayload = payload
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newRouterForTests(inspector *inspectorFake) http.Handler {
	return NewRouter(inspector, "qa@example.com", 16<<20, nil).Handler()
}

func newUploadRequest(t *testing.T, fields map[string]string, imageBytes []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if imageBytes != nil {
		part, err := writer.CreateFormFile("image", "board.jpg")
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write(imageBytes); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("WriteField(%q) error = %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestWelcomeEndpoint(t *testing.T) {
	handler := newRouterForTests(&inspectorFake{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["message"] != "Welcome to DefexVision Backend API" {
		t.Fatalf("unexpected welcome message: %q", payload["message"])
	}
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newRouterForTests(&inspectorFake{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestUploadImageSuccess(t *testing.T) {
	inspector := &inspectorFake{
		result: &domain.InspectionResult{
			RequestID: "20260830_120000",
			Classes:   []string{"IC-defect", "capacitor"},
			ImageURL:  "https://cdn.example.com/result.jpg",
		},
	}
	handler := newRouterForTests(inspector)

	req := newUploadRequest(t, map[string]string{"email": "line-lead@example.com"}, []byte("jpeg-bytes"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var payload struct {
		Message string   `json:"message"`
		URL     *string  `json:"url"`
		Classes []string `json:"classes"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Message != "Detection complete" {
		t.Fatalf("unexpected message: %q", payload.Message)
	}
	if payload.URL == nil || *payload.URL != "https://cdn.example.com/result.jpg" {
		t.Fatalf("unexpected url: %v", payload.URL)
	}
	if len(payload.Classes) != 2 || payload.Classes[0] != "IC-defect" {
		t.Fatalf("unexpected classes: %v", payload.Classes)
	}

	if inspector.lastRecipient != "line-lead@example.com" {
		t.Fatalf("recipient = %q, want form value", inspector.lastRecipient)
	}
	if string(inspector.lastPayload) != "jpeg-bytes" {
		t.Fatalf("image payload was not forwarded intact")
	}
}

func TestUploadImageNullURLWhenBlobStoreDegraded(t *testing.T) {
	inspector := &inspectorFake{
		result: &domain.InspectionResult{
			RequestID: "20260830_120000",
			Classes:   []string{"LED-defect"},
		},
	}
	handler := newRouterForTests(inspector)

	req := newUploadRequest(t, nil, []byte("jpeg-bytes"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var payload map[string]any
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	url, present := payload["url"]
	if !present {
		t.Fatalf("url key must be present even when degraded")
	}
	if url != nil {
		t.Fatalf("url = %v, want null", url)
	}
}

func TestUploadImageDefaultsRecipient(t *testing.T) {
	inspector := &inspectorFake{
		result: &domain.InspectionResult{RequestID: "20260830_120000", Classes: []string{}},
	}
	handler := newRouterForTests(inspector)

	req := newUploadRequest(t, nil, []byte("jpeg-bytes"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if inspector.lastRecipient != "qa@example.com" {
		t.Fatalf("recipient = %q, want configured default", inspector.lastRecipient)
	}
}

func TestUploadImageMissingMultipartField(t *testing.T) {
	inspector := &inspectorFake{}
	handler := newRouterForTests(inspector)

	req := newUploadRequest(t, map[string]string{"email": "x@example.com"}, nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if inspector.calls != 0 {
		t.Fatalf("inspector must not run without an image")
	}
}

func TestUploadImageMethodNotAllowed(t *testing.T) {
	handler := newRouterForTests(&inspectorFake{})
	req := httptest.NewRequest(http.MethodGet, "/upload", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestUploadImageErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "undecodable image",
			err:        domain.WrapError(domain.ErrDecode, "read image", errors.New("not an image")),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid input",
			err:        domain.WrapError(domain.ErrInvalidInput, "spool upload", errors.New("empty body")),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "model failure",
			err:        domain.WrapError(domain.ErrInference, "model forward", errors.New("empty output")),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "temporary outage",
			err:        domain.WrapError(domain.ErrTemporary, "nats", errors.New("no servers")),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unclassified",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newRouterForTests(&inspectorFake{err: tc.err})
			req := newUploadRequest(t, nil, []byte("jpeg-bytes"))
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)

			if res.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", res.Code, tc.wantStatus)
			}
		})
	}
}
