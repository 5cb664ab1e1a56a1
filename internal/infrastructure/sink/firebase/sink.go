package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/defexvision/inspection-service/internal/core/domain"
	"github.com/defexvision/inspection-service/internal/infrastructure/resilience"
)

// Sink appends DetectionRecords to a Firebase Realtime Database collection
// through its REST surface. Firebase assigns the push key; the pipeline never
// reads it back.
type Sink struct {
	baseURL    string
	secret     string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, secret, collection string, executor *resilience.Executor) *Sink {
	return &Sink{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     secret,
		collection: collection,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		executor:   executor,
	}
}

func (s *Sink) Name() string { return "firebase" }

func (s *Sink) Persist(ctx context.Context, record domain.DetectionRecord) error {
	call := func(ctx context.Context) error {
		return s.push(ctx, record)
	}

	var err error
	if s.executor != nil {
		err = s.executor.Execute(ctx, "firebase.push", call, classifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.WrapError(domain.ErrSink, "firebase push", err)
	}
	return nil
}

func (s *Sink) push(ctx context.Context, record domain.DetectionRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	url := fmt.Sprintf("%s/%s.json", s.baseURL, s.collection)
	if s.secret != "" {
		url += "?auth=" + s.secret
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("firebase push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newHTTPStatusError("push", resp)
	}

	var pushResp struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pushResp); err != nil {
		return fmt.Errorf("decode push response: %w", err)
	}
	if pushResp.Name == "" {
		return fmt.Errorf("push response missing key")
	}
	return nil
}
