package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/defexvision/inspection-service/internal/core/domain"
	"github.com/defexvision/inspection-service/internal/infrastructure/resilience"
)

// Client uploads rendered images through the Cloudinary REST upload API and
// returns the durable secure URL. Two uploads of the same bytes produce two
// URLs; no dedup is attempted.
type Client struct {
	baseURL    string
	cloudName  string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	executor   *resilience.Executor

	now func() time.Time
}

func New(baseURL, cloudName, apiKey, apiSecret string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		cloudName:  cloudName,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
		now:        time.Now,
	}
}

func (c *Client) Upload(ctx context.Context, imagePath string) (string, error) {
	var url string
	call := func(ctx context.Context) error {
		var err error
		url, err = c.upload(ctx, imagePath)
		return err
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "cloudinary.upload", call, classifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", domain.WrapError(domain.ErrUpload, "cloudinary upload", err)
	}
	return url, nil
}

func (c *Client) upload(ctx context.Context, imagePath string) (string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer file.Close()

	timestamp := strconv.FormatInt(c.now().Unix(), 10)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("api_key", c.apiKey); err != nil {
		return "", fmt.Errorf("write api_key field: %w", err)
	}
	if err := mw.WriteField("timestamp", timestamp); err != nil {
		return "", fmt.Errorf("write timestamp field: %w", err)
	}
	if err := mw.WriteField("signature", c.sign(timestamp)); err != nil {
		return "", fmt.Errorf("write signature field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy artifact bytes: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", newHTTPStatusError("upload", resp)
	}

	var uploadResp struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if uploadResp.SecureURL == "" {
		return "", fmt.Errorf("upload response missing secure_url")
	}
	return uploadResp.SecureURL, nil
}

// sign computes the Cloudinary API signature: SHA-1 over the sorted request
// parameters (here only timestamp) concatenated with the API secret.
func (c *Client) sign(timestamp string) string {
	sum := sha1.Sum([]byte("timestamp=" + timestamp + c.apiSecret))
	return hex.EncodeToString(sum[:])
}
