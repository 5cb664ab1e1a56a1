package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/defexvision/inspection-service/internal/core/ports"
	"github.com/defexvision/inspection-service/internal/observability/metrics"
)

type Router struct {
	inspector        ports.ImageInspector
	defaultRecipient string
	maxUploadBytes   int64
	serverMetrics    *metrics.HTTPServerMetrics
}

func NewRouter(
	inspector ports.ImageInspector,
	defaultRecipient string,
	maxUploadBytes int64,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		inspector:        inspector,
		defaultRecipient: defaultRecipient,
		maxUploadBytes:   maxUploadBytes,
		serverMetrics:    serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", rt.welcome)
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/upload", rt.uploadImage)
	if rt.serverMetrics != nil {
		mux.Handle("/metrics", rt.serverMetrics.Handler())
	}

	var handler http.Handler = mux
	handler = metricsMiddleware(rt.serverMetrics, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) welcome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to DefexVision Backend API"})
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type uploadResponse struct {
	Message string   `json:"message"`
	URL     *string  `json:"url"`
	Classes []string `json:"classes"`
}

func (rt *Router) uploadImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)

	file, _, err := r.FormFile("image")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "image exceeds the upload size limit"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'image' is required"})
		return
	}
	defer file.Close()

	recipient := r.FormValue("email")
	if recipient == "" {
		recipient = rt.defaultRecipient
	}

	result, err := rt.inspector.Inspect(r.Context(), file, recipient)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		slog.Error("inspection_failed",
			"request_id", requestIDFromContext(r.Context()),
			"status", status,
			"error", err,
		)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	response := uploadResponse{
		Message: "Detection complete",
		Classes: result.Classes,
	}
	if result.ImageURL != "" {
		response.URL = &result.ImageURL
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
