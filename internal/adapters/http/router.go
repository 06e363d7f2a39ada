package httpadapter

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/documind-ai/documind/internal/core/domain"
	"github.com/documind-ai/documind/internal/core/ports"
	"github.com/documind-ai/documind/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	ingestor   ports.DocumentIngestor
	searcher   ports.DocumentSearcher
	chat       ports.DocumentChatService
	summary    ports.DocumentSummaryService
	reader     ports.DocumentReader
	metrics    *metrics.HTTPServerMetrics
	jwtSecret  []byte
	uploadGate *rate.Limiter
	searchGate *rate.Limiter

	maxUploadSize int64
	maxInFlight   int
	overloadWait  time.Duration
}

type RouterOptions struct {
	JWTSecret         []byte
	MaxUploadSize     int64
	UploadsPerMinute  int
	SearchesPerMinute int
	MaxInFlight       int
	OverloadWait      time.Duration
	Metrics           *metrics.HTTPServerMetrics
}

func NewRouter(
	ingestor ports.DocumentIngestor,
	searcher ports.DocumentSearcher,
	chat ports.DocumentChatService,
	summary ports.DocumentSummaryService,
	reader ports.DocumentReader,
	options RouterOptions,
) *Router {
	if options.MaxUploadSize <= 0 {
		options.MaxUploadSize = 10 << 20
	}
	if options.UploadsPerMinute <= 0 {
		options.UploadsPerMinute = 10
	}
	if options.SearchesPerMinute <= 0 {
		options.SearchesPerMinute = 60
	}
	if options.MaxInFlight <= 0 {
		options.MaxInFlight = 256
	}
	if options.OverloadWait <= 0 {
		options.OverloadWait = 100 * time.Millisecond
	}
	return &Router{
		ingestor:      ingestor,
		searcher:      searcher,
		chat:          chat,
		summary:       summary,
		reader:        reader,
		metrics:       options.Metrics,
		jwtSecret:     options.JWTSecret,
		uploadGate:    rate.NewLimiter(rate.Limit(float64(options.UploadsPerMinute)/60.0), options.UploadsPerMinute),
		searchGate:    rate.NewLimiter(rate.Limit(float64(options.SearchesPerMinute)/60.0), options.SearchesPerMinute),
		maxUploadSize: options.MaxUploadSize,
		maxInFlight:   options.MaxInFlight,
		overloadWait:  options.OverloadWait,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.authMiddleware(rt.documents))
	mux.HandleFunc("/v1/documents/", rt.authMiddleware(rt.documentByID))
	mux.HandleFunc("/v1/search", rt.authMiddleware(rt.limited(rt.searchGate, rt.search)))
	mux.HandleFunc("/v1/chat", rt.authMiddleware(rt.limited(rt.searchGate, rt.chatHandler)))
	mux.HandleFunc("/v1/summarize", rt.authMiddleware(rt.limited(rt.searchGate, rt.summarize)))

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = backpressureMiddleware(handler, rt.maxInFlight, rt.overloadWait)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) limited(limiter *rate.Limiter, next http.HandlerFunc) http.HandlerFunc {
	return rateLimitMiddleware(next, limiter).ServeHTTP
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.limited(rt.uploadGate, rt.uploadDocument)(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadSize+(1<<20))
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read uploaded file"})
		return
	}

	doc, err := rt.ingestor.Upload(
		r.Context(),
		user,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		data,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	docs, err := rt.reader.ListByOwner(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "total": len(docs)})
}

func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := rt.reader.GetByID(r.Context(), user, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := rt.reader.Delete(r.Context(), user, id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	user, ok := rt.requirePost(w, r)
	if !ok {
		return
	}

	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	resp, err := rt.searcher.Search(r.Context(), user, req)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(serviceName, "search", len(resp.Results), time.Since(start))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) chatHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := rt.requirePost(w, r)
	if !ok {
		return
	}

	var req struct {
		Query       string   `json:"query"`
		DocumentIDs []string `json:"document_ids,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	resp, err := rt.chat.Chat(r.Context(), user, req.Query, req.DocumentIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(serviceName, "chat", len(resp.Citations), time.Since(start))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) summarize(w http.ResponseWriter, r *http.Request) {
	user, ok := rt.requirePost(w, r)
	if !ok {
		return
	}

	var req domain.SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	resp, err := rt.summary.Summarize(r.Context(), user, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) requirePost(w http.ResponseWriter, r *http.Request) (domain.AuthenticatedUser, bool) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return domain.AuthenticatedUser{}, false
	}
	user, ok := userFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return domain.AuthenticatedUser{}, false
	}
	return user, true
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
