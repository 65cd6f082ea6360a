package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmarchuk/legalintel/internal/core/domain"
	"github.com/dmarchuk/legalintel/internal/core/ports"
	"github.com/dmarchuk/legalintel/internal/core/usecase"
	"github.com/dmarchuk/legalintel/internal/observability/metrics"
	"github.com/dmarchuk/legalintel/internal/realtime"
)

const userIDHeader = "X-User-Id"

type Options struct {
	MaxUploadBytes int64
	RateLimitRPS   int
	RateLimitBurst int
	MaxConcurrent  int
}

type Router struct {
	ingestUC *usecase.IngestDocumentUseCase
	queryUC  *usecase.QueryUseCase
	statsUC  ports.StatsProvider
	exportUC ports.Exporter
	repo     ports.DocumentRepository
	hub      *realtime.Hub
	metrics  *metrics.HTTPServerMetrics
	options  Options
}

func NewRouter(
	ingestUC *usecase.IngestDocumentUseCase,
	queryUC *usecase.QueryUseCase,
	statsUC ports.StatsProvider,
	exportUC ports.Exporter,
	repo ports.DocumentRepository,
	hub *realtime.Hub,
	httpMetrics *metrics.HTTPServerMetrics,
	options Options,
) *Router {
	return &Router{
		ingestUC: ingestUC,
		queryUC:  queryUC,
		statsUC:  statsUC,
		exportUC: exportUC,
		repo:     repo,
		hub:      hub,
		metrics:  httpMetrics,
		options:  options,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/api/v1/documents/upload", rt.uploadDocuments)
	mux.HandleFunc("/api/v1/documents", rt.listDocuments)
	mux.HandleFunc("/api/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/api/v1/query", rt.executeQuery)
	mux.HandleFunc("/api/v1/query/suggestions", rt.querySuggestions)
	mux.HandleFunc("/api/v1/dashboard/stats", rt.dashboardStats)
	mux.HandleFunc("/api/v1/export/query", rt.exportQuery)
	mux.HandleFunc("/api/v1/ws/", rt.serveWebsocket)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.options.MaxConcurrent, 50*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	handler = rt.metrics.Middleware("api", handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func userIDFromRequest(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (rt *Router) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid " + userIDHeader + " header"})
		return
	}

	if rt.options.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.options.MaxUploadBytes*8)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart request"})
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	batch := domain.BatchUpload{Total: len(files)}
	for _, header := range files {
		result := domain.UploadResult{Filename: header.Filename}

		file, err := header.Open()
		if err != nil {
			result.Status = "failed"
			result.Message = "unreadable file part"
			batch.Failed++
			batch.Documents = append(batch.Documents, result)
			continue
		}

		doc, err := rt.ingestUC.Upload(r.Context(), userID, header.Filename, header.Size, file)
		_ = file.Close()
		if err != nil {
			result.Status = "failed"
			result.Message = err.Error()
			batch.Failed++
		} else {
			result.DocumentID = doc.ID
			result.Status = "queued"
			result.Message = "document accepted for processing"
			batch.Successful++
		}
		batch.Documents = append(batch.Documents, result)
	}

	status := http.StatusAccepted
	if batch.Successful == 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, batch)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid " + userIDHeader + " header"})
		return
	}

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	docs, err := rt.repo.List(r.Context(), userID, skip, limit)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     len(docs),
	})
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid " + userIDHeader + " header"})
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/documents/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id must be a positive integer"})
		return
	}

	doc, err := rt.repo.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if doc.UserID != userID {
		// Do not leak existence of another tenant's documents.
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type queryRequest struct {
	Question   string              `json:"question"`
	MaxResults int                 `json:"max_results"`
	Page       int                 `json:"page"`
	Filters    domain.QueryFilters `json:"filters"`
	SortBy     string              `json:"sort_by"`
	SortOrder  string              `json:"sort_order"`
}

func (q queryRequest) params() domain.QueryParams {
	return domain.QueryParams{
		Question:   q.Question,
		MaxResults: q.MaxResults,
		Page:       q.Page,
		Filters:    q.Filters,
		SortBy:     q.SortBy,
		SortOrder:  q.SortOrder,
	}
}

func (rt *Router) executeQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid " + userIDHeader + " header"})
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	started := time.Now()
	resp, err := rt.queryUC.Execute(r.Context(), userID, req.params())
	rt.metrics.RecordQuery("api", time.Since(started), err)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) querySuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if _, ok := userIDFromRequest(r); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid " + userIDHeader + " header"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	suggestions, err := rt.queryUC.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (rt *Router) dashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid " + userIDHeader + " header"})
		return
	}

	stats, err := rt.statsUC.DashboardStats(r.Context(), userID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) exportQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid " + userIDHeader + " header"})
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	format := r.URL.Query().Get("format")

	filename, content, err := rt.exportUC.ExportQuery(r.Context(), userID, req.params(), format)
	rt.metrics.RecordExport("api", format, err)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	contentType := "text/csv"
	if strings.HasSuffix(filename, ".xlsx") {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (rt *Router) writeError(w http.ResponseWriter, _ *http.Request, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
