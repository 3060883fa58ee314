// Package chi exposes the blog API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/blogdex/internal/domain"
	"github.com/kailas-cloud/blogdex/internal/domain/search/request"
	"github.com/kailas-cloud/blogdex/internal/logger"
	"github.com/kailas-cloud/blogdex/internal/metrics"
	healthuc "github.com/kailas-cloud/blogdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/blogdex/internal/usecase/search"
)

const maxBodyBytes = 4 << 20

// errorRule maps a sentinel error to an HTTP response. An empty message
// falls back to the sentinel text.
type errorRule struct {
	sentinel error
	status   int
	code     string
	message  string
	level    zapcore.Level
}

// Order matters: quota and timeout errors also match ErrEmbeddingProviderError.
var errorRules = []errorRule{
	{domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed, "", zapcore.DebugLevel},
	{domain.ErrQueryTooLong, http.StatusBadRequest, codeValidationFailed, "", zapcore.DebugLevel},
	{domain.ErrInvalidPagination, http.StatusBadRequest, codeValidationFailed, "", zapcore.DebugLevel},
	{domain.ErrInvalidPost, http.StatusBadRequest, codeValidationFailed, "", zapcore.DebugLevel},
	{domain.ErrReservedSlug, http.StatusBadRequest, codeReservedSlug, "", zapcore.DebugLevel},
	{domain.ErrOutOfRange, http.StatusBadRequest, codeOutOfRange, "Out of range", zapcore.DebugLevel},
	{domain.ErrEmpty, http.StatusNotFound, codeEmpty, "Empty", zapcore.DebugLevel},
	{domain.ErrPostNotFound, http.StatusNotFound, codeNotFound, "Not found", zapcore.DebugLevel},
	{domain.ErrNotFound, http.StatusNotFound, codeNotFound, "Not found", zapcore.DebugLevel},
	{domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists, "", zapcore.InfoLevel},
	{domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited, "", zapcore.InfoLevel},
	{domain.ErrEmbeddingQuotaExceeded, http.StatusServiceUnavailable, codeQuotaExceeded, "", zapcore.ErrorLevel},
	{domain.ErrEmbeddingTimeout, http.StatusGatewayTimeout, codeProviderTimeout, "", zapcore.ErrorLevel},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError, "", zapcore.ErrorLevel},
}

// Server implements the blog HTTP API.
type Server struct {
	search      SearchService
	posts       PostService
	health      HealthService
	defaultSize int
	logger      *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search SearchService, posts PostService, health HealthService, logger *zap.Logger) *Server {
	return &Server{
		search:      search,
		posts:       posts,
		health:      health,
		defaultSize: request.DefaultPageSize,
		logger:      logger,
	}
}

// WithDefaultPageSize sets the page size used when the size parameter is absent.
func (s *Server) WithDefaultPageSize(n int) *Server {
	if n > 0 {
		s.defaultSize = n
	}
	return s
}

// Router builds the chi router with the middleware stack. Admin routes
// require one of apiKeys as a Bearer token.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/post", func(r chi.Router) {
		r.Get("/", s.ListIDs)
		r.Get("/posts", s.ListPosts)
		r.Get("/search", s.SearchPosts)
		r.Get("/sitemap", s.Sitemap)
		r.Get("/{id:[0-9]+}", s.GetPost)
	})

	r.Route("/api/admin/posts", func(r chi.Router) {
		r.Use(AdminAuth(apiKeys))
		r.Post("/", s.CreatePost)
		r.Put("/{id:[0-9]+}", s.UpdatePost)
	})

	return r
}

// SearchPosts handles GET /api/post/search.
func (s *Server) SearchPosts(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "query parameter q is required")
		return
	}
	page, size, ok := s.bindPagination(w, r)
	if !ok {
		return
	}

	identity := ClientIdentity(r)
	ctx := logger.With(r.Context(), zap.String("client", identity))
	res, err := s.search.Search(ctx, searchuc.Params{
		Query:    q,
		Page:     page,
		Size:     size,
		Identity: identity,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchPageToJSON(res))
}

// ListPosts handles GET /api/post/posts.
func (s *Server) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, size, ok := s.bindPagination(w, r)
	if !ok {
		return
	}

	res, err := s.posts.List(r.Context(), page, size)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	cards := make([]cardJSON, 0, len(res.Posts))
	for _, p := range res.Posts {
		cards = append(cards, cardToJSON(p))
	}
	writeJSON(w, http.StatusOK, cardsResponse{
		Posts:      cards,
		Pagination: pagination{Total: res.Total, Page: res.Page, Size: res.Size},
	})
}

// ListIDs handles GET /api/post/.
func (s *Server) ListIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.posts.IDs(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, idsResponse{IDs: ids})
}

// GetPost handles GET /api/post/{id}.
func (s *Server) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.posts.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postToJSON(p))
}

// Sitemap handles GET /api/post/sitemap.
func (s *Server) Sitemap(w http.ResponseWriter, r *http.Request) {
	entries, err := s.posts.Sitemap(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	out := make([]sitemapJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, sitemapJSON{ID: e.ID, Slug: e.Slug, UpdatedAt: e.UpdatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

// CreatePost handles POST /api/admin/posts.
func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}
	p, err := s.posts.Create(r.Context(), req.toInput())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, postToJSON(p))
}

// UpdatePost handles PUT /api/admin/posts/{id}.
func (s *Server) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}
	p, err := s.posts.Update(r.Context(), id, req.toInput())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postToJSON(p))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// bindPagination reads page and size, defaulting to page 1 and the default
// size. Range checks belong to the services.
func (s *Server) bindPagination(w http.ResponseWriter, r *http.Request) (page, size int, ok bool) {
	page, size = request.DefaultPage, s.defaultSize
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", query, &page); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "page must be an integer")
		return 0, 0, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "size", query, &size); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "size must be an integer")
		return 0, 0, false
	}
	return page, size, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, codeNotFound, "Not found")
		return 0, false
	}
	return id, true
}

func decodePostRequest(w http.ResponseWriter, r *http.Request) (postRequest, bool) {
	var req postRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return postRequest{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// handleDomainError maps err through errorRules. Unknown errors become a 500
// without exposing internals.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, rule := range errorRules {
		if !errors.Is(err, rule.sentinel) {
			continue
		}
		msg := rule.message
		if msg == "" {
			msg = rule.sentinel.Error()
		}
		log.Log(rule.level, "Request failed", zap.String("code", rule.code), zap.Error(err))
		writeError(w, rule.status, rule.code, msg)
		return
	}
	s.logger.Error("Internal error", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
