// Package server exposes the analysis service over HTTP.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"phishguard/internal/features"
	"phishguard/internal/models"
	"phishguard/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"percent": func(f float64) string { return fmt.Sprintf("%.1f%%", f*100) },
}).ParseFS(templateFS, "templates/*.html"))

// Analyzer is satisfied by *analysis.Service.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*models.AnalysisResult, error)
}

// ModelStatus reports the load state of each model by name.
type ModelStatus interface {
	Status() map[string]string
}

type Server struct {
	analyzer Analyzer
	models   ModelStatus
	log      *logger.Logger
	timeout  time.Duration
	maxBody  int64
}

type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

func New(a Analyzer, m ModelStatus, log *logger.Logger, opts Options) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	return &Server{analyzer: a, models: m, log: log, timeout: opts.RequestTimeout, maxBody: opts.MaxBodyBytes}
}

// Handler returns the routed mux wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /api/features", s.featureCatalog)
	mux.HandleFunc("GET /api/analyze", s.apiAnalyze)
	mux.HandleFunc("POST /api/analyze", s.apiAnalyze)
	mux.HandleFunc("POST /analyze", s.formAnalyze)
	mux.HandleFunc("GET /{$}", s.index)
	return logRequest(s.log, mux)
}

type view struct {
	URL    string
	Error  string
	Result *models.AnalysisResult
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, view{})
}

func (s *Server) formAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, view{Error: "invalid form"})
		return
	}
	raw := r.PostFormValue("url")
	res, err := s.analyze(r, raw)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, features.ErrInvalidInput) {
			code = http.StatusBadRequest
		}
		s.render(w, code, view{URL: raw, Error: err.Error()})
		return
	}
	s.render(w, http.StatusOK, view{URL: raw, Result: res})
}

type analyzeReq struct {
	URL string `json:"url"`
}

type analyzeResp struct {
	Status string `json:"status"`
	*models.AnalysisResult
}

type errorResp struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// apiAnalyze accepts ?url= on GET, and a JSON body or form field on POST.
func (s *Server) apiAnalyze(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			var req analyzeReq
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, http.StatusBadRequest, errorResp{Status: "error", Error: "invalid payload"})
				return
			}
			raw = req.URL
		} else if err := r.ParseForm(); err == nil {
			raw = r.PostFormValue("url")
		}
	}

	res, err := s.analyze(r, raw)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, features.ErrInvalidInput) {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, errorResp{Status: "error", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, analyzeResp{Status: "success", AnalysisResult: res})
}

func (s *Server) analyze(r *http.Request, raw string) (*models.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	return s.analyzer.Analyze(ctx, raw)
}

type featureInfo struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

func (s *Server) featureCatalog(w http.ResponseWriter, r *http.Request) {
	cat := features.Catalog()
	out := make([]featureInfo, len(cat))
	for i, f := range cat {
		out[i] = featureInfo{Index: i, Name: f.Name, Source: string(f.Source)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "features": out})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{}
	if s.models != nil {
		status = s.models.Status()
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "models": status})
}

func (s *Server) render(w http.ResponseWriter, code int, v view) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := pages.ExecuteTemplate(w, "index.html", v); err != nil {
		s.log.Errorf("render: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequest(l *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		l.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.code, "duration", time.Since(start))
	})
}
