// Package web serves the browser UI: an upload view for the job description
// and résumé, and an analytics view for the score report.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/analyzer"
	"github.com/spigell/resume-analyzer/internal/rasterizer"
	"github.com/spigell/resume-analyzer/internal/report"
	"github.com/spigell/resume-analyzer/internal/session"
)

const (
	cookieName      = "resume_session"
	resumeFileName  = "resume.pdf"
	defaultListen   = ":8501"
	defaultUploads  = "uploads"
	defaultMaxMB    = 20
	defaultTTL      = 2 * time.Hour
	analyzingReload = 2
)

//go:embed templates/*.html
var templatesFS embed.FS

type Analyzer interface {
	Analyze(ctx context.Context, pdfPath, jobDescription string) (*analyzer.Analysis, error)
}

type Config struct {
	Listen      string        `mapstructure:"listen"`
	UploadDir   string        `mapstructure:"upload-dir"`
	MaxUploadMB int64         `mapstructure:"max-upload-mb"`
	SessionTTL  time.Duration `mapstructure:"session-ttl"`
}

type Server struct {
	cfg      Config
	analyzer Analyzer
	sessions *session.Manager
	logger   *zap.Logger
	tmpl     *template.Template
	inspect  func(path string) (int, error)
}

func New(cfg Config, a Analyzer, sessions *session.Manager, logger *zap.Logger) (*Server, error) {
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = defaultListen
	}
	if strings.TrimSpace(cfg.UploadDir) == "" {
		cfg.UploadDir = defaultUploads
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = defaultMaxMB
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultTTL
	}
	if sessions == nil {
		sessions = session.NewManager()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("web").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Server{
		cfg:      cfg,
		analyzer: a,
		sessions: sessions,
		logger:   logger,
		tmpl:     tmpl,
		inspect:  rasterizer.Inspect,
	}, nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/resume", s.handleResume)
	r.Post("/upload", s.handleUpload)
	r.Post("/remove", s.handleRemove)
	r.Post("/analyze", s.handleAnalyze)
	r.Post("/back", s.handleBack)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("http_request_id", middleware.GetReqID(r.Context())),
			zap.Duration("took", time.Since(started)),
		)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.expireSessions(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving web ui", zap.String("listen", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down web ui")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) expireSessions(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SessionTTL / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range s.sessions.Expire(s.cfg.SessionTTL) {
				if err := os.RemoveAll(s.sessionDir(id)); err != nil {
					s.logger.Warn("removing expired upload failed", zap.String("session", id), zap.Error(err))
				}
				s.logger.Debug("session expired", zap.String("session", id))
			}
		}
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	id := ""
	if c, err := r.Cookie(cookieName); err == nil {
		id = c.Value
	}

	sess := s.sessions.GetOrCreate(id)
	if sess.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (s *Server) sessionDir(id string) string {
	return filepath.Join(s.cfg.UploadDir, id)
}

type pageData struct {
	Session session.Snapshot
	View    *report.View
	Error   string
	Refresh int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.session(w, r).Snapshot()
	data := pageData{Session: snap, Error: snap.Error}

	name := "upload.html"
	switch snap.State {
	case session.Analyzing:
		name = "analyzing.html"
		data.Refresh = analyzingReload
	case session.ShowingResults:
		name = "analytics.html"
		if snap.Analysis != nil && snap.Analysis.Report != nil {
			view := report.NewView(snap.Analysis.Report)
			data.View = &view
		}
	}

	s.render(w, name, data)
}

func (s *Server) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("rendering template failed", zap.String("template", name), zap.Error(err))
	}
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	snap := s.session(w, r).Snapshot()
	if snap.ResumePath == "" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, snap.ResumePath)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	log := s.logger.With(zap.String("session", sess.ID))

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadMB<<20)

	file, header, err := r.FormFile("resume")
	if err != nil {
		sess.SetError("Upload your PDF resume.")
		s.redirectHome(w, r)
		return
	}
	defer file.Close()

	if jd := r.FormValue("job_description"); jd != "" {
		sess.SetJobDescription(jd)
	}

	dir := s.sessionDir(sess.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("creating upload directory failed", zap.Error(err))
		http.Error(w, "cannot store upload", http.StatusInternalServerError)
		return
	}

	tmp, err := saveUpload(dir, file)
	if err != nil {
		log.Error("saving upload failed", zap.Error(err))
		http.Error(w, "cannot store upload", http.StatusInternalServerError)
		return
	}
	// Only the temp file is ours until the session accepts it.
	defer os.Remove(tmp)

	pages, err := s.inspect(tmp)
	if err != nil {
		log.Info("rejected upload", zap.String("filename", header.Filename), zap.Error(err))
		sess.SetError(fmt.Sprintf("%s is not a readable PDF.", header.Filename))
		s.redirectHome(w, r)
		return
	}

	path := filepath.Join(dir, resumeFileName)
	err = sess.UploadFile(path, header.Filename, pages, func() error {
		return os.Rename(tmp, path)
	})
	switch {
	case errors.Is(err, session.ErrInvalidTransition):
		log.Info("upload refused", zap.Stringer("state", sess.State()))
		sess.SetError("Go back to the upload view before replacing the resume.")
		s.redirectHome(w, r)
		return
	case err != nil:
		log.Error("storing upload failed", zap.Error(err))
		http.Error(w, "cannot store upload", http.StatusInternalServerError)
		return
	}

	log.Info("resume uploaded", zap.String("filename", header.Filename), zap.Int("pages", pages))
	s.redirectHome(w, r)
}

// saveUpload copies src into a temp file inside dir and returns its path.
func saveUpload(dir string, src io.Reader) (string, error) {
	tmp, err := os.CreateTemp(dir, ".upload-*.pdf")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	path := sess.Snapshot().ResumePath

	if err := sess.RemoveResume(); err != nil {
		sess.SetError(err.Error())
	} else if path != "" {
		os.Remove(path)
	}

	s.redirectHome(w, r)
}

// handleAnalyze runs the whole pipeline inside the request, like a blocking
// button click; the browser waits for the redirect to the analytics view.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	jd := r.FormValue("job_description")
	sess.SetJobDescription(jd)

	if err := sess.BeginAnalysis(jd); err != nil {
		if errors.Is(err, analyzer.ErrEmptyJobDescription) {
			sess.SetError("Paste the job description before analyzing.")
		} else {
			sess.SetError("Upload a resume before analyzing.")
		}
		s.redirectHome(w, r)
		return
	}

	snap := sess.Snapshot()
	log := s.logger.With(zap.String("session", sess.ID))

	analysis, err := s.analyzer.Analyze(r.Context(), snap.ResumePath, jd)
	if err != nil {
		log.Warn("analysis failed", zap.Error(err))
		if ferr := sess.Fail(err); ferr != nil {
			log.Error("session transition failed", zap.Error(ferr))
		}
		s.redirectHome(w, r)
		return
	}

	if err := sess.Complete(analysis); err != nil {
		log.Error("session transition failed", zap.Error(err))
	}

	s.redirectHome(w, r)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := sess.Back(); err != nil {
		s.logger.Debug("ignoring back", zap.String("session", sess.ID), zap.Error(err))
	}
	s.redirectHome(w, r)
}
