package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/unrestwatch/internal/database"
	"github.com/TobiSchelling/unrestwatch/internal/record"
	"github.com/TobiSchelling/unrestwatch/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Dashboard windows: a year of months and a month of days shown in
// two-day bins.
const (
	reportMonths = 12
	recentDays   = 31
	dayBin       = 2
)

// Server is the read-only HTTP surface over the series.
type Server struct {
	db     *database.DB
	pages  map[string]*template.Template
	router chi.Router
	logger *log.Logger
}

// New creates a new Server. A nil logger uses the default.
func New(db *database.DB, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"day":      func(t time.Time) string { return t.Format("Jan 02 2006") },
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so its "content" block does not
	// clash with the other pages.
	pageNames := []string{"index.html", "country.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, pages: pages, router: chi.NewRouter(), logger: logger}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/", s.handleIndex)
	r.Get("/country/{name}", s.handleCountry)

	r.Route("/api", func(r chi.Router) {
		r.Get("/countries", s.handleCountries)
		r.Get("/series/daily", s.handleDaily)
		r.Get("/series/monthly", s.handleMonthly)
		r.Get("/status", s.handleStatus)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "elapsed", time.Since(start))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	countries, err := s.db.GetCountries()
	if err != nil {
		s.internalError(w, err)
		return
	}
	stats, err := s.db.GetStats()
	if err != nil {
		s.internalError(w, err)
		return
	}
	run, err := s.db.GetLastRun()
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.render(w, "index.html", map[string]any{
		"Countries": countries,
		"Stats":     stats,
		"LastRun":   run,
	})
}

func (s *Server) handleCountry(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	monthly, err := s.db.GetMonthlySeries(name)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if len(monthly) == 0 {
		http.NotFound(w, r)
		return
	}
	daily, err := s.recentDaily(name, recentDays)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.render(w, "country.html", map[string]any{
		"Country": name,
		"Report":  report.Country(name, monthly, reportMonths),
		"Recent":  report.BinDaily(daily, dayBin),
	})
}

type dailyPoint struct {
	Country     string `json:"country"`
	Date        string `json:"date"`
	Protest     int    `json:"protest"`
	Suppression int    `json:"suppression"`
	Anticipated int    `json:"anticipated"`
}

type monthlyPoint struct {
	Country        string `json:"country"`
	Month          string `json:"month"`
	Protest        int    `json:"protest"`
	Suppression    int    `json:"suppression"`
	Anticipated    int    `json:"anticipated"`
	Preventiveness int    `json:"preventiveness"`
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := s.db.GetCountries()
	if err != nil {
		s.internalError(w, err)
		return
	}
	if countries == nil {
		countries = []string{}
	}
	writeJSON(w, http.StatusOK, countries)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	if country == "" {
		writeError(w, http.StatusBadRequest, errors.New("country is required"))
		return
	}
	days := recentDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("days must be a positive integer, got %q", v))
			return
		}
		days = n
	}

	points, err := s.recentDaily(country, days)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if len(points) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("no series for %q", country))
		return
	}
	out := make([]dailyPoint, len(points))
	for i, p := range points {
		out[i] = dailyPoint{
			Country: p.Country, Date: p.Date.Format("2006-01-02"),
			Protest: p.Protest, Suppression: p.Suppression, Anticipated: p.Anticipated,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	if country == "" {
		writeError(w, http.StatusBadRequest, errors.New("country is required"))
		return
	}
	points, err := s.db.GetMonthlySeries(country)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if len(points) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("no series for %q", country))
		return
	}
	rows := report.MonthlyRows(country, points, 0)
	out := make([]monthlyPoint, len(rows))
	for i, row := range rows {
		out[i] = monthlyPoint{
			Country: country, Month: row.Period.Format("2006-01"),
			Protest: row.Protest, Suppression: row.Suppression, Anticipated: row.Anticipated,
			Preventiveness: row.Preventiveness,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetStats()
	if err != nil {
		s.internalError(w, err)
		return
	}
	run, err := s.db.GetLastRun()
	if err != nil {
		s.internalError(w, err)
		return
	}
	resp := map[string]any{
		"records":        stats.Records,
		"countries":      stats.Countries,
		"daily_points":   stats.DailyPoints,
		"monthly_points": stats.MonthlyPoints,
	}
	if run != nil {
		resp["last_run"] = map[string]any{
			"id":          run.ID,
			"finished_at": run.FinishedAt.Format(time.RFC3339),
			"status":      run.Status,
			"libraries":   run.Libraries,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// recentDaily returns the last days of country's daily series, ending at
// the latest day in the store.
func (s *Server) recentDaily(country string, days int) ([]record.DailyPoint, error) {
	last, err := s.db.LastDay()
	if err != nil || last.IsZero() {
		return nil, err
	}
	return s.db.GetDailySeries(country, last.AddDate(0, 0, 1-days), last)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.logger.Error("template not found", "name", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		s.logger.Error("rendering template", "name", name, "err", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "err", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve listens on 127.0.0.1:port until ctx is cancelled.
func Serve(ctx context.Context, db *database.DB, port int, logger *log.Logger) error {
	srv, err := New(db, logger)
	if err != nil {
		return err
	}

	hs := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	srv.logger.Info("server listening", "url", "http://"+hs.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}
