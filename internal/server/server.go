// Package server exposes the generated feed files over HTTP for serve
// mode. Static files only; builds happen out of band.
package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/heritagemedia/feedgen/internal/audio"
	"github.com/heritagemedia/feedgen/internal/config"
	"github.com/heritagemedia/feedgen/internal/enhance"
	"github.com/heritagemedia/feedgen/internal/log"
	"github.com/heritagemedia/feedgen/internal/pipeline"
)

// feedFiles is the allowlist of served outputs with their content types.
// Everything else in the output directory (config.json in particular)
// stays private.
var feedFiles = map[string]string{
	enhance.BaseFeedName:      "application/json",
	enhance.EnhancedFeedName:  "application/json",
	enhance.PublisherFeedName: "application/json",
	enhance.InfoName:          "application/json",
	pipeline.SummaryName:      "application/json",
	pipeline.RSSName:          "application/rss+xml; charset=utf-8",
	audio.MP3Name:             "audio/mpeg",
	audio.InfoName:            "application/json",
}

type Server struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// New builds the HTTP server for the configured listen address.
func New(cfg *config.Config) *http.Server {
	s := &Server{cfg: cfg, logger: log.WithComponent("server")}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	for name, contentType := range feedFiles {
		mux.Handle("/"+name, s.fileHandler(name, contentType))
	}
	return &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) fileHandler(name, contentType string) http.Handler {
	path := filepath.Join(s.cfg.OutputDir, name)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		f, err := os.Open(path)
		if err != nil {
			s.logger.Debug().Str("file", name).Msg("requested output not generated yet")
			http.NotFound(w, r)
			return
		}
		defer f.Close()
		fi, err := f.Stat()
		if err != nil {
			http.Error(w, "stat failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		http.ServeContent(w, r, name, fi.ModTime(), f)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	// surface when the enhanced feed has never been generated
	if _, err := os.Stat(filepath.Join(s.cfg.OutputDir, enhance.EnhancedFeedName)); err != nil {
		status["enhancedFeed"] = "missing"
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
