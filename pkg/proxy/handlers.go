package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/edgegate/edgegate/pkg/assets"
	"github.com/edgegate/edgegate/pkg/auth"
	"github.com/edgegate/edgegate/pkg/keys"
	"github.com/edgegate/edgegate/pkg/models"
)

const (
	pageCacheControl  = "public, max-age=14400"
	assetCacheControl = "public, max-age=43200"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("write json response")
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := assets.RenderIndex(&buf, assets.PageData{
		Title:         s.cfg.Title,
		Models:        s.cfg.Models(),
		SearchEnabled: len(s.cfg.TavilyKeys) > 0,
	})
	if err != nil {
		log.WithError(err).Error("render index")
		models.WriteError(w, http.StatusInternalServerError, "Failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html;charset=UTF-8")
	w.Header().Set("Cache-Control", pageCacheControl)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", assetCacheControl)
	_, _ = w.Write(assets.Favicon(s.cfg.ChatType()))
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	b, err := assets.Manifest(s.cfg.Title)
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, "Failed to render manifest")
		return
	}
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.Header().Set("Cache-Control", assetCacheControl)
	_, _ = w.Write(b)
}

type serverInfo struct {
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Instance  string `json:"instance"`
}

type whoami struct {
	ServerType string            `json:"serverType"`
	ServerInfo serverInfo        `json:"serverInfo"`
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers"`
	Method     string            `json:"method"`
}

// handleWhoami echoes the request back for debugging.
func (s *Server) handleWhoami(w http.ResponseWriter, r *http.Request) {
	headers := make(map[string]string, len(r.Header))
	for k, vals := range r.Header {
		headers[strings.ToLower(k)] = strings.Join(vals, ", ")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	writeJSON(w, http.StatusOK, whoami{
		ServerType: "GO",
		ServerInfo: serverInfo{
			GoVersion: runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			Instance:  s.instanceID,
		},
		URL:     scheme + "://" + r.Host + r.URL.RequestURI(),
		Headers: headers,
		Method:  r.Method,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	credential := auth.CredentialFromRequest(r)

	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		models.WriteError(w, http.StatusBadRequest, "Missing query parameter")
		return
	}

	if _, ok := s.resolve(w, r, credential, AuxiliaryCharge); !ok {
		return
	}

	results, err := s.search.Run(r.Context(), req.Query)
	if err != nil {
		log.WithError(err).Error("search failed")
		msg := "Search failed"
		if errors.Is(err, keys.ErrEmptyPool) {
			msg = "Search API key list is empty"
		}
		models.WriteError(w, http.StatusInternalServerError, msg)
		return
	}
	s.metrics.SearchResults(len(results))
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	credential := auth.CredentialFromRequest(r)

	var req models.SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" || req.Answer == "" {
		models.WriteError(w, http.StatusBadRequest, "Missing question or answer parameter")
		return
	}

	if _, ok := s.resolve(w, r, credential, AuxiliaryCharge); !ok {
		return
	}
	if err := s.gate.RequirePassword(credential); err != nil {
		s.writeGateError(w, r, err)
		return
	}

	title, err := s.summarizer.Summarize(r.Context(), req.Question, req.Answer)
	if err != nil {
		log.WithError(err).Warn("summarize failed")
		models.WriteError(w, http.StatusInternalServerError, "Failed to generate summary")
		return
	}
	writeJSON(w, http.StatusOK, models.SummarizeResponse{Success: true, Summary: title})
}
