// Package webdav forwards browser WebDAV calls to a caller-chosen server and
// adds the CORS headers browsers need.
package webdav

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/edgegate/edgegate/pkg/models"
)

const (
	// Prefix is the route prefix stripped before forwarding.
	Prefix = "/webdav"

	HeaderURL  = "X-WebDAV-URL"
	HeaderAuth = "X-WebDAV-Auth"

	userAgent    = "WebDAV-Client/1.0"
	allowMethods = "GET, PUT, POST, DELETE, PROPFIND, MKCOL, OPTIONS"
	allowHeaders = "Content-Type, Authorization, Depth, X-WebDAV-URL, X-WebDAV-Auth"
)

// Proxy forwards WebDAV requests. Redirects are never followed because
// following a 301/302 would turn a PUT into a GET.
type Proxy struct {
	client *http.Client
}

// New creates a Proxy. The transport of base is reused, but its redirect
// policy is replaced. A nil base uses http.DefaultTransport.
func New(base *http.Client) *Proxy {
	c := &http.Client{}
	if base != nil {
		c.Transport = base.Transport
		c.Timeout = base.Timeout
	}
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Proxy{client: c}
}

// Target builds the upstream URL for the given inbound path.
func Target(base, path string) string {
	sub := strings.TrimPrefix(path, Prefix)
	if sub == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + sub
}

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", allowMethods)
	h.Set("Access-Control-Allow-Headers", allowHeaders)
}

// Preflight answers a CORS preflight without contacting any server.
func Preflight(w http.ResponseWriter, _ *http.Request) {
	setCORS(w.Header())
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusNoContent)
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		Preflight(w, r)
		return
	}
	setCORS(w.Header())

	base := r.Header.Get(HeaderURL)
	if base == "" {
		models.WriteError(w, http.StatusBadRequest, "Missing X-WebDAV-URL header")
		return
	}
	target := Target(base, r.URL.Path)

	var body []byte
	switch r.Method {
	case http.MethodGet, http.MethodHead:
	default:
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			models.WriteError(w, http.StatusBadGateway, "WebDAV proxy error: "+err.Error())
			return
		}
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, reader)
	if err != nil {
		models.WriteError(w, http.StatusBadGateway, "WebDAV proxy error: "+err.Error())
		return
	}
	req.Header.Set("User-Agent", userAgent)
	if auth := r.Header.Get(HeaderAuth); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if depth := r.Header.Get("Depth"); depth != "" {
		req.Header.Set("Depth", depth)
	}
	if len(body) > 0 {
		req.ContentLength = int64(len(body))
	}

	entry := log.WithFields(log.Fields{"method": r.Method, "target": target})
	entry.Debug("webdav forward")

	resp, err := p.client.Do(req)
	if err != nil {
		entry.WithError(err).Warn("webdav proxy error")
		models.WriteError(w, http.StatusBadGateway, "WebDAV proxy error: "+err.Error())
		return
	}
	defer resp.Body.Close()

	if isRedirect(resp.StatusCode) {
		location := resp.Header.Get("Location")
		entry.WithField("location", location).Info("webdav redirect refused")
		models.WriteError(w, http.StatusBadGateway, fmt.Sprintf(
			"WebDAV server responded with a redirect, check whether an HTTPS URL is required. Redirect target: %s", location))
		return
	}

	h := w.Header()
	for k, vs := range resp.Header {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	setCORS(h)
	h.Del("WWW-Authenticate")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		entry.WithError(err).Debug("webdav response copy interrupted")
	}
}
