// Package router maps gateway requests onto upstream URLs and picks the
// model used for the gateway's own auxiliary calls.
package router

import (
	"strings"
)

// geminiHosts serve the OpenAI-compatible API under /v1beta/openai.
var geminiHosts = []string{
	"generativelanguage.googleapis.com",
	"gateway.ai.cloudflare.com",
}

var geminiRewrites = strings.NewReplacer(
	"/v1/chat/completions", "/v1beta/openai/chat/completions",
	"/v1/models", "/v1beta/openai/models",
)

// RewriteURL translates OpenAI-style paths into the dialect of providers that
// mount the compatible API elsewhere. URLs for other hosts are returned
// unchanged.
func RewriteURL(rawURL string) string {
	if !isGeminiCompatible(rawURL) {
		return rawURL
	}
	return geminiRewrites.Replace(rawURL)
}

func isGeminiCompatible(rawURL string) bool {
	for _, h := range geminiHosts {
		if strings.Contains(rawURL, h) {
			return true
		}
	}
	return false
}

// Router resolves gateway paths against the configured upstream base URL.
type Router struct {
	base string
}

// New creates a Router for apiBase (e.g. https://api.openai.com).
func New(apiBase string) *Router {
	return &Router{base: strings.TrimSuffix(apiBase, "/")}
}

// Base returns the upstream base URL without trailing slash.
func (r *Router) Base() string {
	return r.base
}

// Target returns the full upstream URL for an inbound path and raw query.
// The query separator is always present so an empty query yields a trailing
// "?", matching what callers of the relay have historically received.
func (r *Router) Target(path, rawQuery string) string {
	return RewriteURL(r.base+path) + "?" + rawQuery
}

// ChatBaseURL returns the base URL an OpenAI client should use so that
// "<base>/chat/completions" lands on the provider's chat endpoint.
func (r *Router) ChatBaseURL() string {
	full := RewriteURL(r.base + "/v1/chat/completions")
	return strings.TrimSuffix(full, "/chat/completions")
}
