package proxy

import (
	"errors"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/edgegate/edgegate/pkg/auth"
	"github.com/edgegate/edgegate/pkg/models"
)

// forwardHeaders are the only inbound headers copied to the upstream.
var forwardHeaders = []string{"Content-Type", "Accept", "Accept-Encoding", "User-Agent"}

// hopHeaders are connection-scoped and never copied back to the caller.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Connection",
	"Transfer-Encoding",
	"Upgrade",
}

// handleRelay forwards /v1/* to the upstream with the resolved key and streams
// the response back without buffering.
func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/v1") {
		models.WriteError(w, http.StatusBadRequest, r.URL.Path+" Invalid API path. Must start with /v1")
		return
	}

	credential := auth.CredentialFromRequest(r)
	grant, ok := s.resolve(w, r, credential, RelayCharge)
	if !ok {
		return
	}

	query := r.URL.RawQuery
	if grant.Kind != auth.GrantPassThrough {
		query = auth.RewriteQueryKey(query, credential, grant.Key)
	}
	target := s.router.Target(r.URL.Path, query)

	var body io.Reader
	if r.Body != nil && r.Body != http.NoBody {
		body = r.Body
	}
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		log.WithError(err).Error("build relay request")
		models.WriteError(w, http.StatusBadGateway, "Proxy request failed")
		return
	}
	req.ContentLength = r.ContentLength
	for _, h := range forwardHeaders {
		if v := r.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}
	req.Header.Set("Authorization", "Bearer "+grant.Key)

	resp, err := s.client.Do(req)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"path":  r.URL.Path,
			"grant": grant.Kind.String(),
		}).Warn("relay upstream failed")
		s.metrics.UpstreamError("relay")
		models.WriteError(w, http.StatusBadGateway, "Proxy request failed")
		return
	}
	defer resp.Body.Close()

	h := w.Header()
	for k, vals := range resp.Header {
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	for _, k := range hopHeaders {
		h.Del(k)
	}
	w.WriteHeader(resp.StatusCode)

	if err := streamResponse(w, resp.Body); err != nil {
		log.WithError(err).WithField("path", r.URL.Path).Debug("relay stream ended early")
	}
}

// streamResponse copies body to w, flushing after every read so server-sent
// events reach the caller as soon as the upstream emits them.
func streamResponse(w http.ResponseWriter, body io.Reader) error {
	rc := http.NewResponseController(w)
	buf := make([]byte, 32*1024)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if ferr := rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
