package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/edgegate/edgegate/pkg/keys"
	"github.com/edgegate/edgegate/pkg/router"
)

func TestCompleteRotatesKeysAndSendsPrompt(t *testing.T) {
	var auths []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auths = append(auths, r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "gpt-5-mini", gjson.GetBytes(body, "model").String())
		assert.Equal(t, "hello", gjson.GetBytes(body, "messages.0.content").String())
		assert.Equal(t, int64(300), gjson.GetBytes(body, "max_completion_tokens").Int())
		assert.False(t, gjson.GetBytes(body, "max_tokens").Exists())
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" Title "},"finish_reason":"stop"}]}`)
	}))
	defer upstream.Close()

	c := New(router.New(upstream.URL), keys.NewRotator([]string{"sk-1", "sk-2"}), upstream.Client())
	for i := 0; i < 2; i++ {
		out, err := c.Complete(context.Background(), Request{Model: "gpt-5-mini", Prompt: "hello", MaxTokens: 300})
		require.NoError(t, err)
		assert.Equal(t, " Title ", out)
	}
	assert.Equal(t, []string{"Bearer sk-1", "Bearer sk-2"}, auths)
}

func TestCompleteMaxTokensForOtherModels(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/openai/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, int64(300), gjson.GetBytes(body, "max_tokens").Int())
		assert.False(t, gjson.GetBytes(body, "max_completion_tokens").Exists())
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer upstream.Close()

	// Route through the Gemini host rewrite while dialing the test server.
	client := upstream.Client()
	client.Transport = rewriteHost{target: upstream.URL, base: client.Transport}
	c := New(router.New("https://generativelanguage.googleapis.com"), keys.NewRotator([]string{"g-1"}), client)

	out, err := c.Complete(context.Background(), Request{Model: "gemini-2.5-flash", Prompt: "x", MaxTokens: 300})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

type rewriteHost struct {
	target string
	base   http.RoundTripper
}

func (r rewriteHost) RoundTrip(req *http.Request) (*http.Response, error) {
	u, err := url.Parse(r.target)
	if err != nil {
		return nil, err
	}
	req = req.Clone(req.Context())
	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host
	req.Host = u.Host
	return r.base.RoundTrip(req)
}

func TestCompleteUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"message":"model not found","type":"invalid_request_error"}}`)
	}))
	defer upstream.Close()

	c := New(router.New(upstream.URL), keys.NewRotator([]string{"sk-1"}), nil)
	_, err := c.Complete(context.Background(), Request{Model: "nope", Prompt: "x"})
	assert.Error(t, err)
}

func TestCompleteEmptyPool(t *testing.T) {
	c := New(router.New("http://127.0.0.1:1"), keys.NewRotator(nil), nil)
	_, err := c.Complete(context.Background(), Request{Model: "m", Prompt: "x"})
	assert.ErrorIs(t, err, keys.ErrEmptyPool)
}

func TestCompleteNoChoices(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","choices":[]}`)
	}))
	defer upstream.Close()

	c := New(router.New(upstream.URL), keys.NewRotator([]string{"sk-1"}), nil)
	out, err := c.Complete(context.Background(), Request{Model: "m", Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}
