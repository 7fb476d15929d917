package assets

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/edgegate/edgegate/pkg/models"
)

func TestRenderIndex(t *testing.T) {
	var buf bytes.Buffer
	err := RenderIndex(&buf, PageData{
		Title:         "Gemini <Lab>",
		Models:        []models.Model{{ID: "gemini-2.5-pro", Label: "Pro"}, {ID: "gemini-2.5-flash"}},
		SearchEnabled: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "<title>Gemini &lt;Lab&gt;</title>") {
		t.Error("title must be HTML-escaped")
	}
	if !strings.Contains(out, `<option value="gemini-2.5-pro">Pro</option>`) {
		t.Error("labelled model option missing")
	}
	if !strings.Contains(out, `<option value="gemini-2.5-flash">gemini-2.5-flash</option>`) {
		t.Error("unlabelled model option missing")
	}
	if !strings.Contains(out, `class="model-search-label"`) {
		t.Error("search toggle must be visible when search is enabled")
	}
}

func TestRenderIndexHidesSearch(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderIndex(&buf, PageData{Title: "Chat"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), `class="model-search-label"`) {
		t.Error("search toggle must be hidden without search keys")
	}
}

func TestFavicon(t *testing.T) {
	for _, ct := range []string{"openai", "gemini", "claude", "qwen", "deepseek", "router", "bot"} {
		if !bytes.HasPrefix(Favicon(ct), []byte("<svg")) {
			t.Errorf("missing icon for %s", ct)
		}
	}
	if !bytes.Equal(Favicon("unknown"), Favicon("bot")) {
		t.Error("unknown chat type must fall back to the bot icon")
	}
}

func TestManifest(t *testing.T) {
	b, err := Manifest(`Team "Chat"`)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if m["name"] != `Team "Chat"` || m["start_url"] != "./index.html" {
		t.Errorf("unexpected manifest %v", m)
	}
}
