// Package assets renders the browser client and its static companions.
package assets

import (
	"embed"
	"encoding/json"
	"html/template"
	"io"

	"github.com/edgegate/edgegate/pkg/models"
)

//go:embed templates/index.html.tmpl icons/*.svg
var files embed.FS

var indexTmpl = template.Must(template.ParseFS(files, "templates/index.html.tmpl"))

// PageData feeds the index page.
type PageData struct {
	Title         string
	Models        []models.Model
	SearchEnabled bool
}

// RenderIndex writes the chat page.
func RenderIndex(w io.Writer, data PageData) error {
	if data.Models == nil {
		data.Models = []models.Model{}
	}
	return indexTmpl.Execute(w, data)
}

// Favicon returns the icon for a chat type, falling back to the generic bot
// icon.
func Favicon(chatType string) []byte {
	b, err := files.ReadFile("icons/" + chatType + ".svg")
	if err != nil {
		b, _ = files.ReadFile("icons/bot.svg")
	}
	return b
}

type manifestIcon struct {
	Src     string `json:"src"`
	Sizes   string `json:"sizes"`
	Type    string `json:"type"`
	Purpose string `json:"purpose"`
}

type manifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description"`
	StartURL        string         `json:"start_url"`
	Display         string         `json:"display"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Icons           []manifestIcon `json:"icons"`
	Categories      []string       `json:"categories"`
	Lang            string         `json:"lang"`
	Dir             string         `json:"dir"`
}

// Manifest returns the web app manifest for title.
func Manifest(title string) ([]byte, error) {
	return json.MarshalIndent(manifest{
		Name:            title,
		ShortName:       title,
		Description:     title + " - chat assistant",
		StartURL:        "./index.html",
		Display:         "standalone",
		BackgroundColor: "#ffffff",
		ThemeColor:      "#605bec",
		Icons: []manifestIcon{{
			Src:     "favicon.svg",
			Sizes:   "any",
			Type:    "image/svg+xml",
			Purpose: "any maskable",
		}},
		Categories: []string{"productivity", "utilities"},
		Lang:       "en",
		Dir:        "ltr",
	}, "", "  ")
}
