package config

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/edgegate/edgegate/pkg/models"
)

// Config holds all gateway configuration.
type Config struct {
	Listen              string    `yaml:"listen"`
	SecretPassword      string    `yaml:"secret_password"`
	DemoPassword        string    `yaml:"demo_password"`
	APIKeys             []string  `yaml:"api_keys"`
	ModelIDs            string    `yaml:"model_ids"`
	APIBase             string    `yaml:"api_base"`
	DemoMaxTimesPerHour int       `yaml:"demo_max_times_per_hour"`
	TavilyKeys          []string  `yaml:"tavily_keys"`
	TavilyURL           string    `yaml:"tavily_url"`
	Title               string    `yaml:"title"`
	KV                  KVConfig  `yaml:"kv"`
	Log                 LogConfig `yaml:"log"`
}

// KVConfig selects the backing store for cross-request state.
// Backend is one of "none", "memory", "sqlite" or "postgres".
type KVConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	DSN     string `yaml:"dsn"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	DefaultModelIDs    = "gpt-5-pro,gpt-5,gpt-5-mini"
	DefaultAPIBase     = "https://api.openai.com"
	DefaultDemoMax     = 15
	DefaultTitle       = "OpenAI Chat"
	DefaultTavilyURL   = "https://api.tavily.com/search"
	DefaultListen      = ":8080"
	DefaultKVPath      = "edgegate.db"
	defaultSecretStem  = "edgegate."
	secretSuffixRandom = 1_000_000_000
)

// Default returns a Config with sensible defaults. The shared secret is
// randomized per process so an unconfigured deployment cannot be unlocked.
func Default() *Config {
	return &Config{
		Listen:              DefaultListen,
		SecretPassword:      randomSecret(),
		ModelIDs:            DefaultModelIDs,
		APIBase:             DefaultAPIBase,
		DemoMaxTimesPerHour: DefaultDemoMax,
		TavilyURL:           DefaultTavilyURL,
		Title:               DefaultTitle,
		KV: KVConfig{
			Backend: "memory",
			Path:    DefaultKVPath,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file, expands environment variables in it and
// then applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg.normalize(), nil
}

// FromEnv builds a Config from defaults and environment variables only.
func FromEnv() *Config {
	cfg := Default()
	cfg.ApplyEnv(os.LookupEnv)
	return cfg.normalize()
}

// ApplyEnv overrides fields from environment-style variables. Empty values
// are ignored so that "read-with-default" semantics hold.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	if v, ok := get("LISTEN"); ok {
		c.Listen = v
	}
	if v, ok := get("SECRET_PASSWORD"); ok {
		c.SecretPassword = v
	}
	if v, ok := get("DEMO_PASSWORD"); ok {
		c.DemoPassword = v
	}
	if v, ok := get("API_KEYS"); ok {
		c.APIKeys = SplitList(v)
	}
	if v, ok := get("MODEL_IDS"); ok {
		c.ModelIDs = v
	}
	if v, ok := get("API_BASE"); ok {
		c.APIBase = v
	}
	if v, ok := get("DEMO_MAX_TIMES_PER_HOUR"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.DemoMaxTimesPerHour = n
		}
	}
	if v, ok := get("TAVILY_KEYS"); ok {
		c.TavilyKeys = SplitList(v)
	}
	if v, ok := get("TAVILY_URL"); ok {
		c.TavilyURL = v
	}
	if v, ok := get("TITLE"); ok {
		c.Title = v
	}
	if v, ok := get("KV_BACKEND"); ok {
		c.KV.Backend = strings.ToLower(v)
	}
	if v, ok := get("KV_PATH"); ok {
		c.KV.Path = v
	}
	if v, ok := get("KV_DSN"); ok {
		c.KV.DSN = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
}

func (c *Config) normalize() *Config {
	c.APIBase = strings.TrimSuffix(strings.TrimSpace(c.APIBase), "/")
	if c.APIBase == "" {
		c.APIBase = DefaultAPIBase
	}
	if c.DemoMaxTimesPerHour <= 0 {
		c.DemoMaxTimesPerHour = DefaultDemoMax
	}
	c.APIKeys = cleanList(c.APIKeys)
	c.TavilyKeys = cleanList(c.TavilyKeys)
	if strings.TrimSpace(c.ModelIDs) == "" {
		c.ModelIDs = DefaultModelIDs
	}
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.TavilyURL == "" {
		c.TavilyURL = DefaultTavilyURL
	}
	return c
}

// Models parses ModelIDs into identifiers with optional labels.
func (c *Config) Models() []models.Model {
	return ParseModels(c.ModelIDs)
}

// ModelIDList returns only the model identifiers, in configured order.
func (c *Config) ModelIDList() []string {
	ms := c.Models()
	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.ID)
	}
	return ids
}

// SplitList splits a comma-separated value, trimming entries and dropping
// empty ones.
func SplitList(raw string) []string {
	return cleanList(strings.Split(raw, ","))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseModels parses "id" and "id=label" entries.
func ParseModels(raw string) []models.Model {
	var out []models.Model
	for _, entry := range SplitList(raw) {
		id, label, _ := strings.Cut(entry, "=")
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out = append(out, models.Model{ID: id, Label: strings.TrimSpace(label)})
	}
	return out
}

var chatTypes = []struct {
	name string
	re   *regexp.Regexp
}{
	{"openai", regexp.MustCompile(`(?i)openai`)},
	{"gemini", regexp.MustCompile(`(?i)gemini`)},
	{"claude", regexp.MustCompile(`(?i)claude`)},
	{"qwen", regexp.MustCompile(`(?i)qwen`)},
	{"deepseek", regexp.MustCompile(`(?i)deepseek`)},
	{"router", regexp.MustCompile(`(?i)router`)},
}

// ChatType derives the icon/theme family from the display title.
func (c *Config) ChatType() string {
	for _, ct := range chatTypes {
		if ct.re.MatchString(c.Title) {
			return ct.name
		}
	}
	return "bot"
}

func randomSecret() string {
	n, err := rand.Int(rand.Reader, big.NewInt(secretSuffixRandom))
	if err != nil {
		return defaultSecretStem + strconv.Itoa(os.Getpid())
	}
	return defaultSecretStem + n.String()
}
