package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"chirp/internal/logging"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
// It captures the account, OAuth application keys, the stored access
// credential, API endpoints and presentation preferences.
type Config struct {
	Account     AccountConfig     `yaml:"account"`
	Credentials CredentialsConfig `yaml:"credentials"`
	API         APIConfig         `yaml:"api"`
	Timeline    TimelineConfig    `yaml:"timeline"`
	Network     NetworkConfig     `yaml:"network"`
	Shorten     ShortenConfig     `yaml:"shorten"`
	Display     DisplayConfig     `yaml:"display"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`

	path string
	// stored is the file-sourced config, before env and flag overrides
	stored *Config
	// adopted is a username learned from authorization
	adopted string
}

type AccountConfig struct {
	Username string `yaml:"username"`
}

type CredentialsConfig struct {
	// OAuth application keys. If empty, read CHIRP_CONSUMER_KEY / CHIRP_CONSUMER_SECRET
	ConsumerKey    string `yaml:"consumerKey"`
	ConsumerSecret string `yaml:"consumerSecret"`
	// Obfuscated "key:secret" access token, written after authorization
	OAuthAccess string `yaml:"oauth_access,omitempty"`
}

type APIConfig struct {
	RestBase       string `yaml:"restBase"`
	SearchBase     string `yaml:"searchBase"`
	OAuthBase      string `yaml:"oauthBase"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	// request pacing; CHIRP_API_RPS / CHIRP_API_BURST override
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type TimelineConfig struct {
	Count int `yaml:"count"`
	Page  int `yaml:"page"`
}

type NetworkConfig struct {
	// host[:port] or URL. If empty, read http_proxy / HTTP_PROXY
	Proxy string `yaml:"proxy"`
}

type ShortenConfig struct {
	Enabled      bool              `yaml:"enabled"`
	ServiceURL   string            `yaml:"serviceURL"`
	Method       string            `yaml:"method"` // "get" or "post"
	URLParam     string            `yaml:"urlParam"`
	ExtraParams  map[string]string `yaml:"extraParams"`
	ResponsePath string            `yaml:"responsePath"` // dot path into the JSON reply
}

type DisplayConfig struct {
	Colors bool `yaml:"colors"`
}

type StorageConfig struct {
	// sqlite journal of sent updates; empty disables it
	DBPath string `yaml:"dbPath"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// DefaultPath is ~/.chirp.yaml, or ./.chirp.yaml without a home directory.
func DefaultPath() string {
	return homeFile(".chirp.yaml")
}

func homeFile(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, name)
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			RestBase:       "https://api.twitter.com/1.1",
			SearchBase:     "https://search.twitter.com",
			OAuthBase:      "https://api.twitter.com",
			TimeoutSeconds: 30,
			RPS:            2,
			Burst:          10,
		},
		Timeline: TimelineConfig{Count: 20, Page: 1},
		Shorten: ShortenConfig{
			Enabled:      false,
			ServiceURL:   "https://is.gd/create.php",
			Method:       "get",
			URLParam:     "url",
			ExtraParams:  map[string]string{"format": "json"},
			ResponsePath: "shorturl",
		},
		Display: DisplayConfig{Colors: true},
		Storage: StorageConfig{DBPath: homeFile(".chirp.db")},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Credentials.ConsumerKey == "" {
		c.Credentials.ConsumerKey = os.Getenv("CHIRP_CONSUMER_KEY")
	}
	if c.Credentials.ConsumerSecret == "" {
		c.Credentials.ConsumerSecret = os.Getenv("CHIRP_CONSUMER_SECRET")
	}
	if c.Account.Username == "" {
		c.Account.Username = os.Getenv("CHIRP_USERNAME")
	}
	if c.Network.Proxy == "" {
		c.Network.Proxy = os.Getenv("http_proxy")
	}
	if c.Network.Proxy == "" {
		c.Network.Proxy = os.Getenv("HTTP_PROXY")
	}
	if v := os.Getenv("CHIRP_API_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.API.RPS = f
		}
	}
	if v := os.Getenv("CHIRP_API_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.API.Burst = n
		}
	}
}

// Path is the file the config was loaded from and is persisted to.
func (c *Config) Path() string { return c.path }

func (c *Config) SetPath(path string) { c.path = path }

// AdoptUsername records the account name reported by authorization when
// none is configured. An adopted name is persisted.
func (c *Config) AdoptUsername(name string) {
	if name == "" || c.Account.Username != "" {
		return
	}
	c.Account.Username = name
	c.adopted = name
}

// Persist writes the file-sourced settings back to Path with the current
// access token and any adopted username. Environment values and flag
// overrides are not written.
func (c *Config) Persist() error {
	out := Default()
	if c.stored != nil {
		out = *c.stored
	}
	out.Credentials.OAuthAccess = c.Credentials.OAuthAccess
	if c.adopted != "" {
		out.Account.Username = c.adopted
	}
	if err := Save(c.path, out); err != nil {
		return err
	}
	c.stored = &out
	return nil
}

// Load reads YAML config from path over the defaults. A missing file yields
// the defaults. Variables from a .env file in the working directory are
// applied before environment resolution.
func Load(path string) (Config, error) {
	cfg := Default()
	cfg.path = path
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logging.Debug("config_missing", map[string]any{"path": path})
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	}
	stored := cfg
	cfg.stored = &stored
	loadDotEnv()
	cfg.ResolveEnv()
	return cfg, nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn("dotenv_error", map[string]any{"error": err.Error()})
	}
}

// Save writes YAML config to path with owner-only permissions, creating
// directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing file
	return os.Chmod(path, 0o600)
}
