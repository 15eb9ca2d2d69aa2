// Package config loads, validates and writes the finder configuration.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath      = "config.json"
	DefaultTargetURL = "https://lmarena.ai/?chat-modality=image"
	DefaultTimeoutMS = 60000
	DefaultDebugDir  = "debug"

	defaultUserPrompt    = "Ignore images. Create a form using aardio. Add a richedit control to the form. Add a button made with a plus control to the form, adjust the button's style to make it beautiful. When the button is clicked, input 3 newlines in the richedit. Send the code block directly without any explanation."
	defaultSearchPattern = `\.skin%\(\).*<@'\n\n\n'@>`
)

// ErrInvalid is returned (wrapped) for configurations that fail validation.
var ErrInvalid = errors.New("invalid configuration")

// Config defines the finder configuration. Values are taken from the
// built-in defaults, then the config file (if present), then environment
// variables.
type Config struct {
	UserPrompt     string  `json:"user_prompt" yaml:"user_prompt" env:"FINDER_USER_PROMPT"`
	SearchPattern  string  `json:"search_pattern" yaml:"search_pattern" env:"FINDER_SEARCH_PATTERN"`
	Proxy          string  `json:"proxy" yaml:"proxy" env:"FINDER_PROXY"`
	// TimeoutMS is a float so that values like 60000.0 are accepted.
	TimeoutMS      float64 `json:"timeout" yaml:"timeout" env:"FINDER_TIMEOUT"`
	RetryOnNoMatch bool    `json:"retry_on_no_match" yaml:"retry_on_no_match" env:"FINDER_RETRY_ON_NO_MATCH"`
	TargetURL      string  `json:"target_url" yaml:"target_url" env:"FINDER_TARGET_URL"`
	DebugDir       string  `json:"debug_dir" yaml:"debug_dir" env:"FINDER_DEBUG_DIR"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		UserPrompt:     defaultUserPrompt,
		SearchPattern:  defaultSearchPattern,
		TimeoutMS:      DefaultTimeoutMS,
		RetryOnNoMatch: true,
		TargetURL:      DefaultTargetURL,
		DebugDir:       DefaultDebugDir,
	}
}

// Load reads the configuration at path. Keys missing from the file keep
// their default value and a missing file is not an error.
func Load(path string) (*Config, error) {
	config := Default()

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err := cleanenv.ReadConfig(path, &config); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		slog.Debug(fmt.Sprintf("read config file %s", path))
	case errors.Is(err, os.ErrNotExist):
		slog.Info(fmt.Sprintf("config file %s not found, using defaults", path))
		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, fmt.Errorf("error reading config from environment: %w", err)
		}
	default:
		return nil, err
	}

	config.Proxy = normalizeProxy(config.Proxy)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the fields that cannot be verified by decoding alone.
// The search pattern is compiled separately by the match package.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.UserPrompt) == "" {
		return fmt.Errorf("%w: user_prompt must not be empty", ErrInvalid)
	}
	if c.SearchPattern == "" {
		return fmt.Errorf("%w: search_pattern must not be empty", ErrInvalid)
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %g", ErrInvalid, c.TimeoutMS)
	}
	if c.TargetURL == "" {
		return fmt.Errorf("%w: target_url must not be empty", ErrInvalid)
	}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil {
			return fmt.Errorf("%w: proxy: %v", ErrInvalid, err)
		}
		switch u.Scheme {
		case "http", "https", "socks4", "socks5":
		default:
			return fmt.Errorf("%w: unsupported proxy scheme '%s'", ErrInvalid, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("%w: proxy %s has no host", ErrInvalid, c.Proxy)
		}
		// chrome ignores credentials in --proxy-server
		if u.User != nil {
			return fmt.Errorf("%w: proxy credentials are not supported", ErrInvalid)
		}
	}
	return nil
}

// Timeout is the default per-operation wait.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS * float64(time.Millisecond))
}

// normalizeProxy lowercases the scheme so that eg. SOCKS5://host:1080
// is understood by chrome. A bare host:port is an http proxy.
func normalizeProxy(proxy string) string {
	proxy = strings.TrimSpace(proxy)
	if proxy == "" {
		return proxy
	}
	scheme, rest, ok := strings.Cut(proxy, "://")
	if !ok {
		return "http://" + proxy
	}
	return strings.ToLower(scheme) + "://" + rest
}

// Marshal encodes c in the format implied by the extension of path:
// yaml for .yml/.yaml, json otherwise.
func (c *Config) Marshal(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return yaml.Marshal(c)
	default:
		// The default pattern contains characters like < and > that
		// should stay readable in the file.
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(c); err != nil {
			return nil, err
		}
		return buffer.Bytes(), nil
	}
}

// WriteDefault writes the built-in configuration to path.
func WriteDefault(path string) error {
	c := Default()
	data, err := c.Marshal(path)
	if err != nil {
		return fmt.Errorf("error while marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
