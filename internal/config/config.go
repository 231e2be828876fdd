// Package config manages the persistent user settings stored in
// $XDG_CONFIG_HOME/go-audiobook/config.toml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/logging"
)

// Config keys, as accepted by "audiobook config set".
const (
	KeyOutputName         = "output-name"
	KeyBitrate            = "bitrate"
	KeyCodec              = "codec"
	KeyExtensions         = "extensions"
	KeyFallbackExtensions = "fallback-extensions"
	KeyLogLevel           = "log-level"
	KeyLogFormat          = "log-format"
)

// Environment variable fallbacks.
const (
	EnvOutputName = "AUDIOBOOK_OUTPUT_NAME"
	EnvBitrate    = "AUDIOBOOK_BITRATE"
	EnvCodec      = "AUDIOBOOK_CODEC"
	EnvLogLevel   = "AUDIOBOOK_LOG_LEVEL"
)

const (
	appDirName = "go-audiobook"
	fileName   = "config.toml"
)

var (
	// ErrUnknownKey indicates a key that is not a recognized setting.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidValue indicates a value rejected for its key.
	ErrInvalidValue = errors.New("invalid config value")
)

// Keys lists every recognized key in display order.
var Keys = []string{
	KeyOutputName,
	KeyBitrate,
	KeyCodec,
	KeyExtensions,
	KeyFallbackExtensions,
	KeyLogLevel,
	KeyLogFormat,
}

// Config holds user configuration. Empty fields mean "use the built-in default".
type Config struct {
	OutputName         string   `toml:"output_name,omitempty"`
	Bitrate            string   `toml:"bitrate,omitempty"`
	Codec              string   `toml:"codec,omitempty"`
	Extensions         []string `toml:"extensions,omitempty"`
	FallbackExtensions []string `toml:"fallback_extensions,omitempty"`
	LogLevel           string   `toml:"log_level,omitempty"`
	LogFormat          string   `toml:"log_format,omitempty"`
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-audiobook.
func dir(getenv func(string) string) (string, error) {
	if xdg := getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	return pathFrom(os.Getenv)
}

func pathFrom(getenv func(string) string) (string, error) {
	d, err := dir(getenv)
	if err != nil {
		return "", err
	}
	return filepath.Join(d, fileName), nil
}

// Load reads the configuration file and environment variables.
// Precedence: config file values, then environment variable fallbacks.
// Returns an empty Config if the file doesn't exist (not an error).
func Load() (Config, error) {
	return LoadEnv(os.Getenv)
}

// LoadEnv is Load with the environment read through getenv.
func LoadEnv(getenv func(string) string) (Config, error) {
	p, err := pathFrom(getenv)
	if err != nil {
		return Config{}, err
	}

	cfg, err := readFile(p)
	if err != nil {
		return Config{}, err
	}

	// Environment variable fallback (only if not set in config).
	fallback(&cfg.OutputName, getenv(EnvOutputName))
	fallback(&cfg.Bitrate, getenv(EnvBitrate))
	fallback(&cfg.Codec, getenv(EnvCodec))
	fallback(&cfg.LogLevel, getenv(EnvLogLevel))

	return cfg, nil
}

func fallback(field *string, value string) {
	if *field == "" {
		*field = strings.TrimSpace(value)
	}
}

// readFile decodes p. A missing file yields an empty Config.
func readFile(p string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(p) // #nosec G304 -- config path is constructed from the config dir
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", p, err)
	}
	return cfg, nil
}

// writeFile encodes cfg to p, creating the config directory if needed.
func writeFile(p string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	// #nosec G306 -- config file with standard permissions
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// Save validates and writes a single key to the config file, preserving the
// other keys. An empty value removes the key.
func Save(key, value string) error {
	p, err := Path()
	if err != nil {
		return err
	}

	cfg, err := readFile(p)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return writeFile(p, cfg)
}

// Get reads a single value from the config file, ignoring environment
// fallbacks. Returns empty string if the key is not set.
func Get(key string) (string, error) {
	p, err := Path()
	if err != nil {
		return "", err
	}
	cfg, err := readFile(p)
	if err != nil {
		return "", err
	}
	return cfg.Get(key)
}

// List returns all keys set in the config file.
func List() (map[string]string, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	cfg, err := readFile(p)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for _, key := range Keys {
		if v, _ := cfg.Get(key); v != "" {
			out[key] = v
		}
	}
	return out, nil
}

// Get returns the value of key in its "config set" form.
func (c Config) Get(key string) (string, error) {
	switch key {
	case KeyOutputName:
		return c.OutputName, nil
	case KeyBitrate:
		return c.Bitrate, nil
	case KeyCodec:
		return c.Codec, nil
	case KeyExtensions:
		return strings.Join(c.Extensions, ","), nil
	case KeyFallbackExtensions:
		return strings.Join(c.FallbackExtensions, ","), nil
	case KeyLogLevel:
		return c.LogLevel, nil
	case KeyLogFormat:
		return c.LogFormat, nil
	default:
		return "", fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
	}
}

// Set validates value and assigns it to key. An empty value clears the key.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)

	switch key {
	case KeyOutputName:
		if value != "" && !IsBareName(value) {
			return fmt.Errorf("%w: %s must be a file name without directories, got %q", ErrInvalidValue, key, value)
		}
		c.OutputName = value
	case KeyBitrate:
		if value != "" && !ffmpeg.ValidBitrate(value) {
			return fmt.Errorf("%w: %s %q (want e.g. 64k)", ErrInvalidValue, key, value)
		}
		c.Bitrate = value
	case KeyCodec:
		if value != "" && !ffmpeg.ValidCodec(value) {
			return fmt.Errorf("%w: %s %q", ErrInvalidValue, key, value)
		}
		c.Codec = value
	case KeyExtensions, KeyFallbackExtensions:
		exts, err := ParseExtensions(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
		}
		if key == KeyExtensions {
			c.Extensions = exts
		} else {
			c.FallbackExtensions = exts
		}
	case KeyLogLevel:
		if _, err := logging.ParseLevel(value); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		c.LogLevel = strings.ToLower(value)
	case KeyLogFormat:
		if !logging.ValidFormat(value) {
			return fmt.Errorf("%w: %s %q (want console or json)", ErrInvalidValue, key, value)
		}
		c.LogFormat = strings.ToLower(value)
	default:
		return fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
	}
	return nil
}

// ParseExtensions parses a comma-separated extension list such as
// "mp3,.M4A". Extensions are lower-cased and given a leading dot;
// duplicates are dropped. An empty string yields nil.
func ParseExtensions(s string) ([]string, error) {
	var exts []string
	for _, part := range strings.Split(s, ",") {
		ext := strings.ToLower(strings.TrimSpace(part))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if len(ext) == 1 || strings.ContainsAny(ext[1:], `./\ `) {
			return nil, fmt.Errorf("malformed extension %q", part)
		}
		if !slices.Contains(exts, ext) {
			exts = append(exts, ext)
		}
	}
	return exts, nil
}

// IsBareName reports whether name is a plain file name: not empty, not a
// relative reference, and free of path separators.
func IsBareName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}
