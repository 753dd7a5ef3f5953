package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL          = "http://127.0.0.1:7444"
	DefaultLogLevel        = "debug"
	DefaultCatalogDirName  = ".gallery"
	DefaultCatalogFileName = "catalog.bson"
	ConfigFileName         = ".gallery.toml"

	DefaultImageMaxDimension = 1024
	DefaultImageJPEGQuality  = 80

	DefaultImageMaxUploadBytes int64 = 32 * 1024 * 1024
	DefaultImageMaxPixels      int64 = 50_000_000

	configDirEnvKey          = "GALLERY_CONFIG_DIR"
	trustProjectConfigEnvKey = "GALLERY_TRUST_PROJECT_CONFIG"
	apiURLEnvKey             = "GALLERY_API_URL"
	catalogEnvKey            = "GALLERY_CATALOG"
)

// ImageConfig controls how uploads are resized and encoded.
type ImageConfig struct {
	MaxDimension   int   `toml:"max_dimension"`
	JPEGQuality    int   `toml:"jpeg_quality"`
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
	MaxPixels      int64 `toml:"max_pixels"`
}

// Config defines runtime configuration for gallery.
type Config struct {
	APIURL                   string      `toml:"api_url"`
	CatalogPath              string      `toml:"catalog_path"`
	LogLevel                 string      `toml:"log_level"`
	Images                   ImageConfig `toml:"images"`
	TrustedProjectConfigPath string      `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:      DefaultAPIURL,
		CatalogPath: "",
		LogLevel:    DefaultLogLevel,
		Images: ImageConfig{
			MaxDimension:   DefaultImageMaxDimension,
			JPEGQuality:    DefaultImageJPEGQuality,
			MaxUploadBytes: DefaultImageMaxUploadBytes,
			MaxPixels:      DefaultImageMaxPixels,
		},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, ConfigFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"api_url",
	"catalog_path",
	"log_level",
	"images.max_dimension",
	"images.jpeg_quality",
	"images.max_upload_bytes",
	"images.max_pixels",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "catalog_path":
		return c.CatalogPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "images.max_dimension":
		return strconv.Itoa(c.Images.MaxDimension), nil
	case "images.jpeg_quality":
		return strconv.Itoa(c.Images.JPEGQuality), nil
	case "images.max_upload_bytes":
		return strconv.FormatInt(c.Images.MaxUploadBytes, 10), nil
	case "images.max_pixels":
		return strconv.FormatInt(c.Images.MaxPixels, 10), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, ConfigFileName), nil
}

// DefaultCatalogPath returns ~/.gallery/catalog.bson, falling back to the
// working directory when no home directory is available.
func DefaultCatalogPath() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, DefaultCatalogDirName, DefaultCatalogFileName)
	}
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, DefaultCatalogDirName, DefaultCatalogFileName)
	}
	return filepath.Join(DefaultCatalogDirName, DefaultCatalogFileName)
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, ConfigFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, ConfigFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if apiURL := os.Getenv(apiURLEnvKey); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if catalogPath := os.Getenv(catalogEnvKey); catalogPath != "" {
		cfg.CatalogPath = catalogPath
	}
	if strings.TrimSpace(cfg.CatalogPath) == "" {
		cfg.CatalogPath = DefaultCatalogPath()
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	cfg.normalizeImageDefaults()

	return &cfg, nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "images.max_dimension":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "images.jpeg_quality":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 || parsed > 100 {
			return nil, fmt.Errorf("%s must be between 1 and 100", key)
		}
		return parsed, nil
	case "images.max_upload_bytes", "images.max_pixels":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func (c *Config) normalizeImageDefaults() {
	if c.Images.MaxDimension <= 0 {
		c.Images.MaxDimension = DefaultImageMaxDimension
	}
	if c.Images.JPEGQuality < 1 || c.Images.JPEGQuality > 100 {
		c.Images.JPEGQuality = DefaultImageJPEGQuality
	}
	if c.Images.MaxUploadBytes <= 0 {
		c.Images.MaxUploadBytes = DefaultImageMaxUploadBytes
	}
	if c.Images.MaxPixels <= 0 {
		c.Images.MaxPixels = DefaultImageMaxPixels
	}
}
