package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Loader hydrates the proxy configuration with env > file > default
// precedence.
type Loader struct {
	envPrefix string
	files     []string
}

// NewLoader prepares a loader. files that are empty strings are
// skipped; missing files are an error.
func NewLoader(envPrefix string, files ...string) *Loader {
	return &Loader{envPrefix: envPrefix, files: files}
}

// Load assembles the effective configuration snapshot.
func (l *Loader) Load() (Config, error) {
	defaultCfg := DefaultConfig()
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(structToMap(defaultCfg), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	for _, path := range l.files {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config: file %s not found", path)
			}
			return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if l.envPrefix != "" {
		transform := func(s string) string {
			// Double underscores signal a nested path
			// (GALLERY_REDIS__ADDRESS -> redis.address).
			key := strings.TrimPrefix(s, l.envPrefix+"_")
			key = strings.ReplaceAll(key, "__", ".")
			// Single underscores collapse so UPSTREAM__BASE_URL maps
			// onto upstream.baseurl.
			key = strings.ReplaceAll(key, "_", "")
			return strings.ToLower(key)
		}
		if err := k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
			return Config{}, fmt.Errorf("config: load env: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// structToMap converts DefaultConfig into a map for the koanf confmap
// provider.
func structToMap(cfg Config) map[string]any {
	return map[string]any{
		"listen": map[string]any{
			"address": cfg.Listen.Address,
			"port":    cfg.Listen.Port,
		},
		"redis": map[string]any{
			"address":  cfg.Redis.Address,
			"password": cfg.Redis.Password,
			"db":       cfg.Redis.DB,
		},
		"upstream": map[string]any{
			"baseurl":        cfg.Upstream.BaseURL,
			"apitoken":       cfg.Upstream.APIToken,
			"propertyid":     cfg.Upstream.PropertyID,
			"timeoutseconds": cfg.Upstream.TimeoutSeconds,
		},
		"logging": map[string]any{
			"level":  cfg.Logging.Level,
			"pretty": cfg.Logging.Pretty,
		},
		"cache": map[string]any{
			"volatileenabled": cfg.Cache.VolatileEnabled,
		},
	}
}
