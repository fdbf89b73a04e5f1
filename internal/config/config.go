package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Settings holds everything the server needs, resolved once at startup.
// Components receive these as plain constructor values and never touch
// viper or the environment themselves.
type Settings struct {
	DocumentationURLs []string `mapstructure:"documentation_urls"`
	CacheTTL          int      `mapstructure:"cache_ttl"`      // seconds
	RenderTimeout     int      `mapstructure:"render_timeout"` // seconds
	UserAgent         string   `mapstructure:"user_agent"`
	Debug             bool     `mapstructure:"debug"`
	SkipRendererCheck bool     `mapstructure:"skip_renderer_check"`
	CacheDir          string   `mapstructure:"cache_dir"`
}

const defaultUserAgent = "docport/0.1.0 (+https://github.com/atessier/docport)"

// cacheBase returns the base cache directory for docport.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/docport as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "docport")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "docport")
	}
	return filepath.Join(os.TempDir(), "docport")
}

func initializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "docport"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "docport"))
	}

	// Defaults double as key registrations so AutomaticEnv values
	// survive the AllSettings round-trip below.
	viper.SetDefault("documentation_urls", "")
	viper.SetDefault("cache_ttl", 3600)
	viper.SetDefault("render_timeout", 30)
	viper.SetDefault("user_agent", defaultUserAgent)
	viper.SetDefault("debug", false)
	viper.SetDefault("skip_renderer_check", false)
	viper.SetDefault("cache_dir", cacheBase())

	viper.SetEnvPrefix("DOCPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// stringToSliceHookFunc splits a comma-separated string into a slice so
// DOCPORT_DOCUMENTATION_URLS can be set as a single env value.
func stringToSliceHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf([]string{}) || f.Kind() != reflect.String {
			return data, nil
		}
		raw := strings.TrimSpace(data.(string))
		if raw == "" {
			return []string{}, nil
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}
}

func Load() (*Settings, error) {
	if err := initializeViper(); err != nil {
		return nil, err
	}

	var settings Settings
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: stringToSliceHookFunc(),
		Result:     &settings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &settings, nil
}
