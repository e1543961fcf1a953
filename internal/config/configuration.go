package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"thirdcoast.systems/archiver/internal/platform"
)

var (
	// ErrConfigMissing means no config file existed. A default one has been
	// written in its place for the user to fill in.
	ErrConfigMissing = errors.New("config file missing")
	ErrInvalidConfig = errors.New("invalid config")
)

const (
	// PathEnv overrides the config file location.
	PathEnv = "ARCHIVER_CONFIG"

	// EnvPrefix is accepted in front of every key, e.g. ARCHIVER_TWITCH_SECRET.
	EnvPrefix = "ARCHIVER_"
)

type Config struct {
	// Credentials
	TwitchClientID string `mapstructure:"TWITCH_CLIENT_ID" validate:"required"`
	TwitchSecret   string `mapstructure:"TWITCH_SECRET" validate:"required"`
	YouTubeKey     string `mapstructure:"YOUTUBE_KEY" validate:"required"`

	// Output
	OutputDir     string `mapstructure:"OUTPUT_DIR" validate:"omitempty,dir"`
	BuiltinBrotli bool   `mapstructure:"BUILTIN_BROTLI"`

	Hooks Hooks `mapstructure:",squash"`
}

// Hooks are shell command templates run after a stage succeeds.
type Hooks struct {
	JSON        string `mapstructure:"HOOK_JSON"`
	Thumbnail   string `mapstructure:"HOOK_THUMBNAIL"`
	Chat        string `mapstructure:"HOOK_CHAT"`
	ProcessChat string `mapstructure:"HOOK_PROCESS_CHAT"`
	Video       string `mapstructure:"HOOK_VIDEO"`
}

// ByStage maps pipeline stage names to their hook template.
func (h Hooks) ByStage() map[string]string {
	return map[string]string{
		"json":         h.JSON,
		"thumbnail":    h.Thumbnail,
		"chat":         h.Chat,
		"process_chat": h.ProcessChat,
		"video":        h.Video,
	}
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	redact := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.TwitchSecret = redact(c.TwitchSecret)
	c.YouTubeKey = redact(c.YouTubeKey)
	return c
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(v *viper.Viper, c any) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Squashed structs contribute their fields at the top level.
		if field.Type.Kind() == reflect.Struct && (tag == "" || strings.HasPrefix(tag, ",")) {
			bindEnv(v, val.Field(i).Interface())
			continue
		}
		if tag != "" {
			_ = v.BindEnv(tag, EnvPrefix+tag, tag)
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TWITCH_CLIENT_ID", "")
	v.SetDefault("TWITCH_SECRET", "")
	v.SetDefault("YOUTUBE_KEY", "")
	v.SetDefault("OUTPUT_DIR", "")
	v.SetDefault("BUILTIN_BROTLI", false)
}

// Path returns the config file location: $ARCHIVER_CONFIG, or config.toml
// under the user's config directory.
func Path() (string, error) {
	if p := strings.TrimSpace(os.Getenv(PathEnv)); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "archiver", "config.toml"), nil
}

// LoadConfig reads the TOML file at path and overlays environment variables.
// A missing file is replaced by a default one and reported as
// ErrConfigMissing.
func LoadConfig(path string, log *slog.Logger) (*Config, error) {
	if log == nil {
		log = slog.Default()
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if werr := writeDefault(path); werr != nil {
			return nil, fmt.Errorf("%w: could not create %s: %v", ErrConfigMissing, path, werr)
		}
		return nil, fmt.Errorf("%w: created a default at %s, fill in your credentials", ErrConfigMissing, path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)
	bindEnv(v, Config{})
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: could not read %s: %v", ErrInvalidConfig, path, err)
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config: %v", ErrInvalidConfig, err)
	}

	log.Debug("loaded configuration", "path", path, "config", cfg.Redacted())
	return &cfg, nil
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	w := viper.New()
	w.SetConfigType("toml")
	setDefaults(w)
	for _, key := range []string{"HOOK_JSON", "HOOK_THUMBNAIL", "HOOK_CHAT", "HOOK_PROCESS_CHAT", "HOOK_VIDEO"} {
		w.SetDefault(key, "")
	}
	return w.SafeWriteConfigAs(path)
}

var validate = func() *validator.Validate {
	v := validator.New()
	// Report fields by their config key rather than the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" {
			return f.Name
		}
		return strings.ToLower(name)
	})
	return v
}()

// Validate checks the fields the given platform needs.
func (c *Config) Validate(k platform.Kind) error {
	fields := []string{"OutputDir"}
	if k.IsTwitch() {
		fields = append(fields, "TwitchClientID", "TwitchSecret")
	} else {
		fields = append(fields, "YouTubeKey")
	}

	err := validate.StructPartial(c, fields...)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				msgs = append(msgs, fe.Field()+" is required")
			case "dir":
				msgs = append(msgs, fe.Field()+" must be an existing directory")
			default:
				msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
			}
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
}
