package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	AI          AIConfig          `mapstructure:"ai"`
	Images      ImagesConfig      `mapstructure:"images"`
	Deck        DeckConfig        `mapstructure:"deck"`
	Application ApplicationConfig `mapstructure:"application"`
}

type ApplicationConfig struct {
	Name      string        `mapstructure:"name"`
	Version   string        `mapstructure:"version"`
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	OutputDir string        `mapstructure:"output_dir"`
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	Storage   StorageConfig `mapstructure:"storage"`
}

// StorageConfig holds the directories used by the inbox watcher.
type StorageConfig struct {
	Inbox string `mapstructure:"inbox"`
	Done  string `mapstructure:"done"`
}

type AIConfig struct {
	ActiveProvider string                      `mapstructure:"active_provider"`
	Providers      map[string]ProviderSettings `mapstructure:"providers"`
}

type ProviderSettings struct {
	Driver      string  `mapstructure:"driver"` // openai, gemini, mock
	Key         string  `mapstructure:"key"`
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// Active returns the settings of the active provider. The driver defaults to the provider name.
func (c *AIConfig) Active() (string, ProviderSettings) {
	settings := c.Providers[c.ActiveProvider]
	if settings.Driver == "" {
		settings.Driver = c.ActiveProvider
	}
	return c.ActiveProvider, settings
}

type ImagesConfig struct {
	Key     string `mapstructure:"key"`
	BaseURL string `mapstructure:"base_url"`
	PerPage int    `mapstructure:"per_page"`
}

// DeckConfig holds the tunable limits of the presentation builder.
type DeckConfig struct {
	MaxBullets          int  `mapstructure:"max_bullets"`
	MaxWordsPerBullet   int  `mapstructure:"max_words_per_bullet"`
	MaxTitleChars       int  `mapstructure:"max_title_chars"`
	MaxImagesPerSlide   int  `mapstructure:"max_images_per_slide"`
	HistoryWindow       int  `mapstructure:"history_window"`
	IncludeTitleInQuery bool `mapstructure:"include_title_in_query"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Options  string `mapstructure:"options"`
}

// Enabled reports whether enough settings are present to open a connection.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

func (c *DatabaseConfig) GetConnectStr() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	port := c.Port
	if port == "" {
		port = "5432"
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, port, c.DBName, sslmode)

	if c.Options != "" {
		// Basic URL encoding for the options value: space -> %20
		encodedOptions := strings.ReplaceAll(c.Options, " ", "%20")
		connStr += fmt.Sprintf("&options=%s", encodedOptions)
	}

	return connStr
}

// LoadConfig reads config.yaml from the working directory.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("config.yaml")
}

// LoadConfigFrom reads an optional YAML file, the .env file and the process environment.
func LoadConfigFrom(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("Note: .env file not found, using system environment variables")
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()

	// Environment variable mappings
	mappings := []struct {
		key, env string
	}{
		{"database.url", "DB_URL"},
		{"database.host", "PG_HOST"},
		{"database.port", "PG_PORT"},
		{"database.user", "PG_USER"},
		{"database.password", "PG_PASSWORD"},
		{"database.dbname", "PG_DB"},
		{"database.sslmode", "PG_SSLMODE"},
		{"database.options", "PG_OPTIONS"},
		{"application.host", "HOST"},
		{"application.port", "PORT"},
		{"application.output_dir", "OUTPUT_DIR"},
		{"application.log_level", "LOG_LEVEL"},
		{"application.log_format", "LOG_FORMAT"},
		{"ai.active_provider", "AI_PROVIDER"},

		// Storage
		{"application.storage.inbox", "STORAGE_INBOX"},
		{"application.storage.done", "STORAGE_DONE"},

		// AI Providers
		{"ai.providers.openai.key", "OPENAI_API_KEY"},
		{"ai.providers.openai.model", "OPENAI_MODEL"},
		{"ai.providers.openai.endpoint", "OPENAI_BASE_URL"},
		{"ai.providers.gemini.key", "GEMINI_KEY"},
		{"ai.providers.gemini.model", "GEMINI_MODEL"},

		// Image search
		{"images.key", "UNSPLASH_API_KEY"},
		{"images.base_url", "UNSPLASH_BASE_URL"},

		// Deck limits
		{"deck.max_bullets", "DECK_MAX_BULLETS"},
		{"deck.max_words_per_bullet", "DECK_MAX_WORDS_PER_BULLET"},
		{"deck.max_images_per_slide", "DECK_MAX_IMAGES_PER_SLIDE"},
	}

	for _, m := range mappings {
		if err := v.BindEnv(m.key, m.env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", m.env, err)
		}
	}

	// Defaults
	v.SetDefault("application.name", "DeckForge")
	v.SetDefault("application.host", "127.0.0.1")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.output_dir", ".")
	v.SetDefault("application.log_level", "info")
	v.SetDefault("application.log_format", "text")
	v.SetDefault("application.storage.inbox", "inbox")
	v.SetDefault("application.storage.done", "inbox/done")
	v.SetDefault("ai.active_provider", "openai")
	v.SetDefault("ai.providers.openai.driver", "openai")
	v.SetDefault("ai.providers.openai.model", "gpt-3.5-turbo")
	v.SetDefault("ai.providers.gemini.driver", "gemini")
	v.SetDefault("ai.providers.gemini.model", "gemini-1.5-flash")
	v.SetDefault("ai.providers.mock.driver", "mock")
	v.SetDefault("images.base_url", "https://api.unsplash.com")
	v.SetDefault("images.per_page", 30)
	v.SetDefault("deck.max_bullets", 4)
	v.SetDefault("deck.max_words_per_bullet", 20)
	v.SetDefault("deck.max_title_chars", 70)
	v.SetDefault("deck.max_images_per_slide", 1)
	v.SetDefault("deck.history_window", 3)

	if err := v.ReadInConfig(); err != nil {
		// config.yaml is optional
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.AI.ActiveProvider == "" {
		cfg.AI.ActiveProvider = "openai"
	}

	return &cfg, nil
}
