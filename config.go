package sheetquiz

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Source kinds accepted in Config.Source.Kind
const (
	SourceSheets   = "sheets"
	SourceWorkbook = "workbook"
	SourceSQLite   = "sqlite"
	SourceFixture  = "fixture"
)

var (
	ErrMissingSheetID   = errors.New("GOOGLE_SHEET_ID is required for the sheets source")
	ErrMissingPath      = errors.New("a file path is required for the selected source")
	ErrUnknownSource    = errors.New("unknown question source")
	ErrMissingOpenAIKey = errors.New("OPENAI_API_KEY is required")
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env           string        `mapstructure:"env"`            // local, dev, production
	Port          string        `mapstructure:"port"`           // HTTP listen port
	SessionSecret string        `mapstructure:"session_secret"` // cookie signing key, random when empty
	SessionTTL    time.Duration `mapstructure:"session_ttl"`    // idle time before a session is dropped
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`  // bound on one question source call
	Source        SourceConfig  `mapstructure:"source"`
	OpenAI        OpenAIConfig  `mapstructure:"openai"`
}

// SourceConfig selects and locates the question source.
type SourceConfig struct {
	Kind            string `mapstructure:"kind"`
	SheetID         string `mapstructure:"sheet_id"`
	CredentialsFile string `mapstructure:"credentials_file"` // empty means application default credentials
	WorkbookPath    string `mapstructure:"workbook_path"`
	DBPath          string `mapstructure:"db_path"`
	FixturePath     string `mapstructure:"fixture_path"`
}

// OpenAIConfig is only needed by the question reviewer.
type OpenAIConfig struct {
	APIKey string `mapstructure:"-"`
	Model  string `mapstructure:"model"`
}

// LoadConfig reads .env (if present), config/config.yaml (if present) and the
// environment, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("port", "8080")
	v.SetDefault("session_ttl", "2h")
	v.SetDefault("fetch_timeout", "15s")
	v.SetDefault("source.kind", SourceSheets)
	v.SetDefault("source.db_path", "./questions.db")
	v.SetDefault("openai.model", "gpt-4o")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("session_secret", "SESSION_SECRET")
	_ = v.BindEnv("session_ttl", "SESSION_TTL")
	_ = v.BindEnv("fetch_timeout", "FETCH_TIMEOUT")
	_ = v.BindEnv("source.kind", "QUESTION_SOURCE")
	_ = v.BindEnv("source.sheet_id", "GOOGLE_SHEET_ID")
	_ = v.BindEnv("source.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")
	_ = v.BindEnv("source.workbook_path", "WORKBOOK_PATH")
	_ = v.BindEnv("source.db_path", "QUESTION_DB")
	_ = v.BindEnv("source.fixture_path", "FIXTURE_PATH")
	_ = v.BindEnv("openai.model", "OPENAI_MODEL")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	cfg.OpenAI.APIKey = v.GetString("openai_api_key")

	if err := cfg.Source.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected source has what it needs to open.
func (s SourceConfig) Validate() error {
	switch s.Kind {
	case SourceSheets:
		if s.SheetID == "" {
			return ErrMissingSheetID
		}
	case SourceWorkbook:
		if s.WorkbookPath == "" {
			return fmt.Errorf("%w: WORKBOOK_PATH", ErrMissingPath)
		}
	case SourceSQLite:
		if s.DBPath == "" {
			return fmt.Errorf("%w: QUESTION_DB", ErrMissingPath)
		}
	case SourceFixture:
		if s.FixturePath == "" {
			return fmt.Errorf("%w: FIXTURE_PATH", ErrMissingPath)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, s.Kind)
	}
	return nil
}

// BindSourceFlags registers flags selecting a question source on fs. Flag
// defaults come from the same environment variables LoadConfig reads.
func BindSourceFlags(fs *flag.FlagSet, defaultKind string) *SourceConfig {
	cfg := &SourceConfig{}
	fs.StringVar(&cfg.Kind, "source", envOr("QUESTION_SOURCE", defaultKind), "Question source: sheets, workbook, sqlite or fixture")
	fs.StringVar(&cfg.SheetID, "sheet", os.Getenv("GOOGLE_SHEET_ID"), "Google spreadsheet id")
	fs.StringVar(&cfg.CredentialsFile, "credentials", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), "Service account key file (default: application default credentials)")
	fs.StringVar(&cfg.WorkbookPath, "workbook", os.Getenv("WORKBOOK_PATH"), "Path to an .xlsx workbook")
	fs.StringVar(&cfg.DBPath, "db", envOr("QUESTION_DB", "./questions.db"), "Path to the SQLite question bank")
	fs.StringVar(&cfg.FixturePath, "fixture", os.Getenv("FIXTURE_PATH"), "Path to a YAML fixture")
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
