package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyDatabasePath       = "database.path"
	KeyImportDelimiter    = "import.delimiter"
	KeyImportDateFormat   = "import.date_format"
	KeyImportTimeFormats  = "import.time_formats"
	KeyImportLenientTimes = "import.lenient_times"
	KeyTrackerURL         = "tracker.url"
	KeyTrackerToken       = "tracker.token"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Import   ImportConfig   `mapstructure:"import" validate:"required"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type ImportConfig struct {
	// Delimiter separates fields of imported rows; one character.
	Delimiter string `mapstructure:"delimiter" validate:"required,len=1"`
	// DateFormat is the Go layout for the date field.
	DateFormat string `mapstructure:"date_format" validate:"required"`
	// TimeFormats are Go layouts tried in order for start/end times; the
	// first one is also used on export.
	TimeFormats []string `mapstructure:"time_formats" validate:"required,min=1,dive,required"`
	// LenientTimes silently nulls unparseable time fields instead of failing
	// the row. Off by default; only for legacy source files.
	LenientTimes bool `mapstructure:"lenient_times"`
}

type TrackerConfig struct {
	// URL of the remote issue tracker API. Empty means issues and
	// repositories are looked up in the local database.
	URL   string `mapstructure:"url" validate:"omitempty,url"`
	Token string `mapstructure:"token"`
}

// DelimiterRune returns the configured import delimiter as a rune.
func (c ImportConfig) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ','
}

// SetDefaults sets default values if not provided.
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it.
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# hourbook configuration
database:
  path: "./hourbook.db"

import:
  delimiter: ","
  date_format: "2006-01-02"
  time_formats:
    - "15:04"
    - "03:04:05 PM"
  lenient_times: false

# Optional remote issue tracker; leave url empty to use the local database.
tracker:
  url: ""
  token: ""
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateTimeFormats(cfg.Import.TimeFormats); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, "./hourbook.db")
	v.SetDefault(KeyImportDelimiter, ",")
	v.SetDefault(KeyImportDateFormat, "2006-01-02")
	v.SetDefault(KeyImportTimeFormats, []string{"15:04", "03:04:05 PM"})
	v.SetDefault(KeyImportLenientTimes, false)
	v.SetDefault(KeyTrackerURL, "")
	v.SetDefault(KeyTrackerToken, "")
}

func validateTimeFormats(formats []string) error {
	for i, format := range formats {
		if strings.TrimSpace(format) == "" {
			return fmt.Errorf("validation failed: import.time_formats[%d] is empty", i)
		}
	}
	return nil
}
