package config

import (
	"strings"
	"testing"
)

func TestValidateYAMLContentExample(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(ExampleYAML()))
	if err != nil {
		t.Fatalf("example template must validate: %v", err)
	}
	if cfg.Database.Path != "./hourbook.db" {
		t.Errorf("database path = %s", cfg.Database.Path)
	}
	if cfg.Import.Delimiter != "," {
		t.Errorf("delimiter = %q", cfg.Import.Delimiter)
	}
	if cfg.Import.DateFormat != "2006-01-02" {
		t.Errorf("date format = %s", cfg.Import.DateFormat)
	}
	if len(cfg.Import.TimeFormats) != 2 {
		t.Errorf("time formats = %v", cfg.Import.TimeFormats)
	}
	if cfg.Import.LenientTimes {
		t.Error("lenient times must default to off")
	}
}

func TestValidateYAMLContentDefaults(t *testing.T) {
	t.Parallel()

	// Empty content falls back to defaults entirely.
	cfg, err := ValidateYAMLContent([]byte(""))
	if err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Database.Path == "" {
		t.Error("database path default missing")
	}
	if got := cfg.Import.DelimiterRune(); got != ',' {
		t.Errorf("delimiter rune = %q", got)
	}
}

func TestValidateYAMLContentRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name: "multi-char delimiter",
			content: `
import:
  delimiter: ";;"
`,
		},
		{
			name: "empty time format",
			content: `
import:
  time_formats:
    - ""
`,
		},
		{
			name: "bad tracker url",
			content: `
tracker:
  url: "not a url"
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ValidateYAMLContent([]byte(tc.content)); err == nil {
				t.Fatalf("expected validation failure for %s", tc.name)
			}
		})
	}
}

func TestValidateYAMLContentTrackerURL(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(`
tracker:
  url: "https://tracker.example.com/api"
  token: "secret"
`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.HasPrefix(cfg.Tracker.URL, "https://") {
		t.Errorf("tracker url = %s", cfg.Tracker.URL)
	}
	if cfg.Tracker.Token != "secret" {
		t.Errorf("tracker token = %s", cfg.Tracker.Token)
	}
}

func TestDelimiterRune(t *testing.T) {
	t.Parallel()

	if got := (ImportConfig{Delimiter: ";"}).DelimiterRune(); got != ';' {
		t.Errorf("rune = %q, want ';'", got)
	}
	if got := (ImportConfig{}).DelimiterRune(); got != ',' {
		t.Errorf("empty delimiter rune = %q, want ','", got)
	}
}
