// Package profile resolves runtime configuration once at startup. All other
// packages receive a *Profile and never read the environment themselves.
package profile

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the resolved server configuration.
type Profile struct {
	// Mode is "prod" or "dev". Dev enables debug logging.
	Mode string
	// Port the HTTP server listens on.
	Port int
	// ProjectID is the Google Cloud project hosting the dataset.
	ProjectID string
	// Dataset is the BigQuery dataset id the agent may query.
	Dataset string
	// Location is the dataset's geographic location, used for catalog
	// entry lookups.
	Location string
	// Tables restricts the agent to these table names. Empty means every
	// table in the dataset.
	Tables []string
	// ProfilesTable is the fully qualified column-profile export table.
	// Empty disables profile context.
	ProfilesTable string
	// LoggingProject overrides ProjectID for catalog lookups.
	LoggingProject string
	// DebugBucket receives prompt snapshots when running hosted.
	DebugBucket string
	// Driver selects the session store backend: sqlite, mysql, or postgres.
	Driver string
	// DSN is the data source name for the selected driver.
	DSN string
	// FrontendDir is the built SPA directory served at /.
	FrontendDir string
	// Model is the Gemini model id used for chat.
	Model string
	// APIKey authenticates against the Gemini API.
	APIKey string
	// SecureLogPath is the restricted log file location.
	SecureLogPath string
	// CodeDir is the directory the code viewer endpoint may read from.
	CodeDir string
}

// IsDev reports whether the server runs in development mode.
func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// CatalogProject is the project used for metadata lookups, falling back to
// the dataset project when no dedicated logging project is configured.
func (p *Profile) CatalogProject() string {
	if p.LoggingProject != "" {
		return p.LoggingProject
	}
	return p.ProjectID
}

func (p *Profile) Validate() error {
	if p.ProjectID == "" {
		return errors.New("project id is required")
	}
	if p.Dataset == "" {
		return errors.New("dataset is required")
	}
	switch p.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	return nil
}

// GetProfile reads configuration from the environment. Every key uses the
// DATACHAT_ prefix except GEMINI_API_KEY, which keeps the name the Gemini
// SDK documents.
func GetProfile() (*Profile, error) {
	v := viper.New()
	v.SetEnvPrefix("datachat")
	v.AutomaticEnv()

	v.SetDefault("mode", "dev")
	v.SetDefault("location", "us")
	v.SetDefault("port", 8080)
	v.SetDefault("driver", "sqlite")
	v.SetDefault("dsn", "datachat.db")
	v.SetDefault("frontend_dir", "web/dist")
	v.SetDefault("model", "gemini-2.0-flash")
	v.SetDefault("secure_log", "secure_audit.log")
	v.SetDefault("code_dir", "showcase")

	v.BindEnv("api_key", "GEMINI_API_KEY")

	profile := &Profile{
		Mode:           v.GetString("mode"),
		Port:           v.GetInt("port"),
		ProjectID:      v.GetString("project_id"),
		Dataset:        v.GetString("dataset"),
		Location:       v.GetString("location"),
		Tables:         splitCSV(v.GetString("tables")),
		ProfilesTable:  v.GetString("profiles_table"),
		LoggingProject: v.GetString("logging_project"),
		DebugBucket:    v.GetString("debug_bucket"),
		Driver:         v.GetString("driver"),
		DSN:            v.GetString("dsn"),
		FrontendDir:    v.GetString("frontend_dir"),
		Model:          v.GetString("model"),
		APIKey:         v.GetString("api_key"),
		SecureLogPath:  v.GetString("secure_log"),
		CodeDir:        v.GetString("code_dir"),
	}
	if err := profile.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return profile, nil
}

// DatasetPath returns the dataset in project.dataset form.
func (p *Profile) DatasetPath() string {
	return fmt.Sprintf("%s.%s", p.ProjectID, p.Dataset)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
