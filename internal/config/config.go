// Package config loads and validates application configuration from command
// line flags and environment variables (flags win). Flags are bound through
// viper so every setting can come from either source without duplication.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration values for the export API server.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	CORSOrigins []string

	// MaxBodyBytes limits JSON request body sizes. Defaults to 1 MiB.
	MaxBodyBytes int64

	// EvenElectionYear and OddElectionYear anchor the historical-election
	// lookback: the most recent election year of each parity present in the
	// vendor feed. ElectionLookback is how many elections of matching
	// parity to include. All three are required and non-zero; a missing
	// value is a startup error, never a per-request one.
	EvenElectionYear int
	OddElectionYear  int
	ElectionLookback int
}

// Load parses args (normally os.Args[1:]) and the environment into a Config.
// Every flag can also be set via the matching upper-case environment
// variable (e.g. --database_url / DATABASE_URL). Returns an error listing
// everything required that is missing.
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet("gp-api", pflag.ContinueOnError)
	fs.String("port", "8080", "HTTP listen port")
	fs.String("database_url", "", "Postgres connection string")
	fs.String("log_level", "info", "Minimum log level (debug, info, warn, error)")
	fs.String("cors_origins", "", "Comma-separated list of allowed CORS origins")
	fs.Int64("max_body_bytes", 1<<20, "Maximum JSON request body size in bytes")
	fs.Int("even_election_year", 0, "Most recent even election year in the vendor feed")
	fs.Int("odd_election_year", 0, "Most recent odd election year in the vendor feed")
	fs.Int("election_lookback", 0, "Number of past elections of matching parity to export")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: parse flags: %w", err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("config: bind flags: %w", err)
	}
	v.AutomaticEnv()

	cfg := Config{
		Port:             v.GetString("port"),
		DatabaseURL:      v.GetString("database_url"),
		LogLevel:         v.GetString("log_level"),
		CORSOrigins:      splitCSV(v.GetString("cors_origins")),
		MaxBodyBytes:     v.GetInt64("max_body_bytes"),
		EvenElectionYear: v.GetInt("even_election_year"),
		OddElectionYear:  v.GetInt("odd_election_year"),
		ElectionLookback: v.GetInt("election_lookback"),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "database_url")
	}
	if cfg.EvenElectionYear == 0 {
		missing = append(missing, "even_election_year")
	}
	if cfg.OddElectionYear == 0 {
		missing = append(missing, "odd_election_year")
	}
	if cfg.ElectionLookback == 0 {
		missing = append(missing, "election_lookback")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("config: required settings not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring
// empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
