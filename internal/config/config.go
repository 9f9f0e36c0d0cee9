package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env    string `yml:"env" env:"ENV" env-default:"local"`
	SQLite SQLite `yml:"sqlite"`
	Server Server `yml:"server"`
	Sync   Sync   `yml:"sync"`
	GitHub GitHub `yml:"github"`
	Jira   Jira   `yml:"jira"`
}

type SQLite struct {
	Path string `yml:"path" env:"SQLITE_PATH" env-default:"data/dashboard.db"`
}

type Server struct {
	Host    string        `yml:"host" env:"SERVER_HOST" env-default:"localhost"`
	Port    string        `yml:"port" env:"SERVER_PORT" env-default:"3003"`
	Timeout time.Duration `yml:"timeout" env-default:"5s"`
}

type Sync struct {
	StaleHours        int           `yml:"stale_hours" env:"CACHE_STALE_HOURS" env-default:"6"`
	CommitMaxPages    int           `yml:"commit_max_pages" env-default:"50"`
	CommitPageTimeout time.Duration `yml:"commit_page_timeout" env-default:"10s"`
	// PivotDate splits before/after cohorts in the dashboard stats.
	PivotDate string `yml:"pivot_date" env:"PIVOT_DATE" env-default:"2025-01-01"`
}

// Pivot parses the configured pivot date; an unparseable value falls back
// to the zero time, which puts everything in the "after" cohort.
func (s Sync) Pivot() time.Time {
	t, err := time.Parse("2006-01-02", s.PivotDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

type GitHub struct {
	Token string `env:"GITHUB_TOKEN" env-required:"true"`
	// Repos is a comma-separated list of "owner/name" entries.
	Repos string `yml:"repos" env:"GITHUB_REPOS" env-required:"true"`
}

type Jira struct {
	BaseURL    string `yml:"base_url" env:"JIRA_BASE_URL" env-required:"true"`
	Token      string `env:"JIRA_API_TOKEN" env-required:"true"`
	ProjectKey string `yml:"project_key" env:"JIRA_PROJECT_KEY" env-default:"AAP"`
	// StoryPointsFields is the ordered fallback chain of custom-field IDs
	// tried first-non-empty when reducing issues to story points. Kept as
	// configuration data so new identifiers need no code change.
	StoryPointsFields string `yml:"story_points_fields" env:"JIRA_STORY_POINTS_FIELDS" env-default:"customfield_10031,customfield_10016,customfield_10100"`
}

// RepoList splits the configured repo string into "owner/name" entries.
func (g GitHub) RepoList() []string {
	var repos []string
	for _, r := range strings.Split(g.Repos, ",") {
		if r = strings.TrimSpace(r); r != "" {
			repos = append(repos, r)
		}
	}
	return repos
}

// FieldChain splits the story-points fallback chain into field IDs.
func (j Jira) FieldChain() []string {
	var fields []string
	for _, f := range strings.Split(j.StoryPointsFields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		return nil, errors.New("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file does not exist: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	return &cfg, nil
}

// MustLoad is Load for main functions that cannot proceed without config.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}

	return cfg
}
