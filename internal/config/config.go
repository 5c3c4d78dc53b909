// Package config loads settings from a .toggl-to-jirarc INI file, searched
// for from the working directory upward.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// RCFileName is the name of the rc file searched for.
const RCFileName = ".toggl-to-jirarc"

const (
	defaultEpicField     = "customfield_10300"
	defaultEpicIssueType = "6"
)

type Config struct {
	Toggl TogglConfig
	Jira  JiraConfig
}

type TogglConfig struct {
	APIToken string
}

type JiraConfig struct {
	BaseURL  string
	Username string
	Password string
	// EpicField is the custom field id that carries the epic link.
	EpicField string
	// EpicIssueType is the issue type id that marks an issue as an epic.
	EpicIssueType string
}

// Load reads configuration from the given INI file. Environment variables
// TOGGL_API_TOKEN, JIRA_USERNAME and JIRA_PASSWORD override file values.
func Load(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg := &Config{}

	togglSection := file.Section("toggl")
	cfg.Toggl.APIToken = togglSection.Key("api_token").String()

	jiraSection := file.Section("jira")
	cfg.Jira.BaseURL = jiraSection.Key("base_url").String()
	cfg.Jira.Username = jiraSection.Key("username").String()
	cfg.Jira.Password = jiraSection.Key("password").String()
	cfg.Jira.EpicField = jiraSection.Key("epic_field").MustString(defaultEpicField)
	cfg.Jira.EpicIssueType = jiraSection.Key("epic_issue_type").MustString(defaultEpicIssueType)

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Discover walks from dir up to the filesystem root looking for the rc file,
// falling back to the user's home directory. It returns the path of the first
// file found.
func Discover(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(current, RCFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, RCFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s not found", RCFileName)
}

// LoadDefault discovers and loads the rc file relative to the working
// directory.
func LoadDefault() (*Config, error) {
	path, err := Discover(".")
	if err != nil {
		return nil, err
	}
	return Load(path)
}

func (c *Config) Validate() error {
	if c.Toggl.APIToken == "" {
		return fmt.Errorf("toggl.api_token is required (or set TOGGL_API_TOKEN)")
	}
	if c.Jira.BaseURL == "" {
		return fmt.Errorf("jira.base_url is required")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TOGGL_API_TOKEN"); v != "" {
		cfg.Toggl.APIToken = v
	}
	if v := os.Getenv("JIRA_USERNAME"); v != "" {
		cfg.Jira.Username = v
	}
	if v := os.Getenv("JIRA_PASSWORD"); v != "" {
		cfg.Jira.Password = v
	}
}
