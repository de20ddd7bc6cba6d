package config

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/teamlabel/internal/pr"
	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.Provider != ProviderGitHub {
		t.Errorf("Provider = %q, want %q", cfg.Provider, ProviderGitHub)
	}
	if cfg.ChannelMatch != MatchExact {
		t.Errorf("ChannelMatch = %q, want %q", cfg.ChannelMatch, MatchExact)
	}
	if cfg.MessageTemplate != pr.DefaultMessageTemplate {
		t.Errorf("MessageTemplate = %q, want default template", cfg.MessageTemplate)
	}
	if cfg.StrictChannelMap {
		t.Error("StrictChannelMap should be false by default")
	}
	if cfg.DryRun {
		t.Error("DryRun should be false by default")
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default().Validate() = %v, want no errors", errs)
	}
}

func TestLoad_FromInputEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("INPUT_TEAM", "reviewers")
	t.Setenv("INPUT_REPO-TOKEN", "repo-secret")
	t.Setenv("INPUT_NOTIFY-TIMEOUT", "5s")
	t.Setenv("GITHUB_REPOSITORY", "acme/app")

	SetDefaults()
	BindRunnerEnv()
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Team != "reviewers" {
		t.Errorf("Team = %q, want %q", cfg.Team, "reviewers")
	}
	if cfg.RepoToken != "repo-secret" {
		t.Errorf("RepoToken = %q, want %q", cfg.RepoToken, "repo-secret")
	}
	if cfg.AccessToken != "" {
		t.Errorf("AccessToken = %q, want empty (credentials are independent)", cfg.AccessToken)
	}
	if cfg.NotifyTimeout != 5*time.Second {
		t.Errorf("NotifyTimeout = %v, want 5s", cfg.NotifyTimeout)
	}
	if cfg.Repository != "acme/app" {
		t.Errorf("Repository = %q, want %q", cfg.Repository, "acme/app")
	}
	if cfg.Provider != ProviderGitHub {
		t.Errorf("Provider = %q, want default %q", cfg.Provider, ProviderGitHub)
	}
}

func TestLoad_InputOverridesRunnerVariable(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("GITHUB_REPOSITORY", "acme/app")
	t.Setenv("INPUT_REPOSITORY", "acme/other")

	SetDefaults()
	BindRunnerEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Repository != "acme/other" {
		t.Errorf("Repository = %q, want %q", cfg.Repository, "acme/other")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	viper.Set(KeyProvider, "bitbucket")
	viper.Set(KeyNotifyConcurrency, -1)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail for invalid values")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("error type = %T, want ValidationErrors", err)
	}
	if len(verrs) != 2 {
		t.Errorf("got %d validation errors, want 2: %v", len(verrs), verrs)
	}
	if !strings.Contains(err.Error(), "2 validation errors") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, KeyLogLevel},
		{"bad provider", func(c *Config) { c.Provider = "svn" }, KeyProvider},
		{"bad match mode", func(c *Config) { c.ChannelMatch = "regex" }, KeyChannelMatch},
		{"negative concurrency", func(c *Config) { c.NotifyConcurrency = -2 }, KeyNotifyConcurrency},
		{"negative timeout", func(c *Config) { c.NotifyTimeout = -time.Second }, KeyNotifyTimeout},
		{"broken template", func(c *Config) { c.MessageTemplate = "{{.Team" }, KeyMessageTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("Validate() returned %d errors, want 1: %v", len(errs), errs)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.wantField)
			}
		})
	}
}

func TestStages(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantDecide  bool
		wantLabel   bool
		wantNotify  bool
		wantMissing []string
	}{
		{
			name: "everything configured",
			cfg: Config{
				Team: "t", AccessToken: "a", Label: "l", RepoToken: "r",
				SlackChannelList: `{"bug":"C1"}`, SlackBearerToken: "s",
			},
			wantDecide: true, wantLabel: true, wantNotify: true,
		},
		{
			name:        "no notification inputs",
			cfg:         Config{Team: "t", AccessToken: "a", Label: "l", RepoToken: "r"},
			wantDecide:  true,
			wantLabel:   true,
			wantMissing: []string{KeySlackChannelList, KeySlackBearerToken},
		},
		{
			name: "blank channel list counts as missing",
			cfg: Config{
				Team: "t", AccessToken: "a", SlackChannelList: "   ", SlackBearerToken: "s",
			},
			wantDecide:  true,
			wantMissing: []string{KeySlackChannelList},
		},
		{
			name: "map channel list from config file",
			cfg: Config{
				Team: "t", AccessToken: "a",
				SlackChannelList: map[string]any{"bug": "C1"}, SlackBearerToken: "s",
			},
			wantDecide: true, wantNotify: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stages := tt.cfg.Stages()
			if stages.Decide.Enabled != tt.wantDecide {
				t.Errorf("Decide.Enabled = %v, want %v (missing %v)", stages.Decide.Enabled, tt.wantDecide, stages.Decide.Missing)
			}
			if stages.Label.Enabled != tt.wantLabel {
				t.Errorf("Label.Enabled = %v, want %v", stages.Label.Enabled, tt.wantLabel)
			}
			if stages.Notify.Enabled != tt.wantNotify {
				t.Errorf("Notify.Enabled = %v, want %v", stages.Notify.Enabled, tt.wantNotify)
			}
			if tt.wantMissing != nil && !slices.Equal(stages.Notify.Missing, tt.wantMissing) {
				t.Errorf("Notify.Missing = %v, want %v", stages.Notify.Missing, tt.wantMissing)
			}
		})
	}
}

func TestStages_MissingDecideInputs(t *testing.T) {
	stages := (&Config{Team: "reviewers"}).Stages()

	if stages.Decide.Enabled {
		t.Fatal("Decide stage should be disabled without access-token")
	}
	if !slices.Equal(stages.Decide.Missing, []string{KeyAccessToken}) {
		t.Errorf("Decide.Missing = %v, want [%s]", stages.Decide.Missing, KeyAccessToken)
	}
	if !slices.Equal(stages.Label.Missing, []string{KeyLabel, KeyRepoToken}) {
		t.Errorf("Label.Missing = %v", stages.Label.Missing)
	}
}

func TestGet_FallsBackToDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	viper.Set(KeyChannelMatch, "regex")

	cfg := Get()
	if cfg.ChannelMatch != MatchExact {
		t.Errorf("ChannelMatch = %q, want default %q", cfg.ChannelMatch, MatchExact)
	}
}

func TestLoad_GitLabPipelineEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	for _, name := range []string{"GITHUB_REPOSITORY", "GITHUB_EVENT_NAME", "GITHUB_API_URL"} {
		t.Setenv(name, "")
	}
	t.Setenv("CI_PROJECT_PATH", "acme/platform/app")
	t.Setenv("CI_MERGE_REQUEST_IID", "12")
	t.Setenv("CI_PIPELINE_SOURCE", "merge_request_event")
	t.Setenv("CI_API_V4_URL", "https://gitlab.example.com/api/v4")

	SetDefaults()
	BindRunnerEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Repository != "acme/platform/app" {
		t.Errorf("Repository = %q, want acme/platform/app", cfg.Repository)
	}
	if cfg.MergeRequestIID != 12 {
		t.Errorf("MergeRequestIID = %d, want 12", cfg.MergeRequestIID)
	}
	if cfg.EventName != "merge_request_event" {
		t.Errorf("EventName = %q, want merge_request_event", cfg.EventName)
	}
	if cfg.APIURL != "https://gitlab.example.com/api/v4" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
}
