package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Iron-Ham/teamlabel/internal/pr"
	"github.com/spf13/viper"
)

// Config represents the complete teamlabel configuration. Keys match the
// GitHub Action input names so INPUT_<NAME> environment variables map onto
// them directly.
type Config struct {
	// Team is the team whose activity counts, as "slug" or "org/slug"
	Team string `mapstructure:"team"`
	// Label is applied to the request once a team member has acted
	Label string `mapstructure:"label"`
	// RepoToken authenticates the labeling call
	RepoToken string `mapstructure:"repo-token"`
	// AccessToken authenticates roster and activity reads
	AccessToken string `mapstructure:"access-token"`
	// SlackChannelList maps label name to Slack channel ID. It may arrive as a
	// JSON or YAML string (action input, env) or as a map (config file).
	SlackChannelList any `mapstructure:"slack-channel-list"`
	// SlackBearerToken authenticates chat.postMessage
	SlackBearerToken string `mapstructure:"slack-bearer-token"`

	// Provider selects the hosting service: "github" or "gitlab"
	Provider string `mapstructure:"provider"`
	// APIURL overrides the hosting service API base URL (GHES, self-managed GitLab)
	APIURL string `mapstructure:"api-url"`
	// SlackAPIURL overrides the Slack Web API base URL
	SlackAPIURL string `mapstructure:"slack-api-url"`

	// Repository is "owner/name" of the repository the event belongs to
	Repository string `mapstructure:"repository"`
	// EventPath is the path of the triggering event payload
	EventPath string `mapstructure:"event-path"`
	// EventName is the name of the triggering event
	EventName string `mapstructure:"event-name"`
	// MergeRequestIID is the merge request of a GitLab merge request pipeline
	MergeRequestIID int `mapstructure:"merge-request-iid"`

	// IgnoreBots drops "[bot]" accounts from the participant set
	IgnoreBots bool `mapstructure:"ignore-bots"`
	// ChannelMatch is "exact" (default) or "glob"
	ChannelMatch string `mapstructure:"channel-match"`
	// MessageTemplate is a text/template for the notification body
	MessageTemplate string `mapstructure:"message-template"`
	// NotifyConcurrency bounds in-flight notifications (0 = unbounded)
	NotifyConcurrency int `mapstructure:"notify-concurrency"`
	// NotifyTimeout bounds each notification (0 = no per-send timeout)
	NotifyTimeout time.Duration `mapstructure:"notify-timeout"`
	// StrictChannelMap fails the run when the channel map is malformed
	StrictChannelMap bool `mapstructure:"strict-channel-map"`
	// DryRun decides and resolves channels without labeling or sending
	DryRun bool `mapstructure:"dry-run"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `mapstructure:"log-level"`
	// LogDir writes logs to {log-dir}/teamlabel.log instead of stderr
	LogDir string `mapstructure:"log-dir"`
	// StepSummary is the markdown file the run summary is appended to
	StepSummary string `mapstructure:"step-summary"`

	// OTelEndpoint enables OTLP/HTTP trace export when set
	OTelEndpoint string `mapstructure:"otel-endpoint"`
	// OTelHeaders are "k=v,k2=v2" headers for the OTLP exporter
	OTelHeaders string `mapstructure:"otel-headers"`
}

// Option keys
const (
	KeyTeam              = "team"
	KeyLabel             = "label"
	KeyRepoToken         = "repo-token"
	KeyAccessToken       = "access-token"
	KeySlackChannelList  = "slack-channel-list"
	KeySlackBearerToken  = "slack-bearer-token"
	KeyProvider          = "provider"
	KeyAPIURL            = "api-url"
	KeySlackAPIURL       = "slack-api-url"
	KeyRepository        = "repository"
	KeyEventPath         = "event-path"
	KeyEventName         = "event-name"
	KeyMergeRequestIID   = "merge-request-iid"
	KeyIgnoreBots        = "ignore-bots"
	KeyChannelMatch      = "channel-match"
	KeyMessageTemplate   = "message-template"
	KeyNotifyConcurrency = "notify-concurrency"
	KeyNotifyTimeout     = "notify-timeout"
	KeyStrictChannelMap  = "strict-channel-map"
	KeyDryRun            = "dry-run"
	KeyLogLevel          = "log-level"
	KeyLogDir            = "log-dir"
	KeyStepSummary       = "step-summary"
	KeyOTelEndpoint      = "otel-endpoint"
	KeyOTelHeaders       = "otel-headers"
)

// Provider names
const (
	ProviderGitHub = "github"
	ProviderGitLab = "gitlab"
)

// Channel match modes
const (
	MatchExact = "exact"
	MatchGlob  = "glob"
)

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Provider:          ProviderGitHub,
		ChannelMatch:      MatchExact,
		MessageTemplate:   pr.DefaultMessageTemplate,
		NotifyConcurrency: 0,
		NotifyTimeout:     0,
		LogLevel:          "info",
	}
}

// SetDefaults registers default values with viper. Every option gets a
// default, even an empty one, so viper.Unmarshal sees keys that are only
// supplied through the environment.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault(KeyTeam, defaults.Team)
	viper.SetDefault(KeyLabel, defaults.Label)
	viper.SetDefault(KeyRepoToken, defaults.RepoToken)
	viper.SetDefault(KeyAccessToken, defaults.AccessToken)
	viper.SetDefault(KeySlackChannelList, "")
	viper.SetDefault(KeySlackBearerToken, defaults.SlackBearerToken)

	viper.SetDefault(KeyProvider, defaults.Provider)
	viper.SetDefault(KeyAPIURL, defaults.APIURL)
	viper.SetDefault(KeySlackAPIURL, defaults.SlackAPIURL)

	viper.SetDefault(KeyRepository, defaults.Repository)
	viper.SetDefault(KeyEventPath, defaults.EventPath)
	viper.SetDefault(KeyEventName, defaults.EventName)
	viper.SetDefault(KeyMergeRequestIID, defaults.MergeRequestIID)

	viper.SetDefault(KeyIgnoreBots, defaults.IgnoreBots)
	viper.SetDefault(KeyChannelMatch, defaults.ChannelMatch)
	viper.SetDefault(KeyMessageTemplate, defaults.MessageTemplate)
	viper.SetDefault(KeyNotifyConcurrency, defaults.NotifyConcurrency)
	viper.SetDefault(KeyNotifyTimeout, defaults.NotifyTimeout)
	viper.SetDefault(KeyStrictChannelMap, defaults.StrictChannelMap)
	viper.SetDefault(KeyDryRun, defaults.DryRun)

	viper.SetDefault(KeyLogLevel, defaults.LogLevel)
	viper.SetDefault(KeyLogDir, defaults.LogDir)
	viper.SetDefault(KeyStepSummary, defaults.StepSummary)

	viper.SetDefault(KeyOTelEndpoint, defaults.OTelEndpoint)
	viper.SetDefault(KeyOTelHeaders, defaults.OTelHeaders)
}

// BindRunnerEnv binds the variables the GitHub Actions runner and GitLab CI
// export to their option keys. An explicit INPUT_<NAME> wins over the runner
// variables, and the GitHub variable wins over the GitLab one.
func BindRunnerEnv() {
	bind := func(key string, runnerVars ...string) {
		_ = viper.BindEnv(append([]string{key, envInputName(key)}, runnerVars...)...)
	}
	bind(KeyEventPath, "GITHUB_EVENT_PATH")
	bind(KeyEventName, "GITHUB_EVENT_NAME", "CI_PIPELINE_SOURCE")
	bind(KeyRepository, "GITHUB_REPOSITORY", "CI_PROJECT_PATH")
	bind(KeyMergeRequestIID, "CI_MERGE_REQUEST_IID")
	bind(KeyAPIURL, "GITHUB_API_URL", "CI_API_V4_URL")
	bind(KeyStepSummary, "GITHUB_STEP_SUMMARY")
	bind(KeyOTelEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	bind(KeyOTelHeaders, "OTEL_EXPORTER_OTLP_HEADERS")
}

// EnvPrefix is the prefix the Actions runner puts on step inputs.
const EnvPrefix = "INPUT"

// envInputName returns the variable the runner exports for an input, e.g.
// INPUT_REPO-TOKEN for repo-token.
func envInputName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

// Load reads the configuration from viper and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when the
// loaded values are invalid. Commands that must fail on bad input use Load.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "teamlabel")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".teamlabel"
	}
	return filepath.Join(home, ".config", "teamlabel")
}

// ConfigFile returns the path of the user's config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "teamlabel.yaml")
}
