package config

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/Iron-Ham/teamlabel/internal/pr"
	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The option key (e.g., "notify-concurrency")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidProviders returns the list of supported hosting services
func ValidProviders() []string {
	return []string{ProviderGitHub, ProviderGitLab}
}

// ValidChannelMatchModes returns the list of channel match modes
func ValidChannelMatchModes() []string {
	return []string{MatchExact, MatchGlob}
}

// Validate checks the Config for invalid values and returns all validation
// errors found. Missing stage inputs are not errors here; see Stages.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.LogLevel != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.LogLevel)) {
		errors = append(errors, ValidationError{
			Field:   KeyLogLevel,
			Value:   c.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Provider != "" && !slices.Contains(ValidProviders(), c.Provider) {
		errors = append(errors, ValidationError{
			Field:   KeyProvider,
			Value:   c.Provider,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidProviders(), ", ")),
		})
	}

	if c.ChannelMatch != "" && !slices.Contains(ValidChannelMatchModes(), c.ChannelMatch) {
		errors = append(errors, ValidationError{
			Field:   KeyChannelMatch,
			Value:   c.ChannelMatch,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidChannelMatchModes(), ", ")),
		})
	}

	if c.NotifyConcurrency < 0 {
		errors = append(errors, ValidationError{
			Field:   KeyNotifyConcurrency,
			Value:   c.NotifyConcurrency,
			Message: "must be non-negative",
		})
	}

	if c.NotifyTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   KeyNotifyTimeout,
			Value:   c.NotifyTimeout,
			Message: "must be non-negative",
		})
	}

	if c.MessageTemplate != "" {
		if _, err := pr.ParseTemplate(c.MessageTemplate); err != nil {
			errors = append(errors, ValidationError{
				Field:   KeyMessageTemplate,
				Value:   c.MessageTemplate,
				Message: fmt.Sprintf("invalid template: %v", err),
			})
		}
	}

	return errors
}

// -----------------------------------------------------------------------------
// Stage requirements
// -----------------------------------------------------------------------------

// Stage names
const (
	StageDecide = "decide"
	StageLabel  = "label"
	StageNotify = "notify"
)

// DecideStage holds the inputs needed to resolve the roster and activity.
type DecideStage struct {
	Team        string `mapstructure:"team" validate:"required"`
	AccessToken string `mapstructure:"access-token" validate:"required"`
}

// LabelStage holds the inputs needed to apply the label.
type LabelStage struct {
	Label     string `mapstructure:"label" validate:"required"`
	RepoToken string `mapstructure:"repo-token" validate:"required"`
}

// NotifyStage holds the inputs needed to send notifications.
type NotifyStage struct {
	SlackChannelList any    `mapstructure:"slack-channel-list" validate:"required"`
	SlackBearerToken string `mapstructure:"slack-bearer-token" validate:"required"`
}

// StageStatus reports whether a stage has every required input.
type StageStatus struct {
	Name    string
	Enabled bool
	// Missing lists the option keys that were empty
	Missing []string
}

// Stages reports the status of each optional pipeline stage.
type Stages struct {
	Decide StageStatus
	Label  StageStatus
	Notify StageStatus
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report option keys instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Stages checks each stage's required inputs. A stage with missing inputs
// is skipped by the run rather than failing it.
func (c *Config) Stages() Stages {
	return Stages{
		Decide: checkStage(StageDecide, DecideStage{
			Team:        c.Team,
			AccessToken: c.AccessToken,
		}),
		Label: checkStage(StageLabel, LabelStage{
			Label:     c.Label,
			RepoToken: c.RepoToken,
		}),
		Notify: checkStage(StageNotify, NotifyStage{
			SlackChannelList: emptyToNil(c.SlackChannelList),
			SlackBearerToken: c.SlackBearerToken,
		}),
	}
}

func checkStage(name string, stage any) StageStatus {
	status := StageStatus{Name: name, Enabled: true}
	err := validate.Struct(stage)
	if err == nil {
		return status
	}

	status.Enabled = false
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			status.Missing = append(status.Missing, fe.Field())
		}
	}
	return status
}

// emptyToNil treats a blank string as an absent channel list.
func emptyToNil(v any) any {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	return v
}
