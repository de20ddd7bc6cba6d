package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/teamlabel/internal/config"
	"github.com/Iron-Ham/teamlabel/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View the teamlabel configuration",
		Long: `View the resolved teamlabel configuration.

Without arguments, displays the current configuration with secrets masked
and reports which pipeline stages have every option they need.`,
		RunE: runConfigShow,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE:  runConfigShow,
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		Long:  `Create a commented teamlabel.yaml in the user's config directory.`,
		RunE:  runConfigInit,
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the config file path",
		RunE:  runConfigPath,
	})
	return configCmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using flags and environment)\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "decide:")
	fmt.Fprintf(out, "  %s: %s\n", config.KeyTeam, cfg.Team)
	fmt.Fprintf(out, "  %s: %s\n", config.KeyAccessToken, mask(cfg.AccessToken))
	fmt.Fprintf(out, "  %s: %s\n", config.KeyProvider, cfg.Provider)
	fmt.Fprintf(out, "  %s: %s\n", config.KeyAPIURL, cfg.APIURL)
	fmt.Fprintf(out, "  %s: %v\n", config.KeyIgnoreBots, cfg.IgnoreBots)

	fmt.Fprintln(out, "label:")
	fmt.Fprintf(out, "  %s: %s\n", config.KeyLabel, cfg.Label)
	fmt.Fprintf(out, "  %s: %s\n", config.KeyRepoToken, mask(cfg.RepoToken))
	fmt.Fprintf(out, "  %s: %v\n", config.KeyDryRun, cfg.DryRun)

	fmt.Fprintln(out, "notify:")
	fmt.Fprintf(out, "  %s: %v\n", config.KeySlackChannelList, cfg.SlackChannelList)
	fmt.Fprintf(out, "  %s: %s\n", config.KeySlackBearerToken, mask(cfg.SlackBearerToken))
	fmt.Fprintf(out, "  %s: %s\n", config.KeyChannelMatch, cfg.ChannelMatch)
	fmt.Fprintf(out, "  %s: %d\n", config.KeyNotifyConcurrency, cfg.NotifyConcurrency)
	fmt.Fprintf(out, "  %s: %s\n", config.KeyNotifyTimeout, cfg.NotifyTimeout)
	fmt.Fprintf(out, "  %s: %v\n", config.KeyStrictChannelMap, cfg.StrictChannelMap)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "stages:")
	stages := cfg.Stages()
	for _, stage := range []config.StageStatus{stages.Decide, stages.Label, stages.Notify} {
		if stage.Enabled {
			fmt.Fprintf(out, "  %s: enabled\n", stage.Name)
		} else {
			fmt.Fprintf(out, "  %s: skipped (missing %s)\n", stage.Name, strings.Join(stage.Missing, ", "))
		}
	}

	return nil
}

func mask(secret string) string {
	return util.MaskSecret(secret, 4)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Tokens are deliberately absent; pass them through the environment.
	configContent := `# teamlabel configuration
# Every key can also be set with a flag (--team) or INPUT_<KEY> (INPUT_TEAM).

# Team whose reviews and comments count, as slug or org/slug
team: ""
# Label applied once a team member has acted
label: ""

# Hosting service: github or gitlab
provider: github

# Label to Slack channel ID
slack-channel-list:
  # urgent: C0123456789

# exact, or glob to allow keys such as "area/*"
channel-match: exact
# Maximum notifications in flight (0 = unbounded)
notify-concurrency: 0
# Fail the run when slack-channel-list is malformed
strict-channel-map: false

log-level: info
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. ./teamlabel.yaml (current directory)\n")
	fmt.Fprintf(out, "  2. %s\n", filepath.Join(config.ConfigDir(), "teamlabel.yaml"))
	fmt.Fprintln(out, "\nEnvironment variables: INPUT_* (e.g., INPUT_TEAM, INPUT_REPO-TOKEN)")

	return nil
}
