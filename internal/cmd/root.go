package cmd

import (
	"errors"
	"io/fs"

	"github.com/Iron-Ham/teamlabel/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "teamlabel",
		Short: "Label pull requests and issues once a team member has acted",
		Long: `teamlabel checks whether any member of a team has reviewed or commented
on the pull request or issue that triggered the workflow. If one has, it
applies a label and posts to the chat channels mapped to the request's
labels.

Options are read from flags, INPUT_<NAME> variables set by the Actions
runner, a teamlabel.yaml config file and a .env file, in that order.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is ./teamlabel.yaml or $HOME/.config/teamlabel/teamlabel.yaml)")
	addOptionFlags(flags)

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newChannelsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// addOptionFlags registers one flag per configuration option. Defaults
// live in config.SetDefaults, so the flag defaults stay empty.
func addOptionFlags(flags *pflag.FlagSet) {
	flags.String(config.KeyTeam, "", "team whose activity counts, as slug or org/slug")
	flags.String(config.KeyLabel, "", "label to apply once a team member has acted")
	flags.String(config.KeyRepoToken, "", "token used to apply the label")
	flags.String(config.KeyAccessToken, "", "token used to read the roster, reviews and comments")
	flags.String(config.KeySlackChannelList, "", `label to channel map, JSON or YAML (e.g. {"bug":"C123"})`)
	flags.String(config.KeySlackBearerToken, "", "Slack bot token")

	flags.String(config.KeyProvider, "", "hosting service: github or gitlab")
	flags.String(config.KeyAPIURL, "", "hosting service API base URL")
	flags.String(config.KeySlackAPIURL, "", "Slack Web API base URL")

	flags.String(config.KeyRepository, "", "repository as owner/name")
	flags.String(config.KeyEventPath, "", "path of the triggering event payload")
	flags.String(config.KeyEventName, "", "name of the triggering event")
	flags.Int(config.KeyMergeRequestIID, 0, "GitLab merge request IID (gitlab provider)")

	flags.Bool(config.KeyIgnoreBots, false, "ignore [bot] accounts when collecting participants")
	flags.String(config.KeyChannelMatch, "", "channel map key matching: exact or glob")
	flags.String(config.KeyMessageTemplate, "", "notification text/template")
	flags.Int(config.KeyNotifyConcurrency, 0, "maximum notifications in flight (0 = unbounded)")
	flags.Duration(config.KeyNotifyTimeout, 0, "timeout per notification (0 = none)")
	flags.Bool(config.KeyStrictChannelMap, false, "fail the run when the channel map is malformed")
	flags.Bool(config.KeyDryRun, false, "decide and resolve channels without labeling or sending")

	flags.String(config.KeyLogLevel, "", "log level: debug, info, warn, error")
	flags.String(config.KeyLogDir, "", "write logs to {log-dir}/teamlabel.log instead of stderr")
	flags.String(config.KeyStepSummary, "", "markdown file the run summary is appended to")

	flags.String(config.KeyOTelEndpoint, "", "OTLP/HTTP collector endpoint")
	flags.String(config.KeyOTelHeaders, "", "OTLP headers as k=v,k2=v2")
}

func initConfig(cmd *cobra.Command, args []string) error {
	// A .env file is a convenience for local runs; the runner never has one.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	flags := cmd.Flags()
	if err := viper.BindPFlags(flags); err != nil {
		return err
	}

	if cfgFile, _ := flags.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("teamlabel")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(config.ConfigDir())
	}

	// INPUT_<NAME>, as the Actions runner exports step inputs
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
	config.BindRunnerEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}
