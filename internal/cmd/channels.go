package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teamlabel/internal/config"
	"github.com/Iron-Ham/teamlabel/internal/notify"
	"github.com/Iron-Ham/teamlabel/internal/pr"
)

func newChannelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels <label>...",
		Short: "Show the channels a set of labels would notify",
		Long: `Channels parses the configured slack-channel-list and prints the channels
that a request carrying the given labels would notify. Nothing is sent.

Examples:
  teamlabel channels urgent bug
  teamlabel channels --slack-channel-list '{"urgent":"C123"}' urgent`,
		Args: cobra.MinimumNArgs(1),
		RunE: runChannels,
	}
	return cmd
}

func runChannels(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	m, err := notify.ParseChannelMap(cfg.SlackChannelList)
	if err != nil {
		return err
	}

	labels := make([]pr.Label, 0, len(args))
	for _, arg := range args {
		for _, name := range strings.Split(arg, ",") {
			if name = strings.TrimSpace(name); name != "" {
				labels = append(labels, pr.Label{Name: name})
			}
		}
	}

	var opts []notify.ResolveOption
	if cfg.ChannelMatch == config.MatchGlob {
		opts = append(opts, notify.WithGlob())
	}
	channels := notify.ResolveChannels(m, labels, opts...)

	out := cmd.OutOrStdout()
	if len(channels) == 0 {
		fmt.Fprintln(out, "No channels mapped for these labels.")
		return nil
	}
	for _, ch := range channels {
		fmt.Fprintln(out, ch)
	}
	return nil
}
