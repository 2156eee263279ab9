package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhinjs/segment-matcher-sub000/internal/logging"
)

var version = "dev"

type rootOptions struct {
	verbosity int
	jsonLogs  bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// NewRootCmd builds the segmatch command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "segmatch",
		Short: "Match structured message segments against command patterns",
		Long: `segmatch compiles command patterns such as "roll <n:integer> [sides:integer=6]"
and matches them against message segments given as JSON or plain text.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.jsonLogs {
				logging.Setup(opts.verbosity, cmd.ErrOrStderr())
			} else {
				logging.Setup(opts.verbosity, nil)
			}
			log.Debug().Str("command", cmd.Name()).Msg("command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	root.PersistentFlags().BoolVar(&opts.jsonLogs, "json-logs", false, "Write logs as JSON lines")

	root.AddCommand(
		newCompileCmd(),
		newMatchCmd(),
		newDispatchCmd(),
		newRoutesCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "segmatch version %s\n", version)
			},
		},
	)
	return root
}
