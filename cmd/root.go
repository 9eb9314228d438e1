package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/unikv/unikv/cmd/kv"
	"github.com/unikv/unikv/cmd/tmpl"
	"github.com/unikv/unikv/cmd/util"
	"github.com/unikv/unikv/lib/logging"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "unikv",
		Short: "unified key-value storage toolkit",
		Long: fmt.Sprintf(`unikv (v%s)

A unified key-value storage abstraction for Go: one client API across
storage backends, composable value codecs, key templates and event hooks.`, Version),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return err
			}
			return logging.InitLoggers(level)
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of unikv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("unikv v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(tmpl.TemplateCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "codec"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("codec to use (json, gob, yaml)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("log level (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
