package kv

import (
	"github.com/spf13/cobra"
	"github.com/unikv/unikv/cmd/util"
	"github.com/unikv/unikv/lib/client"
)

var (
	store   client.Client
	cleanup func()

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform key-value store operations",
		PersistentPreRunE: setupClient,
		PersistentPostRun: teardownClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common storage flags to the KV command
	util.SetupStoreFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(listCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(healthCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupClient initializes the store client from flags and environment
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	c, err := util.GetCodec()
	if err != nil {
		return err
	}

	b, done, err := util.GetBackend(cmd.Context())
	if err != nil {
		return err
	}

	store = client.New(b, client.WithCodec(c))
	cleanup = done
	return nil
}

func teardownClient(_ *cobra.Command, _ []string) {
	if store != nil {
		store.Close()
	}
	if cleanup != nil {
		cleanup()
	}
}
