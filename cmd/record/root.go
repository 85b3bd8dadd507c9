package record

import (
	"context"
	"os"

	"github.com/ValentinKolb/recfs/cmd/util"
	"github.com/ValentinKolb/recfs/lib/store/fsstore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	fsStore *fsstore.Store

	// RecordCommands represents the record command group
	RecordCommands = &cobra.Command{
		Use:                "record",
		Short:              "Perform record operations",
		PersistentPreRunE:  setupStore,
		PersistentPostRunE: closeStore,
	}
)

func init() {
	key := "stats"
	RecordCommands.PersistentFlags().Bool(key, false, util.WrapString("Print the store metrics (Prometheus text format) after the command"))

	// Add subcommands
	RecordCommands.AddCommand(createCmd)
	RecordCommands.AddCommand(findCmd)
	RecordCommands.AddCommand(updateCmd)
	RecordCommands.AddCommand(deleteCmd)
	RecordCommands.AddCommand(idsCmd)
	RecordCommands.AddCommand(perfTestCmd)
}

// setupStore opens the filesystem store
func setupStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	fsStore, err = util.OpenStore(cmd.Context())
	return err
}

// closeStore prints the metrics if requested and disconnects the store
func closeStore(cmd *cobra.Command, _ []string) error {
	if fsStore == nil {
		return nil
	}
	if viper.GetBool("stats") {
		fsStore.WritePrometheus(os.Stdout)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fsStore.Disconnect(ctx)
}
