package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/recfs/cmd/lock"
	"github.com/ValentinKolb/recfs/cmd/record"
	"github.com/ValentinKolb/recfs/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "recfs",
		Short: "file-system record store",
		Long: fmt.Sprintf(`recfs (v%s)

A record store persisting every record as an individual file,
with bounded concurrent reads and per-record lock files.

All flags can be set via environment variables in the format
RECFS_<flag> (e.g. RECFS_CONCURRENT_READS=64). Variables from
.env and .env.local are loaded on startup.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of recfs",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("recfs v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(record.RecordCommands)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupStoreFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
