package lock

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/ValentinKolb/recfs/cmd/util"
	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/ValentinKolb/recfs/lib/lockmgr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	fileLockMgr lockmgr.ILockManager

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:   "lock",
		Short: "Perform lock file operations",
		Long: util.WrapString("Acquire and release the lock files guarding record updates. " +
			"A lock acquired here blocks updates of the record (from any process) until it is released " +
			"or considered stale."),
		PersistentPreRunE:  setupLockMgr,
		PersistentPostRunE: printStats,
	}

	// acquireCmd represents the acquire command
	acquireCmd = &cobra.Command{
		Use:   "acquire [type] [id]",
		Short: "Acquire a record lock",
		Args:  cobra.ExactArgs(2),
		RunE:  runAcquire,
	}

	// releaseCmd represents the release command
	releaseCmd = &cobra.Command{
		Use:   "release [type] [id] [ownerID]",
		Short: "Release a previously acquired record lock",
		Long:  "Release a lock using the record and owner ID. The owner ID is the hex string returned by the acquire command.",
		Args:  cobra.ExactArgs(3),
		RunE:  runRelease,
	}
)

func init() {
	// Add subcommands to lock command
	LockCommands.AddCommand(acquireCmd)
	LockCommands.AddCommand(releaseCmd)

	key := "stats"
	LockCommands.PersistentFlags().Bool(key, false, util.WrapString("Print the lock metrics after the command"))
}

// setupLockMgr initializes the lock manager of the storage root
func setupLockMgr(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config, err := util.GetConfig()
	if err != nil {
		return err
	}
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return err
	}

	fileLockMgr = lockmgr.NewFileLockManager(config.Path, lockmgr.OptionsFromConfig(config))
	return nil
}

// runAcquire handles the acquire lock command
func runAcquire(cmd *cobra.Command, args []string) error {
	ownerID, err := fileLockMgr.AcquireLock(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	// Convert owner ID to hex string for display
	fmt.Printf("acquired=true, ownerId=%s, marker=%s\n", hex.EncodeToString(ownerID), fileLockMgr.MarkerPath(args[0], args[1]))
	return nil
}

// runRelease handles the release lock command
func runRelease(_ *cobra.Command, args []string) error {
	// Convert hex string owner ID back to bytes
	ownerID, err := hex.DecodeString(args[2])
	if err != nil {
		return fmt.Errorf("invalid owner ID format: %v", err)
	}

	released, err := fileLockMgr.ReleaseLock(args[0], args[1], ownerID)
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	fmt.Printf("released=%v\n", released)
	return nil
}

// printStats prints the metrics of the lock manager if requested
func printStats(_ *cobra.Command, _ []string) error {
	if fileLockMgr == nil || !viper.GetBool("stats") {
		return nil
	}

	stats := fileLockMgr.Stats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println()
	for _, name := range names {
		fmt.Printf("%s: %v\n", name, stats[name])
	}
	return nil
}
