package util

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/ValentinKolb/recfs/lib/record"
	"github.com/ValentinKolb/recfs/lib/store/fsstore"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds the storage flags shared by all commands
func SetupStoreFlags(cmd *cobra.Command) {
	d := common.DefaultConfig()

	key := "path"
	cmd.PersistentFlags().String(key, d.Path, WrapString("The storage root, one subdirectory per type is created below it"))

	key = "concurrent-reads"
	cmd.PersistentFlags().String(key, strconv.Itoa(d.ConcurrentReads), WrapString("The maximum number of file reads in flight during a batch read (positive integer)"))

	key = "codec"
	cmd.PersistentFlags().String(key, d.Codec, WrapString("The codec of the stored files (cbor, json)"))

	key = "lock-timeout"
	cmd.PersistentFlags().Duration(key, d.LockTimeout, WrapString("How long an update waits for a record lock before failing"))

	key = "lock-stale"
	cmd.PersistentFlags().Duration(key, d.LockStaleAfter, WrapString("Lock markers older than this are considered orphaned and removed (0 disables the recovery)"))

	key = "lock-retry-min"
	cmd.PersistentFlags().Duration(key, d.LockRetryMin, WrapString("The initial wait between two attempts to acquire a lock"))

	key = "lock-retry-max"
	cmd.PersistentFlags().Duration(key, d.LockRetryMax, WrapString("The maximum wait between two attempts to acquire a lock"))

	key = "schema"
	cmd.PersistentFlags().String(key, "", WrapString("Path to a YAML schema file (types and their primary keys). Overrides --types"))

	key = "types"
	cmd.PersistentFlags().String(key, "", WrapString("Comma-separated list of record types (used if no schema file is given)"))

	key = "primary-key"
	cmd.PersistentFlags().String(key, record.DefaultPrimaryKey, WrapString("The primary key field of the types given with --types"))

	key = "log-level"
	cmd.PersistentFlags().String(key, d.LogLevel, WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("recfs")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetConfig reads the store configuration from viper and validates it
func GetConfig() (common.Config, error) {
	raw := strings.TrimSpace(viper.GetString("concurrent-reads"))
	reads, err := strconv.Atoi(raw)
	if err != nil {
		return common.Config{}, common.NewError(common.RetCConfigError, fmt.Sprintf("concurrentReads must be an integer, got %q", raw))
	}

	config := common.Config{
		Path:            viper.GetString("path"),
		ConcurrentReads: reads,
		Codec:           viper.GetString("codec"),
		LockTimeout:     viper.GetDuration("lock-timeout"),
		LockStaleAfter:  viper.GetDuration("lock-stale"),
		LockRetryMin:    viper.GetDuration("lock-retry-min"),
		LockRetryMax:    viper.GetDuration("lock-retry-max"),
		LogLevel:        viper.GetString("log-level"),
	}
	if err := config.Validate(); err != nil {
		return common.Config{}, err
	}
	return config, nil
}

// GetSchema loads the schema file or builds a schema from the --types flag
func GetSchema() (record.Schema, error) {
	if path := viper.GetString("schema"); path != "" {
		return record.LoadSchema(path)
	}

	var types []string
	for _, t := range strings.Split(viper.GetString("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		return nil, common.NewError(common.RetCConfigError, "no record types given (use --schema or --types)")
	}

	schema := record.NewSchema(viper.GetString("primary-key"), types...)
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

// OpenStore initializes the loggers and connects a filesystem store with the current configuration
func OpenStore(ctx context.Context) (*fsstore.Store, error) {
	config, err := GetConfig()
	if err != nil {
		return nil, err
	}
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return nil, err
	}

	schema, err := GetSchema()
	if err != nil {
		return nil, err
	}

	s, err := fsstore.NewFileSystemStore(schema, config)
	if err != nil {
		return nil, err
	}
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
