package record

import (
	"fmt"

	"github.com/ValentinKolb/recfs/lib/codec"
	rec "github.com/ValentinKolb/recfs/lib/record"
	"github.com/ValentinKolb/recfs/lib/store"
	"github.com/spf13/cobra"
)

// cliCodec parses records given on the command line and prints results
var cliCodec = codec.NewJSONCodec()

var (
	createCmd = &cobra.Command{
		Use:   "create [type]",
		Short: "Creates records (one --data flag per record)",
		Long:  "Creates records from JSON objects. Records without a primary key get a random UUID assigned.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _ := cmd.Flags().GetStringArray("data")
			if len(data) == 0 {
				return fmt.Errorf("at least one --data flag is required")
			}

			records := make([]rec.Record, 0, len(data))
			for _, d := range data {
				r, err := parseObject(d)
				if err != nil {
					return fmt.Errorf("invalid record %s: %w", d, err)
				}
				records = append(records, r)
			}

			created, err := fsStore.Create(cmd.Context(), args[0], records)
			if err != nil {
				return err
			}
			return printRecords(created)
		},
	}
	findCmd = &cobra.Command{
		Use:   "find [type] [ids...]",
		Short: "Reads records (all records if no ids are given)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			fields, _ := cmd.Flags().GetStringSlice("fields")

			var ids []string // nil reads all records
			if len(args) > 1 {
				ids = args[1:]
			}

			records, err := fsStore.Find(cmd.Context(), args[0], ids, &store.FindOptions{
				Offset: offset,
				Limit:  limit,
				Fields: fields,
			})
			if err != nil {
				return err
			}
			return printRecords(records)
		},
	}
	updateCmd = &cobra.Command{
		Use:   "update [type] [id]",
		Short: "Updates fields of a record",
		Long:  "Updates fields of a record while holding its lock. --replace sets fields (null removes a field), --push appends to array fields, --pull removes values from array fields.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := rec.Update{ID: args[1]}
			var err error
			if u.Replace, err = objectFlag(cmd, "replace"); err != nil {
				return err
			}
			if u.Push, err = objectFlag(cmd, "push"); err != nil {
				return err
			}
			if u.Pull, err = objectFlag(cmd, "pull"); err != nil {
				return err
			}

			count, err := fsStore.Update(cmd.Context(), args[0], []rec.Update{u})
			if err != nil {
				return err
			}
			fmt.Printf("updated=%d\n", count)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [type] [ids...]",
		Short: "Deletes records (all records with --all)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			if len(args) == 1 && !all {
				return fmt.Errorf("no ids given, use --all to delete all records of type %s", args[0])
			}

			var ids []string // nil removes all records
			if len(args) > 1 {
				ids = args[1:]
			}

			count, err := fsStore.Delete(cmd.Context(), args[0], ids)
			if err != nil {
				return err
			}
			fmt.Printf("deleted=%d\n", count)
			return nil
		},
	}
	idsCmd = &cobra.Command{
		Use:   "ids [type]",
		Short: "Lists the ids of all stored records of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := fsStore.IDs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
)

func init() {
	createCmd.Flags().StringArray("data", nil, "A record as JSON object (repeatable)")

	findCmd.Flags().Int("limit", 0, "Maximum number of records to return (0 for no limit)")
	findCmd.Flags().Int("offset", 0, "Number of records to skip")
	findCmd.Flags().StringSlice("fields", nil, "Fields to return (comma separated, the primary key is always returned)")

	updateCmd.Flags().String("replace", "", "Fields to set as JSON object")
	updateCmd.Flags().String("push", "", "Values to append to array fields as JSON object")
	updateCmd.Flags().String("pull", "", "Values to remove from array fields as JSON object")

	deleteCmd.Flags().Bool("all", false, "Delete all records of the type")
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseObject parses a JSON object
func parseObject(data string) (rec.Record, error) {
	r, err := cliCodec.Decode([]byte(data))
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("expected a JSON object")
	}
	return r, nil
}

// objectFlag parses the JSON object of a flag, an unset flag returns nil
func objectFlag(cmd *cobra.Command, name string) (map[string]any, error) {
	data, _ := cmd.Flags().GetString(name)
	if data == "" {
		return nil, nil
	}
	r, err := parseObject(data)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return r, nil
}

// printRecords prints one JSON object per line
func printRecords(records []rec.Record) error {
	for _, r := range records {
		data, err := cliCodec.Encode(r)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	}
	return nil
}
