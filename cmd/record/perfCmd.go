package record

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/recfs/cmd/util"
	"github.com/ValentinKolb/recfs/lib/common"
	rec "github.com/ValentinKolb/recfs/lib/record"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log = logger.GetLogger(common.LoggerCLI)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf [type]",
		Short:   "Performance testing tool for the filesystem store",
		Long:    "Runs benchmarks against the given type. All records created by the benchmarks are prefixed with __perf and removed afterwards.",
		Args:    cobra.ExactArgs(1),
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfIDPrefix   = "__perf"
	perfNumThreads = 10
	perfRecords    = 100
	perfFieldSize  = 1
	perfSkip       = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. create,find-all)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "records"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different records to use for the tests"))
	key = "field-size"
	perfTestCmd.Flags().Int(key, 1, util.WrapString("Size of the payload field of every record (in KB)"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfRecords = viper.GetInt("records")
	perfFieldSize = viper.GetInt("field-size")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfRecords <= 0 || perfNumThreads <= 0 {
		return fmt.Errorf("threads and records must be > 0")
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	typeName := args[0]
	ctx := cmd.Context()

	fmt.Println("Performance testing tool for the filesystem store")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	config := fsStore.Config()
	fmt.Println(config.String())
	fmt.Printf("Type: %s\n", typeName)
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Records: %d\n", perfRecords)
	fmt.Println()

	fmt.Println("starting tests...")

	payload := strings.Repeat("x", perfFieldSize*1024)
	results := make(map[string]testing.BenchmarkResult)

	createResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("create") {
			return
		}

		var counter atomic.Int64
		b.Cleanup(func() {
			cleanup(ctx, typeName, "create")
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				id := fmt.Sprintf("%s-create-%d", perfIDPrefix, counter.Add(1))
				_, err := fsStore.Create(ctx, typeName, []rec.Record{{pk(typeName): id, "payload": payload}})
				if err != nil {
					log.Errorf("(create) - error creating record: %v", err)
				}
			}
		})
	})

	results["create"] = createResult
	printResult("create", createResult)

	findResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("find") {
			return
		}

		getID := seed(ctx, typeName, "find", payload)
		b.Cleanup(func() {
			cleanup(ctx, typeName, "find")
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				_, err := fsStore.Find(ctx, typeName, []string{getID(counter)}, nil)
				if err != nil {
					log.Errorf("(find) - error reading record: %v", err)
				}
				counter++
			}
		})
	})

	results["find"] = findResult
	printResult("find", findResult)

	findAllResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("find-all") {
			return
		}

		seed(ctx, typeName, "find-all", payload)
		b.Cleanup(func() {
			cleanup(ctx, typeName, "find-all")
		})

		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			if _, err := fsStore.Find(ctx, typeName, nil, nil); err != nil {
				log.Errorf("(find-all) - error reading records: %v", err)
			}
		}
	})

	results["find-all"] = findAllResult
	printResult("find-all", findAllResult)

	updateResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("update") {
			return
		}

		getID := seed(ctx, typeName, "update", payload)
		b.Cleanup(func() {
			cleanup(ctx, typeName, "update")
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				_, err := fsStore.Update(ctx, typeName, []rec.Update{{
					ID:      getID(counter),
					Replace: map[string]any{"counter": int64(counter)},
				}})
				if err != nil {
					log.Errorf("(update) - error updating record: %v", err)
				}
				counter++
			}
		})
	})

	results["update"] = updateResult
	printResult("update", updateResult)

	deleteResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("delete") {
			return
		}

		getID := seed(ctx, typeName, "delete", payload)
		b.Cleanup(func() {
			cleanup(ctx, typeName, "delete")
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				_, err := fsStore.Delete(ctx, typeName, []string{getID(counter)})
				if err != nil {
					log.Errorf("(delete) - error deleting record: %v", err)
				}
				counter++
			}
		})
	})

	results["delete"] = deleteResult
	printResult("delete", deleteResult)

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, typeName, results, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// pk returns the primary key field of a type
func pk(typeName string) string {
	return fsStore.Schema().PrimaryKey(typeName)
}

// perfID returns the id of the i-th test record of a benchmark
func perfID(prefix string, i int) string {
	return fmt.Sprintf("%s-%s-%d", perfIDPrefix, prefix, i%perfRecords)
}

// seed creates the test records of a benchmark and returns a function to get an id by index (with wraparound)
func seed(ctx context.Context, typeName, prefix, payload string) func(int) string {
	field := pk(typeName)
	records := make([]rec.Record, perfRecords)
	for i := range records {
		records[i] = rec.Record{field: perfID(prefix, i), "payload": payload}
	}
	if _, err := fsStore.Create(ctx, typeName, records); err != nil {
		log.Errorf("(%s) - error creating records: %v", prefix, err)
	}

	return func(i int) string {
		return perfID(prefix, i)
	}
}

// cleanup deletes all test records of a benchmark
func cleanup(ctx context.Context, typeName, prefix string) {
	ids, err := fsStore.IDs(ctx, typeName)
	if err != nil {
		log.Errorf("(%s) - error listing records: %v", prefix, err)
		return
	}

	var own []string
	for _, id := range ids {
		if strings.HasPrefix(id, perfIDPrefix+"-"+prefix+"-") {
			own = append(own, id)
		}
	}
	if len(own) == 0 {
		return
	}
	if _, err := fsStore.Delete(ctx, typeName, own); err != nil {
		log.Errorf("(%s) - error deleting records: %v", prefix, err)
	}
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath, typeName string, results map[string]testing.BenchmarkResult, config common.Config) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Type", "Codec", "ConcurrentReads", "LockTimeout",
		"Threads", "Records", "FieldSizeKB",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			typeName,
			config.Codec,
			strconv.Itoa(config.ConcurrentReads),
			config.LockTimeout.String(),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfRecords),
			strconv.Itoa(perfFieldSize),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
