package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brianly1003/phxstream/internal/output"
	"github.com/brianly1003/phxstream/internal/recorder"
)

var (
	recordsLimit  int
	recordsFormat string
	recordsCount  bool
)

// recordsCmd prints records saved by "tail --record".
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Print recorded stream elements",
	Long: `Print the most recent records saved by "phxstream tail --record",
oldest first.

Examples:
  phxstream records
  phxstream records --limit 100 --format text
  phxstream records --count`,
	RunE: runRecords,
}

func init() {
	recordsCmd.Flags().IntVar(&recordsLimit, "limit", 50, "maximum number of records to print")
	recordsCmd.Flags().BoolVar(&recordsCount, "count", false, "print the number of records and exit")
	recordsCmd.Flags().StringVar(&recordsFormat, "format", "", "output format: json, yaml or text (default: output.format)")
}

func runRecords(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLogging(cfg)

	name := cfg.Output.Format
	if recordsFormat != "" {
		name = recordsFormat
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Recorder.Path); err != nil {
		return fmt.Errorf("no records at %s: %w", cfg.Recorder.Path, err)
	}

	if recordsCount {
		n, err := countRecords(cmd.Context(), cfg.Recorder.Path)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	}

	rec, err := recorder.Open(cfg.Recorder.Path)
	if err != nil {
		return err
	}
	defer rec.Close()

	records, err := rec.List(cmd.Context(), recordsLimit)
	if err != nil {
		return err
	}

	printer := output.NewPrinter("stdout", os.Stdout, format)
	defer printer.Close()
	for i := range records {
		if err := printer.Send(&records[i]); err != nil {
			return err
		}
	}
	return nil
}

// countRecords reports how many records the database at path holds.
func countRecords(ctx context.Context, path string) (int, error) {
	rec, err := recorder.Open(path)
	if err != nil {
		return 0, err
	}
	defer rec.Close()
	return rec.Count(ctx)
}
