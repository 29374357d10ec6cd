package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/climateengine/build-sensor/internal/storage"
	"github.com/climateengine/build-sensor/internal/wire"
)

var (
	historyFilter storage.ListFilter
	historyOutput string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Shows recent trigger outcomes from the dispatch history",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		store, cleanup, err := wire.InitializeHistoryStore(ctx)
		if err != nil {
			return fmt.Errorf("failed to open dispatch history: %w", err)
		}
		defer cleanup()

		records, err := store.ListOutcomes(ctx, historyFilter)
		if err != nil {
			return fmt.Errorf("failed to list outcomes: %w", err)
		}

		if historyOutput != formatText {
			return encode(os.Stdout, historyOutput, records)
		}
		if len(records) == 0 {
			dimColor.Println("No trigger outcomes recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSENSOR\tTRIGGER\tEVENT\tSTATUS\tWORKFLOW\tATTEMPTS\tDURATION")
		for _, r := range records {
			workflow := r.WorkflowName
			if workflow == "" {
				workflow = r.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				r.StartedAt.Local().Format(time.RFC822),
				r.Sensor,
				r.Trigger,
				r.EventID,
				r.Status,
				workflow,
				r.Attempts,
				r.Duration().Round(time.Millisecond),
			)
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	historyCmd.Flags().StringVar(&historyFilter.Sensor, "sensor", "", "Only show outcomes of this sensor")
	historyCmd.Flags().StringVar(&historyFilter.EventID, "event-id", "", "Only show outcomes of this event")
	historyCmd.Flags().StringVar(&historyFilter.Status, "status", "", "Only show outcomes with this status")
	historyCmd.Flags().IntVarP(&historyFilter.Limit, "limit", "n", storage.DefaultListLimit, "Maximum number of outcomes")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", formatText, "Output format: text, json or yaml")
	rootCmd.AddCommand(historyCmd)
}
