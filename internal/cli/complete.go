package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/trf/internal/timefmt"
)

func addComplete(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:     "complete <id> [datetime[, duration]]",
		Aliases: []string{"done"},
		Short:   "Record a completion for a tracker, now by default.",
		Example: `
trf complete 3
trf complete 3 2026-02-09 18:00, 30m
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid tracker id: %s", args[0])
			}
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if text == "" {
				text = "now"
			}

			s, err := openSession(context.Background(), cmd, ro)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.loadErr != nil {
				return s.loadErr
			}

			ev, err := timefmt.ParseCompletion(text, s.mgr.Now())
			if err != nil {
				return err
			}
			t, err := s.mgr.RecordCompletion(context.Background(), id, ev)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "recorded %s for %s\n", timefmt.FormatCompletion(ev), color.GreenString(t.DisplayName()))
			if next := t.Forecast().NextExpected; next != nil {
				fmt.Fprintf(out, "next expected %s\n", timefmt.FormatDatetime(*next, true))
			}
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
