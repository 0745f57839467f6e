package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func addAdd(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:     "add <name[, datetime[, duration]]>",
		Aliases: []string{"new"},
		Short:   "Add a tracker, optionally seeding one or two completions.",
		Example: `
trf add gym
trf add "water plants, 2026-02-01 08:00, 7d"
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a tracker name")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(context.Background(), cmd, ro)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.loadErr != nil {
				return s.loadErr
			}

			id, err := s.mgr.CreateFromSpec(context.Background(), strings.Join(args, " "))
			if id == 0 {
				return err
			}
			t, _ := s.mgr.Tracker(id)
			fmt.Fprintf(cmd.OutOrStdout(), "added tracker %d: %s\n", id, color.GreenString(t.DisplayName()))
			if err != nil {
				return fmt.Errorf("tracker %d created, but: %w", id, err)
			}
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
