package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/trf/internal/manager"
)

type listOptions struct {
	Page int
	Sort string
}

func addList(topLevel *cobra.Command, ro *rootOptions) {
	o := &listOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print one page of trackers.",
		Example: `
trf list
trf list --page 2 --sort name
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(context.Background(), cmd, ro)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.loadErr != nil {
				return s.loadErr
			}

			if o.Sort != "" {
				order, err := manager.ParseSortOrder(o.Sort)
				if err != nil {
					return err
				}
				if err := s.mgr.SetSort(order); err != nil {
					return err
				}
			}
			if err := s.mgr.SetPage(o.Page - 1); err != nil {
				return err
			}
			printListing(cmd, s.mgr.CurrentListing(s.cfg.ListWidth))
			return nil
		},
	}
	cmd.Flags().IntVar(&o.Page, "page", 1, "Page to print, starting at 1.")
	cmd.Flags().StringVar(&o.Sort, "sort", "", "Sort order: forecast, latest, name or id.")

	topLevel.AddCommand(cmd)
}

func printListing(cmd *cobra.Command, l manager.Listing) {
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(cmd.OutOrStdout(), "%s  sort: %s\n", bold(l.PageBanner()), l.Sort)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold("tag"), bold("forecast"), bold("η spread"), bold("latest"), bold("name"), bold("window"))
	for _, r := range l.Rows {
		window := ""
		if r.Window.Early != "" {
			window = faint(fmt.Sprintf("%s…%s", r.Window.Early, r.Window.Late))
		}
		tbl.AddRow(string(r.Tag), r.Forecast, r.Spread, r.Latest, r.Name, window)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tbl)
}
