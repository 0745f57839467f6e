package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/trf/internal/scheduler"
	"github.com/sandeepkv93/trf/internal/update"
)

func runTUI(cmd *cobra.Command, o *rootOptions) error {
	ctx := context.Background()
	s, err := openSession(ctx, cmd, o)
	if err != nil {
		return err
	}
	defer s.Close()

	var engine *scheduler.Engine
	if s.cfg.DueAlerts {
		engine = scheduler.NewEngine(s.cfg.SchedulerBuffer)
		engine.Start()
		defer engine.Stop()
	}

	m := update.NewModelWithOptions(s.mgr, update.Options{
		Scheduler: engine,
		Logger:    s.log,
		ListWidth: s.cfg.ListWidth,
		Context:   ctx,
	})
	if s.loadErr != nil {
		m.Status = update.StatusBar{Text: fmt.Sprintf("store not loaded, changes are disabled: %v", s.loadErr), IsError: true}
	}

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		s.log.Error("session failed", "error", err)
		return fmt.Errorf("trf failed: %w", err)
	}
	s.log.Info("session ended")
	return nil
}
