package manager

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sandeepkv93/trf/internal/model"
	"github.com/sandeepkv93/trf/internal/timefmt"
)

var specSeparator = regexp.MustCompile(`,\s+`)

// CreateFromSpec handles "name[, datetime[, duration]]". The tracker is kept
// even when the completion parts fail to parse; the returned id is non-zero
// whenever a tracker was created.
func (m *Manager) CreateFromSpec(ctx context.Context, raw string) (int64, error) {
	parts := specSeparator.Split(strings.TrimSpace(raw), 3)
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return 0, model.ErrEmptyName
	}

	id, err := m.AddTracker(ctx, name)
	if err != nil {
		return 0, err
	}
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return id, nil
	}

	now := m.now()
	at, dtErr := timefmt.ParseDatetime(parts[1], now)
	var d time.Duration
	var durErr error
	hasDur := len(parts) > 2 && strings.TrimSpace(parts[2]) != ""
	if hasDur {
		d, durErr = timefmt.ParseDuration(parts[2])
	}
	if dtErr != nil {
		err := dtErr
		if durErr != nil {
			err = fmt.Errorf("%w; %w", dtErr, durErr)
		}
		m.log.Info("new tracker completion rejected", "id", id, "error", err)
		return id, err
	}

	events := []model.CompletionEvent{{At: at}}
	if hasDur && durErr == nil {
		events = append(events, model.CompletionEvent{At: at.Add(-d)})
	}
	if _, err := m.RecordCompletions(ctx, id, events); err != nil {
		return id, errors.Join(err, durErr)
	}
	if durErr != nil {
		m.log.Info("new tracker interval rejected", "id", id, "error", durErr)
	}
	return id, durErr
}
