package storage

import "time"

const (
	KeySettings = "settings"
	KeyTrackers = "trackers"
	KeyNextID   = "next_id"
)

type Completion struct {
	At         time.Time     `json:"at"`
	Adjustment time.Duration `json:"adjustment_ns"`
}

type Tracker struct {
	ID         int64        `json:"id"`
	Name       string       `json:"name"`
	CreatedAt  time.Time    `json:"created_at"`
	ModifiedAt time.Time    `json:"modified_at"`
	History    []Completion `json:"history"`
}

// State is everything the store keeps under its top-level keys.
type State struct {
	Trackers map[int64]Tracker
	Settings map[string]float64
	NextID   int64
}

func (s *State) reconcile() {
	if s.Trackers == nil {
		s.Trackers = map[int64]Tracker{}
	}
	if s.NextID < 1 {
		s.NextID = 1
	}
	for id := range s.Trackers {
		if id >= s.NextID {
			s.NextID = id + 1
		}
	}
}

func copySettings(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
