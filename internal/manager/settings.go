package manager

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/trf/internal/storage"
)

// SettingEta scales the spread into the forecast window.
const SettingEta = "η"

func DefaultSettings() map[string]float64 {
	return map[string]float64{SettingEta: 1}
}

func (m *Manager) Settings() map[string]float64 {
	out := make(map[string]float64, len(m.settings))
	for k, v := range m.settings {
		out[k] = v
	}
	return out
}

func (m *Manager) Eta() float64 {
	if v, ok := m.settings[SettingEta]; ok {
		return v
	}
	return DefaultSettings()[SettingEta]
}

func (m *Manager) UpdateSetting(ctx context.Context, key string, value float64) error {
	return m.UpdateSettings(ctx, map[string]float64{key: value})
}

// UpdateSettings validates every key before writing any of them.
func (m *Manager) UpdateSettings(ctx context.Context, updates map[string]float64) error {
	defaults := DefaultSettings()
	for k, v := range updates {
		if _, ok := defaults[k]; !ok {
			m.log.Info("rejected unknown setting", "key", k)
			return fmt.Errorf("%w: %q", ErrUnknownSetting, k)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidSetting, k, v)
		}
	}
	next := m.Settings()
	for k, v := range updates {
		next[k] = v
	}
	if err := m.commit(ctx, "update settings", func(tx storage.Tx) error {
		return tx.PutSettings(next)
	}); err != nil {
		return err
	}
	m.settings = next
	m.log.Info("settings updated", "settings", next)
	m.Refresh()
	return nil
}

func (m *Manager) RestoreDefaults(ctx context.Context) error {
	defaults := DefaultSettings()
	if err := m.commit(ctx, "restore defaults", func(tx storage.Tx) error {
		return tx.PutSettings(defaults)
	}); err != nil {
		return err
	}
	m.settings = defaults
	m.log.Info("restored default settings", "settings", defaults)
	m.Refresh()
	return nil
}

// EncodeSettings renders the settings as an editable YAML document with keys
// in a stable order.
func EncodeSettings(settings map[string]float64) (string, error) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(settings[k])},
		)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}
	return string(out), nil
}

// DecodeSettings parses a settings document. Unknown keys are an error.
func DecodeSettings(doc string) (map[string]float64, error) {
	out := map[string]float64{}
	if strings.TrimSpace(doc) == "" {
		return out, nil
	}
	if err := yaml.Unmarshal([]byte(doc), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	known := DefaultSettings()
	unknown := make([]string, 0)
	for k := range out {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, strings.Join(unknown, ", "))
	}
	return out, nil
}

func formatFloat(v float64) string {
	s := fmt.Sprintf("%g", v)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
