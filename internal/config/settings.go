package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"

	"github.com/GriffinCanCode/chmon/internal/providers/filesystem"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/pelletier/go-toml/v2"
)

// Settings are the user choices persisted in settings.toml. Maps are keyed by
// flavor name, then addon id.
type Settings struct {
	Flavor               string                       `toml:"flavor"`
	Directory            string                       `toml:"directory"`
	GlobalReleaseChannel string                       `toml:"global_release_channel"`
	ReleaseChannels      map[string]map[string]string `toml:"release_channels"`
	Ignored              map[string][]string          `toml:"ignored"`
	AutoUpdate           bool                         `toml:"auto_update"`

	mu sync.RWMutex
}

// DefaultSettings targets retail on the stable channel.
func DefaultSettings() *Settings {
	return &Settings{
		Flavor:               string(types.FlavorRetail),
		GlobalReleaseChannel: string(types.ChannelStable),
		ReleaseChannels:      map[string]map[string]string{},
		Ignored:              map[string][]string{},
	}
}

// LoadSettings reads path. A missing file yields defaults with no error; a
// corrupt file yields defaults together with the parse error so the caller
// can report it.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return DefaultSettings(), &types.ParseError{Path: path, Err: err}
	}

	s := DefaultSettings()
	if err := toml.Unmarshal(data, s); err != nil {
		return DefaultSettings(), &types.ParseError{Path: path, Err: err}
	}
	s.normalize()
	return s, nil
}

func (s *Settings) normalize() {
	if _, err := types.ParseFlavor(s.Flavor); err != nil {
		s.Flavor = string(types.FlavorRetail)
	}
	if c, err := types.ParseReleaseChannel(s.GlobalReleaseChannel); err != nil || c.IsDefault() {
		s.GlobalReleaseChannel = string(types.ChannelStable)
	}
	if s.ReleaseChannels == nil {
		s.ReleaseChannels = map[string]map[string]string{}
	}
	if s.Ignored == nil {
		s.Ignored = map[string][]string{}
	}
}

// Save writes the settings atomically.
func (s *Settings) Save(path string) error {
	s.mu.RLock()
	var buf bytes.Buffer
	err := toml.NewEncoder(&buf).SetIndentTables(true).Encode(s)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	return filesystem.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// SelectedFlavor returns the active flavor
func (s *Settings) SelectedFlavor() types.Flavor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, err := types.ParseFlavor(s.Flavor)
	if err != nil {
		return types.FlavorRetail
	}
	return f
}

// GlobalChannel returns the channel addons on Default follow
func (s *Settings) GlobalChannel() types.ReleaseChannel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := types.ParseReleaseChannel(s.GlobalReleaseChannel)
	if err != nil {
		return types.ChannelStable
	}
	return c
}

// SetGlobalChannel changes the global channel
func (s *Settings) SetGlobalChannel(c types.ReleaseChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GlobalReleaseChannel = c.String()
}

// ReleaseChannel returns the preference stored for an addon, Default when unset.
func (s *Settings) ReleaseChannel(flavor types.Flavor, addonID string) types.ReleaseChannel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.ReleaseChannels[string(flavor)][addonID]
	if !ok {
		return types.ChannelDefault
	}
	c, err := types.ParseReleaseChannel(raw)
	if err != nil {
		return types.ChannelDefault
	}
	return c
}

// SetReleaseChannel stores a preference; Default removes it.
func (s *Settings) SetReleaseChannel(flavor types.Flavor, addonID string, c types.ReleaseChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.IsDefault() {
		delete(s.ReleaseChannels[string(flavor)], addonID)
		return
	}
	byAddon, ok := s.ReleaseChannels[string(flavor)]
	if !ok {
		byAddon = map[string]string{}
		s.ReleaseChannels[string(flavor)] = byAddon
	}
	byAddon[addonID] = c.String()
}

// IsIgnored reports whether updates for an addon are suppressed
func (s *Settings) IsIgnored(flavor types.Flavor, addonID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.Ignored[string(flavor)], addonID)
}

// SetIgnored adds or removes an addon from the ignore list
func (s *Settings) SetIgnored(flavor types.Flavor, addonID string, ignored bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(flavor)
	ids := s.Ignored[key]
	idx := slices.Index(ids, addonID)
	switch {
	case ignored && idx < 0:
		s.Ignored[key] = append(ids, addonID)
	case !ignored && idx >= 0:
		s.Ignored[key] = slices.Delete(ids, idx, idx+1)
	}
}
