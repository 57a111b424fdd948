package types

import (
	"fmt"
	"strings"
)

// ReleaseChannel is the stability tier of a release, or of a user preference.
// Default is only meaningful as a preference and defers to the next level up.
type ReleaseChannel string

const (
	ChannelDefault ReleaseChannel = "default"
	ChannelStable  ReleaseChannel = "stable"
	ChannelBeta    ReleaseChannel = "beta"
	ChannelAlpha   ReleaseChannel = "alpha"
)

// ReleaseChannels lists the concrete channels from most to least stable.
var ReleaseChannels = []ReleaseChannel{ChannelStable, ChannelBeta, ChannelAlpha}

// ParseReleaseChannel accepts any casing; an empty string means Default.
func ParseReleaseChannel(s string) (ReleaseChannel, error) {
	switch c := ReleaseChannel(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ChannelDefault, nil
	case ChannelDefault, ChannelStable, ChannelBeta, ChannelAlpha:
		return c, nil
	default:
		return "", fmt.Errorf("unknown release channel %q", s)
	}
}

// rank orders channels by stability; Default has no rank.
func (c ReleaseChannel) rank() int {
	switch c {
	case ChannelStable:
		return 0
	case ChannelBeta:
		return 1
	case ChannelAlpha:
		return 2
	default:
		return -1
	}
}

// Accepts reports whether a release published on other is acceptable to a
// user following c: stable releases satisfy everyone, alpha only alpha.
func (c ReleaseChannel) Accepts(other ReleaseChannel) bool {
	if c.rank() < 0 || other.rank() < 0 {
		return false
	}
	return other.rank() <= c.rank()
}

// IsDefault reports whether the preference defers to a broader setting
func (c ReleaseChannel) IsDefault() bool {
	return c == ChannelDefault || c == ""
}

func (c ReleaseChannel) String() string {
	if c == "" {
		return string(ChannelDefault)
	}
	return string(c)
}
