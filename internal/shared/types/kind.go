package types

import "fmt"

// RepositoryKind names a remote addon source.
type RepositoryKind string

const (
	KindCurse RepositoryKind = "curse"
	KindTukui RepositoryKind = "tukui"
	KindWowI  RepositoryKind = "wowi"
	KindHub   RepositoryKind = "hub"
	KindGit   RepositoryKind = "git"
)

// RepositoryKinds lists every supported source.
var RepositoryKinds = []RepositoryKind{KindCurse, KindTukui, KindWowI, KindHub, KindGit}

// ParseRepositoryKind converts a stored kind name
func ParseRepositoryKind(s string) (RepositoryKind, error) {
	k := RepositoryKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown repository kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is a supported source
func (k RepositoryKind) Valid() bool {
	switch k {
	case KindCurse, KindTukui, KindWowI, KindHub, KindGit:
		return true
	}
	return false
}

// ContentAddressed reports whether addons of this kind are identified by
// their folder fingerprints rather than by a stored id.
func (k RepositoryKind) ContentAddressed() bool {
	return k == KindCurse
}

// String returns a human readable name
func (k RepositoryKind) String() string {
	switch k {
	case KindCurse:
		return "CurseForge"
	case KindTukui:
		return "Tukui"
	case KindWowI:
		return "WoWInterface"
	case KindHub:
		return "Hub"
	case KindGit:
		return "Git"
	default:
		return string(k)
	}
}
