package types

import "fmt"

// Flavor identifies one variant of the game client. Every flavor has its own
// directory tree and its own set of installed addons.
type Flavor string

const (
	FlavorRetail     Flavor = "retail"
	FlavorRetailPTR  Flavor = "retail_ptr"
	FlavorRetailBeta Flavor = "retail_beta"
	FlavorClassicTBC Flavor = "classic_tbc"
	FlavorClassicPTR Flavor = "classic_ptr"
	FlavorClassicEra Flavor = "classic_era"
)

// AllFlavors lists every known flavor in display order.
var AllFlavors = []Flavor{
	FlavorRetail,
	FlavorRetailPTR,
	FlavorRetailBeta,
	FlavorClassicTBC,
	FlavorClassicPTR,
	FlavorClassicEra,
}

// ParseFlavor converts a configuration string into a Flavor
func ParseFlavor(s string) (Flavor, error) {
	f := Flavor(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown flavor %q", s)
	}
	return f, nil
}

// Valid reports whether f is one of the known flavors
func (f Flavor) Valid() bool {
	for _, known := range AllFlavors {
		if f == known {
			return true
		}
	}
	return false
}

// FolderName returns the directory the game client uses for this flavor
// directly below the installation root.
func (f Flavor) FolderName() string {
	switch f {
	case FlavorRetail:
		return "_retail_"
	case FlavorRetailPTR:
		return "_ptr_"
	case FlavorRetailBeta:
		return "_beta_"
	case FlavorClassicTBC:
		return "_classic_"
	case FlavorClassicPTR:
		return "_classic_ptr_"
	case FlavorClassicEra:
		return "_classic_era_"
	default:
		return ""
	}
}

// Base collapses test realms onto the flavor remote repositories publish for.
func (f Flavor) Base() Flavor {
	switch f {
	case FlavorRetail, FlavorRetailPTR, FlavorRetailBeta:
		return FlavorRetail
	case FlavorClassicTBC, FlavorClassicPTR:
		return FlavorClassicTBC
	case FlavorClassicEra:
		return FlavorClassicEra
	default:
		return f
	}
}

// String returns a human readable name
func (f Flavor) String() string {
	switch f {
	case FlavorRetail:
		return "Retail"
	case FlavorRetailPTR:
		return "Retail PTR"
	case FlavorRetailBeta:
		return "Retail Beta"
	case FlavorClassicTBC:
		return "Classic TBC"
	case FlavorClassicPTR:
		return "Classic PTR"
	case FlavorClassicEra:
		return "Classic Era"
	default:
		return string(f)
	}
}
