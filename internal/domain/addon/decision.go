package addon

import "github.com/GriffinCanCode/chmon/internal/shared/utils"

// IsUpdatable reports whether the installed version differs from the remote
// one. Only the digits of each version are compared, so "Rematch_4_10_15"
// and "4.10.15" are equal. When either side has no digits the raw strings
// are compared instead.
func IsUpdatable(local, remote string) bool {
	l, r := utils.StripNonDigits(local), utils.StripNonDigits(remote)
	if l == "" || r == "" {
		return local != remote
	}
	return l != r
}
