//go:build !windows

package filesystem

func isSharingViolation(error) bool { return false }
