package types

import (
	"errors"
	"fmt"
)

// FilesystemError reports an I/O failure, surfaced after retries are exhausted.
type FilesystemError struct {
	Op       string
	Path     string
	Attempts int
	Err      error
}

func (e *FilesystemError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s %s: %v (after %d attempts)", e.Op, e.Path, e.Err, e.Attempts)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// ParseError reports an unreadable manifest or a failed fingerprint computation.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RepositoryReason classifies why a remote identity could not be resolved.
type RepositoryReason int

const (
	ReasonNotFound RepositoryReason = iota
	ReasonInvalidID
	ReasonInvalidURL
	ReasonTransport
	ReasonUnsupported
)

// String returns the string representation of the reason
func (r RepositoryReason) String() string {
	switch r {
	case ReasonNotFound:
		return "not found"
	case ReasonInvalidID:
		return "invalid id"
	case ReasonInvalidURL:
		return "invalid url"
	case ReasonTransport:
		return "transport failure"
	case ReasonUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// RepositoryError reports a failure to resolve an addon against a remote source.
type RepositoryError struct {
	Kind   RepositoryKind
	ID     string
	Reason RepositoryReason
	Err    error
}

func (e *RepositoryError) Error() string {
	msg := fmt.Sprintf("%s repository: %s", string(e.Kind), e.Reason)
	if e.ID != "" {
		msg += fmt.Sprintf(" (%s)", e.ID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// DownloadError reports a transport failure while fetching a package archive.
type DownloadError struct {
	URL    string
	Status int
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("download %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a RepositoryError caused by a missing remote package.
func IsNotFound(err error) bool {
	var repoErr *RepositoryError
	return errors.As(err, &repoErr) && repoErr.Reason == ReasonNotFound
}
