// Package recon defines the shared error taxonomy for the reconciliation
// pipeline. Stages classify every failure into one of a small set of kinds so
// that callers branch on kind, not on message text.
package recon

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindUnknown is the zero value; never returned deliberately.
	KindUnknown Kind = iota

	// KindMissingSource means an entire per-source file or folder is absent.
	// Fatal for the stage that needs it; aborts the whole run.
	KindMissingSource

	// KindFieldUnparsable means a required field inside an otherwise-present
	// source could not be parsed. Recoverable; encoded as "Data Unavailable".
	KindFieldUnparsable

	// KindNoConfidentMatch means the matcher found no acceptable candidate.
	// Recoverable; encoded as an empty/zero value for that event.
	KindNoConfidentMatch

	// KindProviderUnavailable means the similarity provider credential is
	// missing. Soft-fail: the matching pass is skipped wholesale.
	KindProviderUnavailable

	// KindProviderCallFailed means a single similarity-provider call failed.
	// Logged and treated as no-confident-match for that label.
	KindProviderCallFailed

	// KindFilenameCollision means a rename step would overwrite an existing
	// distinct file. Fatal for the intake stage.
	KindFilenameCollision
)

// String returns the taxonomy name for the kind.
func (k Kind) String() string {
	switch k {
	case KindMissingSource:
		return "MissingSource"
	case KindFieldUnparsable:
		return "FieldUnparsable"
	case KindNoConfidentMatch:
		return "NoConfidentMatch"
	case KindProviderUnavailable:
		return "ProviderUnavailable"
	case KindProviderCallFailed:
		return "NetworkOrProviderError"
	case KindFilenameCollision:
		return "FilenameCollision"
	default:
		return "Unknown"
	}
}

// Fatal reports whether this kind must abort the whole run.
func (k Kind) Fatal() bool {
	return k == KindMissingSource || k == KindFilenameCollision
}

// Error is a classified pipeline failure. Stage names the mini-pipeline that
// produced it (e.g. "charges", "intake").
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a kind and stage.
func NewError(kind Kind, stage string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, stage, format string, args ...any) *Error {
	return &Error{Kind: kind, Stage: stage, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the taxonomy kind from err, or KindUnknown when err carries
// no classification.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err must stop the run immediately.
func IsFatal(err error) bool {
	return KindOf(err).Fatal()
}
