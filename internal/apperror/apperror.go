// Package apperror defines the typed error kinds shared across the indexing
// subsystem, so HTTP handlers and logs can distinguish "not found" from
// "decode failed" from "persistence degraded" without string matching.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purposes of status-code mapping and logging.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindMapping
	KindIO
	KindDecode
	KindPersistence
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindMapping:
		return "mapping"
	case KindIO:
		return "io"
	case KindDecode:
		return "decode"
	case KindPersistence:
		return "persistence"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Kind and a short message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of err if it (or something it wraps) is an *Error,
// otherwise KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

var (
	ErrDirectoryNotFound = New(KindNotFound, "directory not found")
	ErrArtistNotFound    = New(KindNotFound, "artist not found")
	ErrAlbumNotFound     = New(KindNotFound, "album not found")
	ErrGenreNotFound     = New(KindNotFound, "genre not found")
	ErrSongNotFound      = New(KindNotFound, "song not found")

	ErrCouldNotMapToRealPath    = New(KindMapping, "could not map virtual path to a real path")
	ErrCouldNotMapToVirtualPath = New(KindMapping, "could not map real path to a virtual path")

	ErrSearchQueryParse = New(KindQuery, "could not parse search query")

	ErrIndexSerialization   = New(KindPersistence, "could not serialize index")
	ErrIndexDeserialization = New(KindPersistence, "could not deserialize index")
)

// NotFoundf builds a Not-found error carrying the offending path, matching
// spec's DirectoryNotFound(path)-style constructors.
func NotFoundf(base *Error, format string, args ...any) *Error {
	return &Error{Kind: base.Kind, Msg: fmt.Sprintf("%s: %s", base.Msg, fmt.Sprintf(format, args...))}
}
