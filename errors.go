package codec

import "fmt"

// ErrorKind identifies the category of a CodecError, letting callers
// distinguish a graceful end-of-stream from a corrupt-data failure
// without string matching.
type ErrorKind int

const (
	// ErrorKindUninitializedStream: an operation was attempted before any
	// CodecMetadata was set.
	ErrorKindUninitializedStream ErrorKind = iota
	// ErrorKindEndOfFile: a caller polled past the last ADU; a graceful
	// end of stream.
	ErrorKindEndOfFile
	// ErrorKindDeserialize: unexpected EOF or malformed data mid-ADU,
	// mid-block, or mid-symbol.
	ErrorKindDeserialize
	// ErrorKindBadFile: the surrounding file container is malformed.
	ErrorKindBadFile
	// ErrorKindWrongMagic: the surrounding file container's magic bytes
	// do not match.
	ErrorKindWrongMagic
	// ErrorKindUnsupportedVersion: the stream declares a codec version
	// this module does not know how to read.
	ErrorKindUnsupportedVersion
	// ErrorKindSeek: an illegal seek position was requested (not at a
	// valid event boundary).
	ErrorKindSeek
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindUninitializedStream:
		return "UninitializedStream"
	case ErrorKindEndOfFile:
		return "EndOfFile"
	case ErrorKindDeserialize:
		return "Deserialize"
	case ErrorKindBadFile:
		return "BadFile"
	case ErrorKindWrongMagic:
		return "WrongMagic"
	case ErrorKindUnsupportedVersion:
		return "UnsupportedVersion"
	case ErrorKindSeek:
		return "Seek"
	default:
		return "Unknown"
	}
}

// CodecError is the error type surfaced at the codec boundary: a Kind
// callers can switch on via errors.Is against the sentinels below, plus
// an optional wrapped cause.
type CodecError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel for e's Kind, so callers can
// write errors.Is(err, codec.ErrEndOfFile) instead of comparing Kind
// directly.
func (e *CodecError) Is(target error) bool {
	t, ok := target.(*CodecError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for errors.Is comparisons; each carries only a Kind, no
// message or cause.
var (
	ErrUninitializedStream = &CodecError{Kind: ErrorKindUninitializedStream}
	ErrEndOfFile           = &CodecError{Kind: ErrorKindEndOfFile}
	ErrDeserialize         = &CodecError{Kind: ErrorKindDeserialize}
	ErrBadFile             = &CodecError{Kind: ErrorKindBadFile}
	ErrWrongMagic          = &CodecError{Kind: ErrorKindWrongMagic}
	ErrUnsupportedVersion  = &CodecError{Kind: ErrorKindUnsupportedVersion}
	ErrSeek                = &CodecError{Kind: ErrorKindSeek}
)
