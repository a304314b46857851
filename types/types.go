package types

import (
	"errors"
	"fmt"
	"strings"
)

type Platform int

const (
	PT_NONE Platform = iota
	PT_XBOX          // fixed offset, fixed-size slot, real checksum
	PT_PC            // marker search, tolerant
	PT_PS3           // marker search, strict header/footer
)

var platform_names = map[Platform]string{
	PT_NONE: "none",
	PT_XBOX: "xbox",
	PT_PC:   "pc",
	PT_PS3:  "ps3",
}

func (p Platform) String() string {
	name, ok := platform_names[p]
	if !ok {
		return fmt.Sprintf("Platform(%d)", int(p))
	}
	return name
}

// ParsePlatform accepts the names used in the ini file and on the command line.
func ParsePlatform(s string) (Platform, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for p, name := range platform_names {
		if p != PT_NONE && name == want {
			return p, nil
		}
	}
	return PT_NONE, fmt.Errorf("unknown platform %q (expected xbox, pc or ps3)", s)
}

// PayloadSpan is where the XML payload sits inside a container.
// End is exclusive. End is -1 when a start marker was found but no end marker.
type PayloadSpan struct {
	Start      int
	End        int
	SourceSize int

	// Root is the root tag name spelled the way the file spells it, e.g. "SaveGame".
	Root string
}

func (s PayloadSpan) Len() int {
	if s.End < 0 {
		return 0
	}
	return s.End - s.Start
}

func (s PayloadSpan) HasFooter() bool {
	return s.End >= 0
}

// Locate errors
var (
	// ErrNotFound means no recognizable XML start marker was found.
	ErrNotFound = errors.New("no XML start marker found")

	// ErrNoFooter means a start marker was found but no matching end marker.
	ErrNoFooter = fmt.Errorf("%w: no XML end marker found", ErrNotFound)

	// ErrFormat means the bytes do not have the expected fixed layout.
	ErrFormat = errors.New("unexpected save file layout")
)

// Decode errors
var (
	// ErrParse means the payload is not well-formed XML.
	ErrParse = errors.New("malformed XML")
)

// Save errors
var (
	// ErrCapacity means a serialized payload does not fit its fixed-size slot.
	ErrCapacity = errors.New("save too large for payload slot")

	// ErrStructure means a header or footer marker the format requires is missing at save time.
	ErrStructure = errors.New("save file structure not preserved")

	// ErrChangedOnDisk means the file is not the one the session was loaded from.
	ErrChangedOnDisk = errors.New("save file changed on disk since load")
)

// ErrChecksumMismatch is informational only; loads and saves carry on regardless.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrNoSuchNode means a NodeID does not name a live element of the document.
var ErrNoSuchNode = errors.New("no such element")

type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v at line %d: %v", ErrParse, e.Line, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrParse, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

type CapacityError struct {
	Size     int
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%v: payload is %d bytes, slot holds %d (%d over)", ErrCapacity, e.Size, e.Capacity, e.Size-e.Capacity)
}

func (e *CapacityError) Unwrap() error { return ErrCapacity }

type StructureError struct {
	Missing string // "header" or "footer"
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%v: %s marker not found in original file", ErrStructure, e.Missing)
}

func (e *StructureError) Unwrap() error { return ErrStructure }
