package savecodec

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"avsave/types"
)

// Session is one loaded save: the document being edited, and enough about the file to put it back.
// Fields are exported so the CLI can stash a session between commands.
type Session struct {
	// Path is what was opened: a file, or a PS3 save directory
	Path     string
	File     string // the file the document was read from
	Platform types.Platform

	Doc  *types.Document
	Span types.PayloadSpan

	// Direct is true if there was no container and the whole file was parsed as XML.
	Direct bool

	// Fingerprint of File when it was loaded (or last saved), to notice other programs writing to it.
	Fingerprint [32]byte

	Saves int
}

func Fingerprint(data []byte) [32]byte {
	return blake3.Sum256(data)
}

func (s *Session) Short_fingerprint() string {
	return hex.EncodeToString(s.Fingerprint[:6])
}
