package tables

// Static format knowledge: root markers, the fixed Xbox layout, file names.
// Game-content ID tables (territories, skills, pandorapedia...) belong to the editing front end, not here.

import (
	"bytes"

	"avsave/types"
)

// Marker is one spelling of the root element, e.g. "Savegame".
type Marker struct {
	Root string
}

func (m Marker) Open() []byte  { return []byte("<" + m.Root) }
func (m Marker) Close() []byte { return []byte("</" + m.Root + ">") }

// Root_markers is in search order: the first spelling found in a file wins, regardless of position.
// Files from the same game are not consistent about case.
var Root_markers = []Marker{
	{"Savegame"},
	{"SaveGame"},
	{"savegame"},
	{"SaveData"},
}

// Marker_for returns the marker spelled exactly as root.
func Marker_for(root string) (Marker, bool) {
	for _, m := range Root_markers {
		if m.Root == root {
			return m, true
		}
	}
	return Marker{}, false
}

// Is_tag_end reports whether b can follow a tag name.
func Is_tag_end(b byte) bool {
	switch b {
	case '>', '/', ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

// Contains_marker is the cheap "is there a save in here at all" test.
func Contains_marker(data []byte) bool {
	for _, m := range Root_markers {
		if bytes.Contains(data, m.Open()) {
			return true
		}
	}
	return false
}

// Xbox 360 layout.
//
// bytes 0x0000-0x0007: ???
// bytes 0x0008-0x000B: checksum, little endian (see checksum.Rotating_sum)
// bytes 0x000C-0x07FF: ??? (left alone)
// bytes 0x0800-0x11FFF: XML payload slot.  Payload first, then whatever was there before (usually NULs)
// bytes 0x12000-EOF: ??? (left alone)
const (
	XBOX_XML_START = 0x800
	XBOX_XML_END   = 0x12000
	XBOX_SLOT_SIZE = XBOX_XML_END - XBOX_XML_START

	XBOX_CHECKSUM_OFFSET = 8
	XBOX_CHECKSUM_SEED   = 0x14D
)

// Sizes seen on real Xbox saves. Anything else gets a warning, not a refusal.
var Xbox_file_sizes = []int{454656, 448000}

func Is_xbox_size(n int) bool {
	for _, s := range Xbox_file_sizes {
		if s == n {
			return true
		}
	}
	return false
}

// Minimum run of NULs that counts as padding.
const MIN_PADDING_RUN = 8

// PS3 saves are directories; the same payload lives in each of these files.
var Ps3_save_files = []string{"SAVEDATA.000", "PADDING.000"}

// Files alongside the PS3 save files that sign them. Never written.
var Ps3_param_files = []string{"PARAM.SFO", "PARAM.PFD"}

// Written in front of payloads that have no binary header to sit behind.
var Xml_declaration = []byte("<?xml version='1.0' encoding='utf-8'?>\n")

// File name patterns for each platform's saves, for listing what is there to load.
var Extensions = map[types.Platform][]string{
	types.PT_XBOX: {"*.sav"},
	types.PT_PC:   {"*.sav"},
	types.PT_PS3:  {"SAVEDATA.*", "PADDING.*"},
}
