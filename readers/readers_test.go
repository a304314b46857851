package readers

import (
	"bytes"
	"errors"
	"testing"

	"avsave/logging"
	"avsave/tables"
	"avsave/types"
)

func init() {
	logging.Quiet()
}

func Test_MarkerLocate(t *testing.T) {
	data := []byte("\x00\x00<Savegame><PlayerProfile x=\"1\"/></Savegame>\xff\xff")

	span, err := New_marker_locator().Locate(data)
	if err != nil {
		t.Fatal(err)
	}
	if span.Start != 2 || span.End != 45 {
		t.Errorf("span = %d-%d, want 2-45", span.Start, span.End)
	}
	if data[span.End-1] != '>' || !bytes.Equal(data[span.End:], []byte("\xff\xff")) {
		t.Errorf("span end %d is not just past </Savegame>", span.End)
	}
	if span.Root != "Savegame" || span.SourceSize != len(data) {
		t.Errorf("span = %+v", span)
	}

	doc, err := Decode(data[span.Start:span.End], Ignore)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Tag(doc.Root) != "Savegame" {
		t.Errorf("root = %v", doc.Tag(doc.Root))
	}
	kids := doc.Children(doc.Root)
	if len(kids) != 1 || doc.Tag(kids[0]) != "PlayerProfile" {
		t.Fatalf("children = %v", kids)
	}
	if v, _ := doc.Attr(kids[0], "x"); v != "1" {
		t.Errorf("x = %q", v)
	}
}

func Test_MarkerPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		root  string
		start int
		end   int
	}{
		// Savegame is first in the table, so it wins even when SaveGame comes first in the file
		{"table order", "xx<SaveGame></SaveGame><Savegame></Savegame>", "Savegame", 23, 44},
		{"second marker", "xx<SaveGame a='1'></SaveGame>yy", "SaveGame", 2, 29},
		{"lower case", "<savegame/>..</savegame>", "savegame", 0, 24},
		{"last closer", "<Savegame>a</Savegame>b</Savegame>zz", "Savegame", 0, 34},
		{"not a tag", "<SavegameX><Savegame></Savegame>", "Savegame", 11, 32},
	}
	for _, tt := range tests {
		span, err := New_marker_locator().Locate([]byte(tt.data))
		if err != nil {
			t.Errorf("%v: %v", tt.name, err)
			continue
		}
		if span.Root != tt.root || span.Start != tt.start || span.End != tt.end {
			t.Errorf("%v: got %v %d-%d, want %v %d-%d", tt.name, span.Root, span.Start, span.End, tt.root, tt.start, tt.end)
		}
	}
}

func Test_MarkerMissing(t *testing.T) {
	_, err := New_marker_locator().Locate([]byte("nothing to see here"))
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("no marker: got %v, want ErrNotFound", err)
	}

	span, err := New_marker_locator().Locate([]byte("\x01\x02<SaveData><a/>"))
	if !errors.Is(err, types.ErrNoFooter) || !errors.Is(err, types.ErrNotFound) {
		t.Errorf("no footer: got %v, want ErrNoFooter", err)
	}
	if span.Start != 2 || span.End != -1 || span.HasFooter() || span.Root != "SaveData" {
		t.Errorf("no footer: span = %+v", span)
	}
}

func xbox_file(t *testing.T, payload string) []byte {
	t.Helper()
	data := make([]byte, tables.Xbox_file_sizes[0])
	for i := range data[:tables.XBOX_XML_START] {
		data[i] = byte(i)
	}
	copy(data[tables.XBOX_XML_START:], payload)
	data[tables.XBOX_XML_END] = 0xAB
	return data
}

func Test_FixedLocate(t *testing.T) {
	payload := "<Savegame><a/></Savegame>"
	data := xbox_file(t, payload)
	// an older, longer payload left behind in the slot
	copy(data[tables.XBOX_XML_START+len(payload):], "<b/></Savegame>")

	l := New_xbox_locator()
	span, err := l.Locate(data)
	if err != nil {
		t.Fatal(err)
	}
	if span.Start != tables.XBOX_XML_START || span.End != tables.XBOX_XML_START+len(payload) {
		t.Errorf("span = %d-%d, want %d-%d", span.Start, span.End, tables.XBOX_XML_START, tables.XBOX_XML_START+len(payload))
	}
	if l.Capacity() != tables.XBOX_SLOT_SIZE {
		t.Errorf("capacity = %d", l.Capacity())
	}
}

func Test_FixedLocateErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte("<Savegame></Savegame>")},
		{"no root tag", xbox_file(t, "  <Savegame></Savegame>")},
		{"no closer", xbox_file(t, "<Savegame><a/>")},
	}
	for _, tt := range tests {
		_, err := New_xbox_locator().Locate(tt.data)
		if !errors.Is(err, types.ErrFormat) {
			t.Errorf("%v: got %v, want ErrFormat", tt.name, err)
		}
	}
}
