package writers

import (
	"strings"
	"testing"

	"avsave/logging"
	"avsave/readers"
)

func init() {
	logging.Quiet()
}

func Test_EncodeRoundTrip(t *testing.T) {
	// already in the form Encode writes, so it must come back byte for byte
	tests := []string{
		`<Savegame><PlayerProfile x="1" /></Savegame>`,
		"<Savegame>\n  <a k=\"&amp;&lt;&gt;&quot;\">t&amp;t</a>\n  <b />\n</Savegame>",
		`<SaveGame><ns:a ns:k="v" /><c>x<d />y</c></SaveGame>`,
		"<Savegame n=\"line&#10;break\">&#13;</Savegame>",
	}
	for _, in := range tests {
		doc, err := readers.ParseString(in)
		if err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		got := string(Encode(doc, Options{}))
		if got != in {
			t.Errorf("round trip:\n got %q\nwant %q", got, in)
		}
	}
}

func Test_EncodeRoot(t *testing.T) {
	doc, err := readers.ParseString(`<savegame><a /></savegame>`)
	if err != nil {
		t.Fatal(err)
	}
	got := string(Encode(doc, Options{Root: "SaveGame", Declaration: true}))
	want := "<?xml version='1.0' encoding='utf-8'?>\n<SaveGame><a /></SaveGame>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	// the document itself keeps its own root name
	if doc.Tag(doc.Root) != "savegame" {
		t.Errorf("Encode renamed the root to %q", doc.Tag(doc.Root))
	}
}

func Test_Pretty(t *testing.T) {
	doc, err := readers.ParseString("<Savegame><PlayerProfile><BaseInfo Money=\"5\"/></PlayerProfile><Name> Bob </Name></Savegame>")
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		`<?xml version="1.0" encoding="utf-8"?>`,
		`<Savegame>`,
		`  <PlayerProfile>`,
		`    <BaseInfo Money="5"/>`,
		`  </PlayerProfile>`,
		`  <Name>Bob</Name>`,
		`</Savegame>`,
		``,
	}, "\n")
	if got := Pretty(doc); got != want {
		t.Errorf("got\n%v\nwant\n%v", got, want)
	}

	// and it parses back to the same thing
	again, err := readers.ParseString(Pretty(doc))
	if err != nil {
		t.Fatal(err)
	}
	name, _ := again.Find(again.Root, "Name")
	again.SetText(name, " Bob ")
	if !again.Equal(doc) {
		t.Error("Pretty output parses to a different document")
	}
}
