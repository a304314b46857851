package types

import (
	"errors"
	"testing"
)

// small builds <Savegame><PlayerProfile><BaseInfo Money="10"/></PlayerProfile><Metagame/></Savegame>
func small(t *testing.T) (*Document, NodeID, NodeID, NodeID) {
	t.Helper()
	doc := NewDocument("Savegame")
	profile, err := doc.AppendChild(doc.Root, "PlayerProfile")
	if err != nil {
		t.Fatal(err)
	}
	base, err := doc.AppendChild(profile, "BaseInfo")
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.SetAttr(base, "Money", "10"); err != nil {
		t.Fatal(err)
	}
	meta, err := doc.AppendChild(doc.Root, "Metagame")
	if err != nil {
		t.Fatal(err)
	}
	return doc, profile, base, meta
}

func Test_Find(t *testing.T) {
	doc, profile, base, meta := small(t)

	tests := []struct {
		from NodeID
		path string
		want NodeID
		ok   bool
	}{
		{doc.Root, "PlayerProfile", profile, true},
		{doc.Root, "PlayerProfile/BaseInfo", base, true},
		{doc.Root, "/Metagame", meta, true},
		{doc.Root, "", doc.Root, true},
		{profile, ".", profile, true},
		{doc.Root, "BaseInfo", NoNode, false},
		{doc.Root, "PlayerProfile/Nope", NoNode, false},
	}
	for _, tt := range tests {
		got, ok := doc.Find(tt.from, tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Find(%v, %q) = %v, %v; want %v, %v", tt.from, tt.path, got, ok, tt.want, tt.ok)
		}
	}

	if got, ok := doc.FindDescendant(doc.Root, "BaseInfo"); !ok || got != base {
		t.Errorf("FindDescendant(BaseInfo) = %v, %v", got, ok)
	}
	if got := doc.Path(base); got != "Savegame/PlayerProfile/BaseInfo" {
		t.Errorf("Path = %q", got)
	}
}

func Test_Attrs(t *testing.T) {
	doc, _, base, _ := small(t)

	doc.SetAttr(base, "Health", "100")
	doc.SetAttr(base, "Money", "20")
	attrs := doc.Attrs(base)
	want := []Attr{{"Money", "20"}, {"Health", "100"}}
	if len(attrs) != len(want) {
		t.Fatalf("got %v, want %v", attrs, want)
	}
	for i := range want {
		if attrs[i] != want[i] {
			t.Errorf("attr %d: got %v, want %v", i, attrs[i], want[i])
		}
	}

	// editing the copy does nothing to the document
	attrs[0].Value = "9999"
	if v, _ := doc.Attr(base, "Money"); v != "20" {
		t.Errorf("Money = %q after editing a copy", v)
	}

	removed, err := doc.DelAttr(base, "Money")
	if err != nil || !removed {
		t.Errorf("DelAttr(Money) = %v, %v", removed, err)
	}
	removed, err = doc.DelAttr(base, "Money")
	if err != nil || removed {
		t.Errorf("second DelAttr(Money) = %v, %v", removed, err)
	}
	if _, ok := doc.Attr(base, "Money"); ok {
		t.Error("Money still there")
	}
	if err := doc.SetAttr(base, "", "x"); err == nil {
		t.Error("empty attribute name accepted")
	}
}

func Test_SetAttrTouchesOneElement(t *testing.T) {
	doc, profile, base, meta := small(t)
	doc.SetAttr(profile, "Name", "Jake")
	doc.SetText(profile, "\n")
	doc.SetAttr(meta, "Turn", "3")

	if err := doc.SetAttr(base, "Money", "5000"); err != nil {
		t.Fatal(err)
	}
	if v, _ := doc.Attr(base, "Money"); v != "5000" {
		t.Errorf("Money = %q", v)
	}
	if attrs := doc.Attrs(profile); len(attrs) != 1 || attrs[0] != (Attr{"Name", "Jake"}) {
		t.Errorf("parent attrs = %v", attrs)
	}
	if got := doc.Text(profile); got != "\n" {
		t.Errorf("parent text = %q", got)
	}
	if attrs := doc.Attrs(meta); len(attrs) != 1 || attrs[0] != (Attr{"Turn", "3"}) {
		t.Errorf("sibling of parent attrs = %v", attrs)
	}
	if attrs := doc.Attrs(doc.Root); len(attrs) != 0 {
		t.Errorf("root attrs = %v", attrs)
	}

	// a sibling of the same tag keeps its own copy
	other, _ := doc.AppendChild(profile, "BaseInfo")
	doc.SetAttr(other, "Money", "1")
	doc.SetAttr(base, "Money", "2")
	if v, _ := doc.Attr(other, "Money"); v != "1" {
		t.Errorf("sibling Money = %q", v)
	}
}

func Test_Remove(t *testing.T) {
	doc, profile, base, meta := small(t)

	if err := doc.Remove(doc.Root); err == nil {
		t.Error("removed the root")
	}
	if err := doc.Remove(profile); err != nil {
		t.Fatal(err)
	}
	if doc.Valid(profile) || doc.Valid(base) {
		t.Error("removed subtree still valid")
	}
	if err := doc.SetAttr(base, "Money", "1"); !errors.Is(err, ErrNoSuchNode) {
		t.Errorf("SetAttr on removed element: got %v, want ErrNoSuchNode", err)
	}
	if kids := doc.Children(doc.Root); len(kids) != 1 || kids[0] != meta {
		t.Errorf("root children = %v, want [%v]", kids, meta)
	}
	if doc.Len() != 2 {
		t.Errorf("Len = %d, want 2", doc.Len())
	}

	before := doc.Clone()
	doc.Compact()
	if len(doc.Elements) != 2 {
		t.Errorf("%d elements after Compact, want 2", len(doc.Elements))
	}
	if !doc.Equal(before) {
		t.Error("Compact changed the document")
	}
	if _, ok := doc.Find(doc.Root, "Metagame"); !ok {
		t.Error("Metagame lost by Compact")
	}
}

func Test_Clone(t *testing.T) {
	doc, _, base, _ := small(t)
	c := doc.Clone()
	c.SetAttr(base, "Money", "0")
	c.AppendChild(c.Root, "Territory")

	if v, _ := doc.Attr(base, "Money"); v != "10" {
		t.Errorf("clone edit leaked into original: Money = %q", v)
	}
	if doc.Len() != 4 {
		t.Errorf("clone edit leaked into original: Len = %d", doc.Len())
	}
	if doc.Equal(c) {
		t.Error("different documents compare equal")
	}
}

func Test_Equal(t *testing.T) {
	a, _, _, _ := small(t)
	b, _, _, _ := small(t)
	if !a.Equal(b) {
		t.Fatal("same documents compare unequal")
	}

	// formatting whitespace does not count
	b.SetText(b.Root, "\n  ")
	b.SetTail(1, "\n")
	if !a.Equal(b) {
		t.Error("whitespace made a difference")
	}

	b.SetText(b.Root, "words")
	if a.Equal(b) {
		t.Error("text made no difference")
	}

	c, _, base, _ := small(t)
	c.SetTag(base, "OtherInfo")
	if a.Equal(c) {
		t.Error("tag made no difference")
	}
}

func Test_Errors(t *testing.T) {
	if !errors.Is(ErrNoFooter, ErrNotFound) {
		t.Error("ErrNoFooter is not an ErrNotFound")
	}

	var err error = &CapacityError{Size: 10, Capacity: 5}
	if !errors.Is(err, ErrCapacity) {
		t.Error("CapacityError is not ErrCapacity")
	}
	err = &StructureError{Missing: "footer"}
	if !errors.Is(err, ErrStructure) {
		t.Error("StructureError is not ErrStructure")
	}
	inner := errors.New("bad")
	err = &ParseError{Line: 3, Err: inner}
	if !errors.Is(err, ErrParse) || !errors.Is(err, inner) {
		t.Error("ParseError does not unwrap")
	}
}

func Test_ParsePlatform(t *testing.T) {
	for _, p := range []Platform{PT_XBOX, PT_PC, PT_PS3} {
		got, err := ParsePlatform(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePlatform(%q) = %v, %v", p.String(), got, err)
		}
	}
	if got, err := ParsePlatform(" PS3 "); err != nil || got != PT_PS3 {
		t.Errorf("ParsePlatform(\" PS3 \") = %v, %v", got, err)
	}
	if _, err := ParsePlatform("none"); err == nil {
		t.Error("none accepted as a platform")
	}
}
