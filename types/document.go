package types

import (
	"fmt"
	"strings"
)

// NodeID addresses an element inside the Document that owns it.
// IDs stay valid until the element is removed or the document is compacted.
type NodeID int

const NoNode NodeID = -1

type Attr struct {
	Name  string
	Value string
}

// Element is one XML element.
// Text is the character data before the first child, Tail the character data after
// the end tag and before the next sibling (or the parent's end tag).
type Element struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Tail     string
	Parent   NodeID
	Children []NodeID
	Removed  bool
}

// Document owns every element of one XML tree.
// All reads and edits go through the document, so nothing outlives the session that loaded it.
// Fields are exported for gob, not for editing.
type Document struct {
	Elements []Element
	Root     NodeID
}

func NewDocument(root_tag string) *Document {
	return &Document{
		Elements: []Element{{Tag: root_tag, Parent: NoNode}},
		Root:     0,
	}
}

func (d *Document) get(id NodeID) (*Element, error) {
	if d == nil || id < 0 || int(id) >= len(d.Elements) || d.Elements[id].Removed {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchNode, id)
	}
	return &d.Elements[id], nil
}

func (d *Document) Valid(id NodeID) bool {
	_, err := d.get(id)
	return err == nil
}

// Len counts live elements.
func (d *Document) Len() int {
	n := 0
	for i := range d.Elements {
		if !d.Elements[i].Removed {
			n++
		}
	}
	return n
}

func (d *Document) Tag(id NodeID) string {
	e, err := d.get(id)
	if err != nil {
		return ""
	}
	return e.Tag
}

func (d *Document) Text(id NodeID) string {
	e, err := d.get(id)
	if err != nil {
		return ""
	}
	return e.Text
}

func (d *Document) Tail(id NodeID) string {
	e, err := d.get(id)
	if err != nil {
		return ""
	}
	return e.Tail
}

func (d *Document) Parent(id NodeID) NodeID {
	e, err := d.get(id)
	if err != nil {
		return NoNode
	}
	return e.Parent
}

// Children returns a copy; editing it does not edit the document.
func (d *Document) Children(id NodeID) []NodeID {
	e, err := d.get(id)
	if err != nil {
		return nil
	}
	return append([]NodeID(nil), e.Children...)
}

// Attrs returns a copy, in document order.
func (d *Document) Attrs(id NodeID) []Attr {
	e, err := d.get(id)
	if err != nil {
		return nil
	}
	return append([]Attr(nil), e.Attrs...)
}

func (d *Document) Attr(id NodeID, name string) (string, bool) {
	e, err := d.get(id)
	if err != nil {
		return "", false
	}
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr replaces the value of an existing attribute in place, or appends a new one.
func (d *Document) SetAttr(id NodeID, name, value string) error {
	e, err := d.get(id)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("empty attribute name on <%s>", e.Tag)
	}
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return nil
		}
	}
	e.Attrs = append(e.Attrs, Attr{name, value})
	return nil
}

// DelAttr reports whether the attribute existed.
func (d *Document) DelAttr(id NodeID, name string) (bool, error) {
	e, err := d.get(id)
	if err != nil {
		return false, err
	}
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs = append(e.Attrs[:i:i], e.Attrs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (d *Document) SetTag(id NodeID, tag string) error {
	e, err := d.get(id)
	if err != nil {
		return err
	}
	if tag == "" {
		return fmt.Errorf("empty tag name")
	}
	e.Tag = tag
	return nil
}

func (d *Document) SetText(id NodeID, text string) error {
	e, err := d.get(id)
	if err != nil {
		return err
	}
	e.Text = text
	return nil
}

func (d *Document) SetTail(id NodeID, tail string) error {
	e, err := d.get(id)
	if err != nil {
		return err
	}
	e.Tail = tail
	return nil
}

// AppendChild adds a new, empty element as the last child of parent.
func (d *Document) AppendChild(parent NodeID, tag string) (NodeID, error) {
	if _, err := d.get(parent); err != nil {
		return NoNode, err
	}
	if tag == "" {
		return NoNode, fmt.Errorf("empty tag name")
	}
	id := NodeID(len(d.Elements))
	d.Elements = append(d.Elements, Element{Tag: tag, Parent: parent})
	// append may have moved the arena, so look the parent up again
	p := &d.Elements[parent]
	p.Children = append(p.Children, id)
	return id, nil
}

// Remove detaches an element (and everything under it) from the tree.
// The root can not be removed.
func (d *Document) Remove(id NodeID) error {
	e, err := d.get(id)
	if err != nil {
		return err
	}
	if id == d.Root {
		return fmt.Errorf("can not remove root element <%s>", e.Tag)
	}
	p := &d.Elements[e.Parent]
	for i, c := range p.Children {
		if c == id {
			p.Children = append(p.Children[:i:i], p.Children[i+1:]...)
			break
		}
	}
	d.Walk(id, func(n NodeID) bool {
		d.Elements[n].Removed = true
		return true
	})
	return nil
}

// Walk visits id and its descendants depth first, in document order.
// Returning false from fn skips the children of that element.
func (d *Document) Walk(id NodeID, fn func(NodeID) bool) {
	e, err := d.get(id)
	if err != nil {
		return
	}
	children := append([]NodeID(nil), e.Children...)
	if !fn(id) {
		return
	}
	for _, c := range children {
		d.Walk(c, fn)
	}
}

// Find follows a slash-separated path of child tags from id, taking the first match at each step.
// "" and "." name id itself.
func (d *Document) Find(id NodeID, path string) (NodeID, bool) {
	found := d.FindAll(id, path)
	if len(found) == 0 {
		return NoNode, false
	}
	return found[0], true
}

// FindAll is Find, but keeps every match at every step.
func (d *Document) FindAll(id NodeID, path string) []NodeID {
	if !d.Valid(id) {
		return nil
	}
	current := []NodeID{id}
	for _, step := range strings.Split(path, "/") {
		if step == "" || step == "." {
			continue
		}
		next := []NodeID{}
		for _, n := range current {
			for _, c := range d.Elements[n].Children {
				if d.Elements[c].Tag == step {
					next = append(next, c)
				}
			}
		}
		current = next
	}
	return current
}

// FindDescendant returns the first element below id (document order) with the given tag.
func (d *Document) FindDescendant(id NodeID, tag string) (NodeID, bool) {
	found := NoNode
	d.Walk(id, func(n NodeID) bool {
		if found != NoNode {
			return false
		}
		if n != id && d.Elements[n].Tag == tag {
			found = n
			return false
		}
		return true
	})
	return found, found != NoNode
}

// Path is the slash path from the root to id, for display.
func (d *Document) Path(id NodeID) string {
	parts := []string{}
	for n := id; d.Valid(n); n = d.Elements[n].Parent {
		parts = append([]string{d.Elements[n].Tag}, parts...)
	}
	return strings.Join(parts, "/")
}

// Clone deep-copies the document. IDs are preserved.
func (d *Document) Clone() *Document {
	out := &Document{Elements: make([]Element, len(d.Elements)), Root: d.Root}
	for i, e := range d.Elements {
		e.Attrs = append([]Attr(nil), e.Attrs...)
		e.Children = append([]NodeID(nil), e.Children...)
		out.Elements[i] = e
	}
	return out
}

// Compact drops removed elements from the arena. Every NodeID held outside is invalidated.
func (d *Document) Compact() {
	out := &Document{}
	var copy_in func(id NodeID, parent NodeID) NodeID
	copy_in = func(id NodeID, parent NodeID) NodeID {
		e := d.Elements[id]
		new_id := NodeID(len(out.Elements))
		out.Elements = append(out.Elements, Element{
			Tag:    e.Tag,
			Attrs:  append([]Attr(nil), e.Attrs...),
			Text:   e.Text,
			Tail:   e.Tail,
			Parent: parent,
		})
		kids := make([]NodeID, 0, len(e.Children))
		for _, c := range e.Children {
			kids = append(kids, copy_in(c, new_id))
		}
		out.Elements[new_id].Children = kids
		return new_id
	}
	out.Root = copy_in(d.Root, NoNode)
	*d = *out
}

// Equal compares tags, attributes, child structure and non-whitespace text.
// Whitespace-only text and tails are formatting, and are ignored.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	var eq func(a, b NodeID) bool
	eq = func(a, b NodeID) bool {
		ea, eb := &d.Elements[a], &other.Elements[b]
		if ea.Tag != eb.Tag || len(ea.Attrs) != len(eb.Attrs) || len(ea.Children) != len(eb.Children) {
			return false
		}
		for i := range ea.Attrs {
			if ea.Attrs[i] != eb.Attrs[i] {
				return false
			}
		}
		if strings.TrimSpace(ea.Text) != strings.TrimSpace(eb.Text) {
			return false
		}
		if strings.TrimSpace(ea.Tail) != strings.TrimSpace(eb.Tail) {
			return false
		}
		for i := range ea.Children {
			if !eq(ea.Children[i], eb.Children[i]) {
				return false
			}
		}
		return true
	}
	if !d.Valid(d.Root) || !other.Valid(other.Root) {
		return false
	}
	return eq(d.Root, other.Root)
}
