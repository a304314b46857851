package readers

import (
	"bytes"
	"fmt"

	"avsave/logging"
	"avsave/tables"
	"avsave/types"
)

// Locator finds the XML payload inside a save file.
type Locator interface {
	Locate(data []byte) (types.PayloadSpan, error)
}

// Marker_locator finds the payload by searching for root tag markers.
// There is no binary format to speak of: the XML is just sitting in the file at some offset.
type Marker_locator struct {
	Markers []tables.Marker
}

func New_marker_locator() *Marker_locator {
	return &Marker_locator{Markers: tables.Root_markers}
}

// Locate tries every marker in order; the first marker that occurs anywhere wins.
// The end is the last occurrence of that marker's closing tag.
//
// If the start is found but not the end, the returned span is still filled in (with End = -1)
// alongside ErrNoFooter, so that callers that can live without a footer can carry on.
func (l *Marker_locator) Locate(data []byte) (types.PayloadSpan, error) {
	span := types.PayloadSpan{Start: -1, End: -1, SourceSize: len(data)}

	var marker tables.Marker
	for _, m := range l.Markers {
		pos := Index_open(data, m, 0)
		if pos >= 0 {
			span.Start = pos
			span.Root = m.Root
			marker = m
			break
		}
	}
	if span.Start < 0 {
		return span, types.ErrNotFound
	}

	close := bytes.LastIndex(data[span.Start:], marker.Close())
	if close < 0 {
		logging.Log.Debug("start marker without end marker", logging.Log.Args("marker", marker.Root, "start", span.Start))
		return span, types.ErrNoFooter
	}
	span.End = span.Start + close + len(marker.Close())

	logging.Log.Debug("payload located", logging.Log.Args("marker", marker.Root, "start", span.Start, "end", span.End, "size", len(data)))
	return span, nil
}

// Index_open finds the first "<Root" at or after from that really is a tag
// (i.e. "<SavegameX" does not count as "<Savegame").
func Index_open(data []byte, m tables.Marker, from int) int {
	open := m.Open()
	for from <= len(data) {
		i := bytes.Index(data[from:], open)
		if i < 0 {
			return -1
		}
		pos := from + i
		after := pos + len(open)
		if after == len(data) || tables.Is_tag_end(data[after]) {
			return pos
		}
		from = pos + 1
	}
	return -1
}

// Fixed_locator is for formats where the payload lives in a slot at a known offset.
type Fixed_locator struct {
	Start   int
	End     int // end of the slot, not of the payload
	Markers []tables.Marker
	Sizes   []int // known good file sizes; others are only warned about
}

func New_xbox_locator() *Fixed_locator {
	return &Fixed_locator{
		Start:   tables.XBOX_XML_START,
		End:     tables.XBOX_XML_END,
		Markers: tables.Root_markers,
		Sizes:   tables.Xbox_file_sizes,
	}
}

func (l *Fixed_locator) Capacity() int {
	return l.End - l.Start
}

// Locate checks that the slot starts with a root tag, and finds where the payload inside it ends.
// The end is the first closing tag inside the slot: the remainder of the slot may still hold
// bytes from a longer, older payload and must not be mistaken for this one.
func (l *Fixed_locator) Locate(data []byte) (types.PayloadSpan, error) {
	span := types.PayloadSpan{Start: l.Start, End: -1, SourceSize: len(data)}

	if len(data) < l.End {
		return span, fmt.Errorf("%w: file is %d bytes, payload slot ends at %#x", types.ErrFormat, len(data), l.End)
	}
	if len(l.Sizes) > 0 && !known_size(l.Sizes, len(data)) {
		logging.Log.Warn("unexpected file size", logging.Log.Args("size", len(data), "expected", l.Sizes))
	}

	slot := data[l.Start:l.End]
	var marker tables.Marker
	found := false
	for _, m := range l.Markers {
		if Index_open(slot, m, 0) == 0 {
			marker = m
			found = true
			break
		}
	}
	if !found {
		return span, fmt.Errorf("%w: payload slot at %#x does not begin with a root tag", types.ErrFormat, l.Start)
	}
	span.Root = marker.Root

	close := bytes.Index(slot, marker.Close())
	if close < 0 {
		return span, fmt.Errorf("%w: no %s inside payload slot", types.ErrFormat, marker.Close())
	}
	span.End = l.Start + close + len(marker.Close())

	logging.Log.Debug("payload located in slot", logging.Log.Args("marker", marker.Root, "start", span.Start, "end", span.End, "slot_end", l.End))
	return span, nil
}

func known_size(sizes []int, n int) bool {
	for _, s := range sizes {
		if s == n {
			return true
		}
	}
	return false
}
