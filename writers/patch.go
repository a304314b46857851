package writers

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pterm/pterm"

	"avsave/logging"
	"avsave/readers"
	"avsave/tables"
	"avsave/types"
)

// Patcher puts a new payload back into the bytes of the original file.
//
// Locate works out where the new payload goes, from the original bytes (never from the new payload).
// Splice builds the new file. Splice never modifies original.
type Patcher interface {
	Locate(original []byte) (types.PayloadSpan, error)
	Splice(original []byte, span types.PayloadSpan, payload []byte) ([]byte, error)
}

// Patch encodes doc with the root tag spelled the way the original file spells it,
// then splices it in.
func Patch(p Patcher, original []byte, doc *types.Document) ([]byte, error) {
	span, err := p.Locate(original)
	if err != nil {
		return nil, err
	}
	payload := Encode(doc, Options{Root: span.Root})
	return p.Splice(original, span, payload)
}

func clone(b []byte) []byte {
	return append(make([]byte, 0, len(b)), b...)
}

// Slot_patcher writes payloads into a fixed-size slot. File size never changes.
type Slot_patcher struct {
	Locator *readers.Fixed_locator
}

func (p *Slot_patcher) Locate(original []byte) (types.PayloadSpan, error) {
	return p.Locator.Locate(original)
}

func (p *Slot_patcher) Splice(original []byte, span types.PayloadSpan, payload []byte) ([]byte, error) {
	capacity := p.Locator.Capacity()
	if len(payload) > capacity {
		// Never write truncated XML.
		return nil, &types.CapacityError{Size: len(payload), Capacity: capacity}
	}
	if span.End < span.Start || span.End > span.Start+capacity || span.Start+capacity > len(original) {
		return nil, fmt.Errorf("%w: payload span %d-%d does not fit slot", types.ErrFormat, span.Start, span.End)
	}

	out := clone(original)
	copy(out[span.Start:], payload)
	// The slot past the old payload is left as it was.  Only what is left of a
	// longer old payload is zeroed, so no stale closer follows the new one.
	Write_padding(out[span.Start+len(payload):max(span.End, span.Start+len(payload))])

	if logging.Log.CanPrint(pterm.LogLevelDebug) {
		slack := 0
		for _, r := range Padding_sections(out[span.Start:span.Start+capacity], tables.MIN_PADDING_RUN) {
			slack += r.End - r.Start
		}
		logging.Log.Debug("payload written to slot", logging.Log.Args("size", len(payload), "capacity", capacity, "old_size", span.Len(), "padding", slack))
	}
	return out, nil
}

// Run is a half-open byte range.
type Run struct {
	Start int
	End   int
}

// Padding_sections finds runs of at least min NUL bytes. Diagnostic only:
// it says roughly how much room is left in a slot, nothing relies on it.
func Padding_sections(data []byte, min int) []Run {
	out := []Run{}
	start := -1
	for i, b := range data {
		if b == 0 {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= min {
			out = append(out, Run{start, i})
		}
		start = -1
	}
	if start >= 0 && len(data)-start >= min {
		out = append(out, Run{start, len(data)})
	}
	return out
}

// Splice_patcher replaces the bytes between the root markers and keeps everything around them.
//
// Tolerant (Strict false): no footer in the original means the payload is written with no footer;
// no header at all means the file was plain XML, and is written back as plain XML with a declaration.
// Strict: either marker missing is a StructureError. Some formats do not survive header changes.
type Splice_patcher struct {
	Locator *readers.Marker_locator
	Strict  bool
}

func (p *Splice_patcher) Locate(original []byte) (types.PayloadSpan, error) {
	span, err := p.Locator.Locate(original)
	switch {
	case err == nil:
		return span, nil
	case errors.Is(err, types.ErrNoFooter):
		if p.Strict {
			return span, &types.StructureError{Missing: "footer"}
		}
		return span, nil
	case errors.Is(err, types.ErrNotFound):
		if p.Strict {
			return span, &types.StructureError{Missing: "header"}
		}
		return span, nil
	}
	return span, err
}

func (p *Splice_patcher) Splice(original []byte, span types.PayloadSpan, payload []byte) ([]byte, error) {
	if span.Root != "" {
		m, _ := tables.Marker_for(span.Root)
		if !bytes.HasPrefix(payload, m.Open()) {
			return nil, fmt.Errorf("new payload does not start with %s", m.Open())
		}
	}

	switch {
	case span.Start < 0:
		if p.Strict {
			return nil, &types.StructureError{Missing: "header"}
		}
		logging.Log.Debug("no binary header, writing plain XML")
		return append(clone(tables.Xml_declaration), payload...), nil

	case span.End < 0:
		if p.Strict {
			return nil, &types.StructureError{Missing: "footer"}
		}
		logging.Log.Debug("no footer, header kept", logging.Log.Args("header", span.Start))
		out := clone(original[:span.Start])
		return append(out, payload...), nil
	}

	if span.Start > span.End || span.End > len(original) {
		return nil, fmt.Errorf("%w: invalid payload span %d-%d in %d bytes", types.ErrStructure, span.Start, span.End, len(original))
	}

	header := original[:span.Start]
	footer := original[span.End:]
	out := make([]byte, 0, len(header)+len(payload)+len(footer))
	out = append(out, header...)
	out = append(out, payload...)
	out = append(out, footer...)

	logging.Log.Debug("payload spliced", logging.Log.Args(
		"header", len(header), "footer", len(footer),
		"old_size", span.Len(), "new_size", len(payload), "change", len(out)-len(original)))
	return out, nil
}
