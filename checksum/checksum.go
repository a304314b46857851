package checksum

import (
	"encoding/binary"
	"fmt"

	"avsave/logging"
	"avsave/tables"
	"avsave/types"
)

// Status is for a status bar. A bad checksum never stops a load or a save.
type Status struct {
	Valid bool

	// Known is false when the format has no real checksum and Valid is only a sanity check.
	Known    bool
	Stored   uint32
	Computed uint32
}

func (s Status) Err() error {
	if s.Valid {
		return nil
	}
	if s.Known {
		return fmt.Errorf("%w: stored %#08x, computed %#08x", types.ErrChecksumMismatch, s.Stored, s.Computed)
	}
	return fmt.Errorf("%w: no save data found", types.ErrChecksumMismatch)
}

func (s Status) String() string {
	switch {
	case !s.Known && s.Valid:
		return "OK (no checksum)"
	case !s.Known:
		return "no save data"
	case s.Valid:
		return fmt.Sprintf("valid (%#08x)", s.Stored)
	}
	return fmt.Sprintf("invalid (stored %#08x, computed %#08x)", s.Stored, s.Computed)
}

// Verifier is swappable per platform: nobody outside the game knows what the Xbox checksum really covers.
type Verifier interface {
	Verify(data []byte) Status
}

// Updater can also fix the checksum after a save.
type Updater interface {
	Verifier
	Update(data []byte) ([]byte, error)
}

// Rotating_sum: start at Seed, then for every byte except the 4 checksum bytes,
// rotate right by one and add the byte.  Stored little endian at Offset.
type Rotating_sum struct {
	Offset int
	Seed   uint32
}

func New_xbox_sum() *Rotating_sum {
	return &Rotating_sum{Offset: tables.XBOX_CHECKSUM_OFFSET, Seed: tables.XBOX_CHECKSUM_SEED}
}

func (c *Rotating_sum) Compute(data []byte) uint32 {
	sum := c.Seed
	for i, b := range data {
		if i >= c.Offset && i < c.Offset+4 {
			continue
		}
		sum = (sum >> 1) | (sum << 31)
		sum += uint32(b)
	}
	return sum
}

func (c *Rotating_sum) Verify(data []byte) Status {
	if len(data) < c.Offset+4 {
		logging.Log.Warn("file too small to hold a checksum", logging.Log.Args("size", len(data)))
		return Status{Known: true}
	}
	st := Status{
		Known:    true,
		Stored:   binary.LittleEndian.Uint32(data[c.Offset:]),
		Computed: c.Compute(data),
	}
	st.Valid = st.Stored == st.Computed
	if !st.Valid {
		logging.Log.Warn("checksum mismatch", logging.Log.Args("stored", fmt.Sprintf("%#08x", st.Stored), "computed", fmt.Sprintf("%#08x", st.Computed)))
	}
	return st
}

// Update returns a copy of data with the checksum field recomputed.
func (c *Rotating_sum) Update(data []byte) ([]byte, error) {
	if len(data) < c.Offset+4 {
		return nil, fmt.Errorf("%w: %d bytes is too small to hold a checksum", types.ErrFormat, len(data))
	}
	out := append([]byte(nil), data...)
	sum := c.Compute(out)
	binary.LittleEndian.PutUint32(out[c.Offset:], sum)
	logging.Log.Debug("checksum updated", logging.Log.Args("checksum", fmt.Sprintf("%#08x", sum)))
	return out, nil
}

// Marker_presence is for formats with no known checksum: the file is "valid" if there is a save in it.
type Marker_presence struct{}

func (Marker_presence) Verify(data []byte) Status {
	found := tables.Contains_marker(data)
	if !found {
		logging.Log.Warn("no XML content found in save file")
	}
	return Status{Valid: found}
}
