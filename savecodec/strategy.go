package savecodec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"avsave/checksum"
	"avsave/readers"
	"avsave/tables"
	"avsave/types"
	"avsave/writers"
)

// Strategy is everything that differs between platforms.
// The load/save logic itself is shared; see Codec.
type Strategy struct {
	Platform types.Platform

	Locator readers.Locator
	// Fallback is tried when Locator fails, before falling back to parsing the whole file.
	Fallback readers.Locator
	Patcher  writers.Patcher
	Verifier checksum.Verifier
	Policy   readers.Policy

	// Fixups runs Sanity_fix after load and before save.
	Fixups bool

	// Update_checksum rewrites the checksum after a save, if Verifier knows how.
	Update_checksum bool

	Backup        bool
	Backup_suffix string

	// Companions are file names that hold the same payload and are saved together.
	Companions []string

	// Signatures are files next to the save that vouch for it, and are not updated.
	Signatures []string
}

// Xbox: payload in a fixed-size slot at a fixed offset, real (if mysterious) checksum.
func Xbox() Strategy {
	locator := readers.New_xbox_locator()
	return Strategy{
		Platform:      types.PT_XBOX,
		Locator:       locator,
		Fallback:      readers.New_marker_locator(),
		Patcher:       &writers.Slot_patcher{Locator: locator},
		Verifier:      checksum.New_xbox_sum(),
		Policy:        readers.Replace,
		Backup:        true,
		Backup_suffix: ".backup",
	}
}

// Pc: markers found by search, missing footers tolerated.
func Pc() Strategy {
	return Strategy{
		Platform:      types.PT_PC,
		Locator:       readers.New_marker_locator(),
		Patcher:       &writers.Splice_patcher{Locator: readers.New_marker_locator()},
		Verifier:      checksum.Marker_presence{},
		Policy:        readers.Ignore,
		Backup:        true,
		Backup_suffix: ".backup",
	}
}

// Ps3: markers found by search, header and footer must both be there and are kept byte for byte.
func Ps3() Strategy {
	return Strategy{
		Platform:      types.PT_PS3,
		Locator:       readers.New_marker_locator(),
		Patcher:       &writers.Splice_patcher{Locator: readers.New_marker_locator(), Strict: true},
		Verifier:      checksum.Marker_presence{},
		Policy:        readers.Strip,
		Fixups:        true,
		Backup:        true,
		Backup_suffix: ".backup",
		Companions:    tables.Ps3_save_files,
		Signatures:    tables.Ps3_param_files,
	}
}

func For(p types.Platform) (Strategy, error) {
	switch p {
	case types.PT_XBOX:
		return Xbox(), nil
	case types.PT_PC:
		return Pc(), nil
	case types.PT_PS3:
		return Ps3(), nil
	}
	return Strategy{}, fmt.Errorf("no save format for platform %v", p)
}

// Detect guesses the platform from the file name and size.
// PS3 saves are directories (or files) named after tables.Ps3_save_files; Xbox saves have a known size;
// anything else is treated as a PC save.
func Detect(path string) (types.Platform, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return types.PT_NONE, err
	}
	if fi.IsDir() {
		for _, name := range tables.Ps3_save_files {
			if exists(filepath.Join(path, name)) {
				return types.PT_PS3, nil
			}
		}
		return types.PT_NONE, fmt.Errorf("%v is a directory with no PS3 save files in it", path)
	}
	if slices.Contains(tables.Ps3_save_files, filepath.Base(path)) {
		return types.PT_PS3, nil
	}
	if tables.Is_xbox_size(int(fi.Size())) {
		return types.PT_XBOX, nil
	}
	return types.PT_PC, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// resolve turns what the user picked into the file to load from and the files to save to.
func (s *Strategy) resolve(path string) (primary string, all []string, err error) {
	if len(s.Companions) == 0 {
		return path, []string{path}, nil
	}

	fi, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	dir := filepath.Dir(path)
	if fi.IsDir() {
		dir = path
	} else if !slices.Contains(s.Companions, filepath.Base(path)) {
		// e.g. a .backup file: just that one
		return path, []string{path}, nil
	}

	for _, name := range s.Companions {
		p := filepath.Join(dir, name)
		if exists(p) {
			all = append(all, p)
		}
	}
	if len(all) == 0 {
		return "", nil, fmt.Errorf("%w: no save file (%v) in %v", os.ErrNotExist, s.Companions, dir)
	}
	primary = all[0]
	if !fi.IsDir() {
		primary = path
	}
	return primary, all, nil
}

var errNoUpdater = errors.New("checksum can not be updated for this platform")
