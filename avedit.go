package main

// savefile reader/editor for games that keep their saves as XML inside a binary file
//
// example usage:
//
// avedit load SAVEGAME.sav
// avedit get PlayerProfile/BaseInfo
// avedit get playerprofile/baseinfo money
// avedit set PlayerProfile/BaseInfo Money 1000000
// avedit set Territory[3] Owner player
// avedit dump > save.xml
// avedit edit save.xml
// avedit save
//
// avedit --dir /mnt/ps3/SAVEDATA load BLES00001
// avedit watch

import (
	"bufio"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"avsave/config"
	"avsave/logging"
	"avsave/readers"
	"avsave/savecodec"
	"avsave/tables"
	"avsave/types"
	"avsave/utils"
	"avsave/watcher"
	"avsave/writers"
)

// Evil global variables
var g_stash_filename = "avedit.tmp"
var g_config_filename = config.DEFAULT_FILE

func main() {
	err := main2()
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func main2() error {
	args := os.Args[1:]

	// dir from command line
	dir_arg := ""
	if len(args) > 1 && args[0] == "--dir" {
		dir_arg = args[1]
		args = args[2:]
	}

	cfg, err := config.Load(g_config_filename)
	if err != nil {
		return err
	}
	closer, err := logging.Setup(cfg.Log_level, cfg.Log_file)
	defer closer.Close()
	if err != nil {
		return err
	}

	arg := "help"
	if len(args) < 1 {
		fmt.Println("No args detected - falling back to \"help\", since you clearly need it...")
	} else {
		arg = args[0]
	}

	switch arg {
	case "help":
		help_text := []string{
			"Save File Editor",
			"",
			"Commands:",
			"help: display this text",
			"load (filename) [xbox|pc|ps3]: load a save (a file, or a PS3 save directory)",
			"verify [filename]: check the checksum of a save (default: the loaded one)",
			"get (path) [attribute]: show an element, or one of its attributes",
			"set (path) (attribute) (value): set an attribute",
			"dump: print the whole save as XML",
			"edit (xml file): replace the loaded save with an edited dump",
			"save: write the loaded save back",
			"discard: forget the loaded save without writing it",
			"watch [filename]: re-check a save every time something writes to it",
			"",
			"Options:",
			"   --dir (dir), before the command: where saves are (default: the ini file, or here)",
			"",
			"Notes:",
			"   Paths are element names separated by '/', starting under the root,",
			"e.g. \"PlayerProfile/BaseInfo\".  \"Territory[3]\" is the third Territory.",
			"   It is usually not necessary to type the full name of something",
			"e.g. \"playerprof/base\" will be recognized as \"PlayerProfile/BaseInfo\".",
			"   The first save makes a backup of the original file (" + cfg.Backup_suffix + "),",
			"later saves leave that backup alone.",
		}
		for _, ht := range help_text {
			fmt.Println(ht)
		}

	case "load":
		if len(args) < 2 {
			msg := "Load what?  Filename expected."
			if saves := list_saves(cfg.Get_dir(dir_arg)); len(saves) > 0 {
				msg += "  Saves here are:\n" + strings.Join(saves, "\n")
			}
			return errors.New(msg)
		}
		full_filename := full_path(cfg.Get_dir(dir_arg), args[1])

		platform := cfg.Platform
		if len(args) > 2 {
			platform, err = types.ParsePlatform(args[2])
			if err != nil {
				return err
			}
		}
		if platform == types.PT_NONE {
			platform, err = savecodec.Detect(full_filename)
			if err != nil {
				return err
			}
			pterm.Info.Println("Platform detected:", platform)
		}

		codec, err := make_codec(platform, cfg)
		if err != nil {
			return err
		}
		session, err := codec.Load(full_filename)
		if err != nil {
			return err
		}
		if session.Direct {
			pterm.Warning.Println("No", platform, "container found; the whole file was read as XML")
		}
		pterm.Success.Printfln("Loaded %v (%v, payload at %d-%d of %d bytes, %d elements, fingerprint %v)",
			session.File, platform, session.Span.Start, session.Span.End, session.Span.SourceSize, session.Doc.Len(), session.Short_fingerprint())
		return stash(session)

	case "verify":
		var codec *savecodec.Codec
		filename := ""
		if len(args) > 1 {
			filename = full_path(cfg.Get_dir(dir_arg), args[1])
			platform, err := savecodec.Detect(filename)
			if err != nil {
				return err
			}
			codec, err = make_codec(platform, cfg)
			if err != nil {
				return err
			}
		} else {
			session, err := retrieve()
			if err != nil {
				return err
			}
			filename = session.Path
			codec, err = make_codec(session.Platform, cfg)
			if err != nil {
				return err
			}
		}
		return verify(codec, filename)

	case "get":
		if len(args) < 2 {
			return errors.New("Get what?  Path to an element expected, e.g. PlayerProfile/BaseInfo")
		}
		session, err := retrieve()
		if err != nil {
			return err
		}
		id, err := resolve_path(session.Doc, args[1])
		if err != nil {
			return err
		}
		if len(args) > 2 {
			attr, err := resolve_attr(session.Doc, id, args[2])
			if err != nil {
				return err
			}
			value, _ := session.Doc.Attr(id, attr)
			fmt.Println(value)
			return nil
		}
		return show_element(session.Doc, id)

	case "set":
		if len(args) < 4 {
			return errors.New("Set what?  Expected: set (path) (attribute) (value)")
		}
		session, err := retrieve()
		if err != nil {
			return err
		}
		id, err := resolve_path(session.Doc, args[1])
		if err != nil {
			return err
		}
		attr, err := resolve_attr(session.Doc, id, args[2])
		if errors.Is(err, utils.ErrNoMatch) {
			// typed exactly, so presumably meant
			attr = args[2]
			fmt.Println("Adding new attribute", attr, "to", session.Doc.Path(id))
		} else if err != nil {
			return err
		}
		old, _ := session.Doc.Attr(id, attr)
		err = session.Doc.SetAttr(id, attr, args[3])
		if err != nil {
			return err
		}
		fmt.Printf("%v %v set to %q (was %q)\n", session.Doc.Path(id), attr, args[3], old)
		return stash(session)

	case "dump":
		session, err := retrieve()
		if err != nil {
			return err
		}
		fmt.Print(writers.Pretty(session.Doc))

	case "edit":
		if len(args) < 2 {
			return errors.New("Edit with what?  XML filename expected.")
		}
		session, err := retrieve()
		if err != nil {
			return err
		}
		text, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		doc, err := readers.ParseString(string(text))
		if err != nil {
			return fmt.Errorf("%v: %w", args[1], err)
		}
		if !strings.EqualFold(doc.Tag(doc.Root), session.Doc.Tag(session.Doc.Root)) {
			pterm.Warning.Printfln("Root element changed from <%v> to <%v>", session.Doc.Tag(session.Doc.Root), doc.Tag(doc.Root))
		}
		session.Doc = doc
		fmt.Println("Save replaced with", args[1], "-", doc.Len(), "elements")
		return stash(session)

	case "save":
		session, err := retrieve()
		if err != nil {
			return err
		}
		codec, err := make_codec(session.Platform, cfg)
		if err != nil {
			return err
		}
		err = codec.Save(session)
		if err != nil {
			return err
		}
		if codec.Backup {
			fmt.Println("Original file is in", writers.Backup_path(session.File, codec.Backup_suffix))
		}
		pterm.Success.Println("New file written to", session.Path)

		err = os.Remove(g_stash_filename)
		if err != nil {
			return err
		}
		fmt.Println("Temporary data cleaned up")

	case "discard":
		err := os.Remove(g_stash_filename)
		if errors.Is(err, os.ErrNotExist) {
			fmt.Println("Nothing loaded; nothing to discard")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println("Changes discarded")

	case "watch":
		filename := ""
		var platform types.Platform
		if len(args) > 1 {
			filename = full_path(cfg.Get_dir(dir_arg), args[1])
			platform, err = savecodec.Detect(filename)
			if err != nil {
				return err
			}
		} else {
			session, err := retrieve()
			if err != nil {
				return err
			}
			filename, platform = session.File, session.Platform
		}
		codec, err := make_codec(platform, cfg)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return watch(ctx, codec, filename)

	default:
		return fmt.Errorf("Unknown command %q.  Try \"help\".", arg)
	}
	return nil
}

func full_path(dir, filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(dir, filename)
}

// list_saves finds anything in dir that looks like a save, for any platform.
func list_saves(dir string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, p := range []types.Platform{types.PT_XBOX, types.PT_PC, types.PT_PS3} {
		for _, pattern := range tables.Extensions[p] {
			matches, _ := filepath.Glob(filepath.Join(dir, pattern))
			for _, m := range matches {
				name := filepath.Base(m)
				if !seen[name] {
					seen[name] = true
					out = append(out, name)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

func make_codec(platform types.Platform, cfg config.Config) (*savecodec.Codec, error) {
	codec, err := savecodec.New(platform)
	if err != nil {
		return nil, err
	}
	codec.Backup = cfg.Backup
	codec.Backup_suffix = cfg.Backup_suffix
	codec.Update_checksum = cfg.Update_checksum
	return codec, nil
}

func verify(codec *savecodec.Codec, filename string) error {
	status, err := codec.Verify(filename)
	if err != nil {
		return err
	}
	if status.Valid {
		pterm.Success.Println(filename, "checksum:", status)
	} else {
		// not an error; the game may well not care
		pterm.Warning.Println(filename, "checksum:", status)
	}
	return nil
}

func watch(ctx context.Context, codec *savecodec.Codec, filename string) error {
	w := watcher.New(filename)
	changes := make(chan watcher.Change)
	err := w.Start(changes)
	if err != nil {
		return err
	}
	defer w.Stop()

	pterm.Info.Println("Watching", filename, "(Ctrl-C to stop)")
	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-changes:
			fmt.Println(change.Path, "changed:", change.Op)
			_, err := codec.Load(change.Path)
			if err != nil {
				pterm.Error.Println(err)
				continue
			}
			if err := verify(codec, change.Path); err != nil {
				pterm.Error.Println(err)
			}
		}
	}
}

// split_index splits "Territory[3]" into "Territory" and 3.  No index means 1.
func split_index(step string) (string, int, error) {
	open := strings.IndexByte(step, '[')
	if open < 0 || !strings.HasSuffix(step, "]") {
		return step, 1, nil
	}
	n, err := strconv.Atoi(step[open+1 : len(step)-1])
	if err != nil || n < 1 {
		return "", 0, fmt.Errorf("bad index in %q: expected a number from 1 up", step)
	}
	return step[:open], n, nil
}

// resolve_path follows a path of (fuzzily matched) child names down from the root.
// The root's own name may be given as the first step, or left out.
func resolve_path(doc *types.Document, path string) (types.NodeID, error) {
	id := doc.Root
	steps := strings.Split(strings.Trim(path, "/"), "/")
	if len(steps) > 0 && strings.EqualFold(steps[0], doc.Tag(doc.Root)) {
		if _, ok := doc.Find(doc.Root, steps[0]); !ok {
			steps = steps[1:]
		}
	}

	for _, step := range steps {
		if step == "" || step == "." {
			continue
		}
		name, index, err := split_index(step)
		if err != nil {
			return types.NoNode, err
		}

		kids := doc.Children(id)
		tags := make([]string, len(kids))
		for i, k := range kids {
			tags[i] = doc.Tag(k)
		}
		m, err := utils.Fuzzy_match(tags, name, "element under "+doc.Path(id))
		if err != nil {
			return types.NoNode, err
		}

		found := types.NoNode
		count := 0
		for i, k := range kids {
			if tags[i] == tags[m] {
				count++
				if count == index {
					found = k
				}
			}
		}
		if found == types.NoNode {
			return types.NoNode, fmt.Errorf("%w: there are only %d %v under %v", types.ErrNoSuchNode, count, tags[m], doc.Path(id))
		}
		id = found
	}
	return id, nil
}

func resolve_attr(doc *types.Document, id types.NodeID, name string) (string, error) {
	attrs := doc.Attrs(id)
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	m, err := utils.Fuzzy_match(names, name, "attribute of "+doc.Path(id))
	if err != nil {
		return "", err
	}
	return names[m], nil
}

func show_element(doc *types.Document, id types.NodeID) error {
	pterm.DefaultSection.Println(doc.Path(id))

	attrs := doc.Attrs(id)
	if len(attrs) > 0 {
		data := pterm.TableData{{"Attribute", "Value"}}
		for _, a := range attrs {
			data = append(data, []string{a.Name, a.Value})
		}
		err := pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		if err != nil {
			return err
		}
	}
	if text := strings.TrimSpace(doc.Text(id)); text != "" {
		fmt.Println("Text:", text)
	}

	// children, grouped by tag, in document order
	counts := map[string]int{}
	order := []string{}
	for _, k := range doc.Children(id) {
		tag := doc.Tag(k)
		if counts[tag] == 0 {
			order = append(order, tag)
		}
		counts[tag]++
	}
	if len(order) > 0 {
		data := pterm.TableData{{"Element", "Count"}}
		for _, tag := range order {
			data = append(data, []string{tag, strconv.Itoa(counts[tag])})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	}
	return nil
}

func stash(session *savecodec.Session) error {
	f, err := os.Create(g_stash_filename)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	encoder := gob.NewEncoder(w)
	err = encoder.Encode(session)
	if err != nil {
		return err
	}
	err = w.Flush()
	if err != nil {
		return err
	}
	return f.Sync()
}

func retrieve() (*savecodec.Session, error) {
	f, err := os.Open(g_stash_filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.New("Nothing loaded.  Try \"load\" first.")
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	decoder := gob.NewDecoder(bufio.NewReader(f))
	session := savecodec.Session{}
	err = decoder.Decode(&session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
