package savecodec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"avsave/checksum"
	"avsave/logging"
	"avsave/readers"
	"avsave/types"
	"avsave/writers"
)

// Codec loads and saves one platform's save files.
type Codec struct {
	Strategy
}

func New(p types.Platform) (*Codec, error) {
	s, err := For(p)
	if err != nil {
		return nil, err
	}
	return &Codec{s}, nil
}

// Open detects the platform and loads.
func Open(path string) (*Codec, *Session, error) {
	p, err := Detect(path)
	if err != nil {
		return nil, nil, err
	}
	c, err := New(p)
	if err != nil {
		return nil, nil, err
	}
	s, err := c.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return c, s, nil
}

// Load reads a save file (or PS3 save directory) into a Session.
func (c *Codec) Load(path string) (*Session, error) {
	file, _, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	doc, span, direct, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", file, err)
	}
	if c.Fixups {
		Sanity_fix(doc)
	}

	logging.Log.Info("save loaded", logging.Log.Args("file", file, "platform", c.Platform, "start", span.Start, "end", span.End, "elements", doc.Len()))
	return &Session{
		Path:        path,
		File:        file,
		Platform:    c.Platform,
		Doc:         doc,
		Span:        span,
		Direct:      direct,
		Fingerprint: Fingerprint(data),
	}, nil
}

// Decode finds and parses the payload in the bytes of a save file.
// Nothing is written anywhere, and fixups are not applied.
//
// If the container can not be made sense of, the whole file is tried as plain XML;
// direct reports whether that is what happened.
func (c *Codec) Decode(data []byte) (doc *types.Document, span types.PayloadSpan, direct bool, err error) {
	span, err = c.locate(data)
	if err == nil || errors.Is(err, types.ErrNoFooter) {
		payload := data[span.Start:]
		if span.HasFooter() {
			payload = data[span.Start:span.End]
		}
		doc, err = readers.Decode(payload, c.Policy)
		if err == nil {
			return doc, span, false, nil
		}
	}
	logging.Log.Debug("payload not usable, trying whole file as XML", logging.Log.Args("error", err))

	doc, derr := readers.Decode(data, c.Policy)
	if derr == nil {
		span = types.PayloadSpan{Start: 0, End: len(data), SourceSize: len(data), Root: doc.Tag(doc.Root)}
		return doc, span, true, nil
	}

	if errors.Is(err, types.ErrParse) {
		return nil, span, false, err
	}
	return nil, span, false, fmt.Errorf("%w (and the whole file is not XML either: %v)", err, derr)
}

func (c *Codec) locate(data []byte) (types.PayloadSpan, error) {
	span, err := c.Locator.Locate(data)
	if err == nil || c.Fallback == nil {
		return span, err
	}
	logging.Log.Warn("payload not where expected, searching for it", logging.Log.Args("error", err))
	if fspan, ferr := c.Fallback.Locate(data); ferr == nil {
		return fspan, nil
	}
	return span, err
}

// Encode builds the new file contents for doc, given the original file contents.
// Fixups are not applied here.  original is not modified.
func (c *Codec) Encode(original []byte, doc *types.Document) ([]byte, error) {
	out, err := writers.Patch(c.Patcher, original, doc)
	if err != nil {
		return nil, err
	}
	if c.Update_checksum {
		u, ok := c.Verifier.(checksum.Updater)
		if !ok {
			return nil, fmt.Errorf("%v: %w", c.Platform, errNoUpdater)
		}
		if out, err = u.Update(out); err != nil {
			return nil, err
		}
	}

	// Make sure what's about to be written reads back as the same document.
	got, _, direct, err := c.Decode(out)
	if err != nil {
		return nil, fmt.Errorf("patched file does not load: %w", err)
	}
	if direct && c.Platform == types.PT_XBOX {
		return nil, fmt.Errorf("%w: patched file has no payload slot", types.ErrFormat)
	}
	want := doc.Clone()
	want.SetTag(want.Root, got.Tag(got.Root))
	if !got.Equal(want) {
		return nil, fmt.Errorf("%w: patched file loads back as a different document", types.ErrStructure)
	}
	return out, nil
}

// Save writes the session's document back to every file it came from.
// Nothing is written unless every file can be patched.
func (c *Codec) Save(s *Session) error {
	_, targets, err := c.resolve(s.Path)
	if err != nil {
		return err
	}
	if c.Fixups {
		Sanity_fix(s.Doc)
	}

	type pending struct {
		path     string
		original []byte
		out      []byte
	}
	todo := []pending{}
	for _, target := range targets {
		original, err := os.ReadFile(target)
		if err != nil {
			return err
		}
		if target == s.File && Fingerprint(original) != s.Fingerprint {
			logging.Log.Warn(types.ErrChangedOnDisk.Error(), logging.Log.Args("file", target, "loaded", s.Short_fingerprint()))
		}
		out, err := c.Encode(original, s.Doc)
		if err != nil {
			return fmt.Errorf("%v: %w", target, err)
		}
		todo = append(todo, pending{target, original, out})
	}

	for _, p := range todo {
		if err := c.write(p.path, p.original, p.out); err != nil {
			return err
		}
		if p.path == s.File {
			s.Fingerprint = Fingerprint(p.out)
			if span, err := c.locate(p.out); err == nil {
				s.Span = span
			}
		}
	}
	s.Saves++
	for _, name := range c.Signatures {
		if p := filepath.Join(filepath.Dir(s.File), name); exists(p) {
			logging.Log.Warn("not updated, the save may need re-signing before the console accepts it", logging.Log.Args("file", p))
		}
	}
	logging.Log.Info("save written", logging.Log.Args("files", len(todo), "platform", c.Platform))
	return nil
}

// Save_document writes doc into the existing save file at path.
func (c *Codec) Save_document(doc *types.Document, path string) error {
	if c.Fixups {
		doc = doc.Clone()
		Sanity_fix(doc)
	}
	original, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := c.Encode(original, doc)
	if err != nil {
		return fmt.Errorf("%v: %w", path, err)
	}
	return c.write(path, original, out)
}

func (c *Codec) write(path string, original, out []byte) error {
	if c.Backup {
		if _, err := writers.Backup(path, c.Backup_suffix, original); err != nil {
			return err
		}
	}
	return writers.Write_atomic(path, out)
}

// Verify checks the checksum (or, where there is none, that there is a payload at all).
func (c *Codec) Verify(path string) (checksum.Status, error) {
	file, _, err := c.resolve(path)
	if err != nil {
		return checksum.Status{}, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return checksum.Status{}, err
	}
	return c.Verifier.Verify(data), nil
}
