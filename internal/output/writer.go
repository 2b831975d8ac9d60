// Package output writes recovered messages to stdout or to a directory.
package output

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/stlalpha/gbbsmsg/internal/gbbs"
	"github.com/stlalpha/gbbsmsg/internal/user"
)

const banner = "============================================================"

// Writer emits an extraction either as banner-separated text on Out or as
// one file per message under Dir.
type Writer struct {
	Dir    string // output directory; empty means write to Out
	Force  bool   // overwrite existing files
	Out    io.Writer
	Format gbbs.Format
	Users  user.Directory // optional, names mail recipients
}

// FileName returns the output file name of the i-th (1-based) message of
// its kind. Orphans are named after their starting block.
func FileName(m *gbbs.Message, i int) string {
	switch m.Kind {
	case gbbs.KindDeleted:
		return fmt.Sprintf("Deleted-%04d.txt", i)
	case gbbs.KindOrphaned:
		return fmt.Sprintf("Orphan-%04d.txt", m.Block)
	default:
		return fmt.Sprintf("Msg-%04d.txt", i)
	}
}

// Body returns the text written for a message: a To line for mail, the
// message text, and the walk diagnostic if any.
func (w *Writer) Body(m *gbbs.Message) string {
	text := m.Text
	if m.Recipient != gbbs.NoRecipient {
		text = "To: " + w.Users.Recipient(m.Recipient) + "\n" + text
	}
	if m.Diagnostic != "" {
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		text += m.Diagnostic + "\n"
	}
	return text
}

// Conflicts lists target files that already exist.
func (w *Writer) Conflicts(ex gbbs.Extraction) []string {
	var existing []string
	for _, group := range [][]gbbs.Message{ex.Active, ex.Deleted, ex.Orphaned} {
		for i := range group {
			path := filepath.Join(w.Dir, FileName(&group[i], i+1))
			if _, err := os.Stat(path); err == nil {
				existing = append(existing, path)
			}
		}
	}
	return existing
}

// ConflictError reports files that would be overwritten without Force.
type ConflictError struct {
	Paths []string
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	b.WriteString("the following files already exist:\n")
	for i, p := range e.Paths {
		if i == 10 {
			fmt.Fprintf(&b, "  ... and %d more\n", len(e.Paths)-10)
			break
		}
		fmt.Fprintf(&b, "  %s\n", p)
	}
	b.WriteString("\nUse --force to overwrite existing files")
	return b.String()
}

// Write emits the extraction. In directory mode it returns the manifest of
// written files; on stdout every selected kind gets a section banner, even
// when it is empty.
func (w *Writer) Write(ex gbbs.Extraction, sel gbbs.Selection) (*Manifest, error) {
	if w.Dir == "" {
		w.print(ex, sel)
		return nil, nil
	}

	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if !w.Force {
		if existing := w.Conflicts(ex); len(existing) > 0 {
			return nil, &ConflictError{Paths: existing}
		}
	}

	m := NewManifest(w.Format)
	for _, group := range [][]gbbs.Message{ex.Active, ex.Deleted, ex.Orphaned} {
		for i := range group {
			msg := &group[i]
			name := FileName(msg, i+1)
			if err := w.writeFile(name, msg); err != nil {
				return m, err
			}
			m.Add(name, msg)
		}
	}
	log.Printf("INFO: Wrote %d message(s) to %s", len(m.Items), w.Dir)
	return m, nil
}

func (w *Writer) writeFile(name string, msg *gbbs.Message) error {
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, []byte(w.Body(msg)), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if msg.HasDate() {
		if err := os.Chtimes(path, msg.Date, msg.Date); err != nil {
			log.Printf("WARN: Failed to set timestamp on %s: %v", path, err)
		}
	}
	return nil
}

func (w *Writer) print(ex gbbs.Extraction, sel gbbs.Selection) {
	if sel.Active {
		w.section("ACTIVE MESSAGES", false)
		for i := range ex.Active {
			w.message(&ex.Active[i], i+1)
		}
	}
	if sel.Deleted {
		w.section("DELETED MESSAGES", sel.Active)
		for i := range ex.Deleted {
			w.message(&ex.Deleted[i], i+1)
		}
	}
	if sel.Orphaned {
		w.section("ORPHANED BLOCKS", sel.Active || sel.Deleted)
		for i := range ex.Orphaned {
			w.message(&ex.Orphaned[i], i+1)
		}
	}
}

func (w *Writer) section(title string, gap bool) {
	if gap {
		fmt.Fprintln(w.Out)
	}
	fmt.Fprintln(w.Out, banner)
	fmt.Fprintln(w.Out, title)
	fmt.Fprintln(w.Out, banner)
}

func (w *Writer) message(m *gbbs.Message, i int) {
	fmt.Fprintf(w.Out, "\n%s\n%s\n%s\n", banner, w.Title(m, i), banner)
	fmt.Fprintln(w.Out, w.Body(m))
}

// Title is the banner line for a message in stdout mode.
func (w *Writer) Title(m *gbbs.Message, i int) string {
	var title string
	switch {
	case m.Kind == gbbs.KindDeleted:
		title = fmt.Sprintf("Deleted Message %d (Block %d)", i, m.Block)
	case m.Kind == gbbs.KindOrphaned:
		title = fmt.Sprintf("Orphaned Block %d", m.Block)
	case m.Recipient != gbbs.NoRecipient:
		if name, ok := w.Users.Name(m.Recipient); ok {
			title = fmt.Sprintf("Message %d (To: %s - User ID %d)", i, name, m.Recipient)
		} else {
			title = fmt.Sprintf("Message %d (To: User ID %d)", i, m.Recipient)
		}
	default:
		title = fmt.Sprintf("Message %d (Entry %d, Block %d)", i, m.Source, m.Block)
	}
	if m.Kind != gbbs.KindOrphaned && !m.HasHeader && m.Text != "" {
		title += " [no message header]"
	}
	return title
}
