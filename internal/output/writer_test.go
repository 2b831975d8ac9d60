package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stlalpha/gbbsmsg/internal/gbbs"
	"github.com/stlalpha/gbbsmsg/internal/user"
)

var msgDate = time.Date(1988, 2, 5, 22, 15, 0, 0, time.UTC)

func sampleExtraction() gbbs.Extraction {
	return gbbs.Extraction{
		Active: []gbbs.Message{
			{Kind: gbbs.KindActive, Source: 0, Block: 1, Blocks: []int{1, 2}, Text: "Hello\nBody\n",
				Recipient: gbbs.NoRecipient, HasHeader: true, Date: msgDate},
			{Kind: gbbs.KindActive, Source: 3, Block: 7, Blocks: []int{7}, Text: "no header here",
				Recipient: gbbs.NoRecipient},
		},
		Deleted: []gbbs.Message{
			{Kind: gbbs.KindDeleted, Source: 9, Block: 9, Blocks: []int{9, 10}, Text: "Gone\n",
				Recipient: gbbs.NoRecipient, HasHeader: true,
				Diagnostic: "[** chain broken: loop back to block 9, message truncated **]"},
		},
		Orphaned: []gbbs.Message{
			{Kind: gbbs.KindOrphaned, Source: 15, Block: 15, Blocks: []int{15}, Text: "fragment",
				Recipient: gbbs.NoRecipient},
		},
	}
}

func TestFileName(t *testing.T) {
	ex := sampleExtraction()
	tests := []struct {
		m    *gbbs.Message
		i    int
		want string
	}{
		{&ex.Active[0], 1, "Msg-0001.txt"},
		{&ex.Deleted[0], 12, "Deleted-0012.txt"},
		{&ex.Orphaned[0], 1, "Orphan-0015.txt"},
	}
	for _, tt := range tests {
		if got := FileName(tt.m, tt.i); got != tt.want {
			t.Errorf("FileName = %q, want %q", got, tt.want)
		}
	}
}

func TestBodyAndTitle(t *testing.T) {
	users := user.Directory{5: {ID: 5, FullName: "Joe Sysop"}}
	w := &Writer{Users: users}

	mail := gbbs.Message{Kind: gbbs.KindActive, Recipient: 5, Text: "Hi Joe", HasHeader: true}
	if got := w.Body(&mail); got != "To: Joe Sysop (#5)\nHi Joe" {
		t.Errorf("Body = %q", got)
	}
	if got := w.Title(&mail, 2); got != "Message 2 (To: Joe Sysop - User ID 5)" {
		t.Errorf("Title = %q", got)
	}

	unknown := gbbs.Message{Kind: gbbs.KindActive, Recipient: 8, Text: "x", HasHeader: true}
	if got := w.Title(&unknown, 1); got != "Message 1 (To: User ID 8)" {
		t.Errorf("Title = %q", got)
	}
	if got := w.Body(&unknown); !strings.HasPrefix(got, "To: User ID 8 (#8)\n") {
		t.Errorf("Body = %q", got)
	}

	ex := sampleExtraction()
	if got := w.Title(&ex.Active[1], 2); got != "Message 2 (Entry 3, Block 7) [no message header]" {
		t.Errorf("Title = %q", got)
	}
	if got := w.Title(&ex.Deleted[0], 1); got != "Deleted Message 1 (Block 9)" {
		t.Errorf("Title = %q", got)
	}
	if got := w.Title(&ex.Orphaned[0], 1); got != "Orphaned Block 15" {
		t.Errorf("Title = %q", got)
	}
	want := "Gone\n[** chain broken: loop back to block 9, message truncated **]\n"
	if got := w.Body(&ex.Deleted[0]); got != want {
		t.Errorf("Body = %q, want %q", got, want)
	}
}

func TestWriteStdout(t *testing.T) {
	var out bytes.Buffer
	w := &Writer{Out: &out}
	ex := sampleExtraction()
	ex.Deleted = nil

	m, err := w.Write(ex, gbbs.All)
	if err != nil || m != nil {
		t.Fatalf("Write = %v, %v", m, err)
	}
	got := out.String()
	for _, want := range []string{
		banner + "\nACTIVE MESSAGES\n" + banner + "\n",
		"\n" + banner + "\nDELETED MESSAGES\n" + banner + "\n",
		"ORPHANED BLOCKS",
		"\n" + banner + "\nMessage 1 (Entry 0, Block 1)\n" + banner + "\nHello\nBody\n\n",
		"Orphaned Block 15",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
}

func TestWriteDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := &Writer{Dir: dir, Format: gbbs.Bulletin}

	m, err := w.Write(sampleExtraction(), gbbs.All)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(m.Items) != 4 {
		t.Fatalf("manifest has %d items, want 4", len(m.Items))
	}

	for _, name := range []string{"Msg-0001.txt", "Msg-0002.txt", "Deleted-0001.txt", "Orphan-0015.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "Msg-0001.txt"))
	if err != nil || string(data) != "Hello\nBody\n" {
		t.Errorf("Msg-0001.txt = %q, %v", data, err)
	}
	info, err := os.Stat(filepath.Join(dir, "Msg-0001.txt"))
	if err != nil || !info.ModTime().Equal(msgDate) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), msgDate)
	}
	if info, _ := os.Stat(filepath.Join(dir, "Msg-0002.txt")); info.ModTime().Year() == 1988 {
		t.Error("undated message should keep the current time")
	}
}

func TestWriteConflicts(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Msg-0001.txt"), []byte("keep me"), 0644); err != nil {
		t.Fatal(err)
	}
	w := &Writer{Dir: dir}

	_, err := w.Write(sampleExtraction(), gbbs.All)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if len(conflict.Paths) != 1 || !strings.Contains(err.Error(), "Use --force to overwrite existing files") {
		t.Errorf("conflict = %v", err)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "Msg-0001.txt")); string(data) != "keep me" {
		t.Error("existing file was overwritten without force")
	}
	if _, err := os.Stat(filepath.Join(dir, "Deleted-0001.txt")); !os.IsNotExist(err) {
		t.Error("nothing should be written when files conflict")
	}

	w.Force = true
	if _, err := w.Write(sampleExtraction(), gbbs.All); err != nil {
		t.Fatalf("forced Write: %v", err)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "Msg-0001.txt")); string(data) == "keep me" {
		t.Error("force did not overwrite")
	}
}

func TestConflictErrorTruncates(t *testing.T) {
	var paths []string
	for i := 0; i < 13; i++ {
		paths = append(paths, FileName(&gbbs.Message{}, i+1))
	}
	msg := (&ConflictError{Paths: paths}).Error()
	if !strings.Contains(msg, "Msg-0010.txt") || strings.Contains(msg, "Msg-0011.txt") {
		t.Errorf("error lists wrong paths:\n%s", msg)
	}
	if !strings.Contains(msg, "... and 3 more") {
		t.Errorf("error missing remainder count:\n%s", msg)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Format: gbbs.Mail}
	ex := gbbs.Extraction{Active: []gbbs.Message{
		{Kind: gbbs.KindActive, Source: 4, Block: 2, Blocks: []int{2}, Text: "a mail message body",
			Recipient: 4, HasHeader: true, Date: msgDate},
	}}

	m, err := w.Write(ex, gbbs.Selection{Active: true})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	m.Source = "MAIL"
	if err := m.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if got.RunID != m.RunID || got.Format != "email" || got.Source != "MAIL" {
		t.Errorf("manifest = %+v", got)
	}
	if len(got.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(got.Items))
	}
	it := got.Items[0]
	if it.File != "Msg-0001.txt" || it.Kind != "active" || it.Recipient == nil || *it.Recipient != 4 {
		t.Errorf("item = %+v", it)
	}
	if it.Date == nil || !it.Date.Equal(msgDate) {
		t.Errorf("item date = %v", it.Date)
	}

	if NewManifest(gbbs.Bulletin).RunID == m.RunID {
		t.Error("run IDs should be unique")
	}
}
