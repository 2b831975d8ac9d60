// Package report renders database analysis for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/stlalpha/gbbsmsg/internal/gbbs"
)

// Summary carries the message counts shown next to the block breakdown.
type Summary struct {
	Name     string // file name as given on the command line
	Active   int    // active messages
	Deleted  int    // deleted messages
	Orphaned int    // orphaned fragments
}

// Reporter writes analysis reports.
type Reporter struct {
	w        io.Writer
	color    bool
	perRow   int
	heading  lipgloss.Style
	glyphs   map[gbbs.Label]lipgloss.Style
	warnings lipgloss.Style
}

// New returns a Reporter writing to w. perRow is the number of blocks per
// block map row; color enables ANSI styling.
func New(w io.Writer, color bool, perRow int) *Reporter {
	if perRow < 1 {
		perRow = 20
	}
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Reporter{
		w:       w,
		color:   color,
		perRow:  perRow,
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		glyphs: map[gbbs.Label]lipgloss.Style{
			gbbs.ActiveHeader:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
			gbbs.ActiveChain:   r.NewStyle().Foreground(lipgloss.Color("2")),
			gbbs.DeletedHeader: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
			gbbs.DeletedChain:  r.NewStyle().Foreground(lipgloss.Color("1")),
			gbbs.Orphaned:      r.NewStyle().Foreground(lipgloss.Color("11")),
			gbbs.Unused:        r.NewStyle(),
		},
		warnings: r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// RowFit returns how many block map cells fit a terminal of the given width,
// capped at want. Each cell is three columns and the row count needs eight.
func RowFit(termWidth, want int) int {
	fit := (termWidth - 8) / 3
	if fit < 1 {
		fit = 1
	}
	if want < fit {
		return want
	}
	return fit
}

// Analysis writes the header, layout, counts and (for bulletin files) the
// block breakdown and block map.
func (rp *Reporter) Analysis(img *gbbs.Image, a *gbbs.Analysis, s Summary) {
	w := rp.w
	h := img.Header()

	fmt.Fprintln(w, rp.paint(rp.heading, fmt.Sprintf("=== Database Analysis: %s ===", s.Name)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Format: %s\n", strings.ToUpper(img.Format().String()))
	fmt.Fprintf(w, "File size: %d bytes\n", img.Size())

	fmt.Fprintf(w, "\nHeader (MSGINFO):\n")
	fmt.Fprintf(w, "  Bitmap blocks: %d (%d bytes)\n", h.BitmapBlocks, int(h.BitmapBlocks)*gbbs.SectionUnit)
	fmt.Fprintf(w, "  Directory blocks: %d (%d bytes)\n", h.DirectoryBlocks, int(h.DirectoryBlocks)*gbbs.SectionUnit)
	fmt.Fprintf(w, "  Used data blocks: %d\n", h.UsedBlocks)
	fmt.Fprintf(w, "  Message count: %d\n", h.MessageCount)
	fmt.Fprintf(w, "  New message number: %d\n", h.NewMessageNumber)

	fmt.Fprintf(w, "\nFile layout:\n")
	fmt.Fprintf(w, "  0x000-0x%03x: Header (%d bytes)\n", gbbs.HeaderSize-1, gbbs.HeaderSize)
	fmt.Fprintf(w, "  0x%03x-0x%03x: Bitmap (%d blocks)\n", img.BitmapOffset(), img.DirectoryOffset()-1, h.BitmapBlocks)
	fmt.Fprintf(w, "  0x%03x-0x%03x: Directory (%d blocks, max %d entries)\n",
		img.DirectoryOffset(), img.DataOffset()-1, h.DirectoryBlocks, img.MaxEntries())
	fmt.Fprintf(w, "  0x%03x+: Data blocks\n", img.DataOffset())

	dataArea := img.Size() - img.DataOffset()
	if dataArea < 0 {
		dataArea = 0
	}
	fmt.Fprintf(w, "\nData area: %d bytes\n", dataArea)
	fmt.Fprintf(w, "Total blocks: %d\n", a.Total)
	fmt.Fprintf(w, "Bitmap allocated blocks: %d\n\n", a.Allocated)

	fmt.Fprintf(w, "Active messages: %d\n", s.Active)
	fmt.Fprintf(w, "Deleted messages: %d\n", s.Deleted)
	fmt.Fprintf(w, "Orphaned blocks: %d\n", s.Orphaned)

	fmt.Fprintf(w, "\nBlock breakdown:\n")
	fmt.Fprintf(w, "  Active header blocks: %d\n", a.Count(gbbs.ActiveHeader))
	fmt.Fprintf(w, "  Active chain blocks: %d\n", a.Count(gbbs.ActiveChain))
	fmt.Fprintf(w, "  Deleted header blocks: %d\n", a.Count(gbbs.DeletedHeader))
	fmt.Fprintf(w, "  Deleted chain blocks: %d\n", a.Count(gbbs.DeletedChain))
	fmt.Fprintf(w, "  Orphaned blocks: %d\n", a.Count(gbbs.Orphaned))
	fmt.Fprintf(w, "  Unused blocks: %d\n", a.Count(gbbs.Unused))
	fmt.Fprintf(w, "  Total: %d\n", a.Total)
	fmt.Fprintf(w, "\nUsage: %.1f%% active\n", a.Usage())

	if img.Format() == gbbs.Mail {
		fmt.Fprintf(w, "\nEmail format: Directory entries map to user IDs\n")
		fmt.Fprintf(w, "Messages are EOT-separated (0x04) within user chains\n")
		return
	}

	fmt.Fprintln(w)
	rp.BlockMap(a)
}

// BlockMap draws one cell per data block.
func (rp *Reporter) BlockMap(a *gbbs.Analysis) {
	w := rp.w
	fmt.Fprintln(w, rp.paint(rp.heading, "=== Block Map ==="))
	fmt.Fprintf(w, "Legend: [%s]=Active header, [%s]=Active chain, [%s]=Deleted header, [%s]=Deleted chain\n",
		rp.glyph(gbbs.ActiveHeader), rp.glyph(gbbs.ActiveChain), rp.glyph(gbbs.DeletedHeader), rp.glyph(gbbs.DeletedChain))
	fmt.Fprintf(w, "        [%s]=Orphaned, [%s]=Unused\n\n", rp.glyph(gbbs.Orphaned), rp.glyph(gbbs.Unused))

	var row strings.Builder
	for n := 1; n <= a.Total; n++ {
		row.WriteString("[" + rp.glyph(a.Label(n)) + "]")
		if n%rp.perRow == 0 {
			fmt.Fprintf(w, "%s  %d\n", row.String(), n)
			row.Reset()
		}
	}
	if row.Len() > 0 {
		fmt.Fprintln(w, row.String())
	}
}

func (rp *Reporter) glyph(l gbbs.Label) string {
	return rp.paint(rp.glyphs[l], string(l.Glyph()))
}

// paint applies st when color output is on.
func (rp *Reporter) paint(st lipgloss.Style, s string) string {
	if !rp.color {
		return s
	}
	return st.Render(s)
}

// Warn writes a highlighted warning line.
func (rp *Reporter) Warn(format string, args ...any) {
	fmt.Fprintln(rp.w, rp.paint(rp.warnings, fmt.Sprintf(format, args...)))
}
