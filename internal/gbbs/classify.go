package gbbs

import "github.com/stlalpha/gbbsmsg/internal/logging"

// Analysis is the result of one classification pass.
type Analysis struct {
	Format    Format
	Total     int // data blocks in the file
	Allocated int // blocks marked in the bitmap
	// Deleted holds one walk per deleted header, in discovery order.
	Deleted []Chain
	// Orphans holds one walk per orphaned fragment, by starting block.
	Orphans []Chain

	labels []Label // indexed by block number, entry 0 unused
	counts map[Label]int
}

// Label returns the label of block n, or Unused for out-of-range blocks.
func (a *Analysis) Label(n int) Label {
	if n < 1 || n >= len(a.labels) {
		return Unused
	}
	return a.labels[n]
}

// Labels returns the label of every data block; element i is block i+1.
func (a *Analysis) Labels() []Label {
	out := make([]Label, len(a.labels)-1)
	copy(out, a.labels[1:])
	return out
}

// Count returns how many blocks carry label l.
func (a *Analysis) Count(l Label) int {
	return a.counts[l]
}

// ActiveBlocks returns the number of active header and chain blocks.
func (a *Analysis) ActiveBlocks() int {
	return a.counts[ActiveHeader] + a.counts[ActiveChain]
}

// Usage returns the percentage of data blocks in active use.
func (a *Analysis) Usage() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.ActiveBlocks()) / float64(a.Total) * 100
}

// Classify labels every data block of img. Precedence, first match wins:
// blocks reached from a directory entry are active; unclaimed blocks that
// begin with a message header, then unclaimed blocks the bitmap marks as
// allocated, start deleted chains; leftover blocks holding data are
// orphaned; everything else is unused.
func Classify(img *Image, opts Options) *Analysis {
	opts = opts.withDefaults()
	total := img.DataBlocks()
	a := &Analysis{
		Format:    img.Format(),
		Total:     total,
		Allocated: img.AllocatedCount(),
		labels:    make([]Label, total+1),
		counts:    make(map[Label]int, len(Labels)),
	}

	// Active chains, straight from the directory.
	for _, e := range img.Entries() {
		if e.IsEmpty() {
			continue
		}
		ch := Walk(img, int(e.Block), opts.activeWalk(img.Format()))
		for i, b := range ch.Blocks {
			if i == 0 {
				a.labels[b] = ActiveHeader
			} else if a.labels[b] == Unused {
				a.labels[b] = ActiveChain
			}
		}
	}

	claimed := func(b int) bool {
		return img.InBounds(b) && a.labels[b] != Unused
	}
	claimDeleted := func(n int) {
		a.labels[n] = DeletedHeader
		wo := opts.activeWalk(img.Format())
		wo.Exclude = claimed
		ch := Walk(img, n, wo)
		for _, b := range ch.Blocks[1:] {
			a.labels[b] = DeletedChain
		}
		logging.Debug("deleted header at block %d, %d block(s)", n, len(ch.Blocks))
		a.Deleted = append(a.Deleted, ch)
	}

	// Deleted chains. Header content is the stronger signal, so those
	// candidates claim their chains before bitmap-only candidates do.
	for n := 1; n <= total; n++ {
		if a.labels[n] != Unused {
			continue
		}
		payload, _, _ := img.Block(n)
		if isMessageStartBytes(DecodeBlock(payload)) {
			claimDeleted(n)
		}
	}
	for n := 1; n <= total; n++ {
		if a.labels[n] == Unused && img.Allocated(n) {
			claimDeleted(n)
		}
	}

	// Orphans: anything left that still holds data.
	for n := 1; n <= total; n++ {
		if a.labels[n] == Unused && img.HasData(n, opts.MinDataBytes) {
			a.labels[n] = Orphaned
		}
	}
	absorbed := make(map[int]bool)
	for n := 1; n <= total; n++ {
		if a.labels[n] != Orphaned || absorbed[n] {
			continue
		}
		ch := Walk(img, n, WalkOptions{
			MinDataBytes: opts.MinDataBytes,
			Exclude: func(b int) bool {
				return img.InBounds(b) && (a.labels[b] != Orphaned || absorbed[b])
			},
		})
		for _, b := range ch.Blocks {
			absorbed[b] = true
		}
		a.Orphans = append(a.Orphans, ch)
	}

	for n := 1; n <= total; n++ {
		a.counts[a.labels[n]]++
	}
	return a
}
