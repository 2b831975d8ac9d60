package gbbs

// Options tunes the recovery heuristics.
type Options struct {
	// MinDataBytes is how many non-null payload bytes a block must exceed
	// to count as holding data. Zero or less means MinDataBytes.
	MinDataBytes int
	// MinMailLength drops mail fragments whose trimmed text is shorter.
	// Zero or less means MinMailLength.
	MinMailLength int
	// Dates parses message timestamps.
	Dates DateParser
}

func (o Options) withDefaults() Options {
	if o.MinDataBytes <= 0 {
		o.MinDataBytes = MinDataBytes
	}
	if o.MinMailLength <= 0 {
		o.MinMailLength = MinMailLength
	}
	return o
}

// activeWalk returns the walk options for message chains of format f.
// Bulletin chains end early when a continuation block holds another
// message header, which happens when a freed block was reused without
// clearing the old pointer. Mail chains carry many messages back to back,
// so they are always read in full.
func (o Options) activeWalk(f Format) WalkOptions {
	wo := WalkOptions{MinDataBytes: o.MinDataBytes}
	if f == Bulletin {
		wo.Stop = isMessageStartBytes
	}
	return wo
}

// Selection picks the message kinds an extraction recovers.
type Selection struct {
	Active   bool
	Deleted  bool
	Orphaned bool
}

// All selects every kind.
var All = Selection{Active: true, Deleted: true, Orphaned: true}

// Extraction holds recovered messages by kind.
type Extraction struct {
	Active   []Message
	Deleted  []Message
	Orphaned []Message
}

// Scanner binds a loaded image to a set of options. Every method is a fresh
// read-only pass, so analyze and extract can run over one load as often as
// needed.
type Scanner struct {
	img  *Image
	opts Options
}

// NewScanner returns a Scanner over img.
func NewScanner(img *Image, opts Options) *Scanner {
	return &Scanner{img: img, opts: opts.withDefaults()}
}

// Image returns the scanned image.
func (s *Scanner) Image() *Image { return s.img }

// Analyze classifies every data block.
func (s *Scanner) Analyze() *Analysis {
	return Classify(s.img, s.opts)
}

// Active returns the messages reachable from the directory.
func (s *Scanner) Active() []Message {
	return ActiveMessages(s.img, s.opts)
}

// Deleted returns messages recovered from deleted chains.
func (s *Scanner) Deleted() []Message {
	return DeletedMessages(s.img, s.Analyze(), s.opts)
}

// Orphaned returns fragments recovered from orphaned blocks.
func (s *Scanner) Orphaned() []Message {
	return OrphanedMessages(s.img, s.Analyze(), s.opts)
}

// Extract recovers the selected kinds, classifying the image at most once.
func (s *Scanner) Extract(sel Selection) Extraction {
	var ex Extraction
	if sel.Active {
		ex.Active = s.Active()
	}
	if sel.Deleted || sel.Orphaned {
		a := s.Analyze()
		if sel.Deleted {
			ex.Deleted = DeletedMessages(s.img, a, s.opts)
		}
		if sel.Orphaned {
			ex.Orphaned = OrphanedMessages(s.img, a, s.opts)
		}
	}
	return ex
}
