package gbbs

import "time"

// Format identifies which of the two message layouts a database uses.
type Format int

const (
	Bulletin Format = iota
	Mail
)

func (f Format) String() string {
	if f == Mail {
		return "email"
	}
	return "bulletin"
}

// Header represents the 8-byte MSGINFO header at offset 0.
type Header struct {
	BitmapBlocks     uint8
	DirectoryBlocks  uint8
	UsedBlocks       uint16
	MessageCount     uint16
	NewMessageNumber uint16
}

// DirectoryEntry is one 4-byte directory record. In bulletin files it points
// at the first block of a message; in mail files entry N is the head of
// user N's chain.
type DirectoryEntry struct {
	Offset uint16
	Block  uint16
}

// IsEmpty reports whether the slot is unused.
func (e DirectoryEntry) IsEmpty() bool {
	return e.Block == 0
}

// Label is the inferred role of a data block. It is never stored in the file.
type Label uint8

const (
	Unused Label = iota
	ActiveHeader
	ActiveChain
	DeletedHeader
	DeletedChain
	Orphaned
)

// Labels lists every label in block map order.
var Labels = []Label{ActiveHeader, ActiveChain, DeletedHeader, DeletedChain, Orphaned, Unused}

func (l Label) String() string {
	switch l {
	case ActiveHeader:
		return "active header"
	case ActiveChain:
		return "active chain"
	case DeletedHeader:
		return "deleted header"
	case DeletedChain:
		return "deleted chain"
	case Orphaned:
		return "orphaned"
	default:
		return "unused"
	}
}

// Glyph is the single-character block map marker for the label.
func (l Label) Glyph() byte {
	switch l {
	case ActiveHeader:
		return 'H'
	case ActiveChain:
		return 'C'
	case DeletedHeader:
		return 'D'
	case DeletedChain:
		return 'd'
	case Orphaned:
		return 'o'
	default:
		return ' '
	}
}

// Kind says how a message was recovered.
type Kind uint8

const (
	KindActive Kind = iota
	KindDeleted
	KindOrphaned
)

func (k Kind) String() string {
	switch k {
	case KindDeleted:
		return "deleted"
	case KindOrphaned:
		return "orphaned"
	default:
		return "active"
	}
}

// NoRecipient is the Recipient value of messages that are not mail.
const NoRecipient = -1

// Message is one recovered message or fragment.
type Message struct {
	Kind Kind
	// Source is the directory index for active messages and the starting
	// block number for deleted and orphaned ones.
	Source     int
	Block      int    // first data block
	Blocks     []int  // blocks the text was read from, in order
	Raw        []byte // decoded bytes, CR line endings, separators removed
	Text       string // display text
	Recipient  int    // mail recipient user ID, or NoRecipient
	Diagnostic string // inline marker when the chain walk aborted
	HasHeader  bool   // text starts with a recognizable message header
	Date       time.Time
}

// HasDate reports whether a date line was parsed from the message.
func (m *Message) HasDate() bool {
	return !m.Date.IsZero()
}
