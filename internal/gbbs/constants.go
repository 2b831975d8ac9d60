// Package gbbs reads GBBS Pro message database files (bulletin boards and
// private mail) and recovers active, deleted and orphaned messages from them.
// The format is block-chained: an 8-byte header, an allocation bitmap, a
// fixed-size directory and 128-byte data blocks carrying 7-bit packed text.
package gbbs

import "errors"

// GBBS file format constants
const (
	HeaderSize     = 8   // MSGINFO header at the start of the file
	SectionUnit    = 128 // Bitmap and directory sizes are counted in 128-byte blocks
	BlockSize      = 128 // Data block: payload + next pointer
	PayloadSize    = 126 // Packed text bytes per data block
	EntrySize      = 4   // Directory entry: Offset(2) + Block(2)
	EntriesPerUnit = SectionUnit / EntrySize
	GroupSize      = 7 // Packed bytes per decoded group
	GroupChars     = 8 // Characters produced by one group

	// MailMarker in header byte 0 identifies a mail database.
	MailMarker = 0x04
	// EOT separates consecutive messages inside one mail user chain.
	EOT = 0x04

	// MinDataBytes is the default threshold of non-null payload bytes a
	// block needs before it is treated as carrying recoverable data.
	MinDataBytes = 10
	// MinMailLength is the default minimum trimmed length of a mail message.
	MinMailLength = 20
)

// Sentinel errors
var (
	ErrMalformedHeader = errors.New("gbbs: malformed header")
	ErrPartialGroup    = errors.New("gbbs: packed data is not a whole number of 7-byte groups")
	ErrNotSevenBit     = errors.New("gbbs: text contains bytes above 0x7F")
	ErrTextLength      = errors.New("gbbs: text length is not a multiple of 8")
)
