package gbbs

import (
	"encoding/binary"
	"fmt"
)

// Image is a loaded message database. The underlying buffer is never
// modified, so an Image can be shared freely between passes.
type Image struct {
	data   []byte
	header Header
	format Format

	bitmapOffset int
	bitmapLen    int // in-bounds bytes of the bitmap
	dirOffset    int
	dirLen       int // in-bounds bytes of the directory
	dataOffset   int
	dataBlocks   int
}

// Load parses the header of buf and computes the section layout.
//
// A buffer shorter than the header yields a nil Image. When a section runs
// past the end of the buffer the Image is still returned, clipped to what is
// in bounds, together with an error wrapping ErrMalformedHeader so callers
// can choose to continue with a partial analysis.
func Load(buf []byte) (*Image, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: file is %d bytes, need at least %d", ErrMalformedHeader, len(buf), HeaderSize)
	}

	img := &Image{data: buf}
	img.header = Header{
		BitmapBlocks:     buf[0],
		DirectoryBlocks:  buf[1],
		UsedBlocks:       binary.LittleEndian.Uint16(buf[2:4]),
		MessageCount:     binary.LittleEndian.Uint16(buf[4:6]),
		NewMessageNumber: binary.LittleEndian.Uint16(buf[6:8]),
	}
	if buf[0] == MailMarker {
		img.format = Mail
	}

	bitmapSize := int(img.header.BitmapBlocks) * SectionUnit
	dirSize := int(img.header.DirectoryBlocks) * SectionUnit
	img.bitmapOffset = HeaderSize
	img.dirOffset = img.bitmapOffset + bitmapSize
	img.dataOffset = img.dirOffset + dirSize

	img.bitmapLen = clip(img.bitmapOffset, bitmapSize, len(buf))
	img.dirLen = clip(img.dirOffset, dirSize, len(buf))
	if len(buf) > img.dataOffset {
		img.dataBlocks = (len(buf) - img.dataOffset) / BlockSize
	}

	switch {
	case img.bitmapLen < bitmapSize:
		return img, fmt.Errorf("%w: bitmap (%d bytes at 0x%03x) extends past end of %d-byte file",
			ErrMalformedHeader, bitmapSize, img.bitmapOffset, len(buf))
	case img.dirLen < dirSize:
		return img, fmt.Errorf("%w: directory (%d bytes at 0x%03x) extends past end of %d-byte file",
			ErrMalformedHeader, dirSize, img.dirOffset, len(buf))
	}
	return img, nil
}

// clip returns how many of size bytes starting at off lie inside total.
func clip(off, size, total int) int {
	if off >= total {
		return 0
	}
	if off+size > total {
		return total - off
	}
	return size
}

// Header returns the parsed MSGINFO header.
func (img *Image) Header() Header { return img.header }

// Format returns the layout selected by header byte 0.
func (img *Image) Format() Format { return img.format }

// Size returns the file size in bytes.
func (img *Image) Size() int { return len(img.data) }

// BitmapOffset returns the file offset of the bitmap.
func (img *Image) BitmapOffset() int { return img.bitmapOffset }

// DirectoryOffset returns the file offset of the directory.
func (img *Image) DirectoryOffset() int { return img.dirOffset }

// DataOffset returns the file offset of data block 1.
func (img *Image) DataOffset() int { return img.dataOffset }

// DataBlocks returns the number of complete data blocks in the file.
func (img *Image) DataBlocks() int { return img.dataBlocks }

// MaxEntries returns the directory capacity declared by the header.
func (img *Image) MaxEntries() int {
	return int(img.header.DirectoryBlocks) * EntriesPerUnit
}

// Bitmap returns the in-bounds bitmap bytes.
func (img *Image) Bitmap() []byte {
	return img.data[img.bitmapOffset : img.bitmapOffset+img.bitmapLen]
}

// Allocated reports whether the bitmap marks block n (1-based) as in use.
// Bits are stored most significant first. Blocks beyond the bitmap are
// reported as free.
func (img *Image) Allocated(n int) bool {
	if n < 1 {
		return false
	}
	idx := (n - 1) / 8
	if idx >= img.bitmapLen {
		return false
	}
	return img.data[img.bitmapOffset+idx]&(0x80>>uint((n-1)%8)) != 0
}

// AllocatedCount returns how many data blocks the bitmap marks as in use.
func (img *Image) AllocatedCount() int {
	count := 0
	for n := 1; n <= img.dataBlocks; n++ {
		if img.Allocated(n) {
			count++
		}
	}
	return count
}

// Entry returns directory entry i (0-based). ok is false when the entry
// lies outside the directory or past the end of the file.
func (img *Image) Entry(i int) (DirectoryEntry, bool) {
	if i < 0 || (i+1)*EntrySize > img.dirLen {
		return DirectoryEntry{}, false
	}
	off := img.dirOffset + i*EntrySize
	return DirectoryEntry{
		Offset: binary.LittleEndian.Uint16(img.data[off : off+2]),
		Block:  binary.LittleEndian.Uint16(img.data[off+2 : off+4]),
	}, true
}

// Entries returns every in-bounds directory entry, empty slots included,
// indexed by entry number.
func (img *Image) Entries() []DirectoryEntry {
	n := img.dirLen / EntrySize
	entries := make([]DirectoryEntry, 0, n)
	for i := 0; i < n; i++ {
		e, _ := img.Entry(i)
		entries = append(entries, e)
	}
	return entries
}

// BlockOffset returns the file offset of data block n (1-based).
func (img *Image) BlockOffset(n int) int {
	return img.dataOffset + (n-1)*BlockSize
}

// InBounds reports whether block n is a complete data block of the file.
func (img *Image) InBounds(n int) bool {
	return n >= 1 && n <= img.dataBlocks
}

// Block returns the payload and next-block pointer of block n. ok is false
// when the block is out of bounds.
func (img *Image) Block(n int) (payload []byte, next int, ok bool) {
	if !img.InBounds(n) {
		return nil, 0, false
	}
	off := img.BlockOffset(n)
	payload = img.data[off : off+PayloadSize : off+PayloadSize]
	next = int(binary.LittleEndian.Uint16(img.data[off+PayloadSize : off+BlockSize]))
	return payload, next, true
}

// NonNull counts the non-zero bytes of a payload.
func NonNull(payload []byte) int {
	count := 0
	for _, b := range payload {
		if b != 0 {
			count++
		}
	}
	return count
}

// HasData reports whether block n holds more than minBytes non-null payload bytes.
func (img *Image) HasData(n, minBytes int) bool {
	payload, _, ok := img.Block(n)
	return ok && NonNull(payload) > minBytes
}
