package gbbs

import (
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
)

// blockChars is the number of characters one data block holds.
const blockChars = PayloadSize / GroupSize * GroupChars

// testImage builds a database image in memory.
type testImage struct {
	t       *testing.T
	buf     []byte
	dataOff int
}

func newTestImage(t *testing.T, bitmapBlocks, dirBlocks, dataBlocks int) *testImage {
	t.Helper()
	dataOff := HeaderSize + (bitmapBlocks+dirBlocks)*SectionUnit
	ti := &testImage{t: t, buf: make([]byte, dataOff+dataBlocks*BlockSize), dataOff: dataOff}
	ti.buf[0] = byte(bitmapBlocks)
	ti.buf[1] = byte(dirBlocks)
	return ti
}

// newMailImage returns an image whose header marks it as mail. The marker
// doubles as the bitmap block count.
func newMailImage(t *testing.T, dirBlocks, dataBlocks int) *testImage {
	return newTestImage(t, MailMarker, dirBlocks, dataBlocks)
}

func (ti *testImage) setEntry(i, block int) {
	off := HeaderSize + int(ti.buf[0])*SectionUnit + i*EntrySize
	binary.LittleEndian.PutUint16(ti.buf[off+2:], uint16(block))
}

func (ti *testImage) allocate(blocks ...int) {
	for _, n := range blocks {
		ti.buf[HeaderSize+(n-1)/8] |= 0x80 >> uint((n-1)%8)
	}
}

func (ti *testImage) setNext(n, next int) {
	off := ti.dataOff + (n-1)*BlockSize
	binary.LittleEndian.PutUint16(ti.buf[off+PayloadSize:], uint16(next))
}

// setBlock packs up to one block of text into block n.
func (ti *testImage) setBlock(n int, text string, next int) {
	ti.t.Helper()
	if len(text) > blockChars {
		ti.t.Fatalf("block text is %d chars, max %d", len(text), blockChars)
	}
	padded := make([]byte, blockChars)
	copy(padded, text)
	packed, err := Encode(padded)
	if err != nil {
		ti.t.Fatalf("Encode: %v", err)
	}
	off := ti.dataOff + (n-1)*BlockSize
	copy(ti.buf[off:off+PayloadSize], packed)
	ti.setNext(n, next)
}

// writeChain spreads text over consecutive blocks starting at start and
// links them. It returns the blocks used.
func (ti *testImage) writeChain(start int, text string) []int {
	ti.t.Helper()
	var blocks []int
	for n := start; ; n++ {
		chunk := text
		if len(chunk) > blockChars {
			chunk = text[:blockChars]
		}
		text = text[len(chunk):]
		next := 0
		if text != "" {
			next = n + 1
		}
		ti.setBlock(n, chunk, next)
		blocks = append(blocks, n)
		if text == "" {
			return blocks
		}
	}
}

func (ti *testImage) load() *Image {
	ti.t.Helper()
	img, err := Load(ti.buf)
	if err != nil {
		ti.t.Fatalf("Load: %v", err)
	}
	return img
}

// message returns a message in the stock GBBS layout with CR line endings.
func message(subject string, to, from int, date, body string) string {
	return fmt.Sprintf("%s\r%d,USER %d\r%d,USER %d\rDate : %s\r%s\r", subject, to, to, from, from, date, body)
}

// filler returns n characters of body text that never look like a header.
func filler(n int) string {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		fmt.Fprintf(&b, "This is line %d of the message body.\r", i)
	}
	return b.String()[:n]
}
