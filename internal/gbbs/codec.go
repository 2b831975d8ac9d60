package gbbs

// DecodeMode controls where Decode stops.
type DecodeMode int

const (
	// StopAtNull ends decoding at the first zero character. Bulletin
	// messages are null terminated.
	StopAtNull DecodeMode = iota
	// Continuation decodes every group and leaves boundaries to the caller.
	Continuation
)

// Decode unpacks 7-bit packed text. Every group of 7 source bytes yields 8
// characters: the low 7 bits of each byte, then an eighth character built
// from the high bits, the first byte carrying its most significant bit.
//
// The packed format never produces partial groups. Trailing bytes that do
// not form a whole group are not decoded and ErrPartialGroup is returned
// along with the characters of the complete groups.
func Decode(src []byte, mode DecodeMode) ([]byte, error) {
	out := make([]byte, 0, len(src)/GroupSize*GroupChars)
	groups := len(src) / GroupSize
	for g := 0; g < groups; g++ {
		group := src[g*GroupSize : (g+1)*GroupSize]
		var chars [GroupChars]byte
		var c8 byte
		for i, b := range group {
			chars[i] = b & 0x7F
			c8 = c8<<1 | b>>7
		}
		chars[GroupSize] = c8

		for _, c := range chars {
			if mode == StopAtNull && c == 0 {
				return out, nil
			}
			out = append(out, c)
		}
	}
	if len(src)%GroupSize != 0 {
		return out, ErrPartialGroup
	}
	return out, nil
}

// DecodeBlock unpacks one 126-byte payload in Continuation mode.
func DecodeBlock(payload []byte) []byte {
	out, _ := Decode(payload, Continuation)
	return out
}

// Encode packs 7-bit text into the on-disk form. The text length must be a
// multiple of 8 and every byte must fit in 7 bits.
func Encode(text []byte) ([]byte, error) {
	if len(text)%GroupChars != 0 {
		return nil, ErrTextLength
	}
	out := make([]byte, 0, len(text)/GroupChars*GroupSize)
	for g := 0; g < len(text); g += GroupChars {
		chars := text[g : g+GroupChars]
		for _, c := range chars {
			if c > 0x7F {
				return nil, ErrNotSevenBit
			}
		}
		c8 := chars[GroupSize]
		for i := 0; i < GroupSize; i++ {
			hi := (c8 >> uint(GroupSize-1-i)) & 1
			out = append(out, chars[i]|hi<<7)
		}
	}
	return out, nil
}
