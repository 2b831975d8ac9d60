package gbbs

import (
	"bytes"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var presumedPacked = []byte{0xD0, 0x52, 0x45, 0x53, 0xD5, 0x4D, 0x45}

func TestDecodeWorkedVector(t *testing.T) {
	got, err := Decode(presumedPacked, Continuation)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got) != "PRESUMED" {
		t.Errorf("Decode = %q, want %q", got, "PRESUMED")
	}
	if got[7] != 0x44 {
		t.Errorf("eighth character = 0x%02x, want 0x44", got[7])
	}
}

func TestEncodeWorkedVector(t *testing.T) {
	got, err := Encode([]byte("PRESUMED"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(got, presumedPacked) {
		t.Errorf("Encode = % X, want % X", got, presumedPacked)
	}
}

func TestDecodeStopAtNull(t *testing.T) {
	packed, err := Encode([]byte("HELLO\x00\x00\x00WORLD!!!"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, _ := Decode(packed, StopAtNull)
	if string(got) != "HELLO" {
		t.Errorf("StopAtNull = %q, want HELLO", got)
	}

	got, _ = Decode(packed, Continuation)
	if string(got) != "HELLO\x00\x00\x00WORLD!!!" {
		t.Errorf("Continuation = %q", got)
	}
}

func TestDecodeNullInEighthCharacter(t *testing.T) {
	packed, _ := Encode([]byte("ABCDEFG\x00"))
	got, _ := Decode(packed, StopAtNull)
	if string(got) != "ABCDEFG" {
		t.Errorf("Decode = %q, want ABCDEFG", got)
	}
}

func TestDecodePartialGroup(t *testing.T) {
	src := append(append([]byte{}, presumedPacked...), 0x41, 0x42)
	got, err := Decode(src, Continuation)
	if !errors.Is(err, ErrPartialGroup) {
		t.Fatalf("err = %v, want ErrPartialGroup", err)
	}
	if string(got) != "PRESUMED" {
		t.Errorf("complete groups = %q, want PRESUMED", got)
	}
}

func TestDecodeBlockLength(t *testing.T) {
	got := DecodeBlock(make([]byte, PayloadSize))
	if len(got) != blockChars {
		t.Errorf("decoded block length = %d, want %d", len(got), blockChars)
	}
}

func TestEncodeErrors(t *testing.T) {
	if _, err := Encode([]byte("SEVEN!!")); !errors.Is(err, ErrTextLength) {
		t.Errorf("7-char text: err = %v, want ErrTextLength", err)
	}
	if _, err := Encode([]byte("ABCDEFG\xC1")); !errors.Is(err, ErrNotSevenBit) {
		t.Errorf("8-bit text: err = %v, want ErrNotSevenBit", err)
	}
	got, err := Encode(nil)
	if err != nil || len(got) != 0 {
		t.Errorf("Encode(nil) = %v, %v", got, err)
	}
}

func TestCodecProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(text)) == text", prop.ForAll(
		func(text []uint8) bool {
			text = text[:len(text)/GroupChars*GroupChars]
			packed, err := Encode(text)
			if err != nil {
				return false
			}
			if len(packed) != len(text)/GroupChars*GroupSize {
				return false
			}
			got, err := Decode(packed, Continuation)
			return err == nil && bytes.Equal(got, text)
		},
		gen.SliceOf(gen.UInt8Range(0, 0x7F)),
	))

	properties.Property("encode(decode(packed)) == packed", prop.ForAll(
		func(packed []uint8) bool {
			packed = packed[:len(packed)/GroupSize*GroupSize]
			text, err := Decode(packed, Continuation)
			if err != nil {
				return false
			}
			again, err := Encode(text)
			return err == nil && bytes.Equal(again, packed)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
