package gbbs

import (
	"fmt"

	"github.com/stlalpha/gbbsmsg/internal/logging"
)

// Outcome is the final state of a chain walk.
type Outcome uint8

const (
	Terminated Outcome = iota
	Aborted
)

// Reason explains why a walk aborted.
type Reason uint8

const (
	NoReason Reason = iota
	OutOfBounds
	LoopDetected
	SelfReference
)

func (r Reason) String() string {
	switch r {
	case OutOfBounds:
		return "block out of bounds"
	case LoopDetected:
		return "loop detected"
	case SelfReference:
		return "self-referencing block"
	default:
		return "none"
	}
}

// WalkOptions adjusts a walk for the caller's purpose.
type WalkOptions struct {
	// Stop is consulted with the decoded content of every block after the
	// first. Returning true ends the walk before that block.
	Stop func(decoded []byte) bool
	// Exclude marks blocks owned by another chain. The walk ends before
	// reaching one and self-reference recovery never probes one.
	Exclude func(block int) bool
	// MinDataBytes is the non-null payload threshold a block must exceed to
	// be accepted by self-reference recovery. Zero means MinDataBytes.
	MinDataBytes int
}

// Chain is the result of walking a block chain.
type Chain struct {
	Start    int
	Blocks   []int    // blocks read, in order
	Payloads [][]byte // 126-byte payloads, parallel to Blocks
	Outcome  Outcome
	Reason   Reason
	// At is the block where the walk went wrong: the out-of-bounds or
	// repeated block number, or the self-referencing block.
	At int
	// StoppedAt is the block the Stop or Exclude predicate cut the walk
	// before, or 0.
	StoppedAt int
	// Recovered lists blocks reached through self-reference recovery.
	Recovered []int
}

// Packed returns the concatenated payloads.
func (c *Chain) Packed() []byte {
	out := make([]byte, 0, len(c.Payloads)*PayloadSize)
	for _, p := range c.Payloads {
		out = append(out, p...)
	}
	return out
}

// Marker renders an aborted walk as an inline diagnostic line. It returns
// the empty string for walks that terminated normally.
func (c *Chain) Marker() string {
	if c.Outcome != Aborted {
		return ""
	}
	switch c.Reason {
	case OutOfBounds:
		return fmt.Sprintf("[** chain broken: block %d is out of bounds, message truncated **]", c.At)
	case LoopDetected:
		return fmt.Sprintf("[** chain broken: loop back to block %d, message truncated **]", c.At)
	case SelfReference:
		return fmt.Sprintf("[** chain broken: block %d points to itself, message truncated **]", c.At)
	}
	return ""
}

// Walk follows the chain starting at block start until a zero next pointer,
// a corruption condition, or a caller predicate ends it. The visited set is
// local to the walk, so Walk always terminates and is safe to call
// concurrently on the same Image.
func Walk(img *Image, start int, opts WalkOptions) Chain {
	minBytes := opts.MinDataBytes
	if minBytes == 0 {
		minBytes = MinDataBytes
	}
	excluded := func(n int) bool { return opts.Exclude != nil && opts.Exclude(n) }

	c := Chain{Start: start}
	visited := make(map[int]bool)
	current := start
	for {
		// Reading
		payload, next, ok := img.Block(current)
		if !ok {
			c.Outcome, c.Reason, c.At = Aborted, OutOfBounds, current
			return c
		}
		if len(c.Blocks) > 0 && opts.Stop != nil && opts.Stop(DecodeBlock(payload)) {
			logging.Debug("chain %d: block %d starts another message, stopping", start, current)
			c.StoppedAt = current
			return c
		}
		visited[current] = true
		c.Blocks = append(c.Blocks, current)
		c.Payloads = append(c.Payloads, payload)

		// Continuing
		switch {
		case next == 0:
			return c
		case next == current:
			probe := current + 1
			if !acceptSuccessor(img, probe, minBytes, visited, excluded) {
				c.Outcome, c.Reason, c.At = Aborted, SelfReference, current
				return c
			}
			logging.Debug("chain %d: block %d points to itself, continuing at %d", start, current, probe)
			c.Recovered = append(c.Recovered, probe)
			next = probe
		case visited[next]:
			c.Outcome, c.Reason, c.At = Aborted, LoopDetected, next
			return c
		}
		if excluded(next) {
			c.StoppedAt = next
			return c
		}
		current = next
	}
}

// acceptSuccessor decides whether block n is the real continuation of a
// block whose next pointer refers to itself.
func acceptSuccessor(img *Image, n, minBytes int, visited map[int]bool, excluded func(int) bool) bool {
	if visited[n] || excluded(n) {
		return false
	}
	payload, _, ok := img.Block(n)
	if !ok || NonNull(payload) <= minBytes {
		return false
	}
	return !isMessageStartBytes(DecodeBlock(payload))
}
