package gbbs

import (
	"bytes"
	"sort"
	"strings"

	"github.com/stlalpha/gbbsmsg/internal/logging"
)

// ActiveMessages recovers every message reachable from the directory. In
// bulletin files each non-empty entry is one message; in mail files each
// entry is a user's chain holding many EOT-separated messages.
func ActiveMessages(img *Image, opts Options) []Message {
	opts = opts.withDefaults()
	if img.Format() == Mail {
		return mailMessages(img, opts)
	}

	var msgs []Message
	for i, e := range img.Entries() {
		if e.IsEmpty() {
			continue
		}
		ch := Walk(img, int(e.Block), opts.activeWalk(Bulletin))
		m := opts.bulletinMessage(KindActive, i, ch)
		if !m.HasHeader {
			logging.Debug("directory entry %d (block %d) does not start with a message header", i, e.Block)
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func mailMessages(img *Image, opts Options) []Message {
	var msgs []Message
	for user, e := range img.Entries() {
		if e.IsEmpty() {
			continue
		}
		ch := Walk(img, int(e.Block), opts.activeWalk(Mail))
		found := opts.splitChain(KindActive, user, user, ch)
		if len(found) == 0 && ch.Outcome == Aborted {
			found = append(found, Message{
				Kind:       KindActive,
				Source:     user,
				Block:      ch.Start,
				Blocks:     ch.Blocks,
				Recipient:  user,
				Diagnostic: ch.Marker(),
			})
		}
		msgs = append(msgs, found...)
	}
	sortByDate(msgs)
	return msgs
}

// DeletedMessages turns the deleted chains found by Classify into messages,
// oldest first. Messages without a readable date sort first.
func DeletedMessages(img *Image, a *Analysis, opts Options) []Message {
	opts = opts.withDefaults()
	var msgs []Message
	for _, ch := range a.Deleted {
		if img.Format() == Mail {
			msgs = append(msgs, opts.splitChain(KindDeleted, ch.Start, NoRecipient, ch)...)
			continue
		}
		msgs = append(msgs, opts.bulletinMessage(KindDeleted, ch.Start, ch))
	}
	sortByDate(msgs)
	return msgs
}

// OrphanedMessages returns one fragment per orphan chain found by Classify.
// Orphans rarely begin at a message boundary, so the whole payload is
// decoded and NUL padding dropped instead of stopping at the first NUL.
func OrphanedMessages(img *Image, a *Analysis, opts Options) []Message {
	opts = opts.withDefaults()
	msgs := make([]Message, 0, len(a.Orphans))
	for _, ch := range a.Orphans {
		raw, _ := Decode(ch.Packed(), Continuation)
		raw = bytes.TrimRight(raw, "\x00")
		msgs = append(msgs, Message{
			Kind:       KindOrphaned,
			Source:     ch.Start,
			Block:      ch.Start,
			Blocks:     ch.Blocks,
			Raw:        raw,
			Text:       Render(raw),
			Recipient:  NoRecipient,
			Diagnostic: ch.Marker(),
		})
	}
	return msgs
}

// bulletinMessage decodes a null-terminated bulletin message.
func (o Options) bulletinMessage(kind Kind, source int, ch Chain) Message {
	raw, _ := Decode(ch.Packed(), StopAtNull)
	m := Message{
		Kind:       kind,
		Source:     source,
		Block:      ch.Start,
		Blocks:     ch.Blocks,
		Raw:        raw,
		Text:       Render(raw),
		Recipient:  NoRecipient,
		Diagnostic: ch.Marker(),
	}
	_, m.HasHeader = ParseHeader(m.Text)
	m.Date, _ = o.Dates.Parse(m.Text)
	return m
}

// splitChain decodes a mail chain and splits it into messages. A chain
// diagnostic is attached to the last message, where the break occurred.
func (o Options) splitChain(kind Kind, source, recipient int, ch Chain) []Message {
	raw, _ := Decode(ch.Packed(), Continuation)
	var msgs []Message
	for _, frag := range SplitMail(raw) {
		text := strings.TrimSpace(Render(frag))
		if len(text) < o.MinMailLength {
			continue
		}
		m := Message{
			Kind:      kind,
			Source:    source,
			Block:     ch.Start,
			Blocks:    ch.Blocks,
			Raw:       frag,
			Text:      text,
			Recipient: recipient,
		}
		_, m.HasHeader = ParseHeader(text)
		m.Date, _ = o.Dates.Parse(text)
		msgs = append(msgs, m)
	}
	if n := len(msgs); n > 0 {
		msgs[n-1].Diagnostic = ch.Marker()
	}
	return msgs
}

func sortByDate(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Date.Before(msgs[j].Date)
	})
}
