// Package outline renders retrieved messages as a Logseq-style Markdown
// outline: one block per day, nested runs per sender, messages from the
// same minute folded under one time bullet.
package outline

import (
	"fmt"
	"io"

	"github.com/feats/ftg/internal/crawl"
)

const (
	timeFormat = "**15:04**"
	dateFormat = "Monday, 02.01.2006"
)

// Options control rendering.
type Options struct {
	// Collapsed marks each day block with Logseq's collapsed:: property
	// so long dumps land folded in the journal.
	Collapsed bool
}

// Write streams records as an outline. Records are consumed in order with
// a single forward cursor; grouping happens by run comparison, never by
// sorting, so the caller's ordering is what gets rendered.
func Write(w io.Writer, records []crawl.Record, opts Options) error {
	p := &printer{w: w}

	i := 0
	for i < len(records) {
		day := records[i].DateSent.Format(dateFormat)
		p.printf("- %s [[%s]] Telegram: %s\n",
			records[i].DateSent.Format(timeFormat), day, records[i].IsPartOf.Headline)
		if opts.Collapsed {
			p.printf("  collapsed:: true\n")
		}

		for i < len(records) && records[i].DateSent.Format(dateFormat) == day {
			sender := records[i].Sender
			// The same person often sends several messages in a row;
			// the name is printed once per run, then cleared.
			prefix := "*" + sender + "*: "

			for i < len(records) &&
				records[i].DateSent.Format(dateFormat) == day &&
				records[i].Sender == sender {

				minute := records[i].DateSent.Format(timeFormat)
				p.printf("  - %s %s", minute, prefix)
				prefix = ""

				for i < len(records) &&
					records[i].DateSent.Format(dateFormat) == day &&
					records[i].Sender == sender &&
					records[i].DateSent.Format(timeFormat) == minute {

					p.printf("%s\n", records[i].Text)
					i++
				}
			}
		}
	}

	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
