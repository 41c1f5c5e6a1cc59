package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/coder/websocket"
	"github.com/spf13/cobra"

	"github.com/feats/ftg/internal/api"
	"github.com/feats/ftg/internal/crawl"
	"github.com/feats/ftg/internal/iocontext"
	"github.com/feats/ftg/internal/outfmt"
	"github.com/feats/ftg/internal/outline"
	"github.com/feats/ftg/internal/resolve"
	"github.com/feats/ftg/internal/stream"
)

// messagesEnvelope is the JSON export shape: retrieval parameters first,
// then the records oldest-first.
type messagesEnvelope struct {
	Meta crawl.Meta     `json:"meta"`
	Data []crawl.Record `json:"data"`
}

func newMessagesCmd() *cobra.Command {
	var (
		limit     int
		startDate string
		markdown  bool
		saved     bool
		collapsed bool
		follow    bool
	)

	cmd := &cobra.Command{
		Use:     "messages [chat]...",
		Aliases: []string{"m", "msg"},
		Short:   "Retrieve message history from chats",
		Long: strings.TrimSpace(`
Retrieve message history from every chat whose name contains one of the
given arguments (case-insensitive). Chats are crawled one at a time and
never interleave; within each chat messages read oldest-first.

Without --start-date the newest messages are fetched, 10 per chat unless
--limit says otherwise. With --start-date the crawl walks forward from
that date and --limit 0 means unbounded.

Dates accept compact human forms: 'today1032', '1may1120', 'monday',
'last wednesday', '2w ago', '2024-05-01 09:30'.
`),
		Example: strings.TrimSpace(`
  # Last 10 messages from chats matching "work"
  ftg messages work

  # Everything since the 1st of May, as a Logseq outline
  ftg messages work -s 1may -l 0 --markdown

  # Saved messages, newest 5
  ftg messages --saved -l 5

  # Keep listening for new messages
  ftg messages work --follow
`),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !saved {
				return fmt.Errorf("You must specify at least one chat or --saved.")
			}
			if collapsed && !markdown {
				return fmt.Errorf("--collapsed requires --markdown")
			}
			if follow && markdown {
				return fmt.Errorf("--follow and --markdown cannot be used together")
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			session := crawl.NewSession(client, sessionLocation())

			if follow {
				return followMessages(ctx, cmd, client, session, args, saved)
			}

			records, meta, err := session.Retrieve(ctx, crawl.Options{
				ChatNames: args,
				Limit:     limit,
				StartDate: startDate,
				Saved:     saved,
			})
			if err != nil {
				return err
			}

			if len(records) == 0 && !saved {
				if err := suggestChats(ctx, cmd, client, args); err != nil {
					return err
				}
			}

			ioStreams := iocontext.GetIO(ctx)
			if markdown {
				return outline.Write(ioStreams.Out, records, outline.Options{Collapsed: collapsed})
			}
			if outfmt.IsJSONL(ctx) {
				for _, rec := range records {
					if err := outfmt.WriteJSONMaybeCompact(ioStreams.Out, rec, true); err != nil {
						return err
					}
				}
				return nil
			}
			if !isJSON(cmd) {
				w := newTabWriter(ioStreams.Out)
				for _, rec := range records {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						formatTimestampShort(rec.DateSent.Time), rec.IsPartOf.Headline, rec.Sender, rec.Text)
				}
				return w.Flush()
			}
			return printJSON(cmd, messagesEnvelope{Meta: meta, Data: records})
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Messages per chat (default 10; 0 with --start-date means unbounded)")
	cmd.Flags().StringVarP(&startDate, "start-date", "s", "", "Crawl forward from this date (human forms accepted)")
	cmd.Flags().BoolVarP(&markdown, "markdown", "m", false, "Render a Logseq outline instead of JSON")
	cmd.Flags().BoolVar(&saved, "saved", false, "Crawl the saved-messages store instead of named chats")
	cmd.Flags().BoolVar(&collapsed, "collapsed", false, "Mark each date block collapsed in the outline")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep listening for new messages after the history")
	flagAlias(cmd.Flags(), "start-date", "sd")
	flagAlias(cmd.Flags(), "markdown", "md")
	flagAlias(cmd.Flags(), "collapsed", "col")

	return cmd
}

// suggestChats reports fuzzy near-misses on stderr when no chat matched.
// An empty match set is not an error; the export just comes out empty.
func suggestChats(ctx context.Context, cmd *cobra.Command, client *api.Client, names []string) error {
	dialogs, err := listDialogs(ctx, client)
	if err != nil {
		return err
	}
	if len(matchDialogs(dialogs, names)) > 0 {
		return nil // chats matched, they're just quiet
	}

	items := make([]resolve.Named, len(dialogs))
	for i, d := range dialogs {
		items[i] = resolve.Named{ID: d.ID, Name: d.Name}
	}

	errOut := cmd.ErrOrStderr()
	for _, name := range names {
		matches := resolve.FuzzyMatchAll(name, items, 3)
		if len(matches) == 0 {
			_, _ = fmt.Fprintf(errOut, "No chats match %q.\n", name)
			continue
		}
		var opts []string
		for _, m := range matches {
			opts = append(opts, m.Name)
		}
		_, _ = fmt.Fprintf(errOut, "No chats match %q. Did you mean: %s?\n", name, strings.Join(opts, ", "))
	}
	return nil
}

// followMessages subscribes to the gateway update feed and emits one JSON
// record per line as messages arrive, until the feed closes or ctx ends.
func followMessages(ctx context.Context, cmd *cobra.Command, client *api.Client, session *crawl.Session, names []string, saved bool) error {
	var dialogs []api.Dialog
	if saved {
		dialogs = []api.Dialog{{ID: api.SavedDialogID, Name: crawl.SavedChatName}}
	} else {
		var err error
		dialogs, err = session.ResolveChats(ctx, names)
		if err != nil {
			return err
		}
		if len(dialogs) == 0 {
			if err := suggestChats(ctx, cmd, client, names); err != nil {
				return err
			}
			return fmt.Errorf("no chats matched, nothing to follow")
		}
	}

	byID := make(map[int64]api.Dialog, len(dialogs))
	ids := make([]int64, 0, len(dialogs))
	for _, d := range dialogs {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	feed, err := stream.Connect(ctx, stream.FeedURL(client.BaseURL), client.SessionToken)
	if err != nil {
		return err
	}
	defer func() { _ = feed.Close() }()

	if err := feed.Subscribe(ctx, ids); err != nil {
		return err
	}

	ioStreams := iocontext.GetIO(ctx)
	for ev := range feed.Listen(ctx) {
		if ev.Err != nil {
			if websocket.CloseStatus(ev.Err) == websocket.StatusNormalClosure {
				return nil
			}
			return ev.Err
		}
		d, ok := byID[ev.Update.ChatID]
		if !ok {
			continue // update for a chat we didn't subscribe to
		}
		rec, err := session.Render(ctx, d, ev.Update.Message)
		if err != nil {
			return err
		}
		if err := outfmt.WriteJSONMaybeCompact(ioStreams.Out, rec, true); err != nil {
			return err
		}
	}
	return ctx.Err()
}
