package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/feats/ftg/internal/api"
	"github.com/feats/ftg/internal/cache"
)

// entityLookupConcurrency bounds parallel entity fetches in verbose mode so
// a long chat list doesn't trip the gateway's rate limiter.
const entityLookupConcurrency = 4

type chatInfo struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

func newChatsCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:     "chats [name]...",
		Aliases: []string{"c", "dialogs"},
		Short:   "List chats, optionally filtered by partial name",
		Long: strings.TrimSpace(`
List the chats visible to the gateway session, in directory order.

Name arguments filter the listing: a chat is shown when its name contains
the argument (case-insensitive). Multiple arguments are applied in order,
so a chat matching several of them appears once per match.

The directory listing is cached for a few minutes; use 'ftg cache clear'
or FTG_NO_CACHE=1 to force a live read.
`),
		Example: strings.TrimSpace(`
  # All chats
  ftg chats

  # Chats whose name contains "work"
  ftg chats work

  # Include usernames (extra gateway calls)
  ftg chats work --verbose
`),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			dialogs, err := listDialogs(ctx, client)
			if err != nil {
				return err
			}
			matched := matchDialogs(dialogs, args)

			infos := make([]chatInfo, len(matched))
			for i, d := range matched {
				infos[i] = chatInfo{ID: d.ID, Name: d.Name}
			}

			if verbose {
				if err := fillUsernames(ctx, client, infos); err != nil {
					return err
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, infos)
			}

			w := newTabWriter(cmd.OutOrStdout())
			if verbose {
				_, _ = fmt.Fprintln(w, "ID\tNAME\tUSERNAME")
				for _, info := range infos {
					_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", info.ID, info.Name, info.Username)
				}
			} else {
				for _, info := range infos {
					_, _ = fmt.Fprintf(w, "%d\t%s\n", info.ID, info.Name)
				}
			}
			return w.Flush()
		}),
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Resolve usernames for each chat (extra gateway calls)")
	flagAlias(cmd.Flags(), "verbose", "vb")

	return cmd
}

// listDialogs reads the full dialog directory, serving from the short-lived
// cache when possible.
func listDialogs(ctx context.Context, client *api.Client) ([]api.Dialog, error) {
	dir, _ := cache.DefaultDir()
	store := cache.ForKey(dir, "dialogs", client.BaseURL)

	var dialogs []api.Dialog
	if store.Get(&dialogs) {
		return dialogs, nil
	}

	it := client.Dialogs().List()
	for {
		d, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		dialogs = append(dialogs, d)
	}

	store.Put(dialogs)
	return dialogs, nil
}

// matchDialogs applies partial-name filters in directory order, one result
// per (dialog, filter) match. No filters means everything.
func matchDialogs(dialogs []api.Dialog, names []string) []api.Dialog {
	if len(names) == 0 {
		return dialogs
	}
	var matched []api.Dialog
	for _, d := range dialogs {
		lower := strings.ToLower(d.Name)
		for _, name := range names {
			if strings.Contains(lower, strings.ToLower(name)) {
				matched = append(matched, d)
			}
		}
	}
	return matched
}

func fillUsernames(ctx context.Context, client *api.Client, infos []chatInfo) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(entityLookupConcurrency)
	for i := range infos {
		i := i
		g.Go(func() error {
			ent, err := client.Entities().Get(gctx, infos[i].ID)
			if err != nil {
				if api.IsNotFoundError(err) {
					return nil
				}
				return err
			}
			infos[i].Username = ent.Username
			return nil
		})
	}
	return g.Wait()
}
