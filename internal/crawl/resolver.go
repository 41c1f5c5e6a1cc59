package crawl

import (
	"context"
	"strings"

	"github.com/feats/ftg/internal/api"
)

// ResolveChats matches dialogs against partial names: case-insensitive
// substring containment, directory order preserved. A dialog is yielded
// once per filter it matches, so overlapping filters produce duplicates.
// With no filters every dialog is returned. An empty result is not an
// error; callers decide whether nothing-matched matters.
func (s *Session) ResolveChats(ctx context.Context, names []string) ([]api.Dialog, error) {
	filters := make([]string, len(names))
	for i, n := range names {
		filters[i] = strings.ToLower(n)
	}

	var matched []api.Dialog
	it := s.gw.Dialogs()
	for {
		d, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if len(filters) == 0 {
			matched = append(matched, d)
			continue
		}
		name := strings.ToLower(d.Name)
		for _, f := range filters {
			if strings.Contains(name, f) {
				matched = append(matched, d)
			}
		}
	}
	return matched, nil
}
