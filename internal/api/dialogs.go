package api

import (
	"context"
	"net/http"
	"net/url"
)

type dialogPage struct {
	Dialogs    []Dialog `json:"dialogs"`
	NextCursor string   `json:"next_cursor"`
}

// DialogIterator lazily pages through the account's dialog directory in
// gateway order. Pages are fetched on demand; callers that stop early never
// pay for the rest of the directory.
type DialogIterator struct {
	client *Client
	buf    []Dialog
	cursor string
	done   bool
	err    error
}

// List returns a lazy iterator over all dialogs.
func (s DialogsService) List() *DialogIterator {
	return &DialogIterator{client: s.Client}
}

// Next returns the next dialog. The second return is false when the
// directory is exhausted or an error occurred; check the error return.
func (it *DialogIterator) Next(ctx context.Context) (Dialog, bool, error) {
	if it.err != nil {
		return Dialog{}, false, it.err
	}
	for len(it.buf) == 0 {
		if it.done {
			return Dialog{}, false, nil
		}
		if err := it.fetch(ctx); err != nil {
			it.err = err
			return Dialog{}, false, err
		}
	}
	d := it.buf[0]
	it.buf = it.buf[1:]
	return d, true, nil
}

func (it *DialogIterator) fetch(ctx context.Context) error {
	path := "/dialogs"
	if it.cursor != "" {
		path += "?cursor=" + url.QueryEscape(it.cursor)
	}

	var page dialogPage
	if err := it.client.do(ctx, http.MethodGet, it.client.apiPath(path), nil, &page); err != nil {
		return err
	}

	it.buf = append(it.buf, page.Dialogs...)
	it.cursor = page.NextCursor
	if page.NextCursor == "" {
		it.done = true
	}
	return nil
}
