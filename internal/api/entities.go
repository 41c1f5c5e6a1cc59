package api

import (
	"context"
	"fmt"
	"net/http"
)

// Get resolves an entity (user, chat, or channel) by ID.
func (s EntitiesService) Get(ctx context.Context, id int64) (*Entity, error) {
	var result Entity
	if err := s.do(ctx, http.MethodGet, s.apiPath(fmt.Sprintf("/entities/%d", id)), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
