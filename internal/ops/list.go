package ops

import (
	"context"

	"github.com/hpungsan/healthyfy/internal/action"
	"github.com/hpungsan/healthyfy/internal/db"
	"github.com/hpungsan/healthyfy/internal/errors"
	"github.com/hpungsan/healthyfy/internal/wellness"
)

// ListCollectionInput contains parameters for the ListCollection operation.
type ListCollectionInput struct {
	OwnerID string // required
	Name    string // required, e.g. "nutrition:water"
	Limit   int    // default: 20, max: 100
	Offset  int    // default: 0
}

// ListCollectionOutput contains the result of the ListCollection operation.
type ListCollectionOutput struct {
	Name       string            `json:"name"`
	Items      []wellness.Record `json:"items"`
	Pagination Pagination        `json:"pagination"`
	Sort       string            `json:"sort"`
}

// ListCollection returns a page of an owner's records, newest first.
func ListCollection(ctx context.Context, store action.DataStore, input ListCollectionInput) (*ListCollectionOutput, error) {
	if input.Name == "" {
		return nil, errors.NewInvalidRequest("collection name is required")
	}
	items, err := store.LoadCollection(ctx, input.OwnerID, input.Name)
	if err != nil {
		return nil, err
	}

	lo, hi, p := page(input.Limit, input.Offset, len(items))
	window := items[lo:hi]
	if window == nil {
		window = []wellness.Record{}
	}
	return &ListCollectionOutput{
		Name:       input.Name,
		Items:      window,
		Pagination: p,
		Sort:       "newest_first",
	}, nil
}

// CollectionsOutput lists the known collection names.
type CollectionsOutput struct {
	Names []string `json:"names"`
}

// Collections returns every collection name the store accepts.
func Collections() *CollectionsOutput {
	return &CollectionsOutput{Names: append([]string{}, wellness.Collections...)}
}

// ListSessionsInput contains parameters for the ListSessions operation.
type ListSessionsInput struct {
	Limit  int
	Offset int
}

// ListSessionsOutput contains the result of the ListSessions operation.
type ListSessionsOutput struct {
	Items      []db.SessionSummary `json:"items"`
	Pagination Pagination          `json:"pagination"`
	Sort       string              `json:"sort"`
}

// ListSessions returns known sessions, most recently updated first.
func ListSessions(ctx context.Context, store *db.Store, input ListSessionsInput) (*ListSessionsOutput, error) {
	all, err := store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	lo, hi, p := page(input.Limit, input.Offset, len(all))
	return &ListSessionsOutput{
		Items:      all[lo:hi],
		Pagination: p,
		Sort:       "updated_at_desc",
	}, nil
}
