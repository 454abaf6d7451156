package action

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hpungsan/healthyfy/internal/entity"
	"github.com/hpungsan/healthyfy/internal/report"
	"github.com/hpungsan/healthyfy/internal/wellness"
)

type memStore struct {
	mu    sync.Mutex
	items map[string][]wellness.Record
	err   error
	saves int
}

func newMemStore() *memStore {
	return &memStore{items: map[string][]wellness.Record{}}
}

func (s *memStore) key(owner, name string) string { return owner + "/" + name }

func (s *memStore) LoadCollection(_ context.Context, owner, name string) ([]wellness.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]wellness.Record(nil), s.items[s.key(owner, name)]...), nil
}

func (s *memStore) SaveCollection(_ context.Context, owner, name string, items []wellness.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saves++
	s.items[s.key(owner, name)] = append([]wellness.Record(nil), items...)
	return nil
}

func (s *memStore) AppendRecord(ctx context.Context, owner, name string, rec wellness.Record) ([]wellness.Record, error) {
	items, err := s.LoadCollection(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	items = append([]wellness.Record{rec}, items...)
	return items, s.SaveCollection(ctx, owner, name, items)
}

type fakeNavigator struct {
	route   string
	visited []string
	err     error
}

func (n *fakeNavigator) Navigate(_ context.Context, route string) error {
	if n.err != nil {
		return n.err
	}
	n.visited = append(n.visited, route)
	n.route = route
	return nil
}

func (n *fakeNavigator) CurrentRoute(context.Context) (string, error) { return n.route, nil }

type fakeExporter struct {
	docs []report.Document
	err  error
}

func (x *fakeExporter) ExportPDF(_ context.Context, doc report.Document) (string, error) {
	if x.err != nil {
		return "", x.err
	}
	x.docs = append(x.docs, doc)
	return fmt.Sprintf("/exports/%s.pdf", doc.Domain), nil
}

type fakeForms struct {
	fields   map[string]string
	focused  string
	restored bool
}

func (f *fakeForms) HasField(_ context.Context, selector string) (bool, error) {
	_, ok := f.fields[selector]
	return ok, nil
}

func (f *fakeForms) SetFieldValue(_ context.Context, selector, value string) error {
	if _, ok := f.fields[selector]; !ok {
		return fmt.Errorf("no field %s", selector)
	}
	f.fields[selector] = value
	f.focused = selector
	return nil
}

func (f *fakeForms) SaveFocus(context.Context) (func(), error) {
	prev := f.focused
	return func() { f.focused = prev; f.restored = true }, nil
}

type panicSummarizer struct{}

func (panicSummarizer) Summarize(entity.Domain, []wellness.Record, []wellness.Record) []string {
	panic("boom")
}

type stubSummarizer struct{ bullets []string }

func (s stubSummarizer) Summarize(entity.Domain, []wellness.Record, []wellness.Record) []string {
	return s.bullets
}

func lines(doc report.Document) string {
	var b strings.Builder
	for _, s := range doc.Sections {
		b.WriteString(s.Title + "\n")
		for _, l := range s.Lines {
			b.WriteString("  " + l + "\n")
		}
	}
	return b.String()
}
