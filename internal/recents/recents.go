// Package recents implements the bounded most-recently-used lists: recent
// search selections and recently viewed location names.
package recents

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/i474232898/weather-app/internal/common"
	"github.com/i474232898/weather-app/internal/observe"
	"github.com/i474232898/weather-app/internal/store"
	"github.com/i474232898/weather-app/internal/weather"
)

// DefaultLimit is the capacity of both recents lists.
const DefaultLimit = 5

// List is a persisted MRU list. The head is the most recent entry, entries
// that are the same under its equality are never stored twice, and the
// length never exceeds the limit.
type List[T any] struct {
	kv    store.Store
	key   string
	limit int
	same  func(a, b T) bool

	write sync.Mutex

	mu    sync.RWMutex
	items []T

	subject *observe.Subject[[]T]
}

// New loads the list persisted under key. Corrupt data is logged and
// replaced with an empty list.
func New[T any](ctx context.Context, kv store.Store, key string, limit int, same func(a, b T) bool) (*List[T], error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var items []T
	if _, err := store.LoadJSON(ctx, kv, key, &items); err != nil {
		if !errors.Is(err, store.ErrCorrupt) {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		log.Printf("ERROR: discarding unreadable %s: %v", key, err)
		items = nil
	}

	l := &List[T]{kv: kv, key: key, limit: limit, same: same}
	for _, item := range items {
		if len(l.items) == limit {
			break
		}
		if l.indexOf(l.items, item) < 0 {
			l.items = append(l.items, item)
		}
	}
	l.subject = observe.New(l.Items())
	return l, nil
}

// NewSearches returns the recent-searches list. Suggestions are the same
// entry when name and country match exactly.
func NewSearches(ctx context.Context, kv store.Store, limit int) (*List[weather.LocationSuggestion], error) {
	return New(ctx, kv, store.KeyRecentSearches, limit, weather.LocationSuggestion.SameLocality)
}

// NewLocations returns the recently viewed location names, compared
// case-insensitively.
func NewLocations(ctx context.Context, kv store.Store, limit int) (*List[string], error) {
	return New(ctx, kv, store.KeyRecentLocations, limit, func(a, b string) bool {
		return common.FoldKey(a) == common.FoldKey(b)
	})
}

// Items returns a copy of the list, most recent first.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Limit is the list capacity.
func (l *List[T]) Limit() int { return l.limit }

// Add moves item to the head, dropping any earlier equal entry and
// evicting from the tail past the limit.
func (l *List[T]) Add(ctx context.Context, item T) error {
	l.write.Lock()
	defer l.write.Unlock()

	current := l.Items()
	next := make([]T, 0, l.limit)
	next = append(next, item)
	for _, existing := range current {
		if len(next) == l.limit {
			break
		}
		if !l.same(existing, item) {
			next = append(next, existing)
		}
	}
	return l.commit(ctx, next)
}

// Clear empties the list.
func (l *List[T]) Clear(ctx context.Context) error {
	l.write.Lock()
	defer l.write.Unlock()
	return l.commit(ctx, []T{})
}

// Subscribe registers fn for every published list, starting with the
// current one.
func (l *List[T]) Subscribe(fn func([]T)) func() {
	return l.subject.Subscribe(fn)
}

func (l *List[T]) commit(ctx context.Context, next []T) error {
	if err := store.SaveJSON(ctx, l.kv, l.key, next); err != nil {
		log.Printf("ERROR: saving %s failed: %v", l.key, err)
		return err
	}

	l.mu.Lock()
	l.items = next
	l.mu.Unlock()

	l.subject.Publish(l.Items())
	return nil
}

func (l *List[T]) indexOf(items []T, item T) int {
	for i, existing := range items {
		if l.same(existing, item) {
			return i
		}
	}
	return -1
}

