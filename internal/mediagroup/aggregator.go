package mediagroup

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Item is one photo of a Telegram album.
type Item struct {
	ChatID       int64
	MediaGroupID string
	MessageID    int
	Caption      string
	FileID       string
}

// Group is a complete album. FileIDs are in message order, so the first
// photo the user picked comes first.
type Group struct {
	ChatID  int64
	Caption string
	FileIDs []string
}

type Options struct {
	Debounce time.Duration
	OnFlush  func(Group)
}

// Aggregator collects album photos, which Telegram delivers as separate
// updates, and flushes each album once no new photo arrived for Debounce.
type Aggregator struct {
	mu       sync.Mutex
	debounce time.Duration
	onFlush  func(Group)
	groups   map[string]*pendingGroup
	closed   bool
}

type pendingGroup struct {
	chatID  int64
	caption string
	items   []Item
	timer   *time.Timer
}

func New(opts Options) *Aggregator {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 1200 * time.Millisecond
	}

	return &Aggregator{
		debounce: debounce,
		onFlush:  opts.OnFlush,
		groups:   make(map[string]*pendingGroup),
	}
}

// Add records one album photo. Items without an album id or file are ignored.
func (a *Aggregator) Add(item Item) {
	if item.MediaGroupID == "" || item.FileID == "" {
		return
	}

	key := makeKey(item.ChatID, item.MediaGroupID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	pg, ok := a.groups[key]
	if !ok {
		pg = &pendingGroup{chatID: item.ChatID}
		a.groups[key] = pg
	}
	pg.items = append(pg.items, item)
	// Telegram puts the caption on one photo of the album, not always the first.
	if item.Caption != "" {
		pg.caption = item.Caption
	}

	if pg.timer != nil {
		pg.timer.Stop()
	}
	pg.timer = time.AfterFunc(a.debounce, func() {
		a.flush(key)
	})
}

// Pending reports how many albums are still collecting photos.
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.groups)
}

// Close drops unflushed albums and ignores further items.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	for key, pg := range a.groups {
		pg.timer.Stop()
		delete(a.groups, key)
	}
}

func (a *Aggregator) flush(key string) {
	a.mu.Lock()
	pg, ok := a.groups[key]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.groups, key)
	onFlush := a.onFlush
	a.mu.Unlock()

	if onFlush != nil {
		onFlush(pg.group())
	}
}

func (pg *pendingGroup) group() Group {
	items := make([]Item, len(pg.items))
	copy(items, pg.items)
	// Updates can arrive out of order; message ids restore the album order.
	slices.SortStableFunc(items, func(x, y Item) int {
		return cmp.Compare(x.MessageID, y.MessageID)
	})

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.FileID
	}
	return Group{ChatID: pg.chatID, Caption: pg.caption, FileIDs: ids}
}

func makeKey(chatID int64, mediaGroupID string) string {
	return fmt.Sprintf("%d:%s", chatID, mediaGroupID)
}
