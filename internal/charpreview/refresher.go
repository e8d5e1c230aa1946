package charpreview

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"veo-prompt-studio/internal/prompt"
)

const DefaultDelay = 1500 * time.Millisecond

type Generator interface {
	DescribeCharacter(ctx context.Context, c prompt.Character) (string, error)
	RenderCharacter(ctx context.Context, c prompt.Character, description string, scene prompt.State) (string, error)
}

// Target is the state owner previews are written back to. Methods are called
// from timer goroutines and must not call back into the Refresher while
// holding their own locks.
type Target interface {
	Snapshot() prompt.State
	SetPreviewDescription(characterID, description string) error
	SetPreviewImage(characterID, imageURL string) error
	ClearPreview(characterID string) error
}

type Options struct {
	Delay     time.Duration
	Timeout   time.Duration
	Generator Generator
	Target    Target
	OnError   func(characterID string, err error)
	Logger    *slog.Logger
}

// Refresher regenerates a character's preview once its preview-relevant
// fields have stopped changing for Delay. Each character has its own timer.
type Refresher struct {
	mu       sync.Mutex
	delay    time.Duration
	timeout  time.Duration
	gen      Generator
	target   Target
	onError  func(string, error)
	logger   *slog.Logger
	last     map[string]trigger
	timers   map[string]pending
	seq      uint64
	inFlight map[string]bool
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type pending struct {
	timer *time.Timer
	seq   uint64
}

// trigger is the part of a character that a preview depends on.
type trigger struct {
	characteristics string
	clothing        string
	hasRef          bool
	ref             string
	hasClothRef     bool
	clothRef        string
}

func triggerOf(c prompt.Character) trigger {
	t := trigger{characteristics: c.Characteristics, clothing: c.Clothing}
	if c.ReferenceImage != nil {
		t.hasRef = true
		t.ref = c.ReferenceImage.Data
	}
	if c.ClothingReferenceImage != nil {
		t.hasClothRef = true
		t.clothRef = c.ClothingReferenceImage.Data
	}
	return t
}

func (t trigger) hasContent() bool {
	return t.characteristics != "" || t.clothing != "" || t.hasRef || t.hasClothRef
}

func New(opts Options) *Refresher {
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Refresher{
		delay:    delay,
		timeout:  timeout,
		gen:      opts.Generator,
		target:   opts.Target,
		onError:  opts.OnError,
		logger:   logger,
		last:     make(map[string]trigger),
		timers:   make(map[string]pending),
		inFlight: make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Observe compares the characters with the previous observation. A changed
// character with preview content gets its timer restarted; a changed
// character without content has its timer dropped and, if it still shows a
// preview, its id returned so the caller clears it in the same update.
// Timers of characters no longer present are stopped.
func (r *Refresher) Observe(chars []prompt.Character) (stale []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	seen := make(map[string]bool, len(chars))
	for _, c := range chars {
		seen[c.ID] = true
		t := triggerOf(c)
		prev, ok := r.last[c.ID]
		r.last[c.ID] = t
		if ok && prev == t {
			continue
		}

		r.stopLocked(c.ID)
		if t.hasContent() {
			r.scheduleLocked(c.ID)
		} else if c.PreviewDescription != "" || c.PreviewImageURL != "" {
			stale = append(stale, c.ID)
		}
	}

	for id := range r.last {
		if !seen[id] {
			delete(r.last, id)
			r.stopLocked(id)
		}
	}
	return stale
}

// Pending reports whether a refresh is scheduled for the character.
func (r *Refresher) Pending(characterID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[characterID]
	return ok
}

// Close stops all pending timers, cancels running generations and waits for
// them to return.
func (r *Refresher) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for id := range r.timers {
		r.stopLocked(id)
	}
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

func (r *Refresher) scheduleLocked(id string) {
	r.seq++
	seq := r.seq
	r.timers[id] = pending{
		timer: time.AfterFunc(r.delay, func() { r.fire(id, seq) }),
		seq:   seq,
	}
}

func (r *Refresher) stopLocked(id string) {
	if p, ok := r.timers[id]; ok {
		p.timer.Stop()
		delete(r.timers, id)
	}
}

func (r *Refresher) fire(id string, seq uint64) {
	r.mu.Lock()
	// A timer that was stopped too late to prevent its callback is stale.
	if p, ok := r.timers[id]; !ok || p.seq != seq || r.closed {
		r.mu.Unlock()
		return
	}
	delete(r.timers, id)
	if r.inFlight[id] {
		// The running pass still commits; the newer fields wait for the next edit.
		r.logger.Debug("character preview skipped", "character_id", id, "reason", "in flight")
		r.mu.Unlock()
		return
	}
	r.inFlight[id] = true
	r.wg.Add(1)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inFlight, id)
		r.mu.Unlock()
		r.wg.Done()
	}()

	r.generate(id)
}

func (r *Refresher) generate(id string) {
	target := r.target
	state := target.Snapshot()
	c, ok := state.Character(id)
	if !ok || !triggerOf(c).hasContent() {
		return
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	r.logger.Info("character preview started", "character_id", id)
	description, err := r.gen.DescribeCharacter(ctx, c)
	if err != nil {
		r.fail(id, err, target)
		return
	}
	if err := target.SetPreviewDescription(id, description); err != nil {
		r.logger.Warn("character preview dropped", "character_id", id, "error", err)
		return
	}

	imageURL, err := r.gen.RenderCharacter(ctx, c, description, state)
	if err != nil {
		r.fail(id, err, target)
		return
	}
	if imageURL != "" {
		if err := target.SetPreviewImage(id, imageURL); err != nil {
			r.logger.Warn("character preview dropped", "character_id", id, "error", err)
			return
		}
	}
	r.logger.Info("character preview done", "character_id", id, "has_image", imageURL != "")
}

func (r *Refresher) fail(id string, err error, target Target) {
	if r.ctx.Err() != nil {
		return
	}
	r.logger.Error("character preview failed", "character_id", id, "error", err)
	if r.onError != nil {
		r.onError(id, err)
	}
	if clearErr := target.ClearPreview(id); clearErr != nil {
		r.logger.Warn("clear preview failed", "character_id", id, "error", clearErr)
	}
}
