package viewer

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sakamoto-giocolgeek/emotional-echo/internal/domain"
)

// VisibleDuration is how long a comment stays on screen before it is removed.
const VisibleDuration = 5 * time.Second

// Position placement bands, in percent of the viewport.
const (
	positionTopMin   = 10
	positionTopSpan  = 50
	positionLeftMin  = 15
	positionLeftSpan = 70
)

// Position is a comment's placement on screen, in percent of the viewport.
// It is assigned once when the comment first arrives and never changes.
type Position struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// Bubble is a comment currently on screen together with its frozen position.
type Bubble struct {
	Comment  domain.Comment `json:"comment"`
	Position Position       `json:"position"`
}

// Bucket classifies the bubble's sentiment score into a display band.
func (b Bubble) Bucket() domain.Bucket {
	return domain.BucketFor(b.Comment.SentimentScore)
}

// Display tracks the set of currently visible comments. Each comment is
// admitted at most once: re-ingesting an id that is already on screen is a
// no-op and does not restart its removal timer. Removal is scheduled once per
// comment, VisibleDuration after first ingest.
type Display struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	rng     *rand.Rand
	ttl     time.Duration
	visible map[uuid.UUID]Bubble
	timers  map[uuid.UUID]clockwork.Timer
	closed  bool
}

// DisplayOption customises a Display.
type DisplayOption func(*Display)

// WithClock replaces the wall clock, used by tests to control expiry.
func WithClock(clock clockwork.Clock) DisplayOption {
	return func(d *Display) { d.clock = clock }
}

// WithRand replaces the position source, used by tests for determinism.
func WithRand(rng *rand.Rand) DisplayOption {
	return func(d *Display) { d.rng = rng }
}

// WithTTL overrides the visible duration.
func WithTTL(ttl time.Duration) DisplayOption {
	return func(d *Display) { d.ttl = ttl }
}

// NewDisplay creates an empty display.
func NewDisplay(opts ...DisplayOption) *Display {
	d := &Display{
		clock:   clockwork.NewRealClock(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		ttl:     VisibleDuration,
		visible: make(map[uuid.UUID]Bubble),
		timers:  make(map[uuid.UUID]clockwork.Timer),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Ingest adds a comment to the display. Duplicate ids are ignored: the
// comment keeps its original position and its original removal time.
func (d *Display) Ingest(comment domain.Comment) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if _, ok := d.visible[comment.ID]; ok {
		return
	}

	d.visible[comment.ID] = Bubble{
		Comment:  comment,
		Position: d.randomPosition(),
	}

	id := comment.ID
	d.timers[id] = d.clock.AfterFunc(d.ttl, func() {
		d.remove(id)
	})
}

// Visible returns a snapshot of the comments currently on screen.
func (d *Display) Visible() []Bubble {
	d.mu.Lock()
	defer d.mu.Unlock()

	bubbles := make([]Bubble, 0, len(d.visible))
	for _, b := range d.visible {
		bubbles = append(bubbles, b)
	}

	return bubbles
}

// Count returns the number of comments currently on screen.
func (d *Display) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.visible)
}

// Close empties the display and cancels all pending removal timers. It is
// safe to call more than once; after Close the display ignores new comments.
func (d *Display) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true

	for id, timer := range d.timers {
		timer.Stop()
		delete(d.timers, id)
	}

	d.visible = make(map[uuid.UUID]Bubble)
}

func (d *Display) remove(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.visible, id)
	delete(d.timers, id)
}

func (d *Display) randomPosition() Position {
	return Position{
		Top:  positionTopMin + d.rng.Float64()*positionTopSpan,
		Left: positionLeftMin + d.rng.Float64()*positionLeftSpan,
	}
}
