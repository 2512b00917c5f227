package repo

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/foomo/guestbook/pkg/metrics"
	"github.com/foomo/guestbook/pkg/note"
	"github.com/foomo/guestbook/requests"
)

const (
	noteKeySuffix   = ".json"
	contentTypeJSON = "application/json"

	suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength   = 6

	listConcurrency = 8
)

var (
	// ErrNotFound is returned when no stored note matches the requested createdAt.
	ErrNotFound = errors.New("note not found")
	// ErrCreatedAtRequired is returned when a delete request carries no createdAt.
	ErrCreatedAtRequired = errors.New("createdAt is required")
)

type (
	// Repo implements the note operations on top of a Storage backend.
	// Durability decisions are delegated to the injected Storage; the Repo
	// itself holds no state between calls.
	Repo struct {
		l       *zap.Logger
		storage Storage
		now     func() time.Time
		suffix  func() string
	}
	Option func(*Repo)

	// CreateResult reports the outcome of Create. Persisted tells callers
	// whether the note survives the request.
	CreateResult struct {
		ID        string
		Note      note.Note
		Persisted bool
	}

	// DeleteResult reports the outcome of DeleteByCreatedAt. Simulated is
	// set when nothing was verified or removed because no durable storage
	// is configured.
	DeleteResult struct {
		Deleted   bool
		Simulated bool
	}
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, storage Storage, opts ...Option) *Repo {
	inst := &Repo{
		l:       l.Named("repo"),
		storage: storage,
		now:     time.Now,
		suffix:  randomSuffix,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithNow overrides the clock used to stamp new notes.
func WithNow(v func() time.Time) Option {
	return func(o *Repo) {
		o.now = v
	}
}

// WithSuffix overrides the random key suffix source.
func WithSuffix(v func() string) Option {
	return func(o *Repo) {
		o.suffix = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// ListAll returns every stored note, most recent first. Objects that cannot
// be fetched or parsed are skipped so that a single bad entry does not take
// down the whole listing.
func (r *Repo) ListAll(ctx context.Context) ([]note.Note, error) {
	keys, err := r.storage.List(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes")
	}

	var (
		mu      sync.Mutex
		notes   = make([]note.Note, 0, len(keys))
		skipped []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for _, key := range keys {
		if !strings.HasSuffix(key, noteKeySuffix) {
			continue
		}
		g.Go(func() error {
			n, errFetch := r.fetch(gctx, key)
			mu.Lock()
			defer mu.Unlock()
			if errFetch != nil {
				skipped = append(skipped, errFetch)
				return nil
			}
			notes = append(notes, n)
			return nil
		})
	}
	_ = g.Wait() // workers never fail, broken entries are skipped

	r.logSkipped("listing", skipped)

	// createdAt strings order lexicographically, which equals chronological order
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt > notes[j].CreatedAt
	})

	return notes, nil
}

// Create validates the submission and stores the resulting note when durable
// storage is configured. Without one the note is only logged, and Persisted
// is false so callers can report the difference.
func (r *Repo) Create(ctx context.Context, payload requests.Note, userAgent string) (CreateResult, error) {
	n, err := note.Decode(payload, userAgent, r.now())
	if err != nil {
		return CreateResult{}, err
	}

	id := n.CreatedAt + "-" + r.suffix()

	if !r.storage.Persistent() {
		r.l.Info("accepted non-persistent note",
			zap.String("name", n.Name),
			zap.String("createdAt", n.CreatedAt),
		)
		metrics.NotesCreatedCounter.WithLabelValues("false").Inc()
		return CreateResult{ID: id, Note: n, Persisted: false}, nil
	}

	data, err := note.Encode(n)
	if err != nil {
		return CreateResult{}, err
	}
	if err := r.storage.Write(ctx, id+noteKeySuffix, data, contentTypeJSON); err != nil {
		return CreateResult{}, errors.Wrap(err, "failed to store note")
	}

	metrics.NotesCreatedCounter.WithLabelValues("true").Inc()
	return CreateResult{ID: id, Note: n, Persisted: true}, nil
}

// DeleteByCreatedAt scans the stored notes for one whose createdAt matches
// exactly and deletes the first hit. Since notes are identified to clients
// by createdAt rather than by storage key, this is a full prefix scan;
// unreadable entries are skipped like in ListAll. Note that a concurrent
// create or delete can race the scan, which is accepted for this storage
// layout.
func (r *Repo) DeleteByCreatedAt(ctx context.Context, createdAt string) (DeleteResult, error) {
	if createdAt == "" {
		return DeleteResult{}, ErrCreatedAtRequired
	}

	if !r.storage.Persistent() {
		// Nothing was ever stored, so there is nothing to verify against.
		// Deletion is reported as successful for compatibility with
		// storage-less deployments; Simulated marks the shortcut.
		metrics.NotesDeletedCounter.WithLabelValues("simulated").Inc()
		return DeleteResult{Deleted: true, Simulated: true}, nil
	}

	keys, err := r.storage.List(ctx, "")
	if err != nil {
		return DeleteResult{}, errors.Wrap(err, "failed to list notes")
	}

	var skipped []error
	for _, key := range keys {
		if !strings.HasSuffix(key, noteKeySuffix) {
			continue
		}
		n, errFetch := r.fetch(ctx, key)
		if errFetch != nil {
			skipped = append(skipped, errFetch)
			continue
		}
		if n.CreatedAt != createdAt {
			continue
		}
		r.logSkipped("deletion scan", skipped)
		if err := r.storage.Delete(ctx, key); err != nil {
			return DeleteResult{}, errors.Wrapf(err, "failed to delete note %q", key)
		}
		metrics.NotesDeletedCounter.WithLabelValues("deleted").Inc()
		return DeleteResult{Deleted: true}, nil
	}

	r.logSkipped("deletion scan", skipped)
	metrics.NotesDeletedCounter.WithLabelValues("not_found").Inc()
	return DeleteResult{}, ErrNotFound
}

// Close releases the underlying storage.
func (r *Repo) Close() error {
	return r.storage.Close()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (r *Repo) fetch(ctx context.Context, key string) (note.Note, error) {
	data, err := r.storage.Read(ctx, key)
	if err != nil {
		return note.Note{}, errors.Wrapf(err, "failed to read %q", key)
	}
	n, err := note.Unmarshal(data)
	if err != nil {
		return note.Note{}, errors.Wrapf(err, "failed to parse %q", key)
	}
	return n, nil
}

func (r *Repo) logSkipped(op string, skipped []error) {
	if len(skipped) == 0 {
		return
	}
	metrics.ScanEntriesSkippedCounter.WithLabelValues().Add(float64(len(skipped)))
	r.l.Debug("skipped unreadable notes",
		zap.String("op", op),
		zap.Int("count", len(skipped)),
		zap.Error(multierr.Combine(skipped...)),
	)
}

func randomSuffix() string {
	b := make([]byte, suffixLength)
	for i := range b {
		b[i] = suffixAlphabet[rand.IntN(len(suffixAlphabet))]
	}
	return string(b)
}
