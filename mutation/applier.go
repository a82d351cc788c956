package mutation

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/IntelliLead/review-migrations/store"
)

// Applier carries out the mutations of a migration. Migrations never write to the store
// directly, so the same migration code serves live runs and dry runs.
type Applier interface {
	Apply(ctx context.Context, m Mutation) error
}

// Live writes mutations to the store, paced by a rate limiter on records written.
type Live struct {
	store   store.Store
	limiter *rate.Limiter
}

// NewLive returns a Live applier writing at most writesPerSecond records per second.
// A non-positive rate disables pacing.
func NewLive(s store.Store, writesPerSecond float64) Live {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if writesPerSecond > 0 {
		burst := int(writesPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(writesPerSecond), burst)
	}
	return Live{store: s, limiter: limiter}
}

func (l Live) Apply(ctx context.Context, m Mutation) error {
	n := m.Writes()
	if b := l.limiter.Burst(); b > 0 && n > b {
		n = b
	}
	if err := l.limiter.WaitN(ctx, n); err != nil {
		return err
	}
	if err := m.Apply(ctx, l.store); err != nil {
		return err
	}
	logApplied(ctx, m)
	return nil
}

// DryRun logs and records mutations without writing anything.
type DryRun struct {
	recorded *recorded
}

func NewDryRun() DryRun {
	return DryRun{recorded: &recorded{}}
}

func (d DryRun) Apply(ctx context.Context, m Mutation) error {
	logDryRun(ctx, m)
	d.recorded.add(m)
	return nil
}

// Mutations returns every mutation seen so far, in order.
func (d DryRun) Mutations() []Mutation {
	return d.recorded.list()
}

// Recorder records the mutations another applier applied successfully.
type Recorder struct {
	next     Applier
	recorded *recorded
}

func NewRecorder(next Applier) Recorder {
	return Recorder{next: next, recorded: &recorded{}}
}

func (r Recorder) Apply(ctx context.Context, m Mutation) error {
	if err := r.next.Apply(ctx, m); err != nil {
		return err
	}
	r.recorded.add(m)
	return nil
}

// Mutations returns the mutations applied so far, in order.
func (r Recorder) Mutations() []Mutation {
	return r.recorded.list()
}

type recorded struct {
	mu        sync.Mutex
	mutations []Mutation
}

func (r *recorded) add(m Mutation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mutations = append(r.mutations, m)
}

func (r *recorded) list() []Mutation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Mutation, len(r.mutations))
	copy(out, r.mutations)
	return out
}
