// -----------------------------------------------------------------------
// Batch Job - lifecycle contract implemented by every pipeline stage
// -----------------------------------------------------------------------

package batch

import (
	"context"
	"reflect"
	"sync"
	"time"
)

// Job is a unit of batch work driven by the Engine.
//
// Hook order for one run: BeforeExecute, Execute (retried), AfterExecute.
// OnError is called once with the original error when any of them fails.
// Embed *Base to get the name, timing, scratch context and no-op hooks.
type Job interface {
	Name() string
	BeforeExecute(ctx context.Context) error
	Execute(ctx context.Context) (interface{}, error)
	AfterExecute(ctx context.Context, result interface{}) error
	OnError(ctx context.Context, err error)
}

// Base holds the state every job owns: its name, the timing of the most
// recent run and a scratch context map for passing data between hooks.
// A job instance is not safe for concurrent runs.
type Base struct {
	name      string
	mu        sync.RWMutex
	startTime time.Time
	endTime   time.Time
	context   map[string]interface{}
}

// NewBase creates the embedded job state. An empty name falls back to the
// concrete type name of owner when owner is non-nil.
func NewBase(name string, owner interface{}) *Base {
	if name == "" && owner != nil {
		t := reflect.TypeOf(owner)
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		name = t.Name()
	}
	return &Base{
		name:    name,
		context: make(map[string]interface{}),
	}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) BeforeExecute(ctx context.Context) error {
	return nil
}

func (b *Base) AfterExecute(ctx context.Context, result interface{}) error {
	return nil
}

func (b *Base) OnError(ctx context.Context, err error) {}

// StartTime returns the start of the most recent run
func (b *Base) StartTime() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.startTime
}

// EndTime returns the end of the most recent run
func (b *Base) EndTime() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.endTime
}

// Set stores a value in the job's scratch context
func (b *Base) Set(key string, value interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.context[key] = value
}

// Get reads a value from the job's scratch context
func (b *Base) Get(key string) (interface{}, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.context[key]
	return v, ok
}

func (b *Base) base() *Base {
	return b
}

func (b *Base) markStarted(t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.startTime = t
	b.endTime = time.Time{}
}

func (b *Base) markFinished(t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endTime = t
}

// timed is satisfied by jobs embedding *Base
type timed interface {
	base() *Base
}
