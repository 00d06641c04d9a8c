package monitoring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	mu      sync.Mutex
	panics  []any
	errs    []error
	tags    []map[string]string
	flushed time.Duration
}

func (r *recorder) CaptureException(err error, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}

func (r *recorder) CapturePanic(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panics = append(r.panics, v)
}

func (r *recorder) Flush(d time.Duration) { r.flushed = d }

func TestInitAndCapture(t *testing.T) {
	rec := &recorder{}
	prev := Init(rec)
	defer Init(prev)

	assert.Same(t, rec, Init(nil), "nil keeps the current monitor")
	CaptureException(errors.New("boom"), map[string]string{"run_id": "r1"})
	CaptureException(nil, nil)
	Flush(time.Second)

	assert.Len(t, rec.errs, 1)
	assert.Equal(t, "r1", rec.tags[0]["run_id"])
	assert.Equal(t, time.Second, rec.flushed)
}

func TestGoRunsFunction(t *testing.T) {
	done := make(chan struct{})
	Go(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("function not run")
	}
}

func TestRecoverReportsAndRepanics(t *testing.T) {
	rec := &recorder{}
	prev := Init(rec)
	defer Init(prev)

	assert.PanicsWithValue(t, "solver bug", func() {
		defer Recover()
		panic("solver bug")
	})
	assert.Equal(t, []any{"solver bug"}, rec.panics)
	assert.Equal(t, 2*time.Second, rec.flushed)

	assert.NotPanics(t, func() {
		defer Recover()
	})
	assert.Len(t, rec.panics, 1)
}
