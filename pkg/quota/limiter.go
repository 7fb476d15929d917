// Package quota enforces the hourly call budget attached to the demo password.
package quota

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/edgegate/edgegate/pkg/kv"
	"github.com/edgegate/edgegate/pkg/models"
)

// CounterKey is the KV key holding the single per-deployment demo record.
const CounterKey = "demo_counter"

// Result is the outcome of a quota check.
type Result struct {
	Allowed bool
	Message string
	Record  models.DemoCounter
}

// Limiter is a fixed-window (wall-clock hour) call counter.
//
// The read, the limit check and the write are separate KV operations with no
// transaction around them. Concurrent callers in the same hour can all pass
// the check before any of them writes, so the counter may end up exceeding
// MaxTimes by up to concurrency-1. That is accepted for a soft demo guard.
type Limiter struct {
	store    kv.Store
	fallback *kv.Memory
	maxTimes int
	now      func() time.Time
}

// New returns a Limiter persisting to store. A nil store keeps the counter in
// process memory only.
func New(store kv.Store, maxTimes int) *Limiter {
	return &Limiter{
		store:    store,
		fallback: kv.NewMemory(),
		maxTimes: maxTimes,
		now:      time.Now,
	}
}

// MaxTimes returns the configured per-hour budget.
func (l *Limiter) MaxTimes() int {
	return l.maxTimes
}

// HourBucket returns floor(unix seconds / 3600).
func HourBucket(t time.Time) int64 {
	sec := t.Unix()
	h := sec / 3600
	if sec < 0 && sec%3600 != 0 {
		h--
	}
	return h
}

// CheckAndIncrement charges delta against the current hour's budget.
// delta may be fractional; auxiliary endpoints charge 0.1.
func (l *Limiter) CheckAndIncrement(ctx context.Context, delta float64) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	store := l.activeStore()
	rec, err := l.current(ctx, store)
	if err != nil {
		log.WithError(err).Warn("demo counter: kv read failed, using in-process fallback")
		store = l.fallback
		rec, _ = l.current(ctx, store)
	}

	if rec.Times >= float64(rec.MaxTimes) {
		return Result{
			Allowed: false,
			Message: fmt.Sprintf("Exceeded maximum API calls (%d) for this hour. Please try again next hour.", rec.MaxTimes),
			Record:  rec,
		}, nil
	}

	rec.Times += delta

	if err := kv.SetJSON(ctx, store, CounterKey, rec, 0); err != nil {
		log.WithError(err).Warn("demo counter: kv write failed, using in-process fallback")
		_ = kv.SetJSON(ctx, l.fallback, CounterKey, rec, 0)
	}

	return Result{Allowed: true, Message: "OK", Record: rec}, nil
}

// Status returns the record for the current hour without charging it.
func (l *Limiter) Status(ctx context.Context) (models.DemoCounter, error) {
	return l.current(ctx, l.activeStore())
}

// Reset clears the stored record.
func (l *Limiter) Reset(ctx context.Context) error {
	_ = l.fallback.Delete(ctx, CounterKey)
	if l.store == nil {
		return nil
	}
	if err := l.store.Delete(ctx, CounterKey); err != nil {
		return fmt.Errorf("reset demo counter: %w", err)
	}
	return nil
}

func (l *Limiter) activeStore() kv.Store {
	if l.store == nil {
		return l.fallback
	}
	return l.store
}

// current loads the stored record, replacing it with a fresh one when it is
// missing or belongs to an earlier hour. The reset is lazy: nothing sweeps
// old records, the first caller of a new hour pays for it.
func (l *Limiter) current(ctx context.Context, store kv.Store) (models.DemoCounter, error) {
	hour := HourBucket(l.now())
	fresh := models.DemoCounter{Hour: hour, Times: 0, MaxTimes: l.maxTimes}

	var rec models.DemoCounter
	found, err := kv.GetJSON(ctx, store, CounterKey, &rec)
	if err != nil {
		return fresh, err
	}
	if !found || rec.Hour != hour {
		return fresh, nil
	}
	if rec.MaxTimes <= 0 {
		rec.MaxTimes = l.maxTimes
	}
	return rec, nil
}
