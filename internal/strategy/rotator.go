package strategy

import (
	"sync/atomic"
	"time"
)

// Rotator picks the effective strategy for one tick when the auto policy is
// configured.
type Rotator interface {
	Pick(now time.Time) string
}

// RoundRobin cycles through the strategies by call count, giving each one
// equal exposure regardless of the tick cadence. This is the default.
type RoundRobin struct {
	ids []string
	n   atomic.Uint64
}

func NewRoundRobin(ids []string) *RoundRobin {
	if len(ids) == 0 {
		ids = All()
	}
	return &RoundRobin{ids: ids}
}

func (r *RoundRobin) Pick(time.Time) string {
	n := r.n.Add(1) - 1
	return r.ids[n%uint64(len(r.ids))]
}

// TimeSlice selects by the wall-clock millisecond residue. Fairness is only
// probabilistic: a poll interval that is periodic in the strategy count will
// favor some entries.
type TimeSlice struct {
	ids []string
}

func NewTimeSlice(ids []string) *TimeSlice {
	if len(ids) == 0 {
		ids = All()
	}
	return &TimeSlice{ids: ids}
}

func (r *TimeSlice) Pick(now time.Time) string {
	idx := now.UnixMilli() % int64(len(r.ids))
	if idx < 0 {
		idx += int64(len(r.ids))
	}
	return r.ids[idx]
}
