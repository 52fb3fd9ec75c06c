// Package metrics counts engine work for the CLI summary and /healthz.
package metrics

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Metrics is safe for concurrent use. A nil *Metrics ignores every call,
// so engines can take one optionally.
type Metrics struct {
	StartTime time.Time

	transliterations atomic.Int64
	stems            atomic.Int64
	memoHits         atomic.Int64
	memoMisses       atomic.Int64
	storeHits        atomic.Int64
	probes           atomic.Int64
	documents        atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Transliterations int64         `json:"transliterations"`
	Stems            int64         `json:"stems"`
	MemoHits         int64         `json:"memoHits"`
	MemoMisses       int64         `json:"memoMisses"`
	StoreHits        int64         `json:"storeHits"`
	Probes           int64         `json:"probes"`
	Documents        int64         `json:"documents"`
	Uptime           time.Duration `json:"uptime"`
}

// New creates a metrics instance starting now.
func New() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

func (m *Metrics) IncTransliterations() {
	if m != nil {
		m.transliterations.Add(1)
	}
}

func (m *Metrics) IncStems() {
	if m != nil {
		m.stems.Add(1)
	}
}

func (m *Metrics) IncMemoHit() {
	if m != nil {
		m.memoHits.Add(1)
	}
}

func (m *Metrics) IncMemoMiss() {
	if m != nil {
		m.memoMisses.Add(1)
	}
}

func (m *Metrics) IncStoreHit() {
	if m != nil {
		m.storeHits.Add(1)
	}
}

// AddProbes records dictionary and allomorph probes.
func (m *Metrics) AddProbes(n int64) {
	if m != nil && n > 0 {
		m.probes.Add(n)
	}
}

func (m *Metrics) IncDocuments() {
	if m != nil {
		m.documents.Add(1)
	}
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Transliterations: m.transliterations.Load(),
		Stems:            m.stems.Load(),
		MemoHits:         m.memoHits.Load(),
		MemoMisses:       m.memoMisses.Load(),
		StoreHits:        m.storeHits.Load(),
		Probes:           m.probes.Load(),
		Documents:        m.documents.Load(),
		Uptime:           time.Since(m.StartTime),
	}
}

// MemoHitRate returns the stem memo hit percentage.
func (s Snapshot) MemoHitRate() float64 {
	total := s.MemoHits + s.MemoMisses
	if total == 0 {
		return 0
	}
	return float64(s.MemoHits) / float64(total) * 100
}

// String returns a single-line summary.
func (m *Metrics) String() string {
	s := m.Snapshot()
	return fmt.Sprintf("📊 %d transliterations, %d stems (memo: %d/%d hits, %.0f%%, %d probes)\n",
		s.Transliterations,
		s.Stems,
		s.MemoHits,
		s.MemoHits+s.MemoMisses,
		s.MemoHitRate(),
		s.Probes,
	)
}

// Print outputs the metrics to stdout.
func (m *Metrics) Print() {
	fmt.Print(m.String())
}
