package cache

import (
	"log/slog"
	"sync"

	"github.com/Kush-Singh-26/aksara/builder/models"
)

// DefaultWriteBatch is the most stems one background transaction commits.
const DefaultWriteBatch = 256

type writeRequest struct {
	namespace string
	word      string
	result    models.StemResult
}

// StemAdapter is a stemmer.Store that answers from memory first and hands
// new results to a single background writer. The writer commits them in
// batched transactions, so stemming never waits on an fsync.
type StemAdapter struct {
	manager *Manager
	logger  *slog.Logger
	batch   int

	mu     sync.RWMutex
	local  map[string]models.StemResult
	closed bool

	queue     chan writeRequest
	done      chan struct{}
	closeOnce sync.Once
}

// NewStemAdapter starts the writer. batch <= 0 uses DefaultWriteBatch.
func NewStemAdapter(manager *Manager, logger *slog.Logger, batch int) *StemAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	if batch <= 0 {
		batch = DefaultWriteBatch
	}
	a := &StemAdapter{
		manager: manager,
		logger:  logger,
		batch:   batch,
		local:   make(map[string]models.StemResult),
		queue:   make(chan writeRequest, batch*2),
		done:    make(chan struct{}),
	}
	go a.writer()
	return a
}

// writer drains the queue. It commits when a batch fills or the queue runs
// dry, and once more when the queue is closed.
func (a *StemAdapter) writer() {
	defer close(a.done)

	pending := make(map[string]map[string]models.StemResult)
	n := 0
	flush := func() {
		for ns, results := range pending {
			if err := a.manager.PutStems(ns, results); err != nil {
				a.logger.Warn("failed to persist stems", "namespace", ns, "count", len(results), "error", err)
			}
		}
		pending = make(map[string]map[string]models.StemResult)
		n = 0
	}

	for req := range a.queue {
		byWord := pending[req.namespace]
		if byWord == nil {
			byWord = make(map[string]models.StemResult)
			pending[req.namespace] = byWord
		}
		byWord[req.word] = req.result
		n++
		if n >= a.batch || len(a.queue) == 0 {
			flush()
		}
	}
	if n > 0 {
		flush()
	}
}

// GetStem answers from memory, then from BoltDB.
func (a *StemAdapter) GetStem(namespace, word string) (models.StemResult, bool, error) {
	key := string(stemKey(namespace, word))
	a.mu.RLock()
	r, ok := a.local[key]
	a.mu.RUnlock()
	if ok {
		return r, true, nil
	}

	r, ok, err := a.manager.GetStem(namespace, word)
	if err != nil || !ok {
		return r, ok, err
	}
	a.mu.Lock()
	a.local[key] = r
	a.mu.Unlock()
	return r, true, nil
}

// PutStem records the result in memory and queues it for the writer.
// After Close it does nothing.
func (a *StemAdapter) PutStem(namespace, word string, r models.StemResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.local[string(stemKey(namespace, word))] = r
	a.queue <- writeRequest{namespace: namespace, word: word, result: r}
	return nil
}

// Close waits until every queued stem is committed. Safe to call more than
// once.
func (a *StemAdapter) Close() error {
	a.mu.Lock()
	a.closed = true
	a.closeOnce.Do(func() { close(a.queue) })
	a.mu.Unlock()
	<-a.done
	return nil
}
