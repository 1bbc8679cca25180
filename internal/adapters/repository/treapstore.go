package repository

import (
	"container/list"
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/atscore/internal/domain/model"
	"github.com/okian/atscore/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then id ASC. "less" means ranks earlier, so an
// in-order walk yields the leaderboard from best to worst. Node priorities
// are random, which keeps the expected depth logarithmic regardless of how
// scores arrive.

const (
	defaultSnapshotInterval = time.Second
	defaultTopCacheSize     = 100
	distributionBuckets     = 10
)

// Snapshot is an immutable summary of the store, rebuilt periodically.
type Snapshot struct {
	TakenAt      time.Time            `json:"taken_at"`
	Records      int                  `json:"records"`
	Ranked       int                  `json:"ranked"`
	ByStatus     map[model.Status]int `json:"by_status"`
	MeanScore    float64              `json:"mean_score"`
	Distribution map[string]int       `json:"score_distribution"`
	TopCache     []model.Entry        `json:"-"`
}

type node struct {
	id    string
	score int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aID) ranks before (bScore, bID).
func less(aScore int, aID string, bScore int, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score int) *node {
	if n == nil {
		return &node{id: id, score: score, prio: rand.Uint64(), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score int) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in rank order. Ranks are left at
// zero for the caller to assign.
func collectTopN(n *node, limit int, records map[string]*stored, out *[]model.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		e := model.Entry{AnalysisID: n.id, Score: n.score}
		if rec, ok := records[n.id]; ok {
			e.Label = rec.Label
		}
		*out = append(*out, e)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

// assignDenseRanks numbers entries that start at the top of the
// leaderboard. Equal scores share a rank and the next score takes the
// following rank.
func assignDenseRanks(entries []model.Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}

type stored struct {
	model.Record
	age *list.Element
}

// TreapStore implements Store with a record map plus a treap over finished
// analyses.
type TreapStore struct {
	mu          sync.RWMutex
	root        *node
	records     map[string]*stored
	ranked      map[string]int // id -> score of ranked entries
	scoreCounts map[int]int    // score -> ranked entries with that score
	age         *list.List     // record ids, oldest at the front

	snapshotInterval time.Duration
	topCacheSize     int
	maxRecords       int

	snapshot atomic.Pointer[Snapshot]

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTreapStore constructs a store and starts the snapshot loop, which runs
// until ctx is done or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		records:          make(map[string]*stored),
		ranked:           make(map[string]int),
		scoreCounts:      make(map[int]int),
		age:              list.New(),
		snapshotInterval: defaultSnapshotInterval,
		topCacheSize:     defaultTopCacheSize,
		stopChan:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.publishSnapshot()
	s.startPeriodicSnapshots(ctx)
	return s
}

func (s *TreapStore) startPeriodicSnapshots(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.snapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.publishSnapshot()
			}
		}
	}()
}

func (s *TreapStore) publishSnapshot() {
	start := time.Now()
	s.mu.RLock()
	snap := s.buildSnapshot()
	records, ranked := len(s.records), len(s.ranked)
	s.mu.RUnlock()

	s.snapshot.Store(snap)
	metrics.UpdateStoreCounts(records, ranked)
	metrics.RecordStoreSnapshot(float64(time.Since(start).Microseconds())/1000, snap.TakenAt.Unix())
}

// buildSnapshot must be called with s.mu held.
func (s *TreapStore) buildSnapshot() *Snapshot {
	snap := &Snapshot{
		TakenAt:      time.Now(),
		Records:      len(s.records),
		Ranked:       len(s.ranked),
		ByStatus:     make(map[model.Status]int, 3),
		Distribution: make(map[string]int, distributionBuckets),
		TopCache:     make([]model.Entry, 0, min(s.topCacheSize, len(s.ranked))),
	}
	for _, rec := range s.records {
		snap.ByStatus[rec.Status]++
	}
	for b := range distributionBuckets {
		snap.Distribution[bucketLabel(b)] = 0
	}
	total := 0
	for score, n := range s.scoreCounts {
		total += score * n
		snap.Distribution[bucketLabel(bucketOf(score))] += n
	}
	if len(s.ranked) > 0 {
		snap.MeanScore = float64(total) / float64(len(s.ranked))
	}
	collectTopN(s.root, s.topCacheSize, s.records, &snap.TopCache)
	assignDenseRanks(snap.TopCache)
	return snap
}

func bucketOf(score int) int {
	return min(max(score, 0)/distributionBuckets, distributionBuckets-1)
}

func bucketLabel(b int) string {
	lo := b * distributionBuckets
	hi := lo + distributionBuckets - 1
	if b == distributionBuckets-1 {
		hi = 100
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}

// Snapshot returns the most recent summary.
func (s *TreapStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Close stops the snapshot loop.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Put implements Store.Put in O(log n) expected time.
func (s *TreapStore) Put(_ context.Context, rec model.Record) error {
	if rec.ID == "" {
		return ErrInvalidID
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.unrank(rec.ID)
	if old, ok := s.records[rec.ID]; ok {
		old.Record = rec
	} else {
		if s.maxRecords > 0 && len(s.records) >= s.maxRecords {
			s.evictOldest()
		}
		s.records[rec.ID] = &stored{Record: rec, age: s.age.PushBack(rec.ID)}
	}
	if score, ok := rec.Score(); ok {
		s.ranked[rec.ID] = score
		s.scoreCounts[score]++
		s.root = insert(s.root, rec.ID, score)
	}
	return nil
}

// unrank must be called with s.mu held.
func (s *TreapStore) unrank(id string) {
	score, ok := s.ranked[id]
	if !ok {
		return
	}
	s.root = deleteNode(s.root, id, score)
	delete(s.ranked, id)
	if s.scoreCounts[score]--; s.scoreCounts[score] == 0 {
		delete(s.scoreCounts, score)
	}
}

// evictOldest must be called with s.mu held.
func (s *TreapStore) evictOldest() {
	el := s.age.Front()
	if el == nil {
		return
	}
	id := s.age.Remove(el).(string)
	s.unrank(id)
	delete(s.records, id)
}

// Get implements Store.Get.
func (s *TreapStore) Get(_ context.Context, id string) (model.Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Record{}, ErrNotFound
	}
	return rec.Record, nil
}

// Delete implements Store.Delete.
func (s *TreapStore) Delete(_ context.Context, id string) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	s.unrank(id)
	s.age.Remove(rec.age)
	delete(s.records, id)
	return nil
}

// Rank implements Store.Rank. The dense rank is one more than the number of
// distinct higher scores.
func (s *TreapStore) Rank(_ context.Context, id string) (model.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.ranked[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Entry{}, ErrNotFound
	}
	rank := 1
	for other := range s.scoreCounts {
		if other > score {
			rank++
		}
	}
	return model.Entry{Rank: rank, AnalysisID: id, Label: s.records[id].Label, Score: score}, nil
}

// TopN implements Store.TopN.
func (s *TreapStore) TopN(_ context.Context, n int) ([]model.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Entry, 0, min(n, len(s.ranked)))
	collectTopN(s.root, n, s.records, &out)
	assignDenseRanks(out)
	return out, nil
}

// Count implements Store.Count.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Ranked implements Store.Ranked.
func (s *TreapStore) Ranked(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ranked)
}
