package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/internal/domain/model"
)

func done(id string, score int) model.Record {
	return model.Record{ID: id, Label: id + ".pdf", Status: model.StatusDone, Report: &analysis.Report{Score: score}}
}

func newStore(t testing.TB, opts ...Option) *TreapStore {
	t.Helper()
	s := NewTreapStore(context.Background(), opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	if err := store.Put(ctx, model.Record{ID: "a1", Status: model.StatusPending}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Rank(ctx, "a1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("pending analysis should not be ranked, got %v", err)
	}
	if n := store.Ranked(ctx); n != 0 {
		t.Errorf("expected 0 ranked, got %d", n)
	}

	if err := store.Put(ctx, done("a1", 72)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	rec, err := store.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != model.StatusDone || rec.Report.Score != 72 {
		t.Errorf("unexpected record %+v", rec)
	}

	entry, err := store.Rank(ctx, "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 || entry.Score != 72 || entry.Label != "a1.pdf" {
		t.Errorf("unexpected entry %+v", entry)
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].AnalysisID != "a1" {
		t.Errorf("unexpected top entries %+v", entries)
	}
}

func TestTreapStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if err := store.Put(ctx, model.Record{}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
	if _, err := store.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestTreapStore_OrderingAndTies(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for id, score := range map[string]int{"c": 80, "a": 80, "b": 95, "d": 40, "e": 80, "f": 40} {
		if err := store.Put(ctx, done(id, score)); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []model.Entry{
		{Rank: 1, AnalysisID: "b", Score: 95},
		{Rank: 2, AnalysisID: "a", Score: 80},
		{Rank: 2, AnalysisID: "c", Score: 80},
		{Rank: 2, AnalysisID: "e", Score: 80},
		{Rank: 3, AnalysisID: "d", Score: 40},
		{Rank: 3, AnalysisID: "f", Score: 40},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, w := range want {
		got := entries[i]
		if got.Rank != w.Rank || got.AnalysisID != w.AnalysisID || got.Score != w.Score {
			t.Errorf("entry %d: expected %+v, got %+v", i, w, got)
		}
	}

	for _, w := range want {
		e, err := store.Rank(ctx, w.AnalysisID)
		if err != nil {
			t.Fatalf("rank %s: %v", w.AnalysisID, err)
		}
		if e.Rank != w.Rank {
			t.Errorf("rank %s: expected %d, got %d", w.AnalysisID, w.Rank, e.Rank)
		}
	}

	top2, _ := store.TopN(ctx, 2)
	if len(top2) != 2 || top2[1].AnalysisID != "a" {
		t.Errorf("unexpected top 2 %+v", top2)
	}
}

func TestTreapStore_Replace(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_ = store.Put(ctx, done("x", 50))
	_ = store.Put(ctx, done("y", 60))
	_ = store.Put(ctx, done("x", 90))

	e, err := store.Rank(ctx, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Rank != 1 || e.Score != 90 {
		t.Errorf("expected x first with 90, got %+v", e)
	}
	if n := store.Ranked(ctx); n != 2 {
		t.Errorf("expected 2 ranked, got %d", n)
	}

	_ = store.Put(ctx, model.Record{ID: "x", Status: model.StatusFailed, Error: "boom"})
	if _, err := store.Rank(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("failed analysis should leave the leaderboard, got %v", err)
	}
	if e, _ := store.Rank(ctx, "y"); e.Rank != 1 {
		t.Errorf("expected y to move up, got %+v", e)
	}
	if n := store.Count(ctx); n != 2 {
		t.Errorf("expected 2 records, got %d", n)
	}
}

func TestTreapStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, WithMaxRecords(2))

	_ = store.Put(ctx, done("a", 70))
	_ = store.Put(ctx, done("b", 80))
	if err := store.Delete(ctx, "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Delete(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if e, _ := store.Rank(ctx, "a"); e.Rank != 1 {
		t.Errorf("expected a to lead, got %+v", e)
	}

	// the freed slot must not evict a
	_ = store.Put(ctx, done("c", 10))
	if n := store.Count(ctx); n != 2 {
		t.Errorf("expected 2 records, got %d", n)
	}
	if _, err := store.Get(ctx, "a"); err != nil {
		t.Errorf("expected a to survive, got %v", err)
	}
}

func TestTreapStore_MaxRecords(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, WithMaxRecords(2))

	_ = store.Put(ctx, done("first", 99))
	_ = store.Put(ctx, done("second", 10))
	_ = store.Put(ctx, done("second", 20))
	_ = store.Put(ctx, done("third", 30))

	if _, err := store.Get(ctx, "first"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected oldest record to be evicted, got %v", err)
	}
	if n := store.Count(ctx); n != 2 {
		t.Errorf("expected 2 records, got %d", n)
	}
	top, _ := store.TopN(ctx, 5)
	if len(top) != 2 || top[0].AnalysisID != "third" {
		t.Errorf("unexpected leaderboard after eviction %+v", top)
	}
}

func TestTreapStore_RankMatchesSort(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	scores := make(map[string]int, 500)
	for i := range 500 {
		id := fmt.Sprintf("an-%03d", i)
		scores[id] = rand.IntN(101)
		_ = store.Put(ctx, done(id, scores[id]))
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return less(scores[ids[i]], ids[i], scores[ids[j]], ids[j]) })

	top, err := store.TopN(ctx, len(ids))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, e := range top {
		if e.AnalysisID != ids[i] {
			t.Fatalf("position %d: expected %s, got %s", i, ids[i], e.AnalysisID)
		}
		r, _ := store.Rank(ctx, e.AnalysisID)
		if r.Rank != e.Rank {
			t.Fatalf("%s: TopN rank %d, Rank %d", e.AnalysisID, e.Rank, r.Rank)
		}
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range 200 {
				id := fmt.Sprintf("w%d-%d", w, i)
				_ = store.Put(ctx, done(id, (w*i)%101))
				_, _ = store.Rank(ctx, id)
				_, _ = store.TopN(ctx, 10)
			}
		}(w)
	}
	wg.Wait()

	if n := store.Ranked(ctx); n != 1600 {
		t.Errorf("expected 1600 ranked, got %d", n)
	}
}

func TestTreapStore_PeriodicSnapshots(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, WithSnapshotInterval(10*time.Millisecond), WithTopCacheSize(2))

	if snap := store.Snapshot(); snap == nil || snap.Records != 0 {
		t.Fatalf("expected an empty initial snapshot, got %+v", snap)
	}

	_ = store.Put(ctx, done("a", 100))
	_ = store.Put(ctx, done("b", 55))
	_ = store.Put(ctx, done("c", 5))
	_ = store.Put(ctx, model.Record{ID: "d", Status: model.StatusPending})

	time.Sleep(50 * time.Millisecond)

	snap := store.Snapshot()
	if snap.Records != 4 || snap.Ranked != 3 {
		t.Errorf("unexpected counts %+v", snap)
	}
	if snap.ByStatus[model.StatusPending] != 1 || snap.ByStatus[model.StatusDone] != 3 {
		t.Errorf("unexpected status counts %v", snap.ByStatus)
	}
	if snap.MeanScore != 160.0/3 {
		t.Errorf("unexpected mean %f", snap.MeanScore)
	}
	if snap.Distribution["90-100"] != 1 || snap.Distribution["50-59"] != 1 || snap.Distribution["0-9"] != 1 {
		t.Errorf("unexpected distribution %v", snap.Distribution)
	}
	if len(snap.Distribution) != distributionBuckets {
		t.Errorf("expected %d buckets, got %d", distributionBuckets, len(snap.Distribution))
	}
	if len(snap.TopCache) != 2 || snap.TopCache[0].AnalysisID != "a" {
		t.Errorf("unexpected top cache %+v", snap.TopCache)
	}
}

func TestTreapStore_CloseBehavior(t *testing.T) {
	store := NewTreapStore(context.Background())
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
}

func BenchmarkTreapStore_Mixed(b *testing.B) {
	ctx := context.Background()
	store := newStore(b)
	const seeded = 100_000
	for i := range seeded {
		_ = store.Put(ctx, done(fmt.Sprintf("seed-%d", i), rand.IntN(101)))
	}

	b.ResetTimer()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			switch i % 10 {
			case 0, 1, 2, 3:
				_ = store.Put(ctx, done(fmt.Sprintf("seed-%d", i%seeded), rand.IntN(101)))
			case 4, 5, 6:
				_, _ = store.Rank(ctx, fmt.Sprintf("seed-%d", i%seeded))
			case 7, 8:
				_, _ = store.TopN(ctx, 10+i%90)
			default:
				store.Count(ctx)
			}
			i++
		}
	})
}
