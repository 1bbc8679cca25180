package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/atscore/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a key is claimed", func() {
			id, seen := d.Claim(ctx, "fp:abc", "analysis-1")

			Convey("Then the new id holds it", func() {
				So(seen, ShouldBeFalse)
				So(id, ShouldEqual, "analysis-1")
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then a second claim returns the first id", func() {
				id, seen := d.Claim(ctx, "fp:abc", "analysis-2")
				So(seen, ShouldBeTrue)
				So(id, ShouldEqual, "analysis-1")
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then a released key can be claimed again", func() {
				d.Release(ctx, "fp:abc")
				So(d.Size(), ShouldEqual, 0)
				id, seen := d.Claim(ctx, "fp:abc", "analysis-3")
				So(seen, ShouldBeFalse)
				So(id, ShouldEqual, "analysis-3")
			})
		})

		Convey("When an unknown key is released", func() {
			d.Release(ctx, "missing")
			So(d.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a bounded deduper at capacity", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 3; i++ {
			d.Claim(ctx, fmt.Sprintf("k%d", i), fmt.Sprintf("id%d", i))
		}

		Convey("When another key arrives", func() {
			d.Claim(ctx, "k4", "id4")

			Convey("Then the oldest key is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				_, seen := d.Claim(ctx, "k2", "other")
				So(seen, ShouldBeTrue)
				_, seen = d.Claim(ctx, "k4", "other")
				So(seen, ShouldBeTrue)
				_, seen = d.Claim(ctx, "k1", "again")
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.Claim(ctx, fmt.Sprintf("k%d", i), "id")
		}
		So(d.Size(), ShouldEqual, 1000)
		_, seen := d.Claim(ctx, "k0", "id")
		So(seen, ShouldBeTrue)
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given goroutines claiming the same keys", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const goroutines = 10
		const keys = 100

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			owners = map[string]string{}
			fresh  int
		)
		for g := 0; g < goroutines; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for k := 0; k < keys; k++ {
					key := fmt.Sprintf("k%d", k)
					id, seen := d.Claim(ctx, key, fmt.Sprintf("g%d", g))
					mu.Lock()
					if !seen {
						fresh++
					}
					if prev, ok := owners[key]; ok && prev != id {
						owners[key] = "conflict"
					} else {
						owners[key] = id
					}
					mu.Unlock()
				}
			}(g)
		}
		wg.Wait()

		Convey("Then each key has exactly one owner", func() {
			So(fresh, ShouldEqual, keys)
			So(d.Size(), ShouldEqual, keys)
			for _, id := range owners {
				So(id, ShouldNotEqual, "conflict")
			}
		})
	})
}
