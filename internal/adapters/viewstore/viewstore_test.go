package viewstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestStoreBasics(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		s := New[string]()

		Convey("When a value is put", func() {
			s.Put(ctx, "a", "alpha")

			Convey("Then it can be read back", func() {
				v, ok := s.Get(ctx, "a")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "alpha")
				So(s.Len(), ShouldEqual, 1)
			})

			Convey("And putting again replaces it", func() {
				s.Put(ctx, "a", "beta")
				v, _ := s.Get(ctx, "a")
				So(v, ShouldEqual, "beta")
				So(s.Len(), ShouldEqual, 1)
			})
		})

		Convey("When a stored value is updated", func() {
			s.Put(ctx, "a", "alpha")
			v, ok := s.Update(ctx, "a", func(old string) string { return old + "+" })

			Convey("Then the new value is stored and returned", func() {
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "alpha+")
				got, _ := s.Get(ctx, "a")
				So(got, ShouldEqual, "alpha+")
			})
		})

		Convey("When a missing id is updated", func() {
			called := false
			_, ok := s.Update(ctx, "missing", func(old string) string { called = true; return old })

			Convey("Then nothing is stored", func() {
				So(ok, ShouldBeFalse)
				So(called, ShouldBeFalse)
				So(s.Len(), ShouldEqual, 0)
			})
		})

		Convey("When reading a missing id", func() {
			v, ok := s.Get(ctx, "missing")

			Convey("Then the zero value is returned", func() {
				So(ok, ShouldBeFalse)
				So(v, ShouldEqual, "")
			})
		})

		Convey("Then ids are unique", func() {
			So(NewID(), ShouldNotEqual, NewID())
		})
	})
}

func TestStoreEviction(t *testing.T) {
	Convey("Given a store bounded to three views", t, func() {
		ctx := context.Background()
		s := New[int](WithMaxSize(3))
		So(s.Capacity(), ShouldEqual, 3)
		s.Put(ctx, "a", 1)
		s.Put(ctx, "b", 2)
		s.Put(ctx, "c", 3)

		Convey("When a fourth view arrives", func() {
			s.Put(ctx, "d", 4)

			Convey("Then the oldest is evicted", func() {
				_, ok := s.Get(ctx, "a")
				So(ok, ShouldBeFalse)
				So(s.Len(), ShouldEqual, 3)
			})
		})

		Convey("When the oldest was used recently", func() {
			_, _ = s.Get(ctx, "a")
			s.Put(ctx, "d", 4)

			Convey("Then the least recently used is evicted instead", func() {
				_, okA := s.Get(ctx, "a")
				_, okB := s.Get(ctx, "b")
				So(okA, ShouldBeTrue)
				So(okB, ShouldBeFalse)
			})
		})

		Convey("When several views arrive in a row", func() {
			s.Put(ctx, "d", 4)
			s.Put(ctx, "e", 5)

			Convey("Then the list stays consistent", func() {
				_, okA := s.Get(ctx, "a")
				_, okB := s.Get(ctx, "b")
				So(okA, ShouldBeFalse)
				So(okB, ShouldBeFalse)
				So(s.Len(), ShouldEqual, 3)
				for _, id := range []string{"c", "d", "e"} {
					_, ok := s.Get(ctx, id)
					So(ok, ShouldBeTrue)
				}
			})
		})
	})

	Convey("Given an unbounded store", t, func() {
		ctx := context.Background()
		s := New[int](WithMaxSize(0))

		Convey("When many views are put", func() {
			for i := 0; i < 100; i++ {
				s.Put(ctx, fmt.Sprint(i), i)
			}

			Convey("Then none are evicted", func() {
				So(s.Len(), ShouldEqual, 100)
				So(s.Capacity(), ShouldEqual, 0)
			})
		})
	})
}

func TestStoreConcurrency(t *testing.T) {
	Convey("Given concurrent writers", t, func() {
		ctx := context.Background()
		s := New[int](WithMaxSize(50))

		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 200; i++ {
					id := fmt.Sprintf("%d-%d", w, i)
					s.Put(ctx, id, i)
					_, _ = s.Get(ctx, id)
				}
			}(w)
		}
		wg.Wait()

		Convey("Then the bound holds", func() {
			So(s.Len(), ShouldEqual, 50)
		})
	})
}
