package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	dedupe "github.com/okian/passlog/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new in-memory deduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording request ids", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the id is new", func() {
				seen := d.SeenAndRecord(context.Background(), "req-1")

				Convey("Then it should return false and record the id", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the id was already seen", func() {
				d.SeenAndRecord(context.Background(), "req-1")
				seen := d.SeenAndRecord(context.Background(), "req-1")

				Convey("Then it should return true without growing", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})

		Convey("When unrecording ids", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(context.Background(), "req-1")

			d.Unrecord(context.Background(), "req-1")

			Convey("Then the id can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(context.Background(), "req-1"), ShouldBeFalse)
			})

			Convey("And unrecording an unknown id is a no-op", func() {
				d.Unrecord(context.Background(), "req-unknown")
				So(d.Size(), ShouldBeGreaterThanOrEqualTo, 0)
			})
		})

		Convey("When the deduper reaches its bound", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

			for i := 0; i < 5; i++ {
				d.SeenAndRecord(context.Background(), fmt.Sprintf("req-%d", i))
			}

			Convey("Then the oldest ids are evicted first", func() {
				So(d.Size(), ShouldEqual, 3)
				// req-0 and req-1 were evicted; recording them again is "new".
				So(d.SeenAndRecord(context.Background(), "req-0"), ShouldBeFalse)
				// req-4 is still tracked.
				So(d.SeenAndRecord(context.Background(), "req-4"), ShouldBeTrue)
			})
		})
	})
}
