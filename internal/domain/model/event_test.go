package model_test

import (
	"testing"

	model "github.com/okian/passlog/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEvent(t *testing.T) {
	Convey("Given an event", t, func() {
		e := model.Event{
			Date:       "2026-02-03",
			MemberID:   "100245",
			MemberName: "Rivera, J",
			Category:   "G",
			ActorName:  "Mr. Gomez",
			TimeOut:    "09:00:00",
		}

		Convey("When inspecting its state", func() {
			Convey("Then an event without TimeBack is open", func() {
				So(e.Open(), ShouldBeTrue)
			})

			Convey("Then a closed event is not open", func() {
				e.TimeBack = "09:07:00"
				So(e.Open(), ShouldBeFalse)
			})

			Convey("Then an event without TimeOut is not open", func() {
				e.TimeOut = ""
				So(e.Open(), ShouldBeFalse)
			})
		})

		Convey("When deriving its match key", func() {
			key := e.Key()

			Convey("Then the key carries the identifying tuple", func() {
				So(key, ShouldResemble, model.MatchKey{
					MemberName: "Rivera, J",
					MemberID:   "100245",
					Category:   "G",
					ActorName:  "Mr. Gomez",
				})
			})

			Convey("Then the key ignores times and annotations", func() {
				other := e
				other.TimeOut = "10:30:00"
				other.Notes = "late"
				So(other.Key(), ShouldResemble, key)
			})
		})
	})

	Convey("Given blank detection", t, func() {
		Convey("Then a zero event is blank", func() {
			So(model.Event{}.Blank(), ShouldBeTrue)
		})

		Convey("Then whitespace-only fields are blank", func() {
			So(model.Event{MemberID: "  ", TimeOut: " "}.Blank(), ShouldBeTrue)
		})

		Convey("Then any populated field makes the event non-blank", func() {
			So(model.Event{MemberID: "1"}.Blank(), ShouldBeFalse)
		})
	})
}

func TestPartition(t *testing.T) {
	Convey("Given the working partitions", t, func() {
		Convey("Then each working partition's sibling is the other", func() {
			So(model.PartitionFirstHalf.Other(), ShouldEqual, model.PartitionSecondHalf)
			So(model.PartitionSecondHalf.Other(), ShouldEqual, model.PartitionFirstHalf)
		})

		Convey("Then the archive has no sibling", func() {
			So(model.PartitionArchive.Other(), ShouldEqual, model.PartitionArchive)
		})
	})
}

func TestMergeAnnotations(t *testing.T) {
	Convey("Given an event with no annotations", t, func() {
		e := model.Event{}

		Convey("When merging period and notes", func() {
			e.MergeAnnotations("3rd", "forgot pass")

			Convey("Then both are written", func() {
				So(e.Period, ShouldEqual, "3rd")
				So(e.Notes, ShouldEqual, "forgot pass")
			})
		})
	})

	Convey("Given an event with existing annotations", t, func() {
		e := model.Event{Period: "2nd", Notes: "first note"}

		Convey("When merging a new period and note", func() {
			e.MergeAnnotations("5th", "second note")

			Convey("Then period keeps its first value", func() {
				So(e.Period, ShouldEqual, "2nd")
			})

			Convey("Then notes are appended, not overwritten", func() {
				So(e.Notes, ShouldEqual, "first note; second note")
			})
		})

		Convey("When merging empty values", func() {
			e.MergeAnnotations("", "")

			Convey("Then nothing changes", func() {
				So(e.Period, ShouldEqual, "2nd")
				So(e.Notes, ShouldEqual, "first note")
			})
		})
	})
}
