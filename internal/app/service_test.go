package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/passlog/internal/app"
	"github.com/okian/passlog/internal/domain/model"
	"github.com/okian/passlog/internal/domain/roster"
	"github.com/okian/passlog/internal/domain/types"
	"github.com/okian/passlog/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time     { return c.t }
func (c *testClock) Set(t time.Time)    { c.t = t }
func at(hour, min int) time.Time {
	return time.Date(2026, 2, 3, hour, min, 0, 0, time.UTC)
}

func startTestService(t *testing.T, clock *testClock, opts ...service.Option) *service.Service {
	t.Helper()
	base := []service.Option{
		service.WithDBPath(filepath.Join(t.TempDir(), "events.db")),
		service.WithClock(clock.Now),
		service.WithRoster([]roster.Member{
			{ID: "100245", Name: "Rivera, J"},
			{ID: "100246", Name: "Chen, A"},
		}),
		service.WithStaff(map[string]string{
			"a.gomez@example.org": "Mr. Gomez",
		}),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func outReq(memberID string) types.TransitionRequest {
	return types.TransitionRequest{MemberID: memberID, Category: "G", Action: "Out"}
}

func backReq(memberID string) types.TransitionRequest {
	return types.TransitionRequest{MemberID: memberID, Category: "G", Action: "Back"}
}

func TestRecordOut(t *testing.T) {
	Convey("Given a running service", t, func() {
		clock := &testClock{t: at(9, 0)}
		svc := startTestService(t, clock)
		ctx := context.Background()
		caller := "a.gomez@example.org"

		Convey("When a member never seen today checks out", func() {
			res, err := svc.Record(ctx, caller, outReq("100245"))

			Convey("Then the trip is recorded without confirmation", func() {
				So(err, ShouldBeNil)
				So(res.Appended, ShouldBeTrue)
				So(res.ConfirmationNeeded, ShouldBeFalse)
				So(res.CountBefore, ShouldEqual, 0)
				So(res.CountAfter, ShouldEqual, 1)
				So(res.MemberName, ShouldEqual, "Rivera, J")
				So(res.PartitionName, ShouldEqual, string(model.PartitionFirstHalf))
			})

			Convey("Then the event carries the resolved actor name", func() {
				events, err := svc.ListEvents(ctx, string(model.PartitionFirstHalf), 0)
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 1)
				So(events[0].ActorName, ShouldEqual, "Mr. Gomez")
				So(events[0].TimeOut, ShouldEqual, "09:00:00")
				So(events[0].TimeBack, ShouldBeEmpty)
			})
		})

		Convey("When the member id is not on the roster", func() {
			_, err := svc.Record(ctx, caller, outReq("999999"))

			Convey("Then the request fails as member not found", func() {
				So(service.IsMemberNotFound(err), ShouldBeTrue)
			})
		})

		Convey("When the action is unknown", func() {
			_, err := svc.Record(ctx, caller, types.TransitionRequest{MemberID: "100245", Action: "Sideways"})

			Convey("Then the request is rejected", func() {
				So(errors.Is(err, service.ErrBadAction), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service with an empty roster", t, func() {
		clock := &testClock{t: at(9, 0)}
		svc := startTestService(t, clock, service.WithRoster(nil))

		Convey("When any transition arrives", func() {
			_, err := svc.Record(context.Background(), "x", outReq("100245"))

			Convey("Then the roster context error surfaces", func() {
				So(errors.Is(err, roster.ErrNoRoster), ShouldBeTrue)
			})
		})
	})
}

func TestThresholdGate(t *testing.T) {
	Convey("Given a member with two open trips today", t, func() {
		clock := &testClock{t: at(9, 0)}
		svc := startTestService(t, clock)
		ctx := context.Background()
		caller := "a.gomez@example.org"

		_, err := svc.Record(ctx, caller, outReq("100245"))
		So(err, ShouldBeNil)
		clock.Set(at(9, 10))
		res, err := svc.Record(ctx, caller, outReq("100245"))
		So(err, ShouldBeNil)
		So(res.Appended, ShouldBeTrue)
		So(res.CountBefore, ShouldEqual, 1)

		Convey("When a third Out arrives without override", func() {
			clock.Set(at(9, 20))
			res, err := svc.Record(ctx, caller, outReq("100245"))

			Convey("Then confirmation is required and nothing is written", func() {
				So(err, ShouldBeNil)
				So(res.ConfirmationNeeded, ShouldBeTrue)
				So(res.Appended, ShouldBeFalse)
				So(res.CountBefore, ShouldEqual, 2)
				So(res.CountAfter, ShouldEqual, 2)

				events, err := svc.ListEvents(ctx, string(model.PartitionFirstHalf), 0)
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 2)
			})
		})

		Convey("When the third Out is retried with override", func() {
			clock.Set(at(9, 20))
			req := outReq("100245")
			req.ForceOverride = true
			res, err := svc.Record(ctx, caller, req)

			Convey("Then the trip is recorded", func() {
				So(err, ShouldBeNil)
				So(res.Appended, ShouldBeTrue)
				So(res.ConfirmationNeeded, ShouldBeFalse)
				So(res.CountAfter, ShouldEqual, 3)
			})
		})
	})
}

func TestRecordBack(t *testing.T) {
	Convey("Given a member with two open trips for the same tuple", t, func() {
		clock := &testClock{t: at(9, 0)}
		svc := startTestService(t, clock)
		ctx := context.Background()
		caller := "a.gomez@example.org"

		_, err := svc.Record(ctx, caller, outReq("100245"))
		So(err, ShouldBeNil)
		clock.Set(at(9, 10))
		_, err = svc.Record(ctx, caller, outReq("100245"))
		So(err, ShouldBeNil)

		Convey("When a Back request arrives", func() {
			clock.Set(at(9, 20))
			res, err := svc.Record(ctx, caller, backReq("100245"))
			So(err, ShouldBeNil)

			Convey("Then the most recently opened trip closes first", func() {
				So(res.Appended, ShouldBeTrue)
				So(res.PartitionName, ShouldEqual, string(model.PartitionFirstHalf))

				events, err := svc.ListEvents(ctx, string(model.PartitionFirstHalf), 0)
				So(err, ShouldBeNil)
				So(events[0].TimeOut, ShouldEqual, "09:00:00")
				So(events[0].TimeBack, ShouldBeEmpty)
				So(events[1].TimeOut, ShouldEqual, "09:10:00")
				So(events[1].TimeBack, ShouldEqual, "09:20:00")
			})
		})
	})

	Convey("Given a trip opened just before the cutover", t, func() {
		clock := &testClock{t: at(11, 55)}
		svc := startTestService(t, clock)
		ctx := context.Background()
		caller := "a.gomez@example.org"

		_, err := svc.Record(ctx, caller, outReq("100245"))
		So(err, ShouldBeNil)

		Convey("When the Back request arrives after the cutover", func() {
			clock.Set(at(12, 5))
			res, err := svc.Record(ctx, caller, backReq("100245"))

			Convey("Then the trip is found in the first half and reported as such", func() {
				So(err, ShouldBeNil)
				So(res.Appended, ShouldBeTrue)
				So(res.PartitionName, ShouldEqual, string(model.PartitionFirstHalf))
			})

			Convey("Then an identical second Back is a reported non-match", func() {
				res, err := svc.Record(ctx, caller, backReq("100245"))
				So(err, ShouldBeNil)
				So(res.Appended, ShouldBeFalse)
				So(res.ConfirmationNeeded, ShouldBeFalse)
			})
		})
	})

	Convey("Given no open trip at all", t, func() {
		clock := &testClock{t: at(9, 0)}
		svc := startTestService(t, clock)

		Convey("When a Back request arrives", func() {
			res, err := svc.Record(context.Background(), "a.gomez@example.org", backReq("100245"))

			Convey("Then it is a non-error no-op", func() {
				So(err, ShouldBeNil)
				So(res.Appended, ShouldBeFalse)
			})
		})
	})
}

func TestMigrateAndReconcile(t *testing.T) {
	Convey("Given open and closed trips across both partitions", t, func() {
		clock := &testClock{t: at(9, 0)}
		svc := startTestService(t, clock)
		ctx := context.Background()
		caller := "a.gomez@example.org"

		_, err := svc.Record(ctx, caller, outReq("100245"))
		So(err, ShouldBeNil)
		clock.Set(at(9, 5))
		_, err = svc.Record(ctx, caller, backReq("100245"))
		So(err, ShouldBeNil)
		clock.Set(at(13, 0))
		_, err = svc.Record(ctx, caller, outReq("100246"))
		So(err, ShouldBeNil)

		Convey("When migration runs", func() {
			moved, err := svc.Migrate(ctx)
			So(err, ShouldBeNil)

			Convey("Then all rows move to the archive in partition order", func() {
				So(moved, ShouldEqual, 2)

				archived, err := svc.ListEvents(ctx, string(model.PartitionArchive), 0)
				So(err, ShouldBeNil)
				So(archived, ShouldHaveLength, 2)
				So(archived[0].MemberName, ShouldEqual, "Rivera, J")
				So(archived[1].MemberName, ShouldEqual, "Chen, A")
			})

			Convey("Then a late Back reconciles against the archive", func() {
				clock.Set(at(13, 30))
				res, err := svc.Record(ctx, caller, backReq("100246"))
				So(err, ShouldBeNil)
				So(res.Appended, ShouldBeTrue)
				So(res.PartitionName, ShouldEqual, string(model.PartitionArchive))
			})

			Convey("Then a second migration is a no-op", func() {
				moved, err := svc.Migrate(ctx)
				So(err, ShouldBeNil)
				So(moved, ShouldEqual, 0)
			})
		})
	})
}

func TestDuplicateSubmission(t *testing.T) {
	Convey("Given a transition with a request id", t, func() {
		clock := &testClock{t: at(9, 0)}
		svc := startTestService(t, clock)
		ctx := context.Background()
		caller := "a.gomez@example.org"

		req := outReq("100245")
		req.RequestID = "req-abc"
		res, err := svc.Record(ctx, caller, req)
		So(err, ShouldBeNil)
		So(res.Appended, ShouldBeTrue)

		Convey("When the same request id is submitted again", func() {
			res, err := svc.Record(ctx, caller, req)

			Convey("Then the duplicate is suppressed without a second write", func() {
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeTrue)
				So(res.Appended, ShouldBeFalse)

				events, err := svc.ListEvents(ctx, string(model.PartitionFirstHalf), 0)
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 1)
			})
		})

		Convey("When a failing request reuses its id after the failure", func() {
			bad := outReq("999999")
			bad.RequestID = "req-retry"
			_, err := svc.Record(ctx, caller, bad)
			So(service.IsMemberNotFound(err), ShouldBeTrue)

			Convey("Then the id is released for retry", func() {
				good := outReq("100246")
				good.RequestID = "req-retry"
				res, err := svc.Record(ctx, caller, good)
				So(err, ShouldBeNil)
				So(res.Appended, ShouldBeTrue)
			})
		})
	})
}
