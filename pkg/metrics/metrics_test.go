package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording business metrics", func() {
			Convey("Then the recorders should not panic", func() {
				So(RecordTripOpened, ShouldNotPanic)
				So(RecordTripClosed, ShouldNotPanic)
				So(RecordConfirmationRequired, ShouldNotPanic)
				So(RecordOverrideUsed, ShouldNotPanic)
				So(RecordUnmatchedBack, ShouldNotPanic)
				So(RecordDuplicateSubmission, ShouldNotPanic)
				So(RecordArchiveReconciled, ShouldNotPanic)
				So(RecordMigrationRun, ShouldNotPanic)
				So(RecordStorageError, ShouldNotPanic)
				So(RecordLockTimeout, ShouldNotPanic)
				So(func() { RecordMigratedRows(3) }, ShouldNotPanic)
				So(func() { UpdatePartitionRows("first_half", 2) }, ShouldNotPanic)
				So(func() { UpdateOpenTrips("second_half", 1) }, ShouldNotPanic)
				So(func() { UpdateArchivedRows(10) }, ShouldNotPanic)
				So(func() { RecordStorageQueryLatency(1.5) }, ShouldNotPanic)
				So(func() { RecordStorageWriteLatency(2.5) }, ShouldNotPanic)
				So(func() { RecordHTTPRequest("transitions", "POST", "200") }, ShouldNotPanic)
				So(func() { RecordHTTPRequestDuration("transitions", "POST", "200", 12.0) }, ShouldNotPanic)
			})
		})

		Convey("When fetching the registry", func() {
			registry := GetRegistry()

			Convey("Then it should be the custom registry", func() {
				So(registry, ShouldNotBeNil)
			})
		})
	})
}
