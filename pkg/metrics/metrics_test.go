package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithNamespace("test"),
			WithSubsystem("unit"),
			WithHistogramBuckets([]float64{0.01, 0.1, 1}),
			WithConstLabels(map[string]string{"env": "test"}),
			WithPrometheusRegistry(registry),
		)
		So(m, ShouldNotBeNil)

		Convey("When recording estimation work", func() {
			m.RecordRowsParsed(10)
			m.RecordRowRejected("format")
			m.RecordRowRejected("format")
			m.RecordRowsPatched(3)
			m.RecordSegmentEstimated("Swim")
			m.RecordCohortProcessed(0.02)

			Convey("Then the counters reflect it", func() {
				So(testutil.ToFloat64(m.rowsParsed), ShouldEqual, 10)
				So(testutil.ToFloat64(m.rowsRejected.WithLabelValues("format")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.rowsPatched), ShouldEqual, 3)
				So(testutil.ToFloat64(m.segmentsEstimated.WithLabelValues("Swim")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.cohortsProcessed), ShouldEqual, 1)
			})

			Convey("And the registry exposes namespaced names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_rows_parsed_total"], ShouldBeTrue)
				So(names["test_unit_estimation_duration_seconds"], ShouldBeTrue)
			})
		})

		Convey("When updating gauges", func() {
			m.UpdateQueueSize(4)
			m.UpdateWorkerCount(2)
			m.UpdateStoredReports(9)
			So(testutil.ToFloat64(m.queueSize), ShouldEqual, 4)
			So(testutil.ToFloat64(m.workerCount), ShouldEqual, 2)
			So(testutil.ToFloat64(m.storedReports), ShouldEqual, 9)
		})

		Convey("When recording HTTP requests", func() {
			m.RecordHTTPRequest("estimate", "POST", "200", 0.05)
			So(testutil.ToFloat64(m.httpRequests.WithLabelValues("estimate", "POST", "200")), ShouldEqual, 1)
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global registry", t, func() {
		before := testutil.ToFloat64(globalManager.jobsEnqueued)
		RecordJobEnqueued()
		So(testutil.ToFloat64(globalManager.jobsEnqueued), ShouldEqual, before+1)
		So(GetRegistry(), ShouldNotBeNil)
	})
}

func TestRegisterRuntimeCollectors(t *testing.T) {
	Convey("Given runtime collectors registered twice", t, func() {
		RegisterRuntimeCollectors()
		RegisterRuntimeCollectors()

		families, err := GetRegistry().Gather()
		So(err, ShouldBeNil)
		found := false
		for _, f := range families {
			if f.GetName() == "go_goroutines" {
				found = true
			}
		}
		So(found, ShouldBeTrue)
	})
}
