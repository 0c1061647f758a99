package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// counterValue gathers registry and returns the first sample of name.
func counterValue(registry *prometheus.Registry, name string) (float64, map[string]string, bool) {
	families, err := registry.Gather()
	if err != nil {
		return 0, nil, false
	}
	for _, f := range families {
		if f.GetName() != name || len(f.GetMetric()) == 0 {
			continue
		}
		metric := f.GetMetric()[0]
		labels := map[string]string{}
		for _, lp := range metric.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		return metric.GetCounter().GetValue(), labels, true
	}
	return 0, nil, false
}

func TestNewManager(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("meets"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				m.recomputes.Inc()
				m.limitViolations.WithLabelValues("scoring_count").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_meets_recomputes_total"], ShouldBeTrue)
				So(names["test_meets_limit_violations_total"], ShouldBeTrue)
			})

			Convey("Then const labels are attached", func() {
				m.sensitivityRuns.Inc()
				v, labels, ok := counterValue(registry, "test_meets_sensitivity_runs_total")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 1)
				So(labels["env"], ShouldEqual, "test")
			})
		})

		Convey("When registering the same names twice", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then recording never panics", func() {
			So(func() {
				RecordRecompute(12.5)
				RecordRecomputeDuplicate()
				RecordRecomputeError()
				RecordUnresolvedLegs(2)
				RecordLimitViolation("relay_count")
				RecordSensitivityRun()
				RecordReconcileRows(3, 1)
				UpdateMeetsTotal(4)
				UpdateQueueSize(1)
				UpdateQueueCapacity(10)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(2)
				UpdateWorkerActiveCount(1)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				RecordHTTPRequest("/meets", "GET", "200")
				RecordHTTPRequestDuration("/meets", "GET", "200", 1.5)
				RecordErrorByComponent("queue", "full")
			}, ShouldNotPanic)
		})

		Convey("Then values land on the custom registry", func() {
			before, _, _ := counterValue(GetRegistry(), "meetscore_engine_sensitivity_runs_total")
			RecordSensitivityRun()
			after, _, ok := counterValue(GetRegistry(), "meetscore_engine_sensitivity_runs_total")
			So(ok, ShouldBeTrue)
			So(after, ShouldEqual, before+1)
		})
	})
}
