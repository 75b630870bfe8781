package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then defaults are applied", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(manager.namespace, ShouldEqual, "restkit")
				So(manager.subsystem, ShouldEqual, "dispatch")
			})
		})

		Convey("When creating with custom options", func() {
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the options are honoured", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.Enabled(), ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
				So(manager.customLabels["env"], ShouldEqual, "test")
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "restkit")
				So(manager.histogramBuckets, ShouldResemble, latencyBucketsMs)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestGlobalRefreshInterval(t *testing.T) {
	Convey("Given the global manager", t, func() {
		prev := RefreshInterval()
		defer SetRefreshInterval(prev)

		Convey("When a positive interval is set", func() {
			SetRefreshInterval(250 * time.Millisecond)
			So(RefreshInterval(), ShouldEqual, 250*time.Millisecond)
		})

		Convey("When a non-positive interval is set", func() {
			SetRefreshInterval(2 * time.Second)
			SetRefreshInterval(0)
			So(RefreshInterval(), ShouldEqual, 2*time.Second)
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry))

		Convey("When recording dispatch outcomes", func() {
			manager.RecordDispatch("sayHello", "GET", "200")
			manager.RecordDispatch("sayHello", "GET", "200")
			manager.RecordDispatch("_unresolved", "GET", "404")
			manager.RecordDispatchFailure("not_found")
			manager.RecordUnresolvedEndpoint()
			manager.RecordMethodOverride("PUT")
			manager.UpdateRegisteredEndpoints(3)
			manager.RecordDispatchDuration(1.5)

			Convey("Then counters and gauges reflect them", func() {
				So(testutil.ToFloat64(manager.dispatchTotal.WithLabelValues("sayHello", "GET", "200")), ShouldEqual, 2.0)
				So(testutil.ToFloat64(manager.dispatchFailures.WithLabelValues("not_found")), ShouldEqual, 1.0)
				So(testutil.ToFloat64(manager.unresolvedEndpoints), ShouldEqual, 1.0)
				So(testutil.ToFloat64(manager.methodOverrides.WithLabelValues("PUT")), ShouldEqual, 1.0)
				So(testutil.ToFloat64(manager.registeredEndpoints), ShouldEqual, 3.0)
				So(testutil.CollectAndCount(manager.dispatchLatency), ShouldEqual, 1)
			})
		})

		Convey("When recording HTTP traffic", func() {
			manager.RecordHTTPRequest("dispatch", "POST", "412", 2)
			manager.RecordHTTPError("dispatch", "POST", "client_error", "medium")
			manager.UpdateSystem(1024, 7)

			Convey("Then transport metrics are updated", func() {
				So(testutil.ToFloat64(manager.httpRequests.WithLabelValues("dispatch", "POST", "412")), ShouldEqual, 1.0)
				So(testutil.ToFloat64(manager.errorRateByType.WithLabelValues("client_error", "medium")), ShouldEqual, 1.0)
				So(testutil.ToFloat64(manager.systemMemoryUsage), ShouldEqual, 1024.0)
				So(testutil.ToFloat64(manager.systemGoroutineCount), ShouldEqual, 7.0)
			})
		})
	})

	Convey("Given a disabled manager", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))

		Convey("When recording", func() {
			manager.RecordUnresolvedEndpoint()
			manager.RecordDispatch("x", "GET", "200")

			Convey("Then nothing is observed", func() {
				So(testutil.ToFloat64(manager.unresolvedEndpoints), ShouldEqual, 0.0)
				So(testutil.ToFloat64(manager.dispatchTotal.WithLabelValues("x", "GET", "200")), ShouldEqual, 0.0)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then package helpers never panic", func() {
			So(func() {
				RecordDispatch("sayHello", "GET", "200")
				RecordDispatchDuration(0.2)
				RecordDispatchFailure("validation")
				RecordUnresolvedEndpoint()
				RecordMethodOverride("DELETE")
				UpdateRegisteredEndpoints(1)
				RecordHTTPRequest("dispatch", "GET", "200", 1)
				RecordHTTPError("dispatch", "GET", "not_found", "medium")
				UpdateSystem(1, 1)
			}, ShouldNotPanic)
		})

		Convey("And the registry exposes the dispatch families", func() {
			RecordDispatch("sayHello", "GET", "200")
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(names, ShouldContain, "restkit_dispatch_requests_total")
		})
	})
}
