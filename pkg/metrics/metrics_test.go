package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry and custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("board"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithConstLabels(map[string]string{"source": "memory"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered on that registry", func() {
				So(manager, ShouldNotBeNil)
				manager.recomputesTotal.WithLabelValues("startup").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_board_recomputes_total")
				So(manager.constLabels, ShouldResemble, prometheus.Labels{"env": "test", "source": "memory"})
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording ranking metrics", func() {
			before := testutil.ToFloat64(g().predictionsSkipped.WithLabelValues("unknown_game"))
			RecordPredictionsSkipped("unknown_game", 3)
			RecordPredictionsScored(5)
			UpdateUsersRanked(7)
			UpdateFinalizedGames(2)

			Convey("Then the collectors reflect the values", func() {
				So(testutil.ToFloat64(g().predictionsSkipped.WithLabelValues("unknown_game"))-before, ShouldEqual, 3)
				So(testutil.ToFloat64(g().usersRanked), ShouldEqual, 7)
				So(testutil.ToFloat64(g().finalizedGames), ShouldEqual, 2)
			})
		})

		Convey("When recording the remaining helpers", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordRecompute("submission", 1.5)
					RecordRecomputeError("source")
					RecordRecomputeSkipped()
					UpdateUsersDropped(1)
					RecordSubmissionAccepted("prediction")
					RecordSubmissionDuplicate("prediction")
					RecordSubmissionRejected("result")
					RecordSourceLoad("memory", 0.2)
					RecordPublish("redis", "ok")
					RecordFeedMessage("result", "applied")
					UpdateStandingsVersion(4)
					UpdateQueueSize(1)
					UpdateQueueCapacity(10)
					UpdateQueueUtilization(0.1)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					UpdateWorkerCount(2)
					UpdateWorkerActiveCount(1)
					RecordWorkerProcessingLatency(3)
					RecordWorkerError()
					RecordHTTPRequest("leaderboard", "GET", "200")
					RecordHTTPRequestDuration("leaderboard", "GET", "200", 1)
					RecordErrorByComponent("queue", "queue_full")
					RecordErrorByEndpoint("rank", "GET", "not_found")
				}, ShouldNotPanic)
			})
		})

		Convey("When scraping the handler", func() {
			RecordHTTPRequest("healthz", "GET", "200")
			rec := httptest.NewRecorder()
			Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

			Convey("Then the exposition contains our namespace", func() {
				So(rec.Code, ShouldEqual, 200)
				So(strings.Contains(rec.Body.String(), "scoreline_leaderboard_http_requests_total"), ShouldBeTrue)
				So(GetRegistry(), ShouldNotBeNil)
			})
		})
	})
}
