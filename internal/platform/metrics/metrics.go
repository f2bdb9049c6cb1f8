package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grader_case_duration_seconds",
		Help:    "Wall time of a single test case execution.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
	}, []string{"language"})

	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grader_submissions_total",
		Help: "Graded run and submit requests by final status.",
	}, []string{"mode", "status"})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grader_notifications_total",
		Help: "Solve notification emails by result.",
	}, []string{"result"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
