package analyzer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalscout_analyses_total",
		Help: "Match analyses by result (ok, invalid, failed)",
	}, []string{"result"})
	screenRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goalscout_screen_runs_total",
		Help: "Completed screening passes",
	})
	screenedFixtures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goalscout_screened_fixtures_total",
		Help: "Upcoming fixtures scored by the screener",
	})
	alertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalscout_alerts_sent_total",
		Help: "Notifications sent by kind (value, shortlist)",
	}, []string{"kind"})
)
