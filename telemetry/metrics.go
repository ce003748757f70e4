package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

type loginCounter struct {
	started   prometheus.Counter
	completed prometheus.Counter
}

type dkgCounter struct {
	requested prometheus.Counter
	completed prometheus.Counter
	rejected  prometheus.Counter
}

type signatureCounter struct {
	requested prometheus.Counter
	completed prometheus.Counter
	failed    prometheus.Counter
}

// CoordinatorMetrics bundles every counter the coordinator touches.
type CoordinatorMetrics struct {
	logins        *loginCounter
	dkgs          *dkgCounter
	signatures    *signatureCounter
	droppedEvents prometheus.Counter
}

func NewCoordinatorMetrics() *CoordinatorMetrics {
	m := &CoordinatorMetrics{
		logins: &loginCounter{
			started: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "login_challenges_issued",
				Help: "Login challenges handed out",
			}),
			completed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "logins_completed",
				Help: "Sessions created from answered challenges",
			}),
		},
		dkgs: &dkgCounter{
			requested: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "dkg_requests",
				Help: "DKG requests accepted",
			}),
			completed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "dkg_completed",
				Help: "DKGs that delivered all round 2 secrets",
			}),
			rejected: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "dkg_rejected",
				Help: "DKGs removed by participant rejection",
			}),
		},
		signatures: &signatureCounter{
			requested: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "signature_requests",
				Help: "Signature coordinations started",
			}),
			completed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "signatures_completed",
				Help: "Signature coordinations resolved with aggregates",
			}),
			failed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "signatures_failed",
				Help: "Signature coordinations aborted by the progress rule",
			}),
		},
		droppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "session_events_dropped",
			Help: "Events shed from paused session buffers at capacity",
		}),
	}
	for _, collector := range []prometheus.Collector{
		m.logins.started, m.logins.completed,
		m.dkgs.requested, m.dkgs.completed, m.dkgs.rejected,
		m.signatures.requested, m.signatures.completed, m.signatures.failed,
		m.droppedEvents,
	} {
		_ = prometheus.Register(collector)
	}
	return m
}

func (m *CoordinatorMetrics) CountLoginStarted() { m.logins.started.Inc() }
func (m *CoordinatorMetrics) CountLogin()        { m.logins.completed.Inc() }
func (m *CoordinatorMetrics) CountDkgRequested() { m.dkgs.requested.Inc() }
func (m *CoordinatorMetrics) CountDkgCompleted() { m.dkgs.completed.Inc() }
func (m *CoordinatorMetrics) CountDkgRejected()  { m.dkgs.rejected.Inc() }
func (m *CoordinatorMetrics) CountSigRequested() { m.signatures.requested.Inc() }
func (m *CoordinatorMetrics) CountSigCompleted() { m.signatures.completed.Inc() }
func (m *CoordinatorMetrics) CountSigFailed()    { m.signatures.failed.Inc() }
func (m *CoordinatorMetrics) CountDroppedEvent() { m.droppedEvents.Inc() }
