package peer

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the counters this package exposes about
// session lifecycle and traffic.
type Metrics struct {
	sessionsStarted   prometheus.Counter
	sessionsTornDown  prometheus.Counter
	messagesSent      prometheus.Counter
	messagesReceived  prometheus.Counter
	messagesDropped   *prometheus.CounterVec // label: reason
	connectionState   *prometheus.CounterVec // label: state
	candidatesGathered *prometheus.CounterVec // label: type (host/srflx/relay)
}

// NewMetrics registers this package's collectors against reg. Passing
// prometheus.NewRegistry() (or any fresh Registerer) keeps tests and
// multiple sessions from colliding on global registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sscchat",
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Number of sessions started via a handshake-start operation.",
		}),
		sessionsTornDown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sscchat",
			Subsystem: "session",
			Name:      "torn_down_total",
			Help:      "Number of sessions torn down (disconnect, close, or grace timeout).",
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sscchat",
			Subsystem: "message",
			Name:      "sent_total",
			Help:      "Number of plaintext messages successfully sealed and sent.",
		}),
		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sscchat",
			Subsystem: "message",
			Name:      "received_total",
			Help:      "Number of ciphertexts successfully opened and delivered.",
		}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sscchat",
			Subsystem: "message",
			Name:      "dropped_total",
			Help:      "Number of data-channel payloads dropped, by reason.",
		}, []string{"reason"}),
		connectionState: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sscchat",
			Subsystem: "connection",
			Name:      "state_transitions_total",
			Help:      "Number of PeerConnection state transitions observed, by state.",
		}, []string{"state"}),
		candidatesGathered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sscchat",
			Subsystem: "ice",
			Name:      "candidates_gathered_total",
			Help:      "Number of local ICE candidates gathered, by type.",
		}, []string{"type"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.sessionsStarted,
			m.sessionsTornDown,
			m.messagesSent,
			m.messagesReceived,
			m.messagesDropped,
			m.connectionState,
			m.candidatesGathered,
		)
	}
	return m
}

func (m *Metrics) sessionStarted() {
	if m != nil {
		m.sessionsStarted.Inc()
	}
}

func (m *Metrics) sessionTornDown() {
	if m != nil {
		m.sessionsTornDown.Inc()
	}
}

func (m *Metrics) messageSent() {
	if m != nil {
		m.messagesSent.Inc()
	}
}

func (m *Metrics) messageReceived() {
	if m != nil {
		m.messagesReceived.Inc()
	}
}

func (m *Metrics) messageDropped(reason string) {
	if m != nil {
		m.messagesDropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) stateTransition(state string) {
	if m != nil {
		m.connectionState.WithLabelValues(state).Inc()
	}
}

func (m *Metrics) candidateGathered(kind string) {
	if m != nil {
		m.candidatesGathered.WithLabelValues(kind).Inc()
	}
}
