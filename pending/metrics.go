package pending

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts pending transaction lifecycle events. A nil *Metrics records
// nothing.
type Metrics struct {
	signed         prometheus.Counter
	commits        prometheus.Counter
	doubleCommits  prometheus.Counter
	submitted      prometheus.Counter
	submitFailures prometheus.Counter
}

// NewMetrics creates the counters under namespace and registers them.
func NewMetrics(namespace string, registerer prometheus.Registerer) (*Metrics, error) {
	newCounter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pending",
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		signed:         newCounter("signed", "Number of payload replacements from signing"),
		commits:        newCounter("commits", "Number of transactions committed"),
		doubleCommits:  newCounter("double_commits", "Number of rejected repeated commits"),
		submitted:      newCounter("submitted", "Number of transactions accepted by the transport"),
		submitFailures: newCounter("submit_failures", "Number of transactions rejected by the transport"),
	}
	for _, c := range []prometheus.Collector{m.signed, m.commits, m.doubleCommits, m.submitted, m.submitFailures} {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("pending: register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observeSigned() {
	if m != nil {
		m.signed.Inc()
	}
}

func (m *Metrics) observeCommit() {
	if m != nil {
		m.commits.Inc()
	}
}

func (m *Metrics) observeDoubleCommit() {
	if m != nil {
		m.doubleCommits.Inc()
	}
}

func (m *Metrics) observeSubmitted() {
	if m != nil {
		m.submitted.Inc()
	}
}

func (m *Metrics) observeSubmitFailure() {
	if m != nil {
		m.submitFailures.Inc()
	}
}
