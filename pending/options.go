package pending

import "go.uber.org/zap"

// Option configures a Transaction at construction.
type Option func(*Transaction)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(log *zap.Logger) Option {
	return func(p *Transaction) {
		if log != nil {
			p.log = log
		}
	}
}

// WithMetrics records lifecycle events in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Transaction) {
		p.metrics = m
	}
}

// WithAllowHighFees lets the transport accept a fee above its own limit.
func WithAllowHighFees() Option {
	return func(p *Transaction) {
		p.allowHighFees = true
	}
}
