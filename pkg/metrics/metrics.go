// Package metrics provides Prometheus-based metrics recording for the
// decision-tree engine and bot dispatcher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder counts engine operations. A nil *Recorder is a no-op, so library
// code never has to branch on whether metrics are wired.
type Recorder struct {
	nodeRenders    *prometheus.CounterVec
	advances       prometheus.Counter
	backs          prometheus.Counter
	recoveries     prometheus.Counter
	contentDefects *prometheus.CounterVec
	callbacksTotal *prometheus.CounterVec
}

// NewRecorder registers the faultbot metric set on reg. Pass
// prometheus.DefaultRegisterer in production; tests pass a fresh registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		nodeRenders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faultbot_node_renders_total",
				Help: "Decision-tree nodes rendered, by pack",
			},
			[]string{"pack"},
		),
		advances: factory.NewCounter(prometheus.CounterOpts{
			Name: "faultbot_advances_total",
			Help: "Forward option selections processed",
		}),
		backs: factory.NewCounter(prometheus.CounterOpts{
			Name: "faultbot_back_navigations_total",
			Help: "Backward navigations processed",
		}),
		recoveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "faultbot_state_recoveries_total",
			Help: "Sessions recovered from message-bound state",
		}),
		contentDefects: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faultbot_content_defects_total",
				Help: "Authoring defects surfaced as in-chat warnings, by kind",
			},
			[]string{"kind"},
		),
		callbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faultbot_callbacks_total",
				Help: "Callback actions dispatched, by action kind",
			},
			[]string{"action"},
		),
	}
}

func (r *Recorder) NodeRender(pack string) {
	if r == nil {
		return
	}
	r.nodeRenders.WithLabelValues(pack).Inc()
}

func (r *Recorder) Advance() {
	if r == nil {
		return
	}
	r.advances.Inc()
}

func (r *Recorder) Back() {
	if r == nil {
		return
	}
	r.backs.Inc()
}

func (r *Recorder) Recovery() {
	if r == nil {
		return
	}
	r.recoveries.Inc()
}

func (r *Recorder) ContentDefect(kind string) {
	if r == nil {
		return
	}
	r.contentDefects.WithLabelValues(kind).Inc()
}

func (r *Recorder) Callback(action string) {
	if r == nil {
		return
	}
	r.callbacksTotal.WithLabelValues(action).Inc()
}
