// Package metrics exposes search statistics as prometheus collectors.
package metrics

import (
	"bytemc/choice"
	"bytemc/heap"
	"bytemc/thread"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bytemc"

// Collects statistics of one search.
// Register it as heap listener, scheduler observer and kernel observer.
type Metrics struct {
	gcCycles         prometheus.Counter
	objectsAllocated prometheus.Counter
	objectsReleased  prometheus.Counter
	liveObjects      prometheus.Gauge
	choiceGenerators *prometheus.CounterVec
	mementos         prometheus.Counter
	restores         prometheus.Counter
}

// Create the collectors and register them with reg.
// A nil reg creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gcCycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gc_cycles_total",
			Help:      "Completed garbage collections of the simulated heap",
		}),
		objectsAllocated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_allocated_total",
			Help:      "Objects allocated on the simulated heap",
		}),
		objectsReleased: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_released_total",
			Help:      "Objects released by the garbage collector",
		}),
		liveObjects: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_objects",
			Help:      "Objects on the simulated heap after the last allocation or collection",
		}),
		// Labels: kind (thread or none), decision (the id of the scheduling decision)
		choiceGenerators: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "choice_generators_total",
			Help:      "Scheduling decisions by outcome",
		}, []string{"kind", "decision"}),
		mementos: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mementos_total",
			Help:      "Snapshots of the kernel state",
		}),
		restores: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restores_total",
			Help:      "Restores of the kernel state",
		}),
	}
}

func (m *Metrics) ObjectCreated(ti *thread.ThreadInfo, ei *heap.ElementInfo) {
	m.objectsAllocated.Inc()
	m.liveObjects.Inc()
}

func (m *Metrics) ObjectReleased(ei *heap.ElementInfo) {
	m.objectsReleased.Inc()
	m.liveObjects.Dec()
}

func (m *Metrics) GCBegin() {}

func (m *Metrics) GCEnd() {
	m.gcCycles.Inc()
}

// Count a scheduling decision. Decisions that created no choice generator are counted with kind "none"
func (m *Metrics) ObserveDecision(id string, cg choice.ChoiceGenerator) {
	kind := "none"
	if cg != nil {
		kind = string(cg.Kind())
	}
	m.choiceGenerators.WithLabelValues(kind, id).Inc()
}

func (m *Metrics) MementoCreated() {
	m.mementos.Inc()
}

func (m *Metrics) MementoRestored() {
	m.restores.Inc()
}

// Set the live object gauge, e.g. after a restore
func (m *Metrics) SetLiveObjects(n int) {
	m.liveObjects.Set(float64(n))
}
