package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus exports frame observations as prometheus collectors.
type Prometheus struct {
	frames       prometheus.Counter
	steps        prometheus.Counter
	fullUploads  prometheus.Counter
	trajectories prometheus.Gauge
	tailCapacity prometheus.Gauge
	fps          prometheus.Gauge
	dirtyRanges  prometheus.Histogram
	frameSeconds prometheus.Histogram
}

// NewPrometheus registers the frame collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		frames: f.NewCounter(prometheus.CounterOpts{
			Name: "lorenzsim_frames_total",
			Help: "Total number of frames stepped",
		}),
		steps: f.NewCounter(prometheus.CounterOpts{
			Name: "lorenzsim_integration_steps_total",
			Help: "Total number of RK4 steps across all trajectories",
		}),
		fullUploads: f.NewCounter(prometheus.CounterOpts{
			Name: "lorenzsim_full_uploads_total",
			Help: "Frames that required re-uploading the whole tail buffer",
		}),
		trajectories: f.NewGauge(prometheus.GaugeOpts{
			Name: "lorenzsim_trajectories",
			Help: "Current number of trajectories",
		}),
		tailCapacity: f.NewGauge(prometheus.GaugeOpts{
			Name: "lorenzsim_tail_capacity",
			Help: "Current tail capacity shared by all trajectories",
		}),
		fps: f.NewGauge(prometheus.GaugeOpts{
			Name: "lorenzsim_fps",
			Help: "Frames counted during the last wall-clock second",
		}),
		dirtyRanges: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lorenzsim_dirty_ranges",
			Help:    "Dirty ranges reported per frame",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		frameSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lorenzsim_frame_duration_seconds",
			Help:    "Time spent stepping one frame",
			Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
	}
}

func (p *Prometheus) ObserveFrame(f Frame) {
	p.frames.Inc()
	p.steps.Add(float64(f.Steps))
	if f.Full {
		p.fullUploads.Inc()
	}
	p.trajectories.Set(float64(f.Trajectories))
	p.tailCapacity.Set(float64(f.TailCapacity))
	p.fps.Set(float64(f.FPS))
	p.dirtyRanges.Observe(float64(f.DirtyRanges))
	p.frameSeconds.Observe(f.Duration.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
