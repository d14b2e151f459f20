// Package metrics collects per-run conversion metrics and writes them as a
// Prometheus node-exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "obj2nav2"

// Recorder holds the metrics of one conversion run on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	chunks          prometheus.Gauge
	populatedChunks prometheus.Gauge
	faces           prometheus.Gauge
	navworldNodes   prometheus.Gauge
	navworldEdges   prometheus.Gauge
	zeroCostNodes   prometheus.Gauge
	navmeshFaces    prometheus.Gauge
	navmeshVertices prometheus.Gauge
	graphEdges      prometheus.Gauge
	outputBytes     prometheus.Gauge

	stageDuration *prometheus.HistogramVec
}

// New creates a recorder with every metric registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	return &Recorder{
		registry:        reg,
		chunks:          gauge("chunks", "Number of chunks in the partition grid."),
		populatedChunks: gauge("populated_chunks", "Number of chunks holding navworld nodes."),
		faces:           gauge("faces", "Number of triangles after partitioning."),
		navworldNodes:   gauge("navworld_nodes", "Number of navworld nodes."),
		navworldEdges:   gauge("navworld_edges", "Number of navworld edges."),
		zeroCostNodes:   gauge("navworld_zero_cost_nodes", "Number of navworld nodes carrying a zero-cost alias."),
		navmeshFaces:    gauge("navmesh_faces", "Number of navmesh faces."),
		navmeshVertices: gauge("navmesh_vertices", "Number of navmesh vertices."),
		graphEdges:      gauge("segment_graph_edges", "Number of segment graph edges."),
		outputBytes:     gauge("output_bytes", "Size of the encoded Nav2 file in bytes."),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each conversion stage in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
	}
}

// Registry returns the registry holding the run's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStage records how long a stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetPartition records the partition grid size and the triangle count.
func (r *Recorder) SetPartition(chunks, faces int) {
	r.chunks.Set(float64(chunks))
	r.faces.Set(float64(faces))
}

// SetNavworld records navworld graph sizes.
func (r *Recorder) SetNavworld(nodes, edges, zeroCost int) {
	r.navworldNodes.Set(float64(nodes))
	r.navworldEdges.Set(float64(edges))
	r.zeroCostNodes.Set(float64(zeroCost))
}

// SetNavmesh records navmesh sizes.
func (r *Recorder) SetNavmesh(faces, vertices int) {
	r.navmeshFaces.Set(float64(faces))
	r.navmeshVertices.Set(float64(vertices))
}

// SetSegmentGraph records the coarse graph sizes.
func (r *Recorder) SetSegmentGraph(chunks, edges int) {
	r.populatedChunks.Set(float64(chunks))
	r.graphEdges.Set(float64(edges))
}

// SetOutputBytes records the encoded file size.
func (r *Recorder) SetOutputBytes(n int) {
	r.outputBytes.Set(float64(n))
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
