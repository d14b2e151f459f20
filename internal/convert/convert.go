// Package convert runs the OBJ to Nav2 conversion pipeline: load, partition,
// build every navigation entry, encode and write.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	stdmath "math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/nav2conv/internal/config"
	"github.com/Faultbox/nav2conv/internal/metrics"
	"github.com/Faultbox/nav2conv/pkg/formats"
	"github.com/Faultbox/nav2conv/pkg/mesh"
	"github.com/Faultbox/nav2conv/pkg/nav2"
)

// Stage names. Errors are wrapped with the name of the stage that failed.
const (
	StageLoad          = "loading mesh"
	StageSplit         = "partitioning"
	StageDump          = "dumping chunks"
	StageNavmesh       = "building navmesh"
	StageSegmentChunks = "building segment chunks"
	StageNavworld      = "building navworld"
	StageSegmentGraph  = "building segment graph"
	StageEncode        = "encoding"
	StageWrite         = "writing output"
	StageMetrics       = "writing metrics"
)

// ErrNoDumpDir is returned by Split when no dump directory is configured.
var ErrNoDumpDir = errors.New("no chunk dump directory configured")

// Result summarises a finished conversion.
type Result struct {
	RunID  string
	Output string

	Grid      *mesh.Grid
	Container *nav2.Container

	Faces         int
	NavworldNodes int
	NavworldEdges int
	ZeroCostNodes int
	GraphChunks   int
	GraphEdges    int
	Bytes         int
	Duration      time.Duration
}

// Converter runs conversions with a fixed configuration.
type Converter struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Recorder
}

// New creates a converter. A nil logger disables logging.
func New(cfg *config.Config, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
	}
}

// Metrics returns the recorder shared by every run of the converter.
func (c *Converter) Metrics() *metrics.Recorder {
	return c.metrics
}

// run carries the per-conversion state.
type run struct {
	*Converter
	id  string
	log *zap.Logger
}

func (c *Converter) newRun() *run {
	id := uuid.NewString()
	return &run{Converter: c, id: id, log: c.log.With(zap.String("run_id", id))}
}

// stage runs fn as a named pipeline stage: it checks for cancellation, times
// the stage and wraps any error with the stage name.
func (r *run) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	r.metrics.ObserveStage(name, elapsed)

	if err != nil {
		r.log.Error("stage failed", zap.String("stage", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	r.log.Debug("stage done", zap.String("stage", name), zap.Duration("elapsed", elapsed))
	return nil
}

// ConvertFile converts the OBJ file at input and writes the Nav2 file to the
// configured output path.
func (c *Converter) ConvertFile(ctx context.Context, input string) (*Result, error) {
	r := c.newRun()
	r.log.Info("converting", zap.String("input", input), zap.String("output", c.cfg.Output.Path),
		zap.Int("grid_width", c.cfg.Grid.Width), zap.Int("grid_height", c.cfg.Grid.Height))

	var m *mesh.Mesh
	err := r.stage(ctx, StageLoad, func() error {
		var err error
		m, err = formats.ParseOBJFile(input)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("mesh loaded", zap.Int("vertices", len(m.Vertices)), zap.Int("faces", len(m.Faces)))

	return r.convert(ctx, m)
}

// Convert converts an in-memory mesh and writes the Nav2 file to the
// configured output path.
func (c *Converter) Convert(ctx context.Context, m *mesh.Mesh) (*Result, error) {
	return c.newRun().convert(ctx, m)
}

func (r *run) convert(ctx context.Context, m *mesh.Mesh) (*Result, error) {
	start := time.Now()

	res, err := r.build(ctx, m)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = r.stage(ctx, StageEncode, func() error {
		var err error
		data, err = res.Container.Encode()
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Bytes = len(data)
	r.metrics.SetOutputBytes(res.Bytes)

	res.Output = r.cfg.Output.Path
	err = r.stage(ctx, StageWrite, func() error {
		if dir := filepath.Dir(res.Output); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
		return os.WriteFile(res.Output, data, 0644)
	})
	if err != nil {
		return nil, err
	}

	if r.cfg.Metrics.File != "" {
		if err := r.stage(ctx, StageMetrics, func() error {
			return r.metrics.WriteTextfile(r.cfg.Metrics.File)
		}); err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	r.log.Info("conversion complete",
		zap.String("output", res.Output),
		zap.Int("bytes", res.Bytes),
		zap.Int("chunks", res.Grid.Len()),
		zap.Int("navworld_nodes", res.NavworldNodes),
		zap.Int("navworld_edges", res.NavworldEdges),
		zap.Int("segment_graph_chunks", res.GraphChunks),
		zap.Duration("elapsed", res.Duration))
	return res, nil
}

// build partitions m and derives every entry in write order.
func (r *run) build(ctx context.Context, m *mesh.Mesh) (*Result, error) {
	res := &Result{RunID: r.id}
	if g := r.cfg.Output.GroupID; g < 0 || g > stdmath.MaxUint8 {
		return nil, fmt.Errorf("%w: group_id %d out of range 0-255", config.ErrInvalidConfig, g)
	}
	group := uint8(r.cfg.Output.GroupID)

	grid, err := r.split(ctx, m)
	if err != nil {
		return nil, err
	}
	res.Grid = grid
	for _, chunk := range grid.Chunks() {
		res.Faces += len(chunk.Faces)
	}
	r.metrics.SetPartition(grid.Len(), res.Faces)

	q := nav2.NewQuantizer(grid.Source)
	r.log.Debug("quantizer", zap.Stringer("scale", q.Scale))

	var navmesh *nav2.Navmesh
	if err := r.stage(ctx, StageNavmesh, func() (err error) {
		navmesh, err = nav2.BuildNavmesh(grid, q)
		return err
	}); err != nil {
		return nil, err
	}
	navmesh.Group = group
	r.metrics.SetNavmesh(len(navmesh.Faces), len(navmesh.Vertices))

	var chunks *nav2.SegmentChunks
	if err := r.stage(ctx, StageSegmentChunks, func() (err error) {
		chunks, err = nav2.BuildSegmentChunks(grid, q)
		return err
	}); err != nil {
		return nil, err
	}
	chunks.Group = group

	var navworld *nav2.Navworld
	if err := r.stage(ctx, StageNavworld, func() (err error) {
		navworld, err = nav2.BuildNavworld(grid, q)
		return err
	}); err != nil {
		return nil, err
	}
	navworld.Group = group
	res.NavworldNodes = len(navworld.Nodes)
	res.NavworldEdges = len(navworld.Edges())
	for i := range navworld.Nodes {
		if navworld.Nodes[i].HasZeroCost() {
			res.ZeroCostNodes++
		}
	}
	r.metrics.SetNavworld(res.NavworldNodes, res.NavworldEdges, res.ZeroCostNodes)

	var graph *nav2.SegmentGraph
	if err := r.stage(ctx, StageSegmentGraph, func() (err error) {
		graph, err = nav2.BuildSegmentGraph(navworld, grid)
		return err
	}); err != nil {
		return nil, err
	}
	graph.Group = group
	res.GraphChunks = len(graph.Chunks)
	res.GraphEdges = graph.TotalEdges
	r.metrics.SetSegmentGraph(res.GraphChunks, res.GraphEdges)

	res.Container = nav2.NewContainer(q)
	res.Container.Add(navmesh, chunks, navworld, graph)
	if len(graph.Chunks) > 0 {
		res.Container.NavSystem = nav2.NewNavSystem(q, graph)
	}

	r.log.Info("entries built",
		zap.Int("faces", res.Faces),
		zap.Int("navmesh_vertices", len(navmesh.Vertices)),
		zap.Int("navworld_nodes", res.NavworldNodes),
		zap.Int("zero_cost_nodes", res.ZeroCostNodes),
		zap.Int("segment_graph_edges", res.GraphEdges))
	return res, nil
}

// split partitions m and dumps the chunks when a dump directory is set.
func (r *run) split(ctx context.Context, m *mesh.Mesh) (*mesh.Grid, error) {
	var grid *mesh.Grid
	err := r.stage(ctx, StageSplit, func() error {
		var err error
		grid, err = mesh.Split(m, r.cfg.Grid.Width, r.cfg.Grid.Height)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("mesh partitioned", zap.Int("width", grid.Width), zap.Int("height", grid.Height))

	if dir := r.cfg.Debug.DumpChunks; dir != "" {
		if err := r.stage(ctx, StageDump, func() error {
			return dumpChunks(grid, dir, r.cfg.Debug.CompressDumps)
		}); err != nil {
			return nil, err
		}
		r.log.Info("chunks dumped", zap.String("dir", dir), zap.Bool("compressed", r.cfg.Debug.CompressDumps))
	}
	return grid, nil
}

// Split partitions the OBJ file at input and dumps every chunk to the
// configured dump directory without building Nav2 entries.
func (c *Converter) Split(ctx context.Context, input string) (*mesh.Grid, error) {
	if c.cfg.Debug.DumpChunks == "" {
		return nil, ErrNoDumpDir
	}

	r := c.newRun()
	var m *mesh.Mesh
	err := r.stage(ctx, StageLoad, func() error {
		var err error
		m, err = formats.ParseOBJFile(input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.split(ctx, m)
}

// Encode builds the container for m and returns its bytes without touching
// the filesystem.
func (c *Converter) Encode(ctx context.Context, m *mesh.Mesh) ([]byte, *Result, error) {
	r := c.newRun()
	res, err := r.build(ctx, m)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := r.stage(ctx, StageEncode, func() error {
		_, err := res.Container.WriteTo(&buf)
		return err
	}); err != nil {
		return nil, nil, err
	}
	res.Bytes = buf.Len()
	return buf.Bytes(), res, nil
}
