package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/nav2conv/internal/config"
	"github.com/Faultbox/nav2conv/pkg/formats"
	"github.com/Faultbox/nav2conv/pkg/math"
	"github.com/Faultbox/nav2conv/pkg/mesh"
	"github.com/Faultbox/nav2conv/pkg/nav2"
)

const quadOBJ = `# unit quad
v 0 0 0
v 1 0 0
v 1 0 1
v 0 0 1
f 1 2 3 4
`

const straddlingOBJ = `v 0 0 0
v 2 0 0
v 0 0 2
f 1 2 3
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// gridOBJ returns an OBJ of a flat (n x n)-quad grid.
func gridOBJ(n int) string {
	var b strings.Builder
	for z := 0; z <= n; z++ {
		for x := 0; x <= n; x++ {
			fmt.Fprintf(&b, "v %d 0 %d\n", x, z)
		}
	}
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			i := z*(n+1) + x + 1
			fmt.Fprintf(&b, "f %d %d %d %d\n", i, i+1, i+n+2, i+n+1)
		}
	}
	return b.String()
}

func testConfig(dir string, width, height int) *config.Config {
	cfg := config.Default()
	cfg.Grid.Width = width
	cfg.Grid.Height = height
	cfg.Output.Path = filepath.Join(dir, "out", "map.nav2")
	return cfg
}

func TestConvertFileQuad(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "quad.obj", quadOBJ)

	cfg := testConfig(dir, 1, 1)
	cfg.Output.GroupID = 3
	cfg.Metrics.File = filepath.Join(dir, "obj2nav2.prom")

	res, err := New(cfg, nil).ConvertFile(context.Background(), input)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.Faces)
	// Four perimeter midpoints plus the midpoint of the shared diagonal
	// (1,3), which is an edge of both triangles.
	assert.Equal(t, 5, res.NavworldNodes)
	assert.Equal(t, 6, res.NavworldEdges)
	assert.Zero(t, res.ZeroCostNodes)
	assert.Equal(t, 1, res.GraphChunks)
	assert.Zero(t, res.GraphEdges)

	data, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Len(t, data, res.Bytes)

	hdr, err := nav2.ParseHeader(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(data)), hdr.FileSize)
	assert.Equal(t, uint32(4), hdr.EntryCount)
	assert.NotZero(t, hdr.NavSystemOffset)

	manifest, err := nav2.ParseManifest(data, hdr)
	require.NoError(t, err)
	require.Len(t, manifest, 3)
	for _, e := range manifest {
		assert.Equal(t, uint8(3), e.Group, "%s", e.EntryType())
	}

	prom, err := os.ReadFile(cfg.Metrics.File)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "obj2nav2_navworld_nodes 5")
	assert.Contains(t, string(prom), fmt.Sprintf("obj2nav2_output_bytes %d", len(data)))
}

func TestConvertDeterministic(t *testing.T) {
	m, err := formats.ParseOBJ(strings.NewReader(gridOBJ(6)))
	require.NoError(t, err)

	c := New(testConfig(t.TempDir(), 3, 3), nil)
	first, res1, err := c.Encode(context.Background(), m)
	require.NoError(t, err)
	second, res2, err := c.Encode(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, res1.RunID, res2.RunID)
	assert.Positive(t, res1.ZeroCostNodes, "chunk borders share midpoints")
}

func TestEncodeMeshWithoutStoredExtent(t *testing.T) {
	m := mesh.New()
	a := m.AddVertex(math.Vec3{X: 10, Y: 0, Z: 10})
	b := m.AddVertex(math.Vec3{X: 12, Y: 0, Z: 10})
	c := m.AddVertex(math.Vec3{X: 10, Y: 0, Z: 12})
	m.AddFace(mesh.Face{a, b, c})

	conv := New(testConfig(t.TempDir(), 1, 1), nil)
	data, res, err := conv.Encode(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Faces)
	assert.Equal(t, math.Vec3{X: 10, Y: 0, Z: 10}, res.Container.Quantizer.Origin)

	m.UpdateExtent()
	want, _, err := conv.Encode(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, want, data)
}

func TestEncodeRejectsGroupOutOfRange(t *testing.T) {
	m, err := formats.ParseOBJ(strings.NewReader(quadOBJ))
	require.NoError(t, err)

	for _, group := range []int{-1, 256} {
		cfg := testConfig(t.TempDir(), 1, 1)
		cfg.Output.GroupID = group
		_, _, err := New(cfg, nil).Encode(context.Background(), m)
		assert.ErrorIs(t, err, config.ErrInvalidConfig, "group %d", group)
	}
}

func TestConvertStageErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.obj", "v 0 0\n")

	_, err := New(testConfig(dir, 1, 1), nil).ConvertFile(context.Background(), bad)
	require.ErrorIs(t, err, formats.ErrMalformedVertex)
	assert.True(t, strings.HasPrefix(err.Error(), StageLoad), err.Error())

	_, err = New(testConfig(dir, 1, 1), nil).ConvertFile(context.Background(), filepath.Join(dir, "missing.obj"))
	require.ErrorIs(t, err, os.ErrNotExist)

	m, err := formats.ParseOBJ(strings.NewReader(quadOBJ))
	require.NoError(t, err)
	_, err = New(testConfig(dir, 0, 1), nil).Convert(context.Background(), m)
	require.ErrorIs(t, err, mesh.ErrInvalidGrid)
	assert.True(t, strings.HasPrefix(err.Error(), StageSplit), err.Error())
}

func TestConvertCapacityLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, 1, 1)

	// 441 vertices in one chunk cannot be indexed by a byte.
	m, err := formats.ParseOBJ(strings.NewReader(gridOBJ(20)))
	require.NoError(t, err)

	_, err = New(cfg, nil).Convert(context.Background(), m)
	require.ErrorIs(t, err, nav2.ErrCapacity)
	assert.True(t, strings.HasPrefix(err.Error(), StageEncode), err.Error())

	_, statErr := os.Stat(cfg.Output.Path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestConvertCancelled(t *testing.T) {
	m, err := formats.ParseOBJ(strings.NewReader(quadOBJ))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = New(testConfig(t.TempDir(), 1, 1), nil).Convert(ctx, m)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitDumps(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "tri.obj", straddlingOBJ)

	cfg := testConfig(dir, 2, 1)
	cfg.Debug.DumpChunks = filepath.Join(dir, "chunks")

	grid, err := New(cfg, nil).Split(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, 2, grid.Len())

	var area float64
	for x := 0; x < 2; x++ {
		m, err := formats.ParseOBJFile(filepath.Join(cfg.Debug.DumpChunks, DumpName(x, 0, false)))
		require.NoError(t, err)
		assert.Len(t, m.Faces, len(grid.At(x, 0).Faces))
		area += m.Area()
	}
	assert.InDelta(t, 2.0, area, 1e-9)

	_, err = os.Stat(cfg.Output.Path)
	assert.ErrorIs(t, err, os.ErrNotExist, "split does not write Nav2 output")
}

func TestSplitCompressedDumps(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "quad.obj", quadOBJ)

	cfg := testConfig(dir, 1, 1)
	cfg.Debug.DumpChunks = filepath.Join(dir, "chunks")
	cfg.Debug.CompressDumps = true

	_, err := New(cfg, nil).Split(context.Background(), input)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(cfg.Debug.DumpChunks, "chunk_0_0.obj.zst"))
	require.NoError(t, err)
	defer f.Close()

	dec, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer dec.Close()

	m, err := formats.ParseOBJ(dec)
	require.NoError(t, err)
	assert.Len(t, m.Vertices, 4)
	assert.Len(t, m.Faces, 2)
}

func TestSplitRequiresDumpDir(t *testing.T) {
	_, err := New(testConfig(t.TempDir(), 1, 1), nil).Split(context.Background(), "unused.obj")
	assert.ErrorIs(t, err, ErrNoDumpDir)
}
