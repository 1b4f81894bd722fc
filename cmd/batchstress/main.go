// Command batchstress drives concurrent producers against a batch pool for a
// number of frames and reports pool, cache and command statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/builder"
	"github.com/gogpu/batchpool/cmdlist"
	"github.com/gogpu/batchpool/frame"
	"github.com/gogpu/batchpool/internal/parallel"
	"github.com/gogpu/batchpool/pool"
	"github.com/gogpu/batchpool/resource"
	"github.com/gogpu/batchpool/shader"
	"github.com/gogpu/batchpool/stage"
	"github.com/gogpu/gputypes"
)

const (
	effectMesh batch.EffectID = 1
	effectCull batch.EffectID = 2

	styleLit batch.StyleBits = 1 << 0
)

const meshWGSL = `
struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) texcoord: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.clip = vec4<f32>(position, 1.0);
    out.uv = texcoord;
    return out;
}
`

const cullWGSL = `
@compute @workgroup_size(64)
fn cs_main(@builtin(global_invocation_id) id: vec3<u32>) {
}
`

func main() {
	var (
		frames    = flag.Int("frames", 120, "frames to run")
		producers = flag.Int("producers", 8, "concurrent producer systems")
		batches   = flag.Int("batches", 512, "batches per producer per frame")
		unique    = flag.Int("unique", 2048, "distinct batch contents")
		fif       = flag.Int("fif", pool.DefaultFramesInFlight, "frames in flight (1-3)")
		workers   = flag.Int("workers", 0, "resolve workers (0 = GOMAXPROCS)")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	batchpool.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*frames, *producers, *batches, *unique, *fif, *workers); err != nil {
		log.Fatalf("batchstress: %v", err)
	}
}

func run(frames, producers, perProducer, unique, fif, workers int) error {
	p, err := pool.New(pool.WithFramesInFlight(fif))
	if err != nil {
		return err
	}

	lib := shader.NewLibrary()
	if err := lib.Register(effectMesh,
		shader.Variant{Name: "mesh", Topology: shader.TopologyTriangle, Source: meshWGSL},
		shader.Variant{Name: "mesh-lit", Requires: styleLit, Topology: shader.TopologyTriangle, Source: meshWGSL},
	); err != nil {
		return err
	}
	if err := lib.Register(effectCull, shader.Variant{Name: "cull", Source: cullWGSL}); err != nil {
		return err
	}

	wp := parallel.NewWorkerPool(workers)
	defer wp.Close()

	st := stage.NewStage(stage.Config{Name: "main", Style: styleLit, Lookup: lib, Workers: wp})
	defer st.Close()

	contents := newContents(unique)

	var commands int
	d := frame.NewDriver(p,
		frame.WithStages(st),
		frame.WithSubmit(func(_ context.Context, _ frame.Frame, stages []*stage.Stage) error {
			enc := cmdlist.NewEncoder()
			for _, s := range stages {
				if err := enc.RecordStage(s.Name(), s.Batches()); err != nil {
					return err
				}
			}
			list, err := enc.Finish()
			if err != nil {
				return err
			}
			commands += list.Len()
			return nil
		}),
	)

	systems := make([]frame.System, producers)
	for i := range systems {
		systems[i] = producer(st, contents, pool.OwnerID(i+1), perProducer)
	}

	ctx := context.Background()
	start := time.Now()
	for range frames {
		if _, err := d.RunFrame(ctx, systems...); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	s := p.Stats()
	cs := lib.CacheStats()
	fmt.Printf("frames:       %d in %v (%v/frame)\n", frames, elapsed, elapsed/time.Duration(max(frames, 1)))
	fmt.Printf("pool:         %d pages, %d live, %d pending, %d reclaimed\n", s.Pages, s.Live, s.Pending, s.Reclaimed)
	fmt.Printf("dedup:        %d inserts, %d hits (%.1f%%), %d resurrected\n",
		s.Inserts, s.DedupHits, 100*s.DedupRate(), s.Resurrected)
	fmt.Printf("shader cache: %d entries, %.1f%% hits\n", cs.Len, 100*cs.HitRate())
	fmt.Printf("commands:     %d\n", commands)
	return nil
}

// contents is a fixed set of batch descriptions producers pick from.
type contents struct {
	vertices []resource.BufferView
	uvs      []resource.BufferView
	args     []resource.BufferView
}

func newContents(n int) *contents {
	c := &contents{}
	for i := range max(n, 1) {
		c.vertices = append(c.vertices, view(fmt.Sprintf("pos%d", i), 36))
		c.uvs = append(c.uvs, view(fmt.Sprintf("uv%d", i), 24))
		c.args = append(c.args, view(fmt.Sprintf("args%d", i), 16))
	}
	return c
}

func view(label string, size uint64) resource.BufferView {
	return resource.WholeBuffer(resource.NewBuffer(nil, nil, &resource.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageStorage,
	}))
}

func producer(st *stage.Stage, c *contents, owner pool.OwnerID, n int) frame.System {
	return func(ctx context.Context, f frame.Frame) error {
		rng := rand.New(rand.NewPCG(uint64(owner), f.Number))
		for i := range n {
			if i%64 == 0 && ctx.Err() != nil {
				return ctx.Err()
			}
			k := rng.IntN(len(c.vertices))
			var h pool.Handle
			if k%4 == 0 {
				h = builder.Compute().
					Effect(effectCull).
					Groups(uint32(k/4+1), 1, 1).
					Buffer("args", c.args[k]).
					Build(f.Pool, builder.LifetimeFrame, owner)
			} else {
				h = builder.Raster().
					Effect(effectMesh).
					Stream(batch.Position, c.vertices[k]).
					Stream(batch.TexCoord, c.uvs[k]).
					Draw(3, 0).
					Build(f.Pool, builder.LifetimeFrame, owner)
			}
			st.Add(h)
		}
		return nil
	}
}
