package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/internal/cache"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"github.com/zeebo/xxh3"
)

// Library errors.
var (
	// ErrUnknownEffect is returned when resolving an effect that was never
	// registered.
	ErrUnknownEffect = errors.New("shader: unknown effect")

	// ErrNoVariant is returned when no variant of an effect accepts the
	// requested drawstyle bits.
	ErrNoVariant = errors.New("shader: no variant matches drawstyle")

	// ErrCompile is returned when a variant's WGSL source does not compile.
	ErrCompile = errors.New("shader: compile failed")

	// ErrDuplicateEffect is returned when registering an effect twice.
	ErrDuplicateEffect = errors.New("shader: effect already registered")

	// ErrNoVariants is returned when registering an effect without variants.
	ErrNoVariants = errors.New("shader: effect has no variants")
)

// DefaultVertexEntry is the vertex entry point used when a Variant does not
// name one.
const DefaultVertexEntry = "vs_main"

// Variant is one shader variant of an effect.
type Variant struct {
	// Name is a debug name.
	Name string

	// Requires is the set of drawstyle bits that must all be present for
	// this variant to be selected.
	Requires batch.StyleBits

	// Topology is the primitive class the variant's pipeline rasterizes.
	// TopologyNone for compute and ray-tracing variants.
	Topology TopologyClass

	// Source is the WGSL source.
	Source string

	// VertexEntry is the vertex entry point. Defaults to DefaultVertexEntry.
	VertexEntry string
}

// Program is a compiled, reflected variant. It implements Shader.
type Program struct {
	id       ID
	effect   batch.EffectID
	variant  Variant
	spirv    []byte
	codeHash uint64
	refl     *reflection
}

// ID implements Shader.
func (p *Program) ID() ID { return p.id }

// Topology implements Shader.
func (p *Program) Topology() TopologyClass { return p.variant.Topology }

// VertexAttributeSlot implements Shader.
func (p *Program) VertexAttributeSlot(semantic batch.Semantic, index int) (uint32, bool) {
	slot, ok := p.refl.inputs[inputKey{semantic: semantic, index: index}]
	return slot, ok
}

// Effect returns the effect the program belongs to.
func (p *Program) Effect() batch.EffectID { return p.effect }

// Name returns the variant name.
func (p *Program) Name() string { return p.variant.Name }

// Requires returns the drawstyle bits the variant requires.
func (p *Program) Requires() batch.StyleBits { return p.variant.Requires }

// HasVertexStage reports whether the source declares the vertex entry point.
func (p *Program) HasVertexStage() bool { return p.refl.hasVertex }

// SPIRV returns the compiled SPIR-V bytes.
func (p *Program) SPIRV() []byte { return p.spirv }

// CodeHash returns the XXH3 hash of the WGSL source.
func (p *Program) CodeHash() uint64 { return p.codeHash }

// Compiler translates a lowered shader module into backend bytecode.
type Compiler func(m *ir.Module) ([]byte, error)

// CompileSPIRV validates m and generates SPIR-V 1.3 with naga. It is the
// default Compiler.
func CompileSPIRV(m *ir.Module) ([]byte, error) {
	verrs, err := naga.Validate(m)
	if err != nil {
		return nil, err
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("validation failed: %w", verrs[0])
	}
	return naga.GenerateSPIRV(m, spirv.Options{Version: spirv.Version1_3})
}

// Option configures a Library.
type Option func(*libraryOptions)

type libraryOptions struct {
	compiler      Compiler
	cacheCapacity int
	logger        *slog.Logger
}

// WithCompiler replaces CompileSPIRV.
func WithCompiler(c Compiler) Option {
	return func(o *libraryOptions) { o.compiler = c }
}

// WithCacheCapacity sets the per-shard capacity of the resolved-variant cache.
func WithCacheCapacity(n int) Option {
	return func(o *libraryOptions) { o.cacheCapacity = n }
}

// WithLogger sets the logger. Defaults to batchpool.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(o *libraryOptions) { o.logger = l }
}

// Library is a registry of effects and their WGSL variants. It implements
// Lookup.
//
// Register lowers every variant with naga once, compiles it and reflects its
// vertex inputs from the lowered module, so resolution never compiles. Resolved (effect, drawstyle) pairs are
// memoized in a sharded LRU cache.
//
// Thread Safety:
// Library is safe for concurrent use.
type Library struct {
	mu      sync.RWMutex
	effects map[batch.EffectID][]*Program

	resolved *cache.Sharded[variantKey, *Program]
	compile  Compiler
	logger   *slog.Logger
	nextID   atomic.Uint64
}

type variantKey struct {
	effect batch.EffectID
	style  batch.StyleBits
}

func (k variantKey) hash() uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(k.effect))
	binary.LittleEndian.PutUint64(buf[4:], uint64(k.style))
	return xxh3.Hash(buf[:])
}

// NewLibrary creates an empty library.
func NewLibrary(opts ...Option) *Library {
	o := libraryOptions{compiler: CompileSPIRV}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = batchpool.Logger()
	}
	return &Library{
		effects:  make(map[batch.EffectID][]*Program),
		resolved: cache.New[variantKey, *Program](o.cacheCapacity, variantKey.hash),
		compile:  o.compiler,
		logger:   o.logger,
	}
}

// Register compiles and reflects the variants of effect and makes them
// available to GetResolvedShader. Variants are tried in registration order
// when several match equally well.
func (l *Library) Register(effect batch.EffectID, variants ...Variant) error {
	if len(variants) == 0 {
		return fmt.Errorf("%w: effect %d", ErrNoVariants, effect)
	}

	progs := make([]*Program, 0, len(variants))
	for _, v := range variants {
		if v.VertexEntry == "" {
			v.VertexEntry = DefaultVertexEntry
		}
		m, err := lowerWGSL(v.Source)
		if err != nil {
			return fmt.Errorf("%w: effect %d variant %q: %w", ErrCompile, effect, v.Name, err)
		}
		code, err := l.compile(m)
		if err != nil {
			return fmt.Errorf("%w: effect %d variant %q: %w", ErrCompile, effect, v.Name, err)
		}
		refl, err := reflectVertexInputs(m, v.VertexEntry)
		if err != nil {
			return fmt.Errorf("effect %d variant %q: %w", effect, v.Name, err)
		}
		progs = append(progs, &Program{
			id:       ID(l.nextID.Add(1)),
			effect:   effect,
			variant:  v,
			spirv:    code,
			codeHash: xxh3.HashString(v.Source),
			refl:     refl,
		})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.effects[effect]; ok {
		return fmt.Errorf("%w: effect %d", ErrDuplicateEffect, effect)
	}
	l.effects[effect] = progs
	l.logger.Info("shader: effect registered", "effect", effect, "variants", len(progs))
	return nil
}

// Unregister removes an effect and forgets every resolution made for it.
// It reports whether the effect was registered.
func (l *Library) Unregister(effect batch.EffectID) bool {
	l.mu.Lock()
	_, ok := l.effects[effect]
	delete(l.effects, effect)
	l.mu.Unlock()

	if ok {
		l.resolved.DeleteFunc(func(k variantKey) bool { return k.effect == effect })
	}
	return ok
}

// GetResolvedShader implements Lookup. It selects the variant of effect whose
// required bits are all present in style, preferring the variant requiring the
// most bits, then the earliest registered.
func (l *Library) GetResolvedShader(effect batch.EffectID, style batch.StyleBits) (Shader, error) {
	prog, err := l.resolved.GetOrCreate(variantKey{effect, style}, func() (*Program, error) {
		return l.selectVariant(effect, style)
	})
	if err != nil {
		return nil, err
	}
	return prog, nil
}

func (l *Library) selectVariant(effect batch.EffectID, style batch.StyleBits) (*Program, error) {
	l.mu.RLock()
	progs, ok := l.effects[effect]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEffect, effect)
	}

	var (
		best      *Program
		bestCount = -1
	)
	for _, p := range progs {
		req := p.variant.Requires
		if req&^style != 0 {
			continue
		}
		if n := bits.OnesCount64(uint64(req)); n > bestCount {
			best, bestCount = p, n
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: effect %d style %#x", ErrNoVariant, effect, uint64(style))
	}
	if bestCount == 0 && style != 0 && len(progs) > 1 {
		l.logger.Warn("shader: falling back to base variant",
			"effect", effect, "style", uint64(style), "variant", best.variant.Name)
		return best, nil
	}
	l.logger.Debug("shader: variant resolved",
		"effect", effect, "style", uint64(style), "variant", best.variant.Name)
	return best, nil
}

// Effects returns the number of registered effects.
func (l *Library) Effects() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.effects)
}

// CacheStats returns statistics of the resolved-variant cache.
func (l *Library) CacheStats() cache.Stats {
	return l.resolved.Stats()
}
