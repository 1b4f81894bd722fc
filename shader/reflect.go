package shader

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// ErrReflect is returned when a shader's vertex inputs cannot be mapped to
// semantics.
var ErrReflect = errors.New("shader: reflection failed")

// inputKey names one instance of a semantic: (TexCoord, 1) is texcoord1.
type inputKey struct {
	semantic batch.Semantic
	index    int
}

// reflection is what a program exposes about its vertex stage.
type reflection struct {
	hasVertex bool
	inputs    map[inputKey]uint32
}

// Input names are a semantic followed by an optional instance index.
var semanticNameRE = regexp.MustCompile(`^([a-z]+)(\d*)$`)

// lowerWGSL parses and lowers WGSL source to naga IR.
func lowerWGSL(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	return naga.LowerWithSource(ast, source)
}

// reflectVertexInputs finds the vertex entry point named entry in m and maps
// each location-bound input, declared on the entry point or as a member of a
// struct argument, to a (semantic, index) pair. Inputs whose names are not
// semantics are ignored. A module without that vertex entry point has no
// vertex stage and reflects empty.
func reflectVertexInputs(m *ir.Module, entry string) (*reflection, error) {
	ep := vertexEntry(m, entry)
	if ep == nil {
		return &reflection{}, nil
	}

	r := &reflection{hasVertex: true, inputs: make(map[inputKey]uint32)}
	seen := make(map[uint32]string)
	add := func(name string, b *ir.Binding) error {
		slot, ok := location(b)
		if !ok {
			return nil
		}
		if prev, dup := seen[slot]; dup {
			return fmt.Errorf("%w: location %d bound to both %q and %q", ErrReflect, slot, prev, name)
		}
		seen[slot] = name

		key, ok := parseInputName(name)
		if !ok {
			return nil
		}
		if _, dup := r.inputs[key]; dup {
			return fmt.Errorf("%w: input %q declared twice", ErrReflect, name)
		}
		r.inputs[key] = slot
		return nil
	}

	for _, arg := range ep.Function.Arguments {
		if arg.Binding != nil {
			if err := add(arg.Name, arg.Binding); err != nil {
				return nil, err
			}
			continue
		}
		if int(arg.Type) >= len(m.Types) {
			return nil, fmt.Errorf("%w: argument %q has unknown type %d", ErrReflect, arg.Name, arg.Type)
		}
		st, ok := m.Types[arg.Type].Inner.(ir.StructType)
		if !ok {
			continue
		}
		for _, mem := range st.Members {
			if err := add(mem.Name, mem.Binding); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func vertexEntry(m *ir.Module, name string) *ir.EntryPoint {
	for i := range m.EntryPoints {
		if ep := &m.EntryPoints[i]; ep.Stage == ir.StageVertex && ep.Name == name {
			return ep
		}
	}
	return nil
}

func location(b *ir.Binding) (uint32, bool) {
	if b == nil {
		return 0, false
	}
	if lb, ok := (*b).(ir.LocationBinding); ok {
		return lb.Location, true
	}
	return 0, false
}

func parseInputName(name string) (inputKey, bool) {
	m := semanticNameRE.FindStringSubmatch(strings.ToLower(name))
	if m == nil {
		return inputKey{}, false
	}
	sem, ok := batch.ParseSemantic(m[1])
	if !ok {
		return inputKey{}, false
	}
	idx := 0
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return inputKey{}, false
		}
		idx = n
	}
	return inputKey{semantic: sem, index: idx}, true
}
