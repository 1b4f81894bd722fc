// Package renderdata defines the per-object records a scene hands to the
// renderer and an in-memory registry of them.
//
// The raster builder reads records through the Source interface only; how a
// scene produces them is outside this module.
package renderdata

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/resource"
	"github.com/gogpu/gputypes"
)

// ErrUnknownObject is returned for an object id with no record.
var ErrUnknownObject = errors.New("renderdata: unknown object")

// ObjectID identifies a scene object.
type ObjectID uint64

// Geometry is a static mesh: vertex streams, optional indices and topology.
type Geometry struct {
	Label    string
	Vertices batch.VertexTable
	Index    batch.IndexStream
	Topology gputypes.PrimitiveTopology

	// VertexCount is used for non-indexed draws, IndexCount otherwise.
	VertexCount uint32
	IndexCount  uint32
}

// Indexed reports whether g is drawn with an index buffer.
func (g *Geometry) Indexed() bool { return !g.Index.IsZero() }

// RasterParams returns draw parameters covering the whole geometry.
func (g *Geometry) RasterParams() batch.RasterParams {
	return batch.RasterParams{
		Vertices:    g.Vertices,
		Index:       g.Index,
		Topology:    g.Topology,
		VertexCount: g.VertexCount,
		IndexCount:  g.IndexCount,
	}
}

// Material selects the effect and supplies the resources it samples.
type Material struct {
	Effect   batch.EffectID
	Style    batch.StyleBits
	Filter   batch.FilterBits
	Buffers  []batch.BufferBinding
	Textures []batch.TextureBinding
}

// Record is what the renderer knows about one object for one frame.
type Record struct {
	Object   ObjectID
	Geometry *Geometry
	Material *Material

	// Transform views the object's per-instance constants.
	Transform resource.BufferView
}

// Source supplies render records by object id. Implementations must be safe
// for concurrent use.
type Source interface {
	Record(id ObjectID) (Record, error)
}

// Registry is a Source backed by a map.
type Registry struct {
	mu      sync.RWMutex
	records map[ObjectID]Record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[ObjectID]Record)}
}

// Set stores rec under rec.Object, replacing any previous record.
// It returns an error if r has no geometry or no material.
func (r *Registry) Set(rec Record) error {
	if rec.Geometry == nil || rec.Material == nil {
		return fmt.Errorf("renderdata: object %d: record needs geometry and material", rec.Object)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.Object] = rec
	return nil
}

// Remove deletes the record of id and reports whether it existed.
func (r *Registry) Remove(id ObjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[id]
	delete(r.records, id)
	return ok
}

// Record implements Source.
func (r *Registry) Record(id ObjectID) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	return rec, nil
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
