package sparrow

import (
	"weak"

	"github.com/evertheylen/sparrow/pkg/types"
)

// edge is one directed real-time reference: a referencing instance
// pointing at a referenced key through a named reference property.
// The referencing side is held weakly so an edge never keeps its
// instance alive.
type edge struct {
	from weak.Pointer[Instance]
	ref  string
}

// target addresses the referenced side of an edge.
type target struct {
	typeName string
	canon    any
}

// graph is the reverse index of real-time references: referenced key →
// the set of edges pointing at it, plus the outgoing index used to drop
// a referencing instance's edges when it is deleted or collected.
// Ordinary references never enter the graph.
//
// All methods require the model lock.
type graph struct {
	in  map[target]map[edge]struct{}
	out map[weak.Pointer[Instance]]map[target]map[string]struct{}
}

func newGraph() *graph {
	return &graph{
		in:  make(map[target]map[edge]struct{}),
		out: make(map[weak.Pointer[Instance]]map[target]map[string]struct{}),
	}
}

func (g *graph) add(typeName string, key types.Key, from *Instance, ref string) {
	wp := weak.Make(from)
	tgt := target{typeName: typeName, canon: key.Canonical()}
	e := edge{from: wp, ref: ref}

	if g.in[tgt] == nil {
		g.in[tgt] = make(map[edge]struct{})
	}
	g.in[tgt][e] = struct{}{}

	if g.out[wp] == nil {
		g.out[wp] = make(map[target]map[string]struct{})
	}
	if g.out[wp][tgt] == nil {
		g.out[wp][tgt] = make(map[string]struct{})
	}
	g.out[wp][tgt][ref] = struct{}{}
}

func (g *graph) remove(typeName string, key types.Key, from *Instance, ref string) {
	g.removePointer(typeName, key.Canonical(), weak.Make(from), ref)
}

func (g *graph) removePointer(typeName string, canon any, wp weak.Pointer[Instance], ref string) {
	tgt := target{typeName: typeName, canon: canon}
	if set, ok := g.in[tgt]; ok {
		delete(set, edge{from: wp, ref: ref})
		if len(set) == 0 {
			delete(g.in, tgt)
		}
	}
	if tgts, ok := g.out[wp]; ok {
		if refs, ok := tgts[tgt]; ok {
			delete(refs, ref)
			if len(refs) == 0 {
				delete(tgts, tgt)
			}
		}
		if len(tgts) == 0 {
			delete(g.out, wp)
		}
	}
}

// removeAllFrom drops every edge whose referencing side is the given
// instance. Called when the instance is deleted.
func (g *graph) removeAllFrom(from *Instance) {
	g.removeAllFromPointer(weak.Make(from))
}

// removeAllFromPointer is removeAllFrom keyed by weak pointer, for the
// GC cleanup path where the instance itself is already gone.
func (g *graph) removeAllFromPointer(wp weak.Pointer[Instance]) {
	tgts, ok := g.out[wp]
	if !ok {
		return
	}
	for tgt, refs := range tgts {
		set := g.in[tgt]
		for ref := range refs {
			delete(set, edge{from: wp, ref: ref})
		}
		if len(set) == 0 {
			delete(g.in, tgt)
		}
	}
	delete(g.out, wp)
}

// to returns the live instances holding a real-time reference to the
// given key, pruning edges whose referencing side has been collected.
func (g *graph) to(typeName string, key types.Key) []*Instance {
	tgt := target{typeName: typeName, canon: key.Canonical()}
	set, ok := g.in[tgt]
	if !ok {
		return nil
	}
	var out []*Instance
	seen := make(map[*Instance]bool)
	for e := range set {
		in := e.from.Value()
		if in == nil {
			delete(set, e)
			continue
		}
		if !seen[in] {
			seen[in] = true
			out = append(out, in)
		}
	}
	if len(set) == 0 {
		delete(g.in, tgt)
	}
	return out
}
