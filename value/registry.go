package value

// Registry owns every heap Object allocated during one VM lifetime. The
// reference implementation threads objects onto an intrusive
// singly-linked list via a next field on each object so it can bulk-free
// at teardown; Go already reclaims object memory via its own GC, so this
// registry keeps that same ownership shape (one place that knows about
// every live object, bulk-cleared at Free) as a growable slice instead of
// a linked list — see DESIGN.md for why the intrusive-list shape was
// dropped.
type Registry struct {
	objects []Object
}

// Track records a newly allocated object and returns it unchanged, so
// call sites can write `s := reg.Track(value.NewString("hi"))`.
func (r *Registry) Track(o Object) Object {
	r.objects = append(r.objects, o)
	return o
}

// Count reports how many objects are currently tracked.
func (r *Registry) Count() int { return len(r.objects) }

// Free releases the registry's hold on every object it tracks. After Free,
// Count reports zero; the objects themselves become eligible for Go's
// garbage collector once no other reference (e.g. a constant pool) holds
// them either.
func (r *Registry) Free() {
	r.objects = nil
}
