package bridge

import (
	"fmt"
	"sort"
	"sync"
)

type entry struct {
	desc  *OperationDescriptor
	codec Codec
}

// Registry holds operation descriptors indexed by operation ID.
type Registry struct {
	mu       sync.RWMutex
	ops      map[string]entry
	families map[string]Codec
}

// NewRegistry creates an empty operation registry.
func NewRegistry() *Registry {
	return &Registry{
		ops:      make(map[string]entry),
		families: make(map[string]Codec),
	}
}

// RegisterAdapter adds every operation of a backend family.
// Panics if the family or any operation ID is already registered. A rejected
// adapter leaves the registry unchanged.
func (r *Registry) RegisterAdapter(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	family := a.Family()
	if _, exists := r.families[family]; exists {
		panic(fmt.Sprintf("backend family already registered: %s", family))
	}
	descs := a.Operations()
	seen := make(map[string]bool, len(descs))
	for _, desc := range descs {
		if desc.ID == "" {
			panic(fmt.Sprintf("operation without ID in family %s", family))
		}
		if _, exists := r.ops[desc.ID]; exists || seen[desc.ID] {
			panic(fmt.Sprintf("operation already registered: %s", desc.ID))
		}
		if desc.Extract == nil {
			panic(fmt.Sprintf("operation %s has no extractor", desc.ID))
		}
		seen[desc.ID] = true
	}

	codec := a.Codec()
	r.families[family] = codec
	for _, desc := range descs {
		if desc.Family == "" {
			desc.Family = family
		}
		r.ops[desc.ID] = entry{desc: desc, codec: codec}
	}
}

// Lookup returns the descriptor and codec for operationID. An unregistered ID
// is a programming error and is reported as ErrUnknownOperation.
func (r *Registry) Lookup(operationID string) (*OperationDescriptor, Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.ops[operationID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownOperation, operationID)
	}
	return e.desc, e.codec, nil
}

// List returns all registered descriptors sorted by ID.
func (r *Registry) List() []*OperationDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descs := make([]*OperationDescriptor, 0, len(r.ops))
	for _, e := range r.ops {
		descs = append(descs, e.desc)
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].ID < descs[j].ID })
	return descs
}

// Families returns the registered backend family identifiers.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.families))
	for id := range r.families {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
