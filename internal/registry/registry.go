package registry

import (
	"fmt"

	"github.com/xxxsen/embedserver/internal/model"
	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
)

// Registry is the read-only model catalog.
type Registry struct {
	entries []CatalogEntry
}

func New(entries []CatalogEntry) *Registry {
	cp := make([]CatalogEntry, len(entries))
	copy(cp, entries)
	return &Registry{entries: cp}
}

func Default() *Registry {
	return New(defaultCatalog)
}

// Entry returns the first catalog entry whose name equals name exactly.
func (r *Registry) Entry(name string) (CatalogEntry, error) {
	for _, e := range r.entries {
		if e.Name == name {
			return e, nil
		}
	}
	return CatalogEntry{}, fmt.Errorf("%w: %s", appErr.ErrModelNotFound, name)
}

func (r *Registry) Resolve(name string) (model.ModelDescriptor, error) {
	e, err := r.Entry(name)
	if err != nil {
		return model.ModelDescriptor{}, err
	}
	return e.Descriptor(), nil
}

func (r *Registry) List() []model.ModelDescriptor {
	out := make([]model.ModelDescriptor, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Descriptor())
	}
	return out
}

func (r *Registry) Describe(src Source) (model.ModelDescriptor, error) {
	switch s := src.(type) {
	case CatalogSource:
		return r.Resolve(s.Name)
	case CustomSource:
		return s.Definition.Descriptor(), nil
	default:
		return model.ModelDescriptor{}, fmt.Errorf("%w: unknown model source %T", appErr.ErrInvalid, src)
	}
}
