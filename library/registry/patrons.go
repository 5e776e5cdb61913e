package registry

import (
	"slices"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lendingdesk/library/core"
)

// Patrons is the patron registry. Names are not required to be unique.
type Patrons struct {
	patrons []core.Patron
	newID   func() uuid.UUID
}

// NewPatrons creates an empty patron registry.
func NewPatrons() *Patrons {
	return &Patrons{newID: uuid.New}
}

// Register validates the fields and appends the patron.
func (r *Patrons) Register(fields core.PatronFields) (core.Patron, error) {
	patron, err := core.BuildPatron(r.newID(), fields)
	if err != nil {
		return core.Patron{}, err
	}

	r.patrons = append(r.patrons, patron)

	return patron, nil
}

// FindByName returns the first patron with the given name.
func (r *Patrons) FindByName(name string) (core.Patron, bool) {
	i := r.indexOf(name)
	if i < 0 {
		return core.Patron{}, false
	}

	return r.patrons[i], true
}

// Edit replaces the fields of the first patron with the given name.
func (r *Patrons) Edit(name string, fields core.PatronFields) (core.Patron, bool, error) {
	i := r.indexOf(name)
	if i < 0 {
		return core.Patron{}, false, nil
	}

	edited, err := r.patrons[i].Edited(fields)
	if err != nil {
		return core.Patron{}, true, err
	}

	r.patrons[i] = edited

	return edited, true, nil
}

// Delete removes the first patron with the given name and returns it.
func (r *Patrons) Delete(name string) (core.Patron, bool) {
	i := r.indexOf(name)
	if i < 0 {
		return core.Patron{}, false
	}

	deleted := r.patrons[i]
	r.patrons = slices.Delete(r.patrons, i, i+1)

	return deleted, true
}

// All returns a copy of the registered patrons in registration order.
func (r *Patrons) All() []core.Patron {
	return slices.Clone(r.patrons)
}

func (r *Patrons) indexOf(name string) int {
	return slices.IndexFunc(r.patrons, func(p core.Patron) bool { return core.SameName(p.Name, name) })
}
