package workload

import (
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/agbru/parreduce/internal/errors"
)

// Registry maps lab names to labs, keeping registration order.
type Registry struct {
	byName map[string]Lab
	order  []Lab
}

// NewRegistry returns a registry holding labs in the given order.
func NewRegistry(labs ...Lab) (*Registry, error) {
	r := &Registry{byName: make(map[string]Lab, len(labs))}
	for _, l := range labs {
		if err := r.Register(l); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a lab. Names are case-insensitive and must be unique.
func (r *Registry) Register(l Lab) error {
	key := strings.ToLower(l.Name())
	if _, dup := r.byName[key]; dup {
		return fmt.Errorf("lab %q registered twice", l.Name())
	}
	r.byName[key] = l
	r.order = append(r.order, l)
	return nil
}

// Get returns the lab registered under name. An unknown name is a
// ConfigError listing the available labs.
func (r *Registry) Get(name string) (Lab, error) {
	if l, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return l, nil
	}
	return nil, apperrors.NewConfigError("unknown lab %q (available: %s)", name, strings.Join(r.Names(), ", "))
}

// List returns every lab in registration order.
func (r *Registry) List() []Lab { return slices.Clone(r.order) }

// Names returns the lab names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, l := range r.order {
		names[i] = l.Name()
	}
	return names
}

// Select resolves a --lab value: "all" returns every lab, anything else a
// single one.
func (r *Registry) Select(name string) ([]Lab, error) {
	if strings.EqualFold(strings.TrimSpace(name), "all") {
		return r.List(), nil
	}
	l, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return []Lab{l}, nil
}

// Default returns a registry with every built-in lab.
func Default() *Registry {
	r, err := NewRegistry(ColMax{}, DiagMax{}, Rect{}, Simpson{}, Digits{}, Shoelace{}, Series{})
	if err != nil {
		panic(err)
	}
	return r
}
