package dataset

import "fmt"

// Registry holds the configured data sets and resolves them by id.
type Registry struct {
	sets  map[string]*DataSet
	order []string
}

// NewRegistry creates a registry from the given data sets. Later
// registrations with the same id replace earlier ones.
func NewRegistry(sets ...*DataSet) *Registry {
	r := &Registry{sets: make(map[string]*DataSet)}
	for _, ds := range sets {
		r.Add(ds)
	}
	return r
}

// Add registers a data set.
func (r *Registry) Add(ds *DataSet) {
	if _, ok := r.sets[ds.ID]; !ok {
		r.order = append(r.order, ds.ID)
	}
	r.sets[ds.ID] = ds
}

// FindDataSet returns the data set with the given id.
func (r *Registry) FindDataSet(id string) (*DataSet, error) {
	ds, ok := r.sets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDataSetNotFound, id)
	}
	return ds, nil
}

// List returns all data sets in registration order.
func (r *Registry) List() []*DataSet {
	sets := make([]*DataSet, 0, len(r.order))
	for _, id := range r.order {
		sets = append(sets, r.sets[id])
	}
	return sets
}
