package model

// Resource names in canonical order.
var ResourceNames = []string{"ore", "lumber", "coal", "rations", "cloth", "platinum"}

// Resources is the six-axis resource vector used for production, costs,
// upkeep, and inventories.
type Resources struct {
	Ore      int `json:"ore" yaml:"ore"`
	Lumber   int `json:"lumber" yaml:"lumber"`
	Coal     int `json:"coal" yaml:"coal"`
	Rations  int `json:"rations" yaml:"rations"`
	Cloth    int `json:"cloth" yaml:"cloth"`
	Platinum int `json:"platinum" yaml:"platinum"`
}

// Get returns the amount of the named resource, or 0 for unknown names.
func (r Resources) Get(name string) int {
	switch name {
	case "ore":
		return r.Ore
	case "lumber":
		return r.Lumber
	case "coal":
		return r.Coal
	case "rations":
		return r.Rations
	case "cloth":
		return r.Cloth
	case "platinum":
		return r.Platinum
	}
	return 0
}

// Set assigns the named resource. Unknown names are ignored.
func (r *Resources) Set(name string, v int) {
	switch name {
	case "ore":
		r.Ore = v
	case "lumber":
		r.Lumber = v
	case "coal":
		r.Coal = v
	case "rations":
		r.Rations = v
	case "cloth":
		r.Cloth = v
	case "platinum":
		r.Platinum = v
	}
}

// Add returns r + o per axis.
func (r Resources) Add(o Resources) Resources {
	return Resources{
		Ore:      r.Ore + o.Ore,
		Lumber:   r.Lumber + o.Lumber,
		Coal:     r.Coal + o.Coal,
		Rations:  r.Rations + o.Rations,
		Cloth:    r.Cloth + o.Cloth,
		Platinum: r.Platinum + o.Platinum,
	}
}

// Sub returns r - o per axis. Results may go negative; callers that need
// non-negative inventories must check CoversAll first.
func (r Resources) Sub(o Resources) Resources {
	return Resources{
		Ore:      r.Ore - o.Ore,
		Lumber:   r.Lumber - o.Lumber,
		Coal:     r.Coal - o.Coal,
		Rations:  r.Rations - o.Rations,
		Cloth:    r.Cloth - o.Cloth,
		Platinum: r.Platinum - o.Platinum,
	}
}

// Min returns the per-axis minimum of r and o.
func (r Resources) Min(o Resources) Resources {
	m := func(a, b int) int {
		if a < b {
			return a
		}
		return b
	}
	return Resources{
		Ore:      m(r.Ore, o.Ore),
		Lumber:   m(r.Lumber, o.Lumber),
		Coal:     m(r.Coal, o.Coal),
		Rations:  m(r.Rations, o.Rations),
		Cloth:    m(r.Cloth, o.Cloth),
		Platinum: m(r.Platinum, o.Platinum),
	}
}

// CoversAll reports whether r has at least o of every resource.
func (r Resources) CoversAll(o Resources) bool {
	return r.Ore >= o.Ore && r.Lumber >= o.Lumber && r.Coal >= o.Coal &&
		r.Rations >= o.Rations && r.Cloth >= o.Cloth && r.Platinum >= o.Platinum
}

// ShortTypes counts the resource types for which r falls short of o.
func (r Resources) ShortTypes(o Resources) int {
	short := 0
	for _, name := range ResourceNames {
		if r.Get(name) < o.Get(name) {
			short++
		}
	}
	return short
}

// ShortNames lists the resource types for which r falls short of o, in
// canonical order.
func (r Resources) ShortNames(o Resources) []string {
	var names []string
	for _, name := range ResourceNames {
		if r.Get(name) < o.Get(name) {
			names = append(names, name)
		}
	}
	return names
}

// IsZero reports whether every axis is zero.
func (r Resources) IsZero() bool {
	return r == Resources{}
}

// AnyNegative reports whether any axis is below zero.
func (r Resources) AnyNegative() bool {
	for _, name := range ResourceNames {
		if r.Get(name) < 0 {
			return true
		}
	}
	return false
}

// Keywords is an unordered tag set stored as a string slice.
type Keywords []string

// Has reports whether the set contains kw.
func (k Keywords) Has(kw string) bool {
	for _, v := range k {
		if v == kw {
			return true
		}
	}
	return false
}

// HasAny reports whether the set contains any of the given keywords.
func (k Keywords) HasAny(kws ...string) bool {
	for _, kw := range kws {
		if k.Has(kw) {
			return true
		}
	}
	return false
}
