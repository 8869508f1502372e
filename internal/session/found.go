package session

// Starters are always present in a FoundSet.
var Starters = []string{"Bulbasaur", "Charmander", "Squirtle"}

// FoundSet holds the species the player may select. It only grows.
type FoundSet struct {
	ids   map[string]struct{}
	order []string
}

func NewFoundSet() *FoundSet {
	f := &FoundSet{ids: make(map[string]struct{}, len(Starters))}
	for _, id := range Starters {
		f.Add(id)
	}
	return f
}

func (f *FoundSet) Has(id string) bool {
	_, ok := f.ids[id]
	return ok
}

// Add inserts id and reports whether it was new.
func (f *FoundSet) Add(id string) bool {
	if id == "" || f.Has(id) {
		return false
	}
	f.ids[id] = struct{}{}
	f.order = append(f.order, id)
	return true
}

func (f *FoundSet) Len() int { return len(f.order) }

// List returns the identifiers in the order they were found.
func (f *FoundSet) List() []string {
	return append([]string(nil), f.order...)
}
