package viewport

// Focus is an optional node ID: either no node or exactly one.
// The zero value is None.
type Focus struct {
	id string
	ok bool
}

// None returns an empty Focus.
func None() Focus { return Focus{} }

// Some returns a Focus on id. An empty id yields None.
func Some(id string) Focus {
	if id == "" {
		return Focus{}
	}
	return Focus{id: id, ok: true}
}

// Get returns the focused ID and whether there is one.
func (f Focus) Get() (string, bool) { return f.id, f.ok }

// IsSome reports whether a node is focused.
func (f Focus) IsSome() bool { return f.ok }

// Is reports whether the focus is on id.
func (f Focus) Is(id string) bool { return f.ok && f.id == id }

// Or returns f if it holds a node, otherwise other.
func (f Focus) Or(other Focus) Focus {
	if f.ok {
		return f
	}
	return other
}

func (f Focus) String() string {
	if !f.ok {
		return "none"
	}
	return f.id
}
