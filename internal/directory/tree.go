package directory

// Snapshot is the settled directory in first-seen order.
type Snapshot struct {
	Assemblies []Assembly
}

type Assembly struct {
	Name  string
	Types []Type
}

type Type struct {
	Name    string
	Methods []string
}

// Empty reports whether no identity was recorded.
func (s Snapshot) Empty() bool {
	return len(s.Assemblies) == 0
}

// Len is the number of distinct (assembly, type, method) entries.
func (s Snapshot) Len() int {
	n := 0
	for _, a := range s.Assemblies {
		for _, t := range a.Types {
			n += len(t.Methods)
		}
	}
	return n
}

// tree keeps insertion order in slices and uses maps only as indexes.
type tree struct {
	assemblies []*assemblyNode
	byName     map[string]*assemblyNode
}

type assemblyNode struct {
	name   string
	types  []*typeNode
	byName map[string]*typeNode
}

type typeNode struct {
	name    string
	methods []string
	seen    map[string]struct{}
}

func newTree() *tree {
	return &tree{byName: make(map[string]*assemblyNode)}
}

func (t *tree) add(e entry) {
	a, ok := t.byName[e.assembly]
	if !ok {
		a = &assemblyNode{name: e.assembly, byName: make(map[string]*typeNode)}
		t.byName[e.assembly] = a
		t.assemblies = append(t.assemblies, a)
	}
	ty, ok := a.byName[e.typeName]
	if !ok {
		ty = &typeNode{name: e.typeName, seen: make(map[string]struct{})}
		a.byName[e.typeName] = ty
		a.types = append(a.types, ty)
	}
	if _, dup := ty.seen[e.method]; dup {
		return
	}
	ty.seen[e.method] = struct{}{}
	ty.methods = append(ty.methods, e.method)
}

func (t *tree) snapshot() Snapshot {
	snap := Snapshot{Assemblies: make([]Assembly, 0, len(t.assemblies))}
	for _, a := range t.assemblies {
		as := Assembly{Name: a.name, Types: make([]Type, 0, len(a.types))}
		for _, ty := range a.types {
			as.Types = append(as.Types, Type{
				Name:    ty.name,
				Methods: append([]string(nil), ty.methods...),
			})
		}
		snap.Assemblies = append(snap.Assemblies, as)
	}
	return snap
}
