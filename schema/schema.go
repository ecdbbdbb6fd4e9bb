package schema

import (
	"strings"

	"github.com/VanDung-dev/parquet-core/pqerr"
)

// DefaultRootName names the root struct when the builder is not given one.
const DefaultRootName = "root"

// Schema is a validated, immutable schema tree.
type Schema struct {
	root Node
}

// Builder assembles a Schema field by field.
type Builder struct {
	name     string
	nullable bool
	fields   []Node
}

// NewBuilder returns a Builder for a schema rooted at a struct named
// DefaultRootName.
func NewBuilder() *Builder {
	return &Builder{name: DefaultRootName}
}

// Name sets the root node's name.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Field appends a top-level field.
func (b *Builder) Field(n Node) *Builder {
	b.fields = append(b.fields, n)
	return b
}

// Fields appends several top-level fields.
func (b *Builder) Fields(ns ...Node) *Builder {
	b.fields = append(b.fields, ns...)
	return b
}

// Build validates the tree and returns the Schema. The builder may be reused;
// the returned schema does not share memory with it.
func (b *Builder) Build() (*Schema, error) {
	root := Struct(b.name, b.nullable, b.fields...).clone()
	if root.Name == "" {
		return nil, pqerr.Newf(pqerr.Schema, "schema root must have a name")
	}
	if err := validateChildren(root, ""); err != nil {
		return nil, err
	}
	return &Schema{root: root}, nil
}

// New builds a schema from top-level fields.
func New(fields ...Node) (*Schema, error) {
	return NewBuilder().Fields(fields...).Build()
}

// FromRoot builds a schema from an existing root struct node.
func FromRoot(root Node) (*Schema, error) {
	if root.Kind != KindStruct {
		return nil, pqerr.Newf(pqerr.Schema, "schema root %q must be a struct, got %s", root.Name, root.Kind)
	}
	b := NewBuilder().Name(root.Name).Fields(root.Children...)
	b.nullable = root.Nullable
	return b.Build()
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func validateChildren(n Node, path string) error {
	seen := make(map[string]struct{}, len(n.Children))
	for _, c := range n.Children {
		if _, dup := seen[c.Name]; dup {
			return pqerr.Newf(pqerr.Schema, "duplicate field name %q in %q", c.Name, n.Name)
		}
		seen[c.Name] = struct{}{}
		if err := validateNode(c, joinPath(path, c.Name)); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(n Node, path string) error {
	if n.Name == "" {
		return pqerr.Newf(pqerr.Schema, "field at %q has an empty name", path)
	}
	if strings.Contains(n.Name, ".") {
		return pqerr.Newf(pqerr.Schema, "field name %q must not contain '.'", n.Name)
	}
	switch n.Kind {
	case KindPrimitive:
		if len(n.Children) != 0 {
			return pqerr.Newf(pqerr.Schema, "primitive field %q cannot have children", path)
		}
		return validateType(n, path)
	case KindStruct:
		if len(n.Children) == 0 {
			return pqerr.Newf(pqerr.Schema, "struct field %q has no fields", path)
		}
	case KindList:
		if len(n.Children) != 1 || n.Children[0].Name != ListItemName {
			return pqerr.Newf(pqerr.Schema, "list field %q must have exactly one %q child", path, ListItemName)
		}
	case KindMap:
		if len(n.Children) != 2 || n.Children[0].Name != MapKeyName || n.Children[1].Name != MapValueName {
			return pqerr.Newf(pqerr.Schema, "map field %q must have exactly %q and %q children", path, MapKeyName, MapValueName)
		}
		if n.Children[0].Nullable {
			return pqerr.Newf(pqerr.Schema, "map field %q has a nullable key", path)
		}
	default:
		return pqerr.Newf(pqerr.Schema, "field %q has unknown kind %d", path, n.Kind)
	}
	if n.Format != "" {
		return pqerr.Newf(pqerr.Schema, "field %q: only primitive fields take a format", path)
	}
	return validateChildren(n, path)
}

func validateType(n Node, path string) error {
	t := n.Type
	if _, ok := typeNames[t.ID]; !ok {
		return pqerr.Newf(pqerr.Schema, "field %q has unknown primitive type %d", path, t.ID)
	}
	if n.Format != "" && !t.RequiresFormat() {
		return pqerr.Newf(pqerr.Schema, "field %q: type %s does not take a format", path, t)
	}
	switch {
	case t.IsDecimal():
		if t.Precision < 1 || t.Precision > t.MaxPrecision() {
			return pqerr.Newf(pqerr.InvalidArgument, "field %q: %s precision must be in [1, %d]", path, t, t.MaxPrecision())
		}
		if t.Scale < 0 || t.Scale > t.Precision {
			return pqerr.Newf(pqerr.InvalidArgument, "field %q: %s scale must be in [0, precision]", path, t)
		}
	case t.ID == TypeFixedLenByteArray:
		if t.Length <= 0 {
			return pqerr.Newf(pqerr.InvalidArgument, "field %q: fixed length must be positive, got %d", path, t.Length)
		}
	}
	return nil
}

// Root returns the root struct node.
func (s *Schema) Root() Node { return s.root }

// Name returns the name of the root node.
func (s *Schema) Name() string { return s.root.Name }

// Fields returns the top-level fields in declaration order.
func (s *Schema) Fields() []Node { return s.root.Children }

// NumColumns returns the number of top-level fields; a row holds one value
// per top-level field.
func (s *Schema) NumColumns() int { return len(s.root.Children) }

// FieldNames returns the top-level field names in order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.root.Children))
	for i, c := range s.root.Children {
		names[i] = c.Name
	}
	return names
}

// FieldIndex returns the position of the top-level field named name, or -1.
func (s *Schema) FieldIndex(name string) int {
	for i, c := range s.root.Children {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// FieldCount returns the number of nodes below the root, composite nodes
// included. The root is not counted, so AllFieldPaths, which lists the root,
// always has FieldCount()+1 entries.
func (s *Schema) FieldCount() int { return s.root.count() - 1 }

// FieldByPath resolves a dot separated path relative to the root. List items
// are addressed with "item" and map children with "key" and "value". The
// empty path is the root itself.
func (s *Schema) FieldByPath(path string) (Node, bool) {
	if path == "" {
		return s.root, true
	}
	cur := s.root
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return Node{}, false
		}
		next, ok := cur.Child(seg)
		if !ok {
			return Node{}, false
		}
		cur = next
	}
	return cur, true
}

// HasField reports whether path resolves.
func (s *Schema) HasField(path string) bool {
	_, ok := s.FieldByPath(path)
	return ok
}

// AllFieldPaths lists every node's path in pre-order. The root comes first
// as the empty path; every other path resolves with FieldByPath.
func (s *Schema) AllFieldPaths() []string {
	paths := make([]string, 0, s.root.count())
	var walk func(n Node, path string)
	walk = func(n Node, path string) {
		paths = append(paths, path)
		for _, c := range n.Children {
			walk(c, joinPath(path, c.Name))
		}
	}
	walk(s.root, "")
	return paths
}

// Project returns the schema restricted to the named top-level fields and the
// indices of the kept fields. Kept fields stay in schema order whatever the
// order of names; repeated names are kept once.
func (s *Schema) Project(names []string) (*Schema, []int, error) {
	want := make(map[string]struct{}, len(names))
	for _, name := range names {
		if s.FieldIndex(name) < 0 {
			return nil, nil, pqerr.Newf(pqerr.Schema, "unknown column %q", name)
		}
		want[name] = struct{}{}
	}
	var (
		fields  []Node
		indices []int
	)
	for i, c := range s.root.Children {
		if _, ok := want[c.Name]; ok {
			fields = append(fields, c)
			indices = append(indices, i)
		}
	}
	root := s.root
	root.Children = fields
	return &Schema{root: root}, indices, nil
}

// Equal reports whether both schemas describe the same tree.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.root.Equal(o.root)
}

// String renders the schema as an indented tree.
func (s *Schema) String() string {
	var sb strings.Builder
	var walk func(n Node, depth int)
	walk = func(n Node, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(n.Name)
		sb.WriteString(": ")
		switch n.Kind {
		case KindPrimitive:
			sb.WriteString(n.Type.String())
		default:
			sb.WriteString(n.Kind.String())
		}
		sb.WriteString(" (")
		sb.WriteString(n.Repetition().String())
		sb.WriteString(")\n")
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(s.root, 0)
	return sb.String()
}
