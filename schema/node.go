package schema

// Kind is the shape of a Node.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindStruct
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindStruct:
		return "struct"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return "unknown"
}

// Reserved child names of list and map nodes.
const (
	ListItemName = "item"
	MapKeyName   = "key"
	MapValueName = "value"
)

// Repetition is the cardinality of a node, derived from its nullability and
// from the shape of its parent.
type Repetition uint8

const (
	Required Repetition = iota
	Optional
	Repeated
)

func (r Repetition) String() string {
	switch r {
	case Required:
		return "required"
	case Optional:
		return "optional"
	}
	return "repeated"
}

// Node is one vertex of a schema tree. Children holds the struct fields, the
// single list item, or the map key and value, in that order. A Node obtained
// from a Schema shares its children with the schema and must not be modified.
type Node struct {
	Name     string
	Nullable bool
	Kind     Kind
	Type     PrimitiveType
	// Format is an optional annotation for temporal types, such as a parse
	// layout used by textual front-ends. The engine stores it verbatim.
	Format   string
	Children []Node
}

// Primitive returns a leaf node.
func Primitive(name string, typ PrimitiveType, nullable bool) Node {
	return Node{Name: name, Nullable: nullable, Kind: KindPrimitive, Type: typ}
}

// PrimitiveWithFormat returns a leaf node with a format annotation.
func PrimitiveWithFormat(name string, typ PrimitiveType, nullable bool, format string) Node {
	n := Primitive(name, typ, nullable)
	n.Format = format
	return n
}

// Struct returns a struct node owning fields in order.
func Struct(name string, nullable bool, fields ...Node) Node {
	return Node{Name: name, Nullable: nullable, Kind: KindStruct, Children: fields}
}

// List returns a list node. The item is renamed to "item".
func List(name string, nullable bool, item Node) Node {
	item.Name = ListItemName
	return Node{Name: name, Nullable: nullable, Kind: KindList, Children: []Node{item}}
}

// Map returns a map node. The children are renamed to "key" and "value".
func Map(name string, nullable bool, key, value Node) Node {
	key.Name = MapKeyName
	value.Name = MapValueName
	return Node{Name: name, Nullable: nullable, Kind: KindMap, Children: []Node{key, value}}
}

// Repetition returns Optional for nullable nodes and Required otherwise.
func (n Node) Repetition() Repetition {
	if n.Nullable {
		return Optional
	}
	return Required
}

// ElementRepetition returns Repeated for the element level of list and map
// nodes, and the node's own repetition for the other kinds.
func (n Node) ElementRepetition() Repetition {
	if n.Kind == KindList || n.Kind == KindMap {
		return Repeated
	}
	return n.Repetition()
}

// Item returns the item node of a list.
func (n Node) Item() Node { return n.Children[0] }

// Key returns the key node of a map.
func (n Node) Key() Node { return n.Children[0] }

// Value returns the value node of a map.
func (n Node) Value() Node { return n.Children[1] }

// Child returns the child named name.
func (n Node) Child(name string) (Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return Node{}, false
}

// Equal reports whether two nodes describe the same tree.
func (n Node) Equal(o Node) bool {
	if n.Name != o.Name || n.Nullable != o.Nullable || n.Kind != o.Kind ||
		n.Type != o.Type || n.Format != o.Format || len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

func (n Node) clone() Node {
	if n.Children == nil {
		return n
	}
	children := make([]Node, len(n.Children))
	for i, c := range n.Children {
		children[i] = c.clone()
	}
	n.Children = children
	return n
}

func (n Node) count() int {
	total := 1
	for _, c := range n.Children {
		total += c.count()
	}
	return total
}

// TypeString renders the node's type, e.g. "List<Int32>".
func (n Node) TypeString() string {
	switch n.Kind {
	case KindPrimitive:
		return n.Type.String()
	case KindList:
		return "List<" + n.Item().TypeString() + ">"
	case KindMap:
		return "Map<" + n.Key().TypeString() + ", " + n.Value().TypeString() + ">"
	}
	s := "Struct<"
	for i, c := range n.Children {
		if i > 0 {
			s += ", "
		}
		s += c.Name + ": " + c.TypeString()
	}
	return s + ">"
}
