package schema

import (
	"github.com/goccy/go-json"

	"github.com/VanDung-dev/parquet-core/pqerr"
)

type jsonType struct {
	ID        string `json:"id"`
	Precision int32  `json:"precision,omitempty"`
	Scale     int32  `json:"scale,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
	Length    int32  `json:"length,omitempty"`
}

type jsonNode struct {
	Name     string     `json:"name"`
	Kind     string     `json:"kind"`
	Nullable bool       `json:"nullable"`
	Type     *jsonType  `json:"type,omitempty"`
	Format   string     `json:"format,omitempty"`
	Children []jsonNode `json:"children,omitempty"`
}

func toJSONNode(n Node) jsonNode {
	jn := jsonNode{
		Name:     n.Name,
		Kind:     n.Kind.String(),
		Nullable: n.Nullable,
		Format:   n.Format,
	}
	if n.Kind == KindPrimitive {
		jn.Type = &jsonType{
			ID:        n.Type.ID.String(),
			Precision: n.Type.Precision,
			Scale:     n.Type.Scale,
			Timezone:  n.Type.Timezone,
			Length:    n.Type.Length,
		}
	}
	for _, c := range n.Children {
		jn.Children = append(jn.Children, toJSONNode(c))
	}
	return jn
}

func fromJSONNode(jn jsonNode) (Node, error) {
	n := Node{Name: jn.Name, Nullable: jn.Nullable, Format: jn.Format}
	switch jn.Kind {
	case "primitive":
		n.Kind = KindPrimitive
		if jn.Type == nil {
			return Node{}, pqerr.Newf(pqerr.Schema, "primitive field %q has no type", jn.Name)
		}
		id, ok := ParseTypeID(jn.Type.ID)
		if !ok {
			return Node{}, pqerr.Newf(pqerr.Schema, "field %q has unknown type %q", jn.Name, jn.Type.ID)
		}
		n.Type = PrimitiveType{
			ID:        id,
			Precision: jn.Type.Precision,
			Scale:     jn.Type.Scale,
			Timezone:  jn.Type.Timezone,
			Length:    jn.Type.Length,
		}
	case "struct":
		n.Kind = KindStruct
	case "list":
		n.Kind = KindList
	case "map":
		n.Kind = KindMap
	default:
		return Node{}, pqerr.Newf(pqerr.Schema, "field %q has unknown kind %q", jn.Name, jn.Kind)
	}
	for _, jc := range jn.Children {
		c, err := fromJSONNode(jc)
		if err != nil {
			return Node{}, err
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

// MarshalJSON encodes the schema tree.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSONNode(s.root))
}

// Parse decodes a schema produced by MarshalJSON and validates it.
func Parse(data []byte) (*Schema, error) {
	var jn jsonNode
	if err := json.Unmarshal(data, &jn); err != nil {
		return nil, pqerr.Wrapf(pqerr.Schema, err, "failed to decode schema")
	}
	root, err := fromJSONNode(jn)
	if err != nil {
		return nil, err
	}
	return FromRoot(root)
}
