package domain

import (
	"bytes"
	"encoding/json"
)

// NodeKind tags the variant held by a Node. Per SPEC_FULL.md §9's guidance,
// the dynamic JSON bag the LLM returns is modeled as an explicit sum type
// rather than a bare interface{} tree, so the flattener (C6) can walk it
// without repeated type assertions scattered across call sites.
type NodeKind int

const (
	KindNull NodeKind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	// KindTyped represents the `{_type, value}` leaf-wrapper idiom (spec.md
	// §4.6): a dict carrying an explicit type tag for its single value.
	KindTyped
)

// Node is one value in a hierarchical_data tree: an object, array, primitive,
// or a typed-wrapper leaf. Object key order is preserved explicitly via Keys
// (the `_keyOrder` hint from C2), never relying on map iteration order.
type Node struct {
	Kind NodeKind

	Bool   bool
	Number float64
	String string

	Array []*Node

	// Keys preserves insertion order for Object; Fields holds the values.
	Keys   []string
	Fields map[string]*Node

	// TypedName is the `_type` tag when Kind == KindTyped; TypedValue is the
	// wrapped value (which may itself be KindArray for `_type == "table"`).
	TypedName  string
	TypedValue *Node
}

// NewObject builds an empty ordered object node.
func NewObject() *Node {
	return &Node{Kind: KindObject, Fields: map[string]*Node{}}
}

// Set appends or overwrites a key on an object node, preserving first-seen
// order for new keys.
func (n *Node) Set(key string, value *Node) {
	if n.Kind != KindObject {
		return
	}
	if _, exists := n.Fields[key]; !exists {
		n.Keys = append(n.Keys, key)
	}
	n.Fields[key] = value
}

// IsTypedWrapper reports whether an object node is the `{_type, value}` leaf
// idiom described in spec.md §4.6.
func (n *Node) IsTypedWrapper() bool {
	if n.Kind != KindObject {
		return false
	}
	_, hasType := n.Fields["_type"]
	_, hasValue := n.Fields["value"]
	return hasType && hasValue && len(n.Fields) <= 3 // tolerate a stray _keyOrder alongside
}

// FromJSON decodes raw JSON bytes into a Node tree, preserving object key
// order by walking json.Decoder tokens rather than unmarshaling into
// map[string]interface{} (which Go does not order).
func FromJSON(raw []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	node, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (*Node, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return finalizeObject(obj), nil
		case '[':
			arr := &Node{Kind: KindArray}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Array = append(arr.Array, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		}
	case nil:
		return &Node{Kind: KindNull}, nil
	case bool:
		return &Node{Kind: KindBool, Bool: v}, nil
	case json.Number:
		f, _ := v.Float64()
		return &Node{Kind: KindNumber, Number: f, String: v.String()}, nil
	case string:
		return &Node{Kind: KindString, String: v}, nil
	}
	return &Node{Kind: KindNull}, nil
}

// finalizeObject detects the `{_type, value}` wrapper idiom and tags it.
func finalizeObject(obj *Node) *Node {
	if obj.IsTypedWrapper() {
		typeNode := obj.Fields["_type"]
		valueNode := obj.Fields["value"]
		name := ""
		if typeNode != nil && typeNode.Kind == KindString {
			name = typeNode.String
		}
		return &Node{Kind: KindTyped, TypedName: name, TypedValue: valueNode}
	}
	return obj
}
