package auditdom

import (
	"iter"
	"strings"
	"weak"

	"github.com/pkg/errors"
)

var (
	ErrNoParent     = errors.New("node has no parent, is it the root?")
	ErrUseAfterFree = errors.New("use after free")
)

type Kind int

const (
	KindDocument Kind = iota
	KindElement
	KindText
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	}
	return "unknown"
}

type Attr struct {
	Name  string
	Value string
}

// Visitor receives a fresh handle for every node a walk reaches.
type Visitor func(*Node)

// node is the tree storage. Children are owned, the parent link is weak so
// releasing the root reclaims the whole tree.
type node struct {
	kind        Kind
	parent      weak.Pointer[node]
	name        string
	attrs       []Attr
	selfClosing bool
	content     string
	children    []*node
}

func newDocument() *node {
	return &node{kind: KindDocument}
}

func (n *node) appendChild(child *node) *node {
	child.parent = weak.Make(n)
	n.children = append(n.children, child)
	return child
}

func (n *node) isRoot() bool {
	return n.kind == KindDocument
}

func (n *node) attributes() map[string]string {
	attrs := make(map[string]string, len(n.attrs))
	for _, attr := range n.attrs {
		attrs[strings.ToLower(attr.Name)] = attr.Value
	}
	return attrs
}

func (n *node) text() string {
	switch n.kind {
	case KindText, KindComment:
		return n.content
	case KindElement:
		if len(n.children) > 0 {
			return n.children[0].text()
		}
	}
	return ""
}

func (n *node) walk(yield func(*node) bool) bool {
	for _, child := range n.children {
		if !yield(child) {
			return false
		}
		if !child.walk(yield) {
			return false
		}
	}
	return true
}

// Node is a handle to a tree node. A handle keeps the tree it belongs to
// alive, Free releases the handle without touching the tree.
type Node struct {
	n    *node
	root *node
}

func (h *Node) wrap(n *node) *Node {
	return &Node{n: n, root: h.root}
}

func (h *Node) get() (*node, error) {
	if h == nil || h.n == nil {
		return nil, errors.WithStack(ErrUseAfterFree)
	}
	return h.n, nil
}

func (h *Node) Kind() (Kind, error) {
	n, err := h.get()
	if err != nil {
		return 0, err
	}
	return n.kind, nil
}

// Name returns the tag name of an element and an empty string otherwise.
func (h *Node) Name() (string, error) {
	n, err := h.get()
	if err != nil {
		return "", err
	}
	return n.name, nil
}

// Attributes returns the element attributes keyed by lower-cased name. A
// repeated attribute keeps the last value seen.
func (h *Node) Attributes() (map[string]string, error) {
	n, err := h.get()
	if err != nil {
		return nil, err
	}
	return n.attributes(), nil
}

func (h *Node) SelfClosing() (bool, error) {
	n, err := h.get()
	if err != nil {
		return false, err
	}
	return n.selfClosing, nil
}

func (h *Node) IsRoot() (bool, error) {
	n, err := h.get()
	if err != nil {
		return false, err
	}
	return n.isRoot(), nil
}

func (h *Node) Parent() (*Node, error) {
	n, err := h.get()
	if err != nil {
		return nil, err
	}
	if n.isRoot() {
		return nil, errors.WithStack(ErrNoParent)
	}
	parent := n.parent.Value()
	if parent == nil {
		return nil, errors.Wrap(ErrNoParent, "parent released")
	}
	return h.wrap(parent), nil
}

func (h *Node) Children() ([]*Node, error) {
	n, err := h.get()
	if err != nil {
		return nil, err
	}
	children := make([]*Node, len(n.children))
	for idx, child := range n.children {
		children[idx] = h.wrap(child)
	}
	return children, nil
}

// Text returns the content of text and comment nodes. Elements report the
// text of their first child.
func (h *Node) Text() (string, error) {
	n, err := h.get()
	if err != nil {
		return "", err
	}
	return n.text(), nil
}

// Descendants returns a pre-order sequence over every node below h.
func (h *Node) Descendants() (iter.Seq[*Node], error) {
	n, err := h.get()
	if err != nil {
		return nil, err
	}
	return func(yield func(*Node) bool) {
		n.walk(func(child *node) bool {
			return yield(h.wrap(child))
		})
	}, nil
}

func (h *Node) traverse(match func(*node) bool, cb Visitor) error {
	n, err := h.get()
	if err != nil {
		return err
	}
	n.walk(func(child *node) bool {
		if match(child) {
			cb(h.wrap(child))
		}
		return true
	})
	return nil
}

// Traverse visits every descendant of h depth-first, in document order.
func (h *Node) Traverse(cb Visitor) error {
	return h.traverse(func(*node) bool { return true }, cb)
}

func (h *Node) TraverseComments(cb Visitor) error {
	return h.traverse(func(n *node) bool { return n.kind == KindComment }, cb)
}

func (h *Node) NodesByName(name string, cb Visitor) error {
	return h.traverse(func(n *node) bool {
		return n.kind == KindElement && strings.EqualFold(n.name, name)
	}, cb)
}

func (h *Node) NodesByNames(names []string, cb Visitor) error {
	for _, name := range names {
		if err := h.NodesByName(name, cb); err != nil {
			return err
		}
	}
	return nil
}

// NodesByAttributeNameAndValue visits elements carrying an attribute with
// the given name and value. Elements with several matches are visited once.
func (h *Node) NodesByAttributeNameAndValue(name, value string, cb Visitor) error {
	return h.traverse(func(n *node) bool {
		if n.kind != KindElement {
			return false
		}
		for _, attr := range n.attrs {
			if strings.EqualFold(attr.Name, name) && strings.EqualFold(attr.Value, value) {
				return true
			}
		}
		return false
	}, cb)
}

// Free drops the handle's reference to its node. Other handles to the same
// node are unaffected.
func (h *Node) Free() {
	if h == nil {
		return
	}
	h.n = nil
	h.root = nil
}
