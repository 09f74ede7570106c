package auditdom

import "strings"

// Stats counts what a Handler did with the events it received.
type Stats struct {
	Created map[Kind]int
	Denied  map[Kind]int
}

// Handler turns a stream of tag, text and comment events into a tree.
// Elements rejected by the policy are never materialized: their names are
// pushed on a skip stack and popped by the matching end tags, while the
// cursor stays on the last accepted element.
type Handler struct {
	root    *node
	cursor  *node
	skipped []string
	filter  bool
	policy  Policy
	stats   Stats
}

func NewHandler(filter bool, policy Policy) *Handler {
	if policy == nil {
		policy = Allow
	}
	root := newDocument()
	return &Handler{
		root:   root,
		cursor: root,
		filter: filter,
		policy: policy,
		stats: Stats{
			Created: map[Kind]int{KindDocument: 1},
			Denied:  map[Kind]int{},
		},
	}
}

// Root returns a handle to the document being built.
func (h *Handler) Root() *Node {
	return &Node{n: h.root, root: h.root}
}

func (h *Handler) Stats() Stats {
	return h.stats
}

// Depth is the number of open skipped elements.
func (h *Handler) Depth() int {
	return len(h.skipped)
}

func (h *Handler) allow(kind Kind, name string, attrs []Attr) bool {
	if !h.filter {
		return true
	}
	if h.policy(h.cursor.name, kind, name, attrs) {
		return true
	}
	h.stats.Denied[kind]++
	return false
}

func (h *Handler) append(child *node) *node {
	h.stats.Created[child.kind]++
	return h.cursor.appendChild(child)
}

func (h *Handler) StartElement(name string, attrs []Attr, selfClosing bool) {
	if !h.allow(KindElement, name, attrs) {
		h.skipped = append(h.skipped, name)
		return
	}
	selfClosing = selfClosing || IsVoid(name)
	h.cursor = h.append(&node{
		kind:        KindElement,
		name:        name,
		attrs:       attrs,
		selfClosing: selfClosing,
	})
	if selfClosing {
		h.pop()
	}
}

func (h *Handler) EndElement(name string) {
	if h.filter && len(h.skipped) > 0 && h.skipped[len(h.skipped)-1] == name {
		h.skipped = h.skipped[:len(h.skipped)-1]
		return
	}
	h.pop()
}

func (h *Handler) pop() {
	if parent := h.cursor.parent.Value(); parent != nil && !h.cursor.isRoot() {
		h.cursor = parent
	}
}

func (h *Handler) Text(raw string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return
	}
	if !h.allow(KindText, "", nil) {
		return
	}
	h.append(&node{kind: KindText, content: text})
}

func (h *Handler) NullCharacter() {
	h.Text("\x00")
}

func (h *Handler) Comment(raw string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return
	}
	h.append(&node{kind: KindComment, content: text})
}
