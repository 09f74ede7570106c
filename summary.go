package auditdom

// Summary is a plain copy of a subtree, meant for encoders.
type Summary struct {
	Kind        string            `yaml:"kind" json:"kind"`
	Name        string            `yaml:"name,omitempty" json:"name,omitempty"`
	Attributes  map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	SelfClosing bool              `yaml:"self_closing,omitempty" json:"self_closing,omitempty"`
	Text        string            `yaml:"text,omitempty" json:"text,omitempty"`
	Children    []Summary         `yaml:"children,omitempty" json:"children,omitempty"`
}

func Summarize(h *Node) (Summary, error) {
	n, err := h.get()
	if err != nil {
		return Summary{}, err
	}
	return summarize(n), nil
}

func summarize(n *node) Summary {
	s := Summary{
		Kind:        n.kind.String(),
		Name:        n.name,
		SelfClosing: n.selfClosing,
	}
	switch n.kind {
	case KindText, KindComment:
		s.Text = n.content
	case KindElement:
		if len(n.attrs) > 0 {
			s.Attributes = n.attributes()
		}
	}
	for _, child := range n.children {
		s.Children = append(s.Children, summarize(child))
	}
	return s
}
