package auditdom

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultIndent = 4

	doctype         = "<!DOCTYPE html>"
	attrOpen        = `="`
	dquoteEscape    = `\"`
	tagSelfClose    = " />"
	closeTagOpen    = "</"
	commentOpen     = "<!-- "
	commentClose    = " -->"
	openTagOpen     = '<'
	tagClose        = '>'
	space           = ' '
	newline         = '\n'
	attrClose       = '"'
	attrValueDquote = `"`
)

type renderer struct {
	Indent int
	Writer *bufio.Writer
}

func (r *renderer) writeIndent(level int) {
	for range r.Indent * level {
		r.Writer.WriteByte(space)
	}
}

func (r *renderer) writeDocument(n *node, level int) {
	r.Writer.WriteString(doctype)
	r.Writer.WriteByte(newline)
	for _, child := range n.children {
		r.renderNode(child, level)
	}
	r.Writer.WriteByte(newline)
}

func (r *renderer) writeElement(n *node, level int) {
	r.writeIndent(level)
	r.Writer.WriteByte(openTagOpen)
	r.Writer.WriteString(n.name)
	for _, attr := range n.attrs {
		r.Writer.WriteByte(space)
		r.Writer.WriteString(attr.Name)
		r.Writer.WriteString(attrOpen)
		r.Writer.WriteString(strings.ReplaceAll(attr.Value, attrValueDquote, dquoteEscape))
		r.Writer.WriteByte(attrClose)
	}
	if n.selfClosing {
		r.Writer.WriteString(tagSelfClose)
		r.Writer.WriteByte(newline)
		return
	}
	r.Writer.WriteByte(tagClose)
	r.Writer.WriteByte(newline)
	for _, child := range n.children {
		r.renderNode(child, level+1)
	}
	r.writeIndent(level)
	r.Writer.WriteString(closeTagOpen)
	r.Writer.WriteString(n.name)
	r.Writer.WriteByte(tagClose)
	r.Writer.WriteByte(newline)
}

func (r *renderer) writeCharData(n *node, level int) {
	r.writeIndent(level)
	r.Writer.WriteString(n.content)
	r.Writer.WriteByte(newline)
}

func (r *renderer) writeComment(n *node, level int) {
	r.writeIndent(level)
	r.Writer.WriteString(commentOpen)
	r.Writer.WriteString(n.content)
	r.Writer.WriteString(commentClose)
	r.Writer.WriteByte(newline)
}

func (r *renderer) renderNode(n *node, level int) {
	switch n.kind {
	case KindDocument:
		r.writeDocument(n, level)
	case KindElement:
		r.writeElement(n, level)
	case KindText:
		r.writeCharData(n, level)
	case KindComment:
		r.writeComment(n, level)
	}
}

// Render serializes h and its descendants to w, indenting every nesting
// level by indent spaces and starting at level.
func Render(w io.Writer, h *Node, indent, level int) error {
	n, err := h.get()
	if err != nil {
		return err
	}
	r := &renderer{
		Indent: indent,
		Writer: bufio.NewWriter(w),
	}
	r.renderNode(n, level)
	return errors.WithStack(r.Writer.Flush())
}

func (h *Node) ToHTML(indent, level int) (string, error) {
	w := &strings.Builder{}
	if err := Render(w, h, indent, level); err != nil {
		return "", err
	}
	return w.String(), nil
}

func (h *Node) String() string {
	out, err := h.ToHTML(DefaultIndent, 0)
	if err != nil {
		return ""
	}
	return out
}
