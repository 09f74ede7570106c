package auditdom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func children(t *testing.T, n *Node) []*Node {
	t.Helper()
	out, err := n.Children()
	require.NoError(t, err)
	return out
}

func nameOf(t *testing.T, n *Node) string {
	t.Helper()
	name, err := n.Name()
	require.NoError(t, err)
	return name
}

func TestHandler(t *testing.T) {
	t.Run("builds nested elements", func(t *testing.T) {
		h := NewHandler(false, nil)
		h.StartElement("div", nil, false)
		h.StartElement("p", nil, false)
		h.Text("  Hello  ")
		h.EndElement("p")
		h.EndElement("div")

		div := children(t, h.Root())
		require.Len(t, div, 1)
		assert.Equal(t, "div", nameOf(t, div[0]))
		p := children(t, div[0])
		require.Len(t, p, 1)
		text := children(t, p[0])
		require.Len(t, text, 1)
		content, err := text[0].Text()
		require.NoError(t, err)
		assert.Equal(t, "Hello", content)
	})
	t.Run("root is never popped past", func(t *testing.T) {
		h := NewHandler(false, nil)
		h.EndElement("div")
		h.EndElement("html")
		h.StartElement("form", nil, false)
		assert.Len(t, children(t, h.Root()), 1)
	})
	t.Run("void elements are leaves", func(t *testing.T) {
		h := NewHandler(false, nil)
		h.StartElement("img", []Attr{{"src", "foo"}}, false)
		h.Text("not a child")
		h.EndElement("img")

		nodes := children(t, h.Root())
		require.Len(t, nodes, 2)
		selfClosing, err := nodes[0].SelfClosing()
		require.NoError(t, err)
		assert.True(t, selfClosing)
		assert.Empty(t, children(t, nodes[0]))
		kind, err := nodes[1].Kind()
		require.NoError(t, err)
		assert.Equal(t, KindText, kind)
	})
	t.Run("self closing hint", func(t *testing.T) {
		h := NewHandler(false, nil)
		h.StartElement("div", nil, true)
		h.StartElement("span", nil, false)
		nodes := children(t, h.Root())
		require.Len(t, nodes, 2)
		assert.Empty(t, children(t, nodes[0]))
	})
	t.Run("denied subtree materializes nothing", func(t *testing.T) {
		h := NewHandler(true, nil)
		h.StartElement("form", nil, false)
		h.StartElement("div", nil, false)
		h.StartElement("span", nil, false)
		h.Text("x")
		h.EndElement("span")
		h.EndElement("div")
		assert.Equal(t, 0, h.Depth())
		h.EndElement("form")

		form := children(t, h.Root())
		require.Len(t, form, 1)
		assert.Equal(t, "form", nameOf(t, form[0]))
		assert.Empty(t, children(t, form[0]))
		assert.Equal(t, 2, h.Stats().Denied[KindElement])
		assert.Equal(t, 1, h.Stats().Denied[KindText])
	})
	t.Run("allowed elements attach to the last kept ancestor", func(t *testing.T) {
		h := NewHandler(true, nil)
		h.StartElement("html", nil, false)
		h.StartElement("body", nil, false)
		h.StartElement("form", nil, false)
		h.StartElement("div", nil, false)
		h.StartElement("input", []Attr{{"name", "q"}}, false)
		h.EndElement("div")
		h.EndElement("form")
		h.EndElement("body")
		h.EndElement("html")
		assert.Equal(t, 0, h.Depth())

		form := children(t, h.Root())
		require.Len(t, form, 1)
		input := children(t, form[0])
		require.Len(t, input, 1)
		assert.Equal(t, "input", nameOf(t, input[0]))
	})
	t.Run("comments ignore the filter", func(t *testing.T) {
		for _, filter := range []bool{true, false} {
			h := NewHandler(filter, nil)
			h.StartElement("div", nil, false)
			h.Comment("  note ")
			h.Comment("   ")
			h.EndElement("div")
			var comments []string
			require.NoError(t, h.Root().TraverseComments(func(n *Node) {
				text, err := n.Text()
				require.NoError(t, err)
				comments = append(comments, text)
			}))
			assert.Equal(t, []string{"note"}, comments)
		}
	})
	t.Run("null character is text", func(t *testing.T) {
		h := NewHandler(true, nil)
		h.StartElement("script", nil, false)
		h.NullCharacter()
		h.EndElement("script")
		script := children(t, h.Root())
		require.Len(t, script, 1)
		text, err := script[0].Text()
		require.NoError(t, err)
		assert.Equal(t, "\x00", text)
	})
	t.Run("mismatched end tag pops the cursor", func(t *testing.T) {
		h := NewHandler(true, nil)
		h.StartElement("form", nil, false)
		h.StartElement("div", nil, false)
		// </span> does not match the skipped div and closes the form instead.
		h.EndElement("span")
		h.StartElement("input", nil, false)
		assert.Equal(t, 1, h.Depth())

		nodes := children(t, h.Root())
		require.Len(t, nodes, 2)
		assert.Equal(t, "form", nameOf(t, nodes[0]))
		assert.Equal(t, "input", nameOf(t, nodes[1]))
	})
	t.Run("denied void element stays on the skip stack", func(t *testing.T) {
		h := NewHandler(true, nil)
		h.StartElement("img", nil, false)
		assert.Equal(t, 1, h.Depth())
		h.StartElement("form", nil, false)
		h.EndElement("form")
		assert.Len(t, children(t, h.Root()), 1)
	})
	t.Run("custom policy", func(t *testing.T) {
		h := NewHandler(true, func(parent string, kind Kind, name string, attrs []Attr) bool {
			return kind == KindElement && name == "div"
		})
		h.StartElement("div", nil, false)
		h.StartElement("form", nil, false)
		h.EndElement("form")
		h.EndElement("div")
		nodes := children(t, h.Root())
		require.Len(t, nodes, 1)
		assert.Equal(t, "div", nameOf(t, nodes[0]))
		assert.Empty(t, children(t, nodes[0]))
	})
	t.Run("stats", func(t *testing.T) {
		h := NewHandler(false, nil)
		h.StartElement("div", nil, false)
		h.Text("a")
		h.Comment("b")
		h.EndElement("div")
		stats := h.Stats()
		assert.Equal(t, 1, stats.Created[KindDocument])
		assert.Equal(t, 1, stats.Created[KindElement])
		assert.Equal(t, 1, stats.Created[KindText])
		assert.Equal(t, 1, stats.Created[KindComment])
		assert.Empty(t, stats.Denied)
	})
}
