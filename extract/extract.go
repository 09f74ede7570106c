// Package extract pulls candidate paths out of parsed documents: meta
// refresh targets and paths referenced by scripts.
package extract

import (
	"regexp"
	"strings"

	"auditdom"
)

var scriptPath = regexp.MustCompile(`[/a-zA-Z0-9%._-]+`)

// MetaRefresh returns the targets of every meta refresh directive in doc.
func MetaRefresh(doc *auditdom.Node) ([]string, error) {
	paths := make([]string, 0)
	var failed error
	err := doc.NodesByAttributeNameAndValue("http-equiv", "refresh", func(n *auditdom.Node) {
		if failed != nil {
			return
		}
		attrs, err := n.Attributes()
		if err != nil {
			failed = err
			return
		}
		if target, ok := refreshTarget(attrs["content"]); ok {
			paths = append(paths, target)
		}
	})
	if err != nil {
		return nil, err
	}
	return paths, failed
}

// refreshTarget parses "5; url=/next" style content.
func refreshTarget(content string) (string, bool) {
	_, target, ok := strings.Cut(content, ";")
	if !ok {
		return "", false
	}
	if _, value, found := strings.Cut(target, "="); found {
		target = value
	}
	return unquote(strings.TrimSpace(target)), true
}

func unquote(s string) string {
	for _, q := range []string{"'", `"`} {
		if len(s) >= 2 && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Scripts returns the src of every script element followed by the absolute
// paths its inline code mentions.
func Scripts(doc *auditdom.Node) ([]string, error) {
	paths := make([]string, 0)
	var failed error
	err := doc.NodesByName("script", func(n *auditdom.Node) {
		if failed != nil {
			return
		}
		attrs, err := n.Attributes()
		if err != nil {
			failed = err
			return
		}
		text, err := n.Text()
		if err != nil {
			failed = err
			return
		}
		seen := map[string]bool{}
		add := func(path string) {
			if seen[path] {
				return
			}
			seen[path] = true
			paths = append(paths, path)
		}
		if src, ok := attrs["src"]; ok {
			add(src)
		}
		for _, path := range FromText(text) {
			add(path)
		}
	})
	if err != nil {
		return nil, err
	}
	return paths, failed
}

// FromText finds tokens in script code that look like absolute paths to a
// file, e.g. /static/app.js.
func FromText(text string) []string {
	paths := make([]string, 0)
	for _, token := range scriptPath.FindAllString(text, -1) {
		if !strings.Contains(token, ".") || !strings.Contains(token, "/") {
			continue
		}
		if strings.Contains(token, "*") || strings.HasPrefix(token, "//") || !strings.HasPrefix(token, "/") {
			continue
		}
		paths = append(paths, token)
	}
	return paths
}
