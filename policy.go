package auditdom

import "strings"

const (
	setCookie = "set-cookie"
	refresh   = "refresh"
)

// Policy decides whether a candidate node may enter the tree below an
// element called parent. The document root is passed as an empty parent.
type Policy func(parent string, kind Kind, name string, attrs []Attr) bool

var (
	textParents = map[string]bool{
		"option":   true,
		"textarea": true,
		"title":    true,
		"script":   true,
	}
	alwaysAllowed = map[string]bool{
		"form":     true,
		"input":    true,
		"textarea": true,
		"option":   true,
		"title":    true,
		"script":   true,
	}
	voidElements = map[string]bool{
		"area":   true,
		"base":   true,
		"br":     true,
		"col":    true,
		"embed":  true,
		"frame":  true,
		"hr":     true,
		"img":    true,
		"input":  true,
		"keygen": true,
		"link":   true,
		"meta":   true,
		"param":  true,
		"source": true,
		"track":  true,
		"wbr":    true,
	}
)

// firstAttr returns the value of the first attribute called name.
func firstAttr(attrs []Attr, name string) (string, bool) {
	for _, attr := range attrs {
		if strings.EqualFold(attr.Name, name) {
			return attr.Value, true
		}
	}
	return "", false
}

// Allow is the audit policy: it keeps forms and their fields, links with a
// real target, frames with a source, cookie and refresh meta tags, titles
// and scripts. Text only survives inside option, textarea, title and script.
func Allow(parent string, kind Kind, name string, attrs []Attr) bool {
	switch kind {
	case KindText:
		return textParents[strings.ToLower(parent)]
	case KindElement:
	default:
		return false
	}

	name = strings.ToLower(name)
	if alwaysAllowed[name] {
		return true
	}
	switch name {
	case "frame", "iframe":
		src, ok := firstAttr(attrs, "src")
		return ok && src != ""
	case "a", "base", "area", "link":
		href, ok := firstAttr(attrs, "href")
		return ok && href != "" && href != "#"
	case "meta":
		equiv, ok := firstAttr(attrs, "http-equiv")
		if !ok {
			return false
		}
		equiv = strings.ToLower(equiv)
		return strings.Contains(equiv, setCookie) || strings.Contains(equiv, refresh)
	case "select", "button":
		for _, attr := range attrs {
			if (strings.EqualFold(attr.Name, "name") || strings.EqualFold(attr.Name, "id")) && attr.Value != "" {
				return true
			}
		}
	}
	return false
}

// IsVoid reports whether name can never have children.
func IsVoid(name string) bool {
	return voidElements[strings.ToLower(name)]
}
