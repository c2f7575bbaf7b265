package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// maxAncestorDepth bounds the upward walk in AncestorField.
const maxAncestorDepth = 5

// GetterKind selects how a matched element is turned into a string.
type GetterKind int

const (
	// GetText returns the trimmed element text with NBSPs normalized.
	GetText GetterKind = iota
	// GetHref returns the href attribute resolved against the page URL.
	GetHref
	// GetAttr returns a named attribute verbatim, minus a literal "None".
	GetAttr
	// GetTransform applies a custom function to the element text.
	GetTransform
)

// Getter is a closed tagged variant; Attr is set for GetAttr and Transform
// for GetTransform.
type Getter struct {
	Kind      GetterKind
	Attr      string
	Transform func(string) string
}

// Text returns the plain-text getter.
func Text() Getter { return Getter{Kind: GetText} }

// Href returns the link getter.
func Href() Getter { return Getter{Kind: GetHref} }

// Attr returns a raw-attribute getter for the named attribute.
func Attr(name string) Getter { return Getter{Kind: GetAttr, Attr: name} }

// Transform returns a getter applying fn to the element text.
func Transform(fn func(string) string) Getter { return Getter{Kind: GetTransform, Transform: fn} }

// FieldSpec describes where a field lives in a document. When Container is
// set, selection is two-stage: all containers are matched first and at most
// one field per container, so sibling extractions stay index-aligned.
type FieldSpec struct {
	Container string
	Selector  string
	Getter    Getter
}

// Strings extracts one value per matched position. With a container selector
// the result has one entry per container; a container without a field match
// contributes an empty string.
func Strings(doc *goquery.Document, spec FieldSpec) []string {
	var out []string
	base := doc.Url
	for _, sel := range selections(doc, spec) {
		out = append(out, apply(sel, spec.Getter, base))
	}
	return out
}

// Nodes returns the raw selections for multi-step relative traversal.
func Nodes(doc *goquery.Document, spec FieldSpec) []*goquery.Selection {
	return selections(doc, spec)
}

// selections resolves the container/field stages. A nil entry marks a
// container whose field selector matched nothing.
func selections(doc *goquery.Document, spec FieldSpec) []*goquery.Selection {
	var out []*goquery.Selection
	if spec.Container != "" {
		doc.Find(spec.Container).Each(func(_ int, container *goquery.Selection) {
			field := container.Find(spec.Selector).First()
			if field.Length() == 0 {
				out = append(out, nil)
				return
			}
			out = append(out, field)
		})
		return out
	}
	doc.Find(spec.Selector).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, sel)
	})
	return out
}

// AncestorField locates anchors with anchorSelector, walks each anchor's
// ancestors up to a fixed depth looking for ancestorTag, then selects
// fieldSelector from that ancestor. Used when the only reliable field marker
// lives in a structurally distant ancestor.
func AncestorField(doc *goquery.Document, anchorSelector, ancestorTag, fieldSelector string, getter Getter) []string {
	var out []string
	base := doc.Url
	doc.Find(anchorSelector).Each(func(_ int, anchor *goquery.Selection) {
		ancestor := climb(anchor, ancestorTag)
		if ancestor == nil {
			out = append(out, "")
			return
		}
		field := ancestor.Find(fieldSelector).First()
		if field.Length() == 0 {
			out = append(out, "")
			return
		}
		out = append(out, apply(field, getter, base))
	})
	return out
}

// climb walks parent nodes until it finds tag or exhausts the depth ceiling.
func climb(sel *goquery.Selection, tag string) *goquery.Selection {
	cur := sel
	for depth := 0; depth < maxAncestorDepth; depth++ {
		cur = cur.Parent()
		if cur.Length() == 0 {
			return nil
		}
		node := cur.Get(0)
		if node.Type == html.ElementNode && strings.EqualFold(node.Data, tag) {
			return cur
		}
	}
	return nil
}

// apply turns one selection into a string per the getter semantics. A nil
// selection yields an empty string, preserving index alignment.
func apply(sel *goquery.Selection, g Getter, base *url.URL) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}

	switch g.Kind {
	case GetHref:
		href, _ := sel.Attr("href")
		return resolveHref(strings.TrimSpace(href), base)
	case GetAttr:
		val, _ := sel.Attr(g.Attr)
		val = strings.TrimSpace(val)
		val = strings.TrimPrefix(val, "None")
		val = strings.TrimSuffix(val, "None")
		return strings.TrimSpace(val)
	case GetTransform:
		if g.Transform == nil {
			return cleanText(sel.Text())
		}
		return g.Transform(cleanText(sel.Text()))
	default:
		return cleanText(sel.Text())
	}
}

// resolveHref leaves absolute links untouched and resolves relative ones
// against the page's own URL.
func resolveHref(href string, base *url.URL) string {
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if parsed.IsAbs() || base == nil {
		return href
	}
	return base.ResolveReference(parsed).String()
}

func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " ", " "))
}
