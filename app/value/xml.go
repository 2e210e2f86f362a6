package value

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html/charset"
)

const (
	AttributePrefix = "@_"
	TextKey         = "#text"

	xmlNamespace = "http://www.w3.org/XML/1998/namespace"
)

type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse XML: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse converts an XML document into a mapping of its root element name to
// the root's value. Attributes become "@_"-prefixed keys, repeated sibling
// elements become a List, and an element without attributes or children
// becomes its trimmed text.
func Parse(data []byte) (Value, error) {
	p := xpp.NewXMLPullParser(bytes.NewReader(data), true, charset.NewReaderLabel)

	doc := newBuilder()
	for {
		event, err := p.Next()
		if err != nil {
			return Value{}, &ParseError{Err: err}
		}

		switch event {
		case xpp.EndDocument:
			if doc.empty() {
				return Value{}, &ParseError{Err: errors.New("document has no root element")}
			}
			return doc.value(), nil
		case xpp.StartTag:
			name := qualify(p, p.Space, p.Name)
			root, err := parseElement(p)
			if err != nil {
				return Value{}, err
			}
			doc.add(name, root)
		case xpp.Text:
			if !p.IsWhitespace() {
				return Value{}, &ParseError{Err: errors.New("text outside of root element")}
			}
		}
	}
}

// parseElement expects the parser to sit on the element's StartTag and
// returns once the matching EndTag has been consumed.
func parseElement(p *xpp.XMLPullParser) (Value, error) {
	b := newBuilder()
	for _, attr := range p.Attrs {
		b.add(AttributePrefix+attributeName(p, attr.Name), String(attr.Value))
	}

	var text strings.Builder
	for {
		event, err := p.Next()
		if err != nil {
			return Value{}, &ParseError{Err: err}
		}

		switch event {
		case xpp.StartTag:
			name := qualify(p, p.Space, p.Name)
			child, err := parseElement(p)
			if err != nil {
				return Value{}, err
			}
			b.add(name, child)
		case xpp.Text:
			text.WriteString(p.Text)
		case xpp.EndTag:
			return b.finish(strings.TrimSpace(text.String())), nil
		case xpp.EndDocument:
			return Value{}, &ParseError{Err: errors.New("unexpected end of document")}
		}
	}
}

func attributeName(p *xpp.XMLPullParser, name xml.Name) string {
	switch {
	case name.Space == "xmlns":
		return "xmlns:" + name.Local
	case name.Space == "" && name.Local == "xmlns":
		return "xmlns"
	default:
		return qualify(p, name.Space, name.Local)
	}
}

// qualify restores the document prefix of a name. The decoder hands out the
// namespace URL, goxpp keeps the URL -> prefix table of the current scope.
func qualify(p *xpp.XMLPullParser, space, local string) string {
	if space == "" {
		return local
	}
	if space == xmlNamespace {
		return "xml:" + local
	}
	if prefix, ok := p.Spaces[space]; ok {
		if prefix == "" {
			return local
		}
		return prefix + ":" + local
	}
	// undeclared prefix, the decoder leaves it untranslated
	return space + ":" + local
}

type builder struct {
	keys  []string
	slots map[string][]Value
}

func newBuilder() *builder {
	return &builder{slots: make(map[string][]Value)}
}

func (b *builder) add(key string, v Value) {
	if _, ok := b.slots[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.slots[key] = append(b.slots[key], v)
}

func (b *builder) empty() bool {
	return len(b.keys) == 0
}

func (b *builder) finish(text string) Value {
	if b.empty() {
		return String(text)
	}
	if text != "" {
		b.add(TextKey, String(text))
	}
	return b.value()
}

func (b *builder) value() Value {
	pairs := make([]Pair, 0, len(b.keys))
	for _, key := range b.keys {
		values := b.slots[key]
		if len(values) == 1 {
			pairs = append(pairs, Pair{Key: key, Value: values[0]})
		} else {
			pairs = append(pairs, Pair{Key: key, Value: List(values...)})
		}
	}
	return Value{kind: KindMapping, pairs: pairs}
}
