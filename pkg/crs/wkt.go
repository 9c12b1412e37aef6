package crs

import (
	"fmt"
	"strconv"
	"strings"
)

// wktNode is one KEYWORD[...] element of a WKT1/WKT2 string.
// Args hold string, float64 or *wktNode values in source order.
type wktNode struct {
	Keyword string
	Args    []any
}

func (n *wktNode) child(keyword string) *wktNode {
	for _, a := range n.Args {
		if c, ok := a.(*wktNode); ok && strings.EqualFold(c.Keyword, keyword) {
			return c
		}
	}
	return nil
}

func (n *wktNode) children(keyword string) []*wktNode {
	var out []*wktNode
	for _, a := range n.Args {
		if c, ok := a.(*wktNode); ok && strings.EqualFold(c.Keyword, keyword) {
			out = append(out, c)
		}
	}
	return out
}

// firstChild returns the first child matching any of the keywords.
func (n *wktNode) firstChild(keywords ...string) *wktNode {
	for _, k := range keywords {
		if c := n.child(k); c != nil {
			return c
		}
	}
	return nil
}

func (n *wktNode) name() string {
	if n == nil || len(n.Args) == 0 {
		return ""
	}
	s, _ := n.Args[0].(string)
	return s
}

func (n *wktNode) number(i int) (float64, bool) {
	if n == nil || i >= len(n.Args) {
		return 0, false
	}
	switch v := n.Args[i].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

type wktParser struct {
	src string
	pos int
}

func parseWKT(s string) (*wktNode, error) {
	p := &wktParser{src: s}
	p.skipSpace()
	n, err := p.node()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected trailing data at offset %d", p.pos)
	}
	return n, nil
}

func (p *wktParser) node() (*wktNode, error) {
	kw := p.ident()
	if kw == "" {
		return nil, fmt.Errorf("expected keyword at offset %d", p.pos)
	}
	p.skipSpace()
	if p.pos >= len(p.src) || (p.src[p.pos] != '[' && p.src[p.pos] != '(') {
		return nil, fmt.Errorf("expected '[' after %s at offset %d", kw, p.pos)
	}
	closer := byte(']')
	if p.src[p.pos] == '(' {
		closer = ')'
	}
	p.pos++

	n := &wktNode{Keyword: kw}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("unterminated %s", kw)
		}
		if p.src[p.pos] == closer {
			p.pos++
			return n, nil
		}
		if len(n.Args) > 0 {
			if p.src[p.pos] != ',' {
				return nil, fmt.Errorf("expected ',' in %s at offset %d", kw, p.pos)
			}
			p.pos++
			p.skipSpace()
		}
		arg, err := p.value()
		if err != nil {
			return nil, err
		}
		n.Args = append(n.Args, arg)
	}
}

func (p *wktParser) value() (any, error) {
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("unexpected end of WKT")
	}
	c := p.src[p.pos]
	switch {
	case c == '"':
		return p.quoted()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		start := p.pos
		for p.pos < len(p.src) && strings.IndexByte("+-.0123456789eE", p.src[p.pos]) >= 0 {
			p.pos++
		}
		f, err := strconv.ParseFloat(p.src[start:p.pos], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p.src[start:p.pos], err)
		}
		return f, nil
	}

	// Either a nested node or a bare enum such as NORTH.
	save := p.pos
	id := p.ident()
	if id == "" {
		return nil, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
	}
	p.skipSpace()
	if p.pos < len(p.src) && (p.src[p.pos] == '[' || p.src[p.pos] == '(') {
		p.pos = save
		return p.node()
	}
	return id, nil
}

func (p *wktParser) quoted() (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		if c != '"' {
			b.WriteByte(c)
			continue
		}
		// "" is an escaped quote
		if p.pos < len(p.src) && p.src[p.pos] == '"' {
			b.WriteByte('"')
			p.pos++
			continue
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("unterminated string")
}

func (p *wktParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *wktParser) skipSpace() {
	for p.pos < len(p.src) && strings.IndexByte(" \t\r\n", p.src[p.pos]) >= 0 {
		p.pos++
	}
}
