package compiler

import (
	"strings"

	"github.com/zhinjs/segment-matcher-sub000/engine"
)

// patternParser scans a pattern left to right, one construct at a time.
//
//	pattern       := (literal-run | typed-literal | parameter | optional)*
//	typed-literal := '{' kind [':' value] '}'
//	parameter     := '<' name [':' type] '>'
//	optional      := '[' ('...' name [':' type] | name [':' type] ['=' default]) ']'
type patternParser struct {
	src    string
	pos    int
	tokens []engine.Token

	lit strings.Builder
}

func parsePattern(pattern string) ([]engine.Token, error) {
	p := &patternParser{src: pattern, tokens: make([]engine.Token, 0, 4)}
	return p.parse()
}

func (p *patternParser) parse() ([]engine.Token, error) {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; c {
		case '{':
			p.flushLiteral()
			end, err := p.closing('{', '}', false)
			if err != nil {
				return nil, err
			}
			tok, err := p.typedLiteral(p.src[p.pos+1 : end])
			if err != nil {
				return nil, err
			}
			p.tokens = append(p.tokens, tok)
			p.pos = end + 1
		case '<':
			p.flushLiteral()
			end, err := p.closing('<', '>', false)
			if err != nil {
				return nil, err
			}
			tok, err := p.parameter(p.src[p.pos+1 : end])
			if err != nil {
				return nil, err
			}
			p.tokens = append(p.tokens, tok)
			p.pos = end + 1
		case '[':
			p.flushLiteral()
			end, err := p.closing('[', ']', true)
			if err != nil {
				return nil, err
			}
			tok, err := p.optional(p.src[p.pos+1 : end])
			if err != nil {
				return nil, err
			}
			p.tokens = append(p.tokens, tok)
			p.pos = end + 1
		case '}', '>', ']':
			return nil, engine.NewParseError(p.src, p.pos, "unexpected %q without matching opener", c)
		default:
			p.lit.WriteByte(c)
			p.pos++
		}
	}
	p.flushLiteral()
	return p.tokens, nil
}

// closing finds the bracket closing the construct opened at p.pos.
// With nested set, same-kind brackets nest and quoted text after '=' is skipped,
// so default values may carry JSON arrays and strings.
func (p *patternParser) closing(open, close byte, nested bool) (int, error) {
	depth := 0
	var quote byte
	inDefault := false
	for i := p.pos; i < len(p.src); i++ {
		c := p.src[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case nested && inDefault && (c == '"' || c == '\''):
			quote = c
		case nested && c == '=' && depth == 1:
			inDefault = true
		case c == open:
			depth++
			if depth > 1 && !nested {
				return 0, engine.NewParseError(p.src, i, "nested %q inside %q", open, open)
			}
		case c == close:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, engine.NewParseError(p.src, p.pos, "unmatched %q", open)
}

// flushLiteral emits the pending literal run. A run ending in exactly one space
// is split so the trailing separator becomes optional.
func (p *patternParser) flushLiteral() {
	text := p.lit.String()
	p.lit.Reset()
	if text == "" {
		return
	}
	if strings.HasSuffix(text, " ") && !strings.HasSuffix(text, "  ") {
		if head := text[:len(text)-1]; head != "" {
			p.tokens = append(p.tokens, engine.Literal{Text: head})
		}
		p.tokens = append(p.tokens, engine.Literal{Text: " ", Optional: true})
		return
	}
	p.tokens = append(p.tokens, engine.Literal{Text: text})
}

func (p *patternParser) typedLiteral(content string) (engine.Token, error) {
	kind, value, hasValue := strings.Cut(content, ":")
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return nil, engine.NewParseError(p.src, p.pos, "typed literal without segment kind")
	}
	return engine.TypedLiteral{SegmentKind: kind, Value: value, HasValue: hasValue}, nil
}

func (p *patternParser) parameter(content string) (engine.Token, error) {
	name, dataType, err := p.declaration(content)
	if err != nil {
		return nil, err
	}
	return engine.Parameter{Name: name, DataType: dataType}, nil
}

func (p *patternParser) optional(content string) (engine.Token, error) {
	if rest, ok := strings.CutPrefix(content, "..."); ok {
		name, dataType, _ := strings.Cut(rest, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, engine.NewParseError(p.src, p.pos, "rest parameter without name")
		}
		return engine.RestParameter{Name: name, DataType: strings.TrimSpace(dataType)}, nil
	}

	decl, rawDefault, hasDefault := strings.Cut(content, "=")
	name, dataType, err := p.declaration(decl)
	if err != nil {
		return nil, err
	}
	tok := engine.Parameter{Name: name, DataType: dataType, Optional: true}
	if hasDefault {
		tok.Default = ParseDefaultValue(rawDefault)
		tok.HasDefault = true
	}
	return tok, nil
}

// declaration splits "name[:type]"; the type defaults to text.
func (p *patternParser) declaration(decl string) (string, string, error) {
	name, dataType, _ := strings.Cut(decl, ":")
	name = strings.TrimSpace(name)
	dataType = strings.TrimSpace(dataType)
	if name == "" {
		return "", "", engine.NewParseError(p.src, p.pos, "parameter without name")
	}
	if dataType == "" {
		dataType = engine.DefaultDataType
	}
	return name, dataType, nil
}
