package syntax

import (
	"svlang/internal/source"
)

// tokKind classifies scanner tokens. The scanner is not a full lexer:
// it produces just enough structure for metadata extraction and
// library map parsing.
type tokKind uint8

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokString    // quoted, text excludes the quotes
	tokDirective // `word, text excludes the backtick
	tokPunct     // single punctuation byte in text
	tokScope     // ::
)

type token struct {
	kind tokKind
	text string
	span source.Span
}

// scanner walks raw source bytes, skipping whitespace and comments.
// Identifier and directive spellings go through the interner so that
// repeated names across the buffers of one unit share storage.
type scanner struct {
	file  *source.File
	names *source.Interner
	pos   uint32
}

func newScanner(file *source.File, names *source.Interner) *scanner {
	return &scanner{file: file, names: names}
}

func (s *scanner) len() uint32 {
	return uint32(len(s.file.Content))
}

func (s *scanner) byteAt(i uint32) byte {
	return s.file.Content[i]
}

func (s *scanner) span(start, end uint32) source.Span {
	return source.Span{File: s.file.ID, Start: start, End: end}
}

func (s *scanner) text(sp source.Span) string {
	return string(s.file.Content[sp.Start:sp.End])
}

// internText returns the canonical copy of the spanned bytes.
func (s *scanner) internText(sp source.Span) string {
	return s.names.MustLookup(s.names.InternBytes(s.file.Content[sp.Start:sp.End]))
}

// skipTrivia advances past whitespace and comments.
func (s *scanner) skipTrivia() {
	for s.pos < s.len() {
		c := s.byteAt(s.pos)
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++
		case c == '/' && s.pos+1 < s.len() && s.byteAt(s.pos+1) == '/':
			for s.pos < s.len() && s.byteAt(s.pos) != '\n' {
				s.pos++
			}
		case c == '/' && s.pos+1 < s.len() && s.byteAt(s.pos+1) == '*':
			s.pos += 2
			for s.pos+1 < s.len() && !(s.byteAt(s.pos) == '*' && s.byteAt(s.pos+1) == '/') {
				s.pos++
			}
			if s.pos+1 < s.len() {
				s.pos += 2
			} else {
				s.pos = s.len()
			}
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (s *scanner) next() token {
	s.skipTrivia()
	if s.pos >= s.len() {
		return token{kind: tokEOF, span: s.span(s.pos, s.pos)}
	}

	start := s.pos
	c := s.byteAt(s.pos)

	switch {
	case isIdentStart(c):
		for s.pos < s.len() && isIdentCont(s.byteAt(s.pos)) {
			s.pos++
		}
		sp := s.span(start, s.pos)
		return token{kind: tokIdent, text: s.internText(sp), span: sp}

	case c >= '0' && c <= '9':
		// Numbers including based literals like 8'hFF; precision does
		// not matter here, just consume the token.
		for s.pos < s.len() {
			b := s.byteAt(s.pos)
			if isIdentCont(b) || b == '\'' || b == '.' {
				s.pos++
			} else {
				break
			}
		}
		sp := s.span(start, s.pos)
		return token{kind: tokNumber, text: s.text(sp), span: sp}

	case c == '"':
		s.pos++
		for s.pos < s.len() && s.byteAt(s.pos) != '"' {
			if s.byteAt(s.pos) == '\\' && s.pos+1 < s.len() {
				s.pos++
			}
			s.pos++
		}
		inner := s.span(start+1, s.pos)
		if s.pos < s.len() {
			s.pos++ // closing quote
		}
		return token{kind: tokString, text: s.text(inner), span: s.span(start, s.pos)}

	case c == '`':
		s.pos++
		nameStart := s.pos
		for s.pos < s.len() && isIdentCont(s.byteAt(s.pos)) {
			s.pos++
		}
		sp := s.span(nameStart, s.pos)
		return token{kind: tokDirective, text: s.internText(sp), span: s.span(start, s.pos)}

	case c == ':' && s.pos+1 < s.len() && s.byteAt(s.pos+1) == ':':
		s.pos += 2
		sp := s.span(start, s.pos)
		return token{kind: tokScope, text: "::", span: sp}

	default:
		s.pos++
		sp := s.span(start, s.pos)
		return token{kind: tokPunct, text: s.text(sp), span: sp}
	}
}

// restOfLine consumes to the end of the current line, honoring
// backslash continuations, and returns the consumed text.
func (s *scanner) restOfLine() string {
	start := s.pos
	for s.pos < s.len() {
		c := s.byteAt(s.pos)
		if c == '\n' {
			if s.pos > start && s.byteAt(s.pos-1) == '\\' {
				s.pos++
				continue
			}
			break
		}
		s.pos++
	}
	return string(s.file.Content[start:s.pos])
}
