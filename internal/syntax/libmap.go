package syntax

import (
	"svlang/internal/diag"
	"svlang/internal/source"
)

// MapMemberKind tags the members of a library map document.
type MapMemberKind uint8

const (
	MapMemberEmpty MapMemberKind = iota
	MapMemberConfig
	MapMemberInclude
	MapMemberLibrary
)

// FileSpec is one (possibly glob) path occurring in a map document.
type FileSpec struct {
	Pattern string
	Span    source.Span
}

// MapMember is one top-level member of a library map.
type MapMember struct {
	Kind MapMemberKind
	Span source.Span

	// Include member.
	Path FileSpec

	// Library member.
	Name      string
	FilePaths []FileSpec
	IncDirs   []FileSpec
}

// LibraryMap is a parsed library map document. The loader keeps these
// alive for the whole session so later diagnostics can point into them.
type LibraryMap struct {
	File    source.FileID
	Members []MapMember
}

// ParseLibraryMap parses a library map buffer. Parse problems are
// reported through r and the offending member is skipped; the rest of
// the document is still processed.
func ParseLibraryMap(m *source.Manager, id source.FileID, r diag.Reporter) *LibraryMap {
	p := &mapParser{sc: newScanner(m.Get(id), source.NewInterner()), reporter: r}
	doc := &LibraryMap{File: id}

	for {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return doc

		case t.kind == tokPunct && t.text == ";":
			doc.Members = append(doc.Members, MapMember{Kind: MapMemberEmpty, Span: t.span})

		case t.kind == tokIdent && t.text == "config":
			if member, ok := p.parseConfig(t); ok {
				doc.Members = append(doc.Members, member)
			}

		case t.kind == tokIdent && t.text == "include":
			if member, ok := p.parseInclude(t); ok {
				doc.Members = append(doc.Members, member)
			}

		case t.kind == tokIdent && t.text == "library":
			if member, ok := p.parseLibrary(t); ok {
				doc.Members = append(doc.Members, member)
			}

		default:
			diag.ReportError(r, diag.MapUnexpectedMember, t.span,
				"unexpected member in library map").Emit()
			p.skipToSemicolon()
		}
	}
}

type mapParser struct {
	sc       *scanner
	queue    []token
	reporter diag.Reporter
}

func (p *mapParser) next() token {
	if len(p.queue) > 0 {
		t := p.queue[0]
		p.queue = p.queue[1:]
		return t
	}
	return p.sc.next()
}

func (p *mapParser) peek() token {
	if len(p.queue) == 0 {
		p.queue = append(p.queue, p.sc.next())
	}
	return p.queue[0]
}

func (p *mapParser) skipToSemicolon() {
	for {
		t := p.next()
		if t.kind == tokEOF || (t.kind == tokPunct && t.text == ";") {
			return
		}
	}
}

func (p *mapParser) expectSemicolon(after source.Span) source.Span {
	t := p.peek()
	if t.kind == tokPunct && t.text == ";" {
		p.next()
		return after.Cover(t.span)
	}
	diag.ReportError(p.reporter, diag.MapExpectSemicolon, t.span,
		"expected ';' in library map").Emit()
	p.skipToSemicolon()
	return after
}

// parseConfig skips an opaque `config ... endconfig` block.
func (p *mapParser) parseConfig(start token) (MapMember, bool) {
	span := start.span
	for {
		t := p.next()
		if t.kind == tokEOF {
			diag.ReportError(p.reporter, diag.MapUnclosedConfig, start.span,
				"config declaration is never closed").Emit()
			return MapMember{}, false
		}
		if t.kind == tokIdent && t.text == "endconfig" {
			span = span.Cover(t.span)
			return MapMember{Kind: MapMemberConfig, Span: span}, true
		}
	}
}

func (p *mapParser) parseInclude(start token) (MapMember, bool) {
	t := p.peek()
	if t.kind != tokString {
		diag.ReportError(p.reporter, diag.MapExpectFilePath, t.span,
			"expected quoted file path after 'include'").Emit()
		p.skipToSemicolon()
		return MapMember{}, false
	}
	p.next()
	if t.text == "" {
		diag.ReportError(p.reporter, diag.MapBadFileSpec, t.span,
			"empty file path in include statement").Emit()
		p.skipToSemicolon()
		return MapMember{}, false
	}

	member := MapMember{
		Kind: MapMemberInclude,
		Span: start.span.Cover(t.span),
		Path: FileSpec{Pattern: t.text, Span: t.span},
	}
	member.Span = p.expectSemicolon(member.Span)
	return member, true
}

func (p *mapParser) parseLibrary(start token) (MapMember, bool) {
	name := p.peek()
	if name.kind != tokIdent {
		diag.ReportError(p.reporter, diag.MapExpectLibName, name.span,
			"expected library name").Emit()
		p.skipToSemicolon()
		return MapMember{}, false
	}
	p.next()

	member := MapMember{
		Kind: MapMemberLibrary,
		Span: start.span.Cover(name.span),
		Name: name.text,
	}

	// File path list, then an optional -incdir path list.
	target := &member.FilePaths
	for {
		t := p.peek()
		switch {
		case t.kind == tokString:
			p.next()
			if t.text == "" {
				diag.ReportError(p.reporter, diag.MapBadFileSpec, t.span,
					"empty file path in library declaration").Emit()
			} else {
				*target = append(*target, FileSpec{Pattern: t.text, Span: t.span})
			}
		case t.kind == tokPunct && t.text == ",":
			p.next()
		case t.kind == tokPunct && t.text == "-":
			p.next()
			if kw := p.peek(); kw.kind == tokIdent && kw.text == "incdir" {
				p.next()
				target = &member.IncDirs
			} else {
				diag.ReportError(p.reporter, diag.MapUnexpectedMember, kw.span,
					"expected 'incdir' after '-'").Emit()
				p.skipToSemicolon()
				return member, len(member.FilePaths) > 0
			}
		case t.kind == tokPunct && t.text == ";":
			p.next()
			member.Span = member.Span.Cover(t.span)
			return member, true
		default:
			diag.ReportError(p.reporter, diag.MapExpectFilePath, t.span,
				"expected quoted file path in library declaration").Emit()
			p.skipToSemicolon()
			return member, len(member.FilePaths) > 0
		}
	}
}
