package syntax

import (
	"svlang/internal/source"
)

// declEnd maps a design-unit keyword to its closing keyword.
var declEnd = map[string]string{
	"module":      "endmodule",
	"macromodule": "endmodule",
	"interface":   "endinterface",
	"program":     "endprogram",
	"package":     "endpackage",
	"checker":     "endchecker",
	"class":       "endclass",
}

// moduleLike units can contain instantiations.
var moduleLike = map[string]bool{
	"endmodule":    true,
	"endinterface": true,
	"endprogram":   true,
	"endchecker":   true,
}

// extractor pulls loader-relevant metadata out of one buffer without
// building a full syntax tree. It is deliberately tolerant: anything
// it cannot classify it skips, because over-reporting a reference only
// causes a failed search-path probe, never an error.
type extractor struct {
	sc     *scanner
	queue  []token
	macros []Macro
	meta   Metadata
	stack  []string // expected closing keywords, innermost last
}

func newExtractor(file *source.File, names *source.Interner) *extractor {
	return &extractor{sc: newScanner(file, names)}
}

func (ex *extractor) next() token {
	if len(ex.queue) > 0 {
		t := ex.queue[0]
		ex.queue = ex.queue[1:]
		return t
	}
	return ex.sc.next()
}

func (ex *extractor) peek(k int) token {
	for len(ex.queue) <= k {
		ex.queue = append(ex.queue, ex.sc.next())
	}
	return ex.queue[k]
}

func (ex *extractor) insideModule() bool {
	return len(ex.stack) > 0 && moduleLike[ex.stack[len(ex.stack)-1]]
}

func (ex *extractor) run() {
	stmtStart := true
	for {
		t := ex.next()
		switch t.kind {
		case tokEOF:
			return

		case tokDirective:
			if t.text == "define" {
				name := ex.next()
				if name.kind == tokIdent {
					ex.macros = append(ex.macros, Macro{Name: name.text, Span: name.span})
					if len(ex.queue) == 0 {
						ex.sc.restOfLine()
					}
				}
			}

		case tokPunct:
			switch t.text {
			case ";", "{", "}":
				stmtStart = true
			default:
				stmtStart = false
			}

		case tokIdent:
			switch {
			case declEnd[t.text] != "":
				ex.handleDecl(t.text)
				stmtStart = true

			case len(ex.stack) > 0 && t.text == ex.stack[len(ex.stack)-1]:
				ex.stack = ex.stack[:len(ex.stack)-1]
				stmtStart = true

			case t.text == "import":
				ex.handleImport()
				stmtStart = true

			case t.text == "begin" || t.text == "end" || t.text == "fork" ||
				t.text == "join" || t.text == "join_any" || t.text == "join_none" ||
				t.text == "generate" || t.text == "endgenerate":
				stmtStart = true

			case svKeywords[t.text]:
				stmtStart = false

			default:
				if ex.peek(0).kind == tokScope {
					ex.meta.ScopedRefs = append(ex.meta.ScopedRefs, NameRef{Name: t.text, Span: t.span})
					ex.next() // ::
					stmtStart = false
					break
				}
				if stmtStart && ex.insideModule() && ex.tryInstantiation(t) {
					stmtStart = true
					break
				}
				stmtStart = false
			}

		default:
			stmtStart = false
		}
	}
}

// handleDecl processes a design-unit keyword: records the declared
// name (when at the top level), walks the header for interface ports,
// and pushes the closing keyword.
func (ex *extractor) handleDecl(kw string) {
	// Optional lifetime.
	for ex.peek(0).kind == tokIdent && (ex.peek(0).text == "automatic" || ex.peek(0).text == "static") {
		ex.next()
	}

	name := ex.peek(0)
	if name.kind != tokIdent || svKeywords[name.text] {
		ex.stack = append(ex.stack, declEnd[kw])
		return
	}
	ex.next()

	ref := NameRef{Name: name.text, Span: name.span}
	if len(ex.stack) == 0 {
		if kw == "class" {
			ex.meta.ClassDecls = append(ex.meta.ClassDecls, ref)
		} else {
			ex.meta.TopLevelDecls = append(ex.meta.TopLevelDecls, ref)
		}
	}
	ex.stack = append(ex.stack, declEnd[kw])

	if kw == "class" {
		return // class headers carry no interface ports
	}
	ex.walkHeader()
}

// walkHeader consumes a design-unit header up to its terminating
// semicolon, collecting interface-typed port candidates.
func (ex *extractor) walkHeader() {
	for {
		t := ex.peek(0)
		switch {
		case t.kind == tokEOF:
			return
		case t.kind == tokPunct && t.text == ";":
			ex.next()
			return
		case t.kind == tokPunct && t.text == "#":
			ex.next()
			if p := ex.peek(0); p.kind == tokPunct && p.text == "(" {
				ex.next()
				ex.skipParens(1)
			}
		case t.kind == tokPunct && t.text == "(":
			ex.next()
			ex.walkPortList()
		case t.kind == tokIdent && t.text == "import":
			ex.next()
			ex.handleImport()
		default:
			ex.next()
		}
	}
}

// walkPortList scans a parenthesized port list at depth 1, recording
// `iface [.modport] name` sequences as interface port references.
func (ex *extractor) walkPortList() {
	depth := 1
	for depth > 0 {
		t := ex.next()
		switch {
		case t.kind == tokEOF:
			return
		case t.kind == tokPunct && t.text == "(":
			depth++
		case t.kind == tokPunct && t.text == ")":
			depth--
		case depth == 1 && t.kind == tokIdent && !svKeywords[t.text]:
			if ex.peek(0).kind == tokScope {
				// Package-scoped port type; the scoped ref is enough.
				ex.meta.ScopedRefs = append(ex.meta.ScopedRefs, NameRef{Name: t.text, Span: t.span})
				ex.next()
				continue
			}
			la := ex.peek(0)
			if la.kind == tokPunct && la.text == "." {
				ex.next() // .
				if mp := ex.peek(0); mp.kind == tokIdent {
					ex.next()
				}
				if nm := ex.peek(0); nm.kind == tokIdent {
					ex.meta.InterfacePorts = append(ex.meta.InterfacePorts, NameRef{Name: t.text, Span: t.span})
				}
			} else if la.kind == tokIdent && !svKeywords[la.text] {
				ex.meta.InterfacePorts = append(ex.meta.InterfacePorts, NameRef{Name: t.text, Span: t.span})
			}
		}
	}
}

// handleImport records the package names of `import a::*, b::x;`.
func (ex *extractor) handleImport() {
	for {
		pkg := ex.peek(0)
		if pkg.kind != tokIdent || svKeywords[pkg.text] {
			return
		}
		ex.next()
		if sc := ex.peek(0); sc.kind != tokScope {
			return
		}
		ex.next() // ::
		ex.meta.PackageImports = append(ex.meta.PackageImports, NameRef{Name: pkg.text, Span: pkg.span})
		// Imported item: ident or *.
		if item := ex.peek(0); item.kind == tokIdent || (item.kind == tokPunct && item.text == "*") {
			ex.next()
		}
		if sep := ex.peek(0); sep.kind == tokPunct && sep.text == "," {
			ex.next()
			continue
		}
		return
	}
}

// tryInstantiation matches `Type inst (...)` or `Type #(...) inst (...)`
// at statement level, recording Type. Returns false without consuming
// anything when the shape does not match.
func (ex *extractor) tryInstantiation(t token) bool {
	n0 := ex.peek(0)

	if n0.kind == tokIdent && !svKeywords[n0.text] {
		if n1 := ex.peek(1); n1.kind == tokPunct && n1.text == "(" {
			ex.meta.Instantiations = append(ex.meta.Instantiations, NameRef{Name: t.text, Span: t.span})
			ex.next() // instance name
			ex.next() // (
			ex.skipParens(1)
			ex.skipToSemicolon()
			return true
		}
		return false
	}

	if n0.kind == tokPunct && n0.text == "#" {
		if n1 := ex.peek(1); n1.kind == tokPunct && n1.text == "(" {
			// Committed: `name #(` is not valid as anything else we
			// care about.
			ex.next() // #
			ex.next() // (
			ex.skipParens(1)
			inst := ex.peek(0)
			if inst.kind == tokIdent && !svKeywords[inst.text] {
				if open := ex.peek(1); open.kind == tokPunct && open.text == "(" {
					ex.meta.Instantiations = append(ex.meta.Instantiations, NameRef{Name: t.text, Span: t.span})
					ex.next()
					ex.next()
					ex.skipParens(1)
				}
			}
			ex.skipToSemicolon()
			return true
		}
	}

	return false
}

func (ex *extractor) skipParens(depth int) {
	for depth > 0 {
		t := ex.next()
		switch {
		case t.kind == tokEOF:
			return
		case t.kind == tokPunct && t.text == "(":
			depth++
		case t.kind == tokPunct && t.text == ")":
			depth--
		}
	}
}

func (ex *extractor) skipToSemicolon() {
	for {
		t := ex.peek(0)
		if t.kind == tokEOF {
			return
		}
		ex.next()
		if t.kind == tokPunct && t.text == ";" {
			return
		}
	}
}
