package elab

import (
	"fmt"

	"svlang/internal/diag"
	"svlang/internal/source"
	"svlang/internal/syntax"
	"svlang/internal/types"
)

// Builder resolves the declared parameters of one definition against
// the actual arguments of one instantiation. It mutates only its own
// assignment state and the target scope, so one builder serves exactly
// one instantiation.
type Builder struct {
	scope *Scope
	decls []ParamDecl

	// assignments maps parameter name to its instance argument, after
	// positional pairing. Local parameters never get entries.
	assignments map[string]syntax.ParamAssignment

	anyErrors bool
}

// NewBuilder creates a builder for one instantiation of the
// definition whose flattened parameter declarations are decls.
func NewBuilder(scope *Scope, decls []ParamDecl) *Builder {
	return &Builder{
		scope:       scope,
		decls:       decls,
		assignments: make(map[string]syntax.ParamAssignment),
	}
}

// Decls returns the flattened declarations in order.
func (b *Builder) Decls() []ParamDecl {
	return b.decls
}

// AnyErrors reports whether any diagnostic was generated since the
// builder was created.
func (b *Builder) AnyErrors() bool {
	return b.anyErrors
}

// SetAssignments partitions the instantiation's argument list into
// ordered or named form and pairs each argument with a declared
// parameter. Mixing both forms is a single hard error and applies
// none of the list. Later calls layer over earlier ones, which is how
// configuration-driven argument lists stack onto instance arguments.
func (b *Builder) SetAssignments(list []syntax.ParamAssignment) {
	var ordered []syntax.ParamAssignment
	var named []syntax.ParamAssignment
	seen := make(map[string]source.Span)

	for _, pa := range list {
		if (pa.Named && len(ordered) > 0) || (!pa.Named && len(named) > 0) {
			b.error(diag.ElabMixingParamAssignments, pa.Span,
				fmt.Sprintf("cannot mix ordered and named parameter assignments in instantiation of %q",
					b.scope.DefinitionName)).Emit()
			return
		}
		if !pa.Named {
			ordered = append(ordered, pa)
			continue
		}
		if first, dup := seen[pa.Name]; dup {
			b.error(diag.ElabDuplicateParamAssignment, pa.NameSpan,
				fmt.Sprintf("parameter %q assigned more than once", pa.Name)).
				WithNote(first, "previous assignment here").Emit()
			continue
		}
		seen[pa.Name] = pa.NameSpan
		named = append(named, pa)
	}

	if len(ordered) > 0 {
		b.applyOrdered(ordered)
	}
	if len(named) > 0 {
		b.applyNamed(named)
	}
}

// applyOrdered walks declarations in order, handing each non-local
// parameter the next positional argument. Local parameters occupy no
// position.
func (b *Builder) applyOrdered(ordered []syntax.ParamAssignment) {
	index := 0
	for i := range b.decls {
		decl := &b.decls[i]
		if decl.IsLocalParam {
			continue
		}
		if index >= len(ordered) {
			return
		}
		b.assignments[decl.Name] = ordered[index]
		index++
	}
	if index < len(ordered) {
		b.error(diag.ElabTooManyParamAssignments, ordered[index].Span,
			fmt.Sprintf("too many parameter assignments for %q: %d supplied, %d accepted",
				b.scope.DefinitionName, len(ordered), index)).Emit()
	}
}

func (b *Builder) applyNamed(named []syntax.ParamAssignment) {
	byName := make(map[string]*ParamDecl, len(b.decls))
	for i := range b.decls {
		decl := &b.decls[i]
		if _, ok := byName[decl.Name]; !ok {
			byName[decl.Name] = decl
		}
	}

	for _, pa := range named {
		decl, ok := byName[pa.Name]
		if !ok {
			b.error(diag.ElabParamDoesNotExist, pa.NameSpan,
				fmt.Sprintf("%q is not a parameter of %q", pa.Name, b.scope.DefinitionName)).Emit()
			continue
		}
		if decl.IsLocalParam {
			code := diag.ElabAssignedToLocalBodyParam
			if decl.IsPortParam {
				code = diag.ElabAssignedToLocalPortParam
			}
			b.error(code, pa.NameSpan,
				fmt.Sprintf("%q is a localparam of %q and cannot be overridden", pa.Name, b.scope.DefinitionName)).
				WithNote(decl.Location, "declared here").Emit()
			continue
		}
		if pa.Expr == nil {
			// An empty named argument means "use the default".
			continue
		}
		b.assignments[decl.Name] = pa
	}
}

// CreateParams binds every declared parameter in order and returns
// the created symbols.
func (b *Builder) CreateParams(ctx *Context) []Symbol {
	out := make([]Symbol, 0, len(b.decls))
	for i := range b.decls {
		out = append(out, b.CreateParam(&b.decls[i], ctx))
	}
	return out
}

// CreateParam binds one declared parameter. The symbol registers into
// the scope before its value or type resolves, so sibling
// declarations introduced by the resolution can see it.
func (b *Builder) CreateParam(decl *ParamDecl, ctx *Context) Symbol {
	if ctx == nil {
		ctx = &Context{}
	}
	if decl.IsTypeParam {
		return b.createTypeParam(decl, ctx)
	}
	return b.createValueParam(decl, ctx)
}

func (b *Builder) createValueParam(decl *ParamDecl, ctx *Context) *ParameterSymbol {
	sym := &ParameterSymbol{
		Name:     decl.Name,
		Location: decl.Location,
		IsLocal:  decl.IsLocalParam,
		IsPort:   decl.IsPortParam,
	}
	if decl.HasSyntax {
		sym.TypeSyntax = decl.Type
		sym.InitSyntax = decl.Initializer
	}

	assigned, hasAssigned := b.assignments[decl.Name]
	if hasAssigned && !decl.IsLocalParam {
		sym.InitSyntax = assigned.Expr
		sym.Overridden = true
	}

	b.scope.AddMember(sym)

	declType := b.declaredType(decl, ctx)
	finish := func(v types.Value) {
		if declType != nil && v.IsValid() {
			v = types.Coerce(v, declType)
		}
		t := declType
		if t == nil {
			t = types.TypeOf(v)
		}
		if !v.IsValid() {
			t = types.Error
		}
		sym.setValue(v, t)
	}

	if !decl.IsLocalParam {
		if override, ok := ctx.Overrides[decl.Name]; ok {
			finish(override)
			return sym
		}
		if ctx.ForceInvalid {
			sym.setValue(types.Value{}, types.Error)
			return sym
		}
		if hasAssigned {
			if ctx.Eval == nil {
				sym.setValue(types.Value{}, types.Error)
				return sym
			}
			v, _ := ctx.Eval.EvalValue(assigned.Expr)
			finish(v)
			return sym
		}
	}

	if decl.HasSyntax && decl.Initializer != nil {
		if ctx.Eval == nil {
			sym.setValue(types.Value{}, types.Error)
			return sym
		}
		v, _ := ctx.Eval.EvalValue(decl.Initializer)
		finish(v)
		return sym
	}
	if !decl.HasSyntax && decl.GivenInitializer.IsValid() {
		finish(decl.GivenInitializer)
		return sym
	}

	if decl.IsPortParam && !decl.IsLocalParam {
		b.reportNoValue(decl, ctx)
	}
	sym.setValue(types.Value{}, types.Error)
	return sym
}

func (b *Builder) createTypeParam(decl *ParamDecl, ctx *Context) *TypeParameterSymbol {
	sym := &TypeParameterSymbol{
		Name:     decl.Name,
		Location: decl.Location,
		IsLocal:  decl.IsLocalParam,
		IsPort:   decl.IsPortParam,
	}
	if decl.HasSyntax {
		sym.DefaultSyntax = decl.Initializer
	}

	if assigned, ok := b.assignments[decl.Name]; ok && !decl.IsLocalParam {
		expr := assigned.Expr
		// A bare identifier parses as a value expression; as a type
		// argument it must be reinterpreted as a type reference.
		if expr.IsName() {
			expr = expr.AsDataType()
		}
		if !expr.IsDataType() {
			b.report(ctx, diag.ElabBadTypeParamExpr, expr.Span,
				fmt.Sprintf("expression is not a valid data type for type parameter %q", decl.Name)).Emit()
		} else {
			sym.OverrideSyntax = expr
			sym.Overridden = true
		}
	}

	b.scope.AddMember(sym)

	// This is the one override path open to a localparam type.
	if override, ok := ctx.TypeOverrides[decl.Name]; ok {
		sym.target = override
		return sym
	}
	if ctx.ForceInvalid && !decl.IsLocalParam {
		sym.target = types.Error
		return sym
	}
	if sym.OverrideSyntax != nil {
		if ctx.Eval != nil {
			if t, ok := ctx.Eval.EvalType(sym.OverrideSyntax); ok {
				sym.target = t
				return sym
			}
		}
		sym.target = types.Error
		return sym
	}

	if decl.HasSyntax && decl.Initializer != nil {
		if ctx.Eval != nil {
			if t, ok := ctx.Eval.EvalType(decl.Initializer); ok {
				sym.target = t
				return sym
			}
		}
		sym.target = types.Error
		return sym
	}
	if !decl.HasSyntax && decl.GivenDefault != nil {
		sym.target = decl.GivenDefault
		return sym
	}

	if decl.IsPortParam && !decl.IsLocalParam {
		b.reportNoValue(decl, ctx)
	}
	sym.target = types.Error
	return sym
}

func (b *Builder) declaredType(decl *ParamDecl, ctx *Context) *types.Type {
	if !decl.HasSyntax {
		return decl.GivenType
	}
	if decl.Type == nil || ctx.Eval == nil {
		return nil
	}
	if t, ok := ctx.Eval.EvalType(decl.Type); ok {
		return t
	}
	return types.Error
}

func (b *Builder) reportNoValue(decl *ParamDecl, ctx *Context) {
	primary := ctx.InstanceLoc
	if primary == (source.Span{}) {
		primary = decl.Location
	}
	b.report(ctx, diag.ElabParamHasNoValue, primary,
		fmt.Sprintf("no value provided for parameter %q in instantiation of %q",
			decl.Name, b.scope.DefinitionName)).
		WithNote(decl.Location, "declared here").Emit()
}

func (b *Builder) report(ctx *Context, code diag.Code, primary source.Span, msg string) *diag.ReportBuilder {
	b.anyErrors = true
	if ctx.SuppressErrors {
		return nil
	}
	return b.error(code, primary, msg)
}

func (b *Builder) error(code diag.Code, primary source.Span, msg string) *diag.ReportBuilder {
	b.anyErrors = true
	return diag.ReportError(b.scope.Reporter(), code, primary, msg)
}
