package safas

import "math/big"

// special wraps a Go function as a KFunction Value whose arguments are
// passed to it unevaluated, matching the dispatch rule for special forms.
func special(name string, fn Builtin) *Value {
	return &Value{Kind: KFunction, Source: nativeLoc, Fun: &FunctionData{
		Name: name, Builtin: fn, Special: true,
	}}
}

func opQuote(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) != 1 {
		return nil, Errorf(CondArityError, "quote expects 1 argument, got %d", len(args)).WithSpan(call.Source)
	}
	return args[0], nil
}

// opIf implements (if cond (then-forms...) (else-forms...)): cond is a
// single form, but each branch is a list of forms run in sequence with
// EvalBody, so a branch can emit several statements before producing its
// value as the last form evaluated.
func opIf(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) != 2 && len(args) != 3 {
		return nil, Errorf(CondArityError, "if expects 2 or 3 arguments, got %d", len(args)).WithSpan(call.Source)
	}
	cond, err := Eval(env, args[0])
	if err != nil {
		return nil, err
	}
	var branch *Value
	if cond.IsTruthy() {
		branch = args[1]
	} else if len(args) == 3 {
		branch = args[2]
	} else {
		return Nil(), nil
	}
	if branch.Kind != KList {
		return nil, Errorf(CondTypeError, "if branch must be a list of forms").WithSpan(branch.Source)
	}
	return EvalBody(env, branch.Cells)
}

// opLet implements (let ((name expr) ...) body...): every init expression
// is evaluated left-to-right against the enclosing frame, never against
// the new bindings themselves, so one binding can't see another from the
// same let.
func opLet(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) < 1 || args[0].Kind != KList {
		return nil, Errorf(CondTypeError, "let expects a binding list as its first argument").WithSpan(call.Source)
	}
	frame := NewChildEnv(env)
	for _, b := range args[0].Cells {
		if b.Kind != KList || len(b.Cells) != 2 || b.Cells[0].Kind != KSymbol {
			return nil, Errorf(CondTypeError, "let binding must be (name expr)").WithSpan(b.Source)
		}
		val, err := Eval(env, b.Cells[1])
		if err != nil {
			return nil, err
		}
		if res := frame.Def(b.Cells[0].Str, val); res.IsError() {
			return nil, res.WithSpan(b.Source)
		}
	}
	return EvalBody(frame, args[1:])
}

func opDef(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) != 2 || args[0].Kind != KSymbol {
		return nil, Errorf(CondArityError, "def expects (def name expr)").WithSpan(call.Source)
	}
	val, err := Eval(env, args[1])
	if err != nil {
		return nil, err
	}
	if res := env.Def(args[0].Str, val); res.IsError() {
		return nil, res.WithSpan(call.Source)
	}
	return val, nil
}

// opFun implements (fun (params...) body...) and the named form
// (fun name (params...) body...), which additionally binds name to itself
// in its own closure so it can recurse.
func opFun(env *Env, args []*Value, call *Value) (*Value, *Value) {
	name := ""
	rest := args
	if len(rest) > 0 && rest[0].Kind == KSymbol {
		name = rest[0].Str
		rest = rest[1:]
	}
	if len(rest) < 1 || rest[0].Kind != KList {
		return nil, Errorf(CondTypeError, "fun expects a parameter list").WithSpan(call.Source)
	}
	params := make([]string, 0, len(rest[0].Cells))
	for _, p := range rest[0].Cells {
		if p.Kind != KSymbol {
			return nil, Errorf(CondTypeError, "fun parameters must be symbols").WithSpan(p.Source)
		}
		params = append(params, p.Str)
	}
	closureEnv := env
	fn := &Value{Kind: KFunction, Source: call.Source, Fun: &FunctionData{
		Name:   name,
		Params: params,
		Body:   append([]*Value(nil), rest[1:]...),
		Env:    closureEnv,
	}}
	if name != "" {
		named := NewChildEnv(env)
		fn.Fun.Env = named
		if res := named.Def(name, fn); res.IsError() {
			return nil, res.WithSpan(call.Source)
		}
	}
	return fn, nil
}

// parseSyntaxRules parses a def_syntax/extend_syntax/syntax rule list. Each
// rule form is exactly (pattern block): block is a single list value whose
// own cells are the rule's template statements, evaluated in sequence by
// expandRule - not a spread of independent forms following the pattern.
func parseSyntaxRules(env *Env, ruleForms []*Value) ([]*SyntaxRule, *Value) {
	rules := make([]*SyntaxRule, 0, len(ruleForms))
	for _, rf := range ruleForms {
		if rf.Kind != KList || len(rf.Cells) != 2 || rf.Cells[1].Kind != KList {
			return nil, Errorf(CondTypeError, "syntax rule must be (pattern (template-forms...))").WithSpan(rf.Source)
		}
		rules = append(rules, &SyntaxRule{
			Pattern:  rf.Cells[0],
			Template: append([]*Value(nil), rf.Cells[1].Cells...),
		})
	}
	return rules, nil
}

func opDefSyntax(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) < 2 || args[0].Kind != KSymbol {
		return nil, Errorf(CondArityError, "def_syntax expects (def_syntax name rule...)").WithSpan(call.Source)
	}
	rules, err := parseSyntaxRules(env, args[1:])
	if err != nil {
		return nil, err
	}
	syn := &Value{Kind: KSyntax, Source: call.Source, Syn: &SyntaxData{
		Name: args[0].Str, Rules: rules,
	}}
	if res := env.Def(args[0].Str, syn); res.IsError() {
		return nil, res.WithSpan(call.Source)
	}
	return syn, nil
}

// opExtendSyntax implements (extend_syntax name base rule...): rules that
// don't match fall through to base, which must already name a Syntax
// value, giving syntaxes an additive, library-composable way to grow their
// dispatch table.
func opExtendSyntax(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) < 2 || args[0].Kind != KSymbol {
		return nil, Errorf(CondArityError, "extend_syntax expects (extend_syntax name base rule...)").WithSpan(call.Source)
	}
	base, err := Eval(env, args[1])
	if err != nil {
		return nil, err
	}
	if base.Kind != KSyntax {
		return nil, Errorf(CondTypeError, "extend_syntax base must be a syntax value").WithSpan(args[1].Source)
	}
	rules, err := parseSyntaxRules(env, args[2:])
	if err != nil {
		return nil, err
	}
	syn := &Value{Kind: KSyntax, Source: call.Source, Syn: &SyntaxData{
		Name: args[0].Str, Rules: rules, Base: base,
	}}
	if res := env.Def(args[0].Str, syn); res.IsError() {
		return nil, res.WithSpan(call.Source)
	}
	return syn, nil
}

func opSyntax(env *Env, args []*Value, call *Value) (*Value, *Value) {
	rules, err := parseSyntaxRules(env, args)
	if err != nil {
		return nil, err
	}
	return &Value{Kind: KSyntax, Source: call.Source, Syn: &SyntaxData{
		Name: "<anonymous>", Rules: rules,
	}}, nil
}

// opEvalWithSyntax implements (eval_with_syntax syntax_expr form...): each
// trailing form is used raw, unevaluated, as a call tree that syntax_expr's
// rules are matched against in turn, bypassing lexical syntax lookup
// entirely; the value of the last form is the whole call's value.
func opEvalWithSyntax(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) < 2 {
		return nil, Errorf(CondArityError, "eval_with_syntax expects (eval_with_syntax syntax form...)").WithSpan(call.Source)
	}
	synVal, err := Eval(env, args[0])
	if err != nil {
		return nil, err
	}
	if synVal.Kind != KSyntax {
		return nil, Errorf(CondTypeError, "eval_with_syntax expects a syntax value").WithSpan(args[0].Source)
	}
	result := Nil()
	for _, form := range args[1:] {
		v, err := ApplySyntax(synVal, form, env)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func opExport(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) != 1 || args[0].Kind != KSymbol {
		return nil, Errorf(CondArityError, "export expects (export name)").WithSpan(call.Source)
	}
	if res := env.Export(args[0].Str); res.IsError() {
		return nil, res.WithSpan(call.Source)
	}
	return Nil(), nil
}

func opImport(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) != 1 {
		return nil, Errorf(CondArityError, "import expects (import path)").WithSpan(call.Source)
	}
	pathVal, err := Eval(env, args[0])
	if err != nil {
		return nil, err
	}
	if pathVal.Kind != KString {
		return nil, Errorf(CondTypeError, "import path must be a string").WithSpan(args[0].Source)
	}
	modEnv, loadErr := env.Runtime.Loader.Load(env.Runtime, pathVal.Str)
	if loadErr != nil {
		return nil, loadErr.WithSpan(call.Source)
	}
	env.Import(modEnv)
	return Nil(), nil
}

// opLabel implements (label name) and (label name expr). With an expr, name
// is bound to its evaluated value. With no expr, name is bound to the
// current bit position - unless a `label_value` binding is visible, in
// which case it is called with the raw bit position (as an Integer) and its
// result becomes the label's value instead. Either way this is exactly a
// `def`, which is what lets the resolver's second pass see the binding
// through an ordinary symbol lookup.
func opLabel(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) != 1 && len(args) != 2 {
		return nil, Errorf(CondArityError, "label expects (label name) or (label name expr)").WithSpan(call.Source)
	}
	if args[0].Kind != KSymbol {
		return nil, Errorf(CondTypeError, "label name must be a symbol").WithSpan(call.Source)
	}
	var val *Value
	if len(args) == 1 {
		bitPos := NewInt(big.NewInt(int64(env.Runtime.Cursor.BitPos())), defaultLabelWidth, false)
		val = bitPos
		if override, ok := env.Get("label_value"); ok && override.Kind == KFunction {
			v, err := Apply(env, override, []*Value{bitPos}, call)
			if err != nil {
				return nil, err
			}
			val = v
		}
	} else {
		v, err := Eval(env, args[1])
		if err != nil {
			return nil, err
		}
		val = v
	}
	if res := env.Def(args[0].Str, val); res.IsError() {
		return nil, res.WithSpan(call.Source)
	}
	env.Runtime.Labels.Put(args[0].Str, val)
	return val, nil
}

func opBits(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) != 2 {
		return nil, Errorf(CondArityError, "bits expects (bits n expr)").WithSpan(call.Source)
	}
	nVal, err := Eval(env, args[0])
	if err != nil {
		return nil, err
	}
	if nVal.Kind != KInt {
		return nil, Errorf(CondTypeError, "bits width must be an integer").WithSpan(args[0].Source)
	}
	v, err := Eval(env, args[1])
	if err != nil {
		return nil, err
	}
	n := int(nVal.Int.Int64())
	res := Rewidth(v, n)
	if res.IsError() {
		return nil, res.WithSpan(call.Source)
	}
	return res, nil
}

func installSpecialForms(env *Env) {
	forms := map[string]Builtin{
		"quote":            opQuote,
		"if":               opIf,
		"let":              opLet,
		"def":              opDef,
		"fun":              opFun,
		"lambda":           opFun,
		"def_syntax":       opDefSyntax,
		"extend_syntax":    opExtendSyntax,
		"syntax":           opSyntax,
		"eval_with_syntax": opEvalWithSyntax,
		"export":           opExport,
		"import":           opImport,
		"label":            opLabel,
		"bits":             opBits,
	}
	for name, fn := range forms {
		env.Scope[name] = special(name, fn)
	}
}
