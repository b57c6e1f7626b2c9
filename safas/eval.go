package safas

import "math/big"

// Eval reduces v in env, implementing the evaluator's dispatch rules:
// self-evaluating literals return themselves; a Symbol looks itself up;
// a non-empty List dispatches on its head, which may be a special form
// (unevaluated arguments), a user-defined Syntax (pattern-matched macro
// expansion), or an ordinary callable (evaluated arguments, then applied).
func Eval(env *Env, v *Value) (*Value, *Value) {
	switch v.Kind {
	case KInt, KBinary, KString, KFunction, KSyntax:
		return v, nil
	case KError:
		return nil, v
	case KSymbol:
		// ip is a reserved pseudo-variable rather than an ordinary binding:
		// it always reads the byte-addressed write position live off the
		// runtime's cursor, so a use nested inside a deferred hole's
		// expression re-evaluates against whatever position the cursor is
		// seeked to when the resolver retries the hole.
		if v.Str == "ip" {
			return NewInt(big.NewInt(int64(env.Runtime.Cursor.BitPos()/8)), defaultLabelWidth, false), nil
		}
		if bound, ok := env.Get(v.Str); ok {
			return bound, nil
		}
		return nil, Errorf(CondUnknownName, "unbound name: %s", v.Str).WithSpan(v.Source)
	case KList:
		if v.IsNil() {
			return v, nil
		}
		return evalCall(env, v)
	default:
		return nil, Errorf(CondTypeError, "cannot evaluate value of kind %v", v.Kind).WithSpan(v.Source)
	}
}

// EvalBody evaluates a sequence of forms in env and returns the value of
// the last one, or the empty list if forms is empty. Used by let/fun bodies
// and top-level program evaluation.
func EvalBody(env *Env, forms []*Value) (*Value, *Value) {
	var result *Value = Nil()
	for _, f := range forms {
		v, err := Eval(env, f)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func evalCall(env *Env, call *Value) (*Value, *Value) {
	head := call.Cells[0]
	args := call.Cells[1:]

	// A bare symbol head is looked up specially so that a special form or
	// syntax name resolves without evaluating the whole head position as a
	// generic expression (which would be indistinguishable from a runtime
	// function value lookup, but must see the unevaluated argument list).
	if head.Kind == KSymbol {
		if bound, ok := env.Get(head.Str); ok {
			switch {
			case bound.Kind == KFunction && bound.Fun.Special:
				return callBuiltinSpecial(env, bound, args, call)
			case bound.Kind == KSyntax:
				return ApplySyntax(bound, call, env)
			default:
				return applyEvaluated(env, bound, args, call)
			}
		}
		return nil, Errorf(CondUnknownName, "unbound name: %s", head.Str).WithSpan(head.Source)
	}

	headVal, err := Eval(env, head)
	if err != nil {
		return nil, err
	}
	return applyEvaluated(env, headVal, args, call)
}

func applyEvaluated(env *Env, headVal *Value, args []*Value, call *Value) (*Value, *Value) {
	if headVal.Kind == KSyntax {
		return ApplySyntax(headVal, call, env)
	}
	if headVal.Kind != KFunction {
		return nil, Errorf(CondTypeError, "cannot call value of kind %v", headVal.Kind).WithSpan(call.Source)
	}
	evaluated := make([]*Value, len(args))
	for i, a := range args {
		v, err := Eval(env, a)
		if err != nil {
			return nil, err
		}
		evaluated[i] = v
	}
	return Apply(env, headVal, evaluated, call)
}

func callBuiltinSpecial(env *Env, fn *Value, args []*Value, call *Value) (*Value, *Value) {
	if fn.Fun.Builtin == nil {
		return nil, Errorf(CondTypeError, "special form %s has no implementation", fn.Fun.Name).WithSpan(call.Source)
	}
	return withStackFrame(env, fn.Fun.Name, call, func() (*Value, *Value) {
		return fn.Fun.Builtin(env, args, call)
	})
}

// Apply invokes fn (already resolved to a KFunction Value) with already
// evaluated args. Builtins run directly; user-defined functions get a new
// frame binding Params (and VarArg, if present) then evaluate Body in
// sequence.
func Apply(env *Env, fn *Value, args []*Value, call *Value) (*Value, *Value) {
	if fn.Kind != KFunction {
		return nil, Errorf(CondTypeError, "cannot apply value of kind %v", fn.Kind).WithSpan(call.Source)
	}
	if fn.Fun.Builtin != nil {
		return withStackFrame(env, fn.Fun.Name, call, func() (*Value, *Value) {
			return fn.Fun.Builtin(env, args, call)
		})
	}
	if fn.Fun.VarArg == "" && len(args) != len(fn.Fun.Params) {
		return nil, Errorf(CondArityError, "%s expects %d argument(s), got %d", fn.Fun.Name, len(fn.Fun.Params), len(args)).WithSpan(call.Source)
	}
	if fn.Fun.VarArg != "" && len(args) < len(fn.Fun.Params) {
		return nil, Errorf(CondArityError, "%s expects at least %d argument(s), got %d", fn.Fun.Name, len(fn.Fun.Params), len(args)).WithSpan(call.Source)
	}
	frame := NewChildEnv(fn.Fun.Env)
	for i, p := range fn.Fun.Params {
		frame.Scope[p] = args[i]
	}
	if fn.Fun.VarArg != "" {
		frame.Scope[fn.Fun.VarArg] = List(append([]*Value(nil), args[len(fn.Fun.Params):]...))
	}
	name := fn.Fun.Name
	if name == "" {
		name = "<lambda>"
	}
	return withStackFrame(env, name, call, func() (*Value, *Value) {
		return EvalBody(frame, fn.Fun.Body)
	})
}

func withStackFrame(env *Env, name string, call *Value, fn func() (*Value, *Value)) (*Value, *Value) {
	rt := env.Runtime
	saved := rt.Stack
	rt.Stack = rt.Stack.Push(name, call.Source)
	v, err := fn()
	rt.Stack = saved
	if err != nil {
		return nil, err.WithStack(rt.Stack.Push(name, call.Source))
	}
	return v, nil
}
