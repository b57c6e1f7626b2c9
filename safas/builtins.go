package safas

import (
	"fmt"
	"math/big"
	"os"
)

func isUnknownName(v *Value) bool {
	return v != nil && v.Kind == KError && v.Err.Condition == CondUnknownName
}

func isBitsWrapper(v *Value) bool {
	return v.Kind == KList && len(v.Cells) == 3 && v.Cells[0].Kind == KSymbol && v.Cells[0].Str == "bits"
}

// biEmit implements `d`, the byte/bit emission primitive. It is
// a special form, not a plain builtin, because it must inspect each
// argument's unevaluated form before evaluating it: an argument shaped
// like (bits N inner) has its width N pulled out eagerly, and if evaluating
// the (possibly bits-wrapped) expression fails with CondUnknownName -
// naming a label not yet defined - the argument becomes a deferred hole
// owned by the Resolver instead of a fatal error, the standard handling
// for forward label references.
func biEmit(env *Env, args []*Value, call *Value) (*Value, *Value) {
	for _, argExpr := range args {
		exprToEval := argExpr
		hasWidth := false
		width := 0
		if isBitsWrapper(argExpr) {
			nVal, err := Eval(env, argExpr.Cells[1])
			if err != nil {
				return nil, err
			}
			if nVal.Kind != KInt {
				return nil, Errorf(CondTypeError, "bits width must be an integer").WithSpan(argExpr.Cells[1].Source)
			}
			width = int(nVal.Int.Int64())
			hasWidth = true
			exprToEval = argExpr.Cells[2]
		}

		val, evalErr := Eval(env, exprToEval)
		if evalErr != nil {
			if !isUnknownName(evalErr) {
				return nil, evalErr
			}
			if !hasWidth {
				width = defaultLabelWidth
			}
			pos := env.Runtime.Cursor.BitPos()
			env.Runtime.Resolver.Defer(pos, width, exprToEval, env, argExpr.Source)
			env.Runtime.Cursor.WriteBits(big.NewInt(0), width)
			continue
		}

		if val.Kind == KString {
			env.Runtime.Cursor.WriteBytes([]byte(val.Str))
			continue
		}
		if hasWidth {
			val = Rewidth(val, width)
			if val.IsError() {
				return nil, val.WithSpan(argExpr.Source)
			}
		}
		magnitude, w, encErr := EncodeMagnitude(val)
		if encErr.IsError() {
			return nil, encErr.WithSpan(argExpr.Source)
		}
		env.Runtime.Cursor.WriteBits(magnitude, w)
	}
	return Nil(), nil
}

// biAlign implements `a`, the alignment primitive. Like `d`, it
// is special so that a forward-referencing fill pattern can be deferred to
// the resolver's second pass rather than failing immediately; the
// alignment modulus itself must be known on the first pass.
func biAlign(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) != 2 {
		return nil, Errorf(CondArityError, "a expects (a pattern n)").WithSpan(call.Source)
	}
	nVal, err := Eval(env, args[1])
	if err != nil {
		return nil, err
	}
	if nVal.Kind != KInt {
		return nil, Errorf(CondTypeError, "alignment modulus must be an integer").WithSpan(args[1].Source)
	}
	n := int(nVal.Int.Int64())

	patVal, patErr := Eval(env, args[0])
	if patErr != nil {
		if !isUnknownName(patErr) {
			return nil, patErr
		}
		pos := env.Runtime.Cursor.BitPos()
		env.Runtime.Resolver.DeferAlign(pos, n, args[0], env, call.Source)
		if rem := pos % n; rem != 0 {
			env.Runtime.Cursor.WriteBits(big.NewInt(0), n-rem)
		}
		return Nil(), nil
	}
	magnitude, width, encErr := EncodeMagnitude(patVal)
	if encErr.IsError() {
		return nil, encErr.WithSpan(call.Source)
	}
	return env.Runtime.Cursor.Align(magnitude, width, n), nil
}

func biSetBitPos(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) != 1 {
		return nil, Errorf(CondArityError, "set_bit_pos expects 1 argument").WithSpan(call.Source)
	}
	pos, err := Eval(env, args[0])
	if err != nil {
		return nil, err
	}
	if pos.Kind != KInt {
		return nil, Errorf(CondTypeError, "set_bit_pos expects an integer").WithSpan(call.Source)
	}
	return env.Runtime.Cursor.SetBitPos(int(pos.Int.Int64())), nil
}

func biBitPos(env *Env, args []*Value, call *Value) (*Value, *Value) {
	if len(args) != 0 {
		return nil, Errorf(CondArityError, "bit_pos expects no arguments").WithSpan(call.Source)
	}
	return NewInt(big.NewInt(int64(env.Runtime.Cursor.BitPos())), defaultLabelWidth, false), nil
}

// stringify renders v the way `print`/`warn`/`error` want it: a bare
// string is printed without quotes, a symbol without decoration, and
// everything else via Format.
func stringify(v *Value) string {
	switch v.Kind {
	case KString:
		return v.Str
	case KSymbol:
		return v.Str
	default:
		return Format(v)
	}
}

func biPrint(env *Env, args []*Value, call *Value) (*Value, *Value) {
	for _, s := range stringifyArgs(args) {
		fmt.Fprintln(os.Stdout, s)
	}
	return Nil(), nil
}

func biWarn(env *Env, args []*Value, call *Value) (*Value, *Value) {
	for _, s := range stringifyArgs(args) {
		fmt.Fprintln(os.Stderr, s)
	}
	return Nil(), nil
}

func stringifyArgs(args []*Value) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = stringify(a)
	}
	return out
}

func biError(env *Env, args []*Value, call *Value) (*Value, *Value) {
	msg := ""
	if len(args) > 0 {
		msg = stringify(args[0])
	}
	return nil, Errorf(CondUserError, "%s", msg).WithSpan(call.Source)
}

func requireInts(name string, args []*Value, call *Value) ([]*Value, *Value) {
	if len(args) == 0 {
		return nil, Errorf(CondArityError, "%s expects at least 1 argument", name).WithSpan(call.Source)
	}
	for _, a := range args {
		if a.Kind != KInt {
			return nil, Errorf(CondTypeError, "%s expects integer arguments, got %v", name, a.Kind).WithSpan(call.Source)
		}
	}
	return args, nil
}

func biAdd(env *Env, args []*Value, call *Value) (*Value, *Value) {
	ints, err := requireInts("+", args, call)
	if err != nil {
		return nil, err
	}
	sum := new(big.Int).Set(ints[0].Int)
	for _, a := range ints[1:] {
		sum.Add(sum, a.Int)
	}
	return NewInt(sum, ints[0].Width, ints[0].Signed), nil
}

func biSub(env *Env, args []*Value, call *Value) (*Value, *Value) {
	ints, err := requireInts("-", args, call)
	if err != nil {
		return nil, err
	}
	if len(ints) == 1 {
		return NewInt(new(big.Int).Neg(ints[0].Int), ints[0].Width, ints[0].Signed), nil
	}
	diff := new(big.Int).Set(ints[0].Int)
	for _, a := range ints[1:] {
		diff.Sub(diff, a.Int)
	}
	return NewInt(diff, ints[0].Width, ints[0].Signed), nil
}

func biMul(env *Env, args []*Value, call *Value) (*Value, *Value) {
	ints, err := requireInts("*", args, call)
	if err != nil {
		return nil, err
	}
	prod := new(big.Int).Set(ints[0].Int)
	for _, a := range ints[1:] {
		prod.Mul(prod, a.Int)
	}
	return NewInt(prod, ints[0].Width, ints[0].Signed), nil
}

func biDiv(env *Env, args []*Value, call *Value) (*Value, *Value) {
	ints, err := requireInts("/", args, call)
	if err != nil {
		return nil, err
	}
	quot := new(big.Int).Set(ints[0].Int)
	for _, a := range ints[1:] {
		if a.Int.Sign() == 0 {
			return nil, Errorf(CondUserError, "division by zero").WithSpan(call.Source)
		}
		quot.Quo(quot, a.Int)
	}
	return NewInt(quot, ints[0].Width, ints[0].Signed), nil
}

func boolValue(b bool) *Value {
	if b {
		return Int64(1)
	}
	return Int64(0)
}

func biCompare(op string, cmp func(int) bool) Builtin {
	return func(env *Env, args []*Value, call *Value) (*Value, *Value) {
		ints, err := requireInts(op, args, call)
		if err != nil {
			return nil, err
		}
		for i := 0; i+1 < len(ints); i++ {
			if !cmp(ints[i].Int.Cmp(ints[i+1].Int)) {
				return boolValue(false), nil
			}
		}
		return boolValue(true), nil
	}
}

// InstallStandardLibrary populates env with every special form and
// primitive of the base language: it is called once per
// fresh top-level environment, whether the process root or a freshly
// loaded module (loader.go's newModuleEnv).
func InstallStandardLibrary(env *Env) {
	installSpecialForms(env)

	prims := map[string]Builtin{
		"d":            biEmit,
		"a":            biAlign,
		"m":            biSetBitPos,
		"set_bit_pos":  biSetBitPos,
		"bit_pos":      biBitPos,
		"print":        biPrint,
		"warn":         biWarn,
		"error":        biError,
		"+":            biAdd,
		"-":            biSub,
		"*":            biMul,
		"/":            biDiv,
		"<":            biCompare("<", func(c int) bool { return c < 0 }),
		"<=":           biCompare("<=", func(c int) bool { return c <= 0 }),
		">":            biCompare(">", func(c int) bool { return c > 0 }),
		">=":           biCompare(">=", func(c int) bool { return c >= 0 }),
		"=":            biCompare("=", func(c int) bool { return c == 0 }),
		"!=":           biCompare("!=", func(c int) bool { return c != 0 }),
	}
	// d and a inspect their raw argument forms to support deferred label
	// resolution, so they are installed as special forms even though they
	// behave like primitives once arguments are resolved.
	special := map[string]bool{"d": true, "a": true}
	for name, fn := range prims {
		if special[name] {
			env.Scope[name] = &Value{Kind: KFunction, Source: nativeLoc, Fun: &FunctionData{
				Name: name, Builtin: fn, Special: true,
			}}
			continue
		}
		env.Scope[name] = &Value{Kind: KFunction, Source: nativeLoc, Fun: &FunctionData{
			Name: name, Builtin: fn,
		}}
	}
}
