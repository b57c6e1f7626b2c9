package safas

import (
	"github.com/cnf/structhash"
)

// formShape is a hashable summary of a call form, extracted so that
// structhash.Hash sees only the plain, exported fields it can serialize
// (Value itself embeds *big.Int and *Env, which structhash's reflection
// either can't see into or must not: two calls with structurally identical
// shapes but different captured environments must still hash equal).
// The shape covers only Kind, Str, Width, and the literal integer text,
// never identity.
type formShape struct {
	Kind     Kind
	Str      string
	IntVal   string
	Width    int
	Children []formShape
}

func shapeOf(v *Value) formShape {
	s := formShape{Kind: v.Kind, Str: v.Str, Width: v.Width}
	if v.Kind == KInt || v.Kind == KBinary {
		if v.Int != nil {
			s.IntVal = v.Int.String()
		}
	}
	if len(v.Cells) > 0 {
		s.Children = make([]formShape, len(v.Cells))
		for i, c := range v.Cells {
			s.Children[i] = shapeOf(c)
		}
	}
	return s
}

// hashCallForm returns a structural hash of call, or ("", false) if
// hashing fails for any reason. A hashing failure only disables the
// matchCache optimization for this call; it is never treated as a match
// failure.
func hashCallForm(call *Value) (key string, ok bool) {
	defer func() {
		if recover() != nil {
			key, ok = "", false
		}
	}()
	h, err := structhash.Hash(shapeOf(call), 1)
	if err != nil {
		return "", false
	}
	return h, true
}

// matchPattern attempts to match pattern (an unevaluated form, possibly
// containing `<name>`/`{name}` binding nodes) against input (also an
// unevaluated form: the literal call being dispatched). On success it adds
// every binding it makes to out and returns (true, nil). It returns
// (false, nil) for an ordinary mismatch, or (false, err) if evaluating a
// `<name>` binding failed outright.
func matchPattern(pattern, input *Value, callerEnv *Env, out map[string]*Value) (bool, *Value) {
	switch pattern.Kind {
	case KStmtBinding:
		val, err := Eval(callerEnv, input)
		if err != nil {
			return false, err
		}
		out[pattern.Str] = val
		return true, nil
	case KSymBinding:
		out[pattern.Str] = input
		return true, nil
	case KList:
		if input.Kind != KList {
			return false, nil
		}
		if len(pattern.Cells) != len(input.Cells) {
			return false, nil
		}
		for i := range pattern.Cells {
			ok, err := matchPattern(pattern.Cells[i], input.Cells[i], callerEnv, out)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case KSymbol:
		return input.Kind == KSymbol && input.Str == pattern.Str, nil
	default:
		return input.Kind == pattern.Kind && input.Equal(pattern), nil
	}
}

// substitute produces a copy of template with every symbol bound in
// bindings replaced by its bound value, and every other node left as-is.
func substitute(template *Value, bindings map[string]*Value) *Value {
	switch template.Kind {
	case KSymbol:
		if v, ok := bindings[template.Str]; ok {
			return v
		}
		return template
	case KList:
		if len(template.Cells) == 0 {
			return template
		}
		cells := make([]*Value, len(template.Cells))
		for i, c := range template.Cells {
			cells[i] = substitute(c, bindings)
		}
		return &Value{Kind: KList, Cells: cells, Source: template.Source}
	default:
		return template
	}
}

// noMatchIndex is the matchCache sentinel meaning "this call shape matched
// no rule of this syntax and fell through to Base last time".
const noMatchIndex = -1

// ApplySyntax expands a KSyntax invocation. It first tries the entire,
// unevaluated call form against every rule's pattern in order (the mode
// lda/sta/ldax-style syntaxes use, where the pattern's head is the syntax's
// own name); the first match's template is substituted with the resulting
// bindings and evaluated in the caller's environment, so labels, functions,
// and other bindings visible at the call site resolve normally.
//
// If nothing matches the whole form and the call carries more than one
// cell, each cell after the head is tried as its own, independent form
// against the same rule table - the common shape a syntax takes in user
// programs, one statement per sibling, e.g. (s (one) (one)) with a rule
// pattern of plain (one). Every sibling must match some rule of the same
// table; the results of each are evaluated in sequence and the last one's
// value is the call's value.
//
// A call matching neither mode falls through to Base, the syntax that
// extend_syntax composed onto, if any; otherwise it is a
// CondPatternMatchFailure.
//
// Repeated calls with the same structural shape skip straight to the rule
// that matched last time via matchCache, rather than re-trying every
// earlier rule in the table first. The shape includes operand symbol names
// and literal values, so only calls whose operands are also identical hit
// the cache; the same syntax called with different operands is matched
// afresh.
func ApplySyntax(synVal *Value, call *Value, callerEnv *Env) (*Value, *Value) {
	sd := synVal.Syn
	if result, err, matched := matchWholeForm(sd, call, callerEnv); matched {
		return result, err
	}
	if len(call.Cells) > 1 {
		if result, err, ok := expandSiblingForms(sd, call.Cells[1:], callerEnv); ok {
			return result, err
		}
	}
	return syntaxFallthrough(sd, call, callerEnv)
}

// matchWholeForm tries call against sd's rules as a single unit. matched is
// false only when no rule's pattern matched call at all - callers must then
// try another mode before giving up. matched is true whenever a rule fired
// (err may still be non-nil, from a failed <name> eager evaluation or a
// failed template expansion) so the caller returns immediately.
func matchWholeForm(sd *SyntaxData, call *Value, callerEnv *Env) (*Value, *Value, bool) {
	key, cacheable := hashCallForm(call)
	if cacheable {
		if idx, hit := sd.matchCache[key]; hit {
			if idx == noMatchIndex {
				return nil, nil, false
			}
			bindings := make(map[string]*Value)
			ok, err := matchPattern(sd.Rules[idx].Pattern, call, callerEnv, bindings)
			if err != nil {
				return nil, err, true
			}
			if ok {
				result, expErr := expandRule(sd.Rules[idx], bindings, callerEnv)
				return result, expErr, true
			}
			// The shape hash was insufficient to guarantee this rule still
			// matches (should not happen given shapeOf's coverage, but
			// fall through to the full search rather than trust a stale
			// entry).
		}
	}
	for i, rule := range sd.Rules {
		bindings := make(map[string]*Value)
		ok, err := matchPattern(rule.Pattern, call, callerEnv, bindings)
		if err != nil {
			return nil, err, true
		}
		if !ok {
			continue
		}
		if cacheable {
			if sd.matchCache == nil {
				sd.matchCache = make(map[string]int)
			}
			sd.matchCache[key] = i
		}
		result, expErr := expandRule(rule, bindings, callerEnv)
		return result, expErr, true
	}
	if cacheable {
		if sd.matchCache == nil {
			sd.matchCache = make(map[string]int)
		}
		sd.matchCache[key] = noMatchIndex
	}
	return nil, nil, false
}

// expandSiblingForms matches and expands each of forms independently
// against sd's rule table, evaluating each in sequence. ok is false if any
// sibling matched no rule, in which case callers fall through to Base
// rather than partially expanding the block.
func expandSiblingForms(sd *SyntaxData, forms []*Value, callerEnv *Env) (*Value, *Value, bool) {
	type siblingMatch struct {
		rule     *SyntaxRule
		bindings map[string]*Value
	}
	matches := make([]siblingMatch, 0, len(forms))
	for _, form := range forms {
		matched := false
		for _, rule := range sd.Rules {
			bindings := make(map[string]*Value)
			ok, err := matchPattern(rule.Pattern, form, callerEnv, bindings)
			if err != nil {
				return nil, err, true
			}
			if !ok {
				continue
			}
			matches = append(matches, siblingMatch{rule: rule, bindings: bindings})
			matched = true
			break
		}
		if !matched {
			return nil, nil, false
		}
	}
	result := Nil()
	for _, m := range matches {
		v, expErr := expandRule(m.rule, m.bindings, callerEnv)
		if expErr != nil {
			return nil, expErr, true
		}
		result = v
	}
	return result, nil, true
}

// expandRule substitutes bindings into rule's template and evaluates the
// result in callerEnv: the substituted form must see the caller's labels,
// functions, and other bindings exactly as if it had been written inline at
// the call site, not the syntax's own definition environment.
func expandRule(rule *SyntaxRule, bindings map[string]*Value, callerEnv *Env) (*Value, *Value) {
	expanded := make([]*Value, len(rule.Template))
	for i, t := range rule.Template {
		expanded[i] = substitute(t, bindings)
	}
	return EvalBody(callerEnv, expanded)
}

// syntaxFallthrough hands a call that matched none of sd's own rules to
// sd.Base. Base's rule patterns were written against its own name (e.g.
// "lda"), so a call headed by sd's name (e.g. "ldax") is rewritten to wear
// Base's head symbol first - otherwise the head-symbol check in
// matchPattern's KSymbol case would reject every one of Base's rules
// outright, defeating the whole point of composing onto an existing
// dispatch table.
func syntaxFallthrough(sd *SyntaxData, call *Value, callerEnv *Env) (*Value, *Value) {
	if sd.Base != nil {
		rebased := call
		if len(call.Cells) > 0 && call.Cells[0].Kind == KSymbol && call.Cells[0].Str != sd.Base.Syn.Name {
			cells := append([]*Value(nil), call.Cells...)
			cells[0] = Sym(sd.Base.Syn.Name)
			rebased = &Value{Kind: KList, Cells: cells, Source: call.Source}
		}
		return ApplySyntax(sd.Base, rebased, callerEnv)
	}
	return nil, Errorf(CondPatternMatchFailure, "no rule of syntax %s matches this form", sd.Name).WithSpan(call.Source)
}
