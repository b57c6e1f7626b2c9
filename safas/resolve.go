package safas

import (
	"fmt"
	"sort"

	"github.com/safas-lang/safas/parser/token"
)

// deferredHole is a forward reference caught by `d` or `a` when the
// argument expression evaluates to an unknown name. It records everything needed to retry the evaluation once
// more names may have become bound, and where to patch the result.
type deferredHole struct {
	id       int
	pos      int // absolute bit position to patch
	width    int // explicit width from a (bits N ...) wrapper, or defaultLabelWidth
	expr     *Value
	env      *Env
	span     *token.Location
	forAlign bool // true if this hole came from `a`, whose pattern is re-evaluated rather than an emitted value
	nOrig    int  // alignment modulus, forAlign only
}

// defaultLabelWidth is the width assumed for a bare forward label reference
// not wrapped in `(bits N ...)`, matching an unwrapped forward label
// resolving to a 64-bit value.
const defaultLabelWidth = 64

// Resolver owns the set of deferred holes for one assembly run and performs
// a fixed-point second pass: repeatedly retry every
// unresolved hole until a full pass makes no progress, then either every
// hole is gone or the remainder are reported as unresolved labels.
type Resolver struct {
	holes  []*deferredHole
	nextID int
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Defer records a forward reference for later retry and returns its hole
// id, used only for diagnostics.
func (r *Resolver) Defer(pos, width int, expr *Value, env *Env, span *token.Location) int {
	r.nextID++
	r.holes = append(r.holes, &deferredHole{
		id:    r.nextID,
		pos:   pos,
		width: width,
		expr:  expr,
		env:   env,
		span:  span,
	})
	return r.nextID
}

// DeferAlign records a forward reference in an alignment pattern expression.
func (r *Resolver) DeferAlign(pos int, n int, expr *Value, env *Env, span *token.Location) int {
	r.nextID++
	r.holes = append(r.holes, &deferredHole{
		id:       r.nextID,
		pos:      pos,
		expr:     expr,
		env:      env,
		span:     span,
		forAlign: true,
		nOrig:    n,
	})
	return r.nextID
}

// Pending returns the number of holes that remain unresolved.
func (r *Resolver) Pending() int { return len(r.holes) }

// Resolve runs the fixed-point second pass against cursor, evaluating each
// remaining hole's expression in its captured environment. A hole that
// still resolves to CondUnknownName is retried on the next round; any other
// error is fatal. Resolution stops when a full round patches nothing.
// Remaining holes after that are reported together as CondUnresolvedLabel.
func (r *Resolver) Resolve(cursor *Cursor) *Value {
	for {
		if len(r.holes) == 0 {
			return Nil()
		}
		progressed := false
		remaining := r.holes[:0:0]
		for _, h := range r.holes {
			ok, err := r.tryResolve(cursor, h)
			if err != nil {
				return err
			}
			if ok {
				progressed = true
				continue
			}
			remaining = append(remaining, h)
		}
		r.holes = remaining
		if !progressed {
			break
		}
	}
	if len(r.holes) == 0 {
		return Nil()
	}
	return r.unresolvedError()
}

// tryResolve re-evaluates h.expr with the cursor seeked back to the bit
// position it held when the hole was created, not wherever the cursor ended
// up by the time the resolver's second pass runs: a hole's expression may
// itself read bit_pos/ip (the relative-offset branch case), and those must
// see the position at the point of emission, not the run's final position.
func (r *Resolver) tryResolve(cursor *Cursor, h *deferredHole) (bool, *Value) {
	saved := cursor.bitPos
	cursor.bitPos = h.pos
	result, evalErr := Eval(h.env, h.expr)
	cursor.bitPos = saved
	if evalErr != nil {
		if evalErr.Kind == KError && evalErr.Err.Condition == CondUnknownName {
			return false, nil
		}
		return false, evalErr.WithSpan(h.span)
	}
	if h.forAlign {
		pattern, width, encErr := EncodeMagnitude(result)
		if encErr.IsError() {
			return false, encErr.WithSpan(h.span)
		}
		saved := cursor.bitPos
		cursor.bitPos = h.pos
		res := cursor.Align(pattern, width, h.nOrig)
		cursor.bitPos = saved
		if res.IsError() {
			return false, res.WithSpan(h.span)
		}
		return true, nil
	}
	width := h.width
	if width == 0 {
		width = defaultLabelWidth
	}
	widened := result
	if result.Kind == KInt || result.Kind == KBinary {
		widened = Rewidth(result, width)
	}
	pattern, encWidth, encErr := EncodeMagnitude(widened)
	if encErr.IsError() {
		return false, encErr.WithSpan(h.span)
	}
	cursor.PatchBits(h.pos, pattern, encWidth)
	return true, nil
}

func (r *Resolver) unresolvedError() *Value {
	names := make([]string, 0, len(r.holes))
	byName := map[string]*deferredHole{}
	for _, h := range r.holes {
		n := describeExpr(h.expr)
		if _, seen := byName[n]; !seen {
			names = append(names, n)
			byName[n] = h
		}
	}
	sort.Strings(names)
	first := byName[names[0]]
	return Errorf(CondUnresolvedLabel, "unresolved label(s) after fixed-point pass: %v", names).WithSpan(first.span)
}

func describeExpr(v *Value) string {
	if v.Kind == KSymbol {
		return v.Str
	}
	return fmt.Sprintf("%v", v.Kind)
}
