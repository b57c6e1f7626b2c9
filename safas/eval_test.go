package safas_test

import (
	"testing"

	"github.com/safas-lang/safas/safastest"
)

func TestArithmetic(t *testing.T) {
	tests := safastest.TestSuite{
		{"add/sub/mul/div", safastest.TestSequence{
			{Expr: "(+ 1i32 2i32)", Result: "3i32"},
			{Expr: "(- 10i32 3i32)", Result: "7i32"},
			{Expr: "(- 5i32)", Result: "-5i32"},
			{Expr: "(* 3i32 4i32)", Result: "12i32"},
			{Expr: "(/ 10i32 3i32)", Result: "3i32"},
			{Expr: "(/ 1i32 0i32)", Err: "division by zero"},
		}},
		{"comparisons", safastest.TestSequence{
			{Expr: "(< 1i32 2i32 3i32)", Result: "1i32"},
			{Expr: "(< 1i32 3i32 2i32)", Result: "0i32"},
			{Expr: "(= 4i32 4i32)", Result: "1i32"},
			{Expr: "(!= 4i32 4i32)", Result: "0i32"},
		}},
	}
	safastest.RunTestSuite(t, tests)
}

func TestLetAndDef(t *testing.T) {
	tests := safastest.TestSuite{
		{"let bindings see only the enclosing frame, not each other", safastest.TestSequence{
			{Expr: "(let ((x 1i32) (y (+ x 1i32))) y)", Err: "unknown-name"},
			{Expr: "(def x 1i32) (let ((x 2i32) (y (+ x 1i32))) y)", Result: "2i32"},
		}},
		{"def and redefinition", safastest.TestSequence{
			{Expr: "(def x 5i32)", Result: "5i32"},
			{Expr: "x", Result: "5i32"},
			{Expr: "(def x 6i32)", Err: "redefinition"},
		}},
	}
	safastest.RunTestSuite(t, tests)
}

func TestFunctions(t *testing.T) {
	tests := safastest.TestSuite{
		{"anonymous and recursive", safastest.TestSequence{
			{Expr: "((fun (x) (* x x)) 5i32)", Result: "25i32"},
			{Expr: `
				(def fact
				  (fun fact (n)
				    (if (= n 0i32) (1i32) ((* n (fact (- n 1i32)))))))
				(fact 5i32)`, Result: "120i32"},
		}},
		{"arity error", safastest.TestSequence{
			{Expr: "((fun (x y) x) 1i32)", Err: "arity-error"},
		}},
	}
	safastest.RunTestSuite(t, tests)
}

func TestQuoteAndIf(t *testing.T) {
	tests := safastest.TestSuite{
		{"quote is not evaluated", safastest.TestSequence{
			{Expr: "(quote (+ 1i32 2i32))", Result: "(+ 1i32 2i32)"},
		}},
		{"if truthiness", safastest.TestSequence{
			{Expr: "(if 0i32 (1i32) (2i32))", Result: "2i32"},
			{Expr: "(if 1i32 (1i32) (2i32))", Result: "1i32"},
			{Expr: "(if () (1i32) (2i32))", Result: "2i32"},
		}},
		{"a branch runs multiple forms in sequence, value is the last", safastest.TestSequence{
			{Expr: "(if 1i32 ((def x 1i32) (def y 2i32) (+ x y)) (99i32))", Result: "3i32"},
		}},
		{"if branch must be a list of forms", safastest.TestSequence{
			{Expr: "(if 1i32 1i32 2i32)", Err: "type-error"},
		}},
	}
	safastest.RunTestSuite(t, tests)
}

func TestUnknownName(t *testing.T) {
	tests := safastest.TestSuite{
		{"unbound symbol", safastest.TestSequence{
			{Expr: "totally_undefined", Err: "unknown-name"},
		}},
	}
	safastest.RunTestSuite(t, tests)
}
