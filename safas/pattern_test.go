package safas_test

import (
	"testing"

	"github.com/safas-lang/safas/safastest"
)

func TestDefSyntax(t *testing.T) {
	tests := safastest.TestSuite{
		{"single rule with raw binding", safastest.TestSequence{
			{Expr: `
				(def_syntax double
				  ((double {v}) ((* v 2i32))))
				(double 21i32)`, Result: "42i32"},
		}},
		{"multiple rules dispatch by shape", safastest.TestSequence{
			{Expr: `
				(def_syntax describe
				  ((describe zero) ("zero"))
				  ((describe {v}) ("nonzero")))
				(describe zero)`, Result: `"zero"`},
			{Expr: `(describe 5i32)`, Result: `"nonzero"`},
		}},
		{"no matching rule falls to pattern match failure", safastest.TestSequence{
			{Expr: `
				(def_syntax only_zero
				  ((only_zero zero) ("zero")))
				(only_zero 1i32)`, Err: "pattern-match-failure"},
		}},
		{"repeated calls with different operands each match the same rule", safastest.TestSequence{
			{Expr: `
				(def_syntax twice
				  ((twice {v}) ((+ v v))))
				(twice 1i32)
				(twice 2i32)
				(twice 3i32)`, Result: "6i32"},
		}},
	}
	safastest.RunTestSuite(t, tests)
}

func TestExtendSyntax(t *testing.T) {
	tests := safastest.TestSuite{
		{"extended rule matches before falling through to base", safastest.TestSequence{
			{Expr: `
				(def_syntax greet
				  ((greet world) ("hello world")))
				(extend_syntax greet2 greet
				  ((greet2 moon) ("hello moon")))
				(greet2 moon)`, Result: `"hello moon"`},
			{Expr: `(greet2 world)`, Result: `"hello world"`},
			{Expr: `(greet2 mars)`, Err: "pattern-match-failure"},
		}},
		{"extend_syntax base must be a syntax value", safastest.TestSequence{
			{Expr: `
				(def x 1i32)
				(extend_syntax y x ((y a) ("a")))`, Err: "type-error"},
		}},
	}
	safastest.RunTestSuite(t, tests)
}

func TestStmtVsSymBinding(t *testing.T) {
	tests := safastest.TestSuite{
		{"<name> evaluates eagerly", safastest.TestSequence{
			{Expr: `
				(def_syntax addone
				  ((addone <v>) ((+ v 1i32))))
				(def x 4i32)
				(addone x)`, Result: "5i32"},
		}},
		{"{name} captures the raw expression tree", safastest.TestSequence{
			{Expr: `
				(def_syntax quoted_form
				  ((quoted_form {v}) ((quote v))))
				(quoted_form (+ 1i32 2i32))`, Result: "(+ 1i32 2i32)"},
		}},
	}
	safastest.RunTestSuite(t, tests)
}

func TestSyntaxAppliedToSiblingForms(t *testing.T) {
	safastest.RunAssembleCases(t, []safastest.AssembleCase{
		{
			Name: "a call with more than one cell expands each sibling independently",
			Source: `
				(def_syntax s
				  ((one) ((d $11u8))))
				(s (one) (one))`,
			Hex: "11 11",
		},
	})

	tests := safastest.TestSuite{
		{"a sibling that matches no rule falls through to pattern match failure", safastest.TestSequence{
			{Expr: `
				(def_syntax s
				  ((one) ((d $11u8))))
				(s (one) (two))`, Err: "pattern-match-failure"},
		}},
	}
	safastest.RunTestSuite(t, tests)
}

func TestAnonymousSyntaxAndEvalWithSyntax(t *testing.T) {
	tests := safastest.TestSuite{
		{"syntax value applied via eval_with_syntax", safastest.TestSequence{
			{Expr: `
				(def negate (syntax ((negate {v}) ((- v)))))
				(eval_with_syntax negate (negate 7i32))`, Result: "-7i32"},
		}},
		{"eval_with_syntax expands a trailing sequence of forms", safastest.TestSequence{
			{Expr: `
				(def negate (syntax ((negate {v}) ((- v)))))
				(eval_with_syntax negate (negate 1i32) (negate 2i32))`, Result: "-2i32"},
		}},
	}
	safastest.RunTestSuite(t, tests)
}
