package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/safas-lang/safas/diagnostic"
	"github.com/safas-lang/safas/parser/reader"
	"github.com/safas-lang/safas/safas"
	"github.com/safas-lang/safas/safas/stdlib"
)

var (
	runExpression bool
	runOutPath    string
)

// runCmd assembles one or more SAFAS sources: build a fresh environment, load every argument in order,
// then (unlike ELPS, which has no analogous pass) run the resolver's
// fixed-point second pass before writing the result.
var runCmd = &cobra.Command{
	Use:   "run [file...]",
	Short: "Assemble SAFAS source into a binary",
	Long:  `Assemble one or more SAFAS source files, or an inline expression given with -e, into a binary artifact.`,
	Run: func(cmd *cobra.Command, args []string) {
		env := safas.NewRootEnv()
		env.Runtime.Loader.Parse = reader.ParseAll

		roots := make([]string, 0, len(args))
		for _, a := range args {
			roots = append(roots, filepath.Dir(a))
		}
		env.Runtime.Loader.Provider = &stdlib.EmbeddedProvider{
			Fallback: &safas.FileSourceProvider{Roots: roots},
		}

		renderer := diagnostic.NewRendererMode(os.Stderr, diagnostic.FileLineSource(nil), colorFlag)

		fail := func(err *safas.Value) {
			renderer.Emit(diagnostic.Diagnostic{Level: diagnostic.Error, Message: err.Error(), Span: nil})
			err.WriteTrace(os.Stderr)
			os.Exit(1)
		}

		sources, err := runReadSources(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		for _, src := range sources {
			forms, perr := reader.ParseAll(src.name, src.body)
			if perr != nil {
				fail(perr)
			}
			if _, evalErr := safas.EvalBody(env, forms); evalErr != nil {
				fail(evalErr)
			}
		}

		if res := env.Runtime.Resolver.Resolve(env.Runtime.Cursor); res.IsError() {
			fail(res)
		}

		out := env.Runtime.Cursor.Bytes()
		if runOutPath == "" || runOutPath == "-" {
			os.Stdout.Write(out) //nolint:errcheck // best-effort stdout write
			return
		}
		if err := os.WriteFile(runOutPath, out, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

type namedSource struct {
	name string
	body []byte
}

// runReadSources returns sources in argument order: either the literal
// expressions given with -e, or the contents of each file argument. Order
// matters because later forms may reference labels defined earlier.
func runReadSources(args []string) ([]namedSource, error) {
	sources := make([]namedSource, 0, len(args))
	if runExpression {
		for i, expr := range args {
			sources = append(sources, namedSource{name: fmt.Sprintf("<expr %d>", i), body: []byte(expr)})
		}
		return sources, nil
	}
	for _, path := range args {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, namedSource{name: path, body: b})
	}
	return sources, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVarP(&runExpression, "expression", "e", false, "interpret arguments as SAFAS source, not file paths")
	runCmd.Flags().StringVarP(&runOutPath, "out", "o", "", "output file for assembled bytes (default stdout)")
}
