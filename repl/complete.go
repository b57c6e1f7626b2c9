package repl

import (
	"sort"
	"strings"

	"github.com/beevik/prefixtree/v2"
	"github.com/safas-lang/safas/safas"
)

// symbolCompleter implements readline.AutoCompleter by enumerating bound
// names in the REPL's root environment. Unlike a package-qualified lookup, SAFAS has a
// single flat namespace per environment frame chain, so completion just
// walks Scope outward from env.
//
// names additionally backs a prefixtree, used the way go6502's debugger
// command tree uses one: to answer "is this prefix already unambiguous"
// without scanning, before falling back to the full candidate list a
// multi-match completion menu needs.
type symbolCompleter struct {
	env   *safas.Env
	names []string
	tree  *prefixtree.Tree[string]
}

func newSymbolCompleter(env *safas.Env) *symbolCompleter {
	c := &symbolCompleter{env: env, tree: prefixtree.New[string]()}
	c.refresh()
	return c
}

// refresh rebuilds the candidate set from env's current bindings. Called
// before each completion attempt since `def`/`def_syntax`/`import` can
// bind new names between REPL lines.
func (c *symbolCompleter) refresh() {
	seen := make(map[string]bool)
	var names []string
	for e := c.env; e != nil; e = e.Parent {
		for name := range e.Scope {
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	c.names = names
	c.tree = prefixtree.New[string]()
	for _, n := range names {
		c.tree.Add(n, n) //nolint:errcheck // duplicate/ambiguous adds just narrow later Find results
	}
}

// Do implements readline.AutoCompleter.
func (c *symbolCompleter) Do(line []rune, pos int) ([][]rune, int) {
	c.refresh()

	start := pos
	for start > 0 {
		ch := line[start-1]
		if ch == ' ' || ch == '\t' || ch == '(' || ch == '\n' {
			break
		}
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}

	if match, err := c.tree.FindKey(prefix); err == nil && match != prefix {
		return [][]rune{[]rune(match[len(prefix):])}, len(prefix)
	}

	var candidates []string
	for _, n := range c.names {
		if strings.HasPrefix(n, prefix) {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return nil, 0
	}
	result := make([][]rune, 0, len(candidates))
	for _, n := range candidates {
		result = append(result, []rune(n[len(prefix):]))
	}
	return result, len(prefix)
}
