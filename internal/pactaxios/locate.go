package pactaxios

import (
	"fmt"
	"strings"

	"github.com/pawfa/pact-gen-ts/internal/syntax"
)

// Locate returns the first call expression in fn whose dispatch root carries
// an identifier implemented inside the client package.
func (a *Analyzer) Locate(fn syntax.Node) (syntax.Node, error) {
	for _, call := range fn.Descendants(syntax.KindCallExpression) {
		root := dispatchRoot(call)
		for _, id := range syntax.ChildrenOfKind(root, syntax.KindIdentifier) {
			if a.isClientIdentifier(id) {
				return call, nil
			}
		}
	}
	return nil, fmt.Errorf("%w in %s", ErrCallSiteNotFound, fn.FilePath())
}

// dispatchRoot returns the property access of `x.get(...)` or `p.then(...)`
// so that only the receiver chain of this call is inspected, not the
// arguments. A plain `axios(config)` call is its own root.
func dispatchRoot(call syntax.Node) syntax.Node {
	if pa, ok := syntax.FirstChildOfKind(call, syntax.KindPropertyAccess); ok {
		return pa
	}
	return call
}

func (a *Analyzer) isClientIdentifier(id syntax.Node) bool {
	impls := id.Implementations()
	if len(impls) == 0 {
		return false
	}
	path := impls[0].FilePath()
	return strings.Contains(path, a.opts.ClientPackage) && strings.Contains(path, a.opts.DependencyDir)
}
