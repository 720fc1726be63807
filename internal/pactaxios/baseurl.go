package pactaxios

import (
	"github.com/pawfa/pact-gen-ts/internal/syntax"
)

// baseURLProperty is the axios config field holding the URL prefix.
const baseURLProperty = "baseURL"

// ResolveBaseURL returns the baseURL configured on the client instance used
// by call, as in `const api = axios.create({baseURL: '/api'})`. Any missing
// link yields "".
func (a *Analyzer) ResolveBaseURL(call syntax.Node) string {
	children := call.Children()
	if len(children) == 0 {
		return ""
	}
	instance, ok := syntax.FirstChildOfKind(children[0], syntax.KindIdentifier)
	if !ok {
		return ""
	}
	impls := instance.Implementations()
	if len(impls) == 0 || a.project == nil {
		return ""
	}

	file, ok := a.project.SourceFile(impls[0].FilePath())
	if !ok {
		return ""
	}
	decl, ok := file.VariableDeclaration(instance.Text())
	if !ok {
		return ""
	}
	objects := decl.Descendants(syntax.KindObjectLiteral)
	if len(objects) == 0 {
		return ""
	}
	init, ok := propertyInitializer(objects[0], baseURLProperty)
	if !ok {
		return ""
	}
	return stripQuotes(init.Text())
}

// propertyInitializer returns the value of the `name: value` assignment in
// an object literal.
func propertyInitializer(object syntax.Node, name string) (syntax.Node, bool) {
	for _, prop := range syntax.ChildrenOfKind(object, syntax.KindPropertyAssignment) {
		children := prop.Children()
		if len(children) < 2 {
			continue
		}
		if stripQuotes(children[0].Text()) != name {
			continue
		}
		return children[len(children)-1], true
	}
	return nil, false
}
