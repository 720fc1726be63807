package pactaxios

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	st "github.com/pawfa/pact-gen-ts/internal/syntax/syntaxtest"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const axiosTypings = "node_modules/axios/index.d.ts"

// mapExamples is an ExampleProvider backed by a map.
type mapExamples map[string]string

func (m mapExamples) Example(typeName string) (string, bool) {
	v, ok := m[typeName]
	return v, ok
}

var (
	numberType = st.Named("number")
	userType   = st.Named("User", st.Prop("id", numberType), st.Prop("name", st.Named("string")))
)

// axiosIdent returns an identifier implemented inside the axios typings.
func axiosIdent(name string) *st.Node {
	id := st.Ident(name, nil)
	id.Impls = []*st.Node{st.External(axiosTypings)}
	return id
}

// axiosCall builds `axios.<method><User>(args...)`.
func axiosCall(method string, args ...*st.Node) *st.Node {
	return st.Call(
		st.Member(axiosIdent("axios"), axiosIdent(method)),
		[]*st.Node{st.TypeRef(userType)},
		args...,
	)
}

func newTestAnalyzer(project *st.Project) *Analyzer {
	if project == nil {
		project = st.NewProject()
	}
	return NewAnalyzer(project, mapExamples{"number": "1"})
}

// ---------------------------------------------------------------------------
// Locate
// ---------------------------------------------------------------------------

func TestLocate_FindsClientCall(t *testing.T) {
	unrelated := st.Call(st.Ident("buildHeaders", nil), nil)
	call := axiosCall("get", st.Str("/users"))
	fn := st.Func(unrelated, call)

	got, err := newTestAnalyzer(nil).Locate(fn)
	require.NoError(t, err)
	assert.Same(t, call, got)
}

func TestLocate_ChainedThenSelectsInnerCall(t *testing.T) {
	inner := axiosCall("get", st.Str("/users"))
	then := st.Ident("then", nil)
	then.Impls = []*st.Node{st.External("node_modules/typescript/lib/lib.es5.d.ts")}
	outer := st.Call(st.Member(inner, then), nil, st.Ident("handle", nil))

	got, err := newTestAnalyzer(nil).Locate(st.Func(outer))
	require.NoError(t, err)
	assert.Same(t, inner, got, "the .then call must not be selected")
}

func TestLocate_IgnoresClientIdentifierInArguments(t *testing.T) {
	call := st.Call(st.Ident("wrap", nil), nil, axiosIdent("axios"))

	_, err := newTestAnalyzer(nil).Locate(st.Func(call))
	assert.ErrorIs(t, err, ErrCallSiteNotFound)
}

func TestLocate_RequiresPackageAndDependencyDir(t *testing.T) {
	local := st.Ident("axios", nil)
	local.Impls = []*st.Node{st.External("src/lib/axios.ts")}
	call := st.Call(st.Member(local, st.Ident("get", nil)), nil, st.Str("/x"))

	_, err := newTestAnalyzer(nil).Locate(st.Func(call))
	assert.ErrorIs(t, err, ErrCallSiteNotFound)
}

func TestLocate_DirectCall(t *testing.T) {
	call := st.Call(axiosIdent("axios"), nil, st.Object())

	got, err := newTestAnalyzer(nil).Locate(st.Func(call))
	require.NoError(t, err)
	assert.Same(t, call, got)
}

func TestLocate_NotFound(t *testing.T) {
	fn := st.Func(st.Call(st.Ident("fetch", nil), nil, st.Str("/users")))

	_, err := newTestAnalyzer(nil).Analyze(fn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCallSiteNotFound))
}

func TestLocate_CustomClientPackage(t *testing.T) {
	client := st.Ident("ky", nil)
	client.Impls = []*st.Node{st.External("vendor/ky/index.d.ts")}
	call := st.Call(st.Member(client, st.Ident("get", nil)), nil, st.Str("/x"))

	a := NewAnalyzer(st.NewProject(), nil, WithClientPackage("ky"), WithDependencyDir("vendor"))
	got, err := a.Locate(st.Func(call))
	require.NoError(t, err)
	assert.Same(t, call, got)
}

// ---------------------------------------------------------------------------
// Method and response type
// ---------------------------------------------------------------------------

func TestMethod(t *testing.T) {
	a := newTestAnalyzer(nil)

	tests := []struct {
		name string
		call *st.Node
		want string
	}{
		{"lower case", axiosCall("get", st.Str("/a")), "GET"},
		{"mixed case", axiosCall("Patch", st.Str("/a")), "PATCH"},
		{"direct call has no method", st.Call(axiosIdent("axios"), nil), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Method(tt.call))
		})
	}
}

func TestSecondIdentifier(t *testing.T) {
	assert.Equal(t, "DELETE", SecondIdentifier([]string{"api", "delete", "id"}))
	assert.Equal(t, "", SecondIdentifier([]string{"axios"}))
	assert.Equal(t, "", SecondIdentifier(nil))
}

func TestWithMethodPolicy(t *testing.T) {
	a := NewAnalyzer(st.NewProject(), nil, WithMethodPolicy(func([]string) string { return "HEAD" }))
	assert.Equal(t, "HEAD", a.Method(axiosCall("get", st.Str("/a"))))
}

func TestExtract_MissingResponseType(t *testing.T) {
	call := st.Call(st.Member(axiosIdent("axios"), axiosIdent("get")), nil, st.Str("/users"))

	_, err := newTestAnalyzer(nil).Extract(call)
	assert.ErrorIs(t, err, ErrMissingResponseType)
}

func TestExtract_GetWithoutBody(t *testing.T) {
	call := axiosCall("get", st.Str("/users"))

	d, err := newTestAnalyzer(nil).Extract(call)
	require.NoError(t, err)
	assert.Equal(t, "GET", d.Method)
	assert.Equal(t, "/users", d.Path)
	assert.Same(t, userType, d.ResponseBodyType)
	assert.Nil(t, d.RequestBodyType)
	assert.Nil(t, d.QueryType)
}

func TestExtract_MissingURLArgument(t *testing.T) {
	_, err := newTestAnalyzer(nil).Extract(axiosCall("get"))
	assert.ErrorIs(t, err, ErrUnsupportedPathExpression)
}

// ---------------------------------------------------------------------------
// Request body and query
// ---------------------------------------------------------------------------

func TestExtract_RequestBody(t *testing.T) {
	payload := st.Named("CreateUser", st.Prop("name", st.Named("string")))
	filter := st.Named("UserFilter", st.Prop("active", st.Named("boolean")))

	tests := []struct {
		name      string
		call      *st.Node
		wantBody  *st.Type
		wantQuery *st.Type
	}{
		{
			name:     "post uses second argument",
			call:     axiosCall("post", st.Str("/users"), st.Ident("user", payload)),
			wantBody: payload,
		},
		{
			name:     "put uses second argument",
			call:     axiosCall("put", st.Str("/users/1"), st.Ident("user", payload)),
			wantBody: payload,
		},
		{
			name:     "delete reads data from config",
			call:     axiosCall("delete", st.Str("/users"), st.Object(st.Assign("data", st.Ident("user", payload)))),
			wantBody: payload,
		},
		{
			name:     "config declaring another property first is not recognized",
			call:     axiosCall("delete", st.Str("/users"), st.Object(st.Assign("headers", st.Object()), st.Assign("data", st.Ident("user", payload)))),
			wantBody: nil,
		},
		{
			name:      "get reads params from config",
			call:      axiosCall("get", st.Str("/users"), st.Object(st.Assign("params", st.Ident("filter", filter)))),
			wantQuery: filter,
		},
		{
			name:      "post with config as third argument",
			call:      axiosCall("post", st.Str("/users"), st.Ident("user", payload), st.Object(st.Assign("params", st.Ident("filter", filter)))),
			wantBody:  payload,
			wantQuery: filter,
		},
	}

	a := newTestAnalyzer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := a.Extract(tt.call)
			require.NoError(t, err)

			if tt.wantBody == nil {
				assert.Nil(t, d.RequestBodyType)
			} else {
				assert.Same(t, tt.wantBody, d.RequestBodyType)
			}
			if tt.wantQuery == nil {
				assert.Nil(t, d.QueryType)
			} else {
				assert.Same(t, tt.wantQuery, d.QueryType)
			}
		})
	}
}

func TestFirstPropertyNamed(t *testing.T) {
	cfg := st.Named("Cfg", st.Prop("params", numberType), st.Prop("data", numberType))

	assert.True(t, FirstPropertyNamed(cfg, "params"))
	assert.False(t, FirstPropertyNamed(cfg, "data"), "only the first declared property counts")
	assert.False(t, FirstPropertyNamed(st.Named("string"), "data"))
	assert.False(t, FirstPropertyNamed(nil, "data"))
}

// ---------------------------------------------------------------------------
// Materialize
// ---------------------------------------------------------------------------

func TestMaterialize(t *testing.T) {
	id := func() *st.Node { return st.Ident("id", numberType) }

	tests := []struct {
		name string
		node *st.Node
		want string
	}{
		{"string literal", st.Str("/a/b"), "/a/b"},
		{
			"template",
			st.Template(st.TemplateText("`/users/"), st.Span(id()), st.TemplateText("`")),
			"/users/1",
		},
		{
			"template with delimiters in segment text",
			st.Template(st.TemplateText("`/users/${"), st.Span(id()), st.TemplateText("}/posts`")),
			"/users/1/posts",
		},
		{
			"template without registered example uses type name",
			st.Template(st.TemplateText("`/users/"), st.Span(st.Ident("slug", st.Named("Slug"))), st.TemplateText("`")),
			"/users/Slug",
		},
		{
			"template with literal-typed substitution",
			st.Template(st.TemplateText("`/"), st.Span(st.Ident("kind", st.StringLit("admins"))), st.TemplateText("`")),
			"/admins",
		},
		{"concatenation", st.Binary(st.Str("/users/"), "+", id()), "/users/1"},
		{
			"nested concatenation",
			st.Binary(st.Binary(st.Str("/users/"), "+", id()), "+", st.Str("/posts")),
			"/users/1/posts",
		},
		{"literal-typed parameter", st.Ident("p", st.StringLit("/fixed")), "/fixed"},
		{
			"concatenation drops computed operands",
			st.Binary(st.Str("/users/"), "+", st.Call(st.Ident("encode", nil), nil, id())),
			"/users/",
		},
	}

	a := newTestAnalyzer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Materialize(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaterialize_TemplateMatchesConcatenation(t *testing.T) {
	a := newTestAnalyzer(nil)

	tmpl, err := a.Materialize(st.Template(st.TemplateText("`/users/"), st.Span(st.Ident("id", numberType)), st.TemplateText("`")))
	require.NoError(t, err)
	concat, err := a.Materialize(st.Binary(st.Str("/users/"), "+", st.Ident("id", numberType)))
	require.NoError(t, err)

	assert.Equal(t, tmpl, concat)
}

func TestMaterialize_Idempotent(t *testing.T) {
	a := newTestAnalyzer(nil)
	first, err := a.Materialize(st.Str("/a/b"))
	require.NoError(t, err)
	second, err := a.Materialize(st.Str(first))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMaterialize_VariableIndirection(t *testing.T) {
	url := st.Ident("url", nil)
	url.Defs = []*st.Node{st.VarDecl("url", st.Str("/items"))}

	got, err := newTestAnalyzer(nil).Materialize(url)
	require.NoError(t, err)
	assert.Equal(t, "/items", got)
}

func TestMaterialize_ChainedVariables(t *testing.T) {
	base := st.Ident("base", nil)
	base.Defs = []*st.Node{st.VarDecl("base", st.Str("/items"))}
	url := st.Ident("url", nil)
	url.Defs = []*st.Node{st.VarDecl("url", st.Binary(base, "+", st.Str("/all")))}
	// base is an identifier operand: it is substituted by its type text.
	base.Typ = st.StringLit("/items")

	got, err := newTestAnalyzer(nil).Materialize(url)
	require.NoError(t, err)
	assert.Equal(t, "/items/all", got)
}

func TestMaterialize_Unsupported(t *testing.T) {
	a := newTestAnalyzer(nil)

	t.Run("call expression", func(t *testing.T) {
		_, err := a.Materialize(st.Call(st.Ident("buildURL", nil), nil))
		assert.ErrorIs(t, err, ErrUnsupportedPathExpression)
	})

	t.Run("identifier without definition", func(t *testing.T) {
		_, err := a.Materialize(st.Ident("url", nil))
		assert.ErrorIs(t, err, ErrUnsupportedPathExpression)
	})

	t.Run("self-referential definition", func(t *testing.T) {
		url := st.Ident("url", nil)
		url.Defs = []*st.Node{st.VarDecl("url", url)}

		_, err := a.Materialize(url)
		assert.ErrorIs(t, err, ErrUnsupportedPathExpression)
	})
}

func TestMaterialize_DepthGuard(t *testing.T) {
	a := NewAnalyzer(st.NewProject(), nil, WithMaxPathDepth(2))

	inner := st.Ident("inner", nil)
	inner.Defs = []*st.Node{st.VarDecl("inner", st.Str("/x"))}
	outer := st.Ident("outer", nil)
	outer.Defs = []*st.Node{st.VarDecl("outer", inner)}

	_, err := a.Materialize(outer)
	require.NoError(t, err, "two indirections fit a depth of two")

	top := st.Ident("top", nil)
	top.Defs = []*st.Node{st.VarDecl("top", outer)}
	_, err = a.Materialize(top)
	assert.ErrorIs(t, err, ErrUnsupportedPathExpression)
}

// ---------------------------------------------------------------------------
// Base URL
// ---------------------------------------------------------------------------

const instanceFile = "src/axios-instance.ts"

// instanceProject models:
//
//	export const axiosInstance = Axios.create();
//	export const axiosInstanceWithBaseURL = Axios.create({baseURL: '/api/v1'});
func instanceProject() (*st.Project, map[string]*st.Node) {
	create := func(args ...*st.Node) *st.Node {
		return st.Call(st.Member(axiosIdent("Axios"), axiosIdent("create")), nil, args...)
	}
	decls := map[string]*st.Node{
		"axiosInstance":            st.VarDecl("axiosInstance", create()),
		"axiosInstanceWithBaseURL": st.VarDecl("axiosInstanceWithBaseURL", create(st.Object(st.Assign("baseURL", st.Str("/api/v1"))))),
	}
	for _, d := range decls {
		d.Path = instanceFile
	}
	return st.NewProject(&st.File{FilePath: instanceFile, Vars: decls}), decls
}

func instanceCall(decls map[string]*st.Node, instance, method string, args ...*st.Node) *st.Node {
	inst := st.Ident(instance, nil)
	inst.Impls = []*st.Node{decls[instance]}
	return st.Call(st.Member(inst, axiosIdent(method)), []*st.Node{st.TypeRef(userType)}, args...)
}

func TestResolveBaseURL(t *testing.T) {
	project, decls := instanceProject()
	a := newTestAnalyzer(project)

	assert.Equal(t, "/api/v1", a.ResolveBaseURL(instanceCall(decls, "axiosInstanceWithBaseURL", "get", st.Str("/users"))))
	assert.Equal(t, "", a.ResolveBaseURL(instanceCall(decls, "axiosInstance", "get", st.Str("/users"))))
}

func TestResolveBaseURL_MissingLinks(t *testing.T) {
	project, _ := instanceProject()
	a := newTestAnalyzer(project)

	t.Run("default import has no declaration", func(t *testing.T) {
		assert.Equal(t, "", a.ResolveBaseURL(axiosCall("get", st.Str("/x"))))
	})

	t.Run("instance without implementation", func(t *testing.T) {
		call := st.Call(st.Member(st.Ident("api", nil), axiosIdent("get")), nil, st.Str("/x"))
		assert.Equal(t, "", a.ResolveBaseURL(call))
	})

	t.Run("direct call", func(t *testing.T) {
		assert.Equal(t, "", a.ResolveBaseURL(st.Call(axiosIdent("axios"), nil)))
	})

	t.Run("base url not first property", func(t *testing.T) {
		decl := st.VarDecl("api", st.Call(st.Member(axiosIdent("Axios"), axiosIdent("create")), nil,
			st.Object(st.Assign("timeout", &st.Node{K: "numeric_literal", Src: "100"}), st.Assign("baseURL", st.Str("/v2")))))
		decl.Path = "src/api.ts"
		p := st.NewProject(&st.File{FilePath: "src/api.ts", Vars: map[string]*st.Node{"api": decl}})

		inst := st.Ident("api", nil)
		inst.Impls = []*st.Node{decl}
		call := st.Call(st.Member(inst, axiosIdent("get")), nil, st.Str("/x"))
		assert.Equal(t, "/v2", newTestAnalyzer(p).ResolveBaseURL(call))
	})
}

func TestAnalyze_InstanceWithBaseURL(t *testing.T) {
	project, decls := instanceProject()
	a := newTestAnalyzer(project)

	id := st.Ident("id", numberType)
	call := instanceCall(decls, "axiosInstanceWithBaseURL", "get",
		st.Template(st.TemplateText("`/users/"), st.Span(id), st.TemplateText("`")))
	fn := st.Func(call)

	d, err := a.Analyze(fn)
	require.NoError(t, err)
	assert.Equal(t, "GET", d.Method)
	assert.Equal(t, "/api/v1/users/1", d.Path)
	assert.Same(t, userType, d.ResponseBodyType)
}
