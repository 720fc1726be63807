package pactaxios_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawfa/pact-gen-ts/internal/examples"
	"github.com/pawfa/pact-gen-ts/internal/graph"
	"github.com/pawfa/pact-gen-ts/internal/pactaxios"
)

// analyzeSource loads a temporary project with an installed axios package
// and analyzes the function name declared in src/api.ts.
func analyzeSource(t *testing.T, files map[string]string, name string) (pactaxios.RequestDescriptor, error) {
	t.Helper()
	root := t.TempDir()
	files["node_modules/axios/package.json"] = `{"name": "axios", "types": "index.d.ts"}`
	files["node_modules/axios/index.d.ts"] = "declare const axios: any;\nexport default axios;\n"

	var paths []string
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		if filepath.Ext(rel) == ".ts" && filepath.Dir(rel) == "src" {
			paths = append(paths, filepath.FromSlash(rel))
		}
	}

	prog, err := graph.LoadProgram(context.Background(), graph.NewTreeSitterParser(), root, paths, graph.ProgramOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = prog.Close() })

	fn, ok := prog.Function("src/api.ts", name)
	require.True(t, ok, "function %s not found", name)
	return pactaxios.NewAnalyzer(prog, examples.NewRegistry(nil)).Analyze(fn.Node)
}

func TestAnalyze_Program(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]string
		fn         string
		wantMethod string
		wantPath   string
		wantQuery  string
		wantBody   string
	}{
		{
			name: "default import",
			files: map[string]string{"src/api.ts": `import axios from 'axios';
export const getItem = () => axios.get<string>('/items/7');
`},
			fn:         "getItem",
			wantMethod: "GET",
			wantPath:   "/items/7",
		},
		{
			name: "instance base URL from another file",
			files: map[string]string{
				"src/http.ts": `import axios from 'axios';
export const http = axios.create({ baseURL: '/v2' });
`,
				"src/api.ts": `import {http} from './http';
type Item = {id: number};
export function createItem(item: Item) {
    return http.post<Item>('/items', item);
}
`,
			},
			fn:         "createItem",
			wantMethod: "POST",
			wantPath:   "/v2/items",
			wantBody:   "Item",
		},
		{
			name: "string constant and template",
			files: map[string]string{
				"src/urls.ts": "export const BASE = '/orders';\n",
				"src/api.ts": `import axios from 'axios';
import {BASE} from './urls';
export const getOrder = (id: string) => axios.get<number>(` + "`${BASE}/${id}/total`" + `);
`,
			},
			fn:         "getOrder",
			wantMethod: "GET",
			wantPath:   "/orders/string/total",
		},
		{
			name: "get with data config",
			files: map[string]string{"src/api.ts": `import axios from 'axios';
type Filter = {status: string};
export const search = (filter: Filter) => axios.get<string[]>('/search', {data: filter});
`},
			fn:         "search",
			wantMethod: "GET",
			wantPath:   "/search",
			wantBody:   "Filter",
		},
		{
			name: "query params",
			files: map[string]string{"src/api.ts": `import axios from 'axios';
type Page = {page: number};
export const list = (page: Page) => axios.get<string[]>('/things', {params: page});
`},
			fn:         "list",
			wantMethod: "GET",
			wantPath:   "/things",
			wantQuery:  "Page",
		},
		{
			name: "awaited call on instance with base URL",
			files: map[string]string{
				"src/http.ts": `import axios from 'axios';
export const http = axios.create({ baseURL: '/v2' });
`,
				"src/api.ts": `import {http} from './http';
type User = {name: string};
export async function createUser(u: User) {
    const r = await http.post<User>('/users', u);
    return r.data;
}
`,
			},
			fn:         "createUser",
			wantMethod: "POST",
			wantPath:   "/v2/users",
			wantBody:   "User",
		},
		{
			name: "awaited then chain",
			files: map[string]string{"src/api.ts": `import axios from 'axios';
export async function count() {
    return await axios.get<number>('/count').then((r) => r.data);
}
`},
			fn:         "count",
			wantMethod: "GET",
			wantPath:   "/count",
		},
		{
			name: "nested concatenation keeps every string operand",
			files: map[string]string{"src/api.ts": `import axios from 'axios';
export const posts = (id: number) => axios.get<string[]>('/users/' + id + '/posts');
`},
			fn:         "posts",
			wantMethod: "GET",
			wantPath:   "/users/1/posts",
		},
		{
			name: "parameter with a string literal type",
			files: map[string]string{"src/api.ts": `import axios from 'axios';
export const fixed = (p: '/fixed') => axios.get<string>(p);
`},
			fn:         "fixed",
			wantMethod: "GET",
			wantPath:   "/fixed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := analyzeSource(t, tt.files, tt.fn)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, d.Method)
			assert.Equal(t, tt.wantPath, d.Path)
			require.NotNil(t, d.ResponseBodyType)

			if tt.wantQuery == "" {
				assert.Nil(t, d.QueryType)
			} else {
				require.NotNil(t, d.QueryType)
				assert.Equal(t, tt.wantQuery, d.QueryType.Text())
			}
			if tt.wantBody == "" {
				assert.Nil(t, d.RequestBodyType)
			} else {
				require.NotNil(t, d.RequestBodyType)
				assert.Equal(t, tt.wantBody, d.RequestBodyType.Text())
			}
		})
	}
}

func TestAnalyze_ProgramErrors(t *testing.T) {
	t.Run("local function named like axios", func(t *testing.T) {
		_, err := analyzeSource(t, map[string]string{"src/api.ts": `const client = { get: (url: string) => url };
export const fake = () => client.get('/nope');
`}, "fake")
		assert.ErrorIs(t, err, pactaxios.ErrCallSiteNotFound)
	})

	t.Run("missing generic", func(t *testing.T) {
		_, err := analyzeSource(t, map[string]string{"src/api.ts": `import axios from 'axios';
export const untyped = () => axios.get('/x');
`}, "untyped")
		assert.ErrorIs(t, err, pactaxios.ErrMissingResponseType)
	})

	t.Run("path from a call", func(t *testing.T) {
		_, err := analyzeSource(t, map[string]string{"src/api.ts": `import axios from 'axios';
declare function buildUrl(): string;
export const dynamic = () => axios.get<string>(buildUrl());
`}, "dynamic")
		assert.ErrorIs(t, err, pactaxios.ErrUnsupportedPathExpression)
	})
}
