package pact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawfa/pact-gen-ts/internal/examples"
	"github.com/pawfa/pact-gen-ts/internal/pactaxios"
	st "github.com/pawfa/pact-gen-ts/internal/syntax/syntaxtest"
)

var (
	userType  = st.Named("User", st.Prop("id", st.Named("number")), st.Prop("name", st.Named("string")))
	queryType = st.Named("UserQuery",
		st.Prop("search", st.Named("string")),
		st.Prop("page", st.Named("number")),
		st.Prop("ids", st.ArrayOf(st.Named("number"))),
		st.Prop("filter", st.Named("Filter", st.Prop("active", st.Named("boolean")))),
		st.Prop("cursor", st.Named("undefined")),
	)
)

func TestParseAnnotations(t *testing.T) {
	tests := []struct {
		name    string
		tags    map[string]string
		want    Annotations
		wantErr bool
	}{
		{
			name: "quoted values",
			tags: map[string]string{
				TagPact:           "",
				TagDescription:    `"get user by id"`,
				TagProviderState:  `'user 1 exists'`,
				TagResponseStatus: "201",
				TagProvider:       "users",
			},
			want: Annotations{Description: "get user by id", ProviderState: "user 1 exists", Provider: "users", Status: 201},
		},
		{
			name: "defaults",
			tags: map[string]string{TagPact: ""},
			want: Annotations{Description: "getUser", Status: 200},
		},
		{
			name:    "status out of range",
			tags:    map[string]string{TagResponseStatus: "42"},
			wantErr: true,
		},
		{
			name:    "status not a number",
			tags:    map[string]string{TagResponseStatus: "ok"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnnotations(tt.tags, "getUser")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAnnotated(t *testing.T) {
	assert.True(t, IsAnnotated(map[string]string{"pact": ""}))
	assert.False(t, IsAnnotated(map[string]string{"pact-description": "x"}))
	assert.False(t, IsAnnotated(nil))
}

func TestBuildInteraction(t *testing.T) {
	values := examples.NewRegistry(nil)
	a := Annotations{Description: "create user", ProviderState: "no users", Status: 201}
	d := pactaxios.RequestDescriptor{
		Method:           "POST",
		Path:             "/api/v1/users",
		RequestBodyType:  st.Named("NewUser", st.Prop("name", st.Named("string"))),
		ResponseBodyType: userType,
	}

	got := BuildInteraction(a, d, values)
	assert.Equal(t, Interaction{
		Description:   "create user",
		ProviderState: "no users",
		Request: Request{
			Method: "POST",
			Path:   "/api/v1/users",
			Body:   map[string]any{"name": "string"},
		},
		Response: Response{
			Status: 201,
			Body:   map[string]any{"id": int64(1), "name": "string"},
		},
	}, got)
}

func TestBuildInteraction_VoidResponse(t *testing.T) {
	got := BuildInteraction(Annotations{Description: "delete", Status: 204}, pactaxios.RequestDescriptor{
		Method:           "DELETE",
		Path:             "/users/1",
		ResponseBodyType: st.Named("void"),
	}, examples.NewRegistry(nil))

	assert.Nil(t, got.Response.Body)
	assert.Nil(t, got.Request.Body)
	assert.Empty(t, got.Request.Query)
}

func TestQuery(t *testing.T) {
	values := examples.NewRegistry(map[string]string{"number": "7"})
	assert.Equal(t, "ids=7&page=7&search=string", Query(queryType, values))
	assert.Empty(t, Query(nil, values))
}

func TestContract_Merge(t *testing.T) {
	c := NewContract("web", "users", "")
	assert.Equal(t, DefaultSpecification, c.Metadata.PactSpecification.Version)

	c.Merge(
		Interaction{Description: "list users", Response: Response{Status: 200}},
		Interaction{Description: "delete user", Response: Response{Status: 204}},
	)
	c.Merge(Interaction{Description: "list users", Response: Response{Status: 206}})

	require.Len(t, c.Interactions, 2)
	assert.Equal(t, "delete user", c.Interactions[0].Description)
	assert.Equal(t, 206, c.Interactions[1].Response.Status, "new interaction wins")
}
