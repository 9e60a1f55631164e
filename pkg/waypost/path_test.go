package waypost

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutePathParts(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []PathPart
	}{
		{
			name: "root",
			path: "/",
			want: nil,
		},
		{
			name: "static segments",
			path: "/users/all",
			want: []PathPart{
				{Kind: StaticPart, Value: "users"},
				{Kind: StaticPart, Value: "all"},
			},
		},
		{
			name: "untyped parameter",
			path: "/users/{id}",
			want: []PathPart{
				{Kind: StaticPart, Value: "users"},
				{Kind: ParamPart, Value: "id"},
			},
		},
		{
			name: "typed parameter",
			path: "/users/{id:int}",
			want: []PathPart{
				{Kind: StaticPart, Value: "users"},
				{Kind: ParamPart, Value: "id", ParamType: "int"},
			},
		},
		{
			name: "wildcard",
			path: "/files/{*}",
			want: []PathPart{
				{Kind: StaticPart, Value: "files"},
				{Kind: WildcardPart, Value: "*"},
			},
		},
		{
			name: "missing leading slash tolerated",
			path: "users/{id}",
			want: []PathPart{
				{Kind: StaticPart, Value: "users"},
				{Kind: ParamPart, Value: "id"},
			},
		},
		{
			name: "repeated slashes dropped",
			path: "//users///{id}/",
			want: []PathPart{
				{Kind: StaticPart, Value: "users"},
				{Kind: ParamPart, Value: "id"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := RoutePath(tt.path).Parts()
			require.NoError(t, err)
			assert.Equal(t, tt.want, parts)
		})
	}
}

func TestRoutePathPartsInvalid(t *testing.T) {
	for _, path := range []string{
		"/users/{id",
		"/users/id}",
		"/users/{id:int:more}",
		"/us:ers",
		"/{}",
	} {
		t.Run(path, func(t *testing.T) {
			_, err := RoutePath(path).Parts()
			assert.Error(t, err)
		})
	}
}

func TestRoutePathValidate(t *testing.T) {
	assert.NoError(t, RoutePath("/users/{id:int}/posts/{slug}").Validate())
	assert.NoError(t, RoutePath("/files/{*}").Validate())

	err := RoutePath("/users/{id:integer}").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parameter type")

	err = RoutePath("/users/{id}/friends/{id}").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate parameter")
}

func TestRoutePathNormalized(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"", "/"},
		{"users", "/users"},
		{"/users/", "/users"},
		{"//users//all", "/users/all"},
		{"/users/{id:int}", "/users/{id:int}"},
		{"/files/{*}/", "/files/{*}"},
	}
	for _, tt := range tests {
		got, err := RoutePath(tt.path).Normalized()
		require.NoError(t, err, tt.path)
		assert.Equal(t, RoutePath(tt.want), got, tt.path)
	}
}

func TestRoutePathIdentity(t *testing.T) {
	a, err := RoutePath("/users/{id:int}").Identity()
	require.NoError(t, err)
	b, err := RoutePath("/users/{name}").Identity()
	require.NoError(t, err)
	assert.Equal(t, a, b, "parameter names and types must not distinguish routes")

	c, err := RoutePath("/users/{id}/posts").Identity()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	w, err := RoutePath("/files/{*}").Identity()
	require.NoError(t, err)
	assert.Equal(t, "/files/{*}", w, "wildcards stay distinct from parameters")
}

func TestJoinPaths(t *testing.T) {
	joined := JoinPaths("/users", "/{id:int}")
	got, err := joined.Normalized()
	require.NoError(t, err)
	assert.Equal(t, RoutePath("/users/{id:int}"), got)

	joined = JoinPaths("/users/", "/")
	got, err = joined.Normalized()
	require.NoError(t, err)
	assert.Equal(t, RoutePath("/users"), got)
}

func TestValidateParamValue(t *testing.T) {
	assert.NoError(t, ValidateParamValue("", "anything"))
	assert.NoError(t, ValidateParamValue("string", "anything"))
	assert.NoError(t, ValidateParamValue("int", "42"))
	assert.Error(t, ValidateParamValue("int", "forty-two"))
	assert.NoError(t, ValidateParamValue("float", "3.14"))
	assert.Error(t, ValidateParamValue("float", "pi"))
	assert.NoError(t, ValidateParamValue("bool", "true"))
	assert.Error(t, ValidateParamValue("bool", "yes-please"))
	assert.NoError(t, ValidateParamValue("uuid", "b9a4f8a0-7c3e-4f55-9a5e-0d6f6f9a1b2c"))
	assert.Error(t, ValidateParamValue("uuid", "not-a-uuid"))
	assert.Error(t, ValidateParamValue("decimal", "1"))
}

// segmentGen produces path segments: static literals, typed and untyped
// parameters, never wildcards (wildcard placement is unrestricted by the
// grammar and covered by the table tests).
func segmentGen() gopter.Gen {
	return gen.OneGenOf(
		gen.RegexMatch(`[a-z][a-z0-9-]{0,8}`),
		gen.RegexMatch(`[a-z][a-z0-9]{0,8}`).Map(func(name string) string {
			return "{" + name + "}"
		}),
		gen.RegexMatch(`[a-z][a-z0-9]{0,8}`).Map(func(name string) string {
			return "{" + name + ":int}"
		}),
	)
}

func TestNormalizedProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("normalization is idempotent", prop.ForAll(
		func(segments []string, trailing bool) bool {
			raw := "/" + strings.Join(segments, "/")
			if trailing {
				raw += "/"
			}
			once, err := RoutePath(raw).Normalized()
			if err != nil {
				return false
			}
			twice, err := once.Normalized()
			if err != nil {
				return false
			}
			return once == twice
		},
		gen.SliceOfN(3, segmentGen()),
		gen.Bool(),
	))

	properties.Property("extra slashes never change the canonical form", prop.ForAll(
		func(segments []string) bool {
			clean := "/" + strings.Join(segments, "/")
			messy := "//" + strings.Join(segments, "//") + "/"
			a, err := RoutePath(clean).Normalized()
			if err != nil {
				return false
			}
			b, err := RoutePath(messy).Normalized()
			if err != nil {
				return false
			}
			return a == b
		},
		gen.SliceOfN(3, segmentGen()),
	))

	properties.Property("identity ignores parameter names", prop.ForAll(
		func(static, name1, name2 string) bool {
			a, err := RoutePath("/" + static + "/{" + name1 + "}").Identity()
			if err != nil {
				return false
			}
			b, err := RoutePath("/" + static + "/{" + name2 + ":uuid}").Identity()
			if err != nil {
				return false
			}
			return a == b
		},
		gen.RegexMatch(`[a-z]{1,8}`),
		gen.RegexMatch(`[a-z]{1,8}`),
		gen.RegexMatch(`[a-z]{1,8}`),
	))

	properties.TestingRun(t)
}
