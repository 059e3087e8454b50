package spec

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ehabterra/apidocs/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
	"gopkg.in/yaml.v3"
)

const documentsArchive = "testdata/documents.txtar"

// loadFixture decodes one file from the documents archive.
func loadFixture(t *testing.T, name string) *yaml.Node {
	t.Helper()
	ar, err := txtar.ParseFile(documentsArchive)
	require.NoError(t, err)
	for _, f := range ar.Files {
		if f.Name == name {
			root, err := document.Decode(name, f.Data)
			require.NoError(t, err)
			return root
		}
	}
	t.Fatalf("fixture %s not found in %s", name, documentsArchive)
	return nil
}

func extractFixture(t *testing.T, name string) *ParsedSpec {
	t.Helper()
	parsed, err := Extract(loadFixture(t, name))
	require.NoError(t, err)
	return parsed
}

func endpointIDs(eps []Endpoint) []string {
	ids := make([]string, len(eps))
	for i, ep := range eps {
		ids[i] = ep.ID
	}
	return ids
}

func TestEndpointID(t *testing.T) {
	tests := []struct {
		method, path, want string
	}{
		{"get", "/users/{id}", "GET_users_id"},
		{"GET", "/users/{id}", "GET_users_id"},
		{"post", "/pets", "POST_pets"},
		{"delete", "/pets/{petId}/photos/{photoId}", "DELETE_pets_petId_photos_photoId"},
		{"get", "/", "GET_"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EndpointID(tt.method, tt.path), "%s %s", tt.method, tt.path)
	}
}

func TestExtract_OpenAPI3(t *testing.T) {
	parsed := extractFixture(t, "petstore-v3.yaml")

	assert.Equal(t, Info{
		Title:       "Swagger Petstore",
		Version:     "1.0.7",
		Description: "Pets, store and users",
	}, parsed.Info)
	assert.Equal(t, []Server{
		{URL: "https://petstore3.swagger.io/api/v3"},
		{URL: "http://localhost:8080/api/v3", Description: "local"},
	}, parsed.Servers)
	assert.Equal(t, "https://petstore3.swagger.io/api/v3", parsed.BaseURL())

	// path order from the document, method order from the fixed verb list
	assert.Equal(t, []string{
		"GET_pets",
		"POST_pets",
		"GET_pets_petId",
		"DELETE_pets_petId",
		"OPTIONS_health",
		"HEAD_health",
	}, endpointIDs(parsed.Endpoints))
}

func TestExtract_EndpointFields(t *testing.T) {
	parsed := extractFixture(t, "petstore-v3.yaml")

	list, ok := parsed.Endpoint("GET_pets")
	require.True(t, ok)
	assert.Equal(t, "/pets", list.Path)
	assert.Equal(t, "GET", list.Method)
	assert.Equal(t, "List pets", list.Summary)
	assert.Equal(t, "listPets", list.OperationID)
	assert.Equal(t, []string{"pets", "store"}, list.Tags)
	assert.False(t, list.Parameters.IsZero())
	assert.True(t, list.RequestBody.IsZero())
	assert.False(t, list.HasRequestBody())

	params, err := json.Marshal(list.Parameters)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"limit","in":"query","schema":{"type":"integer"}}]`, string(params))

	add, ok := parsed.Endpoint("POST_pets")
	require.True(t, ok)
	assert.True(t, add.HasRequestBody())

	del, ok := parsed.Endpoint("DELETE_pets_petId")
	require.True(t, ok)
	assert.Equal(t, "DELETE /pets/{petId}", del.Summary)
	assert.Equal(t, "Deletes a pet forever", del.Description)
	assert.Empty(t, del.OperationID)

	// empty summary is treated as absent
	opts, ok := parsed.Endpoint("OPTIONS_health")
	require.True(t, ok)
	assert.Equal(t, "OPTIONS /health", opts.Summary)
	assert.Empty(t, opts.Tags)
	assert.True(t, opts.Responses.IsZero())

	_, ok = parsed.Endpoint("GET_nope")
	assert.False(t, ok)
}

func TestExtract_Swagger2(t *testing.T) {
	parsed := extractFixture(t, "swagger-v2.yaml")

	assert.Equal(t, "Legacy", parsed.Info.Title)
	assert.Equal(t, "2.3", parsed.Info.Version)
	assert.Equal(t, []Server{{URL: "https://api.example.com/v1"}}, parsed.Servers)
	assert.Equal(t, []string{"GET_users_id", "PUT_users_id"}, endpointIDs(parsed.Endpoints))
}

func TestExtract_SwaggerHostDefaults(t *testing.T) {
	parsed := extractFixture(t, "swagger-host-only.yaml")

	assert.Equal(t, []Server{{URL: "http://api.example.com"}}, parsed.Servers)
	assert.Equal(t, DefaultTitle, parsed.Info.Title)
	assert.Equal(t, DefaultVersion, parsed.Info.Version)
	assert.Empty(t, parsed.Info.Description)
}

func TestExtract_EmptyIsSuccess(t *testing.T) {
	for _, name := range []string{"empty-paths.yaml", "no-paths.yaml", "no-methods.yaml"} {
		t.Run(name, func(t *testing.T) {
			parsed := extractFixture(t, name)
			require.NotNil(t, parsed.Endpoints)
			assert.Empty(t, parsed.Endpoints)
			assert.Empty(t, parsed.Servers)
			assert.Equal(t, 0, GroupByTag(parsed.Endpoints).Len())
		})
	}
}

func TestExtract_Malformed(t *testing.T) {
	tests := []struct {
		fixture  string
		location string
	}{
		{"paths-string.yaml", "paths"},
		{"item-sequence.yaml", "paths./pets"},
		{"operation-string.yaml", "paths./pets.get"},
		{"tags-string.yaml", "paths./pets.get"},
		{"servers-mapping.yaml", "servers"},
		{"root-sequence.yaml", ""},
		{"colliding-ids.yaml", "paths./a/b.get"},
	}

	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			parsed, err := Extract(loadFixture(t, tt.fixture))
			require.Error(t, err)
			assert.Nil(t, parsed)

			var me *document.MalformedDocumentError
			require.True(t, errors.As(err, &me), "want MalformedDocumentError, got %T", err)
			assert.Equal(t, tt.location, me.Location)
			assert.ErrorIs(t, err, document.ErrMalformedDocument)
			assert.NotErrorIs(t, err, document.ErrDecode)
		})
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	root, err := document.Decode("empty.yaml", []byte(""))
	require.NoError(t, err)

	_, err = Extract(root)
	assert.ErrorIs(t, err, document.ErrMalformedDocument)

	_, err = Extract(nil)
	assert.ErrorIs(t, err, document.ErrMalformedDocument)
}

// The number of endpoints equals the number of recognized (path, verb)
// pairs present in the document.
func TestExtract_CountsRecognizedPairs(t *testing.T) {
	for _, name := range []string{"petstore-v3.yaml", "swagger-v2.yaml", "no-methods.yaml", "merge-keys.yaml"} {
		t.Run(name, func(t *testing.T) {
			root := loadFixture(t, name)
			parsed, err := Extract(root)
			require.NoError(t, err)

			want := 0
			for _, pair := range document.Pairs(document.Lookup(root, "paths")) {
				for _, m := range Methods {
					if !document.IsNull(document.Lookup(pair.Value, m)) {
						want++
					}
				}
			}
			assert.Len(t, parsed.Endpoints, want)
		})
	}
}

func TestExtract_MergeKeys(t *testing.T) {
	parsed := extractFixture(t, "merge-keys.yaml")

	assert.Equal(t, []string{
		"POST_extra",
		"GET_a",
		"DELETE_a",
		"GET_b",
		"PUT_b",
		"DELETE_b",
		"GET_c",
		"PUT_c",
		"DELETE_c",
	}, endpointIDs(parsed.Endpoints))

	summaries := make(map[string]string)
	for _, ep := range parsed.Endpoints {
		summaries[ep.ID] = ep.Summary
	}
	assert.Equal(t, "Shared read", summaries["GET_a"])
	// local keys override merged ones
	assert.Equal(t, "Local read", summaries["GET_b"])
	// the earlier mapping of a merge sequence wins
	assert.Equal(t, "More read", summaries["GET_c"])

	a, ok := parsed.Endpoint("GET_a")
	require.True(t, ok)
	assert.Equal(t, []string{"shared"}, a.Tags)
}

func TestExtract_MergeKeyPathItem(t *testing.T) {
	root, err := document.Decode("merge.yaml", []byte("x-common: &c\n  get: {summary: s}\npaths:\n  /a:\n    <<: *c\n"))
	require.NoError(t, err)

	parsed, err := Extract(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"GET_a"}, endpointIDs(parsed.Endpoints))
	assert.Equal(t, 1, GroupByTag(parsed.Endpoints).Len())
}

func TestExtract_KeepsRaw(t *testing.T) {
	root := loadFixture(t, "swagger-v2.yaml")
	parsed, err := Extract(root)
	require.NoError(t, err)
	assert.Same(t, root, parsed.Raw())

	withDialect := parsed.WithDialect(document.Dialect{Family: document.FamilySwagger, Version: "2.0"})
	assert.Equal(t, "Swagger 2.0", withDialect.Dialect.String())
	assert.False(t, parsed.Dialect.Known(), "WithDialect must not modify the receiver")
	assert.Same(t, root, withDialect.Raw())
}

func TestExtract_JSONShape(t *testing.T) {
	parsed := extractFixture(t, "swagger-v2.yaml")
	out, err := json.Marshal(parsed)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"info": {"title": "Legacy", "version": "2.3"},
		"servers": [{"url": "https://api.example.com/v1"}],
		"endpoints": [
			{"id": "GET_users_id", "path": "/users/{id}", "method": "GET", "summary": "Get user"},
			{"id": "PUT_users_id", "path": "/users/{id}", "method": "PUT", "summary": "Replace user"}
		]
	}`, string(out))
}
