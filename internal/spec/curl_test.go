package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointURL(t *testing.T) {
	ep := Endpoint{Path: "/users/{id}", Method: "GET"}

	assert.Equal(t, "https://api.example.com/v1/users/{id}", EndpointURL("https://api.example.com/v1", ep))
	assert.Equal(t, "/users/{id}", EndpointURL("", ep))
}

func TestCurlCommand(t *testing.T) {
	parsed := extractFixture(t, "petstore-v3.yaml")
	base := parsed.BaseURL()

	tests := []struct {
		id   string
		want string
	}{
		{
			id:   "GET_pets",
			want: `curl -X GET "https://petstore3.swagger.io/api/v3/pets" -H "Content-Type: application/json" -H "Accept: application/json"`,
		},
		{
			id:   "POST_pets",
			want: `curl -X POST "https://petstore3.swagger.io/api/v3/pets" -H "Content-Type: application/json" -H "Accept: application/json" -d '{}'`,
		},
		{
			id:   "DELETE_pets_petId",
			want: `curl -X DELETE "https://petstore3.swagger.io/api/v3/pets/{petId}" -H "Content-Type: application/json" -H "Accept: application/json"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			ep, ok := parsed.Endpoint(tt.id)
			assert.True(t, ok)
			assert.Equal(t, tt.want, CurlCommand(base, ep))
		})
	}
}

func TestCurlCommand_BodyOnlyWhenDeclared(t *testing.T) {
	put := Endpoint{Path: "/users/{id}", Method: "PUT"}
	assert.NotContains(t, CurlCommand("", put), "-d")
}
