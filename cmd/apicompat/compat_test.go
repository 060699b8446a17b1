package main

import (
	"testing"

	"guildkeeper/docs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseDoc = `
paths:
  /posts:
    get:
      responses:
        "200": {description: OK}
        "400": {description: Bad Request}
    parameters: []
  /posts/{id}:
    delete:
      responses:
        "204": {description: No Content}
`

func TestParseSurface(t *testing.T) {
	s, err := parseSurface([]byte(baseDoc))
	require.NoError(t, err)
	assert.Len(t, s, 2)
	assert.Contains(t, s["/posts"]["get"], "400")
	assert.NotContains(t, s["/posts"], "parameters")

	_, err = parseSurface([]byte("info: {}"))
	assert.EqualError(t, err, "missing top-level paths field")
}

func TestParseSurface_EmbeddedDocument(t *testing.T) {
	s, err := parseSurface([]byte(docs.SwaggerInfo.ReadDoc()))
	require.NoError(t, err)
	assert.Contains(t, s, "/auth/login")
	assert.Contains(t, s["/auth/login"]["post"], "401")
}

func TestBreakingChanges(t *testing.T) {
	base, err := parseSurface([]byte(baseDoc))
	require.NoError(t, err)

	tests := []struct {
		name     string
		revision string
		want     []string
	}{
		{
			name: "additions only",
			revision: `
paths:
  /posts:
    get: {responses: {"200": {}, "400": {}, "401": {}}}
    post: {responses: {"201": {}}}
  /posts/{id}:
    delete: {responses: {"204": {}}}
`,
		},
		{
			name: "removals",
			revision: `
paths:
  /posts:
    get: {responses: {"200": {}}}
`,
			want: []string{
				"removed path: /posts/{id}",
				"removed response code: GET /posts -> 400",
			},
		},
		{
			name: "removed operation",
			revision: `
paths:
  /posts:
    post: {responses: {"201": {}}}
  /posts/{id}:
    delete: {responses: {"204": {}}}
`,
			want: []string{"removed operation: GET /posts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rev, err := parseSurface([]byte(tt.revision))
			require.NoError(t, err)
			assert.Equal(t, tt.want, breakingChanges(base, rev))
		})
	}
}
