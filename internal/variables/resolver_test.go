package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	vars := Map{"WEB_PORT": "8080", "EMPTY": ""}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"braced", "${WEB_PORT}:80", "8080:80"},
		{"bare", "$WEB_PORT:80", "8080:80"},
		{"default used when missing", "${API_PORT:-3000}:3000", "3000:3000"},
		{"default ignored when defined", "${WEB_PORT:-3000}:80", "8080:80"},
		{"defined but empty wins over default", "${EMPTY:-3000}", ""},
		{"missing without default", "${NOPE}:80", ":80"},
		{"bare missing", "$NOPE:80", ":80"},
		{"lowercase bare is not a reference", "$web:80", "$web:80"},
		{"no references", "8080:80", "8080:80"},
		{"bare pass runs after braced pass", "${A:-$WEB_PORT}", "8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.in, vars))
		})
	}
}

func TestResolve_NilLookup(t *testing.T) {
	assert.Equal(t, "3000", Resolve("${X:-3000}", nil))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"HOST", "PORT", "BARE"}, Names("${HOST}:${PORT:-80}/$BARE"))
	assert.Equal(t, []string{"A"}, Names("${A}-${A:-1}-$A"))
	assert.Empty(t, Names("8080:80"))
}

func TestFirstReference(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"${WEB_PORT}:80", "WEB_PORT", true},
		{"${API_PORT:-3000}:3000", "API_PORT", true},
		{"$BARE:${BRACED}", "BRACED", true},
		{"$BARE:80", "BARE", true},
		{"8080:80", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := FirstReference(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
