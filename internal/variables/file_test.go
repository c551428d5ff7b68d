package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harakeishi/composeports/pkg/types"
)

const sampleEnv = `# ports
WEB_PORT=8080

API_PORT="3000"
export DB_PORT='5432'
GREETING="hello world"
`

func TestParse(t *testing.T) {
	f := Parse(".env", []byte(sampleEnv))
	vars := f.Vars()

	assert.Equal(t, []string{"WEB_PORT", "API_PORT", "DB_PORT", "GREETING"}, vars.Keys())
	for name, want := range map[string]string{
		"WEB_PORT": "8080",
		"API_PORT": "3000",
		"DB_PORT":  "5432",
		"GREETING": "hello world",
	} {
		got, ok := vars.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	assert.False(t, f.Changed())
}

func TestParse_ExpandsReferencesAndDropsInlineComments(t *testing.T) {
	f := Parse(".env", []byte("BASE=8000\nWEB_PORT=${BASE}\nAPI_PORT=$BASE\nDB_PORT=5432 # postgres\n"))

	for name, want := range map[string]string{
		"WEB_PORT": "8000",
		"API_PORT": "8000",
		"DB_PORT":  "5432",
	} {
		got, ok := f.Vars().Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
}

func TestParse_FallbackWhenGodotenvRejects(t *testing.T) {
	// 閉じていない引用符は godotenv では解釈できない
	f := Parse(".env", []byte("WEB_PORT=8080\nBROKEN=\"oops\n"))

	v, ok := f.Vars().Lookup("WEB_PORT")
	require.True(t, ok)
	assert.Equal(t, "8080", v)
	v, ok = f.Vars().Lookup("BROKEN")
	require.True(t, ok)
	assert.Equal(t, `"oops`, v)
}

func TestFile_ApplyReplacesInPlace(t *testing.T) {
	f := Parse(".env", []byte(sampleEnv))

	f.Apply([]types.VariableUpdate{
		{Name: "API_PORT", Port: 3001},
		{Name: "DB_PORT", Port: 15432},
		{Name: "NEW_PORT", Port: 9000},
	})

	want := `# ports
WEB_PORT=8080

API_PORT=3001
export DB_PORT=15432
GREETING="hello world"
NEW_PORT=9000
`
	assert.Equal(t, want, string(f.Bytes()))
	assert.True(t, f.Changed())

	v, _ := f.Vars().Lookup("NEW_PORT")
	assert.Equal(t, "9000", v)
}

func TestFile_ApplyToNewFile(t *testing.T) {
	f := NewFile(".env")
	assert.Nil(t, f.Bytes())

	f.SetValue("WEB_PORT", "9090")
	assert.Equal(t, "WEB_PORT=9090\n", string(f.Bytes()))
}

func TestFile_PreservesMissingTrailingNewline(t *testing.T) {
	f := Parse(".env", []byte("A=1\nB=2"))
	f.SetValue("A", "3")
	assert.Equal(t, "A=3\nB=2", string(f.Bytes()))
}

func TestSet_Missing(t *testing.T) {
	s := NewSet()
	s.Set("A", "1")
	s.Set("B", "2")
	s.Set("A", "3")

	assert.Equal(t, []string{"A", "B"}, s.Keys())
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"C"}, s.Missing([]string{"A", "C"}))
}
