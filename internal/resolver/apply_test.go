package resolver

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/internal/parser"
	"github.com/harakeishi/composeports/internal/variables"
	"github.com/harakeishi/composeports/pkg/types"
)

const composeWithVariable = `services:
  web:
    image: nginx
    ports:
      - "${WEB_PORT}:80"
  api:
    ports:
      - 8080
      - target: 3000
        published: 8080
`

func parseDocument(t *testing.T, content string) *parser.Document {
	t.Helper()
	doc, err := parser.NewYamlComposeParser(afero.NewMemMapFs(), &logger.NopLogger{}).
		ParseBytes(context.Background(), "docker-compose.yml", []byte(content))
	require.NoError(t, err)
	return doc
}

func TestApplier_RoutesChanges(t *testing.T) {
	doc := parseDocument(t, composeWithVariable)
	vars := variables.Parse(".env", []byte("# ports\nWEB_PORT=8080\nOTHER=x\n"))

	plan := &types.ResolutionPlan{Changes: []types.PortChange{
		{ServiceName: "web", MappingIndex: 0, OldHostPort: 8080, NewHostPort: 9001, VariableName: "WEB_PORT", Target: types.ChangeTargetVariables},
		{ServiceName: "api", MappingIndex: 0, OldHostPort: 8080, NewHostPort: 9002, Target: types.ChangeTargetDocument},
		{ServiceName: "api", MappingIndex: 1, OldHostPort: 8080, NewHostPort: 9003, Target: types.ChangeTargetDocument},
	}}

	result, err := NewApplier(&logger.NopLogger{}).Apply(context.Background(), plan, doc, vars)
	require.NoError(t, err)
	assert.True(t, result.DocumentChanged)
	assert.True(t, result.VariablesChanged)

	assert.Equal(t, "# ports\nWEB_PORT=9001\nOTHER=x\n", string(vars.Bytes()))

	out, err := doc.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"${WEB_PORT}:80"`)
	assert.Contains(t, string(out), "- 9002\n")
	assert.Contains(t, string(out), "published: 9003")
}

func TestApplier_VariableOnlyLeavesDocumentUntouched(t *testing.T) {
	doc := parseDocument(t, composeWithVariable)
	before, err := doc.Encode()
	require.NoError(t, err)
	vars := variables.Parse(".env", []byte("WEB_PORT=8080\n"))

	plan := &types.ResolutionPlan{Changes: []types.PortChange{
		{ServiceName: "web", MappingIndex: 0, NewHostPort: 9001, VariableName: "WEB_PORT", Target: types.ChangeTargetVariables},
	}}

	result, err := NewApplier(&logger.NopLogger{}).Apply(context.Background(), plan, doc, vars)
	require.NoError(t, err)
	assert.False(t, result.DocumentChanged)

	after, err := doc.Encode()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	value, _ := vars.Vars().Lookup("WEB_PORT")
	assert.Equal(t, "9001", value)
}

func TestApplier_MissingVariableFile(t *testing.T) {
	doc := parseDocument(t, composeWithVariable)
	plan := &types.ResolutionPlan{Changes: []types.PortChange{
		{ServiceName: "api", MappingIndex: 0, NewHostPort: 9002, Target: types.ChangeTargetDocument},
		{ServiceName: "web", MappingIndex: 0, NewHostPort: 9001, VariableName: "WEB_PORT", Target: types.ChangeTargetVariables},
	}}

	_, err := NewApplier(&logger.NopLogger{}).Apply(context.Background(), plan, doc, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrResolutionVariableFileMissing))

	// 何も変更されていない
	out, err := doc.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(out), "- 8080\n")
}

func TestApplier_EmptyPlan(t *testing.T) {
	result, err := NewApplier(&logger.NopLogger{}).Apply(context.Background(), &types.ResolutionPlan{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ApplyResult{}, result)
}
