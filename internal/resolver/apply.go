package resolver

import (
	"context"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/internal/parser"
	"github.com/harakeishi/composeports/internal/variables"
	"github.com/harakeishi/composeports/pkg/types"
)

// ApplyResult は Apply によってどちらのファイルの内容が変わったかを表します。
type ApplyResult struct {
	DocumentChanged  bool
	VariablesChanged bool
}

// Applier は解決計画をメモリ上のドキュメントと変数ファイルに反映します。
type Applier struct {
	logger logger.Logger
}

// NewApplier は新しいApplierを作成します。
func NewApplier(logger logger.Logger) *Applier {
	return &Applier{logger: logger}
}

// Apply は計画を反映します。ディスクへの書き込みは呼び出し側が行います。
// 変数ファイルへの変更があるのに vars が nil の場合は何も変更せずにエラーを返します。
func (a *Applier) Apply(ctx context.Context, plan *types.ResolutionPlan, doc *parser.Document, vars *variables.File) (ApplyResult, error) {
	var result ApplyResult
	if plan.IsEmpty() {
		return result, nil
	}

	variableChanges := plan.VariableChanges()
	if len(variableChanges) > 0 && vars == nil {
		c := variableChanges[0]
		return result, errors.NewVariableFileMissingError(c.ServiceName, c.VariableName)
	}

	for _, c := range plan.DocumentChanges() {
		if err := doc.SetHostPort(c.ServiceName, c.MappingIndex, c.NewHostPort); err != nil {
			return result, err
		}
		result.DocumentChanged = true
		a.logger.Debug(ctx, "Composeファイルのポートを変更",
			types.Field{Key: "service", Value: c.ServiceName},
			types.Field{Key: "index", Value: c.MappingIndex},
			types.Field{Key: "new_port", Value: c.NewHostPort})
	}

	if updates := plan.VariableUpdates(); len(updates) > 0 {
		vars.Apply(updates)
		result.VariablesChanged = true
		for _, u := range updates {
			a.logger.Debug(ctx, "変数の値を変更",
				types.Field{Key: "variable", Value: u.Name},
				types.Field{Key: "new_port", Value: u.Port})
		}
	}

	return result, nil
}
