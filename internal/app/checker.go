package app

import (
	"context"
	"path/filepath"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/internal/parser"
	"github.com/harakeishi/composeports/internal/report"
	"github.com/harakeishi/composeports/internal/resolver"
	"github.com/harakeishi/composeports/internal/variables"
	"github.com/harakeishi/composeports/pkg/types"
)

const defaultEnvFile = ".env"

var _ Application = (*Checker)(nil)

// Checker は Application の実装です。
type Checker struct {
	services *ServiceContainer
	logger   logger.Logger
}

// NewChecker は新しいCheckerを作成します。
func NewChecker(services *ServiceContainer, logger logger.Logger) *Checker {
	return &Checker{
		services: services,
		logger:   logger,
	}
}

// Run はComposeファイルのポートを調べ、指定があれば衝突を解決します。
//
// ファイルへの書き込みは解決計画がすべてメモリ上で確定してから行います。
// 解決に失敗した場合や中断された場合、ファイルは変更されません。
func (c *Checker) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := c.services.PortValidator.ValidatePortRange(ctx, opts.Range); err != nil {
		return nil, err
	}

	composePath, err := c.locateComposeFile(ctx, opts)
	if err != nil {
		return nil, err
	}

	doc, err := c.services.ComposeLoader.ParseComposeFile(ctx, composePath)
	if err != nil {
		return nil, err
	}

	referenced := doc.ReferencedVariables()
	varFile, err := c.loadVariables(ctx, opts, referenced)
	if err != nil {
		return nil, err
	}

	env := report.Environment{
		UsesEnvVars:     len(referenced) > 0,
		EnvVarsDetected: referenced,
	}
	var lookup variables.Lookup
	if varFile != nil {
		lookup = varFile.Vars()
		env.EnvFilePath = varFile.Path
		env.EnvVarsLoaded = varFile.Vars().Len()
		env.EnvVarsMissing = varFile.Vars().Missing(referenced)
		if len(env.EnvVarsMissing) > 0 {
			c.logger.Warn(ctx, "変数ファイルに定義されていない変数があります",
				types.Field{Key: "env_file", Value: varFile.Path},
				types.Field{Key: "missing", Value: env.EnvVarsMissing})
		}
	}

	services, conflicts, err := c.probe(ctx, doc, lookup)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Report: &report.Report{
			ComposeFile:  composePath,
			Services:     services,
			Environment:  env,
			FixRequested: opts.FixRequested(),
		},
		Conflicts: len(conflicts),
	}
	if !opts.FixRequested() || len(conflicts) == 0 {
		return result, nil
	}

	changes, err := c.fix(ctx, opts, doc, varFile, services)
	if err != nil {
		return nil, err
	}
	result.Report.Changes = changes
	result.Fixed = true

	// 書き換え後の状態を調べ直す
	services, _, err = c.probe(ctx, doc, lookup)
	if err != nil {
		return nil, err
	}
	result.Report.Services = services

	return result, nil
}

func (c *Checker) probe(ctx context.Context, doc *parser.Document, lookup variables.Lookup) ([]types.ServicePorts, []types.PortMapping, error) {
	services, err := c.services.ComposeLoader.ExtractPortMappings(ctx, doc, lookup)
	if err != nil {
		return nil, nil, err
	}
	conflicts, err := c.services.ConflictDetector.DetectConflicts(ctx, services)
	if err != nil {
		return nil, nil, err
	}
	return services, conflicts, nil
}

// fix は解決計画を作ってメモリ上に反映し、バックアップを取ってから書き込みます。
func (c *Checker) fix(ctx context.Context, opts Options, doc *parser.Document, varFile *variables.File, services []types.ServicePorts) (*report.Changes, error) {
	plan, err := c.services.ConflictResolver.Resolve(ctx, services, resolver.ResolveOptions{
		Mode:              opts.Mode(),
		Range:             opts.Range,
		VariableFileKnown: varFile != nil,
	})
	if err != nil {
		return nil, err
	}

	applied, err := c.services.Applier.Apply(ctx, plan, doc, varFile)
	if err != nil {
		return nil, err
	}

	changes := &report.Changes{Plan: plan, UpdatedFiles: []string{}, Backups: []string{}}

	var composeData []byte
	if applied.DocumentChanged {
		if composeData, err = doc.Encode(); err != nil {
			return nil, err
		}
	}

	if opts.Backup {
		if applied.DocumentChanged {
			backup, err := c.services.BackupManager.CreateBackup(ctx, doc.Path)
			if err != nil {
				return nil, err
			}
			changes.Backups = append(changes.Backups, backup)
		}
		if applied.VariablesChanged {
			backup, err := c.services.BackupManager.CreateBackup(ctx, varFile.Path)
			if err != nil {
				return nil, err
			}
			changes.Backups = append(changes.Backups, backup)
		}
	}

	if applied.DocumentChanged {
		if err := c.services.FileManager.Write(ctx, doc.Path, composeData); err != nil {
			return nil, err
		}
		changes.UpdatedFiles = append(changes.UpdatedFiles, doc.Path)
	}
	if applied.VariablesChanged {
		if err := c.services.FileManager.Write(ctx, varFile.Path, varFile.Bytes()); err != nil {
			return nil, err
		}
		changes.UpdatedFiles = append(changes.UpdatedFiles, varFile.Path)
	}

	c.logger.Info(ctx, "ポート衝突を解決しました",
		types.Field{Key: "changes", Value: len(plan.Changes)},
		types.Field{Key: "updated_files", Value: changes.UpdatedFiles})

	return changes, nil
}

// locateComposeFile は読み込むComposeファイルを決めます。
// --file が指定されていない場合、既定のファイルがなければ同じディレクトリの標準的なファイル名を探します。
func (c *Checker) locateComposeFile(ctx context.Context, opts Options) (string, error) {
	path := opts.ComposeFile
	if opts.ComposeFileExplicit {
		return path, nil
	}

	exists, err := c.services.FileManager.Exists(ctx, path)
	if err != nil {
		return "", err
	}
	if exists {
		return path, nil
	}

	found, err := c.services.ComposeDetector.GetDefaultComposeFile(ctx, filepath.Dir(path))
	if err != nil {
		// 見つからない場合は既定のパスのまま読み込み、そのエラーを報告する
		return path, nil
	}
	c.logger.Info(ctx, "Composeファイルを自動検出しました", types.Field{Key: "file", Value: found})
	return found, nil
}

// loadVariables は変数ファイルを読み込みます。
// 明示的な指定がなく、ポートに変数が使われていない場合は nil を返します。
func (c *Checker) loadVariables(ctx context.Context, opts Options, referenced []string) (*variables.File, error) {
	if opts.EnvFile != "" {
		return c.readVariableFile(ctx, opts.EnvFile)
	}
	if len(referenced) == 0 {
		return nil, nil
	}

	path := opts.DefaultEnvFile
	if path == "" {
		path = defaultEnvFile
	}
	exists, err := c.services.FileManager.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NewEnvFileRequiredError(path, referenced)
	}
	return c.readVariableFile(ctx, path)
}

func (c *Checker) readVariableFile(ctx context.Context, path string) (*variables.File, error) {
	exists, err := c.services.FileManager.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NewFileNotFoundError(path)
	}

	data, err := c.services.FileManager.Read(ctx, path)
	if err != nil {
		return nil, err
	}

	f := variables.Parse(path, data)
	c.logger.Debug(ctx, "変数ファイルを読み込みました",
		types.Field{Key: "env_file", Value: path},
		types.Field{Key: "count", Value: f.Vars().Len()})
	return f, nil
}

// Restore は <file>.backup が存在するファイルをバックアップから書き戻します。
// どちらのバックアップも存在しない場合はエラーです。
func (c *Checker) Restore(ctx context.Context, opts RestoreOptions) (*RestoreResult, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = defaultEnvFile
	}

	result := &RestoreResult{Restored: []string{}}
	for _, path := range []string{opts.ComposeFile, envFile} {
		backup := c.services.BackupManager.BackupPath(path)
		exists, err := c.services.FileManager.Exists(ctx, backup)
		if err != nil {
			return nil, err
		}
		if !exists {
			c.logger.Debug(ctx, "バックアップがありません", types.Field{Key: "backup", Value: backup})
			continue
		}
		if err := c.services.BackupManager.RestoreBackup(ctx, backup, path); err != nil {
			return nil, err
		}
		result.Restored = append(result.Restored, path)
	}

	if len(result.Restored) == 0 {
		return nil, errors.NewFileNotFoundError(c.services.BackupManager.BackupPath(opts.ComposeFile))
	}
	return result, nil
}
