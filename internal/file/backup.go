package file

import (
	"context"
	"fmt"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/pkg/types"
)

// SuffixBackupManager は元ファイルの隣に <name><suffix> としてバックアップを置きます。
// 既存のバックアップは上書きされます。
type SuffixBackupManager struct {
	files  FileManager
	suffix string
	logger logger.Logger
}

// NewSuffixBackupManager は新しいSuffixBackupManagerを作成します。
func NewSuffixBackupManager(files FileManager, suffix string, logger logger.Logger) *SuffixBackupManager {
	if suffix == "" {
		suffix = ".backup"
	}
	return &SuffixBackupManager{
		files:  files,
		suffix: suffix,
		logger: logger,
	}
}

// BackupPath はバックアップ先のパスを返します。
func (b *SuffixBackupManager) BackupPath(filePath string) string {
	return filePath + b.suffix
}

// CreateBackup はバックアップを作成し、そのパスを返します。
func (b *SuffixBackupManager) CreateBackup(ctx context.Context, filePath string) (string, error) {
	backupPath := b.BackupPath(filePath)
	if err := b.files.Copy(ctx, filePath, backupPath); err != nil {
		return "", &errors.AppError{
			Code:    errors.ErrFileBackupFailed,
			Message: fmt.Sprintf("バックアップの作成に失敗しました: %s", filePath),
			Cause:   err,
			Fields:  map[string]interface{}{"path": filePath},
		}
	}

	b.logger.Info(ctx, "バックアップを作成しました",
		types.Field{Key: "path", Value: filePath},
		types.Field{Key: "backup", Value: backupPath})
	return backupPath, nil
}

// RestoreBackup はバックアップを元のパスへ書き戻します。
func (b *SuffixBackupManager) RestoreBackup(ctx context.Context, backupPath string, originalPath string) error {
	exists, err := b.files.Exists(ctx, backupPath)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewFileNotFoundError(backupPath)
	}

	if err := b.files.Copy(ctx, backupPath, originalPath); err != nil {
		return err
	}

	b.logger.Info(ctx, "バックアップから復元しました",
		types.Field{Key: "backup", Value: backupPath},
		types.Field{Key: "path", Value: originalPath})
	return nil
}
