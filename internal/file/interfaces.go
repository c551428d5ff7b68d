// Package file は、ファイル操作の抽象化機能を提供します。
package file

import (
	"context"
	"os"
)

// FileManager はファイルの基本操作を行うインターフェースです。
type FileManager interface {
	Exists(ctx context.Context, path string) (bool, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Copy(ctx context.Context, src, dst string) error
	GetInfo(ctx context.Context, path string) (os.FileInfo, error)
}

// BackupManager はファイルのバックアップ管理を行うインターフェースです。
type BackupManager interface {
	BackupPath(filePath string) string
	CreateBackup(ctx context.Context, filePath string) (string, error)
	RestoreBackup(ctx context.Context, backupPath string, originalPath string) error
}
