package file

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/pkg/types"
)

const defaultFileMode os.FileMode = 0o644

// AferoFileManager は afero.Fs 上のファイル操作の実装です。
type AferoFileManager struct {
	fs     afero.Fs
	logger logger.Logger
}

// NewAferoFileManager は新しいAferoFileManagerを作成します。
func NewAferoFileManager(fs afero.Fs, logger logger.Logger) *AferoFileManager {
	return &AferoFileManager{
		fs:     fs,
		logger: logger,
	}
}

// Exists はファイルが存在するかどうかを確認します。
func (m *AferoFileManager) Exists(ctx context.Context, path string) (bool, error) {
	ok, err := afero.Exists(m.fs, path)
	if err != nil {
		return false, &errors.AppError{
			Code:    errors.ErrFileReadFailed,
			Message: fmt.Sprintf("ファイルの確認に失敗しました: %s", path),
			Cause:   err,
			Fields:  map[string]interface{}{"path": path},
		}
	}
	return ok, nil
}

// Read はファイルを読み込みます。
func (m *AferoFileManager) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path).WithCause(err)
		}
		return nil, &errors.AppError{
			Code:    errors.ErrFileReadFailed,
			Message: fmt.Sprintf("ファイル読み込みに失敗しました: %s", path),
			Cause:   err,
			Fields:  map[string]interface{}{"path": path},
		}
	}

	m.logger.Debug(ctx, "ファイル読み込み完了",
		types.Field{Key: "path", Value: path},
		types.Field{Key: "bytes", Value: len(data)})
	return data, nil
}

// Write はファイルを書き込みます。既存ファイルのパーミッションは維持します。
func (m *AferoFileManager) Write(ctx context.Context, path string, data []byte) error {
	mode := defaultFileMode
	if info, err := m.fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	if err := afero.WriteFile(m.fs, path, data, mode); err != nil {
		return &errors.AppError{
			Code:    errors.ErrFileWriteFailed,
			Message: fmt.Sprintf("ファイル書き込みに失敗しました: %s", path),
			Cause:   err,
			Fields:  map[string]interface{}{"path": path},
		}
	}

	m.logger.Info(ctx, "ファイルを書き込みました",
		types.Field{Key: "path", Value: path},
		types.Field{Key: "bytes", Value: len(data)})
	return nil
}

// Copy はファイルを複製します。
func (m *AferoFileManager) Copy(ctx context.Context, src, dst string) error {
	data, err := m.Read(ctx, src)
	if err != nil {
		return err
	}

	mode := defaultFileMode
	if info, err := m.fs.Stat(src); err == nil {
		mode = info.Mode().Perm()
	}

	if err := afero.WriteFile(m.fs, dst, data, mode); err != nil {
		return &errors.AppError{
			Code:    errors.ErrFileWriteFailed,
			Message: fmt.Sprintf("ファイルの複製に失敗しました: %s -> %s", src, dst),
			Cause:   err,
			Fields: map[string]interface{}{
				"src": src,
				"dst": dst,
			},
		}
	}
	return nil
}

// GetInfo はファイル情報を返します。
func (m *AferoFileManager) GetInfo(ctx context.Context, path string) (os.FileInfo, error) {
	info, err := m.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path).WithCause(err)
		}
		return nil, &errors.AppError{
			Code:    errors.ErrFileReadFailed,
			Message: fmt.Sprintf("ファイル情報の取得に失敗しました: %s", path),
			Cause:   err,
		}
	}
	return info, nil
}
