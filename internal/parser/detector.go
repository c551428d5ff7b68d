package parser

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/pkg/types"
)

// composeFileCandidates は優先順に並べた標準的なファイル名です。
var composeFileCandidates = []string{
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
}

// ComposeFileDetectorImpl はCompose ファイル自動検出の実装です。
type ComposeFileDetectorImpl struct {
	fs     afero.Fs
	logger logger.Logger
}

// NewComposeFileDetectorImpl は新しいComposeFileDetectorImplを作成します。
func NewComposeFileDetectorImpl(fs afero.Fs, logger logger.Logger) *ComposeFileDetectorImpl {
	return &ComposeFileDetectorImpl{
		fs:     fs,
		logger: logger,
	}
}

// DetectComposeFiles は指定されたディレクトリでCompose ファイルを検出します。
func (d *ComposeFileDetectorImpl) DetectComposeFiles(ctx context.Context, directory string) ([]string, error) {
	d.logger.Debug(ctx, "Docker Composeファイル検出開始", types.Field{Key: "directory", Value: directory})

	var foundFiles []string
	for _, candidate := range composeFileCandidates {
		filePath := filepath.Join(directory, candidate)
		if ok, _ := afero.Exists(d.fs, filePath); ok {
			foundFiles = append(foundFiles, filePath)
			d.logger.Debug(ctx, "Docker Composeファイル発見", types.Field{Key: "file", Value: filePath})
		}
	}

	if len(foundFiles) == 0 {
		return nil, &errors.AppError{
			Code:    errors.ErrComposeNotFound,
			Message: fmt.Sprintf("Docker Composeファイルが見つかりません: %s", directory),
			Fields: map[string]interface{}{
				"directory":  directory,
				"candidates": composeFileCandidates,
			},
		}
	}

	return foundFiles, nil
}

// GetDefaultComposeFile はデフォルトのCompose ファイルを取得します。
func (d *ComposeFileDetectorImpl) GetDefaultComposeFile(ctx context.Context, directory string) (string, error) {
	files, err := d.DetectComposeFiles(ctx, directory)
	if err != nil {
		return "", err
	}

	// 優先順位に従って最初に見つかったファイルを返す
	return files[0], nil
}
