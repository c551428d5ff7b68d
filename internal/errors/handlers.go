package errors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
)

// ErrorHandler はエラーハンドリングのインターフェースです。
type ErrorHandler interface {
	Handle(ctx context.Context, err error) error
}

// AppErrorHandler は具体的なエラーハンドラー実装です。
type AppErrorHandler struct{}

// NewAppErrorHandler は新しいエラーハンドラーを作成します。
func NewAppErrorHandler() *AppErrorHandler {
	return &AppErrorHandler{}
}

// Handle はエラーを AppError に正規化します。
func (h *AppErrorHandler) Handle(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	// AppError の場合はそのまま返す
	if appErr, ok := As(err); ok {
		return appErr
	}

	if errors.Is(err, context.Canceled) {
		return NewCancelledError()
	}

	// 既知のエラータイプを AppError に変換
	return h.convertToAppError(err)
}

// convertToAppError は既知のエラーを AppError に変換します。
func (h *AppErrorHandler) convertToAppError(err error) *AppError {
	switch {
	case os.IsNotExist(err):
		return &AppError{
			Code:    ErrFileNotFound,
			Message: "ファイルが存在しません",
			Cause:   err,
		}
	case os.IsPermission(err):
		return &AppError{
			Code:    ErrFilePermission,
			Message: "ファイルアクセス権限がありません",
			Cause:   err,
		}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &AppError{
			Code:    ErrDockerAPIFailed,
			Message: "Docker APIへの接続に失敗しました",
			Cause:   err,
		}
	default:
		return &AppError{
			Code:    ErrUnknown,
			Message: "予期しないエラーが発生しました",
			Cause:   err,
		}
	}
}

// ExitCode はエラーに対応するプロセス終了コードを返します。
// 調査の劣化は終了コードに影響しません。
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if appErr, ok := As(err); ok && appErr.IsDegradation() {
		return 0
	}
	return 1
}

// 事前定義されたエラーのファクトリ関数

// NewFileNotFoundError はファイル未発見エラーを作成します。
func NewFileNotFoundError(path string) *AppError {
	return &AppError{
		Code:    ErrFileNotFound,
		Message: fmt.Sprintf("ファイルが見つかりません: %s", path),
		Fields:  map[string]interface{}{"path": path},
	}
}

// NewConfigInvalidError は設定無効エラーを作成します。
func NewConfigInvalidError(field string, value interface{}) *AppError {
	return &AppError{
		Code:    ErrConfigInvalid,
		Message: fmt.Sprintf("設定が無効です: %s = %v", field, value),
		Fields: map[string]interface{}{
			"field": field,
			"value": value,
		},
	}
}

// NewPortRangeInvalidError はポート範囲指定の誤りを表すエラーを作成します。
func NewPortRangeInvalidError(value string, reason string) *AppError {
	return &AppError{
		Code:    ErrPortRangeInvalid,
		Message: fmt.Sprintf("ポート範囲が無効です: %s (%s)", value, reason),
		Fields: map[string]interface{}{
			"value":  value,
			"reason": reason,
		},
	}
}

// NewDockerComposeInvalidError はDocker Compose無効エラーを作成します。
func NewDockerComposeInvalidError(path string, reason string) *AppError {
	return &AppError{
		Code:    ErrComposeInvalid,
		Message: fmt.Sprintf("Docker Composeファイルが無効です: %s (%s)", path, reason),
		Fields: map[string]interface{}{
			"path":   path,
			"reason": reason,
		},
	}
}

// NewEnvFileRequiredError は変数参照があるのに変数ファイルが見つからない場合のエラーを作成します。
func NewEnvFileRequiredError(defaultPath string, names []string) *AppError {
	return &AppError{
		Code: ErrConfigEnvFileRequired,
		Message: fmt.Sprintf("Composeファイルが環境変数 (%s) を参照していますが %s が見つかりません。--env-file で変数ファイルを指定してください",
			strings.Join(names, ", "), defaultPath),
		Fields: map[string]interface{}{
			"default_env_file": defaultPath,
			"variables":        names,
		},
	}
}

// NewNoFreePortError は空きポートが見つからない場合のエラーを作成します。
func NewNoFreePortError(start, end int) *AppError {
	return &AppError{
		Code:    ErrResolutionNoFreePort,
		Message: fmt.Sprintf("範囲 %d-%d に利用可能なポートがありません", start, end),
		Fields: map[string]interface{}{
			"range_start": start,
			"range_end":   end,
		},
	}
}

// NewVariableFileMissingError は変数経由のポートを変数ファイルなしで修正しようとした場合のエラーを作成します。
func NewVariableFileMissingError(service string, variable string) *AppError {
	return &AppError{
		Code:    ErrResolutionVariableFileMissing,
		Message: fmt.Sprintf("サービス %s のポートは変数 %s で指定されていますが、更新先の変数ファイルがありません", service, variable),
		Fields: map[string]interface{}{
			"service":  service,
			"variable": variable,
		},
	}
}

// NewCancelledError はユーザーによる中断を表すエラーを作成します。
func NewCancelledError() *AppError {
	return &AppError{
		Code:    ErrResolutionCancelled,
		Message: "操作が中断されました。ファイルは変更されていません",
	}
}

// NewPortConflictError は未解決の衝突が残っていることを表すエラーを作成します。
func NewPortConflictError(count int) *AppError {
	return &AppError{
		Code:    ErrPortConflict,
		Message: fmt.Sprintf("%d 件のポートが使用中です", count),
		Fields:  map[string]interface{}{"conflicts": count},
	}
}
