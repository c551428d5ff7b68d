// Package errors は、composeports 用の構造化エラーハンドリングを提供します。
package errors

import (
	"errors"
	"fmt"
)

// AppError はアプリケーション固有のエラーを表します。
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"cause,omitempty"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// Error は error インターフェースを実装します。
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap は原因エラーを返します。
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsDegradation は処理を継続できる劣化かどうかを判定します。
func (e *AppError) IsDegradation() bool {
	return e.Code.Category() == ErrorCategoryProbe
}

// WithCause は原因エラーを設定します。
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// As は err の連鎖から AppError を取り出します。
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode は err の連鎖に指定コードの AppError が含まれるかどうかを判定します。
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
