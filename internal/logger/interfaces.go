// Package logger は、composeports 用の構造化ログ機能を提供します。
package logger

import (
	"context"
	"io"

	"github.com/harakeishi/composeports/pkg/types"
)

// Logger は構造化ログ出力のインターフェースです。
type Logger interface {
	Debug(ctx context.Context, message string, fields ...types.Field)
	Info(ctx context.Context, message string, fields ...types.Field)
	Warn(ctx context.Context, message string, fields ...types.Field)
	Error(ctx context.Context, message string, err error, fields ...types.Field)

	WithField(key string, value interface{}) Logger
	WithFields(fields ...types.Field) Logger
	WithError(err error) Logger
}

// LoggerFactory はロガーの作成を行うファクトリインターフェースです。
type LoggerFactory interface {
	Create(config types.LogConfig) (Logger, error)
	CreateWithName(name string, config types.LogConfig) (Logger, error)
}

// ContextKey はコンテキストキーの型です。
type ContextKey string

const (
	// ContextKeyRequestID は実行ごとのIDを格納するためのキーです。
	ContextKeyRequestID ContextKey = "request_id"
)

// Close は log がログファイルなどの資源を持っていれば解放します。
func Close(log Logger) error {
	if c, ok := log.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// WithRequestID はコンテキストに実行IDを設定します。
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, id)
}

// NopLogger は何も出力しないロガーの実装です。
type NopLogger struct{}

func (n *NopLogger) Debug(ctx context.Context, message string, fields ...types.Field)            {}
func (n *NopLogger) Info(ctx context.Context, message string, fields ...types.Field)             {}
func (n *NopLogger) Warn(ctx context.Context, message string, fields ...types.Field)             {}
func (n *NopLogger) Error(ctx context.Context, message string, err error, fields ...types.Field) {}
func (n *NopLogger) WithField(key string, value interface{}) Logger                              { return n }
func (n *NopLogger) WithFields(fields ...types.Field) Logger                                     { return n }
func (n *NopLogger) WithError(err error) Logger                                                  { return n }
