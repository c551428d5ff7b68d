package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/harakeishi/composeports/pkg/types"
)

// StructuredLogger は zap を使った構造化ログの実装です。
type StructuredLogger struct {
	logger *zap.Logger
	fields []types.Field
	err    error
	// closer は CreateWithName が開いたログファイルです。派生したロガーは持ちません。
	closer io.Closer
}

// StructuredLoggerFactory は構造化ログのファクトリです。
type StructuredLoggerFactory struct {
	output io.Writer
}

// NewStructuredLoggerFactory は新しいファクトリを作成します。
// output が nil の場合は標準エラー出力に書き込みます。
// 標準出力はレポート用に空けておきます。
func NewStructuredLoggerFactory(output io.Writer) *StructuredLoggerFactory {
	if output == nil {
		output = os.Stderr
	}
	return &StructuredLoggerFactory{output: output}
}

// Create は設定に基づいてロガーを作成します。
func (f *StructuredLoggerFactory) Create(config types.LogConfig) (Logger, error) {
	return f.CreateWithName("composeports", config)
}

// CreateWithName は名前付きロガーを作成します。
func (f *StructuredLoggerFactory) CreateWithName(name string, config types.LogConfig) (Logger, error) {
	output := f.output
	var closer io.Closer

	// ファイル出力が指定されている場合
	if config.File != "" {
		file, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, fmt.Errorf("ログファイルのオープンに失敗しました: %w", err)
		}
		output = file
		closer = file
	}

	var encoder zapcore.Encoder
	if config.Format == "json" {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "timestamp"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		encCfg.CallerKey = ""
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output), parseLogLevel(config.Level))

	return &StructuredLogger{
		logger: zap.New(core).Named(name),
		closer: closer,
	}, nil
}

// parseLogLevel は文字列からログレベルを解析します。
func parseLogLevel(levelStr string) zapcore.Level {
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		return zapcore.WarnLevel
	}
	return level
}

// Debug はデバッグレベルのログを出力します。
func (l *StructuredLogger) Debug(ctx context.Context, message string, fields ...types.Field) {
	l.log(ctx, zapcore.DebugLevel, message, fields...)
}

// Info は情報レベルのログを出力します。
func (l *StructuredLogger) Info(ctx context.Context, message string, fields ...types.Field) {
	l.log(ctx, zapcore.InfoLevel, message, fields...)
}

// Warn は警告レベルのログを出力します。
func (l *StructuredLogger) Warn(ctx context.Context, message string, fields ...types.Field) {
	l.log(ctx, zapcore.WarnLevel, message, fields...)
}

// Error はエラーレベルのログを出力します。
func (l *StructuredLogger) Error(ctx context.Context, message string, err error, fields ...types.Field) {
	if err != nil {
		fields = append(fields, types.Field{Key: "error", Value: err.Error()})
	}
	l.log(ctx, zapcore.ErrorLevel, message, fields...)
}

// WithField はフィールドを追加した新しいロガーを返します。
func (l *StructuredLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(types.Field{Key: key, Value: value})
}

// WithFields は複数のフィールドを追加した新しいロガーを返します。
func (l *StructuredLogger) WithFields(fields ...types.Field) Logger {
	newFields := make([]types.Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	return &StructuredLogger{
		logger: l.logger,
		fields: newFields,
		err:    l.err,
	}
}

// WithError はエラーを追加した新しいロガーを返します。
func (l *StructuredLogger) WithError(err error) Logger {
	return &StructuredLogger{
		logger: l.logger,
		fields: l.fields,
		err:    err,
	}
}

// Sync はバッファされたログを書き出します。
func (l *StructuredLogger) Sync() error {
	return l.logger.Sync()
}

// Close はログを書き出し、ログファイルを開いていれば閉じます。
// 標準エラー出力に書いているロガーでは何もしません。
func (l *StructuredLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	err := l.Sync()
	if cerr := l.closer.Close(); err == nil {
		err = cerr
	}
	l.closer = nil
	return err
}

// log は実際のログ出力を行います。
func (l *StructuredLogger) log(ctx context.Context, level zapcore.Level, message string, fields ...types.Field) {
	ce := l.logger.Check(level, message)
	if ce == nil {
		return
	}

	zapFields := make([]zap.Field, 0, len(l.fields)+len(fields)+2)

	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		zapFields = append(zapFields, zap.String("request_id", requestID))
	}

	// 事前に設定されたフィールドを追加
	for _, field := range l.fields {
		zapFields = append(zapFields, zap.Any(field.Key, field.Value))
	}

	// 引数で渡されたフィールドを追加
	for _, field := range fields {
		zapFields = append(zapFields, zap.Any(field.Key, field.Value))
	}

	if l.err != nil {
		zapFields = append(zapFields, zap.NamedError("cause", l.err))
	}

	ce.Write(zapFields...)
}
