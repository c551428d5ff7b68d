package types

// Field はログフィールドのキー・値ペアを表します。
type Field struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// LogLevel はログレベルを表します。
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
