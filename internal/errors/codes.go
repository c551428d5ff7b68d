package errors

import "strings"

// ErrorCode はエラーコードを表します。
type ErrorCode string

// ErrorCategory はエラーカテゴリを表します。
type ErrorCategory string

const (
	ErrorCategoryFile       ErrorCategory = "FILE"
	ErrorCategoryPort       ErrorCategory = "PORT"
	ErrorCategoryDocker     ErrorCategory = "DOCKER"
	ErrorCategoryConfig     ErrorCategory = "CONFIG"
	ErrorCategoryResolution ErrorCategory = "RESOLUTION"
	ErrorCategoryProbe      ErrorCategory = "PROBE"
	ErrorCategoryUnknown    ErrorCategory = "UNKNOWN"
)

// ファイル関連エラー
const (
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"
	ErrFilePermission   ErrorCode = "FILE_PERMISSION"
	ErrFileInvalidYAML  ErrorCode = "FILE_INVALID_YAML"
	ErrFileWriteFailed  ErrorCode = "FILE_WRITE_FAILED"
	ErrFileReadFailed   ErrorCode = "FILE_READ_FAILED"
	ErrFileBackupFailed ErrorCode = "FILE_BACKUP_FAILED"
)

// ポート関連エラー
const (
	ErrPortRangeInvalid ErrorCode = "PORT_RANGE_INVALID"
	ErrPortInvalid      ErrorCode = "PORT_INVALID"
	// ErrPortConflict は解決されない衝突が残ったことを表します。
	ErrPortConflict ErrorCode = "PORT_CONFLICT"
)

// Docker関連エラー
const (
	ErrComposeInvalid  ErrorCode = "COMPOSE_INVALID"
	ErrComposeNotFound ErrorCode = "COMPOSE_NOT_FOUND"
	ErrDockerAPIFailed ErrorCode = "DOCKER_API_FAILED"
)

// 設定関連エラー
const (
	ErrConfigInvalid         ErrorCode = "CONFIG_INVALID"
	ErrConfigLoadFailed      ErrorCode = "CONFIG_LOAD_FAILED"
	ErrConfigEnvFileRequired ErrorCode = "CONFIG_ENV_FILE_REQUIRED"
)

// 衝突解決関連エラー
const (
	ErrResolutionNoFreePort          ErrorCode = "RESOLUTION_NO_FREE_PORT"
	ErrResolutionVariableFileMissing ErrorCode = "RESOLUTION_VARIABLE_FILE_MISSING"
	ErrResolutionCancelled           ErrorCode = "RESOLUTION_CANCELLED"
	ErrResolutionMappingNotFound     ErrorCode = "RESOLUTION_MAPPING_NOT_FOUND"
)

// 調査の劣化。処理は継続します。
const (
	ErrProbeProcessUnavailable   ErrorCode = "PROBE_PROCESS_UNAVAILABLE"
	ErrProbeContainerUnavailable ErrorCode = "PROBE_CONTAINER_UNAVAILABLE"
	ErrProbeScanFailed           ErrorCode = "PROBE_SCAN_FAILED"
)

// 汎用エラー
const (
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// Category はエラーコードのカテゴリを返します。
func (c ErrorCode) Category() ErrorCategory {
	parts := strings.Split(string(c), "_")
	if len(parts) == 0 {
		return ErrorCategoryUnknown
	}

	switch parts[0] {
	case "FILE":
		return ErrorCategoryFile
	case "PORT":
		return ErrorCategoryPort
	case "DOCKER", "COMPOSE":
		return ErrorCategoryDocker
	case "CONFIG":
		return ErrorCategoryConfig
	case "RESOLUTION":
		return ErrorCategoryResolution
	case "PROBE":
		return ErrorCategoryProbe
	default:
		return ErrorCategoryUnknown
	}
}

// String はエラーコードを文字列として返します。
func (c ErrorCode) String() string {
	return string(c)
}
