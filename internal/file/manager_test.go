package file

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
)

func newTestManager(t *testing.T) (*AferoFileManager, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewAferoFileManager(fs, &logger.NopLogger{}), fs
}

func TestAferoFileManager_ReadWrite(t *testing.T) {
	m, fs := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, afero.WriteFile(fs, "compose.yml", []byte("a"), 0o600))
	require.NoError(t, m.Write(ctx, "compose.yml", []byte("b")))

	data, err := m.Read(ctx, "compose.yml")
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))

	info, err := m.GetInfo(ctx, "compose.yml")
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())
}

func TestAferoFileManager_ReadMissing(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Read(context.Background(), "missing.yml")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrFileNotFound))

	ok, err := m.Exists(context.Background(), "missing.yml")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSuffixBackupManager_CreateAndRestore(t *testing.T) {
	m, fs := newTestManager(t)
	ctx := context.Background()
	b := NewSuffixBackupManager(m, "", &logger.NopLogger{})

	require.NoError(t, afero.WriteFile(fs, "docker-compose.yml", []byte("original"), 0o644))

	path, err := b.CreateBackup(ctx, "docker-compose.yml")
	require.NoError(t, err)
	assert.Equal(t, "docker-compose.yml.backup", path)

	require.NoError(t, m.Write(ctx, "docker-compose.yml", []byte("changed")))
	require.NoError(t, b.RestoreBackup(ctx, path, "docker-compose.yml"))

	data, err := afero.ReadFile(fs, "docker-compose.yml")
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestSuffixBackupManager_RestoreMissingBackup(t *testing.T) {
	m, _ := newTestManager(t)
	b := NewSuffixBackupManager(m, ".orig", &logger.NopLogger{})

	err := b.RestoreBackup(context.Background(), b.BackupPath(".env"), ".env")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrFileNotFound))
	assert.Equal(t, ".env.orig", b.BackupPath(".env"))
}

func TestSuffixBackupManager_CreateMissingSource(t *testing.T) {
	m, _ := newTestManager(t)
	b := NewSuffixBackupManager(m, "", &logger.NopLogger{})

	_, err := b.CreateBackup(context.Background(), "nope.yml")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrFileBackupFailed))
}
