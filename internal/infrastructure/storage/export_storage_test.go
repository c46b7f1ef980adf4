package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalExportStorage_SaveExport(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalExportStorage(tempDir, zap.NewNop())
	ctx := context.Background()

	t.Run("saves file and returns full path", func(t *testing.T) {
		content := []byte("%PDF-1.3 content")

		path, err := fs.SaveExport(ctx, "owner-1/INV-2024-0007.pdf", content)

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tempDir, "owner-1", "INV-2024-0007.pdf"), path)
		saved, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, content, saved)
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		_, err := fs.SaveExport(ctx, "again.pdf", []byte("original"))
		require.NoError(t, err)
		path, err := fs.SaveExport(ctx, "again.pdf", []byte("updated"))
		require.NoError(t, err)

		content, _ := os.ReadFile(path)
		assert.Equal(t, []byte("updated"), content)

		entries, err := os.ReadDir(tempDir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotContains(t, e.Name(), ".export-")
		}
	})

	t.Run("saves empty file", func(t *testing.T) {
		path, err := fs.SaveExport(ctx, "empty.pdf", []byte{})
		require.NoError(t, err)
		info, _ := os.Stat(path)
		assert.Equal(t, int64(0), info.Size())
	})

	t.Run("rejects traversal", func(t *testing.T) {
		_, err := fs.SaveExport(ctx, "../../etc/passwd", []byte("x"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "escapes base directory")
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := fs.SaveExport(ctx, " ", []byte("x"))
		assert.Error(t, err)
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := fs.SaveExport(cancelled, "late.pdf", []byte("x"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocalExportStorage_ValidatePath(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalExportStorage(tempDir, zap.NewNop())

	assert.NoError(t, fs.ValidatePath(filepath.Join(tempDir, "owner", "file.pdf")))
	assert.Error(t, fs.ValidatePath("/etc/passwd"))
	assert.Error(t, fs.ValidatePath(tempDir))

	err := fs.ValidatePath(tempDir + "_malicious/file.pdf")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "escapes base directory")
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"INV-2024-0007.pdf", "INV-2024-0007.pdf"},
		{"../../etc/passwd", "etcpasswd"},
		{"owner id with spaces", "owneridwithspaces"},
		{".hidden", "hidden"},
		{"a\\b", "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeName(tt.input))
		})
	}
}

func TestOwnerExportName(t *testing.T) {
	assert.Equal(t, filepath.Join("owner-1", "INV-2024-0007.pdf"), OwnerExportName("owner-1", "INV-2024-0007.pdf"))
	assert.Equal(t, filepath.Join("shared", "invoice.pdf"), OwnerExportName("../", "invoice.pdf"))
	assert.Equal(t, filepath.Join("o", "invoice"), OwnerExportName("o", "///"))
}
