package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/annoq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    schema.Kappa
		expected string
	}{
		{
			name:     "undefined",
			input:    schema.KappaUndefined,
			expected: UndefinedValue,
		},
		{
			name:     "negative agreement",
			input:    schema.KappaScore(-0.3),
			expected: PoorValue,
		},
		{
			name:     "just before weak",
			input:    schema.KappaScore(0.39),
			expected: PoorValue,
		},
		{
			name:     "exactly weak",
			input:    schema.KappaScore(0.4),
			expected: WeakValue,
		},
		{
			name:     "exactly moderate",
			input:    schema.KappaScore(0.6),
			expected: ModerateValue,
		},
		{
			name:     "just before strong",
			input:    schema.KappaScore(0.79),
			expected: ModerateValue,
		},
		{
			name:     "perfect",
			input:    schema.KappaScore(1),
			expected: StrongValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.input))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	tests := []struct {
		name  string
		kappa schema.Kappa
		label string
	}{
		{"poor", schema.KappaScore(0.1), PoorValue},
		{"weak", schema.KappaScore(0.5), WeakValue},
		{"moderate", schema.KappaScore(0.7), ModerateValue},
		{"strong", schema.KappaScore(0.9), StrongValue},
		{"undefined", schema.KappaUndefined, UndefinedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetColorLabel(tt.kappa)
			// Should contain the plain label
			assert.Contains(t, result, tt.label)
		})
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		// Verify file was created
		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestGetDBFilePaths(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	store := GetStoreDBFilePath()
	cache := GetCacheDBFilePath()

	assert.Contains(t, store, ".annoq_store.db")
	assert.Contains(t, cache, ".annoq_cache.db")
	assert.NotEqual(t, store, cache)
	assert.True(t, strings.HasPrefix(store, homeDir), "path %s should start with home dir %s", store, homeDir)
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "data/a.jsonl", TruncatePath("data/a.jsonl", 20))
	assert.Equal(t, "...a.jsonl", TruncatePath("data/a.jsonl", 10))
	assert.Equal(t, "data/a.jsonl", TruncatePath("data/a.jsonl", 3))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}

func TestParseUsers(t *testing.T) {
	assert.Equal(t, []schema.AnnotatorID{"alice", "bob"}, ParseUsers(" alice, ,bob,"))
	assert.Nil(t, ParseUsers(""))
}
