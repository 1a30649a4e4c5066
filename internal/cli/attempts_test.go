package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizmaster/internal/domain"
)

func TestWriteAttempts(t *testing.T) {
	created := time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)
	attempts := []domain.GenerationAttempt{
		{Topic: "Roman History", Count: 5, Backend: "gemini", Outcome: domain.AttemptSucceeded,
			Duration: 1234567 * time.Microsecond, CreatedAt: created},
		{Topic: "Go", Count: 3, Backend: "ollama", Outcome: domain.AttemptFailed,
			Error: "decode quiz json", Duration: 80 * time.Millisecond, CreatedAt: created.Add(-time.Minute)},
	}

	var buf bytes.Buffer
	require.NoError(t, writeAttempts(&buf, attempts))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "CREATED"))
	assert.Contains(t, lines[1], "2026-10-19T12:30:00Z")
	assert.Contains(t, lines[1], "Roman History")
	assert.Contains(t, lines[1], "1.235s")
	assert.Contains(t, lines[2], "failed")
	assert.Contains(t, lines[2], "decode quiz json")
	assert.Equal(t, strings.Index(lines[0], "BACKEND"), strings.Index(lines[1], "gemini"), "columns align")
}

func TestWriteAttemptsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAttempts(&buf, nil))
	assert.Equal(t, "no generation attempts recorded\n", buf.String())
}

func TestAttemptsCommandRejectsBadLimit(t *testing.T) {
	path := "absent.yaml"
	cmd := NewAttemptsCmd(&path)
	cmd.SetArgs([]string{"--limit", "0"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--limit")
}
