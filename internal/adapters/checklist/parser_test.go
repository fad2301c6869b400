package checklist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 12, 12, 15, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseTemplate(t *testing.T) {
	entries, err := Parse(strings.NewReader(Template), now)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "技术讨论组", entries[0].Name)
	assert.Equal(t, "昨天", entries[0].DateExpr)
	assert.Equal(t, "2025-12-11", entries[0].Period.String())
	assert.Equal(t, "HTML", entries[0].Format)

	assert.Equal(t, "产品团队", entries[1].Name)
	assert.Equal(t, "2025-12-11~2025-12-11", entries[1].Period.Param())

	assert.Equal(t, "设计组", entries[2].Name)
	assert.Equal(t, "2025-12-01,2025-12-12", entries[2].Period.String())
	assert.Equal(t, "JSON", entries[2].Format)
}

func TestParseDefaultsAndFallback(t *testing.T) {
	input := `# 清单
- 群聊名称：读书会
- name: Go 夜读
  date: someday
  format: html
  description: weekly meetup
`
	entries, err := Parse(strings.NewReader(input), now)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "读书会", entries[0].Name)
	assert.Equal(t, "昨天", entries[0].DateExpr)
	assert.False(t, entries[0].DateFallback)

	assert.Equal(t, "Go 夜读", entries[1].Name)
	assert.True(t, entries[1].DateFallback)
	assert.Equal(t, "2025-12-11", entries[1].Period.String())
	assert.Equal(t, "HTML", entries[1].Format)
	assert.Equal(t, "weekly meetup", entries[1].Description)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		expr  string
		start time.Time
		end   time.Time
		ok    bool
	}{
		{"今天", day(2025, 12, 12), day(2025, 12, 12), true},
		{"today", day(2025, 12, 12), day(2025, 12, 12), true},
		{"昨天", day(2025, 12, 11), day(2025, 12, 11), true},
		{"前天", day(2025, 12, 10), day(2025, 12, 10), true},
		{"本月", day(2025, 12, 1), day(2025, 12, 12), true},
		{"2025-11-30", day(2025, 11, 30), day(2025, 11, 30), true},
		{"2025年11月3日", day(2025, 11, 3), day(2025, 11, 3), true},
		{"2025-12-01,2025-12-05", day(2025, 12, 1), day(2025, 12, 5), true},
		{"2025-12-01~昨天", day(2025, 12, 1), day(2025, 12, 11), true},
		{"2025-12-05,2025-12-01", day(2025, 12, 11), day(2025, 12, 11), false},
		{"2025-13-40", day(2025, 12, 11), day(2025, 12, 11), false},
	}
	for _, tt := range tests {
		period, ok := NormalizeDate(tt.expr, now)
		assert.Equal(t, tt.ok, ok, tt.expr)
		assert.True(t, period.Start.Equal(tt.start), "%s: начало %s", tt.expr, period.Start)
		assert.True(t, period.End.Equal(tt.end), "%s: конец %s", tt.expr, period.End)
	}
}

func TestWriteTemplateDoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "群聊清单.md")
	require.NoError(t, WriteTemplate(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Template, string(data))

	require.NoError(t, os.WriteFile(path, []byte("- 群聊名称: 自定义\n"), 0o644))
	require.NoError(t, WriteTemplate(path))
	entries, err := ParseFile(path, now)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "自定义", entries[0].Name)
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.md"), now)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
