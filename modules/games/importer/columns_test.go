package importer

import (
	"bufio"
	"os"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllColumns_Shape(t *testing.T) {
	columns := AllColumns()
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		_, dup := seen[c]
		require.False(t, dup, "duplicate column %q", c)
		seen[c] = struct{}{}
	}

	assert.Equal(t, "game_key", columns[0])
	assert.Contains(t, columns, "step_count")
	assert.Contains(t, columns, "step_1_title")
	assert.Contains(t, columns, "step_20_duration")
	assert.NotContains(t, columns, "step_21_title")
}

var docColumnRe = regexp.MustCompile("^\\| `([a-zA-Z0-9_]+)`")

// documentedColumns pulls the first-cell column names out of the markdown
// tables in docs/csv-format.md.
func documentedColumns(t *testing.T) map[string]struct{} {
	t.Helper()
	f, err := os.Open("../../../docs/csv-format.md")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	columns := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := docColumnRe.FindStringSubmatch(scanner.Text())
		if m == nil || m[1] == "Column" {
			continue
		}
		if strings.Contains(m[1], "_N_") {
			for i := 1; i <= MaxInlineSteps; i++ {
				columns[strings.Replace(m[1], "_N_", "_"+strconv.Itoa(i)+"_", 1)] = struct{}{}
			}
			continue
		}
		columns[m[1]] = struct{}{}
	}
	require.NoError(t, scanner.Err())
	return columns
}

// The docs and the parser must describe the same header. A column added to
// one side without the other fails here.
func TestCSVFormatDoc_MatchesColumns(t *testing.T) {
	documented := documentedColumns(t)
	require.NotEmpty(t, documented)

	expected := make(map[string]struct{})
	for _, c := range AllColumns() {
		expected[c] = struct{}{}
	}

	for c := range expected {
		_, ok := documented[c]
		assert.True(t, ok, "column %q is not documented in docs/csv-format.md", c)
	}
	for c := range documented {
		_, ok := expected[c]
		assert.True(t, ok, "docs/csv-format.md documents unknown column %q", c)
	}
}
