package csvkit_test

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekbanken/gamedesk/pkg/csvkit"
)

func TestNewReader_StripsBOM(t *testing.T) {
	r := csvkit.NewReader(strings.NewReader("\uFEFFname,title\nBollkull,Warmup\n"))
	header, err := csvkit.ReadHeader(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "title"}, header)

	rec, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "Bollkull", rec[0])
}

func TestReadHeader_Empty(t *testing.T) {
	r := csvkit.NewReader(strings.NewReader(""))
	_, err := csvkit.ReadHeader(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing header")
}

func TestRequireHeader(t *testing.T) {
	header := []string{"name", "short_description", "extra"}
	require.NoError(t, csvkit.RequireHeader(header, []string{"name"}))

	err := csvkit.RequireHeader(header, []string{"name", "game_key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game_key")
}

func TestCell_ShortRecord(t *testing.T) {
	index := csvkit.HeaderIndex([]string{"a", "b", "c"})
	rec := []string{"x"}
	assert.Equal(t, "x", csvkit.Cell(rec, index, "a"))
	assert.Equal(t, "", csvkit.Cell(rec, index, "b"))
	assert.Equal(t, "", csvkit.Cell(rec, index, "missing"))
}

func TestGenerate_EscapingRoundTrip(t *testing.T) {
	header := []string{"name", "body"}
	rows := [][]string{
		{`He said "go"`, "line one\nline two, with comma"},
	}
	out, err := csvkit.Generate(header, rows)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(out), "\uFEFF"))

	r := csvkit.NewReader(strings.NewReader(string(out)))
	gotHeader, err := csvkit.ReadHeader(r)
	require.NoError(t, err)
	assert.Equal(t, header, gotHeader)

	rec, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, rows[0], rec)
}

func TestParseJSONCell(t *testing.T) {
	v, err := csvkit.ParseJSONCell(`{"correctCode":"0042","limit":3}`)
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0042", m["correctCode"])
	assert.Equal(t, json.Number("3"), m["limit"])

	v, err = csvkit.ParseJSONCell("  ")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = csvkit.ParseJSONCell("{not json")
	require.Error(t, err)
}

func TestMarshalJSONCell(t *testing.T) {
	s, err := csvkit.MarshalJSONCell(map[string]any{"a": "<b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<b>"}`, s)

	s, err = csvkit.MarshalJSONCell(nil)
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestParseInteger(t *testing.T) {
	n, err := csvkit.ParseInteger(" 42 ")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, 42, *n)

	n, err = csvkit.ParseInteger("")
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = csvkit.ParseInteger("4.5")
	require.Error(t, err)
}

func TestParseStringList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, csvkit.ParseStringList("a, b; c"))
	assert.Nil(t, csvkit.ParseStringList(" ; , "))
	assert.Nil(t, csvkit.ParseStringList(""))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Hello world", csvkit.CleanText("  <p>Hello <b>world</b></p> "))

	long := strings.Repeat("x", 12000)
	assert.Len(t, csvkit.CleanText(long), 10000)
}

func TestCleanText_TruncatesOnRuneBoundary(t *testing.T) {
	// "ä" is two bytes; the first one straddles the 10000-byte limit.
	in := strings.Repeat("x", 9999) + strings.Repeat("ä", 20)
	out := csvkit.CleanText(in)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("x", 9999), out)

	// A rune ending exactly at the limit is kept whole.
	in = strings.Repeat("x", 9998) + strings.Repeat("ä", 20)
	out = csvkit.CleanText(in)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("x", 9998)+"ä", out)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "bollkull-pa-angen", csvkit.Slugify("Bollkull på ängen"))
	assert.Equal(t, "hoj-sank", csvkit.Slugify("Höj & sänk"))
	assert.Equal(t, "", csvkit.Slugify("!!!"))
}

func TestGenerateKey(t *testing.T) {
	key := csvkit.GenerateKey("Bollkull")
	require.True(t, strings.HasPrefix(key, "bollkull-"))
	assert.Len(t, key, len("bollkull-")+4)

	assert.True(t, strings.HasPrefix(csvkit.GenerateKey("!!!"), "game-"))
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, csvkit.IsValidUUID("ffffffff-ffff-ffff-ffff-ffffffffffff"))
	assert.False(t, csvkit.IsValidUUID("not-a-uuid"))
}
