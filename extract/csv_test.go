package extract

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/pagewise/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV_TwoRows(t *testing.T) {
	content := "name,age\nAda,36\nGrace,45\n"

	result := Process(context.Background(), NewCSV(DefaultPolicy()), []byte(content), "people.csv")

	require.False(t, result.Failed(), result.Error)
	assert.Equal(t, 1, result.PageCount)
	require.Len(t, result.Pages[0].Tables, 1)
	table := result.Pages[0].Tables[0]
	assert.Equal(t, []string{"name", "age"}, table.Columns)
	assert.Equal(t, [][]string{{"Ada", "36"}, {"Grace", "45"}}, table.Rows)
	assert.Empty(t, result.Pages[0].Text)
}

func TestCSV_RowWindowRoundTrip(t *testing.T) {
	tests := []struct {
		rows   int
		window int
		pages  int
	}{
		{rows: 1, window: 1000, pages: 1},
		{rows: 1000, window: 1000, pages: 1},
		{rows: 1001, window: 1000, pages: 2},
		{rows: 2500, window: 1000, pages: 3},
		{rows: 7, window: 3, pages: 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d rows by %d", tt.rows, tt.window), func(t *testing.T) {
			var sb strings.Builder
			sb.WriteString("id,value\n")
			want := make([][]string, 0, tt.rows)
			for i := 0; i < tt.rows; i++ {
				row := []string{fmt.Sprint(i), fmt.Sprintf("v%d", i)}
				want = append(want, row)
				sb.WriteString(strings.Join(row, ",") + "\n")
			}

			x := NewCSV(Policy{RowWindow: tt.window})
			pages, err := x.Extract(context.Background(), []byte(sb.String()), "rows.csv")
			require.NoError(t, err)
			require.Len(t, pages, tt.pages)

			var got [][]string
			for i, page := range pages {
				assert.Equal(t, i+1, page.Number)
				require.Len(t, page.Tables, 1)
				assert.Equal(t, []string{"id", "value"}, page.Tables[0].Columns)
				assert.LessOrEqual(t, len(page.Tables[0].Rows), tt.window)
				got = append(got, page.Tables[0].Rows...)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestCSV_AlignsRaggedRowsAndKeepsDuplicateColumns(t *testing.T) {
	content := "\xEF\xBB\xBFx,x,y\n1\n1,2,3,4\n"

	pages, err := NewCSV(DefaultPolicy()).Extract(context.Background(), []byte(content), "ragged.csv")
	require.NoError(t, err)
	require.Len(t, pages, 1)

	table := pages[0].Tables[0]
	assert.Equal(t, []string{"x", "x", "y", ""}, table.Columns)
	assert.Equal(t, [][]string{{"1", "", "", ""}, {"1", "2", "3", "4"}}, table.Rows)
	assert.NoError(t, core.ValidatePages(pages))
}

func TestCSV_WideRowsKeepEveryCell(t *testing.T) {
	pages, err := NewCSV(DefaultPolicy()).Extract(context.Background(), []byte("a,b\n1,2,3,4\n"), "wide.csv")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, []string{"a", "b", "", ""}, pages[0].Tables[0].Columns)
	assert.Equal(t, [][]string{{"1", "2", "3", "4"}}, pages[0].Tables[0].Rows)
}

func TestCSV_WidenedHeaderCarriesToLaterPages(t *testing.T) {
	content := "a,b\n1,2\n3,4,5\n6,7\n"

	pages, err := NewCSV(Policy{RowWindow: 1}).Extract(context.Background(), []byte(content), "wide.csv")
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, []string{"a", "b"}, pages[0].Tables[0].Columns)
	assert.Equal(t, []string{"a", "b", ""}, pages[1].Tables[0].Columns)
	assert.Equal(t, []string{"a", "b", ""}, pages[2].Tables[0].Columns)

	var got [][]string
	for _, page := range pages {
		got = append(got, page.Tables[0].Rows...)
	}
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4", "5"}, {"6", "7", ""}}, got)
	assert.NoError(t, core.ValidatePages(pages))
}

func TestCSV_HeaderOnly(t *testing.T) {
	result := Process(context.Background(), NewCSV(DefaultPolicy()), []byte("a,b\n"), "header.csv")
	require.True(t, result.Failed())
	assert.Equal(t, "Failed to process CSV: no content extracted", result.Error)
	assert.Zero(t, result.PageCount)
}

func TestCSV_Empty(t *testing.T) {
	result := Process(context.Background(), NewCSV(DefaultPolicy()), nil, "empty.csv")
	require.True(t, result.Failed())
	assert.Equal(t, "Failed to process CSV: no columns to parse from file", result.Error)
}
