package data

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const covid = `date,Belgium,Brazil,France,Italy
2020-04-01,828,201,4032,13155
2020-04-02,1011,240,5387,13915
2020-04-03,1143,,6507,14681
`

func TestLoadCSV(t *testing.T) {
	table, err := LoadCSV(strings.NewReader(covid))
	require.NoError(t, err)

	assert.Equal(t, "date", table.IndexName)
	assert.Equal(t, []string{"Belgium", "Brazil", "France", "Italy"}, table.Columns)
	assert.Equal(t, []string{"2020-04-01", "2020-04-02", "2020-04-03"}, table.Index)
	assert.Equal(t, 3, table.Periods())

	assert.Equal(t, 13915.0, table.Values[1][3])
	assert.True(t, math.IsNaN(table.Values[2][1]), "empty cell should load as NaN")
	assert.Equal(t, 14681.0, table.Max())
}

func TestLoadCSV_ThousandsSeparators(t *testing.T) {
	table, err := LoadCSV(strings.NewReader("year,a\n2001,\"1,250.5\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 1250.5, table.Values[0][0])
}

func TestLoadCSV_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty input", input: "", wantErr: ErrEmpty},
		{name: "header only", input: "date,a,b\n", wantErr: ErrEmpty},
		{name: "ragged row", input: "date,a,b\n2020,1\n", wantErr: ErrRagged},
		{name: "bad number", input: "date,a\n2020,lots\n"},
		{name: "no categories", input: "date\n2020\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tc.input))
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "covid.csv")
	require.NoError(t, os.WriteFile(path, []byte(covid), 0o644))

	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, table.Columns, 4)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestMax_AllMissing(t *testing.T) {
	table := &Table{Values: [][]float64{{math.NaN()}}}
	assert.Equal(t, 0.0, table.Max())
}
