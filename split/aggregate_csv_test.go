package split

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAggregateCSV(t *testing.T) {
	agg := Aggregate{
		20215: {Train: 5, Test: 0, Validation: 2},
		10125: {Train: 3, Test: 1, Validation: 4},
	}

	path := filepath.Join(t.TempDir(), "aggregate.csv")
	require.NoError(t, WriteAggregateCSV(agg, path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Equal(t, [][]string{
		{"HeliostatId", "train", "test", "validation"},
		{"10125", "3", "1", "4"},
		{"20215", "5", "0", "2"},
	}, rows)
}
