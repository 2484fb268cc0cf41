package split

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// WriteAggregateCSV writes the per-heliostat counts as a CSV with one row
// per heliostat, ordered by heliostat id.
func WriteAggregateCSV(agg Aggregate, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"HeliostatId", string(Train), string(Test), string(Validation)}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, id := range agg.HeliostatIDs() {
		counts := agg[id]
		row := []string{
			strconv.Itoa(id),
			strconv.Itoa(counts.Train),
			strconv.Itoa(counts.Test),
			strconv.Itoa(counts.Validation),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for heliostat %d: %w", id, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
