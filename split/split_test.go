package split

import (
	"math/rand"
	"testing"
	"time"

	"calib_dataset_tool/models"

	"github.com/stretchr/testify/require"
)

func record(id uint, heliostatID int, createdAt time.Time) models.CalibrationRecord {
	return models.CalibrationRecord{
		ID:          id,
		HeliostatID: heliostatID,
		CreatedAt:   createdAt,
	}
}

func atHour(hour int) time.Time {
	return time.Date(2022, 6, 15, hour, 30, 0, 0, time.UTC)
}

func TestClassifyHour(t *testing.T) {
	for hour := 0; hour < 12; hour++ {
		label, err := ClassifyHour(hour)
		require.NoError(t, err)
		require.Equal(t, Train, label, "hour %d", hour)
	}
	for hour := 12; hour < 15; hour++ {
		label, err := ClassifyHour(hour)
		require.NoError(t, err)
		require.Equal(t, Test, label, "hour %d", hour)
	}
	for hour := 15; hour <= 23; hour++ {
		label, err := ClassifyHour(hour)
		require.NoError(t, err)
		require.Equal(t, Validation, label, "hour %d", hour)
	}
}

func TestClassifyHourInvalid(t *testing.T) {
	for _, hour := range []int{24, -1, 100} {
		_, err := ClassifyHour(hour)
		require.ErrorIs(t, err, ErrInvalidHour, "hour %d", hour)
	}
}

func TestClassifyMonth(t *testing.T) {
	expected := map[int]Label{
		1: Validation, 2: Validation,
		3: Test, 4: Test,
		5: Train, 6: Train, 7: Train, 8: Train,
		9: Test, 10: Test,
		11: Validation, 12: Validation,
	}
	for month, want := range expected {
		label, err := ClassifyMonth(month)
		require.NoError(t, err)
		require.Equal(t, want, label, "month %d", month)
	}

	for _, month := range []int{0, 13, -3} {
		_, err := ClassifyMonth(month)
		require.ErrorIs(t, err, ErrInvalidMonth, "month %d", month)
	}
}

func TestParseRule(t *testing.T) {
	rule, err := ParseRule("hour")
	require.NoError(t, err)
	require.Equal(t, ByHour, rule)

	rule, err = ParseRule("month")
	require.NoError(t, err)
	require.Equal(t, ByMonth, rule)

	_, err = ParseRule("azimuth")
	require.Error(t, err)
}

func TestBuildAggregate(t *testing.T) {
	records := []models.CalibrationRecord{
		record(1, 11034, atHour(1)),
		record(2, 11034, atHour(13)),
		record(3, 11034, atHour(16)),
		record(4, 11034, atHour(20)),
	}

	agg, err := BuildAggregate(records, ByHour)
	require.NoError(t, err)
	require.Len(t, agg, 1)
	require.Equal(t, Counts{Train: 1, Test: 1, Validation: 2}, agg[11034])
	require.Equal(t, 4, agg[11034].Total())
}

func TestBuildAggregateZeroFill(t *testing.T) {
	// Heliostat with validation-only records still reports all three labels
	records := []models.CalibrationRecord{
		record(1, 20215, atHour(16)),
		record(2, 20215, atHour(18)),
	}

	agg, err := BuildAggregate(records, ByHour)
	require.NoError(t, err)

	counts, ok := agg[20215]
	require.True(t, ok)
	require.Equal(t, 0, counts.Get(Train))
	require.Equal(t, 0, counts.Get(Test))
	require.Equal(t, 2, counts.Get(Validation))

	// A heliostat with no records does not appear at all
	_, ok = agg[99999]
	require.False(t, ok)
}

func TestBuildAggregateUnknownRule(t *testing.T) {
	records := []models.CalibrationRecord{
		record(1, 11034, atHour(8)),
	}
	_, err := BuildAggregate(records, Rule("azimuth"))
	require.Error(t, err)
}

func TestBuildAggregateOrderIndependent(t *testing.T) {
	var records []models.CalibrationRecord
	for i := 0; i < 200; i++ {
		records = append(records, record(uint(i+1), 10000+i%7, atHour(i%24)))
	}

	first, err := BuildAggregate(records, ByHour)
	require.NoError(t, err)

	shuffled := make([]models.CalibrationRecord, len(records))
	copy(shuffled, records)
	rand.New(rand.NewSource(42)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	second, err := BuildAggregate(shuffled, ByHour)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestFindEmptySets(t *testing.T) {
	records := []models.CalibrationRecord{
		// Heliostat with all three subsets
		record(1, 10125, atHour(8)),
		record(2, 10125, atHour(13)),
		record(3, 10125, atHour(17)),
		// Heliostat with only validation records (hours 16-20)
		record(4, 30917, atHour(16)),
		record(5, 30917, atHour(18)),
		record(6, 30917, atHour(20)),
		// Heliostat with only train records
		record(7, 21348, atHour(9)),
	}

	agg, err := BuildAggregate(records, ByHour)
	require.NoError(t, err)

	empty := FindEmptySets(agg)
	require.Equal(t, []int{21348, 30917}, empty.Test)
	require.Equal(t, []int{21348}, empty.Validation)
	require.Equal(t, []int{30917}, empty.Train)
	require.Equal(t, []int{21348}, empty.TestAndValidation)
	require.NotContains(t, empty.Test, 10125)
	require.NotContains(t, empty.Train, 10125)

	require.Equal(t, []int{21348, 30917}, empty.Union())

	// FindEmptySets does not touch the aggregate
	require.Equal(t, Counts{Validation: 3}, agg[30917])
}

func TestFindEmptySetsNoEmpties(t *testing.T) {
	records := []models.CalibrationRecord{
		record(1, 10125, atHour(8)),
		record(2, 10125, atHour(13)),
		record(3, 10125, atHour(17)),
	}

	agg, err := BuildAggregate(records, ByHour)
	require.NoError(t, err)

	empty := FindEmptySets(agg)
	require.Empty(t, empty.Train)
	require.Empty(t, empty.Test)
	require.Empty(t, empty.Validation)
	require.Empty(t, empty.TestAndValidation)
	require.Empty(t, empty.Union())
}

func TestEarliestTrainIDs(t *testing.T) {
	base := time.Date(2022, 6, 1, 8, 0, 0, 0, time.UTC)
	records := []models.CalibrationRecord{
		// Four train entries for 11034, out of chronological order
		record(4, 11034, base.AddDate(0, 0, 3)),
		record(1, 11034, base),
		record(3, 11034, base.AddDate(0, 0, 2)),
		record(2, 11034, base.AddDate(0, 0, 1)),
		// Test entry never selected
		record(5, 11034, atHour(13)),
		// Only one train entry for 20215, below the threshold
		record(6, 20215, base),
	}

	selected, err := EarliestTrainIDs(records, ByHour, 2)
	require.NoError(t, err)
	require.Equal(t, map[uint]bool{1: true, 2: true}, selected)

	_, err = EarliestTrainIDs(records, ByHour, 0)
	require.Error(t, err)
}
