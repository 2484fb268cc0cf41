package split

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"calib_dataset_tool/models"
)

// Label is the dataset subset a calibration record belongs to
type Label string

// Dataset split labels
const (
	Train      Label = "train"
	Test       Label = "test"
	Validation Label = "validation"
)

// Hour boundaries of the time-of-day split. The three ranges partition the
// 24-hour day exactly: [TrainStartHour, TestStartHour) is train,
// [TestStartHour, ValidationStartHour) is test and
// [ValidationStartHour, DayEndHour) is validation.
const (
	TrainStartHour      = 0
	TestStartHour       = 12
	ValidationStartHour = 15
	DayEndHour          = 24
)

// Classification errors
var (
	ErrInvalidHour  = errors.New("invalid hour")
	ErrInvalidMonth = errors.New("invalid month")
)

// Rule selects which timestamp component drives the classification
type Rule string

// Supported split rules
const (
	ByHour  Rule = "hour"
	ByMonth Rule = "month"
)

// ParseRule converts a command line argument into a Rule
func ParseRule(s string) (Rule, error) {
	switch Rule(s) {
	case ByHour, ByMonth:
		return Rule(s), nil
	default:
		return "", fmt.Errorf("unknown split rule: %s (expected hour or month)", s)
	}
}

// ClassifyHour maps an hour of day onto a split label
func ClassifyHour(hour int) (Label, error) {
	switch {
	case hour >= TrainStartHour && hour < TestStartHour:
		return Train, nil
	case hour >= TestStartHour && hour < ValidationStartHour:
		return Test, nil
	case hour >= ValidationStartHour && hour < DayEndHour:
		return Validation, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidHour, hour)
	}
}

// ClassifyMonth maps a calendar month onto a split label. Summer months feed
// the train set, the shoulder seasons the test set and winter the validation
// set.
func ClassifyMonth(month int) (Label, error) {
	switch {
	case month >= 5 && month <= 8:
		return Train, nil
	case month >= 3 && month <= 4 || month >= 9 && month <= 10:
		return Test, nil
	case month >= 1 && month <= 2 || month >= 11 && month <= 12:
		return Validation, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
}

// Classify applies the rule to a record timestamp. Timestamps are read as
// naive wall-clock values; only the hour or month component matters.
func (r Rule) Classify(t time.Time) (Label, error) {
	switch r {
	case ByHour:
		return ClassifyHour(t.Hour())
	case ByMonth:
		return ClassifyMonth(int(t.Month()))
	default:
		return "", fmt.Errorf("unknown split rule: %s", r)
	}
}

// Counts holds the number of records per split label for one heliostat.
// All three labels are always present; a label with no records counts zero.
type Counts struct {
	Train      int
	Test       int
	Validation int
}

// Get returns the count for a single label
func (c Counts) Get(label Label) int {
	switch label {
	case Train:
		return c.Train
	case Test:
		return c.Test
	case Validation:
		return c.Validation
	default:
		return 0
	}
}

// Total returns the record count across all three labels
func (c Counts) Total() int {
	return c.Train + c.Test + c.Validation
}

// Aggregate maps each heliostat to its per-label record counts. Only
// heliostats with at least one record appear.
type Aggregate map[int]Counts

// HeliostatIDs returns the heliostat ids of the aggregate in ascending order
func (a Aggregate) HeliostatIDs() []int {
	ids := make([]int, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// BuildAggregate classifies every record with the given rule and counts
// records per heliostat and label. Records are not modified. A record whose
// timestamp classifies outside the rule's domain fails the whole pass.
func BuildAggregate(records []models.CalibrationRecord, rule Rule) (Aggregate, error) {
	agg := make(Aggregate)

	for i := range records {
		record := &records[i]

		label, err := rule.Classify(record.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", record.ID, err)
		}

		counts := agg[record.HeliostatID]
		switch label {
		case Train:
			counts.Train++
		case Test:
			counts.Test++
		case Validation:
			counts.Validation++
		}
		agg[record.HeliostatID] = counts
	}

	return agg, nil
}

// EmptySets lists the heliostats whose aggregate is missing a subset.
// TestAndValidation is the intersection of Test and Validation.
type EmptySets struct {
	Train             []int
	Test              []int
	Validation        []int
	TestAndValidation []int
}

// FindEmptySets scans an aggregate for heliostats with a zero count in any
// label. The returned id slices are sorted; the aggregate is not modified.
func FindEmptySets(agg Aggregate) EmptySets {
	var empty EmptySets

	for _, id := range agg.HeliostatIDs() {
		counts := agg[id]
		if counts.Train == 0 {
			empty.Train = append(empty.Train, id)
		}
		if counts.Test == 0 {
			empty.Test = append(empty.Test, id)
		}
		if counts.Validation == 0 {
			empty.Validation = append(empty.Validation, id)
		}
		if counts.Test == 0 && counts.Validation == 0 {
			empty.TestAndValidation = append(empty.TestAndValidation, id)
		}
	}

	return empty
}

// Union returns every heliostat id that appears in at least one empty set
func (e EmptySets) Union() []int {
	seen := make(map[int]bool)
	for _, set := range [][]int{e.Train, e.Test, e.Validation} {
		for _, id := range set {
			seen[id] = true
		}
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// EarliestTrainIDs selects, per heliostat, the record ids of the n earliest
// train entries under the given rule. Heliostats with fewer than n train
// entries contribute nothing, matching the benchmark dataset trimming rule.
func EarliestTrainIDs(records []models.CalibrationRecord, rule Rule, n int) (map[uint]bool, error) {
	if n <= 0 {
		return nil, fmt.Errorf("earliest train selection requires n > 0, got %d", n)
	}

	// Collect train entries per heliostat
	trainByHeliostat := make(map[int][]*models.CalibrationRecord)
	for i := range records {
		record := &records[i]

		label, err := rule.Classify(record.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", record.ID, err)
		}
		if label == Train {
			trainByHeliostat[record.HeliostatID] = append(trainByHeliostat[record.HeliostatID], record)
		}
	}

	selected := make(map[uint]bool)
	for _, entries := range trainByHeliostat {
		if len(entries) < n {
			continue
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		})
		for _, record := range entries[:n] {
			selected[record.ID] = true
		}
	}

	return selected, nil
}
