package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"calib_dataset_tool/logger"
	"calib_dataset_tool/models"
	"calib_dataset_tool/split"

	"gorm.io/gorm"
)

// Timestamp layouts accepted for CreatedAt/UpdatedAt. Values without an
// offset are read as naive wall-clock times.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// CSVImporter reads calibration CSV files and loads them into the database
type CSVImporter struct {
	db          *gorm.DB
	workerCount int
}

// FileJob represents a CSV file to be processed
type FileJob struct {
	FilePath string
	FileName string
}

// ImportResult contains the result of importing a single CSV file
type ImportResult struct {
	FilePath    string
	RecordCount int
	Duration    time.Duration
	Error       error
}

// NewCSVImporter creates a new CSV importer
func NewCSVImporter(db *gorm.DB) *CSVImporter {
	// Default to number of CPU cores for parallel processing
	workerCount := runtime.NumCPU()
	if workerCount > 8 {
		workerCount = 8 // Limit to 8 workers to avoid overwhelming the database
	}

	return &CSVImporter{
		db:          db,
		workerCount: workerCount,
	}
}

// SetWorkerCount sets the number of parallel workers
func (ci *CSVImporter) SetWorkerCount(count int) {
	if count > 0 {
		ci.workerCount = count
	}
}

// ImportPath imports a single CSV file, or every CSV file in a directory
// (non-recursive), into the calibration_records table.
func (ci *CSVImporter) ImportPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}

	var files []FileJob
	if info.IsDir() {
		files, err = ci.findCSVFiles(path)
		if err != nil {
			return fmt.Errorf("failed to find CSV files: %w", err)
		}
	} else {
		files = []FileJob{{FilePath: path, FileName: filepath.Base(path)}}
	}

	if len(files) == 0 {
		logger.Println("No CSV files found in the directory")
		return nil
	}

	logger.Printf("Found %d CSV file(s) to import\n", len(files))
	logger.Printf("Importing with %d parallel workers\n", ci.workerCount)

	results := ci.importFilesParallel(files)
	return ci.displaySummary(results)
}

// findCSVFiles finds all CSV files in the specified directory (non-recursive)
func (ci *CSVImporter) findCSVFiles(directoryPath string) ([]FileJob, error) {
	var csvFiles []FileJob

	entries, err := os.ReadDir(directoryPath)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if strings.ToLower(filepath.Ext(entry.Name())) == ".csv" {
			csvFiles = append(csvFiles, FileJob{
				FilePath: filepath.Join(directoryPath, entry.Name()),
				FileName: entry.Name(),
			})
		}
	}

	return csvFiles, nil
}

// importFilesParallel imports CSV files in parallel using worker goroutines
func (ci *CSVImporter) importFilesParallel(files []FileJob) []ImportResult {
	jobs := make(chan FileJob, len(files))
	results := make(chan ImportResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < ci.workerCount; i++ {
		wg.Add(1)
		go ci.worker(jobs, results, &wg)
	}

	go func() {
		for _, file := range files {
			jobs <- file
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var allResults []ImportResult
	for result := range results {
		allResults = append(allResults, result)
	}

	return allResults
}

// worker imports CSV files from the job channel
func (ci *CSVImporter) worker(jobs <-chan FileJob, results chan<- ImportResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobs {
		results <- ci.importCSVFile(job)
	}
}

// importCSVFile parses and inserts a single CSV file
func (ci *CSVImporter) importCSVFile(job FileJob) ImportResult {
	startTime := time.Now()
	result := ImportResult{
		FilePath: job.FilePath,
	}

	logger.Printf("Importing file: %s\n", job.FileName)

	records, err := ParseFile(job.FilePath)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(startTime)
		return result
	}
	result.RecordCount = len(records)

	if len(records) > 0 {
		if err := ci.batchInsertRecords(records); err != nil {
			result.Error = fmt.Errorf("failed to insert data: %w", err)
			result.Duration = time.Since(startTime)
			return result
		}
	}

	result.Duration = time.Since(startTime)
	logger.Printf("✓ Completed %s: %d records imported in %v\n",
		job.FileName, result.RecordCount, result.Duration)

	return result
}

// ParseFile reads one calibration CSV file into memory. The file needs a
// header row naming at least id, HeliostatId and CreatedAt; any other known
// column is parsed, unknown columns are ignored. A row with a malformed
// timestamp or number fails the whole file; there is no silent skipping.
func ParseFile(path string) ([]models.CalibrationRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("empty CSV file: %s", path)
	}

	columns, err := mapHeader(rows[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var records []models.CalibrationRecord
	for i, row := range rows[1:] {
		// Skip empty rows
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		record, err := parseRow(row, columns)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		records = append(records, record)
	}

	return records, nil
}

// columnIndex maps known CSV header names to their position in a row
type columnIndex map[string]int

// mapHeader builds the column index and checks the required columns exist
func mapHeader(header []string) (columnIndex, error) {
	columns := make(columnIndex, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	for _, required := range []string{"id", "HeliostatId", "CreatedAt"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q in header", required)
		}
	}

	return columns, nil
}

// field returns the trimmed cell value for a column, or "" if absent
func (c columnIndex) field(row []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow converts one CSV row into a CalibrationRecord
func parseRow(row []string, columns columnIndex) (models.CalibrationRecord, error) {
	var record models.CalibrationRecord

	id, err := parseIntField(columns.field(row, "id"), "id")
	if err != nil {
		return record, err
	}
	record.ID = uint(id)

	heliostatID, err := parseIntField(columns.field(row, "HeliostatId"), "HeliostatId")
	if err != nil {
		return record, err
	}
	record.HeliostatID = int(heliostatID)

	record.CreatedAt, err = parseTimestamp(columns.field(row, "CreatedAt"), "CreatedAt")
	if err != nil {
		return record, err
	}

	// UpdatedAt defaults to CreatedAt when the column is empty or missing
	if value := columns.field(row, "UpdatedAt"); value != "" {
		record.UpdatedAt, err = parseTimestamp(value, "UpdatedAt")
		if err != nil {
			return record, err
		}
	} else {
		record.UpdatedAt = record.CreatedAt
	}

	intFields := []struct {
		name string
		dest *int
	}{
		{"FieldId", &record.FieldID},
		{"CameraId", &record.CameraID},
		{"CalibrationTargetId", &record.CalibrationTargetID},
	}
	for _, f := range intFields {
		value := columns.field(row, f.name)
		if value == "" {
			continue
		}
		parsed, err := parseIntField(value, f.name)
		if err != nil {
			return record, err
		}
		*f.dest = int(parsed)
	}

	floatFields := []struct {
		name string
		dest *float64
	}{
		{"Version", &record.Version},
		{"Axis1MotorPosition", &record.Axis1MotorPosition},
		{"Axis2MotorPosition", &record.Axis2MotorPosition},
		{"ImageOffsetX", &record.ImageOffsetX},
		{"ImageOffsetY", &record.ImageOffsetY},
		{"TargetOffsetE", &record.TargetOffsetE},
		{"TargetOffsetN", &record.TargetOffsetN},
		{"TargetOffsetU", &record.TargetOffsetU},
		{"TrackingOffsetE", &record.TrackingOffsetE},
		{"TrackingOffsetU", &record.TrackingOffsetU},
		{"SunPosE", &record.SunPosE},
		{"SunPosN", &record.SunPosN},
		{"SunPosU", &record.SunPosU},
		{"LastScore", &record.LastScore},
	}
	for _, f := range floatFields {
		value := columns.field(row, f.name)
		if value == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return record, fmt.Errorf("invalid %s value: %q", f.name, value)
		}
		*f.dest = parsed
	}

	if value := columns.field(row, "IsDeleted"); value != "" {
		record.IsDeleted, err = parseBoolField(value, "IsDeleted")
		if err != nil {
			return record, err
		}
	}

	record.Azimuth, record.Elevation = split.AzimuthElevation(
		record.SunPosE, record.SunPosN, record.SunPosU)

	record.System = columns.field(row, "System")

	return record, nil
}

// parseTimestamp tries the accepted layouts in order
func parseTimestamp(value, name string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s timestamp: %q", name, value)
}

func parseIntField(value, name string) (int64, error) {
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %q", name, value)
	}
	return parsed, nil
}

func parseBoolField(value, name string) (bool, error) {
	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed, nil
	}
	if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
		return parsed != 0, nil
	}
	return false, fmt.Errorf("invalid %s value: %q", name, value)
}

// batchInsertRecords inserts calibration records in batches to improve performance
func (ci *CSVImporter) batchInsertRecords(data []models.CalibrationRecord) error {
	const batchSize = 1000

	for i := 0; i < len(data); i += batchSize {
		end := i + batchSize
		if end > len(data) {
			end = len(data)
		}

		batch := data[i:end]

		// Use GORM's CreateInBatches for efficient batch insertion
		if err := ci.db.CreateInBatches(batch, batchSize).Error; err != nil {
			// If batch insert fails, try individual inserts to identify problematic records
			return ci.individualInsert(batch)
		}
	}

	return nil
}

// individualInsert attempts to insert records individually when batch insert fails
func (ci *CSVImporter) individualInsert(data []models.CalibrationRecord) error {
	var lastError error
	successCount := 0

	for _, record := range data {
		if err := ci.db.Create(&record).Error; err != nil {
			lastError = err
			// Log the error but continue with other records
			logger.Warnf("Failed to insert record %d (heliostat %d): %v\n",
				record.ID, record.HeliostatID, err)
		} else {
			successCount++
		}
	}

	if successCount == 0 && lastError != nil {
		return fmt.Errorf("failed to insert any records: %w", lastError)
	}

	if lastError != nil {
		logger.Printf("Inserted %d out of %d records with some errors\n", successCount, len(data))
	}

	return nil
}

// displaySummary displays a summary of the import results. A failed file
// fails the whole import after all results are reported.
func (ci *CSVImporter) displaySummary(results []ImportResult) error {
	logger.Println("\n" + strings.Repeat("=", 60))
	logger.Println("IMPORT SUMMARY")
	logger.Println(strings.Repeat("=", 60))

	totalFiles := len(results)
	totalRecords := 0
	successfulFiles := 0
	failedFiles := 0
	totalDuration := time.Duration(0)

	var firstError error
	for _, result := range results {
		if result.Error != nil {
			failedFiles++
			if firstError == nil {
				firstError = result.Error
			}
			logger.Printf("❌ %s: FAILED - %v\n", filepath.Base(result.FilePath), result.Error)
		} else {
			successfulFiles++
			totalRecords += result.RecordCount
			logger.Printf("✅ %s: %d records (%v)\n",
				filepath.Base(result.FilePath), result.RecordCount, result.Duration)
		}
		totalDuration += result.Duration
	}

	logger.Println(strings.Repeat("-", 60))
	logger.Printf("Total files processed: %d\n", totalFiles)
	logger.Printf("Successful: %d\n", successfulFiles)
	logger.Printf("Failed: %d\n", failedFiles)
	logger.Printf("Total records imported: %d\n", totalRecords)
	logger.Printf("Total processing time: %v\n", totalDuration)
	logger.Println(strings.Repeat("=", 60))

	if firstError != nil {
		return fmt.Errorf("%d file(s) failed to import: %w", failedFiles, firstError)
	}
	return nil
}
