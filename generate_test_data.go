//go:build ignore

// Generates a synthetic calib_data.csv for exercising the import and split
// commands: go run generate_test_data.go <output_directory>
package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var header = []string{
	"id", "FieldId", "HeliostatId", "CameraId", "CalibrationTargetId",
	"System", "Version", "Axis1MotorPosition", "Axis2MotorPosition",
	"ImageOffsetX", "ImageOffsetY", "TargetOffsetE", "TargetOffsetN",
	"TargetOffsetU", "TrackingOffsetE", "TrackingOffsetU",
	"SunPosE", "SunPosN", "SunPosU", "LastScore", "IsDeleted",
	"CreatedAt", "UpdatedAt",
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run generate_test_data.go <output_directory>")
		fmt.Println("Example: go run generate_test_data.go test_data")
		return
	}

	outputDir := os.Args[1]
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("Failed to create directory: %v\n", err)
		return
	}

	path := filepath.Join(outputDir, "calib_data.csv")
	count, err := writeCalibData(path)
	if err != nil {
		fmt.Printf("Failed to write %s: %v\n", path, err)
		return
	}

	fmt.Printf("Generated %s with %d records\n", path, count)
}

func writeCalibData(path string) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return 0, err
	}

	heliostats := []int{10125, 11034, 11560, 20215, 21348, 30917}
	start := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)

	id := 0
	for _, heliostatID := range heliostats {
		// A couple hundred observations per heliostat over the season,
		// clustered in daylight hours so all three subsets get members.
		for i := 0; i < 200; i++ {
			id++
			day := rand.Intn(240)
			hour := 6 + rand.Intn(14) // 06:00 to 19:59
			createdAt := start.AddDate(0, 0, day).
				Add(time.Duration(hour)*time.Hour + time.Duration(rand.Intn(60))*time.Minute)

			// Rough daytime sun vector: east to west over elevation arc
			frac := float64(hour-6) / 14
			azRad := (frac*180 - 90) * math.Pi / 180
			elRad := math.Sin(frac*math.Pi) * 60 * math.Pi / 180
			sunE := math.Cos(elRad) * math.Sin(azRad)
			sunN := -math.Cos(elRad) * math.Cos(azRad)
			sunU := math.Sin(elRad)

			row := []string{
				strconv.Itoa(id),
				"1",
				strconv.Itoa(heliostatID),
				strconv.Itoa(1 + rand.Intn(3)),
				strconv.Itoa(1 + rand.Intn(7)),
				"HeliOS",
				"1.0",
				formatFloat(rand.Float64() * 100000),
				formatFloat(rand.Float64() * 100000),
				formatFloat(rand.NormFloat64() * 5),
				formatFloat(rand.NormFloat64() * 5),
				formatFloat(rand.NormFloat64() * 0.5),
				formatFloat(rand.NormFloat64() * 0.5),
				formatFloat(rand.NormFloat64() * 0.5),
				formatFloat(rand.NormFloat64() * 0.1),
				formatFloat(rand.NormFloat64() * 0.1),
				formatFloat(sunE),
				formatFloat(sunN),
				formatFloat(sunU),
				formatFloat(rand.Float64()),
				"0",
				createdAt.Format("2006-01-02T15:04:05"),
				createdAt.Format("2006-01-02T15:04:05"),
			}
			if err := writer.Write(row); err != nil {
				return 0, err
			}
		}
	}

	writer.Flush()
	return id, writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
