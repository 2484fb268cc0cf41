package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"calib_dataset_tool/catalog"
	"calib_dataset_tool/config"
	"calib_dataset_tool/database"
	"calib_dataset_tool/importer"
	"calib_dataset_tool/logger"
	"calib_dataset_tool/models"
	"calib_dataset_tool/mount"
	"calib_dataset_tool/split"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		showHelp()
		return
	}

	command := os.Args[1]

	// Initialize logging only for commands that need it
	if needsLogging(command) {
		cfg := loadConfig()
		if err := logger.Init(cfg); err != nil {
			log.Fatalf("Failed to initialize logging: %v", err)
		}
		defer func() {
			err := logger.Close()
			if err != nil {
				log.Fatalf("Failed to close logging: %v", err)
			}
		}()
		logger.LogCommand(os.Args[0], os.Args)
	}

	switch command {
	case "connect":
		connectCommand()
	case "migrate":
		migrateCommand()
	case "migrate:create":
		if len(os.Args) < 3 {
			fmt.Println("Error: migration name required")
			fmt.Println("Usage: go run main.go migrate:create <migration_name>")
			return
		}
		createMigrationCommand(os.Args[2])
	case "migrate:status":
		migrationStatusCommand()
	case "db:info":
		dbInfoCommand()
	case "import":
		if len(os.Args) < 3 {
			fmt.Println("Error: CSV file or directory path required")
			fmt.Println("Usage: go run main.go import <path>")
			return
		}
		importCommand(os.Args[2])
	case "split":
		if len(os.Args) < 4 {
			fmt.Println("Error: split rule and CSV path required")
			fmt.Println("Usage: go run main.go split <hour|month> <csv_path> [out_csv]")
			return
		}
		outPath := ""
		if len(os.Args) > 4 {
			outPath = os.Args[4]
		}
		splitCommand(os.Args[2], os.Args[3], outPath)
	case "db:split":
		if len(os.Args) < 3 {
			fmt.Println("Error: split rule required")
			fmt.Println("Usage: go run main.go db:split <hour|month> [earliest_n]")
			return
		}
		earliestN := 0
		if len(os.Args) > 3 {
			n, err := strconv.Atoi(os.Args[3])
			if err != nil || n <= 0 {
				fmt.Printf("Error: earliest_n must be a positive integer, got %q\n", os.Args[3])
				return
			}
			earliestN = n
		}
		dbSplitCommand(os.Args[2], earliestN)
	case "check":
		if len(os.Args) < 3 {
			fmt.Println("Error: split rule required")
			fmt.Println("Usage: go run main.go check <hour|month>")
			return
		}
		checkCommand(os.Args[2])
	case "mount:check":
		mountPoint := ""
		if len(os.Args) > 2 {
			mountPoint = os.Args[2]
		}
		mountCheckCommand(mountPoint)
	case "catalog":
		if len(os.Args) < 3 {
			fmt.Println("Error: heliostat root directory required")
			fmt.Println("Usage: go run main.go catalog <root_dir>")
			return
		}
		catalogCommand(os.Args[2])
	case "test:insert":
		testInsertCommand()
	case "help":
		showHelp()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		showHelp()
	}
}

// needsLogging determines which commands need logging
func needsLogging(command string) bool {
	loggingCommands := map[string]bool{
		"migrate":        true,
		"migrate:create": true,
		"migrate:status": true,
		"import":         true,
		"split":          true,
		"db:split":       true,
		"check":          true,
		"mount:check":    true,
		"catalog":        true,
		"connect":        true,
		"test:insert":    true,
	}
	return loggingCommands[command]
}

func showHelp() {
	fmt.Println("Heliostat Calibration Dataset Tool")
	fmt.Println("")
	fmt.Println("Usage: go run main.go <command> [arguments]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  connect                      Test database connection")
	fmt.Println("  migrate                      Run pending migrations")
	fmt.Println("  migrate:create <name>        Create a new migration file")
	fmt.Println("  migrate:status               Show migration status")
	fmt.Println("  db:info                      Show database and dataset information")
	fmt.Println("  import <path>                Import calibration CSV file(s) into the database")
	fmt.Println("  split <rule> <csv> [out]     Classify a CSV by hour or month rule and report empty sets")
	fmt.Println("  db:split <rule> [n]          Classify imported records, store labels, optionally trim train to earliest n")
	fmt.Println("  check <rule>                 Report empty sets for labels stored in the database")
	fmt.Println("  mount:check [mount_point]    Check whether the data mount is alive")
	fmt.Println("  catalog <root_dir>           Generate per-heliostat catalog files")
	fmt.Println("  test:insert                  Insert sample calibration records")
	fmt.Println("  help                         Show this help message")
	fmt.Println("")
	fmt.Println("Configuration:")
	fmt.Println("  Edit config.yaml to configure database, mount and catalog settings")
	fmt.Println("")
	fmt.Println("CSV File Format:")
	fmt.Println("  Header row with at least: id,HeliostatId,CreatedAt")
	fmt.Println("  Timestamp format: ISO8601 (e.g., 2022-06-01T12:30:45)")
}

func loadConfig() *config.Config {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func connectDatabase() (*config.Config, error) {
	cfg := loadConfig()

	_, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return cfg, nil
}

func connectCommand() {
	logger.Println("Testing database connection...")

	cfg, err := connectDatabase()
	if err != nil {
		logger.Fatalf("Connection failed: %v", err)
	}

	logger.Printf("✓ Successfully connected to %s database\n", cfg.Database.Driver)

	// Show connection info
	info := database.GetDatabaseInfo(cfg)
	infoJSON, _ := json.MarshalIndent(info, "", "  ")
	logger.Printf("Connection info: %s\n", infoJSON)
}

func migrateCommand() {
	logger.Println("Running database migrations...")

	cfg, err := connectDatabase()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if cfg.Migration.AutoMigrate {
		logger.Println("Auto-migrating model tables...")
		if err := database.GetDB().AutoMigrate(models.GetAllModels()...); err != nil {
			logger.Fatalf("Auto-migration failed: %v", err)
		}
	}

	runner := database.NewMigrationRunner(database.GetDB(), cfg)

	if err := runner.RunMigrations(); err != nil {
		logger.Fatalf("Migration failed: %v", err)
	}
}

func createMigrationCommand(name string) {
	logger.Printf("Creating migration: %s\n", name)

	cfg := loadConfig()
	runner := database.NewMigrationRunner(nil, cfg) // Don't need DB connection to create files

	filePath, err := runner.CreateMigration(name)
	if err != nil {
		logger.Fatalf("Failed to create migration: %v", err)
	}

	logger.Printf("✓ Migration created: %s\n", filePath)
}

func migrationStatusCommand() {
	logger.Println("Checking migration status...")

	cfg, err := connectDatabase()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	runner := database.NewMigrationRunner(database.GetDB(), cfg)

	migrations, err := runner.GetMigrationStatus()
	if err != nil {
		logger.Fatalf("Failed to get migration status: %v", err)
	}

	if len(migrations) == 0 {
		logger.Println("No migrations found")
		return
	}

	logger.Printf("%-20s %-40s %s\n", "Version", "Name", "Status")
	logger.Println("-------------------------------------------------------------------")

	for _, migration := range migrations {
		status := "Pending"
		if migration.Applied {
			status = "Applied"
		}
		logger.Printf("%-20s %-40s %s\n", migration.Version, migration.Name, status)
	}
}

func dbInfoCommand() {
	fmt.Println("Database Information:")
	fmt.Println(strings.Repeat("=", 50))

	cfg, err := connectDatabase()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	info := database.GetDatabaseInfo(cfg)

	// Display basic database info
	fmt.Printf("Database Type:     %v\n", info["driver"])
	fmt.Printf("Connection Status: %v\n", getConnectionStatusText(info["connected"]))

	// Display database-specific connection details
	switch cfg.Database.Driver {
	case "mysql", "postgres":
		fmt.Printf("Host:              %v\n", info["host"])
		fmt.Printf("Port:              %v\n", info["port"])
		fmt.Printf("Database:          %v\n", info["database"])
	case "sqlite":
		fmt.Printf("File Path:         %v\n", info["path"])
	}

	// Display connection pool information if available
	if info["connected"] == true {
		fmt.Println("\nConnection Pool:")
		fmt.Printf("  Max Connections: %v\n", info["max_open_connections"])
		fmt.Printf("  Open Connections:%v\n", info["open_connections"])
		fmt.Printf("  In Use:          %v\n", info["in_use"])
		fmt.Printf("  Idle:            %v\n", info["idle"])

		// Get dataset information
		db := database.GetDB()
		var count int64
		db.Model(&models.CalibrationRecord{}).Count(&count)
		fmt.Println("\nData Information:")
		fmt.Printf("  Total Records:    %d\n", count)

		var heliostatCount int64
		db.Model(&models.CalibrationRecord{}).Distinct("heliostat_id").Count(&heliostatCount)
		fmt.Printf("  Unique Heliostats:%d\n", heliostatCount)

		var labeledHour, labeledMonth int64
		db.Model(&models.CalibrationRecord{}).Where("split_hour IS NOT NULL").Count(&labeledHour)
		db.Model(&models.CalibrationRecord{}).Where("split_month IS NOT NULL").Count(&labeledMonth)
		fmt.Printf("  Hour Labels:      %d\n", labeledHour)
		fmt.Printf("  Month Labels:     %d\n", labeledMonth)

		// Get date range if data exists
		if count > 0 {
			var earliest, latest time.Time
			db.Model(&models.CalibrationRecord{}).Select("MIN(created_at)").Scan(&earliest)
			db.Model(&models.CalibrationRecord{}).Select("MAX(created_at)").Scan(&latest)
			fmt.Printf("  Date Range:       %s to %s\n",
				earliest.Format("2006-01-02 15:04:05"),
				latest.Format("2006-01-02 15:04:05"))
		}

		var catalogCount int64
		db.Model(&models.HeliostatCatalog{}).Count(&catalogCount)
		fmt.Printf("  Catalog Entries:  %d\n", catalogCount)
	} else {
		fmt.Println("\nConnection failed - unable to retrieve detailed information")
	}

	fmt.Println(strings.Repeat("=", 50))
}

func getConnectionStatusText(connected interface{}) string {
	if conn, ok := connected.(bool); ok && conn {
		return "✓ Connected"
	}
	return "✗ Disconnected"
}

func importCommand(path string) {
	logger.Printf("Importing calibration data from: %s\n", path)

	_, err := connectDatabase()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	csvImporter := importer.NewCSVImporter(database.GetDB())

	if err := csvImporter.ImportPath(path); err != nil {
		logger.Fatalf("Import failed: %v", err)
	}

	logger.Println("✓ Import completed successfully")
}

// reportEmptySets prints the four empty-set counts in fixed order,
// bracketed by divider lines.
func reportEmptySets(empty split.EmptySets) {
	logger.LogDivider()
	logger.Printf("HeliostatIDs with empty train sets: %d\n", len(empty.Train))
	logger.Printf("HeliostatIDs with empty test sets: %d\n", len(empty.Test))
	logger.Printf("HeliostatIDs with empty validation sets: %d\n", len(empty.Validation))
	logger.Printf("HeliostatIDs with empty test and validation sets: %d\n", len(empty.TestAndValidation))
	logger.LogDivider()
}

func splitCommand(ruleArg, csvPath, outPath string) {
	rule, err := split.ParseRule(ruleArg)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	cfg := loadConfig()
	if outPath == "" {
		outPath = cfg.Split.AggregateFile
	}

	logger.Printf("Splitting %s by %s rule\n", csvPath, rule)

	records, err := importer.ParseFile(csvPath)
	if err != nil {
		logger.Fatalf("Failed to load records: %v", err)
	}
	logger.Printf("Loaded %d records\n", len(records))

	agg, err := split.BuildAggregate(records, rule)
	if err != nil {
		logger.Fatalf("Classification failed: %v", err)
	}
	logger.Printf("Aggregated %d heliostat(s)\n", len(agg))

	reportEmptySets(split.FindEmptySets(agg))

	if err := split.WriteAggregateCSV(agg, outPath); err != nil {
		logger.Fatalf("Failed to write aggregate: %v", err)
	}
	logger.Printf("✓ Aggregate written to %s\n", outPath)
}

func dbSplitCommand(ruleArg string, earliestN int) {
	rule, err := split.ParseRule(ruleArg)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	_, err = connectDatabase()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	db := database.GetDB()

	var records []models.CalibrationRecord
	if err := db.Order("created_at ASC").Find(&records).Error; err != nil {
		logger.Fatalf("Failed to load records: %v", err)
	}
	if len(records) == 0 {
		logger.Println("No calibration records in the database; run import first")
		return
	}
	logger.Printf("Classifying %d records by %s rule\n", len(records), rule)

	agg, err := split.BuildAggregate(records, rule)
	if err != nil {
		logger.Fatalf("Classification failed: %v", err)
	}
	empty := split.FindEmptySets(agg)
	reportEmptySets(empty)

	column := labelColumn(rule)

	// Store labels per record, grouped by label
	idsByLabel := make(map[split.Label][]uint)
	for i := range records {
		label, err := rule.Classify(records[i].CreatedAt)
		if err != nil {
			logger.Fatalf("Classification failed: %v", err)
		}
		idsByLabel[label] = append(idsByLabel[label], records[i].ID)
	}
	for label, ids := range idsByLabel {
		if err := updateLabel(db, column, string(label), ids); err != nil {
			logger.Fatalf("Failed to store %s labels: %v", label, err)
		}
	}

	// Heliostats with any empty subset are unusable for benchmarking;
	// their labels are cleared entirely.
	dropped := empty.Union()
	if len(dropped) > 0 {
		logger.Printf("Clearing labels for %d heliostat(s) with empty sets\n", len(dropped))
		result := db.Model(&models.CalibrationRecord{}).
			Where("heliostat_id IN ?", dropped).
			Update(column, nil)
		if result.Error != nil {
			logger.Fatalf("Failed to clear labels: %v", result.Error)
		}
	}

	if earliestN > 0 {
		if err := trimTrainSet(db, records, rule, column, dropped, earliestN); err != nil {
			logger.Fatalf("Failed to trim train set: %v", err)
		}
	}

	logger.Printf("✓ Split labels stored in column %s\n", column)
}

// labelColumn maps a rule onto its database column
func labelColumn(rule split.Rule) string {
	if rule == split.ByMonth {
		return "split_month"
	}
	return "split_hour"
}

// updateLabel stores a label for a set of record ids in chunks
func updateLabel(db *gorm.DB, column, label string, ids []uint) error {
	const chunkSize = 500

	for i := 0; i < len(ids); i += chunkSize {
		end := i + chunkSize
		if end > len(ids) {
			end = len(ids)
		}

		result := db.Model(&models.CalibrationRecord{}).
			Where("id IN ?", ids[i:end]).
			Update(column, label)
		if result.Error != nil {
			return result.Error
		}
	}

	return nil
}

// clearLabel removes the stored label for a set of record ids in chunks
func clearLabel(db *gorm.DB, column string, ids []uint) error {
	const chunkSize = 500

	for i := 0; i < len(ids); i += chunkSize {
		end := i + chunkSize
		if end > len(ids) {
			end = len(ids)
		}

		result := db.Model(&models.CalibrationRecord{}).
			Where("id IN ?", ids[i:end]).
			Update(column, nil)
		if result.Error != nil {
			return result.Error
		}
	}

	return nil
}

// trimTrainSet keeps only the earliest n train entries per heliostat and
// clears the label of every other train record. Heliostats already dropped
// for empty sets are left alone.
func trimTrainSet(db *gorm.DB, records []models.CalibrationRecord, rule split.Rule, column string, dropped []int, n int) error {
	droppedSet := make(map[int]bool, len(dropped))
	for _, id := range dropped {
		droppedSet[id] = true
	}

	var remaining []models.CalibrationRecord
	for i := range records {
		if !droppedSet[records[i].HeliostatID] {
			remaining = append(remaining, records[i])
		}
	}

	selected, err := split.EarliestTrainIDs(remaining, rule, n)
	if err != nil {
		return err
	}

	var clear []uint
	for i := range remaining {
		label, err := rule.Classify(remaining[i].CreatedAt)
		if err != nil {
			return err
		}
		if label == split.Train && !selected[remaining[i].ID] {
			clear = append(clear, remaining[i].ID)
		}
	}

	if len(clear) == 0 {
		return nil
	}

	logger.Printf("Trimming train set to earliest %d per heliostat: clearing %d record(s)\n",
		n, len(clear))
	return clearLabel(db, column, clear)
}

func checkCommand(ruleArg string) {
	rule, err := split.ParseRule(ruleArg)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	_, err = connectDatabase()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	db := database.GetDB()

	column := labelColumn(rule)

	var rows []struct {
		HeliostatID int
		Label       string
		N           int
	}
	err = db.Model(&models.CalibrationRecord{}).
		Select(fmt.Sprintf("heliostat_id, %s AS label, COUNT(*) AS n", column)).
		Where(fmt.Sprintf("%s IS NOT NULL", column)).
		Group(fmt.Sprintf("heliostat_id, %s", column)).
		Scan(&rows).Error
	if err != nil {
		logger.Fatalf("Failed to aggregate stored labels: %v", err)
	}

	if len(rows) == 0 {
		logger.Printf("No stored %s labels; run db:split %s first\n", rule, rule)
		return
	}

	agg := make(split.Aggregate)
	for _, row := range rows {
		counts := agg[row.HeliostatID]
		switch split.Label(row.Label) {
		case split.Train:
			counts.Train += row.N
		case split.Test:
			counts.Test += row.N
		case split.Validation:
			counts.Validation += row.N
		}
		agg[row.HeliostatID] = counts
	}

	logger.Printf("Aggregated %d heliostat(s) from stored %s labels\n", len(agg), rule)
	reportEmptySets(split.FindEmptySets(agg))
}

func mountCheckCommand(mountPoint string) {
	cfg := loadConfig()
	if mountPoint == "" {
		mountPoint = cfg.Mount.MountPoint
	}

	logger.Printf("Checking mount point: %s\n", mountPoint)

	mounted, err := mount.IsMountPoint(mountPoint)
	if err != nil {
		logger.Fatalf("Mount check failed: %v", err)
	}

	if !mounted {
		logger.Fatalf("❌ Mount point %s is NOT available", mountPoint)
	}

	logger.Printf("✅ Mount point %s is available\n", mountPoint)
}

func catalogCommand(rootDir string) {
	cfg, err := connectDatabase()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	logger.Printf("Generating heliostat catalogs under: %s\n", rootDir)

	generator := catalog.NewGenerator(database.GetDB(), cfg.Catalog.FileTemplate)
	generated, err := generator.GenerateAll(rootDir)
	if err != nil {
		logger.Fatalf("Catalog generation failed: %v", err)
	}

	logger.Printf("✓ Generated %d catalog(s)\n", generated)
}

func testInsertCommand() {
	logger.Println("Inserting sample calibration records...")

	_, err := connectDatabase()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	db := database.GetDB()

	now := time.Now()
	sampleData := []models.CalibrationRecord{
		{
			ID:          1,
			HeliostatID: 11034,
			CreatedAt:   time.Date(now.Year(), 6, 1, 9, 30, 0, 0, time.Local),
			SunPosE:     0.3,
			SunPosN:     -0.8,
			SunPosU:     0.52,
		},
		{
			ID:          2,
			HeliostatID: 11034,
			CreatedAt:   time.Date(now.Year(), 6, 1, 13, 15, 0, 0, time.Local),
			SunPosE:     -0.1,
			SunPosN:     -0.85,
			SunPosU:     0.51,
		},
		{
			ID:          3,
			HeliostatID: 20215,
			CreatedAt:   time.Date(now.Year(), 6, 1, 16, 45, 0, 0, time.Local),
			SunPosE:     -0.5,
			SunPosN:     -0.7,
			SunPosU:     0.4,
		},
	}

	for _, record := range sampleData {
		record.Azimuth, record.Elevation = split.AzimuthElevation(
			record.SunPosE, record.SunPosN, record.SunPosU)
		record.UpdatedAt = record.CreatedAt

		result := db.Create(&record)
		if result.Error != nil {
			logger.Errorf("Failed to insert record %d: %v", record.ID, result.Error)
		} else {
			logger.Printf("✓ Inserted record %d: heliostat %d at %s\n",
				record.ID, record.HeliostatID, record.CreatedAt.Format(time.RFC3339))
		}
	}

	// Query and display all data
	logger.Println("\nAll calibration records:")
	var allData []models.CalibrationRecord
	db.Order("created_at ASC").Find(&allData)

	for _, record := range allData {
		logger.Printf("  %s: heliostat %d az=%.2f el=%.2f\n",
			record.CreatedAt.Format(time.RFC3339), record.HeliostatID,
			record.Azimuth, record.Elevation)
	}
}
