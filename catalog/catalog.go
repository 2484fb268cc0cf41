package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"calib_dataset_tool/logger"
	"calib_dataset_tool/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// STAC constants shared by every generated catalog
const (
	stacVersion = "1.0.0"
	catalogType = "Catalog"
	mimeGeoJSON = "application/geo+json"
)

// Directory names checked per heliostat
const (
	calibrationDir   = "Calibration"
	deflectometryDir = "Deflectometry"
	propertiesDir    = "Properties"
	weatherDir       = "Weather"
)

// Catalog is the STAC catalog document written per heliostat
type Catalog struct {
	StacVersion    string   `json:"stac_version"`
	StacExtensions []string `json:"stac_extensions"`
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Links          []Link   `json:"links"`
}

// Link is one STAC link entry
type Link struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// Generator writes one catalog file per heliostat directory and records the
// result in the heliostat_catalogs table. A nil db skips persistence.
type Generator struct {
	db           *gorm.DB
	fileTemplate string
}

// NewGenerator creates a catalog generator
func NewGenerator(db *gorm.DB, fileTemplate string) *Generator {
	return &Generator{
		db:           db,
		fileTemplate: fileTemplate,
	}
}

// MakeCatalog builds the catalog document for one heliostat. At least one
// asset kind must be available.
func MakeCatalog(heliostatName string, calibration, deflectometry, properties bool) (Catalog, error) {
	description, err := describeAssets(heliostatName, calibration, deflectometry, properties)
	if err != nil {
		return Catalog{}, err
	}

	links := []Link{
		{
			Rel:   "self",
			Href:  fmt.Sprintf("./%s-heliostat-catalog-stac.json", heliostatName),
			Type:  mimeGeoJSON,
			Title: "Reference to this STAC catalog file",
		},
		{
			Rel:   "root",
			Href:  "../catalog-stac.json",
			Type:  mimeGeoJSON,
			Title: "Reference to the parent catalog",
		},
	}
	if deflectometry {
		links = append(links, Link{
			Rel:   "child",
			Href:  fmt.Sprintf("./%s/%s-deflectometry-collection-stac.json", deflectometryDir, heliostatName),
			Type:  mimeGeoJSON,
			Title: "Reference to the STAC collection containing the deflectometry data",
		})
	}
	if calibration {
		links = append(links, Link{
			Rel:   "child",
			Href:  fmt.Sprintf("./%s/%s-calibration-collection-stac.json", calibrationDir, heliostatName),
			Type:  mimeGeoJSON,
			Title: "Reference to the STAC collection containing the calibration data",
		})
	}
	if properties {
		links = append(links, Link{
			Rel:   "child",
			Href:  fmt.Sprintf("./%s/%s-heliostat-properties-collection-stac.json", propertiesDir, heliostatName),
			Type:  mimeGeoJSON,
			Title: "Reference to the STAC collection containing the heliostat properties",
		})
	}

	return Catalog{
		StacVersion:    stacVersion,
		StacExtensions: []string{},
		ID:             fmt.Sprintf("%s-heliostat-catalog", heliostatName),
		Type:           catalogType,
		Title:          fmt.Sprintf("Operational data for the heliostat %s", heliostatName),
		Description:    description,
		Links:          links,
	}, nil
}

// describeAssets builds the catalog description from the availability flags
func describeAssets(heliostatName string, calibration, deflectometry, properties bool) (string, error) {
	parts := make([]string, 0, 3)
	if calibration {
		parts = append(parts, "Calibration images")
	}
	if deflectometry {
		parts = append(parts, "deflectometry measurements")
	}
	if properties {
		parts = append(parts, "heliostat properties")
	}

	switch len(parts) {
	case 0:
		return "", fmt.Errorf("heliostat %s does not seem to have any data", heliostatName)
	case 1:
		return parts[0], nil
	case 2:
		return parts[0] + " and " + parts[1], nil
	default:
		return parts[0] + ", " + parts[1] + ", and " + parts[2], nil
	}
}

// GenerateAll walks the heliostat directories under rootDir, writes a catalog
// file into each and upserts a catalog row per heliostat. The Weather
// directory is not a heliostat and is skipped, as are heliostats without any
// recognised asset directory.
func (g *Generator) GenerateAll(rootDir string) (int, error) {
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", rootDir, err)
	}

	generated := 0
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == weatherDir {
			continue
		}

		heliostatDir := filepath.Join(rootDir, entry.Name())
		calibration := isDir(filepath.Join(heliostatDir, calibrationDir))
		deflectometry := isDir(filepath.Join(heliostatDir, deflectometryDir))
		properties := isDir(filepath.Join(heliostatDir, propertiesDir))

		if !calibration && !deflectometry && !properties {
			logger.Warnf("Skipping %s: no data directories found\n", entry.Name())
			continue
		}

		catalogPath, err := g.writeCatalog(heliostatDir, entry.Name(), calibration, deflectometry, properties)
		if err != nil {
			return generated, err
		}

		if err := g.persist(entry.Name(), catalogPath, calibration, deflectometry, properties); err != nil {
			return generated, err
		}

		generated++
		logger.Printf("✓ Catalog written: %s\n", catalogPath)
	}

	return generated, nil
}

// writeCatalog renders and writes the catalog JSON for one heliostat
func (g *Generator) writeCatalog(heliostatDir, heliostatName string, calibration, deflectometry, properties bool) (string, error) {
	doc, err := MakeCatalog(heliostatName, calibration, deflectometry, properties)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode catalog for %s: %w", heliostatName, err)
	}

	catalogPath := filepath.Join(heliostatDir, fmt.Sprintf(g.fileTemplate, heliostatName))
	if err := os.WriteFile(catalogPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write catalog for %s: %w", heliostatName, err)
	}

	return catalogPath, nil
}

// persist upserts the catalog row for a heliostat
func (g *Generator) persist(heliostatName, catalogPath string, calibration, deflectometry, properties bool) error {
	if g.db == nil {
		return nil
	}

	entry := models.HeliostatCatalog{
		HeliostatName:          heliostatName,
		CatalogPath:            catalogPath,
		CalibrationAvailable:   calibration,
		DeflectometryAvailable: deflectometry,
		PropertiesAvailable:    properties,
	}

	result := g.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "heliostat_name"}},
		UpdateAll: true,
	}).Create(&entry)
	if result.Error != nil {
		return fmt.Errorf("failed to store catalog entry for %s: %w", heliostatName, result.Error)
	}

	return nil
}

// isDir reports whether path exists and is a directory
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// HeliostatName renders a numeric heliostat id as its field name, e.g.
// 11034 becomes AJ34: the first digit and the following two-digit group map
// onto letters, the remainder is kept as digits.
func HeliostatName(heliostatID int) (string, error) {
	s := strconv.Itoa(heliostatID)
	if len(s) < 4 {
		return "", fmt.Errorf("heliostat id %d too short for a name", heliostatID)
	}

	row, err := strconv.Atoi(s[1:3])
	if err != nil {
		return "", fmt.Errorf("invalid heliostat id %d: %w", heliostatID, err)
	}

	name := string(rune('A'+int(s[0]-'0')-1)) + string(rune('A'+row-1)) + s[3:]
	return name, nil
}
