package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeCatalog(t *testing.T) {
	doc, err := MakeCatalog("AJ34", true, true, true)
	require.NoError(t, err)
	require.Equal(t, "AJ34-heliostat-catalog", doc.ID)
	require.Equal(t, "Catalog", doc.Type)
	require.Equal(t, "Calibration images, deflectometry measurements, and heliostat properties", doc.Description)
	// self, root and one child per asset kind
	require.Len(t, doc.Links, 5)

	doc, err = MakeCatalog("AJ34", true, false, false)
	require.NoError(t, err)
	require.Equal(t, "Calibration images", doc.Description)
	require.Len(t, doc.Links, 3)

	doc, err = MakeCatalog("AJ34", false, true, true)
	require.NoError(t, err)
	require.Equal(t, "deflectometry measurements and heliostat properties", doc.Description)
}

func TestMakeCatalogNoData(t *testing.T) {
	_, err := MakeCatalog("AJ34", false, false, false)
	require.Error(t, err)
}

func TestGenerateAll(t *testing.T) {
	root := t.TempDir()

	// Heliostat with calibration and properties data
	require.NoError(t, os.MkdirAll(filepath.Join(root, "AJ34", "Calibration"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "AJ34", "Properties"), 0755))
	// Heliostat without any data directories
	require.NoError(t, os.MkdirAll(filepath.Join(root, "BC52"), 0755))
	// Weather directory is not a heliostat
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Weather"), 0755))

	generator := NewGenerator(nil, "%s-heliostat-catalog-stac.json")
	generated, err := generator.GenerateAll(root)
	require.NoError(t, err)
	require.Equal(t, 1, generated)

	data, err := os.ReadFile(filepath.Join(root, "AJ34", "AJ34-heliostat-catalog-stac.json"))
	require.NoError(t, err)

	var doc Catalog
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "AJ34-heliostat-catalog", doc.ID)
	require.Equal(t, "1.0.0", doc.StacVersion)
	require.Equal(t, "Calibration images and heliostat properties", doc.Description)

	// No catalog for directories without data
	_, err = os.Stat(filepath.Join(root, "BC52", "BC52-heliostat-catalog-stac.json"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "Weather", "Weather-heliostat-catalog-stac.json"))
	require.True(t, os.IsNotExist(err))
}

func TestHeliostatName(t *testing.T) {
	name, err := HeliostatName(11034)
	require.NoError(t, err)
	require.Equal(t, "AJ34", name)

	name, err = HeliostatName(20215)
	require.NoError(t, err)
	require.Equal(t, "BB15", name)

	_, err = HeliostatName(123)
	require.Error(t, err)
}
