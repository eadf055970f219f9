// Package geometry detects spatial hint columns from header names.
package geometry

import "strings"

// SRIDWGS84 is the spatial reference recorded for detected lat/lon pairs.
const SRIDWGS84 = "EPSG:4326"

// Hint points at the column(s) encoding position: either a single geometry
// column or a (latitude, longitude) pair. SRID is set only for pairs.
type Hint struct {
	Columns []string
	SRID    string
}

// Pointer renders the metadata form of the hint: "column:<name>" for a
// geometry column, "column:<lat>,<lon>" for a pair. Original header casing
// is preserved.
func (h Hint) Pointer() string {
	return "column:" + strings.Join(h.Columns, ",")
}

// Detect scans the header case-insensitively. A column named "geometry"
// wins outright (no SRID); otherwise a latitude-like column ("lat",
// "latitude") together with a longitude-like column ("lon", "lng",
// "longitude") forms a pair with SRID EPSG:4326. When several candidates
// exist for a role, the leftmost header index wins.
func Detect(header []string) (Hint, bool) {
	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for i, h := range lower {
		if h == "geometry" {
			return Hint{Columns: []string{header[i]}}, true
		}
	}

	latIdx, lonIdx := -1, -1
	for i, h := range lower {
		switch h {
		case "lat", "latitude":
			if latIdx < 0 {
				latIdx = i
			}
		case "lon", "lng", "longitude":
			if lonIdx < 0 {
				lonIdx = i
			}
		}
	}
	if latIdx >= 0 && lonIdx >= 0 {
		return Hint{Columns: []string{header[latIdx], header[lonIdx]}, SRID: SRIDWGS84}, true
	}

	return Hint{}, false
}
