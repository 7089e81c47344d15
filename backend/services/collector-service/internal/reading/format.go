package reading

import (
	"math"
	"strconv"
	"strings"

	"powerlog/backend/services/collector-service/internal/models"
)

// Decimals is the number of fractional digits kept for numeric fields.
const Decimals = 2

// Round rounds v to Decimals places, half to even on the exact binary value.
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', Decimals, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}

// FormatFloat prints v using the shortest representation that round-trips.
// Integral values keep a trailing ".0"; magnitudes below 1e-4 or from 1e16
// upwards use exponent form.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatValue renders a field for the output file: numbers are rounded,
// anything else passes through as text and absent fields become empty.
func FormatValue(v models.Value) string {
	if v.Num == nil {
		return v.Text
	}
	return FormatFloat(Round(*v.Num))
}

// FormatRow lays a Reading out in Header order. The time field is never rounded.
func FormatRow(r *models.Reading) models.Row {
	var row models.Row
	row[0] = r.Time.Text
	row[1] = FormatValue(r.Frequency)
	for p := models.L1; p < models.PhaseCount; p++ {
		ph := r.Phases[p]
		base := 2 + int(p)*5
		row[base] = FormatValue(ph.Current)
		row[base+1] = FormatValue(ph.Voltage)
		row[base+2] = FormatValue(ph.Power)
		row[base+3] = FormatValue(ph.ReactivePower)
		row[base+4] = FormatValue(ph.CosPhi)
	}
	return row
}
