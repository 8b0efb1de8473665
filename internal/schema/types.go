package schema

import "strings"

// SQL column types produced by inference.
const (
	TypeText    = "TEXT"
	TypeNumeric = "NUMERIC"
	TypeDate    = "DATE"
	TypeBoolean = "BOOLEAN"
)

// unitTypes maps vendor unit types to SQL types.
var unitTypes = map[string]string{
	"currency":          TypeNumeric,
	"currency/share":    TypeNumeric,
	"USD":               TypeNumeric,
	"USD/share":         TypeNumeric,
	"USD millions":      TypeNumeric,
	"units":             TypeNumeric,
	"numeric":           TypeNumeric,
	"ratio":             TypeNumeric,
	"percent":           TypeNumeric,
	"%":                 TypeNumeric,
	"date (YYYY-MM-DD)": TypeDate,
	"text":              TypeText,
	"Y/N":               TypeBoolean,
	"N/A":               TypeText,
}

// foldedUnitTypes indexes unitTypes case-insensitively for vendor files that vary casing.
var foldedUnitTypes = func() map[string]string {
	m := make(map[string]string, len(unitTypes))
	for k, v := range unitTypes {
		m[strings.ToLower(k)] = v
	}
	return m
}()

// textOverrides are columns forced to TEXT whatever their unit type says.
// sf1.fiscalperiod holds values like "2023-Q1" although it is documented as a date.
var textOverrides = map[string]bool{
	key("sf1", "fiscalperiod"): true,
}

// SQLTypeForUnit maps a unit type to its SQL type. Unknown unit types map to
// TEXT with ok set to false.
func SQLTypeForUnit(unit string) (sqlType string, ok bool) {
	unit = strings.TrimSpace(unit)
	if t, found := unitTypes[unit]; found {
		return t, true
	}
	if t, found := foldedUnitTypes[strings.ToLower(unit)]; found {
		return t, true
	}
	return TypeText, false
}

func key(table, column string) string {
	return strings.ToLower(strings.TrimSpace(table)) + "\x00" + strings.ToLower(strings.TrimSpace(column))
}
