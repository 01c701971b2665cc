package market

// Regions lists the five NEM market regions in publication order.
var Regions = []string{"NSW1", "VIC1", "QLD1", "SA1", "TAS1"}

var displayNames = map[string]string{
	"NSW1": "NSW",
	"VIC1": "VIC",
	"QLD1": "QLD",
	"SA1":  "SA",
	"TAS1": "TAS",
}

// ValidRegion reports whether id is one of the five NEM regions.
func ValidRegion(id string) bool {
	_, ok := displayNames[id]
	return ok
}

// Display returns the short human name for a region ID ("NSW1" → "NSW").
// Unknown IDs are returned unchanged.
func Display(id string) string {
	if name, ok := displayNames[id]; ok {
		return name
	}
	return id
}
