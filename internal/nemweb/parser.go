package nemweb

import (
	"math"
	"strconv"
	"strings"
)

// PriceRecord is one settled 5-minute dispatch price.
type PriceRecord struct {
	Region       string
	Price        float64
	IntervalTime string
}

// ForecastRecord is one pre-dispatch forecast interval.
type ForecastRecord struct {
	Region       string
	Price        float64
	ForecastTime string
}

// AEMO's accepted RRP domain. Anything outside is a malformed row, not a
// market event: the market price cap is $17,500 and the floor is -$1,000.
const (
	minPrice = -1000.0
	maxPrice = 17500.0
)

// AEMO CSVs are self-describing: an "I" row names the columns for the "D"
// rows that follow it within the same (table, subtype). Columns have been
// added and reordered historically, so positions are always resolved
// through the most recent I row rather than hard-coded.
type columnMap map[string]int

func (m columnMap) field(fields []string, name string) (string, bool) {
	i, ok := m[name]
	if !ok || i >= len(fields) {
		return "", false
	}
	return cleanField(fields[i]), true
}

func cleanField(f string) string {
	return strings.Trim(strings.TrimSpace(f), `"`)
}

func parsePrice(s string) (float64, bool) {
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false
	}
	if p < minPrice || p > maxPrice {
		return 0, false
	}
	return p, true
}

// ParseDispatch extracts (region, price, settlement time) records from a
// dispatch CSV. Invalid rows are skipped, never fatal.
func ParseDispatch(csv string) []PriceRecord {
	var records []PriceRecord
	var cols columnMap

	for _, line := range strings.Split(csv, "\n") {
		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			continue
		}
		tag := cleanField(fields[0])
		table := cleanField(fields[1])
		sub := cleanField(fields[2])
		if table != "DISPATCH" || sub != "PRICE" {
			continue
		}

		switch tag {
		case "I":
			cols = make(columnMap, len(fields))
			for i, f := range fields {
				cols[cleanField(f)] = i
			}
		case "D":
			if cols == nil {
				continue
			}
			region, ok1 := cols.field(fields, "REGIONID")
			rrp, ok2 := cols.field(fields, "RRP")
			settlement, ok3 := cols.field(fields, "SETTLEMENTDATE")
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			price, ok := parsePrice(rrp)
			if !ok {
				continue
			}
			records = append(records, PriceRecord{
				Region:       region,
				Price:        price,
				IntervalTime: settlement,
			})
		}
	}
	return records
}

// ParsePredispatch extracts forecast records from a pre-dispatch CSV.
// AEMO has published the table as both PREDISPATCH,PRICE and
// PREDISPATCH,REGION_PRICES; the forecast time column is DATETIME when
// present, else PERIODID.
func ParsePredispatch(csv string) []ForecastRecord {
	var records []ForecastRecord
	var cols columnMap

	for _, line := range strings.Split(csv, "\n") {
		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			continue
		}
		tag := cleanField(fields[0])
		table := cleanField(fields[1])
		sub := cleanField(fields[2])
		if table != "PREDISPATCH" || (sub != "PRICE" && sub != "REGION_PRICES") {
			continue
		}

		switch tag {
		case "I":
			cols = make(columnMap, len(fields))
			for i, f := range fields {
				cols[cleanField(f)] = i
			}
		case "D":
			if cols == nil {
				continue
			}
			region, ok1 := cols.field(fields, "REGIONID")
			rrp, ok2 := cols.field(fields, "RRP")
			fcTime, ok3 := cols.field(fields, "DATETIME")
			if !ok3 {
				fcTime, ok3 = cols.field(fields, "PERIODID")
			}
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			price, ok := parsePrice(rrp)
			if !ok {
				continue
			}
			records = append(records, ForecastRecord{
				Region:       region,
				Price:        price,
				ForecastTime: fcTime,
			})
		}
	}
	return records
}
