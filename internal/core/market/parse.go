package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

var numberCleaner = strings.NewReplacer("%", "", "(", "", ")", "", ",", "", " ", "")

// parseNumber reads provider numerics such as "-1.2300", "(0.5432%)" or "1,024".
func parseNumber(s string) (float64, error) {
	d, err := decimal.NewFromString(numberCleaner.Replace(strings.TrimSpace(s)))
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

func parseVolume(s string) (int64, error) {
	d, err := decimal.NewFromString(numberCleaner.Replace(strings.TrimSpace(s)))
	if err != nil {
		return 0, err
	}
	return d.IntPart(), nil
}

// normalizeSymbol trims and upper-cases a ticker.
func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
