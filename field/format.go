package field

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// FormatValue prints a parsed value for display. Decimals keep their scale.
func FormatValue(v any) string {
	switch x := v.(type) {
	case decimal.Decimal:
		if exp := x.Exponent(); exp < 0 {
			return x.StringFixed(-exp)
		}
		return x.String()
	case civil.Date:
		return x.String()
	case []string:
		if len(x) == 0 {
			return "none"
		}
		return strings.Join(x, ", ")
	case []any:
		if len(x) == 0 {
			return "none"
		}
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ", ")
	case string:
		return x
	default:
		return fmt.Sprint(v)
	}
}
