package bienes

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"EPESPO-inventario/internal/domain"
)

// NextCode returns the next sequential code for category in now's year,
// e.g. "E-EC-2026-004". Codes from other years or categories are ignored.
func NextCode(category domain.Category, assets []domain.Asset, now time.Time) (string, error) {
	prefix := category.CodePrefix()
	if prefix == "" {
		return "", fmt.Errorf("unknown category %q", category)
	}
	year := now.Year()
	re := regexp.MustCompile(fmt.Sprintf(`^%s-%d-(\d{3})$`, regexp.QuoteMeta(prefix), year))

	max := 0
	for _, a := range assets {
		if a.Category != category {
			continue
		}
		m := re.FindStringSubmatch(a.Code)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s-%d-%03d", prefix, year, max+1), nil
}
