package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// newOrderNumber returns ORD-YYYYMMDD-XXXXXXXXXX where the suffix is 10 hex
// characters of a random UUID. Uniqueness is enforced by the orders index.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return "ORD-" + now.UTC().Format("20060102") + "-" + suffix
}
