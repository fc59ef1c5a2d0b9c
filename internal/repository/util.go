package repository

import (
	"fmt"

	"github.com/inkdesk/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func wrap(op string, err error) error {
	return fmt.Errorf("failed to %s: %w", op, err)
}

func pageOptions(page, limit int) *options.FindOptions {
	page, limit = domain.NormalizePage(page, limit)
	return options.Find().SetSkip(int64((page - 1) * limit)).SetLimit(int64(limit))
}
