package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkdesk/storefront/internal/cache"
	"github.com/inkdesk/storefront/internal/domain"
	"github.com/inkdesk/storefront/internal/logger"
	"github.com/inkdesk/storefront/internal/repository"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxCommentLength = 2000

type ReviewInput struct {
	Rating  int
	Comment string
}

type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	cache    cache.ProductCache
	log      zerolog.Logger
}

func NewReviewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	productCache cache.ProductCache,
	log zerolog.Logger,
) *ReviewService {
	return &ReviewService{reviews: reviews, products: products, cache: productCache, log: log}
}

func (s *ReviewService) ListReviews(ctx context.Context, productID primitive.ObjectID, page, limit int) (domain.Page[*domain.Review], error) {
	page, limit = domain.NormalizePage(page, limit)
	reviews, total, err := s.reviews.ListByProduct(ctx, productID, page, limit)
	if err != nil {
		return domain.Page[*domain.Review]{}, err
	}
	return domain.NewPage(reviews, total, page, limit), nil
}

// CreateReview adds the caller's review. A second review of the same product
// by the same user is a conflict and leaves the product rating untouched.
func (s *ReviewService) CreateReview(ctx context.Context, p domain.Principal, productID primitive.ObjectID, in ReviewInput) (*domain.Review, error) {
	if err := validateReview(in); err != nil {
		return nil, err
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, translate(err, "product")
	}

	r := &domain.Review{
		UserID:    p.UserID,
		ProductID: productID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if err := s.reviews.CreateReview(ctx, r); err != nil {
		return nil, translate(err, "review for this product")
	}
	if err := s.refreshRating(ctx, productID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, p domain.Principal, reviewID primitive.ObjectID, in ReviewInput) (*domain.Review, error) {
	if err := validateReview(in); err != nil {
		return nil, err
	}
	r, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		return nil, translate(err, "review")
	}
	if r.UserID != p.UserID {
		return nil, fmt.Errorf("%w: review belongs to another user", ErrForbidden)
	}

	r.Rating = in.Rating
	r.Comment = strings.TrimSpace(in.Comment)
	if err := s.reviews.UpdateReview(ctx, r); err != nil {
		return nil, translate(err, "review")
	}
	if err := s.refreshRating(ctx, r.ProductID); err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteReview removes a review. Admins may delete any review.
func (s *ReviewService) DeleteReview(ctx context.Context, p domain.Principal, reviewID primitive.ObjectID) error {
	r, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		return translate(err, "review")
	}
	if r.UserID != p.UserID && !p.IsAdmin() {
		return fmt.Errorf("%w: review belongs to another user", ErrForbidden)
	}
	if err := s.reviews.DeleteReview(ctx, reviewID); err != nil {
		return translate(err, "review")
	}
	return s.refreshRating(ctx, r.ProductID)
}

// refreshRating recomputes the product's average rating and review count
// from its reviews.
func (s *ReviewService) refreshRating(ctx context.Context, productID primitive.ObjectID) error {
	summary, err := s.reviews.Summarize(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.products.SetRating(ctx, productID, summary); err != nil {
		return translate(err, "product")
	}
	if err := s.cache.Delete(ctx, productID); err != nil {
		l := logger.FromContext(ctx, s.log)
		l.Warn().Err(err).Str("product_id", productID.Hex()).Msg("cache invalidate error")
	}
	return nil
}

func validateReview(in ReviewInput) error {
	if in.Rating < 1 || in.Rating > 5 {
		return validationf("rating must be between 1 and 5")
	}
	if len(in.Comment) > maxCommentLength {
		return validationf("comment must be at most %d characters", maxCommentLength)
	}
	return nil
}
