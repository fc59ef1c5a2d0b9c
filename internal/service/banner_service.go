package service

import (
	"context"
	"strings"

	"github.com/inkdesk/storefront/internal/domain"
	"github.com/inkdesk/storefront/internal/media"
	"github.com/inkdesk/storefront/internal/repository"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BannerInput struct {
	Title    string
	Subtitle string
	Image    domain.Image
	Link     string
	Active   bool
	Position int
}

type BannerService struct {
	banners repository.BannerRepository
	media   media.Uploader
	log     zerolog.Logger
}

func NewBannerService(banners repository.BannerRepository, uploader media.Uploader, log zerolog.Logger) *BannerService {
	return &BannerService{banners: banners, media: uploader, log: log}
}

// ListBanners returns banners ordered by position. Public callers only see
// active ones.
func (s *BannerService) ListBanners(ctx context.Context, activeOnly bool) ([]*domain.Banner, error) {
	return s.banners.ListBanners(ctx, activeOnly)
}

func (s *BannerService) CreateBanner(ctx context.Context, in BannerInput) (*domain.Banner, error) {
	if err := validateBanner(in); err != nil {
		return nil, err
	}
	b := &domain.Banner{
		Title:    strings.TrimSpace(in.Title),
		Subtitle: in.Subtitle,
		Image:    in.Image,
		Link:     in.Link,
		Active:   in.Active,
		Position: in.Position,
	}
	if err := s.banners.CreateBanner(ctx, b); err != nil {
		return nil, translate(err, "banner")
	}
	return b, nil
}

func (s *BannerService) UpdateBanner(ctx context.Context, id primitive.ObjectID, in BannerInput) (*domain.Banner, error) {
	if err := validateBanner(in); err != nil {
		return nil, err
	}
	b, err := s.banners.GetBanner(ctx, id)
	if err != nil {
		return nil, translate(err, "banner")
	}
	previous := b.Image.PublicID

	b.Title = strings.TrimSpace(in.Title)
	b.Subtitle = in.Subtitle
	b.Image = in.Image
	b.Link = in.Link
	b.Active = in.Active
	b.Position = in.Position
	if err := s.banners.UpdateBanner(ctx, b); err != nil {
		return nil, translate(err, "banner")
	}
	if previous != b.Image.PublicID {
		deleteAssets(ctx, s.media, s.log, previous)
	}
	return b, nil
}

func (s *BannerService) DeleteBanner(ctx context.Context, id primitive.ObjectID) error {
	b, err := s.banners.GetBanner(ctx, id)
	if err != nil {
		return translate(err, "banner")
	}
	if err := s.banners.DeleteBanner(ctx, id); err != nil {
		return translate(err, "banner")
	}
	deleteAssets(ctx, s.media, s.log, b.Image.PublicID)
	return nil
}

func validateBanner(in BannerInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return validationf("banner title is required")
	}
	if in.Image.URL == "" {
		return validationf("banner image is required")
	}
	if in.Position < 0 {
		return validationf("position must not be negative")
	}
	return nil
}
