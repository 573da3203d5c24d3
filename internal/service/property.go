package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rentdesk/rentdesk/internal/model"
	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/rentdesk/rentdesk/internal/validation"
)

type PropertyService struct {
	authService        *AuthService
	propertyRepository repository.PropertyRepository
}

func NewPropertyService(authService *AuthService, propertyRepository repository.PropertyRepository) *PropertyService {
	return &PropertyService{
		authService:        authService,
		propertyRepository: propertyRepository,
	}
}

type CreatePropertyRequest struct {
	Credentials
	Title       string   `json:"title"`
	ImageURL    string   `json:"image_url"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
	IsForeign   bool     `json:"is_foreign"`
}

func (r CreatePropertyRequest) Validate() error {
	return validate(r.Credentials, func() error {
		return ozzo.ValidateStruct(&r,
			ozzo.Field(&r.Title, ozzo.Required, ozzo.Length(1, 255)),
			ozzo.Field(&r.ImageURL, is.URL),
			ozzo.Field(&r.Categories, ozzo.Each(ozzo.By(stringRule(validation.ValidateCategoryName))), ozzo.By(distinctCategories)),
		)
	})
}

func distinctCategories(value any) error {
	categories, _ := value.([]string)
	for i, c := range categories {
		if validation.IndexCategory(categories[:i], c) >= 0 {
			return fmt.Errorf("duplicate category %q", strings.TrimSpace(c))
		}
	}
	return nil
}

// Properties lists the properties the caller is approved for.
func (s *PropertyService) Properties(ctx context.Context, creds Credentials) ([]*model.Property, error) {
	user, err := s.authService.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}

	all, err := s.propertyRepository.Properties(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	properties := make([]*model.Property, 0, len(all))
	for _, p := range all {
		if user.CanAccess(p) {
			properties = append(properties, p)
		}
	}

	return properties, nil
}

func (s *PropertyService) Property(ctx context.Context, creds Credentials, id int64) (*model.Property, error) {
	_, property, err := s.authService.Guard(ctx, creds, id)
	if err != nil {
		return nil, err
	}
	return property, nil
}

// Create adds a property. The caller must hold the approval matching the
// new property's kind.
func (s *PropertyService) Create(ctx context.Context, req CreatePropertyRequest) (*model.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.authService.Authenticate(ctx, req.Credentials)
	if err != nil {
		return nil, err
	}

	property := &model.Property{
		Title:       strings.TrimSpace(req.Title),
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Description: req.Description,
		Categories:  model.Categories{},
		IsForeign:   req.IsForeign,
		CreatedAt:   time.Now().UTC(),
	}
	for _, c := range req.Categories {
		property.Categories = append(property.Categories, strings.TrimSpace(c))
	}

	if !user.CanAccess(property) {
		return nil, ErrForbidden
	}

	if err := s.propertyRepository.Create(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	slog.Info("property created", "property_id", property.ID, "is_foreign", property.IsForeign, "by", user.Username)
	return property, nil
}
