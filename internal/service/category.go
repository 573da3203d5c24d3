package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/jmoiron/sqlx"
	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/rentdesk/rentdesk/internal/model"
	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/rentdesk/rentdesk/internal/validation"
)

// CategoryService keeps a property's category list and its vendor details
// consistent: details always belong to a category the property has.
type CategoryService struct {
	db                       *sqlx.DB
	authService              *AuthService
	propertyRepository       repository.PropertyRepository
	categoryDetailRepository repository.CategoryDetailRepository
}

func NewCategoryService(
	database *sqlx.DB,
	authService *AuthService,
	propertyRepository repository.PropertyRepository,
	categoryDetailRepository repository.CategoryDetailRepository,
) *CategoryService {
	return &CategoryService{
		db:                       database,
		authService:              authService,
		propertyRepository:       propertyRepository,
		categoryDetailRepository: categoryDetailRepository,
	}
}

type CategoryRequest struct {
	Credentials
	PropertyID   int64  `json:"property_id"`
	CategoryName string `json:"category_name"`
}

func (r CategoryRequest) Validate() error {
	return validate(r.Credentials, func() error {
		return ozzo.ValidateStruct(&r,
			ozzo.Field(&r.PropertyID, ozzo.Required),
			ozzo.Field(&r.CategoryName, ozzo.Required, ozzo.By(stringRule(validation.ValidateCategoryName))),
		)
	})
}

type DetailRequest struct {
	Credentials
	PropertyID        int64   `json:"property_id"`
	CategoryName      string  `json:"category_name"`
	DetailName        string  `json:"detail_name"`
	DetailURL         string  `json:"detail_url"`
	DetailDescription *string `json:"detail_description"`
	DetailLogoURL     *string `json:"detail_logo_url"`
	DetailUsername    *string `json:"detail_username"`
	DetailPassword    *string `json:"detail_password"`
}

func (r DetailRequest) Validate() error {
	return validate(r.Credentials, func() error {
		return ozzo.ValidateStruct(&r,
			ozzo.Field(&r.PropertyID, ozzo.Required),
			ozzo.Field(&r.CategoryName, ozzo.Required),
			ozzo.Field(&r.DetailName, ozzo.Required, ozzo.Length(1, 255)),
			ozzo.Field(&r.DetailURL, ozzo.Required, is.URL),
			ozzo.Field(&r.DetailLogoURL, ozzo.NilOrNotEmpty, is.URL),
		)
	})
}

type UpdateDetailRequest struct {
	DetailRequest
	DetailID int64 `json:"detail_id"`
}

func (r UpdateDetailRequest) Validate() error {
	if err := r.DetailRequest.Validate(); err != nil {
		return err
	}
	if r.DetailID <= 0 {
		return validationError(errors.New("detail_id: must be a positive id"))
	}
	return nil
}

type DeleteDetailRequest struct {
	Credentials
	PropertyID int64 `json:"property_id"`
	DetailID   int64 `json:"detail_id"`
}

func (r DeleteDetailRequest) Validate() error {
	return validate(r.Credentials, func() error {
		return ozzo.ValidateStruct(&r,
			ozzo.Field(&r.PropertyID, ozzo.Required),
			ozzo.Field(&r.DetailID, ozzo.Required),
		)
	})
}

// Add appends a category to the property. Names are unique regardless of
// case.
func (s *CategoryService) Add(ctx context.Context, req CategoryRequest) (*model.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, _, err := s.authService.Guard(ctx, req.Credentials, req.PropertyID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.CategoryName)
	var property *model.Property

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		properties := s.propertyRepository.WithTx(tx)

		var err error
		property, err = properties.ByID(ctx, req.PropertyID)
		if err != nil {
			return err
		}

		if validation.IndexCategory(property.Categories, name) >= 0 {
			return ErrCategoryExists
		}

		property.Categories = append(property.Categories, name)
		return properties.UpdateCategories(ctx, property.ID, property.Categories)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("category added", "property_id", req.PropertyID, "category", name)
	return property, nil
}

// Delete removes a category and every detail filed under it.
func (s *CategoryService) Delete(ctx context.Context, req CategoryRequest) (*model.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, _, err := s.authService.Guard(ctx, req.Credentials, req.PropertyID); err != nil {
		return nil, err
	}

	var (
		property *model.Property
		removed  int64
	)

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		properties := s.propertyRepository.WithTx(tx)

		var err error
		property, err = properties.ByID(ctx, req.PropertyID)
		if err != nil {
			return err
		}

		i := validation.IndexCategory(property.Categories, req.CategoryName)
		if i < 0 {
			return ErrCategoryNotFound
		}
		stored := property.Categories[i]

		property.Categories = append(property.Categories[:i:i], property.Categories[i+1:]...)
		if err := properties.UpdateCategories(ctx, property.ID, property.Categories); err != nil {
			return err
		}

		removed, err = s.categoryDetailRepository.WithTx(tx).DeleteByCategory(ctx, property.ID, stored)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("category deleted", "property_id", req.PropertyID, "category", req.CategoryName, "details", removed)
	return property, nil
}

// Details lists vendor details, optionally limited to one category.
func (s *CategoryService) Details(ctx context.Context, creds Credentials, propertyID int64, category string) ([]*model.CategoryDetail, error) {
	_, property, err := s.authService.Guard(ctx, creds, propertyID)
	if err != nil {
		return nil, err
	}

	if category != "" {
		i := validation.IndexCategory(property.Categories, category)
		if i < 0 {
			return nil, ErrCategoryNotFound
		}
		category = property.Categories[i]
	}

	return s.categoryDetailRepository.Details(ctx, propertyID, category)
}

// canonicalCategory returns the stored spelling of name on the property.
func canonicalCategory(property *model.Property, name string) (string, error) {
	i := validation.IndexCategory(property.Categories, name)
	if i < 0 {
		return "", ErrCategoryNotFound
	}
	return property.Categories[i], nil
}

func (r DetailRequest) toModel(category string) *model.CategoryDetail {
	return &model.CategoryDetail{
		PropertyID:        r.PropertyID,
		CategoryName:      category,
		DetailName:        strings.TrimSpace(r.DetailName),
		DetailURL:         strings.TrimSpace(r.DetailURL),
		DetailDescription: r.DetailDescription,
		DetailLogoURL:     r.DetailLogoURL,
		DetailUsername:    r.DetailUsername,
		DetailPassword:    r.DetailPassword,
		CreatedAt:         time.Now().UTC(),
	}
}

func (s *CategoryService) AddDetail(ctx context.Context, req DetailRequest) (*model.CategoryDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	_, property, err := s.authService.Guard(ctx, req.Credentials, req.PropertyID)
	if err != nil {
		return nil, err
	}

	category, err := canonicalCategory(property, req.CategoryName)
	if err != nil {
		return nil, err
	}

	detail := req.toModel(category)
	if err := s.categoryDetailRepository.Create(ctx, detail); err != nil {
		return nil, fmt.Errorf("failed to create detail: %w", err)
	}

	slog.Info("detail added", "property_id", detail.PropertyID, "detail_id", detail.ID, "category", category)
	return detail, nil
}

// UpdateDetail overwrites every field of a detail, its timestamp included.
func (s *CategoryService) UpdateDetail(ctx context.Context, req UpdateDetailRequest) (*model.CategoryDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	_, property, err := s.authService.Guard(ctx, req.Credentials, req.PropertyID)
	if err != nil {
		return nil, err
	}

	category, err := canonicalCategory(property, req.CategoryName)
	if err != nil {
		return nil, err
	}

	detail := req.toModel(category)
	detail.ID = req.DetailID

	if err := s.categoryDetailRepository.Update(ctx, detail); err != nil {
		return nil, err
	}

	slog.Info("detail updated", "property_id", detail.PropertyID, "detail_id", detail.ID)
	return detail, nil
}

func (s *CategoryService) DeleteDetail(ctx context.Context, req DeleteDetailRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if _, _, err := s.authService.Guard(ctx, req.Credentials, req.PropertyID); err != nil {
		return err
	}

	if err := s.categoryDetailRepository.Delete(ctx, req.PropertyID, req.DetailID); err != nil {
		return err
	}

	slog.Info("detail deleted", "property_id", req.PropertyID, "detail_id", req.DetailID)
	return nil
}
