package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductRequest struct {
	SKU           string          `json:"sku" binding:"required"`
	Name          string          `json:"name" binding:"required"`
	Price         decimal.Decimal `json:"price"`
	Weight        decimal.Decimal `json:"weight"` // kg
	TaxCategoryID string          `json:"tax_category_id"`
	HSNCode       string          `json:"hsn_code"`
	IsDigital     bool            `json:"is_digital"`
	IsService     bool            `json:"is_service"`
}

type UpdateProductRequest struct {
	Name          *string          `json:"name"`
	Price         *decimal.Decimal `json:"price"`
	Weight        *decimal.Decimal `json:"weight"`
	TaxCategoryID *string          `json:"tax_category_id"` // empty string clears the category
	HSNCode       *string          `json:"hsn_code"`
	IsDigital     *bool            `json:"is_digital"`
	IsService     *bool            `json:"is_service"`
	IsActive      *bool            `json:"is_active"`
}

// --- Interface ---

type ProductService interface {
	Create(ctx context.Context, req CreateProductRequest, userID string) (*model.Product, error)
	Update(ctx context.Context, id string, req UpdateProductRequest, userID string) (*model.Product, error)
	Delete(ctx context.Context, id string, userID string) error
	Get(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.TaxCategoryRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.TaxCategoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

// --- CRUD ---

func (s *productService) Create(ctx context.Context, req CreateProductRequest, userID string) (*model.Product, error) {
	if req.Price.IsNegative() || req.Weight.IsNegative() {
		return nil, fmt.Errorf("price and weight must not be negative")
	}
	if existing, err := s.productRepo.FindBySKU(ctx, req.SKU); err == nil && existing != nil {
		return nil, fmt.Errorf("a product with SKU '%s' already exists", req.SKU)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check SKU: %w", err)
	}

	categoryID, err := s.resolveCategory(ctx, req.TaxCategoryID)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		SKU:           req.SKU,
		Name:          req.Name,
		Price:         req.Price,
		Weight:        req.Weight,
		TaxCategoryID: categoryID,
		HSNCode:       req.HSNCode,
		IsDigital:     req.IsDigital,
		IsService:     req.IsService,
		IsActive:      true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateProduct, product.ID.String(), product.SKU, req)
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

func (s *productService) Update(ctx context.Context, id string, req UpdateProductRequest, userID string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found")
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		product.Name = *req.Name
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("price must not be negative")
		}
		product.Price = *req.Price
	}
	if req.Weight != nil {
		if req.Weight.IsNegative() {
			return nil, fmt.Errorf("weight must not be negative")
		}
		product.Weight = *req.Weight
	}
	if req.TaxCategoryID != nil {
		categoryID, err := s.resolveCategory(ctx, *req.TaxCategoryID)
		if err != nil {
			return nil, err
		}
		product.TaxCategoryID = categoryID
		product.TaxCategory = nil
	}
	if req.HSNCode != nil {
		product.HSNCode = *req.HSNCode
	}
	if req.IsDigital != nil {
		product.IsDigital = *req.IsDigital
	}
	if req.IsService != nil {
		product.IsService = *req.IsService
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionUpdateProduct, product.ID.String(), product.SKU, req)
	})
	if err != nil {
		return nil, err
	}

	return s.productRepo.FindByID(ctx, productID)
}

func (s *productService) Delete(ctx context.Context, id string, userID string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product not found")
		}
		return fmt.Errorf("failed to fetch product: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Delete(txCtx, productID); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionDeleteProduct, id, product.SKU, map[string]string{"deleted_id": id})
	})
}

func (s *productService) Get(ctx context.Context, id string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid product id")
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found")
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	return s.productRepo.List(ctx, page, limit, search)
}

// resolveCategory validates an optional tax category reference
func (s *productService) resolveCategory(ctx context.Context, id string) (*uuid.UUID, error) {
	if id == "" {
		return nil, nil
	}
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid tax category id")
	}
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tax category not found")
		}
		return nil, fmt.Errorf("failed to fetch tax category: %w", err)
	}
	return &categoryID, nil
}

func (s *productService) writeAudit(ctx context.Context, userID, action, entityID, entityName string, details interface{}) error {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	if uid, err := uuid.Parse(userID); err == nil {
		entry.UserID = &uid
	}
	return s.auditRepo.Log(ctx, &entry)
}
