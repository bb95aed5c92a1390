package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	SKU            string          `json:"sku" binding:"required"`
	Name           string          `json:"name" binding:"required"`
	ReorderMinimum int             `json:"reorder_minimum" binding:"min=0"`
	TracksStock    *bool           `json:"tracks_stock"`
	PurchaseCost   decimal.Decimal `json:"purchase_cost"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
}

type UpdateProductRequest struct {
	SKU            string          `json:"sku" binding:"required"`
	Name           string          `json:"name" binding:"required"`
	ReorderMinimum int             `json:"reorder_minimum" binding:"min=0"`
	PurchaseCost   decimal.Decimal `json:"purchase_cost"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
}

type ProductResponse struct {
	ID             string          `json:"id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	StockOnHand    int             `json:"stock_on_hand"`
	ReorderMinimum int             `json:"reorder_minimum"`
	TracksStock    bool            `json:"tracks_stock"`
	PurchaseCost   decimal.Decimal `json:"purchase_cost"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
}

// ProductService covers catalog maintenance. Stock is read-only here: every
// mutation goes through the ledger.
type ProductService interface {
	GetProducts(ctx context.Context, companyID string, page, limit int, search string) ([]ProductResponse, int64, error)
	GetProduct(ctx context.Context, companyID, id string) (*ProductResponse, error)
	CreateProduct(ctx context.Context, companyID, userID string, req CreateProductRequest) (*ProductResponse, error)
	UpdateProduct(ctx context.Context, companyID, userID, id string, req UpdateProductRequest) (*ProductResponse, error)
	DeleteProduct(ctx context.Context, companyID, userID, id string) error
}

type productService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewProductService(
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ProductService {
	return &productService{
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func (s *productService) GetProducts(ctx context.Context, companyID string, page, limit int, search string) ([]ProductResponse, int64, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, 0, apperr.New(apperr.CodeValidation, "invalid company id")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, cid, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, *mapProductToResponse(&products[i]))
	}
	return res, total, nil
}

func (s *productService) GetProduct(ctx context.Context, companyID, id string) (*ProductResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "product not found")
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	if product.CompanyID != cid {
		return nil, apperr.New(apperr.CodeNotFound, "product not found")
	}
	return mapProductToResponse(product), nil
}

func (s *productService) CreateProduct(ctx context.Context, companyID, userID string, req CreateProductRequest) (*ProductResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}

	tracksStock := true
	if req.TracksStock != nil {
		tracksStock = *req.TracksStock
	}

	product := model.Product{
		CompanyID:      cid,
		SKU:            req.SKU,
		Name:           req.Name,
		StockOnHand:    0,
		ReorderMinimum: req.ReorderMinimum,
		TracksStock:    tracksStock,
		PurchaseCost:   req.PurchaseCost,
		RetailPrice:    req.RetailPrice,
		WholesalePrice: req.WholesalePrice,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.productRepo.FindBySKU(txCtx, cid, req.SKU); err == nil {
			return apperr.New(apperr.CodeValidation, "sku already exists: %s", req.SKU)
		}
		if err := s.productRepo.Create(txCtx, &product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		var uid *uuid.UUID
		if parsed, err := uuid.Parse(userID); err == nil {
			uid = &parsed
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionCreateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapProductToResponse(&product), nil
}

func (s *productService) UpdateProduct(ctx context.Context, companyID, userID, id string, req UpdateProductRequest) (*ProductResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "product not found")
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	if product.CompanyID != cid {
		return nil, apperr.New(apperr.CodeNotFound, "product not found")
	}

	product.SKU = req.SKU
	product.Name = req.Name
	product.ReorderMinimum = req.ReorderMinimum
	product.PurchaseCost = req.PurchaseCost
	product.RetailPrice = req.RetailPrice
	product.WholesalePrice = req.WholesalePrice

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		var uid *uuid.UUID
		if parsed, err := uuid.Parse(userID); err == nil {
			uid = &parsed
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionUpdateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapProductToResponse(product), nil
}

func (s *productService) DeleteProduct(ctx context.Context, companyID, userID, id string) error {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return apperr.New(apperr.CodeValidation, "invalid company id")
	}
	productID, err := uuid.Parse(id)
	if err != nil {
		return apperr.New(apperr.CodeValidation, "invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.CodeNotFound, "product not found")
		}
		return fmt.Errorf("find product: %w", err)
	}
	if product.CompanyID != cid {
		return apperr.New(apperr.CodeNotFound, "product not found")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Delete(txCtx, productID); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}

		var uid *uuid.UUID
		if parsed, err := uuid.Parse(userID); err == nil {
			uid = &parsed
		}

		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionDeleteProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    `{"deleted": true}`,
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
}

func mapProductToResponse(p *model.Product) *ProductResponse {
	return &ProductResponse{
		ID:             p.ID.String(),
		SKU:            p.SKU,
		Name:           p.Name,
		StockOnHand:    p.StockOnHand,
		ReorderMinimum: p.ReorderMinimum,
		TracksStock:    p.TracksStock,
		PurchaseCost:   p.PurchaseCost,
		RetailPrice:    p.RetailPrice,
		WholesalePrice: p.WholesalePrice,
	}
}
