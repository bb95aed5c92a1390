package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type PurchaseLineRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost" binding:"required"`
}

type CreatePurchaseRequest struct {
	SupplierID string                `json:"supplier_id" binding:"required"`
	Reference  string                `json:"reference"`
	Notes      string                `json:"notes"`
	Lines      []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type VoidPurchaseRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type PurchaseLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type PurchaseResponse struct {
	ID           string                 `json:"id"`
	SupplierID   string                 `json:"supplier_id"`
	SupplierName string                 `json:"supplier_name,omitempty"`
	Reference    string                 `json:"reference,omitempty"`
	Status       string                 `json:"status"`
	Total        decimal.Decimal        `json:"total"`
	Notes        string                 `json:"notes,omitempty"`
	ReceivedAt   string                 `json:"received_at,omitempty"`
	Lines        []PurchaseLineResponse `json:"lines"`
	CreatedAt    string                 `json:"created_at"`
}

// PurchaseService manages inbound stock. A purchase is created PENDING and
// moves stock only when received; only PENDING purchases can be voided.
type PurchaseService interface {
	CreatePurchase(ctx context.Context, companyID, userID string, req CreatePurchaseRequest) (*PurchaseResponse, error)
	ReceivePurchase(ctx context.Context, companyID, userID, purchaseID string) (*PurchaseResponse, error)
	VoidPurchase(ctx context.Context, companyID, userID, purchaseID string, req VoidPurchaseRequest) (*PurchaseResponse, error)
	GetPurchase(ctx context.Context, companyID, purchaseID string) (*PurchaseResponse, error)
	ListPurchases(ctx context.Context, companyID, status string, page, limit int) ([]PurchaseResponse, int64, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	ledger       LedgerService
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	now          func() time.Time
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
	ledger LedgerService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) PurchaseService {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		ledger:       ledger,
		auditRepo:    auditRepo,
		txManager:    txManager,
		now:          time.Now,
	}
}

func (s *purchaseService) CreatePurchase(ctx context.Context, companyID, userID string, req CreatePurchaseRequest) (*PurchaseResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid supplier id")
	}
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	var purchase model.Purchase
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		supplier, err := s.supplierRepo.FindByID(txCtx, supplierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.CodeNotFound, "supplier not found")
			}
			return fmt.Errorf("find supplier: %w", err)
		}
		if supplier.CompanyID != cid {
			return apperr.New(apperr.CodeNotFound, "supplier not found")
		}

		total := decimal.Zero
		lines := make([]model.PurchaseLine, 0, len(req.Lines))
		for _, lineReq := range req.Lines {
			pid, parseErr := uuid.Parse(lineReq.ProductID)
			if parseErr != nil {
				return apperr.New(apperr.CodeValidation, "invalid product id: %s", lineReq.ProductID)
			}
			product, findErr := s.productRepo.FindByID(txCtx, pid)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return apperr.New(apperr.CodeNotFound, "product not found: %s", lineReq.ProductID)
				}
				return fmt.Errorf("find product %s: %w", lineReq.ProductID, findErr)
			}
			if product.CompanyID != cid {
				return apperr.New(apperr.CodeNotFound, "product not found: %s", lineReq.ProductID)
			}
			if lineReq.UnitCost.IsNegative() {
				return apperr.New(apperr.CodeValidation, "negative unit cost on %s", product.SKU)
			}

			total = total.Add(lineReq.UnitCost.Mul(decimal.NewFromInt(int64(lineReq.Quantity))))
			lines = append(lines, model.PurchaseLine{
				ProductID: pid,
				Quantity:  lineReq.Quantity,
				UnitCost:  lineReq.UnitCost,
			})
		}

		purchase = model.Purchase{
			CompanyID:  cid,
			SupplierID: supplierID,
			Reference:  req.Reference,
			Status:     model.PurchaseStatusPending,
			Total:      total,
			Notes:      req.Notes,
		}
		if err := s.purchaseRepo.Create(txCtx, &purchase); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}

		for i := range lines {
			lines[i].PurchaseID = purchase.ID
			if err := s.purchaseRepo.CreateLine(txCtx, &lines[i]); err != nil {
				return fmt.Errorf("create purchase line: %w", err)
			}
		}
		purchase.Lines = lines

		details, _ := json.Marshal(map[string]interface{}{
			"supplier_id": supplierID.String(),
			"reference":   req.Reference,
			"total":       total.StringFixed(2),
			"lines":       len(lines),
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionCreatePurchase,
			EntityID:   purchase.ID.String(),
			EntityName: supplier.Name,
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

	return mapPurchaseToResponse(&purchase), nil
}

// ReceivePurchase moves a PENDING purchase to RECEIVED, adding each line's
// quantity to stock through the ledger. Receiving twice is rejected.
func (s *purchaseService) ReceivePurchase(ctx context.Context, companyID, userID, purchaseID string) (*PurchaseResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}
	pid, err := uuid.Parse(purchaseID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid purchase id")
	}
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	var purchase *model.Purchase
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		purchase, err = s.purchaseRepo.FindByIDWithLines(txCtx, pid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.CodeNotFound, "purchase not found")
			}
			return fmt.Errorf("find purchase: %w", err)
		}
		if purchase.CompanyID != cid {
			return apperr.New(apperr.CodeNotFound, "purchase not found")
		}
		if purchase.Status != model.PurchaseStatusPending {
			return apperr.New(apperr.CodeInvalidState, "purchase is %s, only PENDING can be received", purchase.Status)
		}

		for _, line := range purchase.Lines {
			product, findErr := s.productRepo.FindByID(txCtx, line.ProductID)
			if findErr != nil {
				return fmt.Errorf("find product %s: %w", line.ProductID, findErr)
			}
			if !product.TracksStock {
				continue
			}
			if _, err := s.ledger.ApplyMovement(txCtx, ApplyMovementInput{
				ProductID:   line.ProductID,
				Quantity:    line.Quantity,
				ReasonCode:  model.ReasonPurchase,
				ReferenceID: &purchase.ID,
				ActorID:     uid,
			}); err != nil {
				return err
			}
		}

		receivedAt := s.now()
		purchase.Status = model.PurchaseStatusReceived
		purchase.ReceivedAt = &receivedAt
		purchase.ReceivedByID = uid
		if err := s.purchaseRepo.Update(txCtx, purchase); err != nil {
			return fmt.Errorf("update purchase: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"reference": purchase.Reference,
			"lines":     len(purchase.Lines),
		})
		audit := &model.AuditLog{
			UserID:   uid,
			Action:   model.ActionReceivePurchase,
			EntityID: purchase.ID.String(),
			Details:  string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapPurchaseToResponse(purchase), nil
}

// VoidPurchase cancels a PENDING purchase. RECEIVED purchases already moved
// stock and can only be corrected through manual adjustments.
func (s *purchaseService) VoidPurchase(ctx context.Context, companyID, userID, purchaseID string, req VoidPurchaseRequest) (*PurchaseResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}
	pid, err := uuid.Parse(purchaseID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid purchase id")
	}
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	var purchase *model.Purchase
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		purchase, err = s.purchaseRepo.FindByIDWithLines(txCtx, pid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.CodeNotFound, "purchase not found")
			}
			return fmt.Errorf("find purchase: %w", err)
		}
		if purchase.CompanyID != cid {
			return apperr.New(apperr.CodeNotFound, "purchase not found")
		}
		if purchase.Status != model.PurchaseStatusPending {
			return apperr.New(apperr.CodeInvalidState, "purchase is %s, only PENDING can be voided", purchase.Status)
		}

		purchase.Status = model.PurchaseStatusVoid
		if purchase.Notes != "" {
			purchase.Notes += "\n"
		}
		purchase.Notes += fmt.Sprintf("VOID %s: %s", s.now().Format("2006-01-02 15:04:05"), req.Reason)
		if err := s.purchaseRepo.Update(txCtx, purchase); err != nil {
			return fmt.Errorf("update purchase: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"reference": purchase.Reference,
			"reason":    req.Reason,
		})
		audit := &model.AuditLog{
			UserID:   uid,
			Action:   model.ActionVoidPurchase,
			EntityID: purchase.ID.String(),
			Details:  string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapPurchaseToResponse(purchase), nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, companyID, purchaseID string) (*PurchaseResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}
	pid, err := uuid.Parse(purchaseID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid purchase id")
	}

	purchase, err := s.purchaseRepo.FindByIDWithLines(ctx, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "purchase not found")
		}
		return nil, fmt.Errorf("find purchase: %w", err)
	}
	if purchase.CompanyID != cid {
		return nil, apperr.New(apperr.CodeNotFound, "purchase not found")
	}

	return mapPurchaseToResponse(purchase), nil
}

func (s *purchaseService) ListPurchases(ctx context.Context, companyID, status string, page, limit int) ([]PurchaseResponse, int64, error) {
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

	purchases, total, err := s.purchaseRepo.List(ctx, cid, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		res = append(res, *mapPurchaseToResponse(&purchases[i]))
	}
	return res, total, nil
}

func mapPurchaseToResponse(purchase *model.Purchase) *PurchaseResponse {
	res := &PurchaseResponse{
		ID:         purchase.ID.String(),
		SupplierID: purchase.SupplierID.String(),
		Reference:  purchase.Reference,
		Status:     purchase.Status,
		Total:      purchase.Total,
		Notes:      purchase.Notes,
		CreatedAt:  purchase.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if purchase.Supplier != nil {
		res.SupplierName = purchase.Supplier.Name
	}
	if purchase.ReceivedAt != nil {
		res.ReceivedAt = purchase.ReceivedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	for _, line := range purchase.Lines {
		res.Lines = append(res.Lines, PurchaseLineResponse{
			ID:        line.ID.String(),
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
			UnitCost:  line.UnitCost,
		})
	}
	return res
}
