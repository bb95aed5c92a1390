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
	"gorm.io/gorm"
)

// ApplyMovementInput is the single entry point for stock mutation. Quantity is
// signed: positive adds stock, negative removes it.
type ApplyMovementInput struct {
	ProductID   uuid.UUID
	Quantity    int
	ReasonCode  string
	ReferenceID *uuid.UUID
	Notes       string
	ActorID     *uuid.UUID
}

// MovementResult reports the stock transition and whether the product ended
// at or below its reorder minimum.
type MovementResult struct {
	MovementID     uuid.UUID
	ProductID      uuid.UUID
	ProductName    string
	StockBefore    int
	StockAfter     int
	ReorderMinimum int
	LowStock       bool
}

// DTOs
type AdjustStockRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Notes     string `json:"notes" binding:"required"`
}

type MovementResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Kind        string `json:"kind"`
	Quantity    int    `json:"quantity"`
	StockBefore int    `json:"stock_before"`
	StockAfter  int    `json:"stock_after"`
	ReasonCode  string `json:"reason_code"`
	ReferenceID string `json:"reference_id,omitempty"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// Websocket payload emitted when a tracked product crosses its reorder minimum
type StockAlertEvent struct {
	Event       string `json:"event"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	StockAfter  int    `json:"stock_after"`
	Minimum     int    `json:"minimum"`
}

// LedgerService owns the inventory movement ledger. ApplyMovement must run
// inside the caller's transaction; AdjustStock opens its own.
type LedgerService interface {
	ApplyMovement(ctx context.Context, in ApplyMovementInput) (MovementResult, error)
	AdjustStock(ctx context.Context, companyID, userID string, req AdjustStockRequest) (MovementResult, error)
	GetMovements(ctx context.Context, productID string, page, limit int) ([]MovementResponse, int64, error)
}

type ledgerService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	notifier     StockNotifier
}

// StockNotifier pushes stock alerts out to connected clients. Implemented by
// the websocket hub; callers fire it only after their transaction commits.
type StockNotifier interface {
	NotifyStockAlert(event StockAlertEvent)
}

func NewLedgerService(
	productRepo repository.ProductRepository,
	movementRepo repository.MovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier StockNotifier,
) LedgerService {
	return &ledgerService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		notifier:     notifier,
	}
}

// ApplyMovement locks the product row, validates the transition, updates the
// denormalized stock and appends the ledger row. It never opens a transaction
// itself: sale and purchase posting call it mid-transaction so the stock
// guard and the business rows commit or roll back together.
func (s *ledgerService) ApplyMovement(ctx context.Context, in ApplyMovementInput) (MovementResult, error) {
	if in.Quantity == 0 {
		return MovementResult{}, apperr.New(apperr.CodeValidation, "movement quantity must be non-zero")
	}

	product, err := s.productRepo.FindByIDForUpdate(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MovementResult{}, apperr.New(apperr.CodeNotFound, "product not found: %s", in.ProductID)
		}
		return MovementResult{}, fmt.Errorf("lock product %s: %w", in.ProductID, err)
	}

	if !product.TracksStock {
		return MovementResult{}, apperr.New(apperr.CodeValidation, "product %s does not track stock", product.SKU)
	}

	before := product.StockOnHand
	after := before + in.Quantity
	if after < 0 {
		return MovementResult{}, apperr.New(apperr.CodeInsufficientStock,
			"insufficient stock for %s: have %d, need %d", product.SKU, before, -in.Quantity).
			WithDetail("product_id", product.ID.String()).
			WithDetail("stock_on_hand", before).
			WithDetail("requested", -in.Quantity)
	}

	if err := s.productRepo.UpdateStock(ctx, product.ID, after); err != nil {
		return MovementResult{}, fmt.Errorf("update stock for %s: %w", product.SKU, err)
	}

	kind := model.MovementIn
	magnitude := in.Quantity
	if in.Quantity < 0 {
		kind = model.MovementOut
		magnitude = -in.Quantity
	}

	movement := &model.InventoryMovement{
		CompanyID:   product.CompanyID,
		ProductID:   product.ID,
		Kind:        kind,
		Quantity:    magnitude,
		StockBefore: before,
		StockAfter:  after,
		ReasonCode:  in.ReasonCode,
		ReferenceID: in.ReferenceID,
		Notes:       in.Notes,
		ActorID:     in.ActorID,
	}
	if err := s.movementRepo.Create(ctx, movement); err != nil {
		return MovementResult{}, fmt.Errorf("append movement for %s: %w", product.SKU, err)
	}

	return MovementResult{
		MovementID:     movement.ID,
		ProductID:      product.ID,
		ProductName:    product.Name,
		StockBefore:    before,
		StockAfter:     after,
		ReorderMinimum: product.ReorderMinimum,
		LowStock:       after <= product.ReorderMinimum,
	}, nil
}

func (s *ledgerService) AdjustStock(ctx context.Context, companyID, userID string, req AdjustStockRequest) (MovementResult, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return MovementResult{}, apperr.New(apperr.CodeValidation, "invalid product id")
	}
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return MovementResult{}, apperr.New(apperr.CodeValidation, "invalid company id")
	}

	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	var result MovementResult
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByID(txCtx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.CodeNotFound, "product not found")
			}
			return fmt.Errorf("find product: %w", err)
		}
		if product.CompanyID != cid {
			return apperr.New(apperr.CodeNotFound, "product not found")
		}

		result, err = s.ApplyMovement(txCtx, ApplyMovementInput{
			ProductID:  productID,
			Quantity:   req.Quantity,
			ReasonCode: model.ReasonManualAdjustment,
			Notes:      req.Notes,
			ActorID:    uid,
		})
		if err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]interface{}{
			"quantity":     req.Quantity,
			"stock_before": result.StockBefore,
			"stock_after":  result.StockAfter,
			"notes":        req.Notes,
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionAdjustStock,
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
		return MovementResult{}, err
	}

	s.notifyIfLow(result)
	return result, nil
}

func (s *ledgerService) GetMovements(ctx context.Context, productID string, page, limit int) ([]MovementResponse, int64, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, 0, apperr.New(apperr.CodeValidation, "invalid product id")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	movements, total, err := s.movementRepo.ListByProduct(ctx, pid, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		mr := MovementResponse{
			ID:          m.ID.String(),
			ProductID:   m.ProductID.String(),
			Kind:        m.Kind,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			ReasonCode:  m.ReasonCode,
			Notes:       m.Notes,
			CreatedAt:   m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if m.ReferenceID != nil {
			mr.ReferenceID = m.ReferenceID.String()
		}
		res = append(res, mr)
	}
	return res, total, nil
}

// notifyIfLow pushes a stock alert when the movement left the product at or
// below its reorder minimum. Called after commit only.
func (s *ledgerService) notifyIfLow(result MovementResult) {
	if s.notifier == nil || !result.LowStock {
		return
	}
	s.notifier.NotifyStockAlert(StockAlertEvent{
		Event:       "stock_alert",
		ProductID:   result.ProductID.String(),
		ProductName: result.ProductName,
		StockAfter:  result.StockAfter,
		Minimum:     result.ReorderMinimum,
	})
}
