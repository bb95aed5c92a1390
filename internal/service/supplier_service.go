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

// DTOs
type CreateSupplierRequest struct {
	Name           string `json:"name" binding:"required"`
	DocumentNumber string `json:"document_number"`
	ContactPerson  string `json:"contact_person"`
	Phone          string `json:"phone"`
	Email          string `json:"email" binding:"omitempty,email"`
	Address        string `json:"address"`
}

type UpdateSupplierRequest struct {
	Name           string `json:"name" binding:"required"`
	DocumentNumber string `json:"document_number"`
	ContactPerson  string `json:"contact_person"`
	Phone          string `json:"phone"`
	Email          string `json:"email" binding:"omitempty,email"`
	Address        string `json:"address"`
	IsActive       *bool  `json:"is_active"`
}

type SupplierResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	DocumentNumber string `json:"document_number,omitempty"`
	ContactPerson  string `json:"contact_person,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Address        string `json:"address,omitempty"`
	IsActive       bool   `json:"is_active"`
}

type SupplierService interface {
	GetSuppliers(ctx context.Context, companyID string, page, limit int, search string) ([]SupplierResponse, int64, error)
	GetSupplier(ctx context.Context, companyID, id string) (*SupplierResponse, error)
	CreateSupplier(ctx context.Context, companyID, userID string, req CreateSupplierRequest) (*SupplierResponse, error)
	UpdateSupplier(ctx context.Context, companyID, userID, id string, req UpdateSupplierRequest) (*SupplierResponse, error)
	DeleteSupplier(ctx context.Context, companyID, userID, id string) error
}

type supplierService struct {
	supplierRepo repository.SupplierRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewSupplierService(
	supplierRepo repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) SupplierService {
	return &supplierService{
		supplierRepo: supplierRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func (s *supplierService) GetSuppliers(ctx context.Context, companyID string, page, limit int, search string) ([]SupplierResponse, int64, error) {
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

	suppliers, total, err := s.supplierRepo.List(ctx, cid, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]SupplierResponse, 0, len(suppliers))
	for i := range suppliers {
		res = append(res, *mapSupplierToResponse(&suppliers[i]))
	}
	return res, total, nil
}

func (s *supplierService) GetSupplier(ctx context.Context, companyID, id string) (*SupplierResponse, error) {
	supplier, err := s.findScoped(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return mapSupplierToResponse(supplier), nil
}

func (s *supplierService) CreateSupplier(ctx context.Context, companyID, userID string, req CreateSupplierRequest) (*SupplierResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}

	supplier := model.Supplier{
		CompanyID:      cid,
		Name:           req.Name,
		DocumentNumber: req.DocumentNumber,
		ContactPerson:  req.ContactPerson,
		Phone:          req.Phone,
		Email:          req.Email,
		Address:        req.Address,
		IsActive:       true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Create(txCtx, &supplier); err != nil {
			return fmt.Errorf("failed to create supplier: %w", err)
		}
		return s.logAction(txCtx, userID, model.ActionCreateSupplier, &supplier, req)
	})
	if err != nil {
		return nil, err
	}

	return mapSupplierToResponse(&supplier), nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, companyID, userID, id string, req UpdateSupplierRequest) (*SupplierResponse, error) {
	supplier, err := s.findScoped(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	supplier.Name = req.Name
	supplier.DocumentNumber = req.DocumentNumber
	supplier.ContactPerson = req.ContactPerson
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Update(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to update supplier: %w", err)
		}
		return s.logAction(txCtx, userID, model.ActionUpdateSupplier, supplier, req)
	})
	if err != nil {
		return nil, err
	}

	return mapSupplierToResponse(supplier), nil
}

func (s *supplierService) DeleteSupplier(ctx context.Context, companyID, userID, id string) error {
	supplier, err := s.findScoped(ctx, companyID, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Delete(txCtx, supplier.ID); err != nil {
			return fmt.Errorf("failed to delete supplier: %w", err)
		}
		return s.logAction(txCtx, userID, model.ActionDeleteSupplier, supplier, map[string]bool{"deleted": true})
	})
}

func (s *supplierService) findScoped(ctx context.Context, companyID, id string) (*model.Supplier, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid supplier id")
	}

	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "supplier not found")
		}
		return nil, fmt.Errorf("find supplier: %w", err)
	}
	if supplier.CompanyID != cid {
		return nil, apperr.New(apperr.CodeNotFound, "supplier not found")
	}
	return supplier, nil
}

func (s *supplierService) logAction(ctx context.Context, userID, action string, supplier *model.Supplier, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	details, _ := json.Marshal(payload)
	audit := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   supplier.ID.String(),
		EntityName: supplier.Name,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func mapSupplierToResponse(sp *model.Supplier) *SupplierResponse {
	return &SupplierResponse{
		ID:             sp.ID.String(),
		Name:           sp.Name,
		DocumentNumber: sp.DocumentNumber,
		ContactPerson:  sp.ContactPerson,
		Phone:          sp.Phone,
		Email:          sp.Email,
		Address:        sp.Address,
		IsActive:       sp.IsActive,
	}
}
