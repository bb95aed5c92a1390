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
type UpdateCompanyRequest struct {
	Name            string `json:"name" binding:"required"`
	Currency        string `json:"currency"`
	TaxID           string `json:"tax_id" binding:"required"`
	InvoicePrefix   string `json:"invoice_prefix" binding:"required"`
	SoftwareID      string `json:"software_id"`
	EnvironmentFlag string `json:"environment_flag" binding:"omitempty,oneof=1 2"`
	PIN             string `json:"pin"`
}

type CompanyResponse struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Currency              string `json:"currency"`
	TaxID                 string `json:"tax_id"`
	InvoicePrefix         string `json:"invoice_prefix"`
	CurrentSequenceNumber int64  `json:"current_sequence_number"`
	SoftwareID            string `json:"software_id"`
	EnvironmentFlag       string `json:"environment_flag"`
}

// CompanyService maintains the tenant's fiscal profile. The invoice sequence
// is intentionally read-only here: it only moves through sale posting.
type CompanyService interface {
	GetCompany(ctx context.Context, companyID string) (*CompanyResponse, error)
	UpdateCompany(ctx context.Context, companyID, userID string, req UpdateCompanyRequest) (*CompanyResponse, error)
}

type companyService struct {
	companyRepo repository.CompanyRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewCompanyService(
	companyRepo repository.CompanyRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CompanyService {
	return &companyService{
		companyRepo: companyRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func (s *companyService) GetCompany(ctx context.Context, companyID string) (*CompanyResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}

	company, err := s.companyRepo.FindByID(ctx, cid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "company not found")
		}
		return nil, fmt.Errorf("find company: %w", err)
	}
	return mapCompanyToResponse(company), nil
}

func (s *companyService) UpdateCompany(ctx context.Context, companyID, userID string, req UpdateCompanyRequest) (*CompanyResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}

	company, err := s.companyRepo.FindByID(ctx, cid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "company not found")
		}
		return nil, fmt.Errorf("find company: %w", err)
	}

	company.Name = req.Name
	company.TaxID = req.TaxID
	company.InvoicePrefix = req.InvoicePrefix
	company.SoftwareID = req.SoftwareID
	if req.Currency != "" {
		company.Currency = req.Currency
	}
	if req.EnvironmentFlag != "" {
		company.EnvironmentFlag = req.EnvironmentFlag
	}
	if req.PIN != "" {
		company.PIN = req.PIN
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.companyRepo.Update(txCtx, company); err != nil {
			return fmt.Errorf("failed to update company: %w", err)
		}

		var uid *uuid.UUID
		if parsed, err := uuid.Parse(userID); err == nil {
			uid = &parsed
		}

		// PIN is a secret, never audit it
		details, _ := json.Marshal(map[string]interface{}{
			"name":             req.Name,
			"tax_id":           req.TaxID,
			"invoice_prefix":   req.InvoicePrefix,
			"software_id":      req.SoftwareID,
			"environment_flag": req.EnvironmentFlag,
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionUpdateCompany,
			EntityID:   company.ID.String(),
			EntityName: company.Name,
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

	return mapCompanyToResponse(company), nil
}

func mapCompanyToResponse(c *model.Company) *CompanyResponse {
	return &CompanyResponse{
		ID:                    c.ID.String(),
		Name:                  c.Name,
		Currency:              c.Currency,
		TaxID:                 c.TaxID,
		InvoicePrefix:         c.InvoicePrefix,
		CurrentSequenceNumber: c.CurrentSequenceNumber,
		SoftwareID:            c.SoftwareID,
		EnvironmentFlag:       c.EnvironmentFlag,
	}
}
