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
type CreateClientRequest struct {
	Name            string `json:"name" binding:"required"`
	DocumentType    string `json:"document_type" binding:"omitempty,oneof=13 31 41"`
	DocumentNumber  string `json:"document_number" binding:"required"`
	PersonType      string `json:"person_type" binding:"omitempty,oneof=NATURAL LEGAL"`
	IsLargeTaxpayer bool   `json:"is_large_taxpayer"`
	Phone           string `json:"phone"`
	Email           string `json:"email" binding:"omitempty,email"`
	Address         string `json:"address"`
}

type UpdateClientRequest struct {
	Name            string `json:"name" binding:"required"`
	DocumentType    string `json:"document_type" binding:"omitempty,oneof=13 31 41"`
	DocumentNumber  string `json:"document_number" binding:"required"`
	PersonType      string `json:"person_type" binding:"omitempty,oneof=NATURAL LEGAL"`
	IsLargeTaxpayer bool   `json:"is_large_taxpayer"`
	Phone           string `json:"phone"`
	Email           string `json:"email" binding:"omitempty,email"`
	Address         string `json:"address"`
	IsActive        *bool  `json:"is_active"`
}

type ClientResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DocumentType    string `json:"document_type"`
	DocumentNumber  string `json:"document_number"`
	PersonType      string `json:"person_type"`
	IsLargeTaxpayer bool   `json:"is_large_taxpayer"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	Address         string `json:"address,omitempty"`
	IsActive        bool   `json:"is_active"`
}

type ClientService interface {
	GetClients(ctx context.Context, companyID string, page, limit int, search string) ([]ClientResponse, int64, error)
	GetClient(ctx context.Context, companyID, id string) (*ClientResponse, error)
	CreateClient(ctx context.Context, companyID, userID string, req CreateClientRequest) (*ClientResponse, error)
	UpdateClient(ctx context.Context, companyID, userID, id string, req UpdateClientRequest) (*ClientResponse, error)
	DeleteClient(ctx context.Context, companyID, userID, id string) error
}

type clientService struct {
	clientRepo repository.ClientRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewClientService(
	clientRepo repository.ClientRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ClientService {
	return &clientService{
		clientRepo: clientRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
	}
}

func (s *clientService) GetClients(ctx context.Context, companyID string, page, limit int, search string) ([]ClientResponse, int64, error) {
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

	clients, total, err := s.clientRepo.List(ctx, cid, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		res = append(res, *mapClientToResponse(&clients[i]))
	}
	return res, total, nil
}

func (s *clientService) GetClient(ctx context.Context, companyID, id string) (*ClientResponse, error) {
	client, err := s.findScoped(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return mapClientToResponse(client), nil
}

func (s *clientService) CreateClient(ctx context.Context, companyID, userID string, req CreateClientRequest) (*ClientResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}

	client := model.Client{
		CompanyID:       cid,
		Name:            req.Name,
		DocumentType:    req.DocumentType,
		DocumentNumber:  req.DocumentNumber,
		PersonType:      req.PersonType,
		IsLargeTaxpayer: req.IsLargeTaxpayer,
		Phone:           req.Phone,
		Email:           req.Email,
		Address:         req.Address,
		IsActive:        true,
	}
	if client.DocumentType == "" {
		client.DocumentType = model.DocTypeNationalID
	}
	if client.PersonType == "" {
		client.PersonType = model.PersonTypeNatural
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.clientRepo.Create(txCtx, &client); err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}
		return s.logAction(txCtx, userID, model.ActionCreateClient, &client, req)
	})
	if err != nil {
		return nil, err
	}

	return mapClientToResponse(&client), nil
}

func (s *clientService) UpdateClient(ctx context.Context, companyID, userID, id string, req UpdateClientRequest) (*ClientResponse, error) {
	client, err := s.findScoped(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	client.Name = req.Name
	client.DocumentNumber = req.DocumentNumber
	client.Phone = req.Phone
	client.Email = req.Email
	client.Address = req.Address
	client.IsLargeTaxpayer = req.IsLargeTaxpayer
	if req.DocumentType != "" {
		client.DocumentType = req.DocumentType
	}
	if req.PersonType != "" {
		client.PersonType = req.PersonType
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.clientRepo.Update(txCtx, client); err != nil {
			return fmt.Errorf("failed to update client: %w", err)
		}
		return s.logAction(txCtx, userID, model.ActionUpdateClient, client, req)
	})
	if err != nil {
		return nil, err
	}

	return mapClientToResponse(client), nil
}

func (s *clientService) DeleteClient(ctx context.Context, companyID, userID, id string) error {
	client, err := s.findScoped(ctx, companyID, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.clientRepo.Delete(txCtx, client.ID); err != nil {
			return fmt.Errorf("failed to delete client: %w", err)
		}
		return s.logAction(txCtx, userID, model.ActionDeleteClient, client, map[string]bool{"deleted": true})
	})
}

func (s *clientService) findScoped(ctx context.Context, companyID, id string) (*model.Client, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}
	clientID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid client id")
	}

	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "client not found")
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	if client.CompanyID != cid {
		return nil, apperr.New(apperr.CodeNotFound, "client not found")
	}
	return client, nil
}

func (s *clientService) logAction(ctx context.Context, userID, action string, client *model.Client, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	details, _ := json.Marshal(payload)
	audit := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   client.ID.String(),
		EntityName: client.Name,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func mapClientToResponse(c *model.Client) *ClientResponse {
	return &ClientResponse{
		ID:              c.ID.String(),
		Name:            c.Name,
		DocumentType:    c.DocumentType,
		DocumentNumber:  c.DocumentNumber,
		PersonType:      c.PersonType,
		IsLargeTaxpayer: c.IsLargeTaxpayer,
		Phone:           c.Phone,
		Email:           c.Email,
		Address:         c.Address,
		IsActive:        c.IsActive,
	}
}
