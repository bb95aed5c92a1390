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
	"backend/pkg/fiscal"
	"backend/pkg/numtext"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// paymentTolerance absorbs cent-level rounding between the cart and the
// tendered amounts. A shortfall larger than this rejects the sale.
var paymentTolerance = decimal.New(1, -2)

// DTOs
type SaleLineRequest struct {
	ProductID       string          `json:"product_id" binding:"required"`
	Quantity        int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice       decimal.Decimal `json:"unit_price" binding:"required"`
	Discount        decimal.Decimal `json:"discount"`
	FulfillmentMode string          `json:"fulfillment_mode" binding:"omitempty,oneof=IMMEDIATE BACKORDER"`
}

type SaleTaxRequest struct {
	TaxCode string          `json:"tax_code" binding:"required"`
	Base    decimal.Decimal `json:"base" binding:"required"`
	Rate    decimal.Decimal `json:"rate" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

type PaymentRequest struct {
	Method    string          `json:"method" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference"`
}

type IssueSaleRequest struct {
	ClientID string            `json:"client_id" binding:"required"`
	Lines    []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
	Taxes    []SaleTaxRequest  `json:"taxes" binding:"dive"`
	Payments []PaymentRequest  `json:"payments" binding:"dive"`
	Notes    string            `json:"notes"`
}

type VoidSaleRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type SaleLineResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Discount        decimal.Decimal `json:"discount"`
	LineSubtotal    decimal.Decimal `json:"line_subtotal"`
	FulfillmentMode string          `json:"fulfillment_mode"`
}

type SaleResponse struct {
	ID                 string             `json:"id"`
	InvoiceNumber      string             `json:"invoice_number"`
	Status             string             `json:"status"`
	ClientID           string             `json:"client_id"`
	ClientName         string             `json:"client_name,omitempty"`
	Subtotal           decimal.Decimal    `json:"subtotal"`
	Discount           decimal.Decimal    `json:"discount"`
	TaxAmount          decimal.Decimal    `json:"tax_amount"`
	WithholdingTotal   decimal.Decimal    `json:"withholding_total"`
	Total              decimal.Decimal    `json:"total"`
	Change             decimal.Decimal    `json:"change"`
	AuthenticationCode string             `json:"authentication_code"`
	ScannablePayload   string             `json:"scannable_payload"`
	AmountInWords      string             `json:"amount_in_words"`
	Notes              string             `json:"notes,omitempty"`
	Lines              []SaleLineResponse `json:"lines"`
	CreatedAt          string             `json:"created_at"`
}

// Websocket payload
type SalePostedEvent struct {
	Event         string `json:"event"`
	SaleID        string `json:"sale_id"`
	InvoiceNumber string `json:"invoice_number"`
	Total         string `json:"total"`
}

type SaleService interface {
	IssueSale(ctx context.Context, companyID, userID string, req IssueSaleRequest) (*SaleResponse, error)
	VoidSale(ctx context.Context, companyID, userID, saleID string, req VoidSaleRequest) (*SaleResponse, error)
	GetSale(ctx context.Context, companyID, saleID string) (*SaleResponse, error)
	ListSales(ctx context.Context, companyID, status, invoiceNumber string, page, limit int) ([]SaleResponse, int64, error)
}

// SaleEventNotifier pushes posting events to connected terminals.
type SaleEventNotifier interface {
	StockNotifier
	NotifySalePosted(event SalePostedEvent)
}

type saleService struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	clientRepo  repository.ClientRepository
	companyRepo repository.CompanyRepository
	ledger      LedgerService
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	notifier    SaleEventNotifier
	now         func() time.Time
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	clientRepo repository.ClientRepository,
	companyRepo repository.CompanyRepository,
	ledger LedgerService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier SaleEventNotifier,
) SaleService {
	return &saleService{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		clientRepo:  clientRepo,
		companyRepo: companyRepo,
		ledger:      ledger,
		auditRepo:   auditRepo,
		txManager:   txManager,
		notifier:    notifier,
		now:         time.Now,
	}
}

// IssueSale posts an invoice: it totals the cart, validates the tender,
// reserves the next invoice number, derives the withholdings and fiscal
// encodings, decrements stock for every IMMEDIATE line and records payments
// and the audit trail inside one transaction. Rejections that happen before
// the number is reserved never burn a sequence value.
func (s *saleService) IssueSale(ctx context.Context, companyID, userID string, req IssueSaleRequest) (*SaleResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid client id")
	}
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	var (
		sale       model.Sale
		change     decimal.Decimal
		lowStock   []MovementResult
		clientName string
	)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// 1. Resolve the counterparty
		client, err := s.clientRepo.FindByID(txCtx, clientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.CodeNotFound, "client not found")
			}
			return fmt.Errorf("find client: %w", err)
		}
		if client.CompanyID != cid {
			return apperr.New(apperr.CodeNotFound, "client not found")
		}
		clientName = client.Name

		// 2. Total the cart. Line subtotals stay gross (quantity × unit
		// price); discounts accumulate on the header and come off the total
		// exactly once.
		subtotal := decimal.Zero
		discount := decimal.Zero
		type pricedLine struct {
			req     SaleLineRequest
			product *model.Product
			gross   decimal.Decimal
			mode    string
		}
		priced := make([]pricedLine, 0, len(req.Lines))
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
			if lineReq.UnitPrice.IsNegative() || lineReq.Discount.IsNegative() {
				return apperr.New(apperr.CodeValidation, "negative price or discount on %s", product.SKU)
			}

			gross := lineReq.UnitPrice.Mul(decimal.NewFromInt(int64(lineReq.Quantity)))
			if lineReq.Discount.GreaterThan(gross) {
				return apperr.New(apperr.CodeValidation, "discount exceeds line amount on %s", product.SKU)
			}

			mode := lineReq.FulfillmentMode
			if mode == "" {
				mode = model.FulfillmentImmediate
			}

			subtotal = subtotal.Add(gross)
			discount = discount.Add(lineReq.Discount)
			priced = append(priced, pricedLine{req: lineReq, product: product, gross: gross, mode: mode})
		}

		// 3. Tax breakdown as supplied by the cart
		taxAmount := decimal.Zero
		for _, taxReq := range req.Taxes {
			if taxReq.Amount.IsNegative() {
				return apperr.New(apperr.CodeValidation, "negative tax amount for code %s", taxReq.TaxCode)
			}
			taxAmount = taxAmount.Add(taxReq.Amount)
		}
		grossTotal := subtotal.Add(taxAmount).Sub(discount)

		// 4. Withholdings and net payable
		w := fiscal.ComputeWithholdings(subtotal, taxAmount, grossTotal,
			client.IsLargeTaxpayer, client.PersonType == model.PersonTypeLegal)
		total := grossTotal.Sub(w.Total())

		// 5. Tender check. A sale with no tender rows posts on credit with
		// the full total outstanding; the coverage check only applies when
		// payments were supplied. Runs before the number reservation so a
		// rejected draft never burns a sequence value.
		if len(req.Payments) > 0 {
			paid := decimal.Zero
			for _, payReq := range req.Payments {
				if !payReq.Amount.IsPositive() {
					return apperr.New(apperr.CodeValidation, "payment amount must be positive")
				}
				paid = paid.Add(payReq.Amount)
			}
			if shortfall := total.Sub(paid); shortfall.GreaterThan(paymentTolerance) {
				return apperr.New(apperr.CodePaymentShortfall,
					"payments cover %s of %s", paid.StringFixed(2), total.StringFixed(2)).
					WithDetail("total", total.StringFixed(2)).
					WithDetail("paid", paid.StringFixed(2)).
					WithDetail("shortfall", shortfall.StringFixed(2))
			}
			change = decimal.Max(paid.Sub(total), decimal.Zero)
		}

		// 6. Reserve the invoice number under the company row lock
		company, seq, err := s.companyRepo.NextInvoiceSequence(txCtx, cid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.CodeNotFound, "company not found")
			}
			return fmt.Errorf("reserve invoice number: %w", err)
		}
		invoiceNumber := fmt.Sprintf("%s-%06d", company.InvoicePrefix, seq)

		// 7. Fiscal encodings
		issuedAt := s.now()
		doc := fiscal.Document{
			InvoiceNumber:        invoiceNumber,
			IssuedAt:             issuedAt,
			Subtotal:             subtotal,
			TaxAmount:            taxAmount,
			Total:                total,
			IssuerTaxID:          company.TaxID,
			CounterpartyDocType:  client.DocumentType,
			CounterpartyDocument: client.DocumentNumber,
			SoftwareID:           company.SoftwareID,
			EnvironmentFlag:      company.EnvironmentFlag,
			PIN:                  company.PIN,
		}
		authCode := fiscal.AuthenticationCode(doc)
		payload, err := fiscal.ScannablePayload(doc, authCode)
		if err != nil {
			return apperr.Wrap(apperr.CodeEncoding, err, "encode invoice %s", invoiceNumber)
		}
		words := numtext.WithCurrency(total.Round(0).IntPart(), company.Currency)

		// 8. Persist the sale
		sale = model.Sale{
			CompanyID:          cid,
			ClientID:           clientID,
			SellerID:           uid,
			InvoiceNumber:      invoiceNumber,
			Status:             model.SaleStatusPosted,
			Subtotal:           subtotal,
			Discount:           discount,
			TaxAmount:          taxAmount,
			WithholdingTotal:   w.Total(),
			Total:              total,
			AuthenticationCode: authCode,
			ScannablePayload:   payload,
			AmountInWords:      words,
			Notes:              req.Notes,
			CreatedAt:          issuedAt,
		}
		if err := s.saleRepo.Create(txCtx, &sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		// 9. Lines, stock movements, taxes, payments
		for _, line := range priced {
			saleLine := &model.SaleLine{
				SaleID:          sale.ID,
				ProductID:       line.product.ID,
				Quantity:        line.req.Quantity,
				UnitPrice:       line.req.UnitPrice,
				Discount:        line.req.Discount,
				LineSubtotal:    line.gross,
				FulfillmentMode: line.mode,
			}
			if err := s.saleRepo.CreateLine(txCtx, saleLine); err != nil {
				return fmt.Errorf("create sale line: %w", err)
			}
			sale.Lines = append(sale.Lines, *saleLine)

			// BACKORDER lines and untracked products leave stock alone
			if line.mode != model.FulfillmentImmediate || !line.product.TracksStock {
				continue
			}
			result, err := s.ledger.ApplyMovement(txCtx, ApplyMovementInput{
				ProductID:   line.product.ID,
				Quantity:    -line.req.Quantity,
				ReasonCode:  model.ReasonSale,
				ReferenceID: &sale.ID,
				ActorID:     uid,
			})
			if err != nil {
				return err
			}
			if result.LowStock {
				lowStock = append(lowStock, result)
			}
		}

		for _, taxReq := range req.Taxes {
			tax := &model.SaleTax{
				SaleID:  sale.ID,
				TaxCode: taxReq.TaxCode,
				Base:    taxReq.Base,
				Rate:    taxReq.Rate,
				Amount:  taxReq.Amount,
			}
			if err := s.saleRepo.CreateTax(txCtx, tax); err != nil {
				return fmt.Errorf("create sale tax: %w", err)
			}
		}

		for _, payReq := range req.Payments {
			payment := &model.Payment{
				SaleID:    sale.ID,
				Method:    payReq.Method,
				Amount:    payReq.Amount,
				Reference: payReq.Reference,
			}
			if err := s.saleRepo.CreatePayment(txCtx, payment); err != nil {
				return fmt.Errorf("create payment: %w", err)
			}
		}

		// 10. Audit trail
		details, _ := json.Marshal(map[string]interface{}{
			"invoice_number": invoiceNumber,
			"client_id":      clientID.String(),
			"subtotal":       subtotal.StringFixed(2),
			"discount":       discount.StringFixed(2),
			"tax_amount":     taxAmount.StringFixed(2),
			"withholdings":   w.Total().StringFixed(2),
			"total":          total.StringFixed(2),
			"lines":          len(req.Lines),
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionIssueSale,
			EntityID:   sale.ID.String(),
			EntityName: invoiceNumber,
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

	if s.notifier != nil {
		s.notifier.NotifySalePosted(SalePostedEvent{
			Event:         "sale_posted",
			SaleID:        sale.ID.String(),
			InvoiceNumber: sale.InvoiceNumber,
			Total:         sale.Total.StringFixed(2),
		})
		for _, result := range lowStock {
			s.notifier.NotifyStockAlert(StockAlertEvent{
				Event:       "stock_alert",
				ProductID:   result.ProductID.String(),
				ProductName: result.ProductName,
				StockAfter:  result.StockAfter,
				Minimum:     result.ReorderMinimum,
			})
		}
	}

	res := mapSaleToResponse(&sale)
	res.ClientName = clientName
	res.Change = change
	return res, nil
}

// VoidSale flips a POSTED sale to VOID and restores the stock its IMMEDIATE
// lines consumed. BACKORDER lines never moved stock, so they are skipped.
// The sale row itself is annotated, never deleted.
func (s *saleService) VoidSale(ctx context.Context, companyID, userID, saleID string, req VoidSaleRequest) (*SaleResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}
	sid, err := uuid.Parse(saleID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid sale id")
	}
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	var sale *model.Sale
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		sale, err = s.saleRepo.FindByIDWithLines(txCtx, sid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.CodeNotFound, "sale not found")
			}
			return fmt.Errorf("find sale: %w", err)
		}
		if sale.CompanyID != cid {
			return apperr.New(apperr.CodeNotFound, "sale not found")
		}
		if sale.Status != model.SaleStatusPosted {
			return apperr.New(apperr.CodeInvalidState, "sale %s is already %s", sale.InvoiceNumber, sale.Status)
		}

		for _, line := range sale.Lines {
			if line.FulfillmentMode != model.FulfillmentImmediate {
				continue
			}
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
				ReasonCode:  model.ReasonSale,
				ReferenceID: &sale.ID,
				Notes:       "void " + sale.InvoiceNumber,
				ActorID:     uid,
			}); err != nil {
				return err
			}
		}

		sale.Status = model.SaleStatusVoid
		annotation := fmt.Sprintf("VOID %s: %s", s.now().Format("2006-01-02 15:04:05"), req.Reason)
		if sale.Notes != "" {
			sale.Notes += "\n"
		}
		sale.Notes += annotation
		if err := s.saleRepo.Update(txCtx, sale); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"invoice_number": sale.InvoiceNumber,
			"reason":         req.Reason,
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionVoidSale,
			EntityID:   sale.ID.String(),
			EntityName: sale.InvoiceNumber,
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

	return mapSaleToResponse(sale), nil
}

func (s *saleService) GetSale(ctx context.Context, companyID, saleID string) (*SaleResponse, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid company id")
	}
	sid, err := uuid.Parse(saleID)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid sale id")
	}

	sale, err := s.saleRepo.FindByIDWithLines(ctx, sid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "sale not found")
		}
		return nil, fmt.Errorf("find sale: %w", err)
	}
	if sale.CompanyID != cid {
		return nil, apperr.New(apperr.CodeNotFound, "sale not found")
	}

	return mapSaleToResponse(sale), nil
}

func (s *saleService) ListSales(ctx context.Context, companyID, status, invoiceNumber string, page, limit int) ([]SaleResponse, int64, error) {
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

	sales, total, err := s.saleRepo.List(ctx, repository.SaleListFilter{
		CompanyID:     cid,
		Status:        status,
		InvoiceNumber: invoiceNumber,
		Page:          page,
		Limit:         limit,
	})
	if err != nil {
		return nil, 0, err
	}

	res := make([]SaleResponse, 0, len(sales))
	for i := range sales {
		res = append(res, *mapSaleToResponse(&sales[i]))
	}
	return res, total, nil
}

func mapSaleToResponse(sale *model.Sale) *SaleResponse {
	res := &SaleResponse{
		ID:                 sale.ID.String(),
		InvoiceNumber:      sale.InvoiceNumber,
		Status:             sale.Status,
		ClientID:           sale.ClientID.String(),
		Subtotal:           sale.Subtotal,
		Discount:           sale.Discount,
		TaxAmount:          sale.TaxAmount,
		WithholdingTotal:   sale.WithholdingTotal,
		Total:              sale.Total,
		AuthenticationCode: sale.AuthenticationCode,
		ScannablePayload:   sale.ScannablePayload,
		AmountInWords:      sale.AmountInWords,
		Notes:              sale.Notes,
		CreatedAt:          sale.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if sale.Client != nil {
		res.ClientName = sale.Client.Name
	}
	for _, line := range sale.Lines {
		res.Lines = append(res.Lines, SaleLineResponse{
			ID:              line.ID.String(),
			ProductID:       line.ProductID.String(),
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			Discount:        line.Discount,
			LineSubtotal:    line.LineSubtotal,
			FulfillmentMode: line.FulfillmentMode,
		})
	}
	return res
}
