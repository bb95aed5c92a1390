package fiscal

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

// qrImageSize is the rendered square size in pixels, rounded down so module
// edges stay pixel-aligned. Sized for 80mm thermal printers; downstream
// scanners are calibrated against it.
const qrImageSize = 300

// qrQuietZone is the white margin around the symbol, in modules. Scanners and
// receipt printers are calibrated against exactly one module of padding.
const qrQuietZone = 1

type qrPayload struct {
	InvoiceNumber      string `json:"invoice_number"`
	Date               string `json:"date"`
	IssuerTaxID        string `json:"issuer_tax_id"`
	CounterpartyID     string `json:"counterparty_id"`
	Subtotal           string `json:"subtotal"`
	TaxAmount          string `json:"tax_amount"`
	OtherTaxAmount     string `json:"other_tax_amount"`
	Total              string `json:"total"`
	AuthenticationCode string `json:"authentication_code"`
}

// ScannablePayload renders the invoice's key fields as a QR image (error
// correction M) and returns it as a base64 data URI ready for embedding in a
// receipt. authCode must be the digest produced by AuthenticationCode for the
// same document.
func ScannablePayload(doc Document, authCode string) (string, error) {
	payload := qrPayload{
		InvoiceNumber:      doc.InvoiceNumber,
		Date:               doc.IssuedAt.Format("20060102"),
		IssuerTaxID:        digitsOnly(doc.IssuerTaxID),
		CounterpartyID:     digitsOnly(doc.CounterpartyDocument),
		Subtotal:           doc.Subtotal.StringFixed(2),
		TaxAmount:          doc.TaxAmount.StringFixed(2),
		OtherTaxAmount:     zeroAmount,
		Total:              doc.Total.StringFixed(2),
		AuthenticationCode: authCode,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal qr payload: %w", err)
	}

	qr, err := qrcode.New(string(raw), qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("build qr code: %w", err)
	}
	// Take the bare symbol and compose the quiet zone ourselves; the
	// library's own border is wider than the contract allows.
	qr.DisableBorder = true

	img, err := renderQuietZone(qr.Bitmap(), qrQuietZone, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("render qr png: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(img), nil
}

// renderQuietZone scales the module grid to at most target pixels with a
// white margin of exactly `margin` modules on every side, and encodes the
// result as PNG. Every module maps to a whole number of pixels so the margin
// width survives printing without anti-aliasing artifacts.
func renderQuietZone(modules [][]bool, margin, target int) ([]byte, error) {
	n := len(modules)
	if n == 0 {
		return nil, fmt.Errorf("empty qr module grid")
	}
	span := n + 2*margin
	scale := target / span
	if scale < 1 {
		scale = 1
	}
	size := span * scale

	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	for y, row := range modules {
		for x, dark := range row {
			if !dark {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				base := ((y+margin)*scale + dy) * img.Stride
				for dx := 0; dx < scale; dx++ {
					img.Pix[base+(x+margin)*scale+dx] = 0x00
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return buf.Bytes(), nil
}
