package qrbill

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo"
	"github.com/boombuler/barcode/qr"
	"github.com/shopspring/decimal"
)

const (
	slipWidth  = 640
	slipHeight = 340
	modulePx   = 4
	qrX        = 40
	qrY        = 80
)

const (
	labelStyle = "font-family:Helvetica;font-size:11px;font-weight:bold;fill:black"
	valueStyle = "font-family:Helvetica;font-size:11px;fill:black"
	titleStyle = "font-family:Helvetica;font-size:14px;font-weight:bold;fill:black"
)

// renderSlip draws the payment part: QR code with swiss cross marker on the
// left, creditor/amount/debtor blocks on the right.
func renderSlip(req Request, amount decimal.Decimal) ([]byte, error) {
	code, err := qr.Encode(buildPayload(req, amount), qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qrbill: encode payload: %w", err)
	}

	buf := &bytes.Buffer{}
	canvas := svg.New(buf)
	canvas.Start(slipWidth, slipHeight)
	canvas.Rect(0, 0, slipWidth, slipHeight, "fill:white")
	canvas.Text(qrX, 50, "Payment part", titleStyle)

	bounds := code.Bounds()
	modules := bounds.Dx()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := code.At(x, y).RGBA()
			if r < 0x8000 {
				canvas.Rect(qrX+(x-bounds.Min.X)*modulePx, qrY+(y-bounds.Min.Y)*modulePx, modulePx, modulePx, "fill:black")
			}
		}
	}
	drawSwissCross(canvas, qrX+modules*modulePx/2, qrY+modules*modulePx/2)

	col := qrX + modules*modulePx + 60
	line := 50

	canvas.Text(col, line, "Account / Payable to", labelStyle)
	for _, v := range []string{
		req.Creditor.Account,
		req.Creditor.Name,
		req.Creditor.Street,
		req.Creditor.PostalCode + " " + req.Creditor.City,
		req.Creditor.Country,
	} {
		line += 16
		canvas.Text(col, line, clean(v), valueStyle)
	}

	line += 28
	canvas.Text(col, line, "Currency / Amount", labelStyle)
	line += 16
	canvas.Text(col, line, "CHF "+amount.StringFixed(2), valueStyle)

	line += 28
	canvas.Text(col, line, "Payable by", labelStyle)
	for _, v := range []string{
		req.Debtor.Name,
		req.Debtor.Street,
		req.Debtor.PostalCode + " " + req.Debtor.City,
		req.Debtor.Country,
	} {
		line += 16
		canvas.Text(col, line, clean(v), valueStyle)
	}

	if info := clean(req.AdditionalInfo); info != "" {
		line += 28
		canvas.Text(col, line, "Additional information", labelStyle)
		line += 16
		canvas.Text(col, line, info, valueStyle)
	}

	canvas.End()
	return buf.Bytes(), nil
}

// drawSwissCross places the mandatory swiss cross marker over the QR
// centre.
func drawSwissCross(canvas *svg.SVG, cx, cy int) {
	const size = 28
	const bar = 16
	const thickness = 5
	canvas.Rect(cx-size/2, cy-size/2, size, size, "fill:black")
	canvas.Rect(cx-bar/2, cy-thickness/2, bar, thickness, "fill:white")
	canvas.Rect(cx-thickness/2, cy-bar/2, thickness, bar, "fill:white")
}
