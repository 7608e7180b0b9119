package infra

// pdf.go — PDF generation using go-pdf/fpdf.
// Two documents are produced here:
//   - thermal-style receipt for a closed table session
//   - A4 Z-report for a shift closure (revenue/cost breakdown + cash count)

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

// GenerateReceiptPDF writes a receipt for a closed session.
// Returns the absolute path of the generated file.
func GenerateReceiptPDF(session *model.TableSession, venueName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("recibo_%s.pdf", session.ID)
	filePath := filepath.Join(storagePath, fileName)

	// 74mm × 105mm — close to thermal receipt paper
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, venueName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Comprobante de Consumo", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Mesa %d", session.TableNumber), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	if session.EndedAt != nil {
		pdf.CellFormat(contentW, 4, session.EndedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 4, fmt.Sprintf("Tiempo jugado: %d min", session.DurationMinutes), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Detalle", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(col1, 5, "Tiempo de mesa", "", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "", "", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "$"+session.TimeCharged.StringFixed(2), "", 1, "R", false, 0, "")

	for _, item := range session.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		if len(name) > 22 {
			name = name[:21] + "…"
		}
		pdf.CellFormat(col1, 5, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+item.LineTotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 7)
	if !session.DiscountApplied.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Descuento:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "-$"+session.DiscountApplied.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+session.AmountCharged.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 7)
	for _, p := range session.Payments {
		pdf.CellFormat(col1+col2, 4, "Pago ("+p.Method+"):", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, "$"+p.Amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "¡Gracias por su visita!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// GenerateClosureReportPDF writes the Z-report for a shift closure.
func GenerateClosureReportPDF(c *model.ShiftClosure, venueName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("cierre_%s.pdf", c.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, venueName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, "Informe de Cierre de Turno", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, c.CreatedAt.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	label := contentW * 0.6
	value := contentW * 0.4

	row := func(name string, amount decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(label, 6, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(value, 6, "$"+amount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	section := func(title string) {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentW, 7, title, "B", 1, "L", false, 0, "")
	}

	section("Ingresos")
	row("Tiempo de mesa", c.TimeRevenue, false)
	row("Productos", c.ProductRevenue, false)
	row("Cuotas de socios", c.MembershipRevenue, false)
	row("Arriendos", c.RentalRevenue, false)
	row("Total ingresos", c.TotalRevenue, true)

	section("Medios de pago")
	row("Efectivo", c.CashRevenue, false)
	row("Tarjeta", c.CardRevenue, false)
	row("Crédito", c.CreditRevenue, false)

	section("Costos")
	row("Mermas", c.WasteCost, false)
	row("Mantenimiento", c.MaintenanceCost, false)
	row("Total costos", c.TotalCost, true)
	row("Utilidad neta", c.NetProfit, true)

	section("Arqueo de caja")
	row("Efectivo declarado", c.CashInHand, false)
	row("Efectivo teórico", c.CashRevenue, false)
	row("Diferencia", c.CashDifference, true)
	if c.HasCashAlert {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(180, 0, 0)
		pdf.CellFormat(contentW, 6, "⚠ Diferencia de caja fuera de tolerancia — requiere revisión", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Sesiones consolidadas: %d", c.SessionCount), "", 1, "L", false, 0, "")
	if c.Notes != nil && *c.Notes != "" {
		pdf.CellFormat(contentW, 5, "Observaciones: "+*c.Notes, "", 1, "L", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
