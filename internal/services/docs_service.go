package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// pdfText converts UTF-8 to the cp1252 core fonts. The route arrow has no
// cp1252 glyph.
func pdfText(pdf *gofpdf.Fpdf) func(string) string {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	return func(s string) string {
		return tr(strings.ReplaceAll(s, models.RouteSeparator, " -> "))
	}
}

func safe(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// GenerateTicket renders the boarding ticket of a confirmed reservation.
func GenerateTicket(rec models.Reservation) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdfText(pdf)
	pdf.SetTitle("Tiquete", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr("TIQUETE DE VIAJE"))
	pdf.Ln(12)

	confirmed := "-"
	if rec.ConfirmationTimestamp != nil {
		confirmed = utils.FormatDateTime(*rec.ConfirmationTimestamp)
	}

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Pasajero      : %s", safe(rec.Name, "-")),
		fmt.Sprintf("Documento     : %s", safe(rec.DocumentID, "-")),
		fmt.Sprintf("Ruta          : %s", strings.ToUpper(safe(rec.Route, "-"))),
		fmt.Sprintf("Horario       : %s", safe(rec.DepartureTime, "-")),
		fmt.Sprintf("Valor         : %s", utils.FormatPesos(rec.Fare)),
		fmt.Sprintf("Estado        : %s", rec.Status.Label()),
		fmt.Sprintf("Reservado     : %s", utils.FormatDateTime(rec.Timestamp)),
		fmt.Sprintf("Confirmado    : %s", confirmed),
		fmt.Sprintf("Código        : %s", safe(rec.ID, "-")),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, tr(s))
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, tr("Presenta este tiquete y tu documento en la terminal 30 minutos antes de la salida."), "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("TIQUETE_%s_%s.pdf", utils.SafeFilenamePart(rec.DocumentID), utils.SafeFilenamePart(rec.Name))
	return buf.Bytes(), filename, nil
}

// GenerateDailySummary renders the report attached to the daily email.
func GenerateDailySummary(sum Summary, records []models.Reservation) ([]byte, string, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdfText(pdf)
	pdf.SetTitle("Resumen diario", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr("RESUMEN DE VENTAS "+utils.FormatDate(sum.Date)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	for _, s := range []string{
		fmt.Sprintf("Reservas totales : %d (%s)", sum.Total, utils.FormatPesos(sum.TotalValue)),
		fmt.Sprintf("Pagos confirmados: %d (%s)", sum.Confirmed, utils.FormatPesos(sum.ConfirmedValue)),
		fmt.Sprintf("Pagos pendientes : %d", sum.Pending),
	} {
		pdf.Cell(0, 7, tr(s))
		pdf.Ln(7)
	}
	pdf.Ln(5)

	widths := []float64{38, 55, 28, 62, 26, 28, 40}
	headers := []string{"Fecha", "Nombre", "Documento", "Ruta", "Horario", "Valor", "Estado"}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, r := range records {
		row := []string{
			utils.FormatDateTime(r.Timestamp),
			r.Name,
			r.DocumentID,
			strings.ToUpper(r.Route),
			r.DepartureTime,
			utils.FormatPesos(r.Fare),
			r.Status.Label(),
		}
		for i, v := range row {
			pdf.CellFormat(widths[i], 6, tr(v), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("resumen_%s.pdf", utils.FormatDate(sum.Date)), nil
}

// ticketFor is the PDF attachment sent with a booking confirmation. A
// render failure drops the attachment, not the mail.
func ticketFor(rec models.Reservation) (models.Attachment, bool) {
	data, name, err := GenerateTicket(rec)
	if err != nil {
		utils.LogError("", "docs", "ticket", fmt.Errorf("reservation %s: %w", rec.ID, err))
		return models.Attachment{}, false
	}
	return models.Attachment{Filename: name, Data: data}, true
}
