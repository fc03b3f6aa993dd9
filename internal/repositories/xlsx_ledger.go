package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"github.com/xuri/excelize/v2"
)

// Sheet columns. Fecha..Estado match the sheet the first bot version wrote,
// so older ledgers still load.
var ledgerColumns = []string{
	"ID", "Fecha", "Nombre", "Documento", "Telefono", "Destino", "Horario",
	"Valor", "Estado", "FechaConfirmacion", "Comprobante",
}

// DefaultLedgerSheet is used when no sheet name is configured.
const DefaultLedgerSheet = "Ventas"

// XLSXLedger keeps the ledger as one sheet of a spreadsheet file.
type XLSXLedger struct {
	Path  string
	Sheet string
}

func (l XLSXLedger) Load(ctx context.Context) ([]models.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadLedgerFile(l.Path, l.sheet())
}

// Save writes a temp file in the ledger's directory and renames it over the
// ledger, so a failed write leaves the previous ledger intact.
func (l XLSXLedger) Save(ctx context.Context, records []models.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteLedgerFile(l.Path, l.sheet(), records)
}

func (l XLSXLedger) sheet() string {
	if strings.TrimSpace(l.Sheet) == "" {
		return DefaultLedgerSheet
	}
	return l.Sheet
}

// ReadLedgerFile loads records from sheet; a missing file or sheet is empty.
func ReadLedgerFile(path, sheet string) ([]models.Reservation, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return []models.Reservation{}, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return []models.Reservation{}, nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return []models.Reservation{}, nil
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]models.Reservation, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		rec := models.Reservation{
			ID:             cell(row, "ID"),
			Name:           cell(row, "Nombre"),
			DocumentID:     cell(row, "Documento"),
			Phone:          cell(row, "Telefono"),
			Route:          cell(row, "Destino"),
			DepartureTime:  cell(row, "Horario"),
			ProofReference: cell(row, "Comprobante"),
		}
		if v := cell(row, "Fecha"); v != "" {
			if ts, err := utils.ParseLedgerTime(v); err == nil {
				rec.Timestamp = ts
			} else {
				rec.TimestampText = v
			}
		}
		if v := cell(row, "Valor"); v != "" {
			fare, err := utils.ParseAmount(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid Valor %q: %w", n+2, v, err)
			}
			rec.Fare = fare
		}
		status, err := models.ParseStatus(cell(row, "Estado"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		rec.Status = status
		if v := cell(row, "FechaConfirmacion"); v != "" {
			if ts, err := utils.ParseLedgerTime(v); err == nil {
				rec.ConfirmationTimestamp = &ts
			} else {
				rec.ConfirmationText = v
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteLedgerFile replaces path with a workbook holding records.
func WriteLedgerFile(path, sheet string, records []models.Reservation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(ledgerColumns))
	for i, c := range ledgerColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, rec := range records {
		confirmed := rec.ConfirmationText
		if rec.ConfirmationTimestamp != nil {
			confirmed = utils.FormatDateTime(*rec.ConfirmationTimestamp)
		}
		created := rec.TimestampText
		if !rec.Timestamp.IsZero() {
			created = utils.FormatDateTime(rec.Timestamp)
		}
		row := []interface{}{
			rec.ID, created, rec.Name, rec.DocumentID, rec.Phone, rec.Route,
			rec.DepartureTime, rec.Fare, rec.Status.Label(), confirmed, rec.ProofReference,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.xlsx")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := f.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// ArchivePath is the dated backup file name for day.
func ArchivePath(dir string, day time.Time) string {
	return filepath.Join(dir, "ventas_"+utils.FormatDate(day)+".xlsx")
}
