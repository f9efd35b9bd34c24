package room

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const statementSheet = "Bills"

var statementHeader = []string{"Bill ID", "Date Issued", "Item", "Room", "Amount", "Payment Status"}

var statementColumnWidths = []float64{10, 14, 40, 10, 12, 16}

// BillingStatement renders the patient's bills as an .xlsx workbook with a
// frozen header row and a total of the pending amount.
func (s *Service) BillingStatement(ctx context.Context, patientID int64) ([]byte, error) {
	bills, err := s.ListBills(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return renderStatement(patientID, bills)
}

func renderStatement(patientID int64, bills []Bill) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(statementSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	amountFmt := "#,##0.00"
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFmt})
	if err != nil {
		return nil, fmt.Errorf("create amount style: %w", err)
	}

	for col, header := range statementHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(statementSheet, cell, header); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(statementSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(statementSheet, name, name, statementColumnWidths[col]); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	var pending float64
	for i, b := range bills {
		row := i + 2
		roomID := ""
		if b.RoomID != nil {
			roomID = *b.RoomID
		}
		values := []any{b.ID, b.DateIssued, b.Item, roomID, b.Amount, string(b.PaymentStatus)}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(statementSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		amountCell, _ := excelize.CoordinatesToCellName(5, row)
		if err := f.SetCellStyle(statementSheet, amountCell, amountCell, amountStyle); err != nil {
			return nil, fmt.Errorf("set amount style: %w", err)
		}
		if b.PaymentStatus == PaymentPending {
			pending += b.Amount
		}
	}

	totalRow := len(bills) + 3
	labelCell, _ := excelize.CoordinatesToCellName(4, totalRow)
	totalCell, _ := excelize.CoordinatesToCellName(5, totalRow)
	if err := f.SetCellValue(statementSheet, labelCell, "Pending total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(statementSheet, totalCell, pending); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(statementSheet, totalCell, totalCell, amountStyle); err != nil {
		return nil, err
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("Billing statement for patient %d", patientID),
		Creator: "hospital-portal",
	}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	if err := f.SetPanes(statementSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
