package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"timed-quiz-service/internal/engine"
)

const sheetName = "Attempt"

// Meta identifies whose attempt is being exported.
type Meta struct {
	AttemptID   string
	QuizID      string
	DisplayName string
}

var headers = []string{"#", "Question", "Your answer", "Correct answer", "Result"}

// XLSX renders an attempt export as a single-sheet workbook: one row per
// question followed by a score line.
func XLSX(meta Meta, exp engine.AttemptExport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Quiz", meta.QuizID},
		{"Player", meta.DisplayName},
		{"Attempt", fmt.Sprintf("%s (#%d)", meta.AttemptID, exp.Attempt)},
		{},
	}
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	rows = append(rows, header)

	for i, item := range exp.Items {
		rows = append(rows, []interface{}{i + 1, item.Question, chosenText(item), item.CorrectOption, resultText(item)})
	}
	rows = append(rows, []interface{}{}, []interface{}{
		"Score",
		fmt.Sprintf("%d / %d", exp.Summary.Correct, exp.Summary.Total),
		fmt.Sprintf("%d%%", exp.Summary.Percentage),
	})

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func chosenText(item engine.ExportItem) string {
	switch {
	case !item.Answered:
		return ""
	case item.TimedOut && item.ChosenOptionID == "":
		return "(no answer)"
	default:
		return item.ChosenOption
	}
}

func resultText(item engine.ExportItem) string {
	switch {
	case !item.Answered:
		return "pending"
	case item.Correct:
		return "correct"
	case item.TimedOut:
		return "timed out"
	default:
		return "incorrect"
	}
}
