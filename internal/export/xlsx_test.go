package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"timed-quiz-service/internal/engine"
)

func TestXLSXWritesOneRowPerQuestion(t *testing.T) {
	exp := engine.AttemptExport{
		Attempt:   2,
		Completed: true,
		Items: []engine.ExportItem{
			{QuestionID: "q1", Question: "2 + 2?", Answered: true, ChosenOptionID: "o2", ChosenOption: "4", CorrectOptionID: "o2", CorrectOption: "4", Correct: true},
			{QuestionID: "q2", Question: "3 + 3?", Answered: true, CorrectOptionID: "o6", CorrectOption: "6", TimedOut: true},
		},
		Summary: engine.Summary{Correct: 1, Total: 2, Percentage: 50},
	}

	data, err := XLSX(Meta{AttemptID: "a1", QuizID: "quiz-1", DisplayName: "Alice"}, exp)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)

	assert.Equal(t, []string{"Player", "Alice"}, rows[1])
	assert.Equal(t, headers, rows[4])
	assert.Equal(t, []string{"1", "2 + 2?", "4", "4", "correct"}, rows[5])
	assert.Equal(t, []string{"2", "3 + 3?", "(no answer)", "6", "timed out"}, rows[6])
	assert.Equal(t, []string{"Score", "1 / 2", "50%"}, rows[len(rows)-1])
}
