package engine

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"timed-quiz-service/internal/domain"
)

var validate = validator.New()

type questionSet struct {
	Questions []domain.Question `validate:"required,min=1,unique=ID,dive"`
}

// ValidateQuestions checks that a sequence can start an attempt. Every
// failure wraps domain.ErrConfiguration.
func ValidateQuestions(questions []domain.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: empty question sequence", domain.ErrConfiguration)
	}
	if err := validate.Struct(questionSet{Questions: questions}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	for _, q := range questions {
		correct := 0
		for _, opt := range q.Options {
			if opt.Correct {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("%w: question %q has %d correct options, want exactly one", domain.ErrConfiguration, q.ID, correct)
		}
	}
	return nil
}
