package questions

import (
	"slices"
	"strings"
)

// Normalize applies defaults and checks the answer key against the options.
func (in Input) Normalize() (Input, error) {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	if !slices.Contains(Types, in.Type) {
		return in, ErrInvalidType
	}
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return in, ErrEmptyContent
	}
	in.Difficulty = strings.ToLower(strings.TrimSpace(in.Difficulty))
	if in.Difficulty == "" {
		in.Difficulty = DifficultyMedium
	}
	if !slices.Contains(Difficulties, in.Difficulty) {
		return in, ErrInvalidDiff
	}

	in.Options = cleanOptions(in.Options)
	if len(in.Options) == 0 {
		if in.Type != TypeJudge {
			return in, ErrNoOptions
		}
		in.Options = slices.Clone(DefaultJudgeOptions)
	}

	in.CorrectAnswer = NormalizeAnswers(in.CorrectAnswer)
	if len(in.CorrectAnswer) == 0 {
		return in, ErrNoAnswer
	}
	for _, a := range in.CorrectAnswer {
		if !slices.Contains(in.Options, a) {
			return in, ErrAnswerNotOption
		}
	}
	if in.Type != TypeMultiple && len(in.CorrectAnswer) != 1 {
		return in, ErrSingleAnswer
	}
	if in.Category.Valid {
		in.Category.String = strings.TrimSpace(in.Category.String)
		in.Category.Valid = in.Category.String != ""
	}
	return in, nil
}
