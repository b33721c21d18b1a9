package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	fenceOpenRe     = regexp.MustCompile("^```(?:json)?\\s*")
	fenceCloseRe    = regexp.MustCompile("\\s*```$")
	jsonObjectRe    = regexp.MustCompile(`(?s)\{.*\}`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	optionPrefixRe  = regexp.MustCompile(`^[A-Da-d][.)]\s*`)
	answerLetterRe  = regexp.MustCompile(`^[A-Da-d]`)

	questionLineRe = regexp.MustCompile(`(?i)^(question\s*\d*[:.)]|q\d+[:.)]|\d+[.)]\s)`)
	optionLineRe   = regexp.MustCompile(`^[A-D][.)]\s`)
	answerLineRe   = regexp.MustCompile(`(?i)^(correct answer|answer|réponse)\s*[:.]\s*`)
)

// rawQuestion tolerates the loose typing chat models produce: correct_answer
// may arrive as a string, number, or boolean.
type rawQuestion struct {
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer any      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
}

type rawQuiz struct {
	Title     string        `json:"quiz_title"`
	Questions []rawQuestion `json:"questions"`
}

// ParseResponse turns a chat model reply into a Quiz. It strips markdown
// fences, extracts the JSON object, repairs trailing commas, and falls back
// to a line-oriented plain text parser when no JSON can be recovered.
func ParseResponse(response, difficulty string, questionTypes []string) (*Quiz, error) {
	cleaned := strings.TrimSpace(response)
	cleaned = fenceOpenRe.ReplaceAllString(cleaned, "")
	cleaned = fenceCloseRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if match := jsonObjectRe.FindString(cleaned); match != "" {
		var raw rawQuiz
		err := json.Unmarshal([]byte(match), &raw)
		if err != nil {
			// Trailing commas are the most common model output defect.
			repaired := trailingCommaRe.ReplaceAllString(match, "$1")
			err = json.Unmarshal([]byte(repaired), &raw)
		}
		if err == nil {
			return buildQuiz(raw, difficulty, questionTypes), nil
		}
	}

	quiz := parsePlainText(response, difficulty, questionTypes)
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("quiz: no parseable questions in model response")
	}
	return quiz, nil
}

func buildQuiz(raw rawQuiz, difficulty string, questionTypes []string) *Quiz {
	quiz := &Quiz{
		Title:         raw.Title,
		Difficulty:    difficulty,
		QuestionTypes: questionTypes,
	}
	for _, rq := range raw.Questions {
		if q, ok := normalizeQuestion(rq, len(quiz.Questions)+1, difficulty, questionTypes); ok {
			quiz.Questions = append(quiz.Questions, q)
		}
	}
	return quiz
}

// normalizeQuestion validates and repairs one question. Questions with no
// text are dropped; QCM options are re-lettered and the answer reduced to
// its letter; Vrai/Faux answers are normalized to the two canonical values.
func normalizeQuestion(rq rawQuestion, id int, difficulty string, questionTypes []string) (Question, bool) {
	if strings.TrimSpace(rq.Question) == "" {
		return Question{}, false
	}
	q := Question{
		ID:          id,
		Question:    rq.Question,
		Type:        rq.Type,
		Difficulty:  rq.Difficulty,
		Explanation: rq.Explanation,
	}
	if q.Type == "" {
		q.Type = questionTypes[0]
	}
	if q.Difficulty == "" {
		q.Difficulty = difficulty
	}

	answer := coerceString(rq.CorrectAnswer)

	switch strings.ToLower(q.Type) {
	case "qcm":
		if len(rq.Options) >= 4 {
			q.Options = make([]string, 4)
			for i, opt := range rq.Options[:4] {
				text := optionPrefixRe.ReplaceAllString(strings.TrimSpace(opt), "")
				q.Options[i] = fmt.Sprintf("%c) %s", 'A'+i, text)
			}
		} else {
			q.Options = rq.Options
		}
		if letter := answerLetterRe.FindString(strings.TrimSpace(answer)); letter != "" {
			q.CorrectAnswer = strings.ToUpper(letter)
		} else {
			q.CorrectAnswer = "A"
		}
	case "vrai_faux":
		lower := strings.ToLower(strings.TrimSpace(answer))
		switch {
		case strings.Contains(lower, "vrai"), strings.Contains(lower, "true"):
			q.CorrectAnswer = "Vrai"
		case strings.Contains(lower, "faux"), strings.Contains(lower, "false"):
			q.CorrectAnswer = "Faux"
		default:
			q.CorrectAnswer = answer
		}
	default:
		q.CorrectAnswer = answer
	}
	return q, true
}

func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}

// parsePlainText recovers questions from a reply that ignored the JSON
// instruction, using the numbering and option patterns models tend to emit.
func parsePlainText(response, difficulty string, questionTypes []string) *Quiz {
	quiz := &Quiz{
		Title:         "Quiz généré",
		Difficulty:    difficulty,
		QuestionTypes: questionTypes,
	}
	var current *Question

	flush := func() {
		if current != nil && strings.TrimSpace(current.Question) != "" {
			quiz.Questions = append(quiz.Questions, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case questionLineRe.MatchString(line):
			flush()
			current = &Question{
				ID:         len(quiz.Questions) + 1,
				Question:   strings.TrimSpace(questionLineRe.ReplaceAllString(line, "")),
				Type:       questionTypes[0],
				Difficulty: difficulty,
			}
		case optionLineRe.MatchString(line):
			if current != nil {
				current.Options = append(current.Options, line)
			}
		case answerLineRe.MatchString(line):
			if current != nil {
				current.CorrectAnswer = strings.TrimSpace(answerLineRe.ReplaceAllString(line, ""))
			}
		}
	}
	flush()
	return quiz
}

var errNoQuestions = errors.New("quiz: empty quiz")

// Validate reports whether the quiz carries at least one question.
func (q *Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return errNoQuestions
	}
	return nil
}
