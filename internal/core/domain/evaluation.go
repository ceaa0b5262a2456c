package domain

// EvaluationVerdict is the outcome of grading an answer against a reference.
type EvaluationVerdict string

const (
	VerdictCorrect   EvaluationVerdict = "correct"
	VerdictIncorrect EvaluationVerdict = "incorrect"
	VerdictUnparsed  EvaluationVerdict = "unparsed"
	VerdictError     EvaluationVerdict = "error"
)

type ReferenceAnswer struct {
	Question string
	Answer   string
}

type Evaluation struct {
	Question  string            `json:"question"`
	Answer    string            `json:"answer"`
	Reference string            `json:"reference"`
	Verdict   EvaluationVerdict `json:"verdict"`
	Reasoning string            `json:"reasoning,omitempty"`
}
