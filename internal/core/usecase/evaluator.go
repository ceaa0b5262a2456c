package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/core/ports"
)

const correctnessSystemPrompt = `You are an expert data labeler evaluating model outputs for correctness.
Compare the OUTPUT with the REFERENCE answer for the given QUESTION.
An output is correct when it is factually accurate and agrees with the reference on every key fact.
Missing or contradicting key facts make it incorrect. Extra detail that is accurate is acceptable.
Reply with the first line "VERDICT: CORRECT" or "VERDICT: INCORRECT", then one short paragraph of reasoning.`

// AnswerEvaluator grades answers to known questions with a judge model.
// Questions outside the reference set are not graded.
type AnswerEvaluator struct {
	judge      ports.ChatModel
	references map[string]string
	recorder   ports.EvaluationRecorder
	timeout    time.Duration
}

func NewAnswerEvaluator(judge ports.ChatModel, references []domain.ReferenceAnswer, recorder ports.EvaluationRecorder, timeout time.Duration) *AnswerEvaluator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	byQuestion := make(map[string]string, len(references))
	for _, ref := range references {
		key := referenceKey(ref.Question)
		if key == "" || strings.TrimSpace(ref.Answer) == "" {
			continue
		}
		byQuestion[key] = strings.TrimSpace(ref.Answer)
	}
	return &AnswerEvaluator{
		judge:      judge,
		references: byQuestion,
		recorder:   recorder,
		timeout:    timeout,
	}
}

func referenceKey(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// Enabled reports whether there is a judge and at least one reference.
func (e *AnswerEvaluator) Enabled() bool {
	return e != nil && e.judge != nil && len(e.references) > 0
}

func (e *AnswerEvaluator) HasReference(question string) bool {
	if !e.Enabled() {
		return false
	}
	_, ok := e.references[referenceKey(question)]
	return ok
}

// Evaluate grades one answer. The second return is false when the question has
// no reference answer.
func (e *AnswerEvaluator) Evaluate(ctx context.Context, question, answer string) (domain.Evaluation, bool) {
	if !e.Enabled() {
		return domain.Evaluation{}, false
	}
	reference, ok := e.references[referenceKey(question)]
	if !ok {
		return domain.Evaluation{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	evaluation := domain.Evaluation{Question: question, Answer: answer, Reference: reference}
	reply, err := e.judge.Complete(ctx, correctnessSystemPrompt, buildCorrectnessPrompt(question, answer, reference))
	if err != nil {
		evaluation.Verdict = domain.VerdictError
		evaluation.Reasoning = err.Error()
		slog.WarnContext(ctx, "answer_evaluation_failed", "question", question, "error", err.Error())
	} else {
		evaluation.Verdict, evaluation.Reasoning = parseVerdict(reply)
		slog.InfoContext(ctx, "answer_evaluated",
			"question", question,
			"verdict", evaluation.Verdict,
			"reasoning", evaluation.Reasoning,
		)
	}

	if e.recorder != nil {
		e.recorder.ObserveEvaluation(evaluation.Verdict)
	}
	return evaluation, true
}

func buildCorrectnessPrompt(question, answer, reference string) string {
	return fmt.Sprintf("QUESTION:\n%s\n\nOUTPUT:\n%s\n\nREFERENCE:\n%s", question, answer, reference)
}

// parseVerdict reads the first "VERDICT:" line. Everything after it is the reasoning.
func parseVerdict(reply string) (domain.EvaluationVerdict, string) {
	lines := strings.Split(strings.TrimSpace(reply), "\n")
	for i, line := range lines {
		label, value, found := strings.Cut(strings.TrimSpace(line), ":")
		if !found || !strings.EqualFold(strings.Trim(label, "*# "), "verdict") {
			continue
		}
		reasoning := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		switch strings.ToLower(strings.Trim(value, "*.!` ")) {
		case "correct", "true", "pass":
			return domain.VerdictCorrect, reasoning
		case "incorrect", "false", "fail":
			return domain.VerdictIncorrect, reasoning
		}
		return domain.VerdictUnparsed, strings.TrimSpace(reply)
	}
	return domain.VerdictUnparsed, strings.TrimSpace(reply)
}

// EvaluatingAnswerer grades reference-set answers in the background. The
// caller gets the inner result unchanged and without waiting on the judge.
type EvaluatingAnswerer struct {
	inner     ports.QueryAnswerer
	evaluator *AnswerEvaluator
	pending   sync.WaitGroup
}

func NewEvaluatingAnswerer(inner ports.QueryAnswerer, evaluator *AnswerEvaluator) *EvaluatingAnswerer {
	return &EvaluatingAnswerer{inner: inner, evaluator: evaluator}
}

func (a *EvaluatingAnswerer) Answer(ctx context.Context, query string) domain.AnswerResult {
	result := a.inner.Answer(ctx, query)
	if !a.evaluator.HasReference(query) {
		return result
	}

	evalCtx := context.WithoutCancel(ctx)
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(evalCtx, "answer_evaluation_panic", "panic", fmt.Sprint(rec))
			}
		}()
		a.evaluator.Evaluate(evalCtx, query, result.Answer)
	}()
	return result
}

// Wait blocks until every background evaluation has finished.
func (a *EvaluatingAnswerer) Wait() {
	a.pending.Wait()
}
