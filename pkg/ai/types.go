package ai

import "context"

// Mode selects the rubric variant used to grade a submission.
type Mode string

const (
	// ModeContentRewrite grades a written rewrite of a video transcript.
	ModeContentRewrite Mode = "content_rewrite"
	// ModeVideoPresentation grades the transcript of a spoken video presentation.
	ModeVideoPresentation Mode = "video_presentation"
)

// Valid reports whether the mode is one of the supported rubric variants.
func (m Mode) Valid() bool {
	return m == ModeContentRewrite || m == ModeVideoPresentation
}

// EvaluationRequest carries the texts compared by a single evaluation call.
type EvaluationRequest struct {
	ReferenceText string
	CandidateText string
	Mode          Mode
}

// EvaluationResult is the validated scoring object returned to callers.
type EvaluationResult struct {
	Score            float64  `json:"score"`
	Feedback         string   `json:"feedback"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	GrammarScore     float64  `json:"grammarScore"`
	ContentScore     float64  `json:"contentScore"`
	OriginalityScore float64  `json:"originalityScore"`
}

// ModelClient sends a prompt to a generative-language model and returns its raw reply.
type ModelClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Evaluator grades learner submissions against a reference transcript.
type Evaluator interface {
	CompareContent(ctx context.Context, reference, candidate string) (EvaluationResult, error)
	EvaluatePresentation(ctx context.Context, reference, transcript string) (EvaluationResult, error)
}
