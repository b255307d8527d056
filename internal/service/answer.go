package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/docqa/internal/domain"
)

// CompletionClient defines the interface for grounded text generation
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// InsufficientEvidenceAnswer is returned verbatim whenever retrieval
// produced nothing to ground an answer on. No model call is made in that
// case.
const InsufficientEvidenceAnswer = "I don't have enough information in the indexed documents to answer that question."

const answerSystemPrompt = `You are a document question-answering assistant. Answer the user's question using ONLY the provided context passages. Each passage is tagged with its source document. If the context does not contain the answer, say so plainly instead of guessing. Do not use any knowledge beyond the passages.`

// AnswerService synthesizes a grounded answer from retrieved chunks and
// scores its confidence from the retrieval evidence.
type AnswerService struct {
	llm        CompletionClient
	confidence ConfidenceFunc
}

// NewAnswerService creates an AnswerService. A nil confidence function
// falls back to EvidenceConfidence.
func NewAnswerService(llm CompletionClient, confidence ConfidenceFunc) *AnswerService {
	if confidence == nil {
		confidence = EvidenceConfidence
	}
	return &AnswerService{llm: llm, confidence: confidence}
}

// Answer generates an answer to query grounded in the retrieval result.
// With no retrieved chunks it short-circuits to the insufficient-evidence
// answer without calling the model.
func (s *AnswerService) Answer(ctx context.Context, query, language string, result *domain.RetrievalResult) (*domain.Answer, error) {
	if result == nil || result.Empty() {
		return &domain.Answer{
			Text:                 InsufficientEvidenceAnswer,
			Sources:              []string{},
			Confidence:           0.0,
			InsufficientEvidence: true,
		}, nil
	}

	text, err := s.llm.Complete(ctx, answerSystemPrompt, buildUserPrompt(query, language, result.Chunks))
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Text:       text,
		Sources:    sourceDocuments(result.Chunks),
		Confidence: s.confidence(result.Scores()),
	}, nil
}

func buildUserPrompt(query, language string, chunks []domain.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString("Context passages:\n\n")
	for _, c := range chunks {
		fmt.Fprintf(&b, "[Source: %s]\n%s\n\n", c.DocumentID, c.Text)
	}
	fmt.Fprintf(&b, "Question: %s\n", query)
	if language != "" && language != "en" {
		fmt.Fprintf(&b, "\nRespond in the language with code %q.\n", language)
	}
	return b.String()
}

// sourceDocuments returns the distinct document ids that contributed
// chunks, in retrieval rank order.
func sourceDocuments(chunks []domain.RetrievedChunk) []string {
	seen := make(map[string]bool, len(chunks))
	sources := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if seen[c.DocumentID] {
			continue
		}
		seen[c.DocumentID] = true
		sources = append(sources, c.DocumentID)
	}
	return sources
}
