package synthesizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

const (
	// confidenceFloor and confidenceCeil bound answer confidence when
	// documents were retrieved.
	confidenceFloor = 0.3
	confidenceCeil  = 0.95

	// noContextConfidence marks answers produced without any retrieved
	// documents.
	noContextConfidence = 0.1

	// greetingConfidence marks canned greeting replies.
	greetingConfidence = 0.9

	// maxContextChars bounds the retrieved context block in prompts.
	maxContextChars = 4000
)

const systemPrompt = "You are an AI assistant specializing in AI infrastructure, " +
	"workload management, and optimization. Answer based on the provided context. " +
	"If the context does not contain relevant information, say so."

const noContextAnswer = "I don't have specific information about that topic in my " +
	"knowledge base. Please try rephrasing your question or ask about GPU optimization, " +
	"cost management, memory troubleshooting, auto-scaling, model performance, resource " +
	"allocation, system monitoring, or performance bottlenecks."

const greetingAnswer = "Hello! I can answer questions about your infrastructure " +
	"documentation: GPU optimization, cost management, memory troubleshooting, " +
	"monitoring, and more. What would you like to know?"

var greetingWords = map[string]bool{
	"hi": true, "hello": true, "hey": true, "howdy": true, "greetings": true,
}

// Source identifies a document an answer was grounded on.
type Source struct {
	Title   string `json:"title"`
	DocType string `json:"doc_type"`
}

// Answer is a synthesized response.
type Answer struct {
	Text       string    `json:"answer"`
	Sources    []Source  `json:"sources"`
	Confidence float32   `json:"confidence_score"`
	CreatedAt  time.Time `json:"created_at"`
}

// Synthesizer produces answers from retrieved documents.
//
// Synthesize never fails on provider trouble: a nil or failing Generator
// degrades to template answers. Confidence reflects retrieval quality, not
// generation quality.
type Synthesizer struct {
	generator Generator
	logger    *zap.Logger
}

// New creates a Synthesizer. generator may be nil, in which case all
// answers come from the template fallback.
func New(generator Generator, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{generator: generator, logger: logger}
}

// Synthesize builds an answer for the query from the retrieved results.
//
// Empty retrieval yields a fixed "no information" answer with confidence
// 0.1 and no sources. Otherwise confidence is the mean retrieval score
// clamped to [0.3, 0.95], and sources mirror retrieval order.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, results []vectorstore.SearchResult) *Answer {
	now := time.Now().UTC()

	if isGreeting(query) {
		return &Answer{
			Text:       greetingAnswer,
			Sources:    []Source{},
			Confidence: greetingConfidence,
			CreatedAt:  now,
		}
	}

	if len(results) == 0 {
		return &Answer{
			Text:       noContextAnswer,
			Sources:    []Source{},
			Confidence: noContextConfidence,
			CreatedAt:  now,
		}
	}

	contextBlock := buildContext(results)
	text := s.generate(ctx, query, contextBlock)

	sources := make([]Source, len(results))
	var sum float32
	for i, r := range results {
		sources[i] = Source{Title: r.Title, DocType: r.DocType}
		sum += r.Score
	}
	confidence := clamp(sum/float32(len(results)), confidenceFloor, confidenceCeil)

	return &Answer{
		Text:       text,
		Sources:    sources,
		Confidence: confidence,
		CreatedAt:  now,
	}
}

// generate calls the configured generator, degrading to templates.
func (s *Synthesizer) generate(ctx context.Context, query, contextBlock string) string {
	if s.generator == nil {
		return templateAnswer(query, contextBlock)
	}

	prompt := Prompt{
		System: systemPrompt,
		User: fmt.Sprintf("Context from knowledge base:\n%s\n\nQuestion: %s\n\n"+
			"Please provide a helpful answer based on the context above. "+
			"If the context doesn't contain relevant information, say so.",
			contextBlock, query),
	}
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("generation failed, using template answer", zap.Error(err))
		return templateAnswer(query, contextBlock)
	}
	return text
}

// buildContext renders retrieved documents into a bounded prompt block.
func buildContext(results []vectorstore.SearchResult) string {
	var sb strings.Builder
	for _, r := range results {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("Document: ")
		sb.WriteString(r.Title)
		sb.WriteString("\n")
		sb.WriteString(r.ContentPreview)
		if sb.Len() >= maxContextChars {
			break
		}
	}
	block := sb.String()
	if len(block) > maxContextChars {
		block = block[:maxContextChars]
	}
	return block
}

// isGreeting reports whether the query is a bare greeting.
func isGreeting(query string) bool {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	if len(words) == 0 || len(words) > 2 {
		return false
	}
	first := strings.Trim(words[0], ".,!?")
	return greetingWords[first]
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
