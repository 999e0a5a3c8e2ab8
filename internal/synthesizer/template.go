package synthesizer

import "strings"

// Canned answers used when no generator is configured or the configured one
// fails. Keyed on coarse topic keywords in the question.
const (
	templateCost = "To optimize costs, consider using spot instances, right-sizing your " +
		"resources, and implementing auto-scaling based on demand. Monitor your usage " +
		"patterns and adjust resources accordingly."

	templateGPU = "To optimize GPU usage, consider using mixed precision training, " +
		"implementing gradient accumulation, and monitoring GPU memory utilization. " +
		"Use tools like nvidia-smi to track GPU performance."

	templateMemory = "For high memory usage issues, check for memory leaks in your " +
		"applications. Use profiling tools to identify memory bottlenecks. Consider " +
		"implementing memory pooling and garbage collection optimization."

	templateGeneric = "Based on your question, I recommend reviewing your infrastructure " +
		"configuration and monitoring metrics. Please check the documentation for more " +
		"specific guidance."
)

// templateAnswer picks a canned answer for the question and appends a short
// excerpt of the retrieved context when one exists.
func templateAnswer(question, context string) string {
	q := strings.ToLower(question)

	var answer string
	switch {
	case strings.Contains(q, "cost") || strings.Contains(q, "optimize"):
		answer = templateCost
	case strings.Contains(q, "gpu"):
		answer = templateGPU
	case strings.Contains(q, "memory"):
		answer = templateMemory
	default:
		answer = templateGeneric
	}

	if context != "" {
		const maxExcerpt = 500
		excerpt := context
		if len(excerpt) > maxExcerpt {
			excerpt = excerpt[:maxExcerpt] + "..."
		}
		answer += "\n\nRelated context from your documentation:\n" + excerpt
	}
	return answer
}
