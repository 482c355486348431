package openai

import "strings"

// systemPrompt instructs the model to answer from the supplied sources only.
const systemPrompt = `You are a careful assistant that answers questions from a fixed set of numbered sources.
Use only facts stated in the sources. If the sources are insufficient, say that you do not know.
Answer in plain prose without markdown headings, lists or code fences.
Do not add citation markers or a list of sources; they are added for you.`

// cleanCompletion strips wrappers models sometimes put around plain answers.
func cleanCompletion(s string) string {
	s = strings.TrimSpace(s)

	// Strip markdown code fences if present
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsRune(s[:nl], ' ') {
			s = s[nl+1:] // language tag
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Answer:")
	return strings.TrimSpace(s)
}
