package query

import (
	"testing"

	"github.com/poiesic/quarry/core"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"What is Python?", "what is python?"},
		{"Please, could you explain the GIL!", "you explain gil"},
		{"Node.js, it's great", "node js its great"},
		{"  spaced\t\nout  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestExtractKeywords(t *testing.T) {
	assert.Equal(t, []string{"install", "python", "linux"}, ExtractKeywords("how to install python on linux"))
	assert.Equal(t, []string{"python"}, ExtractKeywords("what is python?"))
	assert.Equal(t, []string{"channels"}, ExtractKeywords("go channels go channels"))
	assert.Empty(t, ExtractKeywords("is it ok"))
}

func TestParser_Parse(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name     string
		query    string
		wantType core.QueryType
		subject  string
		action   string
		context  string
		keywords []string
	}{
		{
			name:     "definition question",
			query:    "What is Python?",
			wantType: core.QueryTypeQuestion,
			subject:  "python",
			keywords: []string{"python"},
		},
		{
			name:     "how to",
			query:    "How to install Python on Linux",
			wantType: core.QueryTypeHowTo,
			subject:  "python on linux",
			action:   "install python on linux",
			keywords: []string{"install", "python", "linux"},
		},
		{
			name:     "comparison",
			query:    "Python vs Go",
			wantType: core.QueryTypeComparison,
			subject:  "python",
			context:  "go",
			keywords: []string{"python"},
		},
		{
			name:     "difference between",
			query:    "Difference between TCP and UDP",
			wantType: core.QueryTypeComparison,
			subject:  "tcp",
			context:  "udp",
			keywords: []string{"difference", "tcp", "udp"},
		},
		{
			name:     "define",
			query:    "Define recursion",
			wantType: core.QueryTypeDefinition,
			subject:  "recursion",
			keywords: []string{"define", "recursion"},
		},
		{
			name:     "example",
			query:    "Examples of Go channels",
			wantType: core.QueryTypeExample,
			keywords: []string{"examples", "channels"},
		},
		{
			name:     "keyword",
			query:    "kubernetes pod networking",
			wantType: core.QueryTypeKeyword,
			keywords: []string{"kubernetes", "pod", "networking"},
		},
		{
			name:     "filler words dropped",
			query:    "Please, could you explain the GIL!",
			wantType: core.QueryTypeKeyword,
			keywords: []string{"explain", "gil"},
		},
		{
			name:     "only punctuation",
			query:    "???",
			wantType: core.QueryTypeUnknown,
			keywords: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := p.Parse(tt.query)

			assert.Equal(t, tt.query, parsed.Original)
			assert.Equal(t, tt.wantType, parsed.Type)
			assert.Equal(t, tt.subject, parsed.Subject)
			assert.Equal(t, tt.action, parsed.Action)
			assert.Equal(t, tt.context, parsed.Context)
			assert.Equal(t, tt.keywords, parsed.Keywords)
			assert.Contains(t, parsed.Metadata, "word_count")
		})
	}
}
