package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	long := strings.Repeat("é", 5000)
	p := BuildPrompt(long, "Explain this content in simple terms.", 4000)

	assert.True(t, strings.HasPrefix(p, "Explain this content in simple terms.\n"))
	assert.Contains(t, p, strings.Repeat("é", 4000))
	assert.NotContains(t, p, strings.Repeat("é", 4001))
	assert.Contains(t, p, "2-3 practical real-world examples")
	assert.Contains(t, p, "A summary of key points")
}

func TestBuildPrompt_DefaultLimit(t *testing.T) {
	p := BuildPrompt(strings.Repeat("a", DefaultMaxInputChars+10), "Go", 0)
	assert.Contains(t, p, strings.Repeat("a", DefaultMaxInputChars))
	assert.NotContains(t, p, strings.Repeat("a", DefaultMaxInputChars+1))
}

func TestStub(t *testing.T) {
	out, err := Stub{}.Explain(context.Background(), "short text", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "Explanation: short text... [Text generator not available]", out)

	out, err = Stub{}.Explain(context.Background(), strings.Repeat("x", 900), "")
	require.NoError(t, err)
	assert.Equal(t, "Explanation: "+strings.Repeat("x", 500)+"... [Text generator not available]", out)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx, Options{Provider: "stub"})
	require.NoError(t, err)
	assert.Equal(t, ProviderStub, e.Name())

	_, err = New(ctx, Options{Provider: "llama"})
	assert.Error(t, err)

	_, err = New(ctx, Options{Provider: ProviderGemini})
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	_, err = New(ctx, Options{Provider: ProviderOpenAI})
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestOpenAI_Explain(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"`+"```markdown\\nPhotosynthesis is how plants eat.\\n```"+`"}}]}`)
	}))
	defer srv.Close()

	o, err := NewOpenAI("test-key", srv.URL+"/v1/", "gpt-test", 10)
	require.NoError(t, err)
	assert.Equal(t, "openai:gpt-test", o.Name())

	out, err := o.Explain(context.Background(), "Plants convert light into sugar", "Explain")
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis is how plants eat.", out)

	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, "Plants con")
	assert.NotContains(t, got.Messages[1].Content, "Plants conv")
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	o, err := NewOpenAI("k", srv.URL+"/", "", 0)
	require.NoError(t, err)
	_, err = o.Explain(context.Background(), "text", "Explain")
	assert.ErrorContains(t, err, "empty choices")
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"```\nbody\n```", "body"},
		{"```markdown\n# Title\ntext\n```  ", "# Title\ntext"},
		{"  text with ``` inside  ", "text with ``` inside"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFences(tt.in))
	}
}

func TestPlainText(t *testing.T) {
	md := `# Photosynthesis

Plants use **sunlight** to make *sugar*. See [the wiki](https://example.com/wiki).

## Examples

- A leaf in the sun
- Algae in a pond

` + "```go\nfmt.Println(\"skip me\")\n```" + `

Use ` + "`chlorophyll`" + ` for colour.

![diagram](leaf.png)

## Summary?
Light becomes food.`

	want := strings.Join([]string{
		"Photosynthesis.",
		"Plants use sunlight to make sugar. See the wiki.",
		"Examples.",
		"A leaf in the sun",
		"Algae in a pond",
		"Use chlorophyll for colour.",
		"Summary?",
		"Light becomes food.",
	}, "\n")
	assert.Equal(t, want, PlainText(md))
}

func TestPlainText_Empty(t *testing.T) {
	assert.Equal(t, "", PlainText(""))
	assert.Equal(t, "", PlainText("```\n```"))
}
