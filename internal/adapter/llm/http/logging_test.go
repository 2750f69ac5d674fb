package http_test

import (
	"strings"
	"testing"

	llmhttp "github.com/FaridSuleymanov/sibyl/internal/adapter/llm/http"
	"github.com/stretchr/testify/assert"
)

func TestTruncateForLogging(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantSame bool
	}{
		{"short response unchanged", "all clear", true},
		{"exactly at cap unchanged", strings.Repeat("a", llmhttp.MaxLoggedResponseLength), true},
		{"long response truncated", strings.Repeat("b", llmhttp.MaxLoggedResponseLength+500), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := llmhttp.TruncateForLogging(tt.input)
			if tt.wantSame {
				assert.Equal(t, tt.input, got)
				return
			}
			assert.Contains(t, got, "[truncated")
			assert.Less(t, len(got), len(tt.input))
			assert.True(t, strings.HasPrefix(got, tt.input[:llmhttp.MaxLoggedResponseLength]))
		})
	}
}

func TestRedactURLSecrets(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "gemini key query parameter",
			input: `Post "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-pro:generateContent?key=AIzaSyABC123": dial tcp: timeout`,
			want:  `Post "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-pro:generateContent?key=[REDACTED]": dial tcp: timeout`,
		},
		{
			name:  "api_key parameter",
			input: "request to https://example.com/v1?api_key=secret123&model=x failed",
			want:  "request to https://example.com/v1?api_key=[REDACTED]&model=x failed",
		},
		{
			name:  "token parameter",
			input: "https://example.com/auth?token=tok-abcdef",
			want:  "https://example.com/auth?token=[REDACTED]",
		},
		{
			name:  "access_token parameter",
			input: "https://example.com/auth?access_token=tok-abcdef refused",
			want:  "https://example.com/auth?access_token=[REDACTED] refused",
		},
		{
			name:  "no secrets unchanged",
			input: "connection refused",
			want:  "connection refused",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llmhttp.RedactURLSecrets(tt.input))
		})
	}
}
