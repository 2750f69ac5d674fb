package static_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/FaridSuleymanov/sibyl/internal/adapter/llm/static"
	"github.com/FaridSuleymanov/sibyl/internal/usecase/analyze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Complete_Prose(t *testing.T) {
	client := static.NewClient("stub-model")

	text, err := client.Complete(context.Background(), analyze.CompletionRequest{
		System: "You are a tactical advisor.",
		Prompt: "Assess the situation.",
	})

	require.NoError(t, err)
	assert.Contains(t, text, "stub-model")
}

func TestClient_Complete_VerdictJSON(t *testing.T) {
	client := static.NewClient("stub-model")

	text, err := client.Complete(context.Background(), analyze.CompletionRequest{
		System: "Respond with exactly one raw JSON object.",
		Prompt: "Synthesize.",
	})

	require.NoError(t, err)
	var verdict map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &verdict))
	assert.Contains(t, verdict, "safetyCoefficient")
	assert.Contains(t, verdict, "psychoPassColor")
}

func TestClient_Complete_RespectsCancellation(t *testing.T) {
	client := static.NewClient("stub-model")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, analyze.CompletionRequest{Prompt: "p"})
	assert.Error(t, err)
}
