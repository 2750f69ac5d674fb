package analyze

import (
	"context"
	"fmt"
	"time"

	llmhttp "github.com/FaridSuleymanov/sibyl/internal/adapter/llm/http"
)

type invokeOutcome struct {
	text string
	err  error
}

// invokeWithDeadline runs call and races it against budget. First to finish
// wins. On expiry the in-flight call is abandoned, not cancelled: its
// eventual result lands in the buffered channel and is garbage collected,
// so the loser can never touch state the caller still holds. Callers that
// need true cancellation must wrap the underlying transport.
func invokeWithDeadline(ctx context.Context, label string, budget time.Duration, call func(context.Context) (string, error)) (string, error) {
	done := make(chan invokeOutcome, 1)

	go func() {
		text, err := call(ctx)
		done <- invokeOutcome{text: text, err: err}
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case outcome := <-done:
		return outcome.text, outcome.err
	case <-timer.C:
		return "", llmhttp.NewTimeoutError(label, fmt.Sprintf("no response within %s", budget))
	}
}
