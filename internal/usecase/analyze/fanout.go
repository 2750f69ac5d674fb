package analyze

import (
	"context"
	"fmt"
	"sync"

	"github.com/FaridSuleymanov/sibyl/internal/domain"
)

// fanOut runs the three perspective pipelines concurrently and joins on all
// of them. Results land in declaration-order slots, so downstream ordering
// never depends on completion order. Errors are collected only after the
// join, on the coordinating goroutine; pipelines never touch the shared
// list. A panic or exhaustion in one pipeline degrades that slot and leaves
// the others untouched.
func (e *Engine) fanOut(ctx context.Context, prompt, query string, hasEnvContext bool) ([domain.PerspectiveCount]domain.CoreResult, []string) {
	var results [domain.PerspectiveCount]domain.CoreResult

	var wg sync.WaitGroup
	for i, p := range domain.Perspectives() {
		wg.Add(1)
		go func(slot int, p domain.Perspective) {
			defer func() {
				if r := recover(); r != nil {
					results[slot] = domain.CoreResult{
						Perspective: p,
						Text:        offlineText(p),
						Attempts:    1,
						Err:         fmt.Sprintf("%s core panicked: %v", p.Name(), r),
					}
				}
				wg.Done()
			}()
			results[slot] = e.runCore(ctx, p, prompt, query, hasEnvContext)
		}(i, p)
	}
	wg.Wait()

	var errs []string
	for _, res := range results {
		if res.Err != "" {
			errs = append(errs, res.Err)
		}
	}
	return results, errs
}
