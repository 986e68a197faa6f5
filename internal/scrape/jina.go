package scrape

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/broker-catalog/internal/resilience"
	"github.com/sells-group/broker-catalog/pkg/jina"
)

// JinaAdapter fetches pages through the Jina Reader proxy behind a circuit
// breaker, so a flaky proxy is skipped instead of slowing every record.
type JinaAdapter struct {
	client  jina.Client
	breaker *resilience.CircuitBreaker
}

// NewJinaAdapter wraps client. Three consecutive failures open the circuit
// for a minute.
func NewJinaAdapter(client jina.Client) *JinaAdapter {
	return &JinaAdapter{
		client: client,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "jina",
			FailureThreshold: 3,
			ResetTimeout:     time.Minute,
		}),
	}
}

func (j *JinaAdapter) Name() string { return "jina" }

// Supports is false while the circuit is open.
func (j *JinaAdapter) Supports(_ string) bool {
	return j.breaker.State() != resilience.CircuitOpen
}

// Scrape reads targetURL as HTML through the proxy.
func (j *JinaAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	return resilience.ExecuteVal(ctx, j.breaker, func(ctx context.Context) (*Result, error) {
		resp, err := j.client.Read(ctx, targetURL, jina.WithFormat(jina.FormatHTML))
		if err != nil {
			return nil, err
		}
		if reason := unusable(resp); reason != "" {
			return nil, eris.Errorf("jina: %s", reason)
		}
		return &Result{
			Page: Page{
				URL:        targetURL,
				Title:      resp.Data.Title,
				HTML:       resp.Data.Content,
				StatusCode: 200,
			},
			Source: j.Name(),
		}, nil
	})
}

// unusable explains why a reader response cannot be used, or returns "".
func unusable(resp *jina.ReadResponse) string {
	if resp == nil {
		return "empty response"
	}
	if resp.Code != 0 && resp.Code != 200 {
		return "upstream code " + strconv.Itoa(resp.Code)
	}
	content := strings.TrimSpace(resp.Data.Content)
	if len(content) < 100 {
		return "content too short"
	}
	if blocked, kind := DetectBlockContent(content); blocked {
		return "blocked (" + string(kind) + ")"
	}
	return ""
}
