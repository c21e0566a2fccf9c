package premium

import (
	"fmt"
	"io"
	"net/http"

	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
)

const maxResponseBytes = 10 << 20

// do sends req and returns the body of a 2xx response.
func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.URL.Host, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d %s", coreerrors.ErrUnexpectedStatus, resp.StatusCode, truncate(string(body)))
	}

	return body, nil
}

func truncate(s string) string {
	if len(s) > responseTruncateLen {
		return s[:responseTruncateLen] + "..."
	}

	return s
}
