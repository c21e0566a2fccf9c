package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"

	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
)

// fetch performs a GET and returns at most maxBodyBytes of a 200 response.
func fetch(ctx context.Context, client *http.Client, rawURL, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf(errFmtCreateRequest, err)
	}

	if userAgent != "" {
		req.Header.Set(headerUserAgent, userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(errWrapFmtWithCode, coreerrors.ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	return body, nil
}
