package tilestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lintang-b-s/osmlr-overlay/pkg/metrics"
)

var errTileNotFound = errors.New("tile not found")

// joinURL appends path to base with exactly one slash between them.
func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// get fetches url and returns the whole body. Any status other than 200 is an error,
// 404 is reported as errTileNotFound.
func get(ctx context.Context, client *http.Client, url, kind string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	t0 := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		metrics.TileFetchTotal.WithLabelValues(kind, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		metrics.TileFetchTotal.WithLabelValues(kind, "not_found").Inc()
		return nil, fmt.Errorf("GET %s: %w", url, errTileNotFound)
	case resp.StatusCode != http.StatusOK:
		metrics.TileFetchTotal.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.TileFetchTotal.WithLabelValues(kind, "error").Inc()
		return nil, err
	}

	metrics.TileFetchTotal.WithLabelValues(kind, "ok").Inc()
	metrics.TileFetchDurationMs.WithLabelValues(kind).Observe(float64(time.Since(t0).Milliseconds()))
	return body, nil
}
