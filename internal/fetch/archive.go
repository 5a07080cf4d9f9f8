package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const waybackAvailableAPI = "https://archive.org/wayback/available"

// Archive retrieves third-party cached snapshots of pages, the first
// resort for generically paywalled outlets.
type Archive struct {
	direct *Direct
}

// NewArchive creates an archive-snapshot getter on top of the direct
// fetcher's client.
func NewArchive(direct *Direct) *Archive {
	return &Archive{direct: direct}
}

type waybackResponse struct {
	ArchivedSnapshots struct {
		Closest struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
			Status    string `json:"status"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// SnapshotURL resolves the closest archived snapshot for a page, or ""
// when none exists.
func (a *Archive) SnapshotURL(ctx context.Context, pageURL string) (string, error) {
	query := waybackAvailableAPI + "?url=" + url.QueryEscape(pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, query, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := a.direct.Do(req)
	if err != nil {
		return "", fmt.Errorf("wayback lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wayback lookup status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("read wayback response: %w", err)
	}

	var parsed waybackResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse wayback response: %w", err)
	}

	closest := parsed.ArchivedSnapshots.Closest
	if !closest.Available || closest.URL == "" {
		return "", nil
	}
	return closest.URL, nil
}

// FetchHTML retrieves the archived copy of a page. The snapshot URL is
// also returned so the caller can record provenance.
func (a *Archive) FetchHTML(ctx context.Context, pageURL string) (html, snapshotURL string, err error) {
	snapshotURL, err = a.SnapshotURL(ctx, pageURL)
	if err != nil {
		return "", "", err
	}
	if snapshotURL == "" {
		return "", "", fmt.Errorf("no archive snapshot for %s", pageURL)
	}

	html, err = a.direct.FetchHTML(ctx, snapshotURL)
	if err != nil {
		return "", "", fmt.Errorf("fetch snapshot: %w", err)
	}
	return html, snapshotURL, nil
}
