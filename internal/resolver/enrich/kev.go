// Package enrich implements the exploit-maturity enrichment feeds wired
// into the Vulnerability Resolver: CISA's Known Exploited Vulnerabilities
// catalog and FIRST's Exploit Prediction Scoring System, adapted from
// claircore's enricher/kev and enricher/epss. Both are reduced from
// claircore's driver.EnrichmentUpdater (fetch, persist a fingerprinted
// diff, store in a database-backed enrichment table) down to a single
// fetch-and-hold-in-memory cycle per Scan call — spec.md §3 keeps no
// persistent scan state, so there is no updater/fingerprint cycle to
// participate in.
package enrich

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/bazbom/bazbom"
)

// DefaultKEVFeed mirrors claircore's enricher/kev.DefaultFeed.
const DefaultKEVFeed = `https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json`

// kevRoot mirrors the CISA KEV schema's root object, restricted to the
// fields this module consumes (see enricher/kev/kev.go's doc-linked schema).
type kevRoot struct {
	Vulnerabilities []struct {
		CVEID string `json:"cveID"`
	} `json:"vulnerabilities"`
}

// KEV is a loaded snapshot of the CISA KEV catalog, queryable by CVE ID.
type KEV struct {
	known map[string]struct{}
}

// FetchKEV downloads and parses the CISA KEV catalog from feed (DefaultKEVFeed
// if empty).
func FetchKEV(ctx context.Context, client *http.Client, feed string) (*KEV, error) {
	if feed == "" {
		feed = DefaultKEVFeed
	}
	u, err := url.Parse(feed)
	if err != nil {
		return nil, bazbom.Wrap("enrich.FetchKEV", bazbom.ErrInvalid, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, bazbom.Wrap("enrich.FetchKEV", bazbom.ErrInternal, err)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, bazbom.Wrap("enrich.FetchKEV", bazbom.ErrResolverUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, bazbom.Newf("enrich.FetchKEV", bazbom.ErrResolverUnavailable, "KEV feed returned %s", res.Status)
	}

	var root kevRoot
	if err := json.NewDecoder(io.LimitReader(res.Body, 64<<20)).Decode(&root); err != nil {
		return nil, bazbom.Wrap("enrich.FetchKEV", bazbom.ErrResolverBatchFailed, err)
	}

	known := make(map[string]struct{}, len(root.Vulnerabilities))
	for _, v := range root.Vulnerabilities {
		known[v.CVEID] = struct{}{}
	}
	return &KEV{known: known}, nil
}

// Contains reports whether cve is catalogued as known-exploited.
func (k *KEV) Contains(cve string) bool {
	if k == nil {
		return false
	}
	_, ok := k.known[cve]
	return ok
}
