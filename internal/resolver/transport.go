// Package resolver implements the BazBOM Vulnerability Resolver (C4):
// batched advisory lookups for the union of packages a Scan discovers,
// enriched with CISA KEV / FIRST EPSS exploit-maturity data and normalized
// onto bazbom's ordinal Severity scale.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/bazbom/bazbom"
)

// Transport performs one batched advisory query, returning every matched
// Advisory keyed by the PackageURL it affects. Grounded on claircore's
// libvuln/driver.Fetcher/driver.Updater duality (libvuln/driver/driver.go):
// the same "fetch over the network, or read from a local mirror"
// capability split, generalized from a whole-feed fetch to a per-batch
// query/response round trip.
type Transport interface {
	Query(ctx context.Context, purls []bazbom.PackageURL) (map[bazbom.PackageURL][]bazbom.Advisory, error)
}

// HTTPTransport queries a remote advisory service over HTTP, POSTing a JSON
// object whose "packages" field lists the package URLs and decoding a JSON
// object response whose "matches" field maps each URL to its advisories.
type HTTPTransport struct {
	Client   *http.Client
	Endpoint *url.URL
	// Limiter caps outgoing batch queries per second, so a large workspace's
	// many batches don't overwhelm a shared advisory service. Optional; nil
	// means unlimited, matching rhel/internal/common.Updater's own
	// rate.Limiter-per-source pattern but applied once per Resolve call
	// instead of once per updater source.
	Limiter *rate.Limiter
}

type httpQueryResponse struct {
	Matches map[bazbom.PackageURL][]bazbom.Advisory `json:"matches"`
}

// Query implements Transport.
func (t *HTTPTransport) Query(ctx context.Context, purls []bazbom.PackageURL) (map[bazbom.PackageURL][]bazbom.Advisory, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			return nil, bazbom.Wrap("resolver.HTTPTransport.Query", bazbom.ErrResolverUnavailable, err)
		}
	}

	body, err := json.Marshal(struct {
		Packages []bazbom.PackageURL `json:"packages"`
	}{purls})
	if err != nil {
		return nil, bazbom.Wrap("resolver.HTTPTransport.Query", bazbom.ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, bazbom.Wrap("resolver.HTTPTransport.Query", bazbom.ErrInternal, err)
	}
	req.Header.Set("content-type", "application/json")

	res, err := t.Client.Do(req)
	if err != nil {
		return nil, bazbom.Wrap("resolver.HTTPTransport.Query", bazbom.ErrResolverUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, bazbom.Newf("resolver.HTTPTransport.Query", bazbom.ErrResolverBatchFailed,
			"advisory service returned %s", res.Status)
	}

	var out httpQueryResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, bazbom.Wrap("resolver.HTTPTransport.Query", bazbom.ErrResolverBatchFailed, err)
	}
	return out.Matches, nil
}

// LocalMirrorTransport reads advisories from a pre-fetched, in-memory
// mirror rather than the network — used in offline mode (Config.
// OfflineMode), and in tests. Grounded on driver.Updater's "local update
// source" half of the fetch-or-local-read duality.
type LocalMirrorTransport struct {
	Advisories map[bazbom.PackageURL][]bazbom.Advisory
}

// Query implements Transport.
func (t *LocalMirrorTransport) Query(_ context.Context, purls []bazbom.PackageURL) (map[bazbom.PackageURL][]bazbom.Advisory, error) {
	out := make(map[bazbom.PackageURL][]bazbom.Advisory, len(purls))
	for _, p := range purls {
		if adv, ok := t.Advisories[p]; ok {
			out[p] = adv
		}
	}
	return out, nil
}

// unavailableTransport always fails, used when Config.OfflineMode is set and
// no LocalMirrorTransport was supplied: every batch reports
// ErrResolverUnavailable, per spec.md §4.4's offline-mode behavior.
type unavailableTransport struct{}

// Unavailable returns a Transport every batch query fails against with
// ErrResolverUnavailable. The Orchestrator selects this when
// Config.OfflineMode is set and the caller supplied no LocalMirrorTransport,
// and also reaches for it directly to model a downed advisory service in
// tests (spec.md §8 scenario S4).
func Unavailable() Transport { return unavailableTransport{} }

func (unavailableTransport) Query(context.Context, []bazbom.PackageURL) (map[bazbom.PackageURL][]bazbom.Advisory, error) {
	return nil, bazbom.Newf("resolver.unavailableTransport.Query", bazbom.ErrResolverUnavailable,
		"offline mode: no local advisory mirror configured")
}
