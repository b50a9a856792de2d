package enrich

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/bazbom/bazbom"
)

// DefaultEPSSBaseURL mirrors claircore's enricher/epss.DefaultBaseURL.
const DefaultEPSSBaseURL = `https://epss.cyentia.com/`

// EPSS is a loaded snapshot of a daily FIRST EPSS score feed, queryable by
// CVE ID.
type EPSS struct {
	scores map[string]float64
}

// FetchEPSS downloads and parses the most recent FIRST EPSS feed
// (yesterday's daily snapshot — today's isn't published until later in the
// day, same assumption claircore's enricher/epss.currentFeedURL makes).
func FetchEPSS(ctx context.Context, client *http.Client, baseURL string, now time.Time) (*EPSS, error) {
	if baseURL == "" {
		baseURL = DefaultEPSSBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, bazbom.Wrap("enrich.FetchEPSS", bazbom.ErrInvalid, err)
	}
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	u.Path = path.Join(u.Path, "epss_scores-"+yesterday+".csv.gz")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, bazbom.Wrap("enrich.FetchEPSS", bazbom.ErrInternal, err)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, bazbom.Wrap("enrich.FetchEPSS", bazbom.ErrResolverUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, bazbom.Newf("enrich.FetchEPSS", bazbom.ErrResolverUnavailable, "EPSS feed returned %s", res.Status)
	}

	gz, err := gzip.NewReader(res.Body)
	if err != nil {
		return nil, bazbom.Wrap("enrich.FetchEPSS", bazbom.ErrResolverBatchFailed, err)
	}
	defer gz.Close()

	r := csv.NewReader(gz)
	r.FieldsPerRecord = -1 // the metadata line has two fields, not three
	r.Comment = 0          // the metadata line starts with '#'; read and discard it explicitly below

	if _, err := r.Read(); err != nil { // "#model_version:...,score_date:..." metadata line
		return nil, bazbom.Wrap("enrich.FetchEPSS", bazbom.ErrResolverBatchFailed, err)
	}
	r.FieldsPerRecord = 3
	if _, err := r.Read(); err != nil { // CSV header line: cve,epss,percentile
		return nil, bazbom.Wrap("enrich.FetchEPSS", bazbom.ErrResolverBatchFailed, err)
	}

	scores := make(map[string]float64)
	for {
		record, err := r.Read()
		if err != nil {
			break // io.EOF, or a malformed trailing row; either way, stop
		}
		cve := strings.TrimSpace(record[0])
		score, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		scores[cve] = score
	}
	return &EPSS{scores: scores}, nil
}

// Score returns cve's EPSS exploit-probability estimate, or -1 if no record
// exists, per spec.md §4.4 item 4's "-1 means no record" convention.
func (e *EPSS) Score(cve string) float64 {
	if e == nil {
		return -1
	}
	if s, ok := e.scores[cve]; ok {
		return s
	}
	return -1
}
