package enrich

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestKEVNilIsSafe(t *testing.T) {
	var k *KEV
	if k.Contains("CVE-2021-44228") {
		t.Fatal("nil *KEV must report every CVE as not-known-exploited")
	}
}

func TestEPSSNilIsSafe(t *testing.T) {
	var e *EPSS
	if e.Score("CVE-2021-44228") != -1 {
		t.Fatal("nil *EPSS must report -1 for every CVE")
	}
}

func TestFetchKEV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"vulnerabilities": []map[string]string{
				{"cveID": "CVE-2021-44228"},
			},
		})
	}))
	defer srv.Close()

	kev, err := FetchKEV(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("FetchKEV: %v", err)
	}
	if !kev.Contains("CVE-2021-44228") {
		t.Fatal("expected CVE-2021-44228 to be known-exploited")
	}
	if kev.Contains("CVE-0000-00000") {
		t.Fatal("expected an uncatalogued CVE to report false")
	}
}

func TestFetchKEVServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := FetchKEV(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("expected an error for a non-200 KEV feed response")
	}
}

func TestFetchEPSS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		gz.Write([]byte("#model_version:v2023.03.01,score_date:2023-06-01\n"))
		gz.Write([]byte("cve,epss,percentile\n"))
		gz.Write([]byte("CVE-2021-44228,0.97,0.99\n"))
		gz.Close()
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	epss, err := FetchEPSS(context.Background(), srv.Client(), srv.URL, time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchEPSS: %v", err)
	}
	if got := epss.Score("CVE-2021-44228"); got != 0.97 {
		t.Fatalf("Score() = %v, want 0.97", got)
	}
	if got := epss.Score("CVE-0000-00000"); got != -1 {
		t.Fatalf("Score() for unknown CVE = %v, want -1", got)
	}
}
