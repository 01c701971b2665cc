package nemweb

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func zipBytes(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(name)
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	f.Write([]byte(content))
	w.Close()
	return buf.Bytes()
}

func testClient(base string) *Client {
	c := NewClient()
	c.DispatchURL = base + "/Reports/Current/DispatchIS_Reports/"
	c.PredispatchURL = base + "/Reports/Current/PredispatchIS_Reports/"
	c.RetryDelay = 0
	return c
}

func TestFetchDispatch_PicksNewestArchive(t *testing.T) {
	archive := zipBytes(t, "PUBLIC_DISPATCHIS_202602271400.CSV", dispatchCSV)

	mux := http.NewServeMux()
	mux.HandleFunc("/Reports/Current/DispatchIS_Reports/", func(w http.ResponseWriter, r *http.Request) {
		// Root-absolute uppercase HREFs, deliberately unsorted.
		fmt.Fprint(w, `<html>
<A HREF="/Reports/Current/DispatchIS_Reports/PUBLIC_DISPATCHIS_202602271400_001.zip">new</A>
<A HREF="/Reports/Current/DispatchIS_Reports/PUBLIC_DISPATCHIS_202602271355_001.zip">old</A>
</html>`)
	})
	mux.HandleFunc("/Reports/Current/DispatchIS_Reports/PUBLIC_DISPATCHIS_202602271400_001.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})
	mux.HandleFunc("/Reports/Current/DispatchIS_Reports/PUBLIC_DISPATCHIS_202602271355_001.zip", func(w http.ResponseWriter, r *http.Request) {
		t.Error("fetched the older archive")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	records, err := testClient(srv.URL).FetchDispatch(context.Background())
	if err != nil {
		t.Fatalf("FetchDispatch: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %+v, want 2", records)
	}
}

func TestFetchDispatch_RelativeHref(t *testing.T) {
	archive := zipBytes(t, "entry.CSV", dispatchCSV)

	mux := http.NewServeMux()
	mux.HandleFunc("/Reports/Current/DispatchIS_Reports/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="PUBLIC_DISPATCHIS_202602271400_001.zip">latest</a>`)
	})
	mux.HandleFunc("/Reports/Current/DispatchIS_Reports/PUBLIC_DISPATCHIS_202602271400_001.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	records, err := testClient(srv.URL).FetchDispatch(context.Background())
	if err != nil {
		t.Fatalf("FetchDispatch: %v", err)
	}
	if len(records) == 0 {
		t.Error("no records from relative-href listing")
	}
}

func TestFetch_RetriesThenFails(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchDispatch(context.Background())
	if err == nil {
		t.Fatal("FetchDispatch should fail after exhausting retries")
	}
	if got := hits.Load(); got != fetchAttempts {
		t.Errorf("listing hits = %d, want %d", got, fetchAttempts)
	}
}

func TestFetch_RetryThenSucceed(t *testing.T) {
	archive := zipBytes(t, "entry.CSV", dispatchCSV)
	var hits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/Reports/Current/DispatchIS_Reports/", func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `<a href="PUBLIC_DISPATCHIS_1.zip">x</a>`)
	})
	mux.HandleFunc("/Reports/Current/DispatchIS_Reports/PUBLIC_DISPATCHIS_1.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	records, err := testClient(srv.URL).FetchDispatch(context.Background())
	if err != nil {
		t.Fatalf("FetchDispatch after one retry: %v", err)
	}
	if len(records) == 0 {
		t.Error("no records after retry")
	}
}

func TestFetchPredispatch(t *testing.T) {
	csv := `I,PREDISPATCH,REGION_PRICES,1,REGIONID,RRP,DATETIME
D,PREDISPATCH,REGION_PRICES,1,NSW1,310.00,"2026/02/27 15:00:00"`
	archive := zipBytes(t, "entry.CSV", csv)

	mux := http.NewServeMux()
	mux.HandleFunc("/Reports/Current/PredispatchIS_Reports/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="PUBLIC_PREDISPATCHIS_1.zip">x</a>`)
	})
	mux.HandleFunc("/Reports/Current/PredispatchIS_Reports/PUBLIC_PREDISPATCHIS_1.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	records, err := testClient(srv.URL).FetchPredispatch(context.Background())
	if err != nil {
		t.Fatalf("FetchPredispatch: %v", err)
	}
	if len(records) != 1 || records[0].ForecastTime != "2026/02/27 15:00:00" {
		t.Errorf("records = %+v", records)
	}
}

func TestFetch_EmptyListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>nothing here</html>")
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).FetchDispatch(context.Background()); err == nil {
		t.Fatal("empty listing should fail")
	}
}
