package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"holdings/internal/core"
	"holdings/internal/source"
)

const listBody = `{"data":[
 {"id":"1","category":"VEHICLE","vehicle":{"model":"X5","purchasePrice":200000,"currentValue":180000.123456789012345}},
 {"id":"2","category":"BANK_ACCOUNT","bankAccount":{"accountName":"Savings","currentBalance":50000}}
]}`

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second)
}

func TestListHoldingsUnwrapsEnvelope(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/assets" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, listBody)
	})

	records, err := c.ListHoldings(context.Background())
	if err != nil {
		t.Fatalf("ListHoldings: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
	v, ok := records[0].Payload.(core.Vehicle)
	if !ok {
		t.Fatalf("payload type %T", records[0].Payload)
	}
	if got := v.CurrentValue.String(); got != "180000.123456789012345" {
		t.Fatalf("amount lost precision: %s", got)
	}
}

func TestListHoldingsAcceptsBareArrayAndCustomPath(t *testing.T) {
	bare := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":"1","category":"OTHER","otherAsset":{"assetName":"Gold"}}]`)
	})
	records, err := bare.ListHoldings(context.Background())
	if err != nil || len(records) != 1 {
		t.Fatalf("bare array: %v, %d", err, len(records))
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"result":{"assets":[{"id":"9","category":"OTHER","otherAsset":{"assetName":"Art"}}]}}`)
	}))
	defer srv.Close()
	c := New(srv.URL, time.Second, WithEnvelopePath("$.result.assets"))
	records, err = c.ListHoldings(context.Background())
	if err != nil || len(records) != 1 || records[0].ID != "9" {
		t.Fatalf("custom path: %v, %+v", err, records)
	}
}

func TestListHoldingsSurfacesUpstreamError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"database unavailable"}`)
	})
	_, err := c.ListHoldings(context.Background())
	if !errors.Is(err, source.ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
	var uerr *source.UpstreamError
	if !errors.As(err, &uerr) || uerr.Message != "database unavailable" || uerr.Status != 500 {
		t.Fatalf("err = %#v", err)
	}
}

func TestListHoldingsMissingEnvelope(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"items":[]}`)
	})
	if _, err := c.ListHoldings(context.Background()); !errors.Is(err, source.ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
}

func TestListHoldingsCoalescesConcurrentCalls(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		io.WriteString(w, listBody)
	})

	const callers = 5
	errs := make(chan error, callers)
	for range callers {
		go func() {
			_, err := c.ListHoldings(context.Background())
			errs <- err
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	for range callers {
		if err := <-errs; err != nil {
			t.Fatalf("ListHoldings: %v", err)
		}
	}
	if n := hits.Load(); n >= callers {
		t.Fatalf("expected coalesced requests, got %d hits", n)
	}
}

func TestGetHolding(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/assets/2":
			io.WriteString(w, `{"data":{"id":"2","category":"BANK_ACCOUNT","bankAccount":{"accountName":"Savings","currentBalance":50000}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"not found"}`)
		}
	})

	rec, err := c.GetHolding(context.Background(), "2")
	if err != nil || rec.ID != "2" {
		t.Fatalf("GetHolding = %+v, %v", rec, err)
	}
	if _, err := c.GetHolding(context.Background(), "3"); !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	recs, err := c.GetHoldings(context.Background(), []string{"2", "2"})
	if err != nil || len(recs) != 2 {
		t.Fatalf("GetHoldings = %v, %v", recs, err)
	}
	if _, err := c.GetHoldings(context.Background(), []string{"2", "3"}); !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("GetHoldings err = %v", err)
	}
}

func TestCreateHolding(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("content type = %q", ct)
		}
		var rec core.RawRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			t.Errorf("decode: %v", err)
		}
		if _, ok := rec.Payload.(core.Investment); !ok {
			t.Errorf("payload type %T", rec.Payload)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data":{"id":"srv-7"}}`)
	})

	id, err := c.CreateHolding(context.Background(), core.RawRecord{
		ID:       "local",
		Category: core.CategoryInvestment,
		Payload:  core.Investment{InvestmentName: "ETF"},
	})
	if err != nil || id != "srv-7" {
		t.Fatalf("CreateHolding = %q, %v", id, err)
	}
}

func TestUnenvelopedObjectsUnderDefaultPath(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/assets/2":
			io.WriteString(w, `{"id":"2","category":"BANK_ACCOUNT","bankAccount":{"accountName":"Savings","currentBalance":50000}}`)
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"id":"srv-7"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	rec, err := c.GetHolding(context.Background(), "2")
	if err != nil {
		t.Fatalf("GetHolding: %v", err)
	}
	if b, ok := rec.Payload.(core.BankAccount); !ok || b.AccountName != "Savings" {
		t.Fatalf("payload = %#v", rec.Payload)
	}

	in := core.RawRecord{ID: "local", Category: core.CategoryOther, Payload: core.Other{AssetName: "Gold"}}
	id, err := c.CreateHolding(context.Background(), in)
	if err != nil || id != "srv-7" {
		t.Fatalf("CreateHolding = %q, %v", id, err)
	}
}

func TestCreateHoldingEmptyResponseKeepsLocalID(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	id, err := c.CreateHolding(context.Background(), core.RawRecord{
		ID:       "local",
		Category: core.CategoryOther,
		Payload:  core.Other{AssetName: "Gold"},
	})
	if err != nil || id != "local" {
		t.Fatalf("CreateHolding = %q, %v", id, err)
	}
}

func TestListHoldingsSharedFetchOutlivesFirstCaller(t *testing.T) {
	var hits atomic.Int32
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, listBody)
	})

	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	first := make(chan error, 1)
	go func() {
		_, err := c.ListHoldings(short)
		first <- err
	}()
	time.Sleep(10 * time.Millisecond)

	records, err := c.ListHoldings(context.Background())
	if err != nil {
		t.Fatalf("second caller failed with the first caller's deadline: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
	if err := <-first; !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, source.ErrFetchFailed) {
		t.Fatalf("first caller err = %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("upstream hits = %d, want 1", n)
	}
}
