package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"holdings/internal/config"
	"holdings/internal/source/memory"
)

const seed = `[
 {"id":"1","category":"VEHICLE","vehicle":{"model":"X5","purchasePrice":200000,"currentValue":180000}},
 {"id":"2","category":"BANK_ACCOUNT","bankAccount":{"accountName":"Savings","currentBalance":50000}}
]`

func writeSeed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, memory.SeedFile), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "rest", UpstreamURL: "http://up", UpstreamTimeout: time.Second}
	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if bc.Type != RESTBackend || bc.UpstreamURL != "http://up" {
		t.Fatalf("unexpected config %+v", bc)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"rest without url", Config{Type: RESTBackend, UpstreamTimeout: time.Second}, true},
		{"rest without timeout", Config{Type: RESTBackend, UpstreamURL: "http://up"}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: writeSeed(t)})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Close()
	if res.Snapshots != nil {
		t.Fatal("no snapshot store expected without a SQLite path")
	}
	records, err := res.Backend.ListHoldings(ctx)
	if err != nil || len(records) != 2 {
		t.Fatalf("ListHoldings = %d, %v", len(records), err)
	}
}

func TestCreateSQLiteBackendSeedsOnce(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		Type:          SQLiteBackend,
		SQLiteDBPath:  filepath.Join(t.TempDir(), "holdings.db"),
		DataDirectory: writeSeed(t),
	}

	for i := 0; i < 2; i++ {
		res, err := NewFactory(nil).CreateBackend(ctx, cfg)
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		records, err := res.Backend.ListHoldings(ctx)
		if err != nil || len(records) != 2 {
			t.Fatalf("pass %d: ListHoldings = %d, %v", i, len(records), err)
		}
		if res.Snapshots == nil {
			t.Fatal("sqlite backend should provide snapshots")
		}
		if err := res.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
}

func TestCreateRESTBackendWithSnapshots(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:            RESTBackend,
		UpstreamURL:     "http://127.0.0.1:1",
		UpstreamTimeout: time.Second,
		SQLiteDBPath:    filepath.Join(t.TempDir(), "snapshots.db"),
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Close()
	if res.Snapshots == nil {
		t.Fatal("expected snapshot store")
	}
}
