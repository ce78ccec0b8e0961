package leadsource

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/billingcat/leadboard/leadtable"
	"github.com/redis/go-redis/v9"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
	leads []leadtable.Lead
	err   error
}

func (s *countingSource) FetchLeads(_ context.Context, _ Query) ([]leadtable.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.leads, s.err
}

func newTestCache(t *testing.T, next Source) (*CachedSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCachedSource(next, rdb, 30*time.Second, logger), mr
}

func TestCachedSource_HitAndMiss(t *testing.T) {
	next := &countingSource{leads: []leadtable.Lead{{ID: "1", CompanyName: "Acme"}}}
	cache, mr := newTestCache(t, next)
	ctx := context.Background()
	q := Query{Role: leadtable.RoleDataAnalyst}

	for i := 0; i < 3; i++ {
		leads, err := cache.FetchLeads(ctx, q)
		if err != nil {
			t.Fatalf("FetchLeads failed: %v", err)
		}
		if len(leads) != 1 || leads[0].CompanyName != "Acme" {
			t.Fatalf("leads = %+v", leads)
		}
	}
	if next.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", next.calls)
	}
	if !mr.Exists("leadboard:leads:data_analyst:all") {
		t.Error("cache key not written")
	}
	if ttl := mr.TTL("leadboard:leads:data_analyst:all"); ttl != 30*time.Second {
		t.Errorf("TTL = %v, want 30s", ttl)
	}

	mr.FastForward(31 * time.Second)
	if _, err := cache.FetchLeads(ctx, q); err != nil {
		t.Fatalf("FetchLeads failed: %v", err)
	}
	if next.calls != 2 {
		t.Errorf("upstream calls after expiry = %d, want 2", next.calls)
	}
}

func TestCachedSource_Invalidate(t *testing.T) {
	next := &countingSource{leads: []leadtable.Lead{}}
	cache, _ := newTestCache(t, next)
	ctx := context.Background()
	q := Query{Role: leadtable.RoleSalesExecutive, SelectedUserID: "7"}

	_, _ = cache.FetchLeads(ctx, q)
	if err := cache.Invalidate(ctx, q); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	_, _ = cache.FetchLeads(ctx, q)
	if next.calls != 2 {
		t.Errorf("upstream calls = %d, want 2", next.calls)
	}
}

func TestCachedSource_RedisDown(t *testing.T) {
	next := &countingSource{leads: []leadtable.Lead{{ID: "1"}}}
	cache, mr := newTestCache(t, next)
	mr.Close()

	leads, err := cache.FetchLeads(context.Background(), Query{Role: leadtable.RoleGrowthManager})
	if err != nil {
		t.Fatalf("FetchLeads must fall through on redis errors: %v", err)
	}
	if len(leads) != 1 {
		t.Errorf("len = %d, want 1", len(leads))
	}
}

func TestCachedSource_UpstreamError(t *testing.T) {
	boom := errors.New("boom")
	cache, mr := newTestCache(t, &countingSource{err: boom})
	if _, err := cache.FetchLeads(context.Background(), Query{Role: leadtable.RoleDataAnalyst}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("errors must not be cached, keys = %v", mr.Keys())
	}
}
