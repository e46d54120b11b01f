package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type countingServer struct {
	mu     sync.Mutex
	hits   map[string]int
	prices map[string]float64
}

func (s *countingServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol := r.URL.Path[len("/v8/finance/chart/"):]
	s.hits[symbol]++
	price, ok := s.prices[symbol]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"regularMarketPrice":%g}}],"error":null}}`, price)
}

func newQuoteServer(t *testing.T, prices map[string]float64) (*countingServer, *Client) {
	t.Helper()
	cs := &countingServer{hits: map[string]int{}, prices: prices}
	srv := httptest.NewServer(http.HandlerFunc(cs.handler))
	t.Cleanup(srv.Close)
	return cs, NewClient(16, time.Minute, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestGetPriceParsesAndCaches(t *testing.T) {
	cs, client := newQuoteServer(t, map[string]float64{"AAPL": 187.32})
	ctx := context.Background()

	got, ok := client.GetPrice(ctx, "AAPL")
	if !ok {
		t.Fatal("expected a price")
	}
	if !got.Equal(decimal.NewFromFloat(187.32)) {
		t.Fatalf("price = %s, want 187.32", got)
	}

	client.GetPrice(ctx, "AAPL")
	client.GetPrice(ctx, "AAPL")
	if cs.hits["AAPL"] != 1 {
		t.Fatalf("upstream hit %d times, want 1 (cache miss only)", cs.hits["AAPL"])
	}
}

func TestGetPriceUnavailable(t *testing.T) {
	_, client := newQuoteServer(t, map[string]float64{})
	if _, ok := client.GetPrice(context.Background(), "NOPE"); ok {
		t.Fatal("expected miss for unknown symbol")
	}
}

func TestPrefetchWarmsCache(t *testing.T) {
	cs, client := newQuoteServer(t, map[string]float64{"AAPL": 190, "2330.TW": 785.5})
	ctx := context.Background()

	client.Prefetch(ctx, []string{"AAPL", "2330.TW", "AAPL", ""})

	if cs.hits["AAPL"] != 1 || cs.hits["2330.TW"] != 1 {
		t.Fatalf("prefetch hits = %v, want one per distinct symbol", cs.hits)
	}

	// Both quotes must now come from cache.
	client.GetPrice(ctx, "AAPL")
	client.GetPrice(ctx, "2330.TW")
	if cs.hits["AAPL"] != 1 || cs.hits["2330.TW"] != 1 {
		t.Fatalf("cache not warmed: %v", cs.hits)
	}
}

func TestStaticOracle(t *testing.T) {
	s := Static{"TSLA": decimal.NewFromInt(250)}
	if p, ok := s.GetPrice(context.Background(), "TSLA"); !ok || !p.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("static price = %s, %v", p, ok)
	}
	if _, ok := s.GetPrice(context.Background(), "AAPL"); ok {
		t.Fatal("expected miss")
	}
}
