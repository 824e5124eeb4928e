package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFindMatchingPaymentMatchesRow(t *testing.T) {
	srv := feedServer(t, `{"data":[
		{"description":"coffee","amount":45000},
		{"description":"pay SESSION1700000000000","amount":150000}
	]}`)

	poller := NewLedgerPoller(srv.URL, 1000, 2*time.Second)
	assert.True(t, poller.FindMatchingPayment(context.Background(), "SESSION1700000000000", 150000))
}

func TestFindMatchingPaymentStringAmount(t *testing.T) {
	srv := feedServer(t, `{"data":[{"description":"pay SESSION1700000000000","amount":"149500"}]}`)

	poller := NewLedgerPoller(srv.URL, 1000, 2*time.Second)
	assert.True(t, poller.FindMatchingPayment(context.Background(), "SESSION1700000000000", 150000))
}

func TestFindMatchingPaymentAmountOutsideTolerance(t *testing.T) {
	srv := feedServer(t, `{"data":[{"description":"pay SESSION1700000000000","amount":148000}]}`)

	poller := NewLedgerPoller(srv.URL, 1000, 2*time.Second)
	assert.False(t, poller.FindMatchingPayment(context.Background(), "SESSION1700000000000", 150000))
}

func TestFindMatchingPaymentNoDescriptionMatch(t *testing.T) {
	srv := feedServer(t, `{"data":[{"description":"pay SESSION999","amount":150000}]}`)

	poller := NewLedgerPoller(srv.URL, 1000, 2*time.Second)
	assert.False(t, poller.FindMatchingPayment(context.Background(), "SESSION1700000000000", 150000))
}

func TestFindMatchingPaymentFailsOpenOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	poller := NewLedgerPoller(srv.URL, 1000, 2*time.Second)
	assert.False(t, poller.FindMatchingPayment(context.Background(), "SESSION1700000000000", 150000))
}

func TestFindMatchingPaymentFailsOpenOnBadJSON(t *testing.T) {
	srv := feedServer(t, `{"data": not json`)

	poller := NewLedgerPoller(srv.URL, 1000, 2*time.Second)
	assert.False(t, poller.FindMatchingPayment(context.Background(), "SESSION1700000000000", 150000))
}

func TestFindMatchingPaymentFailsOpenOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	poller := NewLedgerPoller(srv.URL, 1000, 50*time.Millisecond)

	start := time.Now()
	matched := poller.FindMatchingPayment(context.Background(), "SESSION1700000000000", 150000)
	assert.False(t, matched)
	assert.Less(t, time.Since(start), 400*time.Millisecond, "poller must not wait out the slow feed")
}

func TestFindMatchingPaymentFailsOpenWithoutFeedURL(t *testing.T) {
	poller := NewLedgerPoller("", 1000, time.Second)
	assert.False(t, poller.FindMatchingPayment(context.Background(), "SESSION1700000000000", 150000))
}
