package supplier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"staygate/models"
)

func newClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPClient(server.URL, "test-key", 2*time.Second, 3, zap.NewNop()), server
}

func writeData(w http.ResponseWriter, data any) {
	raw, _ := json.Marshal(data)
	_ = json.NewEncoder(w).Encode(map[string]json.RawMessage{"data": raw})
}

func writeError(w http.ResponseWriter, code, message string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func TestSearchDecodesRates(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		writeData(w, []models.Rate{
			{MatchHash: "mh-1", Price: 950, Currency: "USD", Refundable: true},
		})
	}))

	rates, err := client.Search(context.Background(), models.SearchRequest{HotelID: "h-1"})
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "mh-1", rates[0].MatchHash)
	assert.Equal(t, 950.0, rates[0].Price)
}

func TestLockRetriesServerErrors(t *testing.T) {
	var calls int32
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeData(w, models.LockResult{BookHash: "bh-1", Price: 950})
	}))

	lock, err := client.LockRate(context.Background(), "mh-1")
	require.NoError(t, err)
	assert.Equal(t, "bh-1", lock.BookHash)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestLockGivesUpAfterRetryBudget(t *testing.T) {
	var calls int32
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.LockRate(context.Background(), "mh-1")
	assert.True(t, IsTransient(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSubmitNeverRetries(t *testing.T) {
	var calls int32
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := client.SubmitBooking(context.Background(), "corr-1", models.GuestDetails{}, models.PaymentOption{})
	assert.True(t, IsTransient(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls),
		"a write with an unknown outcome must not be replayed by the transport layer")
}

func TestRejectionIsNotRetried(t *testing.T) {
	var calls int32
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeError(w, CodeRestricted, "sandbox accounts cannot book this rate")
	}))

	_, err := client.CreateBookingForm(context.Background(), "corr-1", "bh-1")
	assert.True(t, IsRejected(err))
	assert.Equal(t, CodeRestricted, RejectionCode(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestStatusCarriesErrorCode(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "corr-1", body["correlationId"])
		writeData(w, models.StatusResult{Status: models.SupplierStatusError, ErrorCode: CodeInsufficientBalance})
	}))

	status, err := client.Status(context.Background(), "corr-1")
	require.NoError(t, err)
	assert.Equal(t, models.SupplierStatusError, status.Status)
	assert.Equal(t, CodeInsufficientBalance, status.ErrorCode)
}
