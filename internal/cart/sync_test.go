package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonDecode(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func testSyncer(endpoint string, failures uint32) *Syncer {
	return NewSyncer(SyncerConfig{
		Endpoint:            endpoint,
		Timeout:             time.Second,
		ConsecutiveFailures: failures,
		BreakerTimeout:      time.Minute,
	})
}

func Test_Syncer_Push(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
		wantErr bool
	}{
		{
			name: "2xx with valid envelope",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"success":true,"message":"stored"}`))
			},
		},
		{
			name: "http 500",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: true,
		},
		{
			name: "2xx with unparsable body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`not-json`))
			},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			s := testSyncer(srv.URL, 100)
			resp, err := s.Push(context.Background(), []SyncItem{{ProductID: 1, Quantity: 2}})
			if tc.wantErr {
				var syncErr *SyncError
				require.ErrorAs(t, err, &syncErr)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.True(t, resp.Success)
		})
	}
}

func Test_Syncer_TransportError(t *testing.T) {
	// Nothing listens here; the dial fails.
	s := testSyncer("http://127.0.0.1:1", 100)
	_, err := s.Push(context.Background(), nil)
	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
}

func Test_Syncer_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := testSyncer(srv.URL, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Push(ctx, nil)
		require.Error(t, err)
	}
	assert.Equal(t, 2, hits, "an open breaker must short-circuit without hitting the endpoint")
}
