package pesapal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sokohub/sokohub-backend/pkg/config"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	"github.com/sokohub/sokohub-backend/pkg/logger"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client, err := NewClient(context.Background(), config.PesapalConfig{
		BaseURL:         baseURL,
		ConsumerKey:     "key",
		ConsumerSecret:  "secret",
		AuthMaxAttempts: 3,
		AuthBackoffBase: time.Millisecond,
		HTTPTimeout:     2 * time.Second,
	}, logg, nil)
	require.NoError(t, err)
	return client
}

func TestNewClientSelectsBaseURLByEnvironment(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	base := config.PesapalConfig{ConsumerKey: "key", ConsumerSecret: "secret"}

	cases := []struct {
		name    string
		env     string
		baseURL string
		want    string
	}{
		{"default is sandbox", "", "", sandboxBaseURL},
		{"sandbox", "sandbox", "", sandboxBaseURL},
		{"live", "live", "", productionBaseURL},
		{"production alias", "production", "", productionBaseURL},
		{"explicit override wins", "live", "https://proxy.example.com/pesapal/", "https://proxy.example.com/pesapal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			cfg.Env = tc.env
			cfg.BaseURL = tc.baseURL
			client, err := NewClient(context.Background(), cfg, logg, nil)
			require.NoError(t, err)
			require.Equal(t, tc.want, client.baseURL)
		})
	}
}

func authOK(w http.ResponseWriter) {
	_ = json.NewEncoder(w).Encode(authResponse{
		Token:      "tok-1",
		ExpiryDate: time.Now().Add(5 * time.Minute).Format(time.RFC3339),
	})
}

func TestAuthenticateCachesToken(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, authPath, r.URL.Path)
		calls.Add(1)
		authOK(w)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	token, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", token)

	_, err = client.Authenticate(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load(), "second call should reuse cached token")

	client.InvalidateToken()
	_, err = client.Authenticate(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestAuthenticateRetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		authOK(w)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	token, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", token)
	require.Equal(t, int32(3), calls.Load())
}

func TestAuthenticateDoesNotRetryCredentialRejection(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	_, err := client.Authenticate(context.Background())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeGatewayAuth, typed.Code())
	require.Equal(t, int32(1), calls.Load(), "credential rejection must not be retried")
}

func TestSubmitOrderSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case authPath:
			authOK(w)
		case submitOrderPath:
			require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			var params SubmitOrderParams
			require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
			require.Equal(t, "order-42", params.MerchantReference)
			_ = json.NewEncoder(w).Encode(OrderSubmission{
				OrderTrackingID:   "track-1",
				MerchantReference: params.MerchantReference,
				RedirectURL:       "https://pay.pesapal.test/track-1",
				Status:            "200",
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	submission, err := client.SubmitOrder(context.Background(), SubmitOrderParams{
		MerchantReference: "order-42",
		Currency:          "KES",
		Amount:            decimal.NewFromInt(1500),
		Description:       "order 42",
		CallbackURL:       "https://shop.test/payments/callback",
		NotificationID:    "ipn-1",
		BillingAddress:    BillingAddress{EmailAddress: "buyer@shop.test"},
	})
	require.NoError(t, err)
	require.Equal(t, "track-1", submission.OrderTrackingID)
	require.Equal(t, "https://pay.pesapal.test/track-1", submission.RedirectURL)
}

func TestSubmitOrderBusinessRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == authPath {
			authOK(w)
			return
		}
		_ = json.NewEncoder(w).Encode(OrderSubmission{
			Error: &apiError{Code: "invalid_currency", Message: "currency not supported"},
		})
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	_, err := client.SubmitOrder(context.Background(), SubmitOrderParams{MerchantReference: "order-1"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeGatewayBusiness, typed.Code())
}

func TestGetTransactionStatusNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == authPath {
			authOK(w)
			return
		}
		require.Equal(t, transactionStatusPath, r.URL.Path)
		require.Equal(t, "track-9", r.URL.Query().Get("orderTrackingId"))
		_ = json.NewEncoder(w).Encode(TransactionStatus{
			PaymentMethod:            "MPESA",
			Amount:                   decimal.NewFromInt(1500),
			PaymentStatusDescription: "Completed",
			ConfirmationCode:         "ABC123",
			MerchantReference:        "order-9",
			Currency:                 "KES",
		})
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	status, err := client.GetTransactionStatus(context.Background(), "track-9")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusCompleted, status.NormalizedStatus())
	require.Equal(t, "ABC123", status.ConfirmationCode)
}

func TestNormalizeStatus(t *testing.T) {
	require.Equal(t, enums.PaymentStatusPending, NormalizeStatus("SOMETHING_NEW"))
	require.Equal(t, enums.PaymentStatusInvalid, NormalizeStatus("INVALID"))
	require.Equal(t, enums.PaymentStatusFailed, NormalizeStatus("reversed"))
	require.Equal(t, enums.PaymentStatusPending, NormalizeStatus(" pending "))
}
