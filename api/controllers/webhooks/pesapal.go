package webhooks

import (
	"net/http"
	"strings"

	"github.com/sokohub/sokohub-backend/api/responses"
	"github.com/sokohub/sokohub-backend/api/validators"
	internalwebhooks "github.com/sokohub/sokohub-backend/internal/webhooks"
	"github.com/sokohub/sokohub-backend/pkg/logger"
)

// PesapalIPN handles payment notifications. Pesapal can deliver them as a
// GET with query parameters or a POST with a JSON body, so both are
// accepted.
func PesapalIPN(svc internalwebhooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input internalwebhooks.IPNInput

		if r.Method == http.MethodPost && strings.Contains(r.Header.Get("Content-Type"), "application/json") {
			if err := validators.DecodeJSONBody(r, &input); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		} else {
			query := r.URL.Query()
			input.OrderTrackingID = strings.TrimSpace(query.Get("OrderTrackingId"))
			input.MerchantReference = strings.TrimSpace(query.Get("OrderMerchantReference"))
			input.NotificationType = strings.TrimSpace(query.Get("OrderNotificationType"))
		}

		result, err := svc.HandleIPN(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
