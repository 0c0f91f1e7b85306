package pesapal

import (
	"strings"

	"github.com/sokohub/sokohub-backend/pkg/enums"
)

// NormalizeStatus maps the gateway's status vocabulary onto the platform's
// payment statuses. Unrecognized values normalize to pending so an odd
// description never confirms or fails an order; the gateway will call back
// again once the payment settles.
func NormalizeStatus(description string) enums.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(description)) {
	case "COMPLETED":
		return enums.PaymentStatusCompleted
	case "PENDING":
		return enums.PaymentStatusPending
	case "FAILED", "REVERSED":
		return enums.PaymentStatusFailed
	case "INVALID":
		return enums.PaymentStatusInvalid
	default:
		return enums.PaymentStatusPending
	}
}

// NormalizedStatus reports the platform payment status for this transaction.
func (t *TransactionStatus) NormalizedStatus() enums.PaymentStatus {
	if t == nil {
		return enums.PaymentStatusInvalid
	}
	return NormalizeStatus(t.PaymentStatusDescription)
}
