package payment

// TxStatus is the internal status a provider code maps to. Values match the
// order status enumeration so callers can convert directly.
type TxStatus string

const (
	TxProcessing TxStatus = "PROCESSING"
	TxCompleted  TxStatus = "COMPLETED"
	TxFailed     TxStatus = "FAILED"
	TxReversed   TxStatus = "REVERSED"
)

// Canonical provider status codes, following Pesapal's numbering. The other
// adapters translate their provider-specific statuses into this table.
const (
	CodeInvalid   = 0
	CodeCompleted = 1
	CodeFailed    = 2
	CodeReversed  = 3

	// CodePending extends the table for providers that report an explicit
	// in-flight state (Stripe open sessions, Flutterwave pending charges);
	// Pesapal's own numbering stops at reversed.
	CodePending = 4
)

// MapStatusCode maps a provider numeric status code to the internal status
// and paid flag. A state the provider reports as in-flight stays PROCESSING
// so polling during payment never flips the order to a terminal status.
// Unrecognised codes map to FAILED: leaving an order in-flight on an unknown
// code would strand it in PENDING forever, and a later reconciliation with a
// known code overwrites the result.
func MapStatusCode(code int) (TxStatus, bool) {
	switch code {
	case CodeCompleted:
		return TxCompleted, true
	case CodePending:
		return TxProcessing, false
	case CodeFailed:
		return TxFailed, false
	case CodeReversed:
		return TxReversed, false
	default:
		return TxFailed, false
	}
}
