package payment

import (
	"regexp"
	"strconv"
	"time"

	"github.com/cassiomorais/qrpay/internal/domain/errors"
)

// IntentState is a state in the QR lifecycle machine.
type IntentState string

const (
	StateIdle       IntentState = "idle"
	StateInitiating IntentState = "initiating"
	StatePolling    IntentState = "polling"
	StateReady      IntentState = "ready"
	StateCounting   IntentState = "counting"
	StateExpired    IntentState = "expired"
)

// Intent is one in-progress payment attempt. It is created on initiation,
// mutated only by the coordinator's poll loop, and replaced wholesale when
// the user starts a new intent or regenerates after expiry.
type Intent struct {
	TransactionID int64
	UserID        int64
	QRCode        string
	ExpiresAt     time.Time // zero until the QR is issued
	PollAttempt   int
	CreatedAt     time.Time
}

// NewIntent creates an intent for the transaction id the backend assigned.
func NewIntent(transactionID, userID int64, now time.Time) *Intent {
	return &Intent{
		TransactionID: transactionID,
		UserID:        userID,
		CreatedAt:     now,
	}
}

// SetQR records the issued QR payload and its expiry. The two are set
// together or not at all.
func (i *Intent) SetQR(code string, expiresAt time.Time) {
	i.QRCode = code
	i.ExpiresAt = expiresAt
}

// HasQR reports whether the QR artifact has been issued.
func (i *Intent) HasQR() bool {
	return i.QRCode != ""
}

// Countdown is derived display state for an intent's expiry.
type Countdown struct {
	SecondsRemaining int  `json:"secondsRemaining"`
	Expired          bool `json:"expired"`
}

// CountdownAt derives the countdown for the intent at the given instant.
// Expired is true iff an expiry was set and no time remains.
func (i *Intent) CountdownAt(now time.Time) Countdown {
	if i.ExpiresAt.IsZero() {
		return Countdown{}
	}
	remaining := int(i.ExpiresAt.Sub(now) / time.Second)
	if remaining <= 0 {
		return Countdown{SecondsRemaining: 0, Expired: true}
	}
	return Countdown{SecondsRemaining: remaining}
}

// qrPattern matches the payload a customer presents to a merchant:
// PAYMENT_<integer id>_<anything>. Any other prefix or a non-numeric id is a
// parse failure.
var qrPattern = regexp.MustCompile(`^PAYMENT_(\d+)_`)

// ParseQRPaymentID extracts the payment id from a presented QR payload.
func ParseQRPaymentID(code string) (int64, error) {
	m := qrPattern.FindStringSubmatch(code)
	if m == nil {
		return 0, errors.ErrInvalidQRFormat
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, errors.ErrInvalidQRFormat
	}
	return id, nil
}
