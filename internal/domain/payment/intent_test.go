package payment_test

import (
	"testing"
	"time"

	"github.com/cassiomorais/qrpay/internal/domain/errors"
	"github.com/cassiomorais/qrpay/internal/domain/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQRPaymentID(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    int64
		wantErr bool
	}{
		{"valid", "PAYMENT_123_abc", 123, false},
		{"valid with timestamp suffix", "PAYMENT_42_1699999999_x7f", 42, false},
		{"non-numeric id", "PAYMENT_abc_xyz", 0, true},
		{"empty", "", 0, true},
		{"wrong prefix", "INVOICE_123_abc", 0, true},
		{"missing trailing underscore", "PAYMENT_123", 0, true},
		{"id only digits extracted", "PAYMENT_007_tail", 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := payment.ParseQRPaymentID(tt.code)
			if tt.wantErr {
				require.ErrorIs(t, err, errors.ErrInvalidQRFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestIntent_SetQR(t *testing.T) {
	now := time.Now()
	intent := payment.NewIntent(10, 1, now)
	assert.False(t, intent.HasQR())

	expires := now.Add(15 * time.Minute)
	intent.SetQR("PAYMENT_10_abc", expires)
	assert.True(t, intent.HasQR())
	assert.Equal(t, expires, intent.ExpiresAt)
}

func TestIntent_CountdownAt(t *testing.T) {
	now := time.Now()
	intent := payment.NewIntent(10, 1, now)

	// No expiry recorded yet: nothing to count down, not expired.
	cd := intent.CountdownAt(now)
	assert.Equal(t, 0, cd.SecondsRemaining)
	assert.False(t, cd.Expired)

	intent.SetQR("PAYMENT_10_abc", now.Add(90*time.Second))

	cd = intent.CountdownAt(now)
	assert.Equal(t, 90, cd.SecondsRemaining)
	assert.False(t, cd.Expired)

	cd = intent.CountdownAt(now.Add(30 * time.Second))
	assert.Equal(t, 60, cd.SecondsRemaining)
	assert.False(t, cd.Expired)

	// Less than a full second left floors to 0, which is expiry.
	cd = intent.CountdownAt(now.Add(89*time.Second + 500*time.Millisecond))
	assert.Equal(t, 0, cd.SecondsRemaining)
	assert.True(t, cd.Expired)

	cd = intent.CountdownAt(now.Add(90 * time.Second))
	assert.Equal(t, 0, cd.SecondsRemaining)
	assert.True(t, cd.Expired)

	cd = intent.CountdownAt(now.Add(time.Hour))
	assert.True(t, cd.Expired)
}
