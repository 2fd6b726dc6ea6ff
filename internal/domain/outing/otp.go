package outing

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const (
	otpResendCooldown = 5 * time.Minute
	maxOTPAttempts    = 5
)

// GenerateOTP returns a random 4-digit numeric code in [1000, 9999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}

// resendWait returns how long the caller still has to wait before the code
// may be resent, zero when the cooldown has elapsed. The cooldown runs from
// the last resend, or from creation when the code has never been resent.
func (o *OTPState) resendWait(createdAt, now time.Time) time.Duration {
	since := o.LastResendAt
	if since.IsZero() {
		since = createdAt
	}
	wait := otpResendCooldown - now.Sub(since)
	if wait < 0 {
		return 0
	}
	return wait
}

// recordResend reuses the existing code unchanged and clears any attempt
// lockout so the student can try again with the redelivered code.
func (o *OTPState) recordResend(now time.Time) {
	o.ResendCount++
	o.LastResendAt = now
	o.Attempts = 0
	o.Locked = false
}

// check compares the submitted code. A wrong code counts toward the attempt
// cap; at the cap the OTP locks until a resend redelivers it.
func (o *OTPState) check(submitted string) error {
	if o.Locked {
		return ErrOTPLocked
	}
	if submitted != o.Code {
		o.Attempts++
		if o.Attempts >= maxOTPAttempts {
			o.Locked = true
		}
		return ErrInvalidOTP
	}
	return nil
}
