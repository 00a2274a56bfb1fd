package qrcredentials

import "time"

// Status of a QR credential. APPROVED means issued but before the ticket's
// use window; ACTIVE means inside the window; USED and EXPIRED are terminal.
type Status string

const (
	StatusApproved Status = "APPROVED"
	StatusActive   Status = "ACTIVE"
	StatusUsed     Status = "USED"
	StatusExpired  Status = "EXPIRED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusApproved, StatusActive, StatusUsed, StatusExpired:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// effectiveStatus derives the live state from the stored one. Expiry and
// activation are lazy: nothing rewrites rows when the window opens or
// closes, the read just reinterprets them.
func effectiveStatus(stored Status, activatedAt, expiredAt, now time.Time) Status {
	if stored == StatusUsed || stored == StatusExpired {
		return stored
	}
	if !now.Before(expiredAt) {
		return StatusExpired
	}
	if !now.Before(activatedAt) {
		return StatusActive
	}
	return StatusApproved
}
