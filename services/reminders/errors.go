package reminders

import "errors"

// ErrDeliveryFailed is returned when every enabled channel failed for a reminder.
var ErrDeliveryFailed = errors.New("reminder delivery failed on all channels")
