package domain

import "fmt"

// DeliveryStatus tracks the progress of a single stop. The optimizer never reads it.
type DeliveryStatus string

const (
	StatusPending    DeliveryStatus = "pending"
	StatusInProgress DeliveryStatus = "in_progress"
	StatusDelivered  DeliveryStatus = "delivered"
	StatusFailed     DeliveryStatus = "failed"
	StatusSkipped    DeliveryStatus = "skipped"
)

// ParseDeliveryStatus converts a wire value into a DeliveryStatus.
func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	switch DeliveryStatus(s) {
	case StatusPending, StatusInProgress, StatusDelivered, StatusFailed, StatusSkipped:
		return DeliveryStatus(s), nil
	}
	return "", fmt.Errorf("parse delivery status: unknown status %q", s)
}

// Active reports whether the stop still has to be visited.
func (s DeliveryStatus) Active() bool {
	return s == StatusPending || s == StatusInProgress
}
