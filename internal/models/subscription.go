package models

// SubscriptionRequest is a mailing-list signup decoded from a form body.
// It is never stored.
type SubscriptionRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
