package models

// SubscribeRequest is the POST /api/newsletter/subscribe payload.
// Only email is required; the name fields feed the list provider's merge
// fields and source is a free-form acquisition-channel tag.
type SubscribeRequest struct {
	Email     string `json:"email" validate:"required"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Subscription is a validated, normalized subscription passed to the
// downstream writers. Email is always trimmed lowercase so both backends
// key the same subscriber.
type Subscription struct {
	Email     string
	FirstName string
	LastName  string
	Source    string
}

// SubscribeResponse is returned on the success paths of POST
// /api/newsletter/subscribe. Error paths use a bare {"error": ...} body.
type SubscribeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
