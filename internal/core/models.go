package core

// SendRequest is a validated relay request.
type SendRequest struct {
	Contacts []string
	Message  string
}

// Outcome records one successful send.
type Outcome struct {
	To     string `json:"to"`
	SID    string `json:"sid"`
	Status string `json:"status"`
}
