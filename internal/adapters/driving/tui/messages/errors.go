package messages

// ServiceUnavailable is carried by a message when the service a view needs
// was not wired into the TUI.
type ServiceUnavailable struct {
	// Service names the missing service: "search", "document" or "stage".
	Service string
}

func (e ServiceUnavailable) Error() string {
	return e.Service + " service not available"
}
