package jobs

// SendEmailPayload carries a fully rendered email. The worker sends it as is.
type SendEmailPayload struct {
	Kind    string `json:"kind"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}
