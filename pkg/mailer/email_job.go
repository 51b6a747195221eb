package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Subject and Text are fully rendered by the producer; the worker only has
// to pick a provider and send.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}
