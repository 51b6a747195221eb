package mailer

import (
	"fmt"
	"strings"
)

func firstName(name string) string {
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

// WelcomeJob builds the signup notification for a new account.
func WelcomeJob(email, name string) EmailJob {
	first := firstName(name)
	return EmailJob{
		To:      email,
		Subject: fmt.Sprintf("Welcome to the Task Manager, %s!", first),
		Text:    fmt.Sprintf("Hi %s, welcome! I hope you enjoy creating tasks", first),
	}
}

// GoodbyeJob builds the account-deletion notification.
func GoodbyeJob(email, name string) EmailJob {
	first := firstName(name)
	return EmailJob{
		To:      email,
		Subject: fmt.Sprintf("Sorry you're leaving, %s", first),
		Text:    fmt.Sprintf("Dear %s, I'm sorry that you're leaving. Is there anything we could have done better?", first),
	}
}
