package halcyon

import "log"

// logDispatcher stands in for a real mail sender: it logs the delivery
// instead of performing it. Deployments plug in their own
// NotificationDispatcher.
type logDispatcher struct{}

func NewLogDispatcher() NotificationDispatcher {
	return logDispatcher{}
}

func (logDispatcher) Send(mail, token string) error {
	log.Printf("halcyon: verification token %s for %s", token, mail)
	return nil
}
