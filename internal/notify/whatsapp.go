package notify

import (
	"net/url"
	"strings"
)

// WhatsAppLink builds the wa.me deep link that opens a chat with the shop
// prefilled with the order summary. Non-digits in number are dropped.
func WhatsAppLink(number string, event OrderEvent) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if digits == "" {
		return ""
	}

	text := "Hello, I would like to confirm my order.\n\n" + event.Summary()
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(text)
}
