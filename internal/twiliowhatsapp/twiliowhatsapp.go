// Package twiliowhatsapp authenticates inbound Twilio WhatsApp webhooks.
//
// Twilio signs the exact public URL it delivered to, without the query
// string, plus the sorted form parameters. Behind a proxy the URL the
// handler sees differs from the one Twilio signed, so WebhookURL
// reconstructs it from forwarding headers before validation.
package twiliowhatsapp

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	twilioclient "github.com/twilio/twilio-go/client"
)

// SignatureHeader is the request header carrying the Twilio signature.
const SignatureHeader = "X-Twilio-Signature"

// Verifier validates that an inbound webhook request was signed by Twilio
// with the account's auth token.
type Verifier struct {
	validator twilioclient.RequestValidator
}

// NewVerifier creates a Verifier for the given auth token. The token must
// not be empty; running with a non-functional verifier would accept forged
// requests.
func NewVerifier(authToken string) (*Verifier, error) {
	if authToken == "" {
		return nil, fmt.Errorf("auth token must be provided")
	}
	return &Verifier{validator: twilioclient.NewRequestValidator(authToken)}, nil
}

// Verify reports whether signature matches the Twilio computation over
// rawURL and the form fields. Any query string on rawURL is stripped first:
// Twilio signs the bare endpoint URL. Pure check, no side effects.
func (v *Verifier) Verify(rawURL string, form url.Values, signature string) bool {
	params := make(map[string]string, len(form))
	for key := range form {
		// Twilio sends each field once; Get picks the first value.
		params[key] = form.Get(key)
	}
	return v.validator.Validate(stripQuery(rawURL), params, signature)
}

// WebhookURL reconstructs the externally visible URL for r as Twilio saw it
// when signing: forwarded scheme, public host, path, no query string.
func WebhookURL(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	return scheme + "://" + r.Host + r.URL.Path
}

func stripQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
