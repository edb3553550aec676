package twiliowhatsapp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/tls"
	"encoding/base64"
	"net/http/httptest"
	"net/url"
	"sort"
	"testing"
)

const testAuthToken = "12345abcdef"

// twilioSign reproduces Twilio's signature: base64 HMAC-SHA1 over the URL
// followed by the form keys and values in sorted key order.
func twilioSign(t *testing.T, authToken, rawURL string, form url.Values) string {
	t.Helper()
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := rawURL
	for _, k := range keys {
		payload += k + form.Get(k)
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestNewVerifierRequiresToken(t *testing.T) {
	if _, err := NewVerifier(""); err == nil {
		t.Fatal("expected error for empty auth token")
	}
	if _, err := NewVerifier(testAuthToken); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	v, err := NewVerifier(testAuthToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rawURL := "https://example.com/twilio/webhook"
	form := url.Values{}
	form.Set("From", "whatsapp:+15551234567")
	form.Set("Body", "Shampoo")

	sig := twilioSign(t, testAuthToken, rawURL, form)
	if !v.Verify(rawURL, form, sig) {
		t.Error("expected valid signature to verify")
	}
}

func TestVerifyRejectsTamperedRequest(t *testing.T) {
	v, err := NewVerifier(testAuthToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rawURL := "https://example.com/twilio/webhook"
	form := url.Values{}
	form.Set("From", "whatsapp:+15551234567")
	form.Set("Body", "Shampoo")
	sig := twilioSign(t, testAuthToken, rawURL, form)

	tampered := url.Values{}
	tampered.Set("From", "whatsapp:+15551234567")
	tampered.Set("Body", "Soap")
	if v.Verify(rawURL, tampered, sig) {
		t.Error("expected tampered body to fail verification")
	}
	if v.Verify(rawURL, form, "bogus") {
		t.Error("expected bogus signature to fail verification")
	}

	other, err := NewVerifier("different-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Verify(rawURL, form, sig) {
		t.Error("expected wrong secret to fail verification")
	}
}

func TestVerifyStripsQueryString(t *testing.T) {
	v, err := NewVerifier(testAuthToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Twilio signed the bare endpoint URL; the server may see extra query
	// parameters added by proxies.
	signedURL := "https://example.com/twilio/webhook"
	form := url.Values{}
	form.Set("From", "whatsapp:+1")
	form.Set("Body", "hi")
	sig := twilioSign(t, testAuthToken, signedURL, form)

	if !v.Verify(signedURL+"?foo=bar", form, sig) {
		t.Error("expected query string to be stripped before validation")
	}
}

func TestWebhookURL(t *testing.T) {
	r := httptest.NewRequest("POST", "http://example.com/twilio/webhook?foo=bar", nil)
	if got := WebhookURL(r); got != "http://example.com/twilio/webhook" {
		t.Errorf("WebhookURL = %q", got)
	}

	r = httptest.NewRequest("POST", "http://example.com/twilio/webhook", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	if got := WebhookURL(r); got != "https://example.com/twilio/webhook" {
		t.Errorf("WebhookURL with forwarded proto = %q", got)
	}

	r = httptest.NewRequest("POST", "https://example.com/twilio/webhook", nil)
	r.TLS = &tls.ConnectionState{}
	if got := WebhookURL(r); got != "https://example.com/twilio/webhook" {
		t.Errorf("WebhookURL over TLS = %q", got)
	}
}
