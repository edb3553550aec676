// Package api provides HTTP handlers for ReviewPipe endpoints.
package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/reviewpipe/ReviewPipe/internal/flow"
	"github.com/reviewpipe/ReviewPipe/internal/models"
	"github.com/reviewpipe/ReviewPipe/internal/twiliowhatsapp"
)

// webhookHandler processes one inbound Twilio message: verify the signature,
// run the dialogue transition for the sender under the per-user lock, persist
// the review on completion, and reply in plain text.
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.webhookHandler: processing webhook request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.webhookHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		slog.Warn("Server.webhookHandler: failed to parse form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	webhookURL := twiliowhatsapp.WebhookURL(r)
	signature := r.Header.Get(twiliowhatsapp.SignatureHeader)
	if !s.verifier.Verify(webhookURL, r.PostForm, signature) {
		slog.Warn("Server.webhookHandler: invalid signature", "url", webhookURL, "signature_set", signature != "")
		writePlainText(w, http.StatusForbidden, "Invalid request signature.")
		return
	}

	// Missing fields are coerced to empty strings: the dialogue accepts any
	// text, so leniency here keeps provider quirks from dropping messages.
	from, ok := formField(r.PostForm, "From")
	if !ok {
		slog.Warn("Server.webhookHandler: form field absent, treating as empty", "field", "From")
	}
	body, ok := formField(r.PostForm, "Body")
	if !ok {
		slog.Warn("Server.webhookHandler: form field absent, treating as empty", "field", "Body")
	}
	slog.Info("Server.webhookHandler: inbound message", "from", from, "body", body)

	// Serialize the read-transition-write turn per sender so that provider
	// retries cannot interleave two transitions.
	unlock := s.convs.Lock(from)
	defer unlock()

	state := s.convs.Get(from)
	out := flow.Transition(state, from, body)

	switch {
	case out.Review != nil:
		saved, err := s.st.SaveReview(*out.Review)
		if err != nil {
			// Leave the conversation at awaiting_review so the user can
			// resend just the final message.
			slog.Error("Server.webhookHandler: failed to save review", "error", err, "from", from)
			writePlainText(w, http.StatusInternalServerError, "Sorry, we couldn't save your review. Please send it again.")
			return
		}
		s.convs.Reset(from)
		slog.Info("Server.webhookHandler: review saved", "id", saved.ID, "from", from)
	case out.State != nil:
		s.convs.Update(from, *out.State)
	default:
		// Unrecognized stage: drop the stale conversation and start over.
		s.convs.Reset(from)
		slog.Warn("Server.webhookHandler: unknown stage, conversation reset", "from", from, "stage", state.Stage)
	}

	writePlainText(w, http.StatusOK, out.Reply)
}

// reviewsHandler returns all stored reviews as a JSON array, newest first.
func (s *Server) reviewsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.reviewsHandler: processing reviews request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.reviewsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	reviews, err := s.st.ListReviews()
	if err != nil {
		slog.Error("Server.reviewsHandler: failed to list reviews", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch reviews"))
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}

	slog.Debug("Server.reviewsHandler: reviews fetched", "count", len(reviews))
	writeJSONResponse(w, http.StatusOK, reviews)
}

// formField extracts a trimmed form field, reporting whether the field was
// present at all. Callers decide how to treat absence; the webhook handler
// coerces it to an empty string by documented policy.
func formField(form url.Values, key string) (string, bool) {
	values, ok := form[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0]), true
}
