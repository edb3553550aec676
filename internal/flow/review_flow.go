// Package flow implements the review dialogue state machine.
//
// Transition is a pure function: it owns the stage table and the reply
// script, but performs no locking, storage, or time stamping. The api
// package drives it and the conversation package serializes access per user.
package flow

import (
	"fmt"

	"github.com/reviewpipe/ReviewPipe/internal/models"
)

// Reply script for the dialogue. Empty or whitespace-only answers are
// accepted at every stage; there is no validation loop.
const (
	replyAskProduct = "Hi! 😊 Which product do you want to review?"
	replyAskName    = "Great! What's your name?"
	replyRestart    = "Let's start again 😊 Which product would you like to review?"
)

// Outcome is the result of feeding one inbound message through the dialogue.
//
// Exactly one of the following shapes is produced:
//   - State set, Review nil: store State as the user's new conversation state.
//   - State nil, Review set: the dialogue completed; persist Review, then
//     delete the conversation.
//   - State nil, Review nil: unrecognized stage; delete the conversation.
//
// Reply is always set and is sent back to the user verbatim.
type Outcome struct {
	State  *models.ConversationState
	Reply  string
	Review *models.Review
}

// Transition maps (current state, inbound text) to the next state of the
// dialogue. from is the sender's contact number, used only to fill in the
// completed Review. body is the inbound message text, already trimmed by the
// caller; it is accepted as-is, including the empty string.
func Transition(state models.ConversationState, from, body string) Outcome {
	switch state.Stage {
	case models.StageStart:
		return Outcome{
			State: &models.ConversationState{Stage: models.StageAwaitingProduct},
			Reply: replyAskProduct,
		}

	case models.StageAwaitingProduct:
		return Outcome{
			State: &models.ConversationState{
				Stage:   models.StageAwaitingName,
				Product: body,
			},
			Reply: replyAskName,
		}

	case models.StageAwaitingName:
		return Outcome{
			State: &models.ConversationState{
				Stage:   models.StageAwaitingReview,
				Product: state.Product,
				Name:    body,
			},
			Reply: fmt.Sprintf("Awesome, %s! Please type your review now.", body),
		}

	case models.StageAwaitingReview:
		return Outcome{
			Review: &models.Review{
				ContactNumber: from,
				UserName:      models.StringPtr(state.Name),
				ProductName:   models.StringPtr(state.Product),
				ProductReview: models.StringPtr(body),
			},
			Reply: fmt.Sprintf("Thanks %s! 🎉 Your review for %s is saved.", state.Name, state.Product),
		}

	default:
		// Unknown stage, likely from an older deployment. Reset defensively.
		return Outcome{Reply: replyRestart}
	}
}
