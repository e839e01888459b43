package models

import "encoding/json"

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	LAeqRequest
	Question  string `json:"question"`
	SessionID string `json:"sessionId,omitempty"`
}

// AskPayload is what the LLM workflow webhook receives.
type AskPayload struct {
	SessionID string  `json:"sessionId"`
	ChatInput string  `json:"chatInput"`
	Context   *Report `json:"context,omitempty"`
	Note      string  `json:"note,omitempty"`
}

// AskResponse carries the webhook's JSON body unchanged.
type AskResponse struct {
	SessionID string
	Body      json.RawMessage
}
