package models

import "time"

// VoteType is a reader's credibility judgement of a piece of content.
type VoteType string

const (
	VoteTrustworthy VoteType = "trustworthy"
	VoteMisleading  VoteType = "misleading"
	VoteNotSure     VoteType = "not_sure"
)

func (v VoteType) Valid() bool {
	switch v {
	case VoteTrustworthy, VoteMisleading, VoteNotSure:
		return true
	}
	return false
}

// Vote is a feedback record stored in MongoDB
type Vote struct {
	ID        string    `bson:"_id" json:"id"`
	URL       string    `bson:"url" json:"url"`
	Vote      VoteType  `bson:"vote" json:"vote"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// FeedbackRequest is the payload of the vote endpoint
type FeedbackRequest struct {
	URL  string   `json:"url"`
	Vote VoteType `json:"vote"`
}

type FeedbackResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// VoteTally aggregates the votes recorded for one URL
type VoteTally struct {
	URL    string             `json:"url"`
	Counts map[VoteType]int64 `json:"counts"`
	Total  int64              `json:"total"`
}
