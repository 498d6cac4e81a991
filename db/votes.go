package db

import (
	"context"
	"fmt"
	"time"

	"credcheck/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const votesCollection = "votes"

// VoteStore persists reader feedback votes.
type VoteStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewVoteStore(database *mongo.Database) *VoteStore {
	return &VoteStore{
		collection: database.Collection(votesCollection),
		now:        time.Now,
	}
}

// EnsureIndexes creates the url/createdAt index used by tallies.
func (s *VoteStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("url_createdAt"),
	})
	if err != nil {
		return fmt.Errorf("failed to create vote index: %w", err)
	}
	return nil
}

// SaveVote stores one vote and returns the stored record.
func (s *VoteStore) SaveVote(ctx context.Context, url string, vote models.VoteType) (models.Vote, error) {
	record := models.Vote{
		ID:        uuid.NewString(),
		URL:       url,
		Vote:      vote,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return models.Vote{}, fmt.Errorf("failed to save vote: %w", err)
	}
	return record, nil
}

type voteCount struct {
	Vote  models.VoteType `bson:"_id"`
	Count int64           `bson:"count"`
}

// TallyVotes counts the votes recorded for url, per vote type. Every
// vote type is present in the result, zero when unseen.
func (s *VoteStore) TallyVotes(ctx context.Context, url string) (models.VoteTally, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "url", Value: url}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$vote"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return models.VoteTally{}, fmt.Errorf("failed to aggregate votes: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []voteCount
	if err := cursor.All(ctx, &rows); err != nil {
		return models.VoteTally{}, fmt.Errorf("failed to decode vote tally: %w", err)
	}

	tally := models.VoteTally{
		URL: url,
		Counts: map[models.VoteType]int64{
			models.VoteTrustworthy: 0,
			models.VoteMisleading:  0,
			models.VoteNotSure:     0,
		},
	}
	for _, row := range rows {
		if !row.Vote.Valid() {
			continue
		}
		tally.Counts[row.Vote] += row.Count
		tally.Total += row.Count
	}
	return tally, nil
}
