package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/okso-hub/scrum-poker-sub000/internal/model"
)

// SummaryRepo persists finished session summaries. Live room state never
// touches MongoDB; only the final report does.
type SummaryRepo interface {
	Save(ctx context.Context, summary *model.SessionSummary) error
	GetByRoomID(ctx context.Context, roomID int64) (*model.SessionSummary, error)
}

type summaryRepo struct {
	collection *mongo.Collection
}

func NewSummaryRepo(db *mongo.Database) SummaryRepo {
	return &summaryRepo{
		collection: db.Collection("summaries"),
	}
}

func (r *summaryRepo) Save(ctx context.Context, summary *model.SessionSummary) error {
	_, err := r.collection.InsertOne(ctx, summary)
	return err
}

func (r *summaryRepo) GetByRoomID(ctx context.Context, roomID int64) (*model.SessionSummary, error) {
	var summary model.SessionSummary
	err := r.collection.FindOne(ctx, bson.M{"roomId": roomID}).Decode(&summary)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}
