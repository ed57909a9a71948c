package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/getcoachly/coachly/internal/models"
	"github.com/getcoachly/coachly/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChatRepository interface {
	CreateSession(ctx context.Context, s *models.CoachSession) error
	GetSession(ctx context.Context, sessionID string) (*models.CoachSession, error)
	EndSession(ctx context.Context, sessionID string, endedAt time.Time) error
	AppendMessage(ctx context.Context, m *models.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error)
}

type chatRepo struct {
	sessions *mongo.Collection
	messages *mongo.Collection
}

func NewChatRepo(db *mongo.Database) ChatRepository {
	return &chatRepo{
		sessions: db.Collection("coach_sessions"),
		messages: db.Collection("coach_messages"),
	}
}

func (r *chatRepo) CreateSession(ctx context.Context, s *models.CoachSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.sessions.InsertOne(ctx, s)
	return err
}

func (r *chatRepo) GetSession(ctx context.Context, sessionID string) (*models.CoachSession, error) {
	var s models.CoachSession
	err := r.sessions.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *chatRepo) EndSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	_, err := r.sessions.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"status":   "ended",
			"ended_at": endedAt.UTC(),
		}},
	)
	return err
}

func (r *chatRepo) AppendMessage(ctx context.Context, m *models.ChatMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if _, err := r.messages.InsertOne(ctx, m); err != nil {
		return err
	}
	_, err := r.sessions.UpdateOne(ctx,
		bson.M{"session_id": m.SessionID},
		bson.M{"$inc": bson.M{"message_count": 1}},
	)
	return err
}

func (r *chatRepo) ListMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.messages.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.ChatMessage
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	// oldest first for prompt assembly
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}
