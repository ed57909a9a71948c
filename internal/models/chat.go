package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachSession is one chat-coaching conversation, stored in Mongo.
type CoachSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	UserID    string             `bson:"user_id" json:"user_id"`       // uuid from Supabase Auth

	Topic  string `bson:"topic,omitempty" json:"topic,omitempty"` // e.g. "objection handling"
	RepID  string `bson:"rep_id,omitempty" json:"rep_id,omitempty"`
	Status string `bson:"status" json:"status"` // active|ended

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	MessageCount int64 `bson:"message_count" json:"message_count"`
}

// ChatMessage is one turn in a coach session.
type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Role      string             `bson:"role" json:"role"` // "user" | "assistant"
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
