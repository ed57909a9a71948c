package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/getcoachly/coachly/internal/models"
	"github.com/getcoachly/coachly/internal/providers/llm"
	mongorepo "github.com/getcoachly/coachly/internal/repositories/mongo"
	pgrepo "github.com/getcoachly/coachly/internal/repositories/postgres"
	"github.com/getcoachly/coachly/internal/utils"
)

const coachSystemPrompt = `You are an experienced sales coach. Ground every answer in the rep's actual calls below; be specific and practical, not generic.`

type ChatService interface {
	StartSession(ctx context.Context, userID, repID, topic string) (*models.CoachSession, error)
	GetSession(ctx context.Context, sessionID string) (*models.CoachSession, error)
	EndSession(ctx context.Context, sessionID string) error
	History(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error)
	// StreamReply persists the user message, streams the assistant reply in
	// chunks, and persists the full reply once the stream ends.
	StreamReply(ctx context.Context, sess *models.CoachSession, userMsg string) (<-chan string, <-chan error)
}

type chatService struct {
	chats    mongorepo.ChatRepository
	reps     pgrepo.RepRepository
	analyses pgrepo.AnalysisRepository
	provider llm.Provider
	log      *logrus.Entry
}

func NewChatService(
	chats mongorepo.ChatRepository,
	reps pgrepo.RepRepository,
	analyses pgrepo.AnalysisRepository,
	provider llm.Provider,
	log *logrus.Entry,
) ChatService {
	return &chatService{chats: chats, reps: reps, analyses: analyses, provider: provider, log: log}
}

func (s *chatService) StartSession(ctx context.Context, userID, repID, topic string) (*models.CoachSession, error) {
	const op = "ChatService.StartSession"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	sess := &models.CoachSession{
		SessionID: uuid.NewString(),
		UserID:    userID,
		RepID:     repID,
		Topic:     topic,
		Status:    "active",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chats.CreateSession(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	return sess, nil
}

func (s *chatService) GetSession(ctx context.Context, sessionID string) (*models.CoachSession, error) {
	const op = "ChatService.GetSession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	sess, err := s.chats.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return sess, nil
}

func (s *chatService) EndSession(ctx context.Context, sessionID string) error {
	const op = "ChatService.EndSession"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if err := s.chats.EndSession(ctx, sessionID, time.Now().UTC()); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to end session", err)
	}
	return nil
}

func (s *chatService) History(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	const op = "ChatService.History"

	rows, err := s.chats.ListMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list messages", err)
	}
	return rows, nil
}

func (s *chatService) StreamReply(ctx context.Context, sess *models.CoachSession, userMsg string) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	if strings.TrimSpace(userMsg) == "" {
		close(out)
		errs <- utils.E(utils.CodeInvalidArgument, "ChatService.StreamReply", "message is empty", nil)
		close(errs)
		return out, errs
	}

	go func() {
		defer close(out)
		defer close(errs)

		if err := s.chats.AppendMessage(ctx, &models.ChatMessage{
			SessionID: sess.SessionID,
			UserID:    sess.UserID,
			Role:      "user",
			Content:   userMsg,
		}); err != nil {
			errs <- utils.E(utils.CodeInternal, "ChatService.StreamReply", "failed to store message", err)
			return
		}

		prompt, err := s.buildPrompt(ctx, sess, userMsg)
		if err != nil {
			errs <- err
			return
		}

		chunks, provErrs := s.provider.StreamAnswer(ctx, prompt)
		var reply strings.Builder
		for chunk := range chunks {
			reply.WriteString(chunk)
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err := <-provErrs; err != nil {
			errs <- utils.E(utils.CodeUnavailable, "ChatService.StreamReply", "coaching assistant failed", err)
			return
		}

		if err := s.chats.AppendMessage(ctx, &models.ChatMessage{
			SessionID: sess.SessionID,
			UserID:    sess.UserID,
			Role:      "assistant",
			Content:   reply.String(),
		}); err != nil {
			s.log.WithError(err).Warn("failed to store assistant reply")
		}
	}()

	return out, errs
}

// buildPrompt assembles coaching context with one concurrent fan-out: rep
// profile, recent analyzed calls, and the session history, waiting for all.
func (s *chatService) buildPrompt(ctx context.Context, sess *models.CoachSession, userMsg string) (string, error) {
	const op = "ChatService.StreamReply"

	var rep *models.RepProfile
	var recent []models.CallAnalysis
	var history []models.ChatMessage

	g, gctx := errgroup.WithContext(ctx)
	if sess.RepID != "" {
		g.Go(func() error {
			r, err := s.reps.GetByID(gctx, sess.RepID)
			if err != nil && !errors.Is(err, utils.ErrNotFound) {
				return err
			}
			rep = r
			return nil
		})
		g.Go(func() error {
			rows, err := s.analyses.ListByRep(gctx, sess.RepID, 5)
			if err != nil {
				return err
			}
			recent = rows
			return nil
		})
	}
	g.Go(func() error {
		rows, err := s.chats.ListMessages(gctx, sess.SessionID, 20)
		if err != nil {
			return err
		}
		history = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to build chat context", err)
	}

	// widen the context with calls similar to the rep's latest one
	if len(recent) > 0 && len(recent[0].Embedding.Slice()) > 0 {
		similar, err := s.analyses.SimilarByEmbedding(ctx, sess.RepID, recent[0].Embedding, 3)
		if err != nil {
			s.log.WithError(err).Debug("similar-call lookup failed")
		} else {
			recent = append(recent, similar...)
		}
	}

	var sb strings.Builder
	sb.WriteString(coachSystemPrompt)
	sb.WriteString("\n\n")

	if rep != nil {
		fmt.Fprintf(&sb, "Rep: %s", rep.FullName)
		if len(rep.Specialties) > 0 {
			fmt.Fprintf(&sb, " (focus: %s)", strings.Join(rep.Specialties, ", "))
		}
		sb.WriteString("\n")
	}
	if sess.Topic != "" {
		fmt.Fprintf(&sb, "Session topic: %s\n", sess.Topic)
	}

	seen := make(map[string]bool)
	for _, a := range recent {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		if parsed, err := a.ParseResult(); err == nil && parsed.Summary != "" {
			fmt.Fprintf(&sb, "\nCall with %s on %s: %s", a.CompanyName, a.CallDate.Format("2006-01-02"), parsed.Summary)
		}
	}

	sb.WriteString("\n\nConversation so far:\n")
	for _, m := range history {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&sb, "user: %s\nassistant:", userMsg)

	return sb.String(), nil
}
