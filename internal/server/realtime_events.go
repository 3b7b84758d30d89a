package server

import (
	"context"
	"log/slog"
	"time"

	"threadline/internal/featureflags"
	"threadline/internal/middleware"
	"threadline/internal/notifications"
	"threadline/internal/observability"
)

const publishTimeout = 2 * time.Second

func (s *Server) realtimeEnabled(userID uint) bool {
	return s.transport != nil && s.featureFlags.Enabled(featureflags.FlagRealtimeEvents, userID)
}

// publishUserEvent sends an event to one user. Failures are logged and
// counted, never returned.
func (s *Server) publishUserEvent(ctx context.Context, userID uint, eventType string, payload any) {
	if userID == 0 || !s.realtimeEnabled(userID) {
		return
	}
	message, ok := s.encodeEvent(ctx, eventType, payload)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.transport.PublishUser(ctx, userID, message); err != nil {
		observability.EventsPublished.WithLabelValues(eventType, "error").Inc()
		middleware.Logger.WarnContext(ctx, "Failed to publish user event",
			slog.String("event", eventType),
			slog.Uint64("target_user_id", uint64(userID)),
			slog.String("transport", s.transport.Name()),
			slog.String("error", err.Error()))
		return
	}
	observability.EventsPublished.WithLabelValues(eventType, "ok").Inc()
}

func (s *Server) publishBroadcastEvent(ctx context.Context, eventType string, payload any) {
	if !s.realtimeEnabled(0) {
		return
	}
	message, ok := s.encodeEvent(ctx, eventType, payload)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.transport.PublishBroadcast(ctx, message); err != nil {
		observability.EventsPublished.WithLabelValues(eventType, "error").Inc()
		middleware.Logger.WarnContext(ctx, "Failed to publish broadcast event",
			slog.String("event", eventType),
			slog.String("transport", s.transport.Name()),
			slog.String("error", err.Error()))
		return
	}
	observability.EventsPublished.WithLabelValues(eventType, "ok").Inc()
}

func (s *Server) encodeEvent(ctx context.Context, eventType string, payload any) (string, bool) {
	message, err := notifications.Event{Type: eventType, Payload: payload}.Encode()
	if err != nil {
		observability.EventsPublished.WithLabelValues(eventType, "error").Inc()
		middleware.Logger.ErrorContext(ctx, "Failed to encode event",
			slog.String("event", eventType), slog.String("error", err.Error()))
		return "", false
	}
	return message, true
}

// notifyThreadAuthor sends eventType to the author of threadID unless the
// author is the one acting.
func (s *Server) notifyThreadAuthor(ctx context.Context, threadID, actorID uint, eventType string, payload any) {
	if !s.realtimeEnabled(actorID) {
		return
	}
	thread, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil || thread.AuthorID == actorID {
		return
	}
	s.publishUserEvent(ctx, thread.AuthorID, eventType, payload)
}

func (s *Server) notifyReplyAuthor(ctx context.Context, replyID, actorID uint, eventType string, payload any) {
	if !s.realtimeEnabled(actorID) {
		return
	}
	reply, err := s.replyRepo.GetByID(ctx, replyID)
	if err != nil || reply.AuthorID == actorID {
		return
	}
	s.publishUserEvent(ctx, reply.AuthorID, eventType, payload)
}
