package assistant

import (
	"context"
	"errors"
	"fmt"

	"bakery-chat/internal/apperr"
	"bakery-chat/internal/jobs"
	"bakery-chat/internal/leads"
	"bakery-chat/internal/repo"
	"bakery-chat/internal/store"
)

var _ jobs.Handler = (*Service)(nil)

// HandleJob runs the follow-up work of a completed chat turn: a model
// analysis on every third message and regex lead extraction once the
// conversation has three messages.
func (s *Service) HandleJob(ctx context.Context, job jobs.Job) error {
	if job.Kind != jobs.KindTurnCompleted {
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
	logger := s.logger.With("conversation_id", job.ConversationID, "total_messages", job.TotalMessages)

	var errs []error
	if job.TotalMessages%3 == 0 {
		if res, err := s.Analyze(ctx, job.ConversationID); err != nil {
			s.metrics.Error("auto_analyze")
			logger.Warn("auto analysis failed", "error", err)
			errs = append(errs, fmt.Errorf("auto analyze: %w", err))
		} else if res.UserInfo != nil {
			logger.Info("lead updated from analysis",
				"has_name", res.UserInfo.Name != "",
				"has_email", res.UserInfo.Email != "",
				"has_phone", res.UserInfo.PhoneNumber != "",
				"lead_quality", res.UserInfo.LeadQuality,
			)
		}
	}

	if job.TotalMessages >= 3 {
		conv, err := s.store.GetConversation(ctx, job.ConversationID)
		if err != nil {
			return errors.Join(append(errs, fmt.Errorf("load conversation: %w", err))...)
		}
		text := leads.ConversationText(store.MessageTexts(conv.Content))

		if err := s.extractLeads(ctx, job.ConversationID, text); err != nil {
			s.metrics.Error("auto_extract")
			logger.Warn("lead extraction failed", "error", err)
			errs = append(errs, fmt.Errorf("auto extract: %w", err))
		}

		if job.TotalMessages >= 4 {
			if missing := leads.MissingFields(text); len(missing) > 0 {
				logger.Info("customer info still missing", "fields", missing)
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Service) extractLeads(ctx context.Context, id, text string) error {
	found := leads.Extract(text)
	if found.IsEmpty() {
		s.countExtraction("empty")
		return nil
	}

	existing, err := s.store.GetUserInfo(ctx, id)
	switch {
	case err == nil:
		merged := leads.Merge(store.ContactOf(existing), found)
		if _, err := s.store.UpdateUserInfo(ctx, id, store.WithContact(repo.UserInfo{}, merged)); err != nil {
			return err
		}
		s.countExtraction("updated")
	case apperr.IsNotFound(err):
		if _, err := s.store.SaveUserInfo(ctx, id, store.WithContact(repo.UserInfo{}, found)); err != nil {
			return err
		}
		s.countExtraction("created")
	default:
		return err
	}
	return nil
}

func (s *Service) countExtraction(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.LeadExtractions.WithLabelValues(result).Inc()
}
