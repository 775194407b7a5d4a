package store

import (
	"context"
	"time"
)

// Statistics summarizes stored conversations and lead records.
type Statistics struct {
	TotalConversations int     `json:"total_conversations"`
	TotalUsers         int     `json:"total_users"`
	TotalMessages      int     `json:"total_messages"`
	ConversationsToday int     `json:"conversations_today"`
	UsersToday         int     `json:"users_today"`
	AverageLeadQuality float64 `json:"average_lead_quality"`
}

// GetStatistics computes totals over every conversation and lead record.
// "Today" is the current calendar day in the store's location.
func (s *Store) GetStatistics(ctx context.Context) (*Statistics, error) {
	convs, err := s.GetAllConversations(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.GetAllUserInfo(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now().In(s.loc)
	stats := &Statistics{
		TotalConversations: len(convs),
		TotalUsers:         len(users),
	}
	for _, c := range convs {
		stats.TotalMessages += len(c.Content)
		if sameDay(c.CreatedAt.In(s.loc), today) {
			stats.ConversationsToday++
		}
	}
	var qualitySum int
	for _, u := range users {
		qualitySum += u.LeadQuality
		if sameDay(u.CreatedAt.In(s.loc), today) {
			stats.UsersToday++
		}
	}
	if len(users) > 0 {
		stats.AverageLeadQuality = float64(qualitySum) / float64(len(users))
	}
	return stats, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
