package store

import (
	"bakery-chat/internal/leads"
	"bakery-chat/internal/repo"
)

// ContactOf returns the contact fields of a lead record. A nil record has none.
func ContactOf(info *repo.UserInfo) leads.Fields {
	if info == nil {
		return leads.Fields{}
	}
	return leads.Fields{
		Name:        info.Name,
		Email:       info.Email,
		PhoneNumber: info.PhoneNumber,
		Company:     info.Company,
		Position:    info.Position,
	}
}

// WithContact returns info with its contact fields replaced by f.
func WithContact(info repo.UserInfo, f leads.Fields) repo.UserInfo {
	info.Name = f.Name
	info.Email = f.Email
	info.PhoneNumber = f.PhoneNumber
	info.Company = f.Company
	info.Position = f.Position
	return info
}

// MessageTexts returns the contents of msgs in order.
func MessageTexts(msgs []repo.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}
