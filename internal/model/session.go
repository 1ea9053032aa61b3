package model

import "time"

// Session is an authenticated portal handle. It is replaced on refresh, never mutated.
type Session struct {
	Token     string    `json:"token"`
	AllyID    string    `json:"allyId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}
