package models

import "time"

// PublicQuestion is a community question asked during an event. Votes is a
// cached count of its QuestionVote rows.
type PublicQuestion struct {
	ID            int64      `db:"id" json:"id"`
	EventID       int64      `db:"event_id" json:"event_id"`
	ParticipantID *int64     `db:"participant_id" json:"participant_id,omitempty"`
	Text          string     `db:"question_text" json:"text"`
	Votes         int        `db:"votes" json:"votes"`
	IsAnswered    bool       `db:"is_answered" json:"is_answered"`
	Answer        string     `db:"answer" json:"answer,omitempty"`
	AnsweredBy    *int64     `db:"answered_by" json:"answered_by,omitempty"`
	AnsweredAt    *time.Time `db:"answered_at" json:"answered_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

type QuestionVote struct {
	ID            int64     `db:"id" json:"id"`
	QuestionID    int64     `db:"question_id" json:"question_id"`
	ParticipantID int64     `db:"participant_id" json:"participant_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
