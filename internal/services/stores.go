package services

import (
	"time"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
)

// Stores holds one datastore per table.
type Stores struct {
	DB          *store.DB
	Hosts       store.Datastorer[models.Host]
	Templates   store.Datastorer[models.EventTemplate]
	Events      store.Datastorer[models.Event]
	Questions   store.Datastorer[models.QuestionDefinition]
	Participant store.Datastorer[models.Participant]
	Responses   store.Datastorer[models.QuestionResponse]
	Public      store.Datastorer[models.PublicQuestion]
	Votes       store.Datastorer[models.QuestionVote]
}

func NewStores(db *store.DB) *Stores {
	return &Stores{
		DB:          db,
		Hosts:       store.NewDataStore[models.Host](db, "hosts"),
		Templates:   store.NewDataStore[models.EventTemplate](db, "event_templates"),
		Events:      store.NewDataStore[models.Event](db, "events"),
		Questions:   store.NewDataStore[models.QuestionDefinition](db, "onboarding_questions"),
		Participant: store.NewDataStore[models.Participant](db, "participants"),
		Responses:   store.NewDataStore[models.QuestionResponse](db, "question_responses"),
		Public:      store.NewDataStore[models.PublicQuestion](db, "public_questions"),
		Votes:       store.NewDataStore[models.QuestionVote](db, "question_votes"),
	}
}

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}
