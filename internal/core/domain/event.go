package domain

import "time"

// Event is an alumni gathering announced on the events board.
type Event struct {
	ID               string    `bson:"_id,omitempty"              json:"id"`
	Title            string    `bson:"title"                      json:"title"`
	Description      string    `bson:"description"                json:"description"`
	Date             string    `bson:"date"                       json:"date"`
	Time             string    `bson:"time,omitempty"             json:"time,omitempty"`
	Venue            string    `bson:"venue"                      json:"venue"`
	RegistrationLink string    `bson:"registrationLink,omitempty" json:"registration_link,omitempty"`
	CreatedBy        string    `bson:"createdBy"                  json:"created_by"`
	CreatedAt        time.Time `bson:"createdAt"                  json:"created_at"`
}

func (e Event) OwnerID() string { return e.CreatedBy }
func (e Event) DocID() string   { return e.ID }
