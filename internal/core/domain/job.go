package domain

import (
	"strings"
	"time"
)

// JobType classifies a job posting.
type JobType string

const (
	JobFullTime   JobType = "full-time"
	JobPartTime   JobType = "part-time"
	JobContract   JobType = "contract"
	JobInternship JobType = "internship"
	JobRemote     JobType = "remote"
)

var validJobTypes = map[JobType]struct{}{
	JobFullTime:   {},
	JobPartTime:   {},
	JobContract:   {},
	JobInternship: {},
	JobRemote:     {},
}

func (t JobType) Valid() bool {
	_, ok := validJobTypes[t]
	return ok
}

// JobPosting is an opportunity shared on the job board.
type JobPosting struct {
	ID              string    `bson:"_id,omitempty"             json:"id"`
	Title           string    `bson:"title"                     json:"title"`
	Company         string    `bson:"company"                   json:"company"`
	Description     string    `bson:"description"               json:"description"`
	Requirements    []string  `bson:"requirements"              json:"requirements"`
	Location        string    `bson:"location"                  json:"location"`
	Type            JobType   `bson:"type"                      json:"type"`
	Salary          string    `bson:"salary,omitempty"          json:"salary,omitempty"`
	ContactEmail    string    `bson:"contactEmail,omitempty"    json:"contact_email,omitempty"`
	ApplicationLink string    `bson:"applicationLink,omitempty" json:"application_link,omitempty"`
	Deadline        string    `bson:"deadline,omitempty"        json:"deadline,omitempty"`
	PostedBy        string    `bson:"postedBy"                  json:"posted_by"`
	PostedAt        time.Time `bson:"postedAt"                  json:"posted_at"`
}

func (j JobPosting) OwnerID() string { return j.PostedBy }
func (j JobPosting) DocID() string   { return j.ID }

// SplitRequirements turns free text into one requirement per non-blank line.
func SplitRequirements(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
