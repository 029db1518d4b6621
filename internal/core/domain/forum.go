package domain

import "time"

// ForumCategory groups forum discussions.
type ForumCategory string

const (
	CategoryGeneral    ForumCategory = "general"
	CategoryCareer     ForumCategory = "career"
	CategoryNetworking ForumCategory = "networking"
	CategoryMemories   ForumCategory = "memories"
)

func (c ForumCategory) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryCareer, CategoryNetworking, CategoryMemories:
		return true
	}
	return false
}

// Comment is embedded in its post; ids are unique within the post only.
type Comment struct {
	ID         string    `bson:"id"                   json:"id"`
	Content    string    `bson:"content"              json:"content"`
	Author     string    `bson:"author"               json:"author"`
	AuthorName string    `bson:"authorName,omitempty" json:"author_name,omitempty"`
	CreatedAt  time.Time `bson:"createdAt"            json:"created_at"`
}

// ForumPost is a discussion thread.
type ForumPost struct {
	ID         string        `bson:"_id,omitempty"        json:"id"`
	Title      string        `bson:"title"                json:"title"`
	Content    string        `bson:"content"              json:"content"`
	Category   ForumCategory `bson:"category"             json:"category"`
	Author     string        `bson:"author"               json:"author"`
	AuthorName string        `bson:"authorName,omitempty" json:"author_name,omitempty"`
	CreatedAt  time.Time     `bson:"createdAt"            json:"created_at"`
	Comments   []Comment     `bson:"comments"             json:"comments"`
}

func (p ForumPost) OwnerID() string { return p.Author }
func (p ForumPost) DocID() string   { return p.ID }

// FindComment returns the comment with id, if the post holds one.
func (p ForumPost) FindComment(id string) (Comment, bool) {
	for _, c := range p.Comments {
		if c.ID == id {
			return c, true
		}
	}
	return Comment{}, false
}
