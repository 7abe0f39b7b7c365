package media

import "time"

// KindMaster tags documents reachable through the listing and get endpoints.
const KindMaster = "Master"

// DeletedAuthorName is stored in the author snapshot when the author account
// can no longer be resolved.
const DeletedAuthorName = "[deleted]"

// Author is the denormalized display snapshot of the creating account.
// It is refreshed on every write and may be stale between writes.
type Author struct {
	ID        string `json:"id" bson:"id"`
	UserName  string `json:"userName" bson:"userName"`
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
}

// DeletedAuthor returns the sentinel snapshot for an unresolvable author.
func DeletedAuthor(id string) Author {
	return Author{ID: id, UserName: DeletedAuthorName}
}

// Document is the mutable master media document.
type Document struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Kind        string    `json:"kind" bson:"kind"`
	Title       string    `json:"title" bson:"title"`
	AuthorID    string    `json:"authorId" bson:"authorId"`
	Author      Author    `json:"author" bson:"author"`
	URI         string    `json:"uri" bson:"uri"`
	Date        time.Time `json:"date" bson:"date"`
	Tags        []string  `json:"tags" bson:"tags"`
	Description string    `json:"description" bson:"description"`
	IsPublic    bool      `json:"isPublic" bson:"isPublic"`
	// Version increases by one on every successful update and guards
	// compare-and-set writes at the store layer.
	Version int64 `json:"version" bson:"version"`
}

// Revision is an immutable snapshot of a Document taken immediately before an update.
// Date is the time the revision was captured, not the master's creation date.
type Revision struct {
	ID               string    `json:"id" bson:"_id,omitempty"`
	ForMediaDocument string    `json:"forMediaDocument" bson:"forMediaDocument"`
	Title            string    `json:"title" bson:"title"`
	Date             time.Time `json:"date" bson:"date"`
	AuthorID         string    `json:"authorId" bson:"authorId"`
	Author           Author    `json:"author" bson:"author"`
	URI              string    `json:"uri" bson:"uri"`
	Tags             []string  `json:"tags" bson:"tags"`
	Description      string    `json:"description" bson:"description"`
	IsPublic         bool      `json:"isPublic" bson:"isPublic"`
}

// Snapshot builds the revision capturing d's current display fields.
func (d *Document) Snapshot(at time.Time) *Revision {
	return &Revision{
		ForMediaDocument: d.ID,
		Title:            d.Title,
		Date:             at,
		AuthorID:         d.AuthorID,
		Author:           d.Author,
		URI:              d.URI,
		Tags:             cloneTags(d.Tags),
		Description:      d.Description,
		IsPublic:         d.IsPublic,
	}
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := *d
	c.Tags = cloneTags(d.Tags)
	return &c
}

// Clone returns a deep copy of r.
func (r *Revision) Clone() *Revision {
	c := *r
	c.Tags = cloneTags(r.Tags)
	return &c
}

// Fields carries the caller-supplied values for Create.
type Fields struct {
	Title       string
	URI         string
	Tags        []string
	Description string
	IsPublic    bool
}

// Patch carries a partial update. Nil members are left unchanged.
type Patch struct {
	Title       *string
	URI         *string
	Tags        *[]string
	Description *string
	IsPublic    *bool
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.URI == nil && p.Tags == nil && p.Description == nil && p.IsPublic == nil
}

// Apply writes the non-nil members of p onto d.
func (p Patch) Apply(d *Document) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.URI != nil {
		d.URI = *p.URI
	}
	if p.Tags != nil {
		d.Tags = cloneTags(*p.Tags)
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.IsPublic != nil {
		d.IsPublic = *p.IsPublic
	}
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
