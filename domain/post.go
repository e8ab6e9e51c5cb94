package domain

import (
	"time"
)

// Group is a topical collection of posts. Groups are created by the site
// admin; deleting one detaches its posts instead of deleting them.
type Group struct {
	ID          int64
	Title       string
	Slug        string
	Description string
}

type Post struct {
	ID      int64
	Text    string
	PubDate time.Time
	Author  User
	Group   *Group
}

const previewLen = 30

// Preview returns the opening of the post text, shown as a short caption on
// the detail page.
func (p Post) Preview() string {
	runes := []rune(p.Text)
	if len(runes) <= previewLen {
		return p.Text
	}
	return string(runes[:previewLen])
}
