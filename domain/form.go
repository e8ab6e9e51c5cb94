package domain

import (
	"strconv"
)

// GroupFinder resolves a group identifier against the set of existing
// groups. A (nil, nil) return means the group does not exist.
type GroupFinder interface {
	GroupByID(id int64) (*Group, error)
}

// PostForm carries the raw submitted fields of the create/edit post form.
// Group is the group id as it arrived on the wire; empty means no group.
type PostForm struct {
	Text  string
	Group string
}

// FieldErrors maps a form field name to the message shown next to it.
type FieldErrors map[string]string

// PostChange is a validated change ready to be stamped with an author and
// persisted. Group is nil when the post belongs to no group.
type PostChange struct {
	Text  string
	Group *Group
}

// Validate checks the submitted fields and resolves the group reference.
// It returns either a PostChange or the per-field errors; the last return
// is a lookup failure, not a validation verdict.
//
// The text check rejects the exact empty string only. Whitespace-only text
// is accepted.
func (f PostForm) Validate(groups GroupFinder) (*PostChange, FieldErrors, error) {
	errs := FieldErrors{}

	if f.Text == "" {
		errs["text"] = "write something, the text cannot be empty"
	}

	var group *Group
	if f.Group != "" {
		id, err := strconv.ParseInt(f.Group, 10, 64)
		if err != nil {
			errs["group"] = "choose an existing group"
		} else {
			group, err = groups.GroupByID(id)
			if err != nil {
				return nil, nil, err
			}
			if group == nil {
				errs["group"] = "choose an existing group"
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs, nil
	}
	return &PostChange{Text: f.Text, Group: group}, nil, nil
}
