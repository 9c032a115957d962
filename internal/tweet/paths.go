package tweet

import "errors"

// FieldPaths locates each canonical field inside one API response shape.
// A nil path means the shape cannot represent that field.
type FieldPaths struct {
	FromUser  []string
	ToUser    []string
	Retweet   []string
	CreatedAt []string
	Status    []string
}

var (
	// RESTStatusPaths reads timeline and update responses.
	RESTStatusPaths = FieldPaths{
		FromUser:  []string{"user", "screen_name"},
		ToUser:    []string{"in_reply_to_screen_name"},
		Retweet:   []string{"retweeted_status"},
		CreatedAt: []string{"created_at"},
		Status:    []string{"text"},
	}

	// RESTUserPaths reads friends/followers responses: a user with their
	// latest status embedded.
	RESTUserPaths = FieldPaths{
		FromUser:  []string{"screen_name"},
		ToUser:    []string{"status", "in_reply_to_screen_name"},
		Retweet:   []string{"retweeted_status"},
		CreatedAt: []string{"status", "created_at"},
		Status:    []string{"status", "text"},
	}

	// SearchPaths reads entries of a Search API "results" list.
	SearchPaths = FieldPaths{
		FromUser:  []string{"from_user"},
		ToUser:    []string{"to_user"},
		CreatedAt: []string{"created_at"},
		Status:    []string{"text"},
	}
)

var errNoFromUser = errors.New("field paths define no from_user path")

func (p FieldPaths) Validate() error {
	if len(p.FromUser) == 0 {
		return errNoFromUser
	}
	return nil
}
