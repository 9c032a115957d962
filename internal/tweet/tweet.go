package tweet

import (
	"time"
)

// Tweet is the canonical form of a status or user record, whichever API
// shape it came from. Empty strings and the zero time mean "absent".
type Tweet struct {
	FromUser  string
	ToUser    string
	RTUser    string
	CreatedAt time.Time
	Status    string
}

// Timestamped reports whether the record carried a parsable creation time.
func (t Tweet) Timestamped() bool { return !t.CreatedAt.IsZero() }

// Retweet reports whether FromUser's status was retweeted by RTUser.
func (t Tweet) Retweet() bool { return t.RTUser != "" }

func (t Tweet) HasStatus() bool { return t.Status != "" }

func (t Tweet) Reply() bool { return t.ToUser != "" }

// Equal compares all fields; timestamps compare as instants.
func (t Tweet) Equal(o Tweet) bool {
	return t.FromUser == o.FromUser &&
		t.ToUser == o.ToUser &&
		t.RTUser == o.RTUser &&
		t.Status == o.Status &&
		t.CreatedAt.Equal(o.CreatedAt)
}
