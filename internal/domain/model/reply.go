package model

import "time"

// Embed is a media attachment on a cast reply.
type Embed struct {
	URL string
}

// Reply is one direct reply to a cast as returned by the social API.
type Reply struct {
	AuthorFID int64
	Timestamp time.Time
	Text      string
	Embeds    []Embed
}
