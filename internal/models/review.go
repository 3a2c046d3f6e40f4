package models

import "time"

type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Comment   string    `json:"comment"`
	Likes     []string  `json:"likes"`
	Dislikes  []string  `json:"dislikes"`
	CreatedAt time.Time `json:"created_at"`
}

type Vote string

const (
	VoteLike    Vote = "like"
	VoteDislike Vote = "dislike"
	VoteNone    Vote = "none"
)

// ApplyVote moves userID into the voter set for v, removing it from the other.
func (r *Review) ApplyVote(userID string, v Vote) {
	r.Likes = without(r.Likes, userID)
	r.Dislikes = without(r.Dislikes, userID)
	switch v {
	case VoteLike:
		r.Likes = append(r.Likes, userID)
	case VoteDislike:
		r.Dislikes = append(r.Dislikes, userID)
	}
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

type ReviewView struct {
	Review
	Author       UserRef `json:"author"`
	LikeCount    int     `json:"like_count"`
	DislikeCount int     `json:"dislike_count"`
}
