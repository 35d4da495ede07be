package domain

// User is a moderator account created through the Reddit OAuth flow.
// The refresh token is stored encrypted and never serialized.
type User struct {
	ID             int32  `json:"id"`
	RedditUsername string `json:"reddit_username"`
	Lang           string `json:"lang"`
	RefreshToken   string `json:"-"`
	IsGlobalAdmin  bool   `json:"is_global_admin"`
	IsAdmin        bool   `json:"is_admin"`
	IsMod          bool   `json:"is_mod"`
}

type InsertUser struct {
	RedditUsername string `json:"reddit_username"`
	Lang           string `json:"lang"`
	RefreshToken   string `json:"refresh_token"`
	IsGlobalAdmin  bool   `json:"is_global_admin"`
	IsAdmin        bool   `json:"is_admin"`
	IsMod          bool   `json:"is_mod"`
}

type UpdateUser struct {
	Lang          *string `json:"lang,omitempty"`
	RefreshToken  *string `json:"refresh_token,omitempty"`
	IsGlobalAdmin *bool   `json:"is_global_admin,omitempty"`
	IsAdmin       *bool   `json:"is_admin,omitempty"`
	IsMod         *bool   `json:"is_mod,omitempty"`
}

// CanModifyThread reports whether the user may mutate the given thread,
// including its sections and events. Global admins can change anything,
// subreddit admins anything in their subreddit, and authors their own
// threads.
func (u *User) CanModifyThread(t *Thread) bool {
	if u.IsGlobalAdmin {
		return true
	}
	if t.Subreddit != nil && u.IsAdmin {
		return true
	}
	return t.CreatedByUserID == u.ID
}
