package domain

type User struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	Role                string `json:"role"`
	Avatar              string `json:"avatar,omitempty"`
	UnreadMessages      int    `json:"unreadMessages,omitempty"`
	UnreadNotifications int    `json:"unreadNotifications,omitempty"`
}

// Session is the signed-in identity plus its bearer token.
type Session struct {
	Token string
	User  *User
}

// Authenticated reports whether both the token and the user are present.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.User != nil
}
