package model

// Card is a business-card document. FavoriteByUsers behaves as a set: the
// store backends never append a user id that is already present.
type Card struct {
	ID              string   `json:"_id"`
	Title           string   `json:"title"`
	Subtitle        string   `json:"subtitle"`
	Description     string   `json:"description"`
	Phone           string   `json:"phone"`
	Email           string   `json:"email"`
	Web             string   `json:"web,omitempty"`
	Image           *Image   `json:"image,omitempty"`
	Address         Address  `json:"address"`
	UserID          string   `json:"userId,omitempty"`
	FavoriteByUsers []string `json:"favoriteByUsers"`
}

// FavoritedBy reports whether the given user has favorited the card.
func (c *Card) FavoritedBy(userID string) bool {
	for _, id := range c.FavoriteByUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// SanitizedCard is the allow-list projection of a Card returned by the
// public listing and detail endpoints.
type SanitizedCard struct {
	ID          string  `json:"_id"`
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Description string  `json:"description"`
	Phone       string  `json:"phone"`
	Email       string  `json:"email"`
	Web         string  `json:"web,omitempty"`
	Image       *Image  `json:"image,omitempty"`
	Address     Address `json:"address"`
}

// Sanitized projects the card through the response allow-list.
func (c *Card) Sanitized() *SanitizedCard {
	return &SanitizedCard{
		ID:          c.ID,
		Title:       c.Title,
		Subtitle:    c.Subtitle,
		Description: c.Description,
		Phone:       c.Phone,
		Email:       c.Email,
		Web:         c.Web,
		Image:       c.Image,
		Address:     c.Address,
	}
}

// SanitizeCards projects a list of cards.
func SanitizeCards(cards []*Card) []*SanitizedCard {
	sanitized := make([]*SanitizedCard, 0, len(cards))
	for _, c := range cards {
		sanitized = append(sanitized, c.Sanitized())
	}
	return sanitized
}
