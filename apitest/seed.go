package apitest

import (
	"time"

	"github.com/google/uuid"

	"github.com/pointsnav/go-pointsnav/models"
	"github.com/pointsnav/go-pointsnav/points"
)

// SeedUser registers an account directly in the fake's state and returns it.
func (s *Server) SeedUser(name, email, password string, role models.Role) models.User {
	user := models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.users[user.ID] = user
	s.emails[email] = user.ID
	s.passwords[user.ID] = password
	s.mu.Unlock()

	return user
}

// IssueToken mints a valid bearer token for the given user.
func (s *Server) IssueToken(userID string) string {
	token := uuid.New().String()
	s.mu.Lock()
	s.tokens[token] = userID
	s.mu.Unlock()
	return token
}

// RevokeToken invalidates a previously issued token, so the next
// authenticated request with it gets a 401.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// SeedBrand adds a card brand to the lookup tables.
func (s *Server) SeedBrand(name string) models.CardBrand {
	b := models.CardBrand{ID: uuid.New().String(), Name: name, Active: true}
	s.mu.Lock()
	s.brands[b.ID] = b
	s.mu.Unlock()
	return b
}

// SeedProgram adds a points program to the lookup tables.
func (s *Server) SeedProgram(name string, defaultFactor float64) models.PointsProgram {
	p := models.PointsProgram{
		ID:            uuid.New().String(),
		Name:          name,
		DefaultFactor: defaultFactor,
		Active:        true,
	}
	s.mu.Lock()
	s.programs[p.ID] = p
	s.mu.Unlock()
	return p
}

// SeedCard registers a card owned by userID.
func (s *Server) SeedCard(userID, name string, factor float64, brand models.CardBrand, program models.PointsProgram) models.Card {
	c := models.Card{
		ID:               uuid.New().String(),
		CustomName:       name,
		LastFourDigits:   "4242",
		ConversionFactor: factor,
		Brand:            brand,
		Program:          program,
		Active:           true,
		CreatedAt:        time.Now().UTC(),
	}

	s.mu.Lock()
	s.cards[c.ID] = c
	s.cardOwners[c.ID] = userID
	s.mu.Unlock()

	return c
}

// SeedPurchase logs a purchase for userID on the given card, with points
// and credit date derived the same way the create endpoint derives them.
func (s *Server) SeedPurchase(userID string, card models.Card, amount float64, purchaseDate time.Time, status models.PurchaseStatus) models.Purchase {
	p := models.Purchase{
		ID:                 uuid.New().String(),
		Amount:             amount,
		PurchaseDate:       purchaseDate,
		ExpectedCreditDate: points.ExpectedCreditDate(purchaseDate),
		ComputedPoints:     points.Calculate(amount, card.ConversionFactor),
		Status:             status,
		Card:               card,
		CreatedAt:          time.Now().UTC(),
	}

	s.mu.Lock()
	s.purchases[p.ID] = p
	s.purchOwner[p.ID] = userID
	s.mu.Unlock()

	return p
}

// SeedNotification appends a notification to userID's list.
func (s *Server) SeedNotification(userID, title, message string, kind models.NotificationKind, read bool) models.Notification {
	n := models.Notification{
		ID:        uuid.New().String(),
		Title:     title,
		Message:   message,
		Kind:      kind,
		Read:      read,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.notifications[userID] = append(s.notifications[userID], n)
	s.mu.Unlock()

	return n
}

// SeedPromotion adds a time-boxed campaign.
func (s *Server) SeedPromotion(title string, bonusFactor float64, start, end time.Time) models.Promotion {
	p := models.Promotion{
		ID:          uuid.New().String(),
		Title:       title,
		Description: title,
		BonusFactor: bonusFactor,
		StartDate:   start,
		EndDate:     end,
		Active:      true,
	}

	s.mu.Lock()
	s.promotions[p.ID] = p
	s.mu.Unlock()

	return p
}
