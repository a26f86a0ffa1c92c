package apitest

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pointsnav/go-pointsnav/models"
	"github.com/pointsnav/go-pointsnav/points"
	"github.com/pointsnav/go-pointsnav/report"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	s.mu.Lock()
	userID, ok := s.emails[req.Email]
	valid := ok && s.passwords[userID] == req.Password
	var token string
	if valid {
		token = uuid.New().String()
		s.tokens[token] = userID
	}
	s.mu.Unlock()

	if !valid {
		respondError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	respondJSON(w, http.StatusOK, models.LoginResponse{Token: token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		respondError(w, r, http.StatusBadRequest, "name, email and password are required")
		return
	}

	s.mu.Lock()
	if _, exists := s.emails[req.Email]; exists {
		s.mu.Unlock()
		respondError(w, r, http.StatusConflict, "email already registered")
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	user := models.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	s.users[user.ID] = user
	s.emails[user.Email] = user.ID
	s.passwords[user.ID] = req.Password
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	s.mu.Lock()
	if userID, ok := s.emails[req.Email]; ok {
		s.resetTokens[uuid.New().String()] = userID
	}
	s.mu.Unlock()

	// Always 200 so the endpoint does not leak which emails exist.
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	s.mu.Lock()
	userID, ok := s.resetTokens[req.Token]
	if ok {
		s.passwords[userID] = req.NewPassword
		delete(s.resetTokens, req.Token)
	}
	s.mu.Unlock()

	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid reset token")
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	user := s.users[userIDFrom(r.Context())]
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	s.mu.Lock()
	user := s.users[userIDFrom(r.Context())]
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" && req.Email != user.Email {
		delete(s.emails, user.Email)
		user.Email = req.Email
		s.emails[user.Email] = user.ID
	}
	s.users[user.ID] = user
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	userID := userIDFrom(r.Context())
	s.mu.Lock()
	ok := s.passwords[userID] == req.CurrentPassword
	if ok {
		s.passwords[userID] = req.NewPassword
	}
	s.mu.Unlock()

	if !ok {
		respondError(w, r, http.StatusBadRequest, "current password does not match")
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	s.mu.Lock()
	out := make([]models.Card, 0)
	for id, c := range s.cards {
		if s.cardOwners[id] == userID {
			out = append(out, c)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := userIDFrom(r.Context())

	s.mu.Lock()
	card, ok := s.cards[id]
	owned := s.cardOwners[id] == userID
	s.mu.Unlock()

	if !ok || !owned {
		respondError(w, r, http.StatusNotFound, "card not found")
		return
	}
	respondJSON(w, http.StatusOK, card)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req models.CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}
	if req.ConversionFactor <= 0 {
		respondError(w, r, http.StatusBadRequest, "conversion factor must be positive")
		return
	}

	s.mu.Lock()
	brand, brandOK := s.brands[req.BrandID]
	program, programOK := s.programs[req.ProgramID]
	if !brandOK || !programOK {
		s.mu.Unlock()
		respondError(w, r, http.StatusBadRequest, "unknown brand or program")
		return
	}

	card := models.Card{
		ID:               uuid.New().String(),
		CustomName:       req.CustomName,
		LastFourDigits:   req.LastFourDigits,
		ConversionFactor: req.ConversionFactor,
		Brand:            brand,
		Program:          program,
		Active:           true,
		CreatedAt:        time.Now().UTC(),
	}
	s.cards[card.ID] = card
	s.cardOwners[card.ID] = userIDFrom(r.Context())
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, card)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	s.mu.Lock()
	card, ok := s.cards[id]
	if !ok || s.cardOwners[id] != userIDFrom(r.Context()) {
		s.mu.Unlock()
		respondError(w, r, http.StatusNotFound, "card not found")
		return
	}
	if req.CustomName != "" {
		card.CustomName = req.CustomName
	}
	if req.ConversionFactor > 0 {
		card.ConversionFactor = req.ConversionFactor
	}
	if b, ok := s.brands[req.BrandID]; ok {
		card.Brand = b
	}
	if p, ok := s.programs[req.ProgramID]; ok {
		card.Program = p
	}
	s.cards[id] = card
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.cards[id]
	if ok && s.cardOwners[id] == userIDFrom(r.Context()) {
		delete(s.cards, id)
		delete(s.cardOwners, id)
	} else {
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		respondError(w, r, http.StatusNotFound, "card not found")
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) userPurchases(userID string) []models.Purchase {
	out := make([]models.Purchase, 0)
	for id, p := range s.purchases {
		if s.purchOwner[id] == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchaseDate.Before(out[j].PurchaseDate) })
	return out
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := s.userPurchases(userIDFrom(r.Context()))
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	p, ok := s.purchases[id]
	owned := s.purchOwner[id] == userIDFrom(r.Context())
	s.mu.Unlock()

	if !ok || !owned {
		respondError(w, r, http.StatusNotFound, "purchase not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}
	if req.Amount < 0 {
		respondError(w, r, http.StatusBadRequest, "amount must be non-negative")
		return
	}

	userID := userIDFrom(r.Context())
	now := time.Now().UTC()

	s.mu.Lock()
	card, ok := s.cards[req.CardID]
	if !ok || s.cardOwners[req.CardID] != userID {
		s.mu.Unlock()
		respondError(w, r, http.StatusBadRequest, "unknown card")
		return
	}

	creditDate := points.ExpectedCreditDate(req.PurchaseDate)
	p := models.Purchase{
		ID:                 uuid.New().String(),
		Amount:             req.Amount,
		PurchaseDate:       req.PurchaseDate,
		ExpectedCreditDate: creditDate,
		DaysUntilCredit:    points.DaysUntilCredit(creditDate, now),
		ComputedPoints:     points.Calculate(req.Amount, card.ConversionFactor),
		Status:             models.PurchasePending,
		Description:        req.Description,
		Card:               card,
		CreatedAt:          now,
	}
	s.purchases[p.ID] = p
	s.purchOwner[p.ID] = userID
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePurchase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	s.mu.Lock()
	p, ok := s.purchases[id]
	if !ok || s.purchOwner[id] != userIDFrom(r.Context()) {
		s.mu.Unlock()
		respondError(w, r, http.StatusNotFound, "purchase not found")
		return
	}
	if req.Amount > 0 {
		p.Amount = req.Amount
	}
	if !req.PurchaseDate.IsZero() {
		p.PurchaseDate = req.PurchaseDate
		p.ExpectedCreditDate = points.ExpectedCreditDate(req.PurchaseDate)
	}
	if req.Description != "" {
		p.Description = req.Description
	}
	if card, ok := s.cards[req.CardID]; ok {
		p.Card = card
	}
	p.ComputedPoints = points.Calculate(p.Amount, p.Card.ConversionFactor)
	s.purchases[id] = p
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.purchases[id]
	if ok && s.purchOwner[id] == userIDFrom(r.Context()) {
		delete(s.purchases, id)
		delete(s.purchOwner, id)
	} else {
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		respondError(w, r, http.StatusNotFound, "purchase not found")
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handlePurchaseStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Status models.PurchaseStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	s.mu.Lock()
	p, ok := s.purchases[id]
	if !ok || s.purchOwner[id] != userIDFrom(r.Context()) {
		s.mu.Unlock()
		respondError(w, r, http.StatusNotFound, "purchase not found")
		return
	}
	p.Status = req.Status
	s.purchases[id] = p
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid multipart body")
		return
	}
	_, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "receipt file is required")
		return
	}

	s.mu.Lock()
	p, ok := s.purchases[id]
	if !ok || s.purchOwner[id] != userIDFrom(r.Context()) {
		s.mu.Unlock()
		respondError(w, r, http.StatusNotFound, "purchase not found")
		return
	}
	p.ReceiptURL = "/receipts/" + id + "/" + header.Filename
	s.purchases[id] = p
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]models.PointsProgram, 0, len(s.programs))
	for _, p := range s.programs {
		out = append(out, p)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.programs[chi.URLParam(r, "id")]
	s.mu.Unlock()

	if !ok {
		respondError(w, r, http.StatusNotFound, "program not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleListBrands(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]models.CardBrand, 0, len(s.brands))
	for _, b := range s.brands {
		out = append(out, b)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBrand(w http.ResponseWriter, r *http.Request) {
	var req models.BrandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	b := models.CardBrand{ID: uuid.New().String(), Name: req.Name, LogoURL: req.LogoURL, Active: true}
	s.mu.Lock()
	s.brands[b.ID] = b
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, b)
}

func (s *Server) handleUpdateBrand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.BrandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	s.mu.Lock()
	b, ok := s.brands[id]
	if ok {
		b.Name = req.Name
		b.LogoURL = req.LogoURL
		s.brands[id] = b
	}
	s.mu.Unlock()

	if !ok {
		respondError(w, r, http.StatusNotFound, "brand not found")
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBrand(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.brands, chi.URLParam(r, "id"))
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	var req models.ProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	p := models.PointsProgram{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Description:   req.Description,
		LogoURL:       req.LogoURL,
		DefaultFactor: req.DefaultFactor,
		Active:        true,
	}
	s.mu.Lock()
	s.programs[p.ID] = p
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProgram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.ProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	s.mu.Lock()
	p, ok := s.programs[id]
	if ok {
		p.Name = req.Name
		p.Description = req.Description
		p.LogoURL = req.LogoURL
		p.DefaultFactor = req.DefaultFactor
		s.programs[id] = p
	}
	s.mu.Unlock()

	if !ok {
		respondError(w, r, http.StatusNotFound, "program not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.programs, chi.URLParam(r, "id"))
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := s.notifications[userIDFrom(r.Context())]
	out := make([]models.Notification, len(list))
	copy(out, list)
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	count := 0
	for _, n := range s.notifications[userIDFrom(r.Context())] {
		if !n.Read {
			count++
		}
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, models.UnreadCountResponse{Count: count})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := userIDFrom(r.Context())

	s.mu.Lock()
	var updated models.Notification
	found := false
	list := s.notifications[userID]
	for i := range list {
		if list[i].ID == id {
			list[i].Read = true
			updated = list[i]
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		respondError(w, r, http.StatusNotFound, "notification not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	s.mu.Lock()
	list := s.notifications[userID]
	for i := range list {
		list[i].Read = true
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handleListPromotions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]models.Promotion, 0, len(s.promotions))
	for _, p := range s.promotions {
		out = append(out, p)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleActivePromotions(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()

	s.mu.Lock()
	out := make([]models.Promotion, 0, len(s.promotions))
	for _, p := range s.promotions {
		if report.DeriveStatus(p, now) == report.PromotionActive {
			out = append(out, p)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPromotion(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.promotions[chi.URLParam(r, "id")]
	s.mu.Unlock()

	if !ok {
		respondError(w, r, http.StatusNotFound, "promotion not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	s.mu.Lock()
	purchases := s.userPurchases(userID)
	activeCards := 0
	for id, c := range s.cards {
		if s.cardOwners[id] == userID && c.Active {
			activeCards++
		}
	}
	s.mu.Unlock()

	summary := report.Summarize(purchases)
	var pending int64
	for _, p := range purchases {
		if p.Status == models.PurchasePending {
			pending += p.ComputedPoints
		}
	}

	recent := purchases
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}

	respondJSON(w, http.StatusOK, models.DashboardData{
		TotalPoints:     summary.TotalPoints,
		ActiveCards:     activeCards,
		PendingPoints:   pending,
		MonthlyHistory:  report.History(purchases),
		RecentPurchases: recent,
	})
}

func (s *Server) filteredHistory(r *http.Request) ([]models.Purchase, error) {
	userID := userIDFrom(r.Context())

	s.mu.Lock()
	purchases := s.userPurchases(userID)
	s.mu.Unlock()

	q := r.URL.Query()
	var start, end time.Time
	var err error
	if v := q.Get("start_date"); v != "" {
		if start, err = time.Parse("2006-01-02", v); err != nil {
			return nil, err
		}
	}
	if v := q.Get("end_date"); v != "" {
		if end, err = time.Parse("2006-01-02", v); err != nil {
			return nil, err
		}
		// Inclusive end-of-day bound.
		end = end.Add(24*time.Hour - time.Nanosecond)
	}

	purchases = report.FilterByRange(purchases, start, end)
	purchases = report.FilterByCard(purchases, q.Get("card_id"))
	purchases = report.FilterByStatus(purchases, models.PurchaseStatus(q.Get("status")))
	return purchases, nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.filteredHistory(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid date filter")
		return
	}
	respondJSON(w, http.StatusOK, purchases)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.filteredHistory(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid date filter")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	report.WriteCSV(w, purchases)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	if _, err := s.filteredHistory(r); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid date filter")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("%PDF-1.4 fake export"))
}
