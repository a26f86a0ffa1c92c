// Package models defines the entities and request/response payloads
// exchanged with the rewards API.
package models

import (
	"fmt"
	"time"
)

// Role identifies a user's access level. It is assigned server-side and
// never changes on the client.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the authenticated account profile.
type User struct {
	ID        string    `json:"id"` // uuid
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// CardBrand is a read-mostly lookup entity managed by admins.
type CardBrand struct {
	ID      string `json:"id"` // uuid
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
	Active  bool   `json:"active"`
}

// PointsProgram is the loyalty program a card's points accrue into.
type PointsProgram struct {
	ID            string  `json:"id"` // uuid
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	LogoURL       string  `json:"logo_url,omitempty"`
	DefaultFactor float64 `json:"default_factor"` // points per currency unit
	Active        bool    `json:"active"`
}

// Card is a registered payment card. PointBalance is server-authoritative;
// the client only previews point amounts before a purchase is created.
type Card struct {
	ID               string        `json:"id"` // uuid
	CustomName       string        `json:"custom_name"`
	LastFourDigits   string        `json:"last_four_digits"`
	ConversionFactor float64       `json:"conversion_factor"` // points per currency unit, > 0
	Brand            CardBrand     `json:"brand"`
	Program          PointsProgram `json:"program"`
	PointBalance     int64         `json:"point_balance"`
	Active           bool          `json:"active"`
	CreatedAt        time.Time     `json:"created_at,omitempty"`
}

// PurchaseStatus tracks whether a purchase's points have posted.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "PENDING"
	PurchaseCredited  PurchaseStatus = "CREDITED"
	PurchaseCancelled PurchaseStatus = "CANCELLED"
)

// Purchase is a logged card purchase. ComputedPoints equals
// floor(Amount × Card.ConversionFactor) at creation time; Amount and the
// factor are immutable inputs to that formula.
type Purchase struct {
	ID                 string         `json:"id"` // uuid
	Amount             float64        `json:"amount"` // >= 0
	PurchaseDate       time.Time      `json:"purchase_date"`
	ExpectedCreditDate time.Time      `json:"expected_credit_date"`
	DaysUntilCredit    int            `json:"days_until_credit,omitempty"`
	ComputedPoints     int64          `json:"computed_points"`
	Status             PurchaseStatus `json:"status"`
	Description        string         `json:"description,omitempty"`
	ReceiptURL         string         `json:"receipt_url,omitempty"`
	Card               Card           `json:"card"`
	CreatedAt          time.Time      `json:"created_at,omitempty"`
}

// NotificationKind classifies a notification for display.
type NotificationKind string

const (
	KindNotice NotificationKind = "NOTICE"
	KindAlert  NotificationKind = "ALERT"
	KindPromo  NotificationKind = "PROMO"
)

// Notification is a server-generated message; append-only from the server,
// mutated client-side only via mark-read operations.
type Notification struct {
	ID        string           `json:"id"` // uuid
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Kind      NotificationKind `json:"kind"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Promotion is a time-boxed bonus campaign. Its upcoming/active/expired
// status is always derived from StartDate/EndDate, never stored.
type Promotion struct {
	ID          string         `json:"id"` // uuid
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ImageURL    string         `json:"image_url,omitempty"`
	Program     *PointsProgram `json:"program,omitempty"`
	BonusFactor float64        `json:"bonus_factor"` // > 0 multiplier
	StartDate   time.Time      `json:"start_date"`
	EndDate     time.Time      `json:"end_date"`
	Active      bool           `json:"active"`
}

// PointsByCard is one slice of the dashboard points breakdown.
type PointsByCard struct {
	CardID      string  `json:"card_id"`
	CardName    string  `json:"card_name"`
	ProgramName string  `json:"program_name"`
	Points      int64   `json:"points"`
	Percentage  float64 `json:"percentage"`
}

// MonthlyHistory is one month of accrual history for the dashboard chart.
type MonthlyHistory struct {
	Month     string `json:"month"` // "2006-01"
	Points    int64  `json:"points"`
	Purchases int    `json:"purchases"`
}

// DashboardData is the aggregate summary payload for the dashboard view.
type DashboardData struct {
	TotalPoints         int64            `json:"total_points"`
	TotalPointsChange   float64          `json:"total_points_change"`
	ActiveCards         int              `json:"active_cards"`
	PendingPoints       int64            `json:"pending_points"`
	ExpiringPoints      int64            `json:"expiring_points"`
	AverageDaysToCredit float64          `json:"average_days_to_credit"`
	PointsByCard        []PointsByCard   `json:"points_by_card"`
	MonthlyHistory      []MonthlyHistory `json:"monthly_history"`
	RecentPurchases     []Purchase       `json:"recent_purchases"`
}

// LoginRequest carries credentials to the authentication endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token. The user profile is
// fetched separately after login.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// RegisterRequest creates a new account. Role defaults to USER server-side.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// UpdateProfileRequest edits the authenticated user's profile.
type UpdateProfileRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ChangePasswordRequest rotates the authenticated user's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ForgotPasswordRequest starts a password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes a password reset flow.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// CardRequest creates or updates a card.
type CardRequest struct {
	CustomName       string  `json:"custom_name"`
	LastFourDigits   string  `json:"last_four_digits"`
	ConversionFactor float64 `json:"conversion_factor"`
	BrandID          string  `json:"brand_id"`
	ProgramID        string  `json:"program_id"`
}

// PurchaseRequest creates or updates a purchase. Points and the expected
// credit date are computed server-side from the owning card.
type PurchaseRequest struct {
	Amount       float64   `json:"amount"`
	PurchaseDate time.Time `json:"purchase_date"`
	Description  string    `json:"description,omitempty"`
	CardID       string    `json:"card_id"`
}

// BrandRequest is the admin payload for card brands.
type BrandRequest struct {
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
}

// ProgramRequest is the admin payload for points programs.
type ProgramRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	LogoURL       string  `json:"logo_url,omitempty"`
	DefaultFactor float64 `json:"default_factor"`
}

// UnreadCountResponse is the unread-notification counter payload.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// ReportFilters narrows report and export queries. Zero times and empty
// strings mean unbounded/unfiltered.
type ReportFilters struct {
	StartDate time.Time
	EndDate   time.Time
	CardID    string
	Status    PurchaseStatus
}

// APIError is the error envelope returned by the rewards API.
type APIError struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Code      string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d on %s: %s", e.Status, e.Path, e.Message)
}
