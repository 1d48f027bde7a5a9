package business

import "time"

// Subscription status values mirrored onto every business linked to a user.
const (
	StatusActive       = "ACTIVE"
	StatusInactive     = "INACTIVE"
	StatusCancelled    = "CANCELLED"
	StatusTrialExpired = "TRIAL_EXPIRED"
)

// Business carries a denormalized copy of the owning user's plan/status so
// storefront reads never need a join through users.
type Business struct {
	ID   uint `gorm:"primaryKey"`
	Name string

	SubscriptionPlan   string `gorm:"type:varchar(20);not null;default:'STARTER'"`
	SubscriptionStatus string `gorm:"type:varchar(20);not null;default:'ACTIVE'"`

	TrialEndsAt *time.Time `gorm:"column:trial_ends_at"`
	GraceEndsAt *time.Time `gorm:"column:grace_ends_at"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BusinessUser links users to businesses. One user may own several
// businesses; all of them follow the user's plan.
type BusinessUser struct {
	ID         uint   `gorm:"primaryKey"`
	BusinessID uint   `gorm:"not null;index:idx_business_users_business_id"`
	UserID     uint   `gorm:"not null;index:idx_business_users_user_id"`
	Role       string `gorm:"type:varchar(20);not null;default:'OWNER'"`

	CreatedAt time.Time
}
