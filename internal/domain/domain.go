package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// FreshnessStatus buckets an item's remaining shelf life.
type FreshnessStatus string

const (
	StatusFresh    FreshnessStatus = "fresh"
	StatusWarning  FreshnessStatus = "warning"
	StatusCritical FreshnessStatus = "critical"
	StatusExpired  FreshnessStatus = "expired"
)

// CatalogItem is a priced inventory item. CurrentPrice is always derived from
// OriginalPrice and DiscountPercent; the two are never updated independently.
type CatalogItem struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	Category        string          `json:"category" db:"category"`
	Variety         string          `json:"variety,omitempty" db:"variety"`
	Quantity        int             `json:"quantity" db:"quantity"`
	OriginalPrice   float64         `json:"original_price" db:"original_price"`
	CurrentPrice    float64         `json:"current_price" db:"current_price"`
	DiscountPercent float64         `json:"discount_percent" db:"discount_percent"`
	FreshnessScore  float64         `json:"freshness_score" db:"freshness_score"`
	Status          FreshnessStatus `json:"status" db:"status"`
	LastCheckedAt   time.Time       `json:"last_checked_at" db:"last_checked_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Preferences is the validated preference schema for a customer. Partial
// payloads are filled with defaults at the ingestion boundary, never inside
// the matcher.
type Preferences struct {
	FavoriteCategories   []string `json:"favorite_categories"`
	MaxPrice             float64  `json:"max_price"`
	MinDiscountThreshold float64  `json:"min_discount_threshold"`
}

// CustomerProfile is read-only during a dispatch cycle; it is created and
// refreshed by the external purchase-history sync.
type CustomerProfile struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	ExternalID  string      `json:"external_id,omitempty" db:"external_id"`
	Name        string      `json:"name" db:"name"`
	Email       string      `json:"email,omitempty" db:"email"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// MatchReason records why an item matched a customer: the rule that fired and
// the values and thresholds that were evaluated.
type MatchReason struct {
	MatchType            string  `json:"match_type"`
	Category             string  `json:"category"`
	DiscountPercent      float64 `json:"discount_percent"`
	Price                float64 `json:"price"`
	OriginalPrice        float64 `json:"original_price"`
	MaxPrice             float64 `json:"max_price"`
	MinDiscountThreshold float64 `json:"min_discount_threshold"`
}

// Recommendation links a discounted item to a matched customer. At most one
// active (unviewed, unpurchased) recommendation exists per (customer, item);
// viewed or purchased rows are immutable history.
type Recommendation struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	CustomerID    uuid.UUID   `json:"customer_id" db:"customer_id"`
	ItemID        uuid.UUID   `json:"item_id" db:"item_id"`
	PriorityScore float64     `json:"priority_score" db:"priority_score"`
	Reason        MatchReason `json:"reason"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	Viewed        bool        `json:"viewed" db:"viewed"`
	Purchased     bool        `json:"purchased" db:"purchased"`
}

// Active reports whether the recommendation may still be superseded.
func (r Recommendation) Active() bool {
	return !r.Viewed && !r.Purchased
}

// FreshnessObservation is one reading from the external sensing process.
type FreshnessObservation struct {
	ItemID      uuid.UUID
	Score       float64
	ObservedAt  time.Time
	Confidence  float64
	EvidenceRef string
}

// --- Event wire format ---

const (
	EventItemAdded         = "item_added"
	EventItemUpdated       = "item_updated"
	EventItemRemoved       = "item_removed"
	EventFreshnessAlert    = "freshness_alert"
	EventNewRecommendation = "new_recommendation"
	EventConnected         = "connected"
)

// Event is the frame delivered over admin and customer channels.
type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	EmittedAt time.Time `json:"emitted_at"`
}

// --- Repository interfaces ---

// ItemFilter narrows catalog listings.
type ItemFilter struct {
	Category    string
	Status      FreshnessStatus
	MinDiscount float64
}

type CatalogRepository interface {
	GetItem(ctx context.Context, id uuid.UUID) (*CatalogItem, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]CatalogItem, error)
	CreateItem(ctx context.Context, item *CatalogItem) error
	UpdateItem(ctx context.Context, item *CatalogItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

type CustomerRepository interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerProfile, error)
	ListCustomers(ctx context.Context) ([]CustomerProfile, error)
	CreateCustomer(ctx context.Context, customer *CustomerProfile) error
}

type RecommendationRepository interface {
	// ActiveForItem returns the active recommendations targeting an item.
	ActiveForItem(ctx context.Context, itemID uuid.UUID) ([]Recommendation, error)
	// ListForCustomer returns a customer's recommendations, active first,
	// ordered by priority score descending.
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]Recommendation, error)
	MarkViewed(ctx context.Context, id uuid.UUID) error
}

// Store is the full read/write contract with the persistence layer. The
// engine behind it is unspecified; the dispatcher relies only on CommitPricing
// being atomic and on read-after-write consistency for its own writes.
type Store interface {
	CatalogRepository
	CustomerRepository
	RecommendationRepository

	// CommitPricing atomically persists a repriced item together with the
	// new or superseded recommendations produced by the same event.
	CommitPricing(ctx context.Context, item *CatalogItem, recs []Recommendation) error

	Ping(ctx context.Context) error
}

// Scorer derives a recommendation's priority score. The default implementation
// returns the discount magnitude; consumers with richer ranking plug in here.
type Scorer interface {
	Score(item CatalogItem, customer CustomerProfile) float64
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(item CatalogItem, customer CustomerProfile) float64

func (f ScorerFunc) Score(item CatalogItem, customer CustomerProfile) float64 {
	return f(item, customer)
}

// DiscountScorer scores a recommendation by its discount percentage.
var DiscountScorer Scorer = ScorerFunc(func(item CatalogItem, _ CustomerProfile) float64 {
	return item.DiscountPercent
})
