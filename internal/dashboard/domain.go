package dashboard

import "time"

// Movement is one recent ledger entry joined with product data.
type Movement struct {
	EntryID      int64     `json:"entry_id"`
	ProductID    int64     `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Direction    string    `json:"direction"`
	Qty          int64     `json:"qty"`
	OccurredAt   time.Time `json:"occurred_at"`
	ActivityName *string   `json:"activity_name,omitempty"`
}

// Summary is the dashboard payload. It is cached as JSON in redis.
type Summary struct {
	TotalProducts   int64      `json:"total_products"`
	TotalStock      int64      `json:"total_stock"`
	TotalActivities int64      `json:"total_activities"`
	RecentMovements []Movement `json:"recent_movements"`
	GeneratedAt     time.Time  `json:"generated_at"`
}
