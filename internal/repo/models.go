package repo

import "time"

// Message roles stored in conversations.content.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation statuses set by analysis.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusAbandoned = "abandoned"
)

// OrderStatusPending is the status of a freshly created order.
const OrderStatusPending = "pending"

// Message is one element of conversations.content.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Conversation represents the conversations table row.
type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	Content        []Message `json:"content"`
	Status         string    `json:"status,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserInfo represents the info_user table row (the lead record).
type UserInfo struct {
	ID             int64     `json:"id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Name           string    `json:"name,omitempty"`
	Email          string    `json:"email,omitempty"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	Company        string    `json:"company,omitempty"`
	Position       string    `json:"position,omitempty"`
	LeadQuality    int       `json:"lead_quality,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID       int64   `json:"id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Order represents a row in orders table.
type Order struct {
	OrderID      string         `json:"order_id"`
	Items        []OrderItem    `json:"items"`
	Total        float64        `json:"total"`
	CustomerInfo map[string]any `json:"customer_info"`
	DeliveryInfo map[string]any `json:"delivery_info"`
	Status       string         `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
