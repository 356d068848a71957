package modaics

import "encoding/json"

// Item is a marketplace listing.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Brand       string    `json:"brand"`
	Category    string    `json:"category"`
	Size        string    `json:"size"`
	Condition   string    `json:"condition"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	OwnerID     string    `json:"owner_id"`
	ImageURLs   []string  `json:"image_urls"`
	Sustainable bool      `json:"sustainable"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

// NewItem is the payload for creating a listing.
type NewItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Size        string   `json:"size"`
	Condition   string   `json:"condition"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	OwnerID     string   `json:"owner_id"`
	ImageData   []string `json:"image_data,omitempty"`
}

// AddItemResult is returned after a successful listing submission.
type AddItemResult struct {
	ItemID  string `json:"item_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SearchResult is one scored match.
type SearchResult struct {
	Item  Item    `json:"item"`
	Score float64 `json:"score"`
}

// SearchResponse is returned by the search endpoints.
type SearchResponse struct {
	Results    []SearchResult `json:"results"`
	TotalCount int            `json:"total_count"`
	QueryTime  float64        `json:"query_time"`
}

// AnalysisResult describes an analyzed garment image.
type AnalysisResult struct {
	Category    string   `json:"category"`
	Brand       string   `json:"brand"`
	Colors      []string `json:"colors"`
	Pattern     string   `json:"pattern"`
	Materials   []string `json:"materials"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// GeneratedDescription is a model-written listing description.
type GeneratedDescription struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

// Sketchbook is a brand content feed.
type Sketchbook struct {
	ID          string    `json:"id"`
	BrandID     string    `json:"brand_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MemberCount int       `json:"member_count"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   Timestamp `json:"created_at"`
}

// SketchbookSettings are the mutable sketchbook attributes.
type SketchbookSettings struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	IsPublic    *bool  `json:"is_public,omitempty"`
}

// Post is an entry in a sketchbook feed.
type Post struct {
	ID           string     `json:"id"`
	SketchbookID string     `json:"sketchbook_id"`
	AuthorID     string     `json:"author_id"`
	Kind         string     `json:"kind"`
	Text         string     `json:"text"`
	ImageURLs    []string   `json:"image_urls,omitempty"`
	Poll         *Poll      `json:"poll,omitempty"`
	Reactions    []Reaction `json:"reactions,omitempty"`
	CreatedAt    Timestamp  `json:"created_at"`
}

// NewPost is the payload for creating a post.
type NewPost struct {
	AuthorID  string     `json:"author_id"`
	Kind      string     `json:"kind"`
	Text      string     `json:"text"`
	ImageURLs []string   `json:"image_urls,omitempty"`
	Poll      *PollInput `json:"poll,omitempty"`
}

// Poll attaches a vote to a post.
type Poll struct {
	ID         string       `json:"id"`
	Question   string       `json:"question"`
	Options    []PollOption `json:"options"`
	TotalVotes int          `json:"total_votes"`
	ClosesAt   Timestamp    `json:"closes_at"`
}

// PollOption is one votable choice.
type PollOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Votes int    `json:"votes"`
}

// PollInput creates a poll alongside a post.
type PollInput struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Reaction is an emoji response to a post.
type Reaction struct {
	UserID string `json:"user_id"`
	Emoji  string `json:"emoji"`
}

// Membership describes a user's standing in a sketchbook.
type Membership struct {
	SketchbookID string    `json:"sketchbook_id"`
	UserID       string    `json:"user_id"`
	Role         string    `json:"role"`
	Points       int       `json:"points"`
	JoinedAt     Timestamp `json:"joined_at"`
}

// SpendEligibility reports whether a member can spend loyalty points.
type SpendEligibility struct {
	Eligible  bool   `json:"eligible"`
	Points    int    `json:"points"`
	Threshold int    `json:"threshold"`
	Reason    string `json:"reason,omitempty"`
}

// FeedEntry is one community-feed item.
type FeedEntry struct {
	Sketchbook Sketchbook `json:"sketchbook"`
	LatestPost *Post      `json:"latest_post,omitempty"`
}

// PaymentIntent is a created Stripe payment intent.
type PaymentIntent struct {
	ClientSecret    string  `json:"client_secret"`
	PaymentIntentID string  `json:"payment_intent_id"`
	Amount          int64   `json:"amount"`
	Currency        string  `json:"currency"`
	Status          string  `json:"status"`
	EphemeralKey    string  `json:"ephemeral_key,omitempty"`
	CustomerID      string  `json:"customer_id,omitempty"`
	PlatformFee     float64 `json:"platform_fee,omitempty"`
}

// ItemPurchase requests a payment intent for buying a listing.
type ItemPurchase struct {
	ItemID          string            `json:"item_id"`
	BuyerID         string            `json:"buyer_id"`
	SellerID        string            `json:"seller_id"`
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency"`
	ShippingAddress map[string]string `json:"shipping_address,omitempty"`
}

// P2PTransfer requests a payment intent for a user-to-user transfer.
type P2PTransfer struct {
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Note        string `json:"note,omitempty"`
}

// EventTicket requests a payment intent for an event ticket.
type EventTicket struct {
	EventID  string `json:"event_id"`
	BuyerID  string `json:"buyer_id"`
	Quantity int    `json:"quantity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PaymentConfirmation is returned after confirming an intent.
type PaymentConfirmation struct {
	PaymentIntentID string `json:"payment_intent_id"`
	Status          string `json:"status"`
	TransactionID   string `json:"transaction_id,omitempty"`
}

// Refund is returned after refunding a payment.
type Refund struct {
	RefundID        string `json:"refund_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Status          string `json:"status"`
}

// HealthStatus is the backend health report.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// MessageType tags a realtime frame.
type MessageType string

// Realtime frame types delivered over the push channel.
const (
	MessageNewPost          MessageType = "new_post"
	MessagePostUpdated      MessageType = "post_updated"
	MessagePostDeleted      MessageType = "post_deleted"
	MessageNewReaction      MessageType = "new_reaction"
	MessagePollUpdate       MessageType = "poll_update"
	MessageMembershipUpdate MessageType = "membership_update"
	MessageNotification     MessageType = "notification"
	MessagePing             MessageType = "ping"
	MessagePong             MessageType = "pong"
)

// Message is a realtime frame.
type Message struct {
	ID        string         `json:"id"`
	Type      MessageType    `json:"type"`
	Payload   MessagePayload `json:"payload"`
	Timestamp Timestamp      `json:"timestamp"`
}

// MessagePayload carries the frame's routing fields and opaque data.
type MessagePayload struct {
	SketchbookID string          `json:"sketchbook_id,omitempty"`
	PostID       string          `json:"post_id,omitempty"`
	UserID       string          `json:"user_id,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}
