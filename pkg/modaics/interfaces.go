package modaics

import (
	"context"

	"github.com/modaics/modaics-go/internal/store"
)

// SearchService finds marketplace items by text, image, or both.
type SearchService interface {
	// ByText searches with a natural-language query.
	ByText(ctx context.Context, query string, limit int) (*SearchResponse, error)

	// ByImage searches with a base64-encoded image.
	ByImage(ctx context.Context, imageData string, limit int) (*SearchResponse, error)

	// Combined searches with both a query and an image.
	Combined(ctx context.Context, query, imageData string, limit int) (*SearchResponse, error)

	// Recent returns locally saved recent search strings.
	Recent() ([]string, error)
}

// AnalysisService runs AI analysis on garment images.
type AnalysisService interface {
	// AnalyzeImage classifies a base64-encoded garment image.
	AnalyzeImage(ctx context.Context, imageData string) (*AnalysisResult, error)

	// GenerateDescription writes a listing description from an analysis.
	GenerateDescription(ctx context.Context, analysis *AnalysisResult) (*GeneratedDescription, error)
}

// ItemService manages listings, deferring submissions while offline.
type ItemService interface {
	// Add submits a new listing. When the client is offline the item is
	// queued durably and ErrOffline is returned.
	Add(ctx context.Context, item *NewItem) (*AddItemResult, error)

	// Pending returns the queued offline submissions.
	Pending() ([]*store.PendingItem, error)

	// FlushQueue replays queued submissions, one call per entry, removing
	// the ones that succeed. Rejected entries stay queued and are skipped;
	// an offline failure stops the flush. It returns the number flushed.
	FlushQueue(ctx context.Context) (int, error)
}

// SketchbookService covers brand feeds, posts, polls, and membership.
type SketchbookService interface {
	// ForBrand retrieves a brand's sketchbook.
	ForBrand(ctx context.Context, brandID string) (*Sketchbook, error)

	// UpdateSettings updates sketchbook attributes.
	UpdateSettings(ctx context.Context, sketchbookID string, settings *SketchbookSettings) (*Sketchbook, error)

	// Posts lists a sketchbook's posts.
	Posts(ctx context.Context, sketchbookID string, limit, offset int) ([]*Post, error)

	// CreatePost adds a post to a sketchbook.
	CreatePost(ctx context.Context, sketchbookID string, post *NewPost) (*Post, error)

	// DeletePost removes a post.
	DeletePost(ctx context.Context, postID string) error

	// Poll retrieves the poll attached to a post.
	Poll(ctx context.Context, postID string) (*Poll, error)

	// Vote casts a poll vote.
	Vote(ctx context.Context, postID, optionID, userID string) (*Poll, error)

	// React adds a reaction to a post.
	React(ctx context.Context, postID, userID, emoji string) error

	// Unreact removes a reaction from a post.
	Unreact(ctx context.Context, postID, userID string) error

	// Membership retrieves a user's membership.
	Membership(ctx context.Context, sketchbookID, userID string) (*Membership, error)

	// Join adds the user to a sketchbook.
	Join(ctx context.Context, sketchbookID, userID string) (*Membership, error)

	// SpendEligibility checks whether a member can spend points.
	SpendEligibility(ctx context.Context, sketchbookID, userID string) (*SpendEligibility, error)

	// Feed returns the community sketchbook feed.
	Feed(ctx context.Context, limit int) ([]*FeedEntry, error)
}

// PaymentService creates and settles Stripe payment intents.
type PaymentService interface {
	// PurchaseItem creates a payment intent for buying a listing.
	PurchaseItem(ctx context.Context, purchase *ItemPurchase) (*PaymentIntent, error)

	// Transfer creates a payment intent for a P2P transfer.
	Transfer(ctx context.Context, transfer *P2PTransfer) (*PaymentIntent, error)

	// BuyTicket creates a payment intent for an event ticket.
	BuyTicket(ctx context.Context, ticket *EventTicket) (*PaymentIntent, error)

	// Confirm confirms a payment intent.
	Confirm(ctx context.Context, paymentIntentID string) (*PaymentConfirmation, error)

	// RefundPayment refunds a settled payment, fully or partially.
	RefundPayment(ctx context.Context, paymentIntentID string, amount int64) (*Refund, error)
}

// HealthService checks backend liveness.
type HealthService interface {
	// Check calls the health endpoint.
	Check(ctx context.Context) (*HealthStatus, error)
}
