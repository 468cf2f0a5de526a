package models

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Subscription tier constants
const (
	TierStandard = "standard"
	TierPro      = "pro"
)

// Listing status constants
const (
	ListingActive = "active"
	ListingSold   = "sold"
	ListingHidden = "hidden"
)

// Request types

type CreatePostRequest struct {
	CourseID string   `json:"course_id" validate:"required"`
	Title    string   `json:"title" validate:"required,min=5,max=200"`
	Body     string   `json:"body" validate:"required,min=10,max=10000"`
	Tags     []string `json:"tags" validate:"max=5"`
	IsAnon   bool     `json:"is_anon"`
}

type CreateAnswerRequest struct {
	PostID string `json:"post_id" validate:"required"`
	Body   string `json:"body" validate:"required,min=10,max=10000"`
}

type CreateListingRequest struct {
	Title       string   `json:"title" validate:"required,min=5,max=100"`
	Description string   `json:"description" validate:"required,min=10,max=5000"`
	Category    string   `json:"category" validate:"required,oneof=textbooks electronics furniture clothing tickets services other"`
	PriceCents  int64    `json:"price_cents" validate:"min=0,max=1000000"`
	Condition   string   `json:"condition" validate:"required,oneof=new like_new good fair poor"`
	PickupArea  string   `json:"pickup_area" validate:"required,oneof=north_campus south_campus library student_union dorms off_campus"`
	ImageURLs   []string `json:"image_urls" validate:"max=5"`
}

type GenerateQuizRequest struct {
	Notes    string `json:"notes" validate:"required,min=50"`
	CourseID string `json:"course_id"`
}

type AcceptAnswerRequest struct {
	PostID   string `json:"post_id" validate:"required"`
	AnswerID string `json:"answer_id" validate:"required"`
}

type CreateReportRequest struct {
	TargetType string `json:"target_type" validate:"required,oneof=post answer listing user"`
	TargetID   string `json:"target_id" validate:"required"`
	Reason     string `json:"reason" validate:"required,min=10,max=1000"`
}

// QuizQuestion is one multiple-choice question. Answer is a 0-based index
// into Choices, which always has exactly 4 entries.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	Answer      int      `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// Response types

type Post struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	IsAnon    bool      `json:"is_anon"`
	CreatedAt time.Time `json:"created_at"`
}

type Answer struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type Listing struct {
	ID           string    `json:"id"`
	SellerID     string    `json:"seller_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	PriceCents   int64     `json:"price_cents"`
	PriceDisplay string    `json:"price_display"`
	Condition    string    `json:"condition"`
	PickupArea   string    `json:"pickup_area"`
	Status       string    `json:"status"`
	ImageURLs    []string  `json:"image_urls"`
	CreatedAt    time.Time `json:"created_at"`
}

type Report struct {
	ID         string    `json:"id"`
	ReporterID string    `json:"reporter_id"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

type RegisterVisitorResponse struct {
	VisitorToken string `json:"visitor_token"`
}

type CreatePostResponse struct {
	Post  *Post `json:"post,omitempty"`
	Draft bool  `json:"draft,omitempty"`
}

type CreateAnswerResponse struct {
	Answer *Answer `json:"answer,omitempty"`
	Draft  bool    `json:"draft,omitempty"`
}

type CreateListingResponse struct {
	Listing *Listing `json:"listing,omitempty"`
	Draft   bool     `json:"draft,omitempty"`
}

type CreateReportResponse struct {
	Report  *Report `json:"report"`
	Message string  `json:"message"`
}

type AcceptAnswerResponse struct {
	Success bool `json:"success"`
}

type GenerateQuizResponse struct {
	QuizID    string         `json:"quiz_id"`
	Questions []QuizQuestion `json:"questions"`
	Remaining int            `json:"remaining"`
	Limit     int            `json:"limit"`
	IsPro     bool           `json:"is_pro"`
}

type QuotaExceededResponse struct {
	Error     string `json:"error"`
	Remaining int    `json:"remaining"`
	Limit     int    `json:"limit"`
	Upgrade   bool   `json:"upgrade"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FormatPriceCents renders an integer cent amount for display, e.g. 123456 -> "$1,234.56".
func FormatPriceCents(cents int64) string {
	if cents == 0 {
		return "Free"
	}
	if cents%100 == 0 {
		return "$" + humanize.Comma(cents/100)
	}
	return fmt.Sprintf("$%s.%02d", humanize.Comma(cents/100), cents%100)
}
