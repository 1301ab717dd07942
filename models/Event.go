package models

import (
	"time"

	"gorm.io/gorm"
)

type Event struct {
	gorm.Model
	Title       string    `json:"title" gorm:"size:256;not null"`
	Description string    `json:"description" gorm:"size:3000"`
	Location    string    `json:"location" gorm:"size:256"`
	StartDate   time.Time `json:"startDate" gorm:"index"`
	EndDate     time.Time `json:"endDate"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency" gorm:"size:3;default:EUR"`
	ChargeFree  bool      `json:"chargeFree"`
	Capacity    int       `json:"capacity"`
	BookedCount int       `json:"bookedCount"` // mutated only via atomic conditional update
	OrganizerID uint      `json:"organizerID" gorm:"index"`
	Organizer   User      `json:"organizer" gorm:"foreignKey:OrganizerID"`
}

// BookingStatus is the reservation state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// PaymentStatus is the payment state of a booking.
type PaymentStatus string

const (
	PaymentPending     PaymentStatus = "PENDING"
	PaymentNotRequired PaymentStatus = "NOT_REQUIRED"
	PaymentPaid        PaymentStatus = "PAID"
	PaymentRefunded    PaymentStatus = "REFUNDED"
	PaymentExpired     PaymentStatus = "EXPIRED"
)

// Booking reserves spaces on an event. Price fields are a snapshot taken at
// booking time so later price changes on the event do not alter the amount due.
type Booking struct {
	ID      uint  `json:"id" gorm:"primaryKey"`
	EventID uint  `json:"eventID" gorm:"not null;index"`
	Event   Event `json:"event" gorm:"foreignKey:EventID"`
	UserID  uint  `json:"userID" gorm:"not null;index"`
	User    User  `json:"user" gorm:"foreignKey:UserID"`

	Reference     string  `json:"reference" gorm:"uniqueIndex;size:36"`
	Spaces        int     `json:"spaces"`
	PricePerSpace float64 `json:"pricePerSpace"`
	TotalAmount   float64 `json:"totalAmount"`
	Currency      string  `json:"currency" gorm:"size:3"`

	Status        BookingStatus `json:"status" gorm:"size:16;index"`
	PaymentStatus PaymentStatus `json:"paymentStatus" gorm:"size:16;index"`
	PayPalOrderID string        `json:"paypalOrderID" gorm:"size:64"`
	PaidAt        *time.Time    `json:"paidAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
