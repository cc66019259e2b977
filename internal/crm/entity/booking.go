package entity

import "time"

// Booking 认购/预订
type Booking struct {
	ID            string     `json:"id" gorm:"primaryKey;size:36"`
	LeadID        string     `json:"leadId" gorm:"size:36;index"`
	CustomerName  string     `json:"customerName" gorm:"size:200;not null"`
	CustomerPhone string     `json:"customerPhone" gorm:"size:32"`
	CustomerEmail string     `json:"customerEmail" gorm:"size:200"`
	ProjectID     string     `json:"projectId" gorm:"size:36;index"`
	ProjectName   string     `json:"projectName" gorm:"size:200"`
	UnitID        string     `json:"unitId" gorm:"size:36"`
	UnitNumber    string     `json:"unitNumber" gorm:"size:32"`
	Amount        float64    `json:"amount"`
	PaidAmount    float64    `json:"paidAmount"`
	BookingDate   *time.Time `json:"bookingDate"`
	Status        string     `json:"status" gorm:"size:32;default:Pending;index"`
	PaymentStatus string     `json:"paymentStatus" gorm:"size:32;default:Pending"`
	AssignedTo    string     `json:"assignedTo" gorm:"size:100"`
	Notes         string     `json:"notes" gorm:"type:text"`

	CreatedBy string    `json:"createdBy" gorm:"size:100"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Activities []Activity `json:"activities" gorm:"-"`
}

func (Booking) TableName() string {
	return "crm_bookings"
}

func (b Booking) GetID() string { return b.ID }

// Booking 状态
const (
	BookingStatusPending   = "Pending"
	BookingStatusConfirmed = "Confirmed"
	BookingStatusCancelled = "Cancelled"
	BookingStatusCompleted = "Completed"
)

var BookingStatuses = []string{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCancelled,
	BookingStatusCompleted,
}

// 付款状态
const (
	PaymentStatusPending = "Pending"
	PaymentStatusPartial = "Partial"
	PaymentStatusPaid    = "Paid"
)

// PaymentStatusFor 根据已付金额推导付款状态
func PaymentStatusFor(amount, paid float64) string {
	switch {
	case paid <= 0:
		return PaymentStatusPending
	case paid < amount:
		return PaymentStatusPartial
	default:
		return PaymentStatusPaid
	}
}
