package types

import "time"

// CreateAppointmentRequest carries the citizen's form.  Contact details are
// optional.
type CreateAppointmentRequest struct {
	RequesterName          string `json:"requester_name" validate:"required,max=200"`
	RequesterEmail         string `json:"requester_email" validate:"omitempty,email,max=254"`
	RequesterPhone         string `json:"requester_phone" validate:"omitempty,max=32"`
	Reason                 string `json:"reason" validate:"required,max=2000"`
	RequestedDateEthiopian string `json:"requested_date_ethiopian" validate:"required"`
	RequestedTime          string `json:"requested_time" validate:"omitempty,hhmm"`
}

type AppointmentDecisionRequest struct {
	Status                   string `json:"status" validate:"required,oneof=accepted rejected rescheduled"`
	AdminReason              string `json:"admin_reason" validate:"max=2000"`
	RescheduledDateEthiopian string `json:"rescheduled_date_ethiopian"`
	RescheduledTime          string `json:"rescheduled_time" validate:"omitempty,hhmm"`
}

type Appointment struct {
	ID                       string     `json:"id"`
	TenantID                 string     `json:"tenant_id"`
	UniqueCode               string     `json:"unique_code"`
	RequesterName            string     `json:"requester_name"`
	RequesterEmail           string     `json:"requester_email,omitempty"`
	RequesterPhone           string     `json:"requester_phone,omitempty"`
	Reason                   string     `json:"reason"`
	RequestedDateEthiopian   string     `json:"requested_date_ethiopian"`
	RequestedDateGregorian   string     `json:"requested_date_gregorian"`
	RequestedTime            string     `json:"requested_time,omitempty"`
	Status                   string     `json:"status"`
	AdminReason              string     `json:"admin_reason,omitempty"`
	RescheduledDateEthiopian string     `json:"rescheduled_date_ethiopian,omitempty"`
	RescheduledDateGregorian string     `json:"rescheduled_date_gregorian,omitempty"`
	RescheduledTime          string     `json:"rescheduled_time,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	DecidedAt                *time.Time `json:"decided_at,omitempty"`
}
