package service

import (
	"github.com/woreda-portal/server/internal/portal/store"
	"github.com/woreda-portal/server/internal/portal/types"
)

func accessRequestFromRecord(r store.AccessRequestRecord) types.AccessRequest {
	return types.AccessRequest{
		ID:            r.ID,
		TenantID:      r.TenantID,
		Code:          r.Code,
		OriginAddress: r.OriginAddress,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt,
		DecidedAt:     r.DecidedAt,
	}
}

func accessGrantFromRecord(g store.AccessGrantRecord) types.AccessGrant {
	return types.AccessGrant{
		ID:        g.ID,
		RequestID: g.RequestID,
		TenantID:  g.TenantID,
		Token:     g.Token,
		IssuedAt:  g.IssuedAt,
		ExpiresAt: g.ExpiresAt,
	}
}

func appointmentFromRecord(a store.AppointmentRecord) types.Appointment {
	return types.Appointment{
		ID:                       a.ID,
		TenantID:                 a.TenantID,
		UniqueCode:               a.UniqueCode,
		RequesterName:            a.RequesterName,
		RequesterEmail:           a.RequesterEmail,
		RequesterPhone:           a.RequesterPhone,
		Reason:                   a.Reason,
		RequestedDateEthiopian:   a.RequestedDateEthiopian,
		RequestedDateGregorian:   a.RequestedDateGregorian,
		RequestedTime:            a.RequestedTime,
		Status:                   string(a.Status),
		AdminReason:              a.AdminReason,
		RescheduledDateEthiopian: a.RescheduledDateEthiopian,
		RescheduledDateGregorian: a.RescheduledDateGregorian,
		RescheduledTime:          a.RescheduledTime,
		CreatedAt:                a.CreatedAt,
		DecidedAt:                a.DecidedAt,
	}
}
