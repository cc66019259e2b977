package handler

import (
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/service"
)

// BookingHandler 认购处理器
type BookingHandler struct {
	*resource[entity.Booking, service.CreateBookingRequest, service.UpdateBookingRequest]
}

func NewBookingHandler(svc *service.BookingService, errs *responder) *BookingHandler {
	return &BookingHandler{
		resource: &resource[entity.Booking, service.CreateBookingRequest, service.UpdateBookingRequest]{
			svc:    svc,
			remove: svc.Delete,
			label:  "Booking",
			plural: "bookings",
			errs:   errs,
		},
	}
}

// InventoryHandler 房源处理器
type InventoryHandler struct {
	*resource[entity.InventoryUnit, service.CreateUnitRequest, service.UpdateUnitRequest]
}

func NewInventoryHandler(svc *service.InventoryService, errs *responder) *InventoryHandler {
	return &InventoryHandler{
		resource: &resource[entity.InventoryUnit, service.CreateUnitRequest, service.UpdateUnitRequest]{
			svc:    svc,
			remove: withoutActor(svc.Delete),
			label:  "Unit",
			plural: "inventory",
			errs:   errs,
		},
	}
}

// SiteVisitHandler 看房处理器
type SiteVisitHandler struct {
	*resource[entity.SiteVisit, service.CreateSiteVisitRequest, service.UpdateSiteVisitRequest]
}

func NewSiteVisitHandler(svc *service.SiteVisitService, errs *responder) *SiteVisitHandler {
	return &SiteVisitHandler{
		resource: &resource[entity.SiteVisit, service.CreateSiteVisitRequest, service.UpdateSiteVisitRequest]{
			svc:    svc,
			remove: withoutActor(svc.Delete),
			label:  "Site visit",
			plural: "siteVisits",
			errs:   errs,
		},
	}
}
