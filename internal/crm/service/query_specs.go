package service

import (
	"strconv"
	"time"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/query"
)

// 各实体列表可用的过滤 / 搜索 / 排序字段，键名与前端查询参数一致

func projectSpec() query.Spec[entity.Project] {
	type P = entity.Project
	return query.Spec[P]{
		Filters: map[string]query.Filter[P]{
			"status":     query.Equals(func(p P) string { return p.Status }),
			"city":       query.EqualsFold(func(p P) string { return p.City }),
			"category":   query.EqualsFold(func(p P) string { return p.Category }),
			"developer":  query.EqualsFold(func(p P) string { return p.Developer }),
			"assignedTo": query.Equals(func(p P) string { return p.AssignedTo }),
			"amenity":    query.Contains(func(p P) []string { return p.Amenities }),
			"minPrice":   query.AtLeast(func(p P) float64 { return p.MinPrice }),
			"maxPrice":   query.AtMost(func(p P) float64 { return p.MaxPrice }),
		},
		Search: []func(P) string{
			func(p P) string { return p.Name },
			func(p P) string { return p.Developer },
			func(p P) string { return p.Location },
			func(p P) string { return p.City },
			func(p P) string { return p.ReraNumber },
		},
		Sorts: map[string]query.Compare[P]{
			"name":           query.ByString(func(p P) string { return p.Name }),
			"city":           query.ByString(func(p P) string { return p.City }),
			"status":         query.ByString(func(p P) string { return p.Status }),
			"totalUnits":     query.ByNumber(func(p P) int { return p.TotalUnits }),
			"availableUnits": query.ByNumber(func(p P) int { return p.AvailableUnits }),
			"minPrice":       query.ByNumber(func(p P) float64 { return p.MinPrice }),
			"maxPrice":       query.ByNumber(func(p P) float64 { return p.MaxPrice }),
			"launchDate":     query.ByTime(func(p P) *time.Time { return p.LaunchDate }),
			"possessionDate": query.ByTime(func(p P) *time.Time { return p.PossessionDate }),
			"createdAt":      query.ByTime(func(p P) *time.Time { return &p.CreatedAt }),
			"updatedAt":      query.ByTime(func(p P) *time.Time { return &p.UpdatedAt }),
		},
	}
}

func leadSpec() query.Spec[entity.Lead] {
	type L = entity.Lead
	return query.Spec[L]{
		Filters: map[string]query.Filter[L]{
			"status":     query.Equals(func(l L) string { return l.Status }),
			"source":     query.Equals(func(l L) string { return l.Source }),
			"assignedTo": query.Equals(func(l L) string { return l.AssignedTo }),
			"city":       query.EqualsFold(func(l L) string { return l.City }),
			"project":    query.Contains(func(l L) []string { return l.ProjectsInterested }),
			"minBudget":  query.AtLeast(func(l L) float64 { return l.BudgetMax }),
			"maxBudget":  query.AtMost(func(l L) float64 { return l.BudgetMin }),
			"followUp":   query.On(func(l L) *time.Time { return l.NextFollowUp }),
			"createdOn":  query.On(func(l L) *time.Time { return &l.CreatedAt }),
		},
		Search: []func(L) string{
			func(l L) string { return l.Name },
			func(l L) string { return l.Email },
			func(l L) string { return l.Phone },
			func(l L) string { return l.City },
			func(l L) string { return l.Notes },
		},
		Sorts: map[string]query.Compare[L]{
			"name":         query.ByString(func(l L) string { return l.Name }),
			"status":       query.ByString(func(l L) string { return l.Status }),
			"source":       query.ByString(func(l L) string { return l.Source }),
			"budgetMin":    query.ByNumber(func(l L) float64 { return l.BudgetMin }),
			"budgetMax":    query.ByNumber(func(l L) float64 { return l.BudgetMax }),
			"nextFollowUp": query.ByTime(func(l L) *time.Time { return l.NextFollowUp }),
			"createdAt":    query.ByTime(func(l L) *time.Time { return &l.CreatedAt }),
			"updatedAt":    query.ByTime(func(l L) *time.Time { return &l.UpdatedAt }),
		},
	}
}

func bookingSpec() query.Spec[entity.Booking] {
	type B = entity.Booking
	return query.Spec[B]{
		Filters: map[string]query.Filter[B]{
			"status":        query.Equals(func(b B) string { return b.Status }),
			"paymentStatus": query.Equals(func(b B) string { return b.PaymentStatus }),
			"projectId":     query.Equals(func(b B) string { return b.ProjectID }),
			"leadId":        query.Equals(func(b B) string { return b.LeadID }),
			"assignedTo":    query.Equals(func(b B) string { return b.AssignedTo }),
			"bookingDate":   query.On(func(b B) *time.Time { return b.BookingDate }),
			"minAmount":     query.AtLeast(func(b B) float64 { return b.Amount }),
			"maxAmount":     query.AtMost(func(b B) float64 { return b.Amount }),
		},
		Search: []func(B) string{
			func(b B) string { return b.CustomerName },
			func(b B) string { return b.CustomerPhone },
			func(b B) string { return b.CustomerEmail },
			func(b B) string { return b.ProjectName },
			func(b B) string { return b.UnitNumber },
		},
		Sorts: map[string]query.Compare[B]{
			"customerName": query.ByString(func(b B) string { return b.CustomerName }),
			"projectName":  query.ByString(func(b B) string { return b.ProjectName }),
			"status":       query.ByString(func(b B) string { return b.Status }),
			"amount":       query.ByNumber(func(b B) float64 { return b.Amount }),
			"paidAmount":   query.ByNumber(func(b B) float64 { return b.PaidAmount }),
			"bookingDate":  query.ByTime(func(b B) *time.Time { return b.BookingDate }),
			"createdAt":    query.ByTime(func(b B) *time.Time { return &b.CreatedAt }),
			"updatedAt":    query.ByTime(func(b B) *time.Time { return &b.UpdatedAt }),
		},
	}
}

func inventorySpec() query.Spec[entity.InventoryUnit] {
	type U = entity.InventoryUnit
	return query.Spec[U]{
		Filters: map[string]query.Filter[U]{
			"status":    query.Equals(func(u U) string { return u.Status }),
			"projectId": query.Equals(func(u U) string { return u.ProjectID }),
			"unitType":  query.EqualsFold(func(u U) string { return u.UnitType }),
			"tower":     query.EqualsFold(func(u U) string { return u.Tower }),
			"facing":    query.EqualsFold(func(u U) string { return u.Facing }),
			"floor":     query.Equals(func(u U) string { return strconv.Itoa(u.Floor) }),
			"minPrice":  query.AtLeast(func(u U) float64 { return u.Price }),
			"maxPrice":  query.AtMost(func(u U) float64 { return u.Price }),
			"minArea":   query.AtLeast(func(u U) float64 { return u.Area }),
			"maxArea":   query.AtMost(func(u U) float64 { return u.Area }),
		},
		Search: []func(U) string{
			func(u U) string { return u.UnitNumber },
			func(u U) string { return u.ProjectName },
			func(u U) string { return u.Tower },
			func(u U) string { return u.UnitType },
		},
		Sorts: map[string]query.Compare[U]{
			"unitNumber":  query.ByString(func(u U) string { return u.UnitNumber }),
			"projectName": query.ByString(func(u U) string { return u.ProjectName }),
			"status":      query.ByString(func(u U) string { return u.Status }),
			"floor":       query.ByNumber(func(u U) int { return u.Floor }),
			"area":        query.ByNumber(func(u U) float64 { return u.Area }),
			"price":       query.ByNumber(func(u U) float64 { return u.Price }),
			"createdAt":   query.ByTime(func(u U) *time.Time { return &u.CreatedAt }),
			"updatedAt":   query.ByTime(func(u U) *time.Time { return &u.UpdatedAt }),
		},
	}
}

func userSpec() query.Spec[entity.User] {
	type U = entity.User
	return query.Spec[U]{
		Filters: map[string]query.Filter[U]{
			"role":   query.Equals(func(u U) string { return u.Role }),
			"status": query.Equals(func(u U) string { return u.Status }),
		},
		Search: []func(U) string{
			func(u U) string { return u.Name },
			func(u U) string { return u.Email },
			func(u U) string { return u.Phone },
		},
		Sorts: map[string]query.Compare[U]{
			"name":      query.ByString(func(u U) string { return u.Name }),
			"email":     query.ByString(func(u U) string { return u.Email }),
			"role":      query.ByString(func(u U) string { return u.Role }),
			"status":    query.ByString(func(u U) string { return u.Status }),
			"lastLogin": query.ByTime(func(u U) *time.Time { return u.LastLogin }),
			"createdAt": query.ByTime(func(u U) *time.Time { return &u.CreatedAt }),
		},
	}
}

func siteVisitSpec() query.Spec[entity.SiteVisit] {
	type V = entity.SiteVisit
	return query.Spec[V]{
		Filters: map[string]query.Filter[V]{
			"status":     query.Equals(func(v V) string { return v.Status }),
			"projectId":  query.Equals(func(v V) string { return v.ProjectID }),
			"leadId":     query.Equals(func(v V) string { return v.LeadID }),
			"assignedTo": query.Equals(func(v V) string { return v.AssignedTo }),
			"date":       query.On(func(v V) *time.Time { return v.ScheduledAt }),
		},
		Search: []func(V) string{
			func(v V) string { return v.LeadName },
			func(v V) string { return v.LeadPhone },
			func(v V) string { return v.ProjectName },
			func(v V) string { return v.Feedback },
		},
		Sorts: map[string]query.Compare[V]{
			"scheduledAt": query.ByTime(func(v V) *time.Time { return v.ScheduledAt }),
			"leadName":    query.ByString(func(v V) string { return v.LeadName }),
			"projectName": query.ByString(func(v V) string { return v.ProjectName }),
			"status":      query.ByString(func(v V) string { return v.Status }),
			"rating":      query.ByNumber(func(v V) int { return v.Rating }),
			"createdAt":   query.ByTime(func(v V) *time.Time { return &v.CreatedAt }),
		},
	}
}
