package services

import (
	"context"
	"sort"
	"time"

	"github.com/huangang/shiftledger/internal/config"
	"github.com/huangang/shiftledger/internal/models"
	"gorm.io/gorm"
)

type DashboardService struct {
	db       *gorm.DB
	holidays *HolidayService
	cfg      *config.DashboardConfig
	invoices *InvoiceService
	now      func() time.Time
}

func NewDashboardService(db *gorm.DB, cfg *config.DashboardConfig, holidays *HolidayService, invoices *InvoiceService) *DashboardService {
	return &DashboardService{db: db, cfg: cfg, holidays: holidays, invoices: invoices, now: time.Now}
}

// SetClock replaces the time source.
func (s *DashboardService) SetClock(now func() time.Time) {
	s.now = now
}

type DashboardRequest struct {
	From string `form:"from"` // YYYY-MM-DD, defaults to the last 7 days
	To   string `form:"to"`
}

type OpenShift struct {
	ShiftID     uint      `json:"shift_id"`
	UserID      uint      `json:"user_id"`
	UserName    string    `json:"user_name"`
	ProjectID   uint      `json:"project_id"`
	ProjectName string    `json:"project_name"`
	Start       time.Time `json:"start"`
}

type EmployeeHours struct {
	UserID     uint    `json:"user_id"`
	Name       string  `json:"name"`
	ShiftCount int     `json:"shift_count"`
	Hours      float64 `json:"hours"`
	Earned     string  `json:"earned"`
}

type ProjectHours struct {
	ProjectID  uint    `json:"project_id"`
	Name       string  `json:"name"`
	ShiftCount int     `json:"shift_count"`
	Hours      float64 `json:"hours"`
}

type DashboardResponse struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	ActiveNow      []OpenShift     `json:"active_now"`
	TotalHours     float64         `json:"total_hours"`
	ExpectedHours  float64         `json:"expected_hours"`
	EmployeeCount  int64           `json:"employee_count"`
	WorkingDays    int             `json:"working_days"`
	InvoiceCount   int64           `json:"invoice_count"`
	InvoicedCents  int64           `json:"invoiced_cents"`
	Invoiced       string          `json:"invoiced"`
	Employees      []EmployeeHours `json:"employees"`
	Projects       []ProjectHours  `json:"projects"`
	HolidayCountry string          `json:"holiday_country"`
}

// GetOverview summarises open shifts, worked hours and invoicing for a window.
func (s *DashboardService) GetOverview(ctx context.Context, req *DashboardRequest) (*DashboardResponse, error) {
	var from, to time.Time
	if req.From != "" || req.To != "" {
		fromStr, toStr := req.From, req.To
		if fromStr == "" {
			fromStr = toStr
		}
		if toStr == "" {
			toStr = fromStr
		}
		var err error
		from, to, err = s.invoices.ParseWindow(fromStr, toStr)
		if err != nil {
			return nil, err
		}
	} else {
		from, to = DefaultWindow(s.now(), 7, s.invoices.Location())
	}

	resp := &DashboardResponse{
		From:           from,
		To:             to,
		HolidayCountry: s.cfg.HolidayCountry,
		ActiveNow:      []OpenShift{},
		Employees:      []EmployeeHours{},
		Projects:       []ProjectHours{},
	}

	var open []models.ActiveShift
	err := s.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Unscoped().Select("id", "name") }).
		Preload("Project", projectName).
		Order("started_at ASC").
		Find(&open).Error
	if err != nil {
		return nil, persistence("load active shifts", err)
	}
	for _, a := range open {
		item := OpenShift{ShiftID: a.ID, UserID: a.UserID, ProjectID: a.ProjectID, Start: a.Start}
		if a.User != nil {
			item.UserName = a.User.Name
		}
		if a.Project != nil {
			item.ProjectName = a.Project.Name
		}
		resp.ActiveNow = append(resp.ActiveNow, item)
	}

	var shifts []models.CompletedShift
	err = s.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Unscoped().Select("id", "name", "hourly_rate_cents") }).
		Preload("Project", projectName).
		Where("shift_date BETWEEN ? AND ?", from, to).
		Find(&shifts).Error
	if err != nil {
		return nil, persistence("load completed shifts", err)
	}
	s.aggregate(resp, shifts)

	loc := s.invoices.Location()
	resp.WorkingDays = s.holidays.WorkingDays(from.In(loc), to.In(loc), s.cfg.HolidayCountry)
	err = s.db.WithContext(ctx).Model(&models.User{}).
		Where("is_active = ?", true).
		Where("id IN (SELECT ur.user_id FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE r.name = ?)", models.RoleEmployee).
		Count(&resp.EmployeeCount).Error
	if err != nil {
		return nil, persistence("count employees", err)
	}
	resp.ExpectedHours = float64(resp.WorkingDays) * s.cfg.HoursPerDay * float64(resp.EmployeeCount)

	resp.InvoiceCount, resp.InvoicedCents, err = s.invoices.SumInvoiced(ctx, from, to)
	if err != nil {
		return nil, err
	}
	resp.Invoiced = FormatCents(resp.InvoicedCents)
	return resp, nil
}

func (s *DashboardService) aggregate(resp *DashboardResponse, shifts []models.CompletedShift) {
	byUser := map[uint][]models.CompletedShift{}
	byProject := map[uint][]models.CompletedShift{}
	for _, sh := range shifts {
		byUser[sh.UserID] = append(byUser[sh.UserID], sh)
		byProject[sh.ProjectID] = append(byProject[sh.ProjectID], sh)
	}

	for userID, list := range byUser {
		item := EmployeeHours{UserID: userID, ShiftCount: len(list)}
		total := TotalDuration(IntervalsOf(list))
		item.Hours = total.Hours()
		if u := list[0].User; u != nil {
			item.Name = u.Name
			if cents, err := AmountDue(total, u.HourlyRateCents); err == nil {
				item.Earned = FormatCents(cents)
			}
		}
		resp.Employees = append(resp.Employees, item)
		resp.TotalHours += item.Hours
	}
	for projectID, list := range byProject {
		item := ProjectHours{ProjectID: projectID, ShiftCount: len(list), Hours: TotalHours(IntervalsOf(list))}
		if p := list[0].Project; p != nil {
			item.Name = p.Name
		}
		resp.Projects = append(resp.Projects, item)
	}

	sort.Slice(resp.Employees, func(i, j int) bool { return resp.Employees[i].Hours > resp.Employees[j].Hours })
	sort.Slice(resp.Projects, func(i, j int) bool { return resp.Projects[i].Hours > resp.Projects[j].Hours })
}
