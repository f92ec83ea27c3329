package services

import (
	"context"
	"time"

	"github.com/huangang/shiftledger/internal/config"
	"github.com/huangang/shiftledger/internal/models"
	"github.com/huangang/shiftledger/pkg/logger"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// InvoiceService turns completed shifts into invoices.
type InvoiceService struct {
	db      *gorm.DB
	events  EventPublisher
	metrics *Metrics
	loc     *time.Location
	now     func() time.Time
}

func NewInvoiceService(db *gorm.DB, cfg *config.InvoiceConfig, events EventPublisher, metrics *Metrics) *InvoiceService {
	if events == nil {
		events = NoopPublisher{}
	}
	loc := time.UTC
	if cfg != nil {
		loc = cfg.Location()
	}
	return &InvoiceService{
		db:      db,
		events:  events,
		metrics: metrics,
		loc:     loc,
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (s *InvoiceService) SetClock(now func() time.Time) {
	s.now = now
}

// Location is the zone invoice windows are interpreted in.
func (s *InvoiceService) Location() *time.Location {
	return s.loc
}

type GenerateInvoiceRequest struct {
	From string `json:"from" binding:"required"` // YYYY-MM-DD
	To   string `json:"to" binding:"required"`
}

type InvoiceListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	UserID   uint   `form:"user_id"`
	Status   string `form:"status"`
}

type InvoiceListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Invoice `json:"items"`
}

// BatchFailure records a user whose invoice could not be generated.
type BatchFailure struct {
	UserID uint   `json:"user_id"`
	Error  string `json:"error"`
}

type BatchResult struct {
	From     time.Time        `json:"from"`
	To       time.Time        `json:"to"`
	Invoices []models.Invoice `json:"invoices"`
	Failures []BatchFailure   `json:"failures"`
}

// InvoiceView adds display fields to an invoice.
type InvoiceView struct {
	models.Invoice
	Amount     string  `json:"amount"`
	TotalHours float64 `json:"total_hours"`
}

func NewInvoiceView(inv models.Invoice) InvoiceView {
	return InvoiceView{
		Invoice:    inv,
		Amount:     FormatCents(inv.AmountCents),
		TotalHours: TotalHours(IntervalsOf(inv.Shifts)),
	}
}

// NormalizeWindow widens [from, to] to whole calendar days in loc and returns
// the bounds in UTC.
func NormalizeWindow(from, to time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := from.In(loc)
	t := to.In(loc)
	start := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, loc)
	end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	if start.After(end) {
		return time.Time{}, time.Time{}, &ValidationError{Field: "from", Message: "must not be after to"}
	}
	return start.UTC(), end.UTC(), nil
}

// ParseWindow parses YYYY-MM-DD dates in the service location and normalizes them.
func (s *InvoiceService) ParseWindow(from, to string) (time.Time, time.Time, error) {
	f, err := time.ParseInLocation(dateLayout, from, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "from", Message: "must be a YYYY-MM-DD date"}
	}
	t, err := time.ParseInLocation(dateLayout, to, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "to", Message: "must be a YYYY-MM-DD date"}
	}
	return NormalizeWindow(f, t, s.loc)
}

// DefaultWindow is the last `days` full days ending yesterday.
func DefaultWindow(now time.Time, days int, loc *time.Location) (time.Time, time.Time) {
	if days <= 0 {
		days = 7
	}
	if loc == nil {
		loc = time.UTC
	}
	n := now.In(loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	from, to, _ := NormalizeWindow(today.AddDate(0, 0, -days), today.AddDate(0, 0, -1), loc)
	return from, to
}

func uninvoicedShifts(tx *gorm.DB, userID uint, from, to time.Time) ([]models.CompletedShift, error) {
	var shifts []models.CompletedShift
	err := tx.
		Where("user_id = ? AND shift_date BETWEEN ? AND ?", userID, from, to).
		Where("id NOT IN (SELECT completed_shift_id FROM invoice_shifts)").
		Order("shift_date ASC, id ASC").
		Find(&shifts).Error
	if err != nil {
		return nil, persistence("load uninvoiced shifts", err)
	}
	return shifts, nil
}

func (s *InvoiceService) generate(tx *gorm.DB, userID uint, from, to time.Time, exclusive bool) (*models.Invoice, error) {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		return nil, lookupErr("user", userID, err)
	}

	if exclusive {
		var existing int64
		err := tx.Model(&models.Invoice{}).
			Where("user_id = ? AND period_from = ? AND period_to = ?", userID, from, to).
			Count(&existing).Error
		if err != nil {
			return nil, persistence("check existing invoice", err)
		}
		if existing > 0 {
			return nil, &ConflictError{Message: "an invoice for this period already exists"}
		}
	}

	shifts, err := uninvoicedShifts(tx, userID, from, to)
	if err != nil {
		return nil, err
	}
	if len(shifts) == 0 {
		return nil, &ConflictError{Message: "no uninvoiced shifts in this period"}
	}
	amount, err := AmountDue(TotalDuration(IntervalsOf(shifts)), user.HourlyRateCents)
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		UserID:      userID,
		Number:      user.InvoiceCount + 1,
		PeriodFrom:  from,
		PeriodTo:    to,
		AmountCents: amount,
		Status:      models.InvoiceStatusPaid,
		Shifts:      shifts,
	}
	// Shifts already exist; only the join rows are written.
	if err := tx.Omit("Shifts.*").Create(invoice).Error; err != nil {
		return nil, persistence("create invoice", err)
	}

	err = tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("invoice_count", gorm.Expr("invoice_count + ?", 1)).Error
	if err != nil {
		return nil, persistence("increment invoice count", err)
	}
	return invoice, nil
}

func (s *InvoiceService) generateInTx(ctx context.Context, userID uint, from, to time.Time, exclusive bool) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := models.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		invoice, err = s.generate(tx, userID, from, to, exclusive)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.invoiceGenerated(invoice.AmountCents)
	publishQuietly(ctx, s.events, EventInvoiceGenerated, s.now().UTC(), InvoiceEventData{
		InvoiceID:   invoice.ID,
		UserID:      invoice.UserID,
		Number:      invoice.Number,
		AmountCents: invoice.AmountCents,
		From:        invoice.PeriodFrom,
		To:          invoice.PeriodTo,
		ShiftCount:  len(invoice.Shifts),
	})
	return invoice, nil
}

// GenerateForUser bills the user's not-yet-invoiced shifts in the window.
func (s *InvoiceService) GenerateForUser(ctx context.Context, userID uint, from, to time.Time) (*models.Invoice, error) {
	from, to, err := NormalizeWindow(from, to, s.loc)
	if err != nil {
		return nil, err
	}
	return s.generateInTx(ctx, userID, from, to, false)
}

// EligibleUsers lists users with uninvoiced shifts in the window and no
// invoice for exactly that window.
func (s *InvoiceService) EligibleUsers(ctx context.Context, from, to time.Time) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where(`EXISTS (SELECT 1 FROM completed_shifts cs
			WHERE cs.user_id = users.id
			AND cs.shift_date BETWEEN ? AND ?
			AND cs.id NOT IN (SELECT completed_shift_id FROM invoice_shifts))`, from, to).
		Where(`NOT EXISTS (SELECT 1 FROM invoices i
			WHERE i.user_id = users.id AND i.period_from = ? AND i.period_to = ?)`, from, to).
		Order("users.id ASC").
		Pluck("users.id", &ids).Error
	if err != nil {
		return nil, persistence("select invoice candidates", err)
	}
	return ids, nil
}

// GenerateForAllUsersInRange invoices every eligible user. Each user runs in
// its own transaction; failures are collected and never stop the batch.
func (s *InvoiceService) GenerateForAllUsersInRange(ctx context.Context, from, to time.Time) (*BatchResult, error) {
	started := time.Now()
	log := logger.Component("invoice")

	from, to, err := NormalizeWindow(from, to, s.loc)
	if err != nil {
		return nil, err
	}

	userIDs, err := s.EligibleUsers(ctx, from, to)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		From:     from,
		To:       to,
		Invoices: []models.Invoice{},
		Failures: []BatchFailure{},
	}
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		invoice, err := s.generateInTx(ctx, userID, from, to, true)
		if err != nil {
			s.metrics.invoiceFailed()
			log.Warn().Err(err).Uint("user_id", userID).Msg("invoice generation failed")
			result.Failures = append(result.Failures, BatchFailure{UserID: userID, Error: err.Error()})
			continue
		}
		result.Invoices = append(result.Invoices, *invoice)
	}

	s.metrics.observeBatch(time.Since(started).Seconds())
	log.Info().
		Time("from", from).
		Time("to", to).
		Int("generated", len(result.Invoices)).
		Int("failed", len(result.Failures)).
		Msg("invoice batch finished")
	return result, nil
}

// ListByUser returns the user's invoices, newest first.
func (s *InvoiceService) ListByUser(ctx context.Context, userID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("number DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, persistence("list invoices", err)
	}
	return invoices, nil
}

// List returns a page of invoices across users.
func (s *InvoiceService) List(ctx context.Context, req *InvoiceListRequest) (*InvoiceListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Invoice{})
	if req.UserID != 0 {
		query = query.Where("user_id = ?", req.UserID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, persistence("count invoices", err)
	}

	var invoices []models.Invoice
	err := query.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped().Select("id", "name", "email")
		}).
		Order("created_at DESC, id DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&invoices).Error
	if err != nil {
		return nil, persistence("list invoices", err)
	}

	return &InvoiceListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    invoices,
	}, nil
}

// GetByID loads an invoice with its user and shifts.
func (s *InvoiceService) GetByID(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		Preload("Shifts", func(db *gorm.DB) *gorm.DB {
			return db.Order("shift_date ASC")
		}).
		Preload("Shifts.Project", projectName).
		First(&invoice, id).Error
	if err != nil {
		return nil, lookupErr("invoice", id, err)
	}
	return &invoice, nil
}

// GetForUser loads an invoice only if it belongs to userID.
func (s *InvoiceService) GetForUser(ctx context.Context, id, userID uint) (*models.Invoice, error) {
	invoice, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.UserID != userID {
		return nil, notFound("invoice", id)
	}
	return invoice, nil
}

// SumInvoiced totals invoice amounts created in [from, to].
func (s *InvoiceService) SumInvoiced(ctx context.Context, from, to time.Time) (int64, int64, error) {
	var row struct {
		Count int64
		Total int64
	}
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS total").
		Where("created_at BETWEEN ? AND ?", from, to).
		Scan(&row).Error
	if err != nil {
		return 0, 0, persistence("sum invoices", err)
	}
	return row.Count, row.Total, nil
}
