package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangang/shiftledger/internal/config"
	"github.com/huangang/shiftledger/internal/models"
)

func newInvoiceService(t *testing.T) (*InvoiceService, *recordingPublisher) {
	t.Helper()
	db := newTestDB(t)
	events := &recordingPublisher{}
	svc := NewInvoiceService(db, &config.InvoiceConfig{Timezone: "UTC"}, events, NewMetrics())
	svc.SetClock(newTestClock(time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC)).Now)
	return svc, events
}

// Monday 2024-03-04 .. Friday 2024-03-08
var (
	monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	friday = time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
)

func workday(day time.Time, from, to int) (time.Time, time.Time) {
	return day.Add(time.Duration(from) * time.Hour), day.Add(time.Duration(to) * time.Hour)
}

func TestNormalizeWindow(t *testing.T) {
	from, to, err := NormalizeWindow(monday.Add(13*time.Hour), friday.Add(5*time.Hour), time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !from.Equal(monday) {
		t.Errorf("from = %v, expected %v", from, monday)
	}
	expectedTo := time.Date(2024, 3, 8, 23, 59, 59, 999000000, time.UTC)
	if !to.Equal(expectedTo) {
		t.Errorf("to = %v, expected %v", to, expectedTo)
	}

	if _, _, err := NormalizeWindow(friday, monday, time.UTC); err == nil {
		t.Error("expected ValidationError when from is after to")
	}

	// same calendar day is a valid one-day window
	if _, _, err := NormalizeWindow(friday.Add(20*time.Hour), friday.Add(time.Hour), time.UTC); err != nil {
		t.Errorf("single-day window error = %v", err)
	}
}

func TestNormalizeWindow_Location(t *testing.T) {
	loc := time.FixedZone("AEST", 10*3600)
	from, _, err := NormalizeWindow(time.Date(2024, 3, 4, 12, 0, 0, 0, loc), time.Date(2024, 3, 4, 12, 0, 0, 0, loc), loc)
	if err != nil {
		t.Fatal(err)
	}
	expected := time.Date(2024, 3, 3, 14, 0, 0, 0, time.UTC)
	if !from.Equal(expected) || from.Location() != time.UTC {
		t.Errorf("from = %v, expected %v in UTC", from, expected)
	}
}

func TestDefaultWindow(t *testing.T) {
	now := time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC) // Monday
	from, to := DefaultWindow(now, 7, time.UTC)
	if !from.Equal(monday) {
		t.Errorf("from = %v, expected %v", from, monday)
	}
	if to.Format(dateLayout) != "2024-03-10" {
		t.Errorf("to = %v, expected end of 2024-03-10", to)
	}

	nextFrom, _ := DefaultWindow(now.AddDate(0, 0, 7), 7, time.UTC)
	if !nextFrom.After(to) {
		t.Errorf("consecutive windows overlap: %v <= %v", nextFrom, to)
	}
}

func TestInvoiceService_ParseWindow(t *testing.T) {
	svc, _ := newInvoiceService(t)

	if _, _, err := svc.ParseWindow("2024-03-04", "2024-03-08"); err != nil {
		t.Errorf("ParseWindow() error = %v", err)
	}
	var ve *ValidationError
	if _, _, err := svc.ParseWindow("03/04/2024", "2024-03-08"); !errors.As(err, &ve) || ve.Field != "from" {
		t.Errorf("ParseWindow(bad from) error = %v", err)
	}
	if _, _, err := svc.ParseWindow("2024-03-04", "nope"); !errors.As(err, &ve) || ve.Field != "to" {
		t.Errorf("ParseWindow(bad to) error = %v", err)
	}
}

func TestInvoiceService_GenerateForUser(t *testing.T) {
	svc, events := newInvoiceService(t)
	ctx := context.Background()

	user := createUser(t, svc.db, "Ana", 2000)
	site := createProject(t, svc.db, "Site A")
	s1, e1 := workday(monday, 9, 17)
	s2, e2 := workday(monday.AddDate(0, 0, 2), 9, 17)
	createCompletedShift(t, svc.db, user.ID, site.ID, s1, e1)
	createCompletedShift(t, svc.db, user.ID, site.ID, s2, e2)
	// outside the window
	s3, e3 := workday(monday.AddDate(0, 0, 7), 9, 17)
	createCompletedShift(t, svc.db, user.ID, site.ID, s3, e3)

	invoice, err := svc.GenerateForUser(ctx, user.ID, monday, friday)
	if err != nil {
		t.Fatalf("GenerateForUser() error = %v", err)
	}
	if invoice.AmountCents != 32000 {
		t.Errorf("AmountCents = %d, expected 32000", invoice.AmountCents)
	}
	if FormatCents(invoice.AmountCents) != "320.00" {
		t.Errorf("formatted amount = %s, expected 320.00", FormatCents(invoice.AmountCents))
	}
	if invoice.Status != models.InvoiceStatusPaid {
		t.Errorf("Status = %q, expected PAID", invoice.Status)
	}
	if invoice.Number != 1 {
		t.Errorf("Number = %d, expected 1", invoice.Number)
	}

	loaded, err := svc.GetByID(ctx, invoice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Shifts) != 2 {
		t.Errorf("linked shifts = %d, expected 2", len(loaded.Shifts))
	}
	if view := NewInvoiceView(*loaded); view.TotalHours != 16 || view.Amount != "320.00" {
		t.Errorf("view = %+v", view)
	}

	var reloaded models.User
	svc.db.First(&reloaded, user.ID)
	if reloaded.InvoiceCount != 1 {
		t.Errorf("InvoiceCount = %d, expected 1", reloaded.InvoiceCount)
	}

	if types := events.types(); len(types) != 1 || types[0] != EventInvoiceGenerated {
		t.Errorf("events = %v", types)
	}
}

func TestInvoiceService_GenerateForUserSkipsInvoicedShifts(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	user := createUser(t, svc.db, "Ana", 2000)
	site := createProject(t, svc.db, "Site A")
	s, e := workday(monday, 9, 17)
	createCompletedShift(t, svc.db, user.ID, site.ID, s, e)

	if _, err := svc.GenerateForUser(ctx, user.ID, monday, friday); err != nil {
		t.Fatal(err)
	}
	second, err := svc.GenerateForUser(ctx, user.ID, monday, friday)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second GenerateForUser() = %v, %v, expected ConflictError", second, err)
	}

	var reloaded models.User
	svc.db.First(&reloaded, user.ID)
	if reloaded.InvoiceCount != 1 {
		t.Errorf("InvoiceCount = %d, expected 1", reloaded.InvoiceCount)
	}
	var n int64
	svc.db.Model(&models.Invoice{}).Count(&n)
	if n != 1 {
		t.Errorf("invoices = %d, expected 1", n)
	}
}

func TestInvoiceService_GenerateForUserNotFound(t *testing.T) {
	svc, _ := newInvoiceService(t)

	_, err := svc.GenerateForUser(context.Background(), 9999, monday, friday)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("GenerateForUser() error = %v, expected NotFoundError", err)
	}

	var n int64
	svc.db.Model(&models.Invoice{}).Count(&n)
	if n != 0 {
		t.Errorf("expected no invoices, got %d", n)
	}
}

func TestInvoiceService_BatchIsIdempotent(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	site := createProject(t, svc.db, "Site A")
	ana := createUser(t, svc.db, "Ana", 2000)
	ben := createUser(t, svc.db, "Ben", 3000)
	createUser(t, svc.db, "Cal", 3000) // no shifts

	s, e := workday(monday, 9, 17)
	createCompletedShift(t, svc.db, ana.ID, site.ID, s, e)
	s, e = workday(monday.AddDate(0, 0, 1), 8, 12)
	createCompletedShift(t, svc.db, ben.ID, site.ID, s, e)

	first, err := svc.GenerateForAllUsersInRange(ctx, monday, friday)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Invoices) != 2 || len(first.Failures) != 0 {
		t.Fatalf("first batch = %d invoices, %d failures", len(first.Invoices), len(first.Failures))
	}
	amounts := map[uint]int64{}
	for _, inv := range first.Invoices {
		amounts[inv.UserID] = inv.AmountCents
	}
	if amounts[ana.ID] != 16000 || amounts[ben.ID] != 12000 {
		t.Errorf("amounts = %v", amounts)
	}

	second, err := svc.GenerateForAllUsersInRange(ctx, monday, friday)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Invoices) != 0 {
		t.Errorf("second batch created %d invoices, expected none", len(second.Invoices))
	}
}

func TestInvoiceService_BatchIsolatesFailures(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	site := createProject(t, svc.db, "Site A")
	ana := createUser(t, svc.db, "Ana", 2000)
	ben := createUser(t, svc.db, "Ben", 2000)

	s, e := workday(monday, 9, 17)
	createCompletedShift(t, svc.db, ana.ID, site.ID, s, e)
	createCompletedShift(t, svc.db, ben.ID, site.ID, s, e)

	// Ben's counter is stale: number 1 is taken by an older invoice.
	stale := models.Invoice{
		UserID:     ben.ID,
		Number:     1,
		PeriodFrom: monday.AddDate(0, 0, -7),
		PeriodTo:   monday.Add(-time.Millisecond),
		Status:     models.InvoiceStatusPaid,
	}
	if err := svc.db.Create(&stale).Error; err != nil {
		t.Fatal(err)
	}

	result, err := svc.GenerateForAllUsersInRange(ctx, monday, friday)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Invoices) != 1 || result.Invoices[0].UserID != ana.ID {
		t.Errorf("invoices = %+v, expected only Ana's", result.Invoices)
	}
	if len(result.Failures) != 1 || result.Failures[0].UserID != ben.ID {
		t.Errorf("failures = %+v, expected Ben", result.Failures)
	}

	var reloaded models.User
	svc.db.First(&reloaded, ben.ID)
	if reloaded.InvoiceCount != 0 {
		t.Errorf("failed generation should roll back the counter, got %d", reloaded.InvoiceCount)
	}
	var linked int64
	svc.db.Table("invoice_shifts").Count(&linked)
	if linked != 1 {
		t.Errorf("expected only Ana's shift linked, got %d links", linked)
	}
}

func TestInvoiceService_Listings(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	site := createProject(t, svc.db, "Site A")
	ana := createUser(t, svc.db, "Ana", 2000)
	ben := createUser(t, svc.db, "Ben", 2000)
	s, e := workday(monday, 9, 17)
	createCompletedShift(t, svc.db, ana.ID, site.ID, s, e)
	s, e = workday(monday.AddDate(0, 0, 7), 9, 17)
	createCompletedShift(t, svc.db, ana.ID, site.ID, s, e)
	s, e = workday(monday, 9, 13)
	createCompletedShift(t, svc.db, ben.ID, site.ID, s, e)

	first, err := svc.GenerateForUser(ctx, ana.ID, monday, friday)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.GenerateForUser(ctx, ana.ID, monday.AddDate(0, 0, 7), friday.AddDate(0, 0, 7))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GenerateForUser(ctx, ben.ID, monday, friday); err != nil {
		t.Fatal(err)
	}

	mine, err := svc.ListByUser(ctx, ana.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || mine[0].ID != second.ID {
		t.Errorf("ListByUser() = %d invoices, newest first expected", len(mine))
	}

	page, err := svc.List(ctx, &InvoiceListRequest{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 || len(page.Items) != 2 {
		t.Errorf("List() total=%d items=%d", page.Total, len(page.Items))
	}
	if page.Items[0].User == nil {
		t.Error("List() should preload the user")
	}

	if _, err := svc.GetForUser(ctx, first.ID, ben.ID); err == nil {
		t.Error("GetForUser() should hide other users' invoices")
	}
	if got, err := svc.GetForUser(ctx, first.ID, ana.ID); err != nil || got.ID != first.ID {
		t.Errorf("GetForUser() = %v, %v", got, err)
	}
}
