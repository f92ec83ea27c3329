package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/huangang/shiftledger/internal/models"
	"github.com/huangang/shiftledger/internal/services"
)

func TestInvoiceHandler_GenerateAndView(t *testing.T) {
	env := newTestEnv(t)
	site := env.project(t, "Site A")
	ana, anaToken := env.user(t, "Ana", 2500, models.RoleEmployee)
	_, benToken := env.user(t, "Ben", 2000, models.RoleEmployee)
	_, adminToken := env.user(t, "Admin", 0, models.RoleAdmin)

	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	shift := &models.CompletedShift{UserID: ana.ID, ProjectID: site.ID, Start: start, End: start.Add(6 * time.Hour), Date: start.Add(6 * time.Hour)}
	if err := env.db.Create(shift).Error; err != nil {
		t.Fatal(err)
	}

	w := env.do(t, "POST", "/api/admin/invoices/generate", anaToken, map[string]string{"from": "2024-03-04", "to": "2024-03-10"})
	if w.Code != http.StatusForbidden {
		t.Errorf("employee generate status = %d, expected 403", w.Code)
	}

	w = env.do(t, "POST", "/api/admin/invoices/generate", adminToken, map[string]string{"from": "2024-03-10", "to": "2024-03-04"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("reversed window status = %d, expected 400", w.Code)
	}

	w = env.do(t, "POST", "/api/admin/invoices/generate", adminToken, map[string]string{"from": "2024-03-04", "to": "2024-03-10"})
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body %s", w.Code, w.Body)
	}
	var result services.BatchResult
	decode(t, w, &result)
	if len(result.Invoices) != 1 || result.Invoices[0].AmountCents != 15000 {
		t.Fatalf("batch result = %+v", result)
	}
	invoiceID := result.Invoices[0].ID

	var mine []services.InvoiceView
	decode(t, env.do(t, "GET", "/api/invoices", anaToken, nil), &mine)
	if len(mine) != 1 || mine[0].Amount != "150.00" || mine[0].Invoice.Number != 1 {
		t.Errorf("my invoices = %+v", mine)
	}

	var detail services.InvoiceView
	w = env.do(t, "GET", fmt.Sprintf("/api/invoices/%d", invoiceID), anaToken, nil)
	decode(t, w, &detail)
	if w.Code != http.StatusOK || detail.TotalHours != 6 || len(detail.Shifts) != 1 {
		t.Errorf("invoice detail = %d %+v", w.Code, detail)
	}

	w = env.do(t, "GET", fmt.Sprintf("/api/invoices/%d", invoiceID), benToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign invoice status = %d, expected 404", w.Code)
	}

	var page struct {
		Total int64                  `json:"total"`
		Items []services.InvoiceView `json:"items"`
	}
	decode(t, env.do(t, "GET", "/api/admin/invoices?page=1&page_size=10", adminToken, nil), &page)
	if page.Total != 1 || len(page.Items) != 1 {
		t.Errorf("admin page = %+v", page)
	}
}

func TestEmployeeHandler_UpdatePayRate(t *testing.T) {
	env := newTestEnv(t)
	ana, _ := env.user(t, "Ana", 0, models.RoleEmployee)
	_, adminToken := env.user(t, "Admin", 0, models.RoleAdmin)
	path := fmt.Sprintf("/api/admin/employees/%d/pay-rate", ana.ID)

	w := env.do(t, "PUT", path, adminToken, map[string]string{"hourly_rate": "abc"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad amount status = %d, expected 400", w.Code)
	}

	w = env.do(t, "PUT", path, adminToken, map[string]string{"hourly_rate": "31.50"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body)
	}

	var detail struct {
		HourlyRate string `json:"hourly_rate"`
	}
	decode(t, env.do(t, "GET", fmt.Sprintf("/api/admin/employees/%d", ana.ID), adminToken, nil), &detail)
	if detail.HourlyRate != "31.50" {
		t.Errorf("hourly_rate = %q, expected 31.50", detail.HourlyRate)
	}

	if w := env.do(t, "GET", "/api/admin/employees/abc", adminToken, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, expected 400", w.Code)
	}
}
