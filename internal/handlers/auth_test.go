package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/huangang/shiftledger/internal/models"
	"github.com/huangang/shiftledger/internal/services"
)

func TestAuthHandler_SignupLoginMe(t *testing.T) {
	env := newTestEnv(t)

	signup := map[string]string{"name": "Ana", "email": "ana@example.com", "password": "secret1"}
	if w := env.do(t, "POST", "/api/auth/signup", "", signup); w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", w.Code, w.Body)
	}
	if w := env.do(t, "POST", "/api/auth/signup", "", signup); w.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, expected 409", w.Code)
	}
	if w := env.do(t, "POST", "/api/auth/signup", "", map[string]string{"name": "Bad", "email": "nope", "password": "secret1"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid email status = %d, expected 400", w.Code)
	}

	w := env.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, expected 401", w.Code)
	}

	w = env.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body)
	}
	var result services.LoginResult
	decode(t, w, &result)
	if result.Token == "" {
		t.Fatal("expected a token")
	}

	var me models.User
	w = env.do(t, "GET", "/api/auth/me", result.Token, nil)
	decode(t, w, &me)
	if w.Code != http.StatusOK || me.Email != "ana@example.com" || !me.HasRole(models.RoleEmployee) {
		t.Errorf("me = %d %+v", w.Code, me)
	}
	if strings.Contains(w.Body.String(), `"password"`) {
		t.Error("password hash must not be serialised")
	}
}

func TestProjectHandler_EmployeeSeesOwnProjectsOnly(t *testing.T) {
	env := newTestEnv(t)
	mine := env.project(t, "Site A")
	other := env.project(t, "Site B")
	ana, token := env.user(t, "Ana", 2000, models.RoleEmployee)
	_, adminToken := env.user(t, "Admin", 0, models.RoleAdmin)

	if _, err := env.projects.AddMember(t.Context(), mine.ID, &services.AddMemberRequest{UserID: ana.ID}, 0); err != nil {
		t.Fatal(err)
	}

	if w := env.do(t, "GET", fmt.Sprintf("/api/projects/%d", mine.ID), token, nil); w.Code != http.StatusOK {
		t.Errorf("own project status = %d", w.Code)
	}
	if w := env.do(t, "GET", fmt.Sprintf("/api/projects/%d", other.ID), token, nil); w.Code != http.StatusNotFound {
		t.Errorf("other project status = %d, expected 404", w.Code)
	}
	if w := env.do(t, "GET", fmt.Sprintf("/api/projects/%d", other.ID), adminToken, nil); w.Code != http.StatusOK {
		t.Errorf("admin project status = %d, expected 200", w.Code)
	}
}

func TestBillingHandler(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user(t, "Ana", 2000, models.RoleEmployee)

	var before struct {
		Billing *models.Billing `json:"billing"`
	}
	decode(t, env.do(t, "GET", "/api/billing", token, nil), &before)
	if before.Billing != nil {
		t.Errorf("billing before update = %+v", before.Billing)
	}

	if w := env.do(t, "PUT", "/api/billing", token, map[string]string{"bsb": "12"}); w.Code != http.StatusBadRequest {
		t.Errorf("short BSB status = %d, expected 400", w.Code)
	}

	w := env.do(t, "PUT", "/api/billing", token, map[string]string{"abn": "51824753556", "bsb": "062000", "account_number": "12345678", "bank_name": "Harbour"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body)
	}
	var after struct {
		Billing *models.Billing `json:"billing"`
	}
	decode(t, env.do(t, "GET", "/api/billing", token, nil), &after)
	if after.Billing == nil || after.Billing.BankAccount == nil || after.Billing.BankAccount.BSB != "062000" {
		t.Errorf("billing after update = %+v", after.Billing)
	}
}
