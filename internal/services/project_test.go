package services

import (
	"context"
	"errors"
	"testing"

	"github.com/huangang/shiftledger/internal/models"
)

func TestProjectService_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	logs := NewActivityLogService(db)
	svc := NewProjectService(db, logs)
	admin := createUser(t, db, "Admin", 0)

	project, err := svc.Create(ctx, &CreateProjectRequest{
		Name:      "Harbour Tower",
		StartDate: "2024-02-01",
		Address:   &AddressInput{Street: "1 Quay St", City: "Sydney", State: "NSW", Zip: "2000", Country: "AU"},
	}, admin.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if project.Status != models.ProjectStatusActive {
		t.Errorf("Status = %q, expected ACTIVE default", project.Status)
	}
	if project.AddressID == nil {
		t.Fatal("address should be stored")
	}

	got, err := svc.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Address == nil || got.Address.City != "Sydney" {
		t.Errorf("Address = %+v", got.Address)
	}

	entries, _ := logs.RecentLogs(ctx, admin.ID, 10)
	if len(entries) != 1 || entries[0].Meta.Type != models.LogTypeProject {
		t.Errorf("logs = %+v, expected one project entry", entries)
	}

	var invalid *ValidationError
	if _, err := svc.Create(ctx, &CreateProjectRequest{Name: "X", StartDate: "Feb 1"}, 0); !errors.As(err, &invalid) {
		t.Errorf("bad start date error = %v, expected ValidationError", err)
	}
}

func TestProjectService_ListAndStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewProjectService(db, nil)

	a := createProject(t, db, "Site A")
	createProject(t, db, "Site B")

	if _, err := svc.UpdateStatus(ctx, a.ID, models.ProjectStatusArchived, 0); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, a.ID, "DONE", 0); err == nil {
		t.Error("expected error for unknown status")
	}

	resp, err := svc.List(ctx, &ProjectListRequest{Status: models.ProjectStatusActive})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Items[0].Name != "Site B" {
		t.Errorf("active projects = %+v", resp.Items)
	}
	if resp.Page != 1 || resp.PageSize != 10 {
		t.Errorf("paging defaults = %d/%d", resp.Page, resp.PageSize)
	}
}

func TestProjectService_Members(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewProjectService(db, nil)
	site := createProject(t, db, "Site A")
	ana := createUser(t, db, "Ana", 2000)

	member, err := svc.AddMember(ctx, site.ID, &AddMemberRequest{UserID: ana.ID, Role: models.MemberRoleSupervisor}, 0)
	if err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	if member.User == nil || member.User.Name != "Ana" {
		t.Errorf("member user = %+v", member.User)
	}

	var conflict *ConflictError
	if _, err := svc.AddMember(ctx, site.ID, &AddMemberRequest{UserID: ana.ID}, 0); !errors.As(err, &conflict) {
		t.Errorf("duplicate member error = %v, expected ConflictError", err)
	}
	var nf *NotFoundError
	if _, err := svc.AddMember(ctx, site.ID, &AddMemberRequest{UserID: 999}, 0); !errors.As(err, &nf) {
		t.Errorf("unknown user error = %v, expected NotFoundError", err)
	}

	ok, err := svc.IsMember(ctx, site.ID, ana.ID)
	if err != nil || !ok {
		t.Errorf("IsMember() = %v, %v", ok, err)
	}
	mine, err := svc.ListByUser(ctx, ana.ID)
	if err != nil || len(mine) != 1 {
		t.Errorf("ListByUser() = %+v, %v", mine, err)
	}

	members, err := svc.ListMembers(ctx, site.ID)
	if err != nil || len(members) != 1 || members[0].Role != models.MemberRoleSupervisor {
		t.Errorf("ListMembers() = %+v, %v", members, err)
	}

	if err := svc.RemoveMember(ctx, site.ID, member.ID, 0); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	if err := svc.RemoveMember(ctx, site.ID, member.ID, 0); !errors.As(err, &nf) {
		t.Errorf("second RemoveMember() = %v, expected NotFoundError", err)
	}
}
