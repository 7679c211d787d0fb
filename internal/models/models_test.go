package models

import (
	"testing"
	"time"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	if err := base.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if base.ID == "" {
		t.Fatal("expected base model ID to be generated")
	}
}

func TestBaseModelBeforeCreateKeepsExistingID(t *testing.T) {
	base := BaseModel{ID: "fixed"}
	if err := base.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if base.ID != "fixed" {
		t.Fatalf("expected existing ID to be preserved, got %q", base.ID)
	}
}

func TestEmbeddedModelsUseBaseBeforeCreate(t *testing.T) {
	cases := []struct {
		name  string
		model func() *BaseModel
	}{
		{"user", func() *BaseModel {
			u := &User{}
			return &u.BaseModel
		}},
		{"hire_request", func() *BaseModel {
			h := &HireRequest{}
			return &h.BaseModel
		}},
		{"invite_token", func() *BaseModel {
			i := &InviteToken{}
			return &i.BaseModel
		}},
		{"notification", func() *BaseModel {
			n := &Notification{}
			return &n.BaseModel
		}},
		{"project", func() *BaseModel {
			p := &Project{}
			return &p.BaseModel
		}},
		{"task", func() *BaseModel {
			m := &Task{}
			return &m.BaseModel
		}},
		{"group", func() *BaseModel {
			g := &Group{}
			return &g.BaseModel
		}},
		{"calendar_connection", func() *BaseModel {
			c := &CalendarConnection{}
			return &c.BaseModel
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model := tc.model()
			if err := model.BeforeCreate(nil); err != nil {
				t.Fatalf("before create: %v", err)
			}
			if model.ID == "" {
				t.Fatal("expected ID to be generated")
			}
		})
	}
}

func TestInviteTokenIsValid(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		token *InviteToken
		want  bool
	}{
		{"nil", nil, false},
		{"fresh", &InviteToken{ExpiresAt: now.Add(time.Hour)}, true},
		{"expires exactly now", &InviteToken{ExpiresAt: now}, true},
		{"expired", &InviteToken{ExpiresAt: now.Add(-time.Second)}, false},
		{"used", &InviteToken{IsUsed: true, ExpiresAt: now.Add(time.Hour)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.token.IsValid(now); got != tc.want {
				t.Fatalf("IsValid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestUserRoleHelpers(t *testing.T) {
	creator := &User{Role: RoleCreator, Email: "studio@example.com"}
	talent := &User{Role: RoleTalent}

	if !creator.IsCreator() || creator.IsTalent() {
		t.Fatal("expected creator role helpers to match")
	}
	if !talent.IsTalent() || talent.IsCreator() {
		t.Fatal("expected talent role helpers to match")
	}
	if creator.EmailLocalPart() != "studio" {
		t.Fatalf("unexpected local part %q", creator.EmailLocalPart())
	}

	var missing *User
	if missing.IsCreator() || missing.IsTalent() {
		t.Fatal("nil user must not report a role")
	}
}
