package auth

import (
	"net/http/httptest"
	"testing"
)

func TestHasAtLeast(t *testing.T) {
	if !HasAtLeast([]string{"admin"}, RoleEditor) {
		t.Fatalf("admin should satisfy editor")
	}
	if HasAtLeast([]string{"viewer"}, RoleEditor) {
		t.Fatalf("viewer should not satisfy editor")
	}
	if HasAtLeast([]string{"unknown"}, RoleViewer) {
		t.Fatalf("unknown role should not satisfy viewer")
	}
	if !HasAtLeast([]string{" Editor "}, RoleEditor) {
		t.Fatalf("role matching should trim and lowercase")
	}
}

func TestMethodRoleAuthorizer(t *testing.T) {
	authorize := MethodRoleAuthorizer()

	get := httptest.NewRequest("GET", "/pipelines", nil)
	if err := authorize(get, Identity{Roles: []string{"viewer"}}); err != nil {
		t.Fatalf("viewer GET denied: %v", err)
	}

	post := httptest.NewRequest("POST", "/pipelines", nil)
	if err := authorize(post, Identity{Roles: []string{"viewer"}}); err == nil {
		t.Fatalf("viewer POST should be denied")
	}
	if err := authorize(post, Identity{Roles: []string{"editor"}}); err != nil {
		t.Fatalf("editor POST denied: %v", err)
	}
}
