package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWT(models.User{ID: 42, Username: "alice"})
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT() error = %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	if _, err := ValidateJWT("not.a.token"); err == nil {
		t.Fatal("ValidateJWT() accepted garbage")
	}
}

func TestJWTMiddleware(t *testing.T) {
	token, err := GenerateJWT(models.User{ID: 1, Username: "alice"})
	if err != nil {
		t.Fatal(err)
	}

	var gotUsername string
	handler := JWTMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			gotUsername = claims.Username
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK},
		{"cookie fallback", "", token, http.StatusOK},
		{"missing token", "", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUsername = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/backups", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && gotUsername != "alice" {
				t.Errorf("claims not propagated, username = %q", gotUsername)
			}
		})
	}
}
