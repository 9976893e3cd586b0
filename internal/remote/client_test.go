package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
)

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "ok",
		"data":    data,
	})
}

func TestLoginStoresToken(t *testing.T) {
	var sawAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var creds map[string]string
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				t.Errorf("decode credentials: %v", err)
			}
			if creds["username"] != "alice" || creds["password"] != "s3cret" {
				t.Errorf("unexpected credentials: %v", creds)
			}
			writeEnvelope(w, map[string]any{"id": 3, "username": "alice", "token": "tok-123"})
		case "/api/settings":
			sawAuth = r.Header.Get("Authorization")
			writeEnvelope(w, map[string]any{})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	user, err := c.Login(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != 3 || user.Username != "alice" {
		t.Errorf("Login() = %+v", user)
	}
	if c.Username() != "alice" {
		t.Errorf("Username() = %q, want alice", c.Username())
	}

	if _, err := c.GetUserSettings(context.Background()); err != nil {
		t.Fatalf("GetUserSettings() error = %v", err)
	}
	if sawAuth != "Bearer tok-123" {
		t.Errorf("Authorization header = %q, want Bearer tok-123", sawAuth)
	}
}

func TestLoginRejectsMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, map[string]any{"id": 3, "username": "alice"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.Login(context.Background(), "alice", "s3cret"); err == nil {
		t.Fatal("Login() succeeded without a token in the response")
	}
}

func TestEnvelopeFailureSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "invalid credentials",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.Login(context.Background(), "alice", "wrong")
	if err == nil {
		t.Fatal("Login() succeeded against a failure envelope")
	}
	if got := err.Error(); !strings.Contains(got, "invalid credentials") {
		t.Errorf("error %q does not carry the server message", got)
	}
}

func TestListAllDrainsEveryPage(t *testing.T) {
	const total = 1203
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products" {
			http.NotFound(w, r)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		if size != listPageSize {
			t.Errorf("page_size = %d, want %d", size, listPageSize)
		}
		start := (page - 1) * size
		end := start + size
		if end > total {
			end = total
		}
		items := make([]json.RawMessage, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, json.RawMessage(fmt.Sprintf(`{"id":%d}`, i+1)))
		}
		writeEnvelope(w, map[string]any{
			"items":       items,
			"total":       total,
			"page":        page,
			"page_size":   size,
			"total_pages": (total + size - 1) / size,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	records, err := c.ListAll(context.Background(), "products")
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(records) != total {
		t.Fatalf("ListAll() returned %d records, want %d", len(records), total)
	}

	var first, last struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(records[0], &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(records[total-1], &last); err != nil {
		t.Fatal(err)
	}
	if first.ID != 1 || last.ID != total {
		t.Errorf("record order: first=%d last=%d", first.ID, last.ID)
	}
}

func TestListAllUnknownKind(t *testing.T) {
	c := NewClient("http://localhost:0", time.Second)
	if _, err := c.ListAll(context.Background(), "coupons"); err == nil {
		t.Fatal("ListAll() accepted an unknown entity kind")
	}
}

func TestGetUserSettingsDecoding(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want models.UserSettings
	}{
		{
			name: "populated",
			data: map[string]any{
				"auto_backup_enabled":   1,
				"auto_backup_interval":  30,
				"auto_backup_max_count": 10,
				"last_backup_time":      "2024-03-01 11:45:00",
			},
			want: models.UserSettings{AutoBackupEnabled: true, AutoBackupInterval: 30, AutoBackupMaxCount: 10},
		},
		{
			name: "defaults for unset fields",
			data: map[string]any{"auto_backup_enabled": 0},
			want: models.UserSettings{
				AutoBackupInterval: models.DefaultIntervalMinutes,
				AutoBackupMaxCount: models.DefaultMaxRetainedCount,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tt.data)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, 5*time.Second)
			got, err := c.GetUserSettings(context.Background())
			if err != nil {
				t.Fatalf("GetUserSettings() error = %v", err)
			}
			if got.AutoBackupEnabled != tt.want.AutoBackupEnabled ||
				got.AutoBackupInterval != tt.want.AutoBackupInterval ||
				got.AutoBackupMaxCount != tt.want.AutoBackupMaxCount {
				t.Errorf("settings = %+v, want %+v", got, tt.want)
			}
			if raw, ok := tt.data["last_backup_time"]; ok {
				if got.LastBackupTime == nil {
					t.Fatalf("last backup time not decoded from %v", raw)
				}
				want := time.Date(2024, 3, 1, 11, 45, 0, 0, time.UTC)
				if !got.LastBackupTime.Equal(want) {
					t.Errorf("last backup time = %v, want %v", got.LastBackupTime, want)
				}
			}
		})
	}
}

func TestUpdateSettingsEncodesPatch(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		writeEnvelope(w, map[string]any{})
	}))
	defer srv.Close()

	enabled := true
	last := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	c := NewClient(srv.URL, 5*time.Second)
	err := c.UpdateSettings(context.Background(), models.SettingsPatch{
		AutoBackupEnabled: &enabled,
		LastBackupTime:    &last,
	})
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}

	if got := body["auto_backup_enabled"]; got != float64(1) {
		t.Errorf("auto_backup_enabled = %v, want 1", got)
	}
	if got := body["last_backup_time"]; got != "2024-03-01T12:30:00Z" {
		t.Errorf("last_backup_time = %v", got)
	}
	if _, ok := body["auto_backup_interval"]; ok {
		t.Error("patch carried a field that was not set")
	}
}

func TestUpdateSettingsEmptyPatchIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty patch reached the server")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if err := c.UpdateSettings(context.Background(), models.SettingsPatch{}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
}
