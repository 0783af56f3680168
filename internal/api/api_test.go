package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	ws "nhooyr.io/websocket"

	"github.com/friendsincode/campday/internal/auth"
	"github.com/friendsincode/campday/internal/cache"
	"github.com/friendsincode/campday/internal/eventbus"
	"github.com/friendsincode/campday/internal/models"
	"github.com/friendsincode/campday/internal/telemetry"
)

var testSecret = []byte("test-secret")

func newTestAPI(t *testing.T) (*API, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Day{}, &models.Slot{}, &models.Activity{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cacheLayer, err := cache.New(cache.Config{RedisAddr: ""}, zerolog.Nop())
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}
	feed := eventbus.NewFeed("", zerolog.Nop())

	return New(db, cacheLayer, feed, testSecret, zerolog.Nop()), db
}

func seedDay(t *testing.T, db *gorm.DB) models.Day {
	t.Helper()

	day := models.Day{ID: "day-1", CampID: "camp-1", Name: "Opening Day", Date: "2026-07-06"}
	if err := db.Create(&day).Error; err != nil {
		t.Fatalf("create day: %v", err)
	}
	slots := []models.Slot{
		{ID: "s1", DayID: day.ID, OrderInDay: 1, Start: "09:00", End: "10:00", Title: "Flag raising"},
		{ID: "s2", DayID: day.ID, OrderInDay: 2, Start: "10:00", End: "12:00", Title: "Canoeing"},
		{ID: "s3", DayID: day.ID, OrderInDay: 3, Start: "13:00", End: "14:30", Title: "Crafts"},
	}
	for i := range slots {
		if err := db.Create(&slots[i]).Error; err != nil {
			t.Fatalf("create slot: %v", err)
		}
	}
	return day
}

func doRequest(t *testing.T, a *API, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	token, err := auth.Issue(testSecret, auth.Claims{UserID: "u1", Role: models.RoleOrganizer}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	a.Router().ServeHTTP(rr, req)
	return rr
}

func TestGetDayReturnsOrderedSlotsAndETag(t *testing.T) {
	a, db := newTestAPI(t)
	day := seedDay(t, db)

	rr := doRequest(t, a, "GET", "/days/"+day.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("ETag") == "" {
		t.Fatal("expected ETag header")
	}

	var resp struct {
		Data models.Day `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data.Slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(resp.Data.Slots))
	}
	for i, s := range resp.Data.Slots {
		if s.OrderInDay != i+1 {
			t.Fatalf("slot %d out of order: %d", i, s.OrderInDay)
		}
	}
	if resp.Data.TotalMinutes != 60+120+90 {
		t.Fatalf("unexpected total minutes: %d", resp.Data.TotalMinutes)
	}
}

func TestGetDayUnknownIDReturnsNotFoundCode(t *testing.T) {
	a, _ := newTestAPI(t)

	rr := doRequest(t, a, "GET", "/days/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Code != CodeNotFound {
		t.Fatalf("expected %s, got %q", CodeNotFound, resp.Error.Code)
	}
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	a, db := newTestAPI(t)
	day := seedDay(t, db)

	req := httptest.NewRequest("GET", "/days/"+day.ID, nil)
	rr := httptest.NewRecorder()
	a.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestPatchSlotMergesFieldsAndBumpsDayMarker(t *testing.T) {
	a, db := newTestAPI(t)
	day := seedDay(t, db)

	var before models.Day
	if err := db.First(&before, "id = ?", day.ID).Error; err != nil {
		t.Fatalf("load day: %v", err)
	}

	rr := doRequest(t, a, "PATCH", "/slots/s2", map[string]any{
		"title": "Kayaking",
		"notes": "bring life vests",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data models.Slot `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Title != "Kayaking" || resp.Data.Notes != "bring life vests" {
		t.Fatalf("patch not applied: %+v", resp.Data)
	}
	if resp.Data.Start != "10:00" {
		t.Fatalf("untouched field changed: %q", resp.Data.Start)
	}

	var after models.Day
	if err := db.First(&after, "id = ?", day.ID).Error; err != nil {
		t.Fatalf("load day: %v", err)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatal("expected day marker to advance after slot mutation")
	}
}

func TestPatchSlotTrimsOrderIntoRange(t *testing.T) {
	a, db := newTestAPI(t)
	seedDay(t, db)

	rr := doRequest(t, a, "PATCH", "/slots/s1", map[string]any{"orderInDay": 99})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data models.Slot `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.OrderInDay != 3 {
		t.Fatalf("expected order trimmed to 3, got %d", resp.Data.OrderInDay)
	}
}

func TestPatchSlotRejectsInvertedTimes(t *testing.T) {
	a, db := newTestAPI(t)
	seedDay(t, db)

	rr := doRequest(t, a, "PATCH", "/slots/s1", map[string]any{"end": "08:00"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Code != CodeValidation {
		t.Fatalf("expected %s, got %q", CodeValidation, resp.Error.Code)
	}
}

func TestDeleteSlotCompactsOrders(t *testing.T) {
	a, db := newTestAPI(t)
	seedDay(t, db)

	rr := doRequest(t, a, "DELETE", "/slots/s2", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	var slots []models.Slot
	if err := db.Where("day_id = ?", "day-1").Order("order_in_day ASC").Find(&slots).Error; err != nil {
		t.Fatalf("load slots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !models.OrdersDense(slots) {
		t.Fatalf("expected dense orders after delete, got %+v", slots)
	}
	if slots[0].ID != "s1" || slots[1].ID != "s3" {
		t.Fatalf("unexpected survivors: %s, %s", slots[0].ID, slots[1].ID)
	}
}

func TestCreateSlotAppendsAtEnd(t *testing.T) {
	a, db := newTestAPI(t)
	day := seedDay(t, db)

	rr := doRequest(t, a, "POST", "/days/"+day.ID+"/slots", map[string]any{
		"start": "15:00",
		"end":   "16:00",
		"title": "Swimming",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data models.Slot `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.OrderInDay != 4 {
		t.Fatalf("expected appended slot at order 4, got %d", resp.Data.OrderInDay)
	}
}

func TestDayFeedUpgradesBehindMetricsMiddleware(t *testing.T) {
	a, db := newTestAPI(t)
	day := seedDay(t, db)

	// The real server mounts the router behind the metrics middleware, so the
	// websocket upgrade must survive its response writer wrapper.
	srv := httptest.NewServer(telemetry.MetricsMiddleware(a.Router()))
	defer srv.Close()

	token, err := auth.Issue(testSecret, auth.Claims{UserID: "u1", Role: models.RoleOrganizer}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/days/" + day.ID + "/feed?token=" + token
	conn, _, err := ws.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("websocket handshake through middleware failed: %v", err)
	}
	defer conn.Close(ws.StatusNormalClosure, "")

	// The handler subscribes after the handshake; keep publishing until the
	// first notification comes back.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(25 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				a.feed.PublishSlotChange(eventbus.SlotChange{DayID: day.ID, SlotID: "s1", Op: eventbus.OpUpdate})
			}
		}
	}()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read feed message: %v", err)
	}
	var change eventbus.SlotChange
	if err := json.Unmarshal(data, &change); err != nil {
		t.Fatalf("decode feed message: %v", err)
	}
	if change.DayID != day.ID || change.SlotID != "s1" {
		t.Fatalf("unexpected change: %+v", change)
	}
}

func TestLoginIssuesTokenForValidCredentials(t *testing.T) {
	a, db := newTestAPI(t)

	hashed, err := auth.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{ID: "u1", Email: "lead@example.com", Password: hashed, Role: models.RoleOrganizer}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"email": "lead@example.com", "password": "correct horse"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	a.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	claims, err := auth.Parse(testSecret, resp.Data.Token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	body, _ = json.Marshal(map[string]string{"email": "lead@example.com", "password": "wrong"})
	req = httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	rr = httptest.NewRecorder()
	a.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
