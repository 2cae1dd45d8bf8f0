package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okso-hub/scrum-poker-sub000/internal/service"
	"github.com/okso-hub/scrum-poker-sub000/internal/store"
	"github.com/okso-hub/scrum-poker-sub000/internal/transport/ws"
)

const (
	adminAddr  = "10.0.0.1:50000"
	playerAddr = "10.0.0.2:50000"
	otherAddr  = "10.0.0.3:50000"
)

func newTestRouter(t *testing.T, teardownDelay time.Duration) http.Handler {
	t.Helper()
	roomStore := store.NewRoomStore()
	return NewRouter(&Container{
		Store:          roomStore,
		GameService:    service.NewGameService(roomStore),
		ArchiveService: service.NewArchiveService(nil, nil),
		WSHub:          ws.NewHub(),
		TeardownDelay:  teardownDelay,
	})
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func createRoom(t *testing.T, router http.Handler, name string) int64 {
	t.Helper()
	rec := doRequest(t, router, "POST", "/create", map[string]string{"name": name}, adminAddr)
	if rec.Code != http.StatusOK {
		t.Fatalf("create room: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		RoomID int64 `json:"roomId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp.RoomID
}

func TestCreateRoom_Validation(t *testing.T) {
	router := newTestRouter(t, time.Second)

	rec := doRequest(t, router, "POST", "/create", map[string]string{"name": ""}, adminAddr)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty name, got %d", rec.Code)
	}
}

func TestAdminGate(t *testing.T) {
	router := newTestRouter(t, time.Second)
	roomID := createRoom(t, router, "alice")

	tests := []struct {
		name     string
		path     string
		addr     string
		wantCode int
	}{
		{"non-admin start", fmt.Sprintf("/room/%d/start", roomID), playerAddr, http.StatusForbidden},
		{"non-admin items", fmt.Sprintf("/room/%d/items", roomID), playerAddr, http.StatusForbidden},
		{"non-admin ban", fmt.Sprintf("/room/%d/ban", roomID), playerAddr, http.StatusForbidden},
		{"malformed room id", "/room/abc/start", adminAddr, http.StatusBadRequest},
		{"negative room id", "/room/-3/start", adminAddr, http.StatusBadRequest},
		{"unknown room", "/room/999999999/start", adminAddr, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, "POST", tt.path, nil, tt.addr)
			if rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d (%s)", tt.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}

// Gate rejections must carry the same JSON error shape as handler errors.
func TestAdminGate_ErrorBodyIsJSON(t *testing.T) {
	router := newTestRouter(t, time.Second)
	roomID := createRoom(t, router, "alice")

	tests := []struct {
		name     string
		path     string
		addr     string
		wantCode string
	}{
		{"malformed room id", "/room/abc/start", adminAddr, "bad_request"},
		{"non-admin caller", fmt.Sprintf("/room/%d/start", roomID), playerAddr, "forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, "POST", tt.path, nil, tt.addr)
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected application/json, got %q", ct)
			}
			body := decodeBody(t, rec)
			if body["code"] != tt.wantCode {
				t.Errorf("expected code %q, got %v", tt.wantCode, body["code"])
			}
			if body["error"] == "" || body["error"] == nil {
				t.Errorf("expected error message, got %v", body)
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	router := newTestRouter(t, time.Second)
	roomID := createRoom(t, router, "alice")

	rec := doRequest(t, router, "GET", fmt.Sprintf("/is-admin?roomId=%d", roomID), nil, adminAddr)
	if body := decodeBody(t, rec); body["isAdmin"] != true {
		t.Error("creator should be admin")
	}

	rec = doRequest(t, router, "GET", fmt.Sprintf("/is-admin?roomId=%d", roomID), nil, playerAddr)
	if body := decodeBody(t, rec); body["isAdmin"] != false {
		t.Error("other caller should not be admin")
	}

	rec = doRequest(t, router, "GET", "/is-admin", nil, adminAddr)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing roomId, got %d", rec.Code)
	}
}

func TestSetItems_RejectsMarkup(t *testing.T) {
	router := newTestRouter(t, time.Second)
	roomID := createRoom(t, router, "alice")
	itemsPath := fmt.Sprintf("/room/%d/items", roomID)

	rec := doRequest(t, router, "POST", itemsPath, map[string][]string{"items": {"safe item"}}, adminAddr)
	if rec.Code != http.StatusOK {
		t.Fatalf("set items: %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, "POST", itemsPath, map[string][]string{"items": {"<script>alert(1)</script>"}}, adminAddr)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for markup, got %d", rec.Code)
	}

	// Prior items must be untouched.
	rec = doRequest(t, router, "GET", itemsPath, nil, playerAddr)
	var itemsResp struct {
		Items []string `json:"items"`
	}
	json.NewDecoder(rec.Body).Decode(&itemsResp)
	if len(itemsResp.Items) != 1 || itemsResp.Items[0] != "safe item" {
		t.Errorf("prior items changed: %v", itemsResp.Items)
	}
}

func TestBanFlow(t *testing.T) {
	router := newTestRouter(t, time.Second)
	roomID := createRoom(t, router, "alice")

	rec := doRequest(t, router, "POST", "/join", map[string]interface{}{"name": "bob", "roomId": roomID}, playerAddr)
	if rec.Code != http.StatusOK {
		t.Fatalf("join: %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, "POST", fmt.Sprintf("/room/%d/ban", roomID), map[string]string{"name": "bob"}, adminAddr)
	if rec.Code != http.StatusOK {
		t.Fatalf("ban: %d (%s)", rec.Code, rec.Body.String())
	}

	// Banned address can't come back under any name.
	rec = doRequest(t, router, "POST", "/join", map[string]interface{}{"name": "robert", "roomId": roomID}, playerAddr)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for banned address, got %d", rec.Code)
	}

	rec = doRequest(t, router, "GET", fmt.Sprintf("/room/%d/participants", roomID), nil, otherAddr)
	var participantsResp struct {
		Participants []struct {
			Name string `json:"name"`
		} `json:"participants"`
	}
	json.NewDecoder(rec.Body).Decode(&participantsResp)
	if len(participantsResp.Participants) != 1 {
		t.Errorf("banned user still listed: %+v", participantsResp.Participants)
	}
}

// TestFullSession walks the whole lifecycle: create, items, join, vote with
// auto-reveal, advance, finish, and teardown after the grace delay.
func TestFullSession(t *testing.T) {
	router := newTestRouter(t, 50*time.Millisecond)
	roomID := createRoom(t, router, "A")
	prefix := fmt.Sprintf("/room/%d", roomID)

	rec := doRequest(t, router, "POST", prefix+"/items", map[string][]string{"items": {"I1", "I2"}}, adminAddr)
	if rec.Code != http.StatusOK {
		t.Fatalf("items: %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, "POST", "/join", map[string]interface{}{"name": "B", "roomId": roomID}, playerAddr)
	body := decodeBody(t, rec)
	if body["success"] != true || body["isAdmin"] != false {
		t.Fatalf("unexpected join response: %v", body)
	}
	roomState := body["roomState"].(map[string]interface{})
	if roomState["status"] != "items_submitted" || roomState["currentItem"] != "I1" {
		t.Fatalf("unexpected room state snapshot: %v", roomState)
	}

	rec = doRequest(t, router, "POST", prefix+"/start", nil, adminAddr)
	if rec.Code != http.StatusOK {
		t.Fatalf("start: %d (%s)", rec.Code, rec.Body.String())
	}

	// First vote: round incomplete, no auto-reveal.
	rec = doRequest(t, router, "POST", prefix+"/vote", map[string]string{"vote": "5", "playerName": "A"}, adminAddr)
	if body := decodeBody(t, rec); body["gameEvent"] != nil {
		t.Fatal("auto-reveal must not fire before everyone voted")
	}

	// Second vote completes the round and auto-reveals.
	rec = doRequest(t, router, "POST", prefix+"/vote", map[string]string{"vote": "5", "playerName": "B"}, playerAddr)
	body = decodeBody(t, rec)
	gameEvent, ok := body["gameEvent"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected auto-reveal gameEvent, got %v", body)
	}
	if gameEvent["average"] != 5.0 {
		t.Errorf("expected average 5, got %v", gameEvent["average"])
	}
	if gameEvent["isLastItem"] != false {
		t.Error("first of two items must not be the last")
	}

	rec = doRequest(t, router, "POST", prefix+"/next", nil, adminAddr)
	body = decodeBody(t, rec)
	if body["item"] != "I2" {
		t.Fatalf("expected advance to I2, got %v", body)
	}

	doRequest(t, router, "POST", prefix+"/vote", map[string]string{"vote": "8", "playerName": "A"}, adminAddr)
	rec = doRequest(t, router, "POST", prefix+"/vote", map[string]string{"vote": "8", "playerName": "B"}, playerAddr)
	body = decodeBody(t, rec)
	gameEvent = body["gameEvent"].(map[string]interface{})
	if gameEvent["isLastItem"] != true {
		t.Error("second item should be the last")
	}

	rec = doRequest(t, router, "POST", prefix+"/summary", nil, adminAddr)
	body = decodeBody(t, rec)
	summaryEvent, ok := body["gameEvent"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected summary gameEvent, got %v", body)
	}
	if summaryEvent["totalAverage"] != 6.5 {
		t.Errorf("expected total average 6.5, got %v", summaryEvent["totalAverage"])
	}
	if summaryEvent["totalTasks"] != 2.0 {
		t.Errorf("expected 2 tasks, got %v", summaryEvent["totalTasks"])
	}

	// Still readable during the grace window, gone afterwards.
	rec = doRequest(t, router, "GET", prefix+"/status", nil, playerAddr)
	if rec.Code != http.StatusOK {
		t.Errorf("room should survive the grace window, got %d", rec.Code)
	}

	time.Sleep(150 * time.Millisecond)
	rec = doRequest(t, router, "GET", prefix+"/status", nil, playerAddr)
	if rec.Code != http.StatusNotFound {
		t.Errorf("room should be gone after the delay, got %d", rec.Code)
	}
}

func TestVoteStatusEndpoint(t *testing.T) {
	router := newTestRouter(t, time.Second)
	roomID := createRoom(t, router, "alice")
	prefix := fmt.Sprintf("/room/%d", roomID)

	doRequest(t, router, "POST", "/join", map[string]interface{}{"name": "bob", "roomId": roomID}, playerAddr)
	doRequest(t, router, "POST", prefix+"/items", map[string][]string{"items": {"I1"}}, adminAddr)
	doRequest(t, router, "POST", prefix+"/start", nil, adminAddr)
	doRequest(t, router, "POST", prefix+"/vote", map[string]string{"vote": "13", "playerName": "bob"}, playerAddr)

	rec := doRequest(t, router, "GET", prefix+"/vote-status", nil, playerAddr)
	body := decodeBody(t, rec)
	if body["voteCount"] != 1.0 || body["totalPlayers"] != 2.0 {
		t.Errorf("unexpected vote status: %v", body)
	}
	voted := body["votedPlayers"].([]interface{})
	if len(voted) != 1 || voted[0] != "bob" {
		t.Errorf("unexpected voted players: %v", voted)
	}
}

func TestSummaryArchive_NotFoundWithoutBackends(t *testing.T) {
	router := newTestRouter(t, time.Second)

	rec := doRequest(t, router, "GET", "/summaries/123456", nil, playerAddr)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without archive backends, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, time.Second)
	rec := doRequest(t, router, "GET", "/health", nil, playerAddr)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
