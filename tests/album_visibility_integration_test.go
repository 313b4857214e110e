package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// ============================================================================
// Test Configuration
// ============================================================================
//
// These tests run against a live server (with Postgres and Redis behind it).
// Start the server, then:
//
//	TEST_BASE_URL=http://localhost:8080 go test ./tests/
//
// Users are registered on the fly with unique names, so no seed data is
// needed and reruns don't collide.

var baseURL = getEnv("TEST_BASE_URL", "http://localhost:8080")

// ============================================================================
// HTTP Client Helpers
// ============================================================================

type apiClient struct {
	client  *http.Client
	baseURL string
	token   string
}

func newClient() *apiClient {
	return &apiClient{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
	}
}

func (c *apiClient) withToken(token string) *apiClient {
	c.token = token
	return c
}

func (c *apiClient) get(path string) (*http.Response, error) {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}

func (c *apiClient) post(path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}

func (c *apiClient) del(path string) (*http.Response, error) {
	req, err := http.NewRequest("DELETE", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}

func parseJSON(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func skipIfServerDown(t *testing.T) {
	t.Helper()
	resp, err := newClient().get("/health")
	if err != nil {
		t.Skipf("Server not reachable at %s: %v", baseURL, err)
	}
	resp.Body.Close()
}

// ============================================================================
// Account Helpers
// ============================================================================

type account struct {
	ID       int64
	Username string
	Token    string
}

// newAccount registers and logs in a fresh user with a unique username.
func newAccount(t *testing.T, prefix string) account {
	t.Helper()

	username := fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	client := newClient()

	resp, err := client.post("/auth/register", map[string]string{
		"username": username,
		"password": "password123",
	})
	if err != nil {
		t.Fatalf("Register %s: %v", username, err)
	}
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Register %s failed with status %d: %s", username, resp.StatusCode, body)
	}

	var user struct {
		ID int64 `json:"id"`
	}
	if err := parseJSON(resp, &user); err != nil {
		t.Fatalf("Parse register response: %v", err)
	}

	resp, err = client.post("/auth/login", map[string]string{
		"username": username,
		"password": "password123",
	})
	if err != nil {
		t.Fatalf("Login %s: %v", username, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Login %s failed with status %d: %s", username, resp.StatusCode, body)
	}

	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := parseJSON(resp, &login); err != nil {
		t.Fatalf("Parse login response: %v", err)
	}

	return account{ID: user.ID, Username: username, Token: login.AccessToken}
}

func follow(t *testing.T, follower account, followeeID int64) {
	t.Helper()
	resp, err := newClient().withToken(follower.Token).post(fmt.Sprintf("/users/%d/follow", followeeID), nil)
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Follow failed with status %d", resp.StatusCode)
	}
}

func createFreet(t *testing.T, owner account, content string) int64 {
	t.Helper()
	resp, err := newClient().withToken(owner.Token).post("/freets", map[string]string{"content": content})
	if err != nil {
		t.Fatalf("Create freet: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Create freet failed with status %d: %s", resp.StatusCode, body)
	}
	var freet struct {
		ID int64 `json:"id"`
	}
	if err := parseJSON(resp, &freet); err != nil {
		t.Fatalf("Parse freet: %v", err)
	}
	return freet.ID
}

func createAlbum(t *testing.T, owner account, name string) int64 {
	t.Helper()
	resp, err := newClient().withToken(owner.Token).post("/albums", map[string]string{"name": name})
	if err != nil {
		t.Fatalf("Create album: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Create album failed with status %d: %s", resp.StatusCode, body)
	}
	var album struct {
		ID int64 `json:"id"`
	}
	if err := parseJSON(resp, &album); err != nil {
		t.Fatalf("Parse album: %v", err)
	}
	return album.ID
}

func createCircle(t *testing.T, owner account, name string) int64 {
	t.Helper()
	resp, err := newClient().withToken(owner.Token).post("/circles", map[string]string{"name": name})
	if err != nil {
		t.Fatalf("Create circle: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Create circle failed with status %d: %s", resp.StatusCode, body)
	}
	var circle struct {
		ID int64 `json:"id"`
	}
	if err := parseJSON(resp, &circle); err != nil {
		t.Fatalf("Parse circle: %v", err)
	}
	return circle.ID
}

func getAlbumStatus(t *testing.T, viewer account, albumID int64) int {
	t.Helper()
	resp, err := newClient().withToken(viewer.Token).get(fmt.Sprintf("/albums/%d", albumID))
	if err != nil {
		t.Fatalf("Get album: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

// ============================================================================
// TEST CASES
// ============================================================================

// TestAlbumFollowerFallback verifies that an album with no linked circles is
// visible to the owner's current followers and hidden from everyone else.
func TestAlbumFollowerFallback(t *testing.T) {
	skipIfServerDown(t)

	owner := newAccount(t, "vis_owner")
	follower := newAccount(t, "vis_follower")
	stranger := newAccount(t, "vis_stranger")

	follow(t, follower, owner.ID)

	freetID := createFreet(t, owner, "hidden gem")
	albumID := createAlbum(t, owner, fmt.Sprintf("trip_%d", time.Now().UnixNano()))

	resp, err := newClient().withToken(owner.Token).post(
		fmt.Sprintf("/albums/%d/freets", albumID),
		map[string]int64{"freet_id": freetID},
	)
	if err != nil {
		t.Fatalf("Add freet to album: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Add freet to album failed with status %d", resp.StatusCode)
	}

	if status := getAlbumStatus(t, owner, albumID); status != http.StatusOK {
		t.Errorf("Owner: expected 200, got %d", status)
	}
	if status := getAlbumStatus(t, follower, albumID); status != http.StatusOK {
		t.Errorf("Follower: expected 200, got %d", status)
	}
	// Album existence must not leak: strangers get 404, not 403
	if status := getAlbumStatus(t, stranger, albumID); status != http.StatusNotFound {
		t.Errorf("Stranger: expected 404, got %d", status)
	}

	// Follower can read the album's freets
	resp, err = newClient().withToken(follower.Token).get(fmt.Sprintf("/albums/%d/freets", albumID))
	if err != nil {
		t.Fatalf("Get album freets: %v", err)
	}
	var freets struct {
		Freets []struct {
			ID int64 `json:"id"`
		} `json:"freets"`
	}
	if err := parseJSON(resp, &freets); err != nil {
		t.Fatalf("Parse album freets: %v", err)
	}
	if len(freets.Freets) != 1 || freets.Freets[0].ID != freetID {
		t.Errorf("Expected album freets [%d], got %+v", freetID, freets.Freets)
	}

	// And the album shows up in the follower's visible list
	resp, err = newClient().withToken(follower.Token).get("/albums/visible")
	if err != nil {
		t.Fatalf("Get visible albums: %v", err)
	}
	var visible struct {
		Albums []struct {
			ID int64 `json:"id"`
		} `json:"albums"`
	}
	if err := parseJSON(resp, &visible); err != nil {
		t.Fatalf("Parse visible albums: %v", err)
	}
	found := false
	for _, a := range visible.Albums {
		if a.ID == albumID {
			found = true
		}
	}
	if !found {
		t.Errorf("Album %d missing from follower's visible list", albumID)
	}
}

// TestAlbumCircleGating verifies that linking a circle replaces the follower
// fallback entirely: circle members see the album, mere followers no longer do.
func TestAlbumCircleGating(t *testing.T) {
	skipIfServerDown(t)

	owner := newAccount(t, "gate_owner")
	member := newAccount(t, "gate_member") // in the circle, NOT a follower
	follower := newAccount(t, "gate_follower")

	follow(t, follower, owner.ID)

	circleName := fmt.Sprintf("close_friends_%d", time.Now().UnixNano())
	circleID := createCircle(t, owner, circleName)

	resp, err := newClient().withToken(owner.Token).post(
		fmt.Sprintf("/circles/%d/members", circleID),
		map[string]string{"username": member.Username},
	)
	if err != nil {
		t.Fatalf("Add circle member: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Add circle member failed with status %d", resp.StatusCode)
	}

	albumID := createAlbum(t, owner, fmt.Sprintf("inner_%d", time.Now().UnixNano()))

	// Before linking: follower fallback is in effect
	if status := getAlbumStatus(t, follower, albumID); status != http.StatusOK {
		t.Errorf("Follower before link: expected 200, got %d", status)
	}
	if status := getAlbumStatus(t, member, albumID); status != http.StatusNotFound {
		t.Errorf("Member before link: expected 404, got %d", status)
	}

	resp, err = newClient().withToken(owner.Token).post(
		fmt.Sprintf("/albums/%d/circles", albumID),
		map[string]string{"circle_name": circleName},
	)
	if err != nil {
		t.Fatalf("Link circle: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Link circle failed with status %d", resp.StatusCode)
	}

	// After linking: circle members replace followers
	if status := getAlbumStatus(t, member, albumID); status != http.StatusOK {
		t.Errorf("Member after link: expected 200, got %d", status)
	}
	if status := getAlbumStatus(t, follower, albumID); status != http.StatusNotFound {
		t.Errorf("Follower after link: expected 404, got %d", status)
	}

	// Viewer list is owner-only; a viewer asking gets 403 (they can see the
	// album, so 404 would be wrong here)
	resp, err = newClient().withToken(member.Token).get(fmt.Sprintf("/albums/%d/viewers", albumID))
	if err != nil {
		t.Fatalf("Get viewers as member: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Member viewers: expected 403, got %d", resp.StatusCode)
	}

	resp, err = newClient().withToken(owner.Token).get(fmt.Sprintf("/albums/%d/viewers", albumID))
	if err != nil {
		t.Fatalf("Get viewers as owner: %v", err)
	}
	var viewers struct {
		Viewers []struct {
			Username string `json:"username"`
		} `json:"viewers"`
	}
	if err := parseJSON(resp, &viewers); err != nil {
		t.Fatalf("Parse viewers: %v", err)
	}
	names := make(map[string]bool, len(viewers.Viewers))
	for _, v := range viewers.Viewers {
		names[v.Username] = true
	}
	if !names[member.Username] {
		t.Errorf("Expected viewers to include %s, got %v", member.Username, names)
	}
	if names[owner.Username] {
		t.Errorf("Viewer set should not include the owner, got %v", names)
	}
	if names[follower.Username] {
		t.Errorf("Follower %s should not be a viewer of a circle-gated album", follower.Username)
	}
}

// TestCircleEditsResolveLive verifies that membership edits change album
// visibility immediately: nothing is snapshotted at link or creation time.
func TestCircleEditsResolveLive(t *testing.T) {
	skipIfServerDown(t)

	owner := newAccount(t, "live_owner")
	member := newAccount(t, "live_member")

	circleName := fmt.Sprintf("revolving_%d", time.Now().UnixNano())
	circleID := createCircle(t, owner, circleName)
	albumID := createAlbum(t, owner, fmt.Sprintf("live_%d", time.Now().UnixNano()))

	resp, err := newClient().withToken(owner.Token).post(
		fmt.Sprintf("/albums/%d/circles", albumID),
		map[string]string{"circle_name": circleName},
	)
	if err != nil {
		t.Fatalf("Link circle: %v", err)
	}
	resp.Body.Close()

	// Added after the album was created and the circle linked
	resp, err = newClient().withToken(owner.Token).post(
		fmt.Sprintf("/circles/%d/members", circleID),
		map[string]string{"username": member.Username},
	)
	if err != nil {
		t.Fatalf("Add member: %v", err)
	}
	resp.Body.Close()

	if status := getAlbumStatus(t, member, albumID); status != http.StatusOK {
		t.Errorf("Member after add: expected 200, got %d", status)
	}

	// Removed again: access revoked on the next request
	resp, err = newClient().withToken(owner.Token).del(
		fmt.Sprintf("/circles/%d/members/%s", circleID, member.Username),
	)
	if err != nil {
		t.Fatalf("Remove member: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Remove member failed with status %d", resp.StatusCode)
	}

	if status := getAlbumStatus(t, member, albumID); status != http.StatusNotFound {
		t.Errorf("Member after remove: expected 404, got %d", status)
	}
}
