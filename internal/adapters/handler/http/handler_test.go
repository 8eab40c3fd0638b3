package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/voteportal/internal/adapters/credentials"
	"github.com/vncsmyrnk/voteportal/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/voteportal/internal/adapters/session"
	"github.com/vncsmyrnk/voteportal/internal/adapters/spreadsheet"
	"github.com/vncsmyrnk/voteportal/internal/core/domain"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
	"github.com/vncsmyrnk/voteportal/internal/core/services"
)

// idleScheduler never runs anything.
type idleScheduler struct{}

func (idleScheduler) AfterFunc(time.Duration, func()) {}

type testApp struct {
	server *httptest.Server
	portal *services.Portal
}

func setupTestApp(t *testing.T) *testApp {
	return setupTestAppWith(t, services.PortalConfig{})
}

func setupTestAppWith(t *testing.T, cfg services.PortalConfig) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := services.NewStore(memory.NewKVRepository(nil), logger)
	cfg.Scheduler = idleScheduler{}
	cfg.Logger = logger
	portal := services.NewPortal(services.NewRecords(store), credentials.NewDefaultVerifier(), session.NewMemory, cfg)
	handler := NewHandler(portal, NewTabTokens("test-secret", time.Hour), HandlerConfig{AllowedOrigins: []string{"*"}}, logger)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &testApp{server: server, portal: portal}
}

// tabClient is one browser tab: its own cookie jar.
type tabClient struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (app *testApp) newTab(t *testing.T) *tabClient {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &tabClient{t: t, base: app.server.URL + "/api", client: &http.Client{Jar: jar}}
}

func (c *tabClient) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, r)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (c *tabClient) upload(path, filename, content string) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(c.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	resp, err := c.client.Post(c.base+path, mw.FormDataContentType(), &buf)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (c *tabClient) loginAdmin() {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/auth/admin", map[string]string{"username": "admin", "password": "admin123"})
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
}

func TestViewAndLogin(t *testing.T) {
	app := setupTestApp(t)
	tab := app.newTab(t)

	resp := tab.do(http.MethodGet, "/view", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[viewResponse](t, resp)
	assert.Equal(t, domain.ScreenLanding, view.Screen)
	require.NotEmpty(t, view.Tab)

	resp = tab.do(http.MethodPost, "/view/login", nil)
	assert.Equal(t, domain.ScreenLogin, decode[viewResponse](t, resp).Screen)

	resp = tab.do(http.MethodPost, "/auth/admin", map[string]string{"username": "admin", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid admin credentials!", decode[errorResponse](t, resp).Error)

	resp = tab.do(http.MethodPost, "/auth/admin", map[string]string{"username": "admin", "password": "admin123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[viewResponse](t, resp)
	assert.Equal(t, domain.ScreenAdmin, view.Screen)
	assert.Equal(t, "admin", view.Identity)

	other := app.newTab(t)
	otherView := decode[viewResponse](t, other.do(http.MethodGet, "/view", nil))
	assert.NotEqual(t, view.Tab, otherView.Tab)
	assert.Empty(t, otherView.Identity)

	resp = tab.do(http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, domain.ScreenLanding, decode[viewResponse](t, resp).Screen)
}

func TestInvalidTabTokenOpensNewTab(t *testing.T) {
	app := setupTestApp(t)

	req, err := http.NewRequest(http.MethodGet, app.server.URL+"/api/view", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: TabCookieName, Value: "garbage"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fresh *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == TabCookieName {
			fresh = c
		}
	}
	require.NotNil(t, fresh)

	id, err := NewTabTokens("test-secret", time.Hour).Parse(fresh.Value)
	require.NoError(t, err)
	_, err = app.portal.Tab(id)
	assert.NoError(t, err)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	app := setupTestApp(t)
	tab := app.newTab(t)

	resp := tab.do(http.MethodGet, "/admin/elections", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = tab.do(http.MethodGet, "/ballot", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminCRUD(t *testing.T) {
	app := setupTestApp(t)
	admin := app.newTab(t)
	admin.loginAdmin()

	resp := admin.do(http.MethodPost, "/admin/elections", map[string]string{"id": "E1", "name": "Head Boy", "date": "2024-02-01", "status": "Active"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = admin.do(http.MethodPost, "/admin/elections", map[string]string{"id": "E2", "name": "", "date": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = admin.do(http.MethodPost, "/admin/candidates", map[string]string{"name": "Bob", "designation": "President"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "E1", decode[domain.Candidate](t, resp).ElectionID)

	rows := decode[[]ports.CandidateRow](t, admin.do(http.MethodGet, "/admin/candidates", nil))
	require.Len(t, rows, 1)
	assert.Equal(t, "Head Boy", rows[0].ElectionName)

	resp = admin.do(http.MethodPost, "/admin/voters", map[string]string{"name": "ALICE", "class": "5A", "color": "RED"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "V001", decode[domain.Voter](t, resp).UID)

	resp = admin.do(http.MethodDelete, "/admin/elections/E1", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, decode[[]ports.CandidateRow](t, admin.do(http.MethodGet, "/admin/candidates", nil)))

	resp = admin.do(http.MethodDelete, "/admin/elections/E1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = admin.do(http.MethodDelete, "/admin/candidates/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = admin.do(http.MethodDelete, "/admin/voters/V001", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, decode[[]domain.Voter](t, admin.do(http.MethodGet, "/admin/voters", nil)))
}

func TestBallotFlow(t *testing.T) {
	app := setupTestApp(t)
	admin := app.newTab(t)
	admin.loginAdmin()
	admin.do(http.MethodPost, "/admin/elections", map[string]string{"id": "E1", "name": "Head Boy", "date": "d", "status": "Active"})
	admin.do(http.MethodPost, "/admin/candidates", map[string]string{"electionID": "E1", "name": "Bob", "designation": "President"})
	admin.do(http.MethodPost, "/admin/voters", map[string]string{"name": "ALICE", "class": "5A", "color": "RED"})

	voter := app.newTab(t)
	resp := voter.do(http.MethodPost, "/auth/voter", map[string]string{"uid": "v009"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid Voter UID!", decode[errorResponse](t, resp).Error)

	voter.do(http.MethodPost, "/view/login", nil)
	resp = voter.do(http.MethodPost, "/auth/voter", map[string]string{"uid": " v001 "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[viewResponse](t, resp)
	assert.Equal(t, domain.ScreenVoter, view.Screen)
	assert.Equal(t, "V001", view.Identity)

	state := decode[services.BoothState](t, voter.do(http.MethodGet, "/ballot", nil))
	assert.Equal(t, "E1", state.SelectedElection)
	require.Len(t, state.Candidates, 1)

	resp = voter.do(http.MethodPost, "/ballot/submit", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Please select a candidate to vote.", decode[errorResponse](t, resp).Message)

	resp = voter.do(http.MethodPut, "/ballot/candidate", map[string]string{"choice": "Bob|President"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = voter.do(http.MethodPost, "/ballot/submit", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	state = decode[services.BoothState](t, resp)
	assert.True(t, state.HasVoted)
	assert.Contains(t, state.Message, "Vote submitted successfully!")

	resp = voter.do(http.MethodPost, "/ballot/submit", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "You have already voted in this election!", decode[errorResponse](t, resp).Message)

	resp = voter.do(http.MethodPut, "/ballot/election", map[string]string{"election_id": "E404"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRosterImportExport(t *testing.T) {
	app := setupTestApp(t)
	admin := app.newTab(t)
	admin.loginAdmin()

	resp := admin.upload("/admin/voters/import", "voters.csv", "student,class,house color\nAlice,5A,Red\n")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing 'name' or 'house color' column!", decode[errorResponse](t, resp).Message)

	resp = admin.upload("/admin/voters/import", "voters.pdf", "whatever")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Failed to process file.", decode[errorResponse](t, resp).Message)
	status := decode[statusResponse](t, admin.do(http.MethodGet, "/admin/status", nil))
	assert.Equal(t, "Failed to process file.", status.VoterImport)

	resp = admin.upload("/admin/users/import", "users.txt", "whatever")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	status = decode[statusResponse](t, admin.do(http.MethodGet, "/admin/status", nil))
	assert.Equal(t, "Failed to process file.", status.UserImport)

	resp = admin.upload("/admin/voters/import", "voters.csv", "Name,Class,House Color\nAlice,5A,Red\nBob,5B,Blue\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[importResponse](t, resp)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, "Import successful!", result.Message)

	status = decode[statusResponse](t, admin.do(http.MethodGet, "/admin/status", nil))
	assert.Equal(t, "Import successful!", status.VoterImport)

	resp = admin.do(http.MethodGet, "/admin/voters/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="voter_list.xlsx"`)
	table, err := spreadsheet.NewXLSX().Read(resp.Body)
	require.NoError(t, err)
	require.Len(t, table, 3)
	assert.Equal(t, []string{"UID", "Name", "Class", "House Color"}, table[0])
	assert.Equal(t, "Alice", table[1][1])

	resp = admin.do(http.MethodGet, "/admin/voters/export?format=csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="voter_list.csv"`)
}

func TestUserImport(t *testing.T) {
	app := setupTestApp(t)
	admin := app.newTab(t)
	admin.loginAdmin()
	admin.upload("/admin/voters/import", "voters.csv", "name,class,house color\nAlice Smith,5A,Red\n")

	resp := admin.upload("/admin/users/import", "users.csv", "name,color\nalice smith,red\nBob Jones,blue\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	type usersBody struct {
		Users   []domain.GeneratedUser `json:"users"`
		Message string                 `json:"message"`
	}
	body := decode[usersBody](t, resp)
	require.Len(t, body.Users, 2)
	assert.Equal(t, "V001", body.Users[0].ID)
	assert.Equal(t, "ALICE@123R", body.Users[0].Password)
	assert.Equal(t, "U002", body.Users[1].ID)

	body = decode[usersBody](t, admin.do(http.MethodGet, "/admin/users?filter=blue", nil))
	require.Len(t, body.Users, 1)
	assert.Equal(t, "BOB JONES", body.Users[0].Name)

	resp = admin.do(http.MethodGet, "/admin/users/export?format=csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="users_export.csv"`)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "User ID,Name,House Color,Password\nU002,BOB JONES,BLUE,BOB@123B\n", string(raw))

	other := app.newTab(t)
	other.loginAdmin()
	body = decode[usersBody](t, other.do(http.MethodGet, "/admin/users", nil))
	assert.Empty(t, body.Users, "generated users stay in the importing tab")
}

// eventStream reads server-sent events from an open response.
type eventStream struct {
	t      *testing.T
	reader *bufio.Reader
}

func (c *tabClient) openEvents(ctx context.Context) *eventStream {
	c.t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/events", nil)
	require.NoError(c.t, err)
	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	assert.Equal(c.t, "text/event-stream", resp.Header.Get("Content-Type"))

	stream := &eventStream{t: c.t, reader: bufio.NewReader(resp.Body)}
	name, _ := stream.next()
	require.Equal(c.t, "connected", name)
	return stream
}

func (s *eventStream) next() (string, string) {
	s.t.Helper()
	var name, data string
	for {
		line, err := s.reader.ReadString('\n')
		require.NoError(s.t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestEventsStream(t *testing.T) {
	app := setupTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := app.newTab(t).openEvents(ctx)

	_, err := app.portal.Admin.AddElection(context.Background(), ports.AddElectionInput{ID: "E1", Name: "Head Boy", Date: "d"})
	require.NoError(t, err)

	name, data := stream.next()
	assert.Equal(t, domain.KeyElections, name)
	var elections []domain.Election
	require.NoError(t, json.Unmarshal([]byte(data), &elections))
	require.Len(t, elections, 1)
	assert.Equal(t, "E1", elections[0].ID)
}

func TestEventsStreamHidesRosterFromNonAdmins(t *testing.T) {
	app := setupTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	admin := app.newTab(t)
	admin.loginAdmin()
	admin.do(http.MethodPost, "/admin/voters", map[string]string{"name": "ALICE", "class": "5A", "color": "RED"})

	voter := app.newTab(t)
	resp := voter.do(http.MethodPost, "/auth/voter", map[string]string{"uid": "V001"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	anonymous := app.newTab(t).openEvents(ctx)
	voterStream := voter.openEvents(ctx)
	adminStream := admin.openEvents(ctx)

	resp = admin.do(http.MethodPost, "/admin/voters", map[string]string{"name": "BOB", "class": "5B", "color": "BLUE"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = admin.do(http.MethodPost, "/admin/elections", map[string]string{"id": "E1", "name": "Head Boy", "date": "d"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	name, data := adminStream.next()
	assert.Equal(t, domain.KeyVoters, name)
	assert.Contains(t, data, "V002")
	name, _ = adminStream.next()
	assert.Equal(t, domain.KeyElections, name)

	for _, stream := range []*eventStream{anonymous, voterStream} {
		name, data := stream.next()
		assert.Equal(t, domain.KeyElections, name, "roster changes are skipped")
		assert.NotContains(t, data, "V00")
	}
}

func TestCookielessClientsShareTabQuota(t *testing.T) {
	app := setupTestAppWith(t, services.PortalConfig{MaxTabsPerClient: 2})
	tokens := NewTabTokens("test-secret", time.Hour)

	var ids []string
	for n := 0; n < 3; n++ {
		resp, err := http.Get(app.server.URL + "/api/view")
		require.NoError(t, err)
		var view viewResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
		resp.Body.Close()
		ids = append(ids, view.Tab)

		var cookie string
		for _, c := range resp.Cookies() {
			if c.Name == TabCookieName {
				cookie = c.Value
			}
		}
		id, err := tokens.Parse(cookie)
		require.NoError(t, err)
		assert.Equal(t, view.Tab, id)
	}

	_, err := app.portal.Tab(ids[0])
	assert.ErrorIs(t, err, domain.ErrTabNotFound)
	for _, id := range ids[1:] {
		_, err := app.portal.Tab(id)
		assert.NoError(t, err)
	}
}
