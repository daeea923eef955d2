package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hsinyuc/linecast/internal/domain/group"
	"github.com/hsinyuc/linecast/internal/domain/message"
	"github.com/hsinyuc/linecast/internal/domain/settings"
	"github.com/hsinyuc/linecast/internal/domain/template"
	pg "github.com/hsinyuc/linecast/internal/repository/postgres"
)

type memMessages struct {
	byID map[uuid.UUID]*message.Message
}

func newMemMessages() *memMessages { return &memMessages{byID: map[uuid.UUID]*message.Message{}} }

func (r *memMessages) Create(_ context.Context, m *message.Message) error {
	r.byID[m.ID] = m
	return nil
}

func (r *memMessages) GetByID(_ context.Context, id uuid.UUID) (*message.Message, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, pg.ErrNotFound
	}
	return m, nil
}

func (r *memMessages) List(_ context.Context) ([]*message.Message, error) {
	var out []*message.Message
	for _, m := range r.byID {
		out = append(out, m)
	}
	return out, nil
}

func (r *memMessages) Update(_ context.Context, m *message.Message) error {
	if _, ok := r.byID[m.ID]; !ok {
		return pg.ErrNotFound
	}
	r.byID[m.ID] = m
	return nil
}

func (r *memMessages) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return pg.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memMessages) ListPending(context.Context) ([]*message.Message, error) { return nil, nil }

func (r *memMessages) MarkDelivered(context.Context, uuid.UUID, time.Time) error { return nil }

func (r *memMessages) SetStatus(context.Context, uuid.UUID, message.Status) error { return nil }

type memGroups struct {
	byID map[uuid.UUID]*group.Group
}

func newMemGroups() *memGroups { return &memGroups{byID: map[uuid.UUID]*group.Group{}} }

func (r *memGroups) Create(_ context.Context, g *group.Group) error {
	for _, have := range r.byID {
		if have.ChannelID == g.ChannelID {
			return pg.ErrConflict
		}
	}
	r.byID[g.ID] = g
	return nil
}

func (r *memGroups) GetByID(_ context.Context, id uuid.UUID) (*group.Group, error) {
	g, ok := r.byID[id]
	if !ok {
		return nil, pg.ErrNotFound
	}
	return g, nil
}

func (r *memGroups) List(_ context.Context) ([]*group.Group, error) {
	var out []*group.Group
	for _, g := range r.byID {
		out = append(out, g)
	}
	return out, nil
}

func (r *memGroups) Update(_ context.Context, g *group.Group) error {
	if _, ok := r.byID[g.ID]; !ok {
		return pg.ErrNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *memGroups) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return pg.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type memTemplates struct {
	byID map[uuid.UUID]*template.Template
}

func newMemTemplates() *memTemplates {
	return &memTemplates{byID: map[uuid.UUID]*template.Template{}}
}

func (r *memTemplates) Create(_ context.Context, t *template.Template) error {
	r.byID[t.ID] = t
	return nil
}

func (r *memTemplates) GetByID(_ context.Context, id uuid.UUID) (*template.Template, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, pg.ErrNotFound
	}
	return t, nil
}

func (r *memTemplates) List(_ context.Context) ([]*template.Template, error) {
	var out []*template.Template
	for _, t := range r.byID {
		out = append(out, t)
	}
	return out, nil
}

func (r *memTemplates) Update(_ context.Context, t *template.Template) error {
	if _, ok := r.byID[t.ID]; !ok {
		return pg.ErrNotFound
	}
	r.byID[t.ID] = t
	return nil
}

func (r *memTemplates) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return pg.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type memSettings struct {
	s settings.Settings
}

func (r *memSettings) Get(context.Context) (*settings.Settings, error) {
	cp := r.s
	return &cp, nil
}

func (r *memSettings) Put(_ context.Context, s *settings.Settings) error {
	r.s = *s
	r.s.UpdatedAt = time.Now()
	return nil
}

type env struct {
	router    *gin.Engine
	messages  *memMessages
	groups    *memGroups
	templates *memTemplates
	settings  *memSettings
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)

	e := &env{
		messages:  newMemMessages(),
		groups:    newMemGroups(),
		templates: newMemTemplates(),
		settings:  &memSettings{},
	}
	e.router = NewRouter(log,
		NewMessageHandler(e.messages, loc, log),
		NewGroupHandler(e.groups, log),
		NewTemplateHandler(e.templates, log),
		NewSettingsHandler(e.settings, log),
	)
	return e
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCreateMessage(t *testing.T) {
	e := newEnv(t)
	gid := uuid.New()

	w := e.do(t, http.MethodPost, "/api/messages", `{
		"title": "monthly invoice",
		"body": "已收到款項。",
		"group_ids": ["`+gid.String()+`"],
		"currency": "TWD",
		"amount": "5000",
		"kind": "periodic",
		"period": "monthly",
		"scheduled_at": "2024-03-01 09:00"
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var got message.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, message.KindPeriodic, got.Kind)
	assert.Equal(t, message.PeriodMonthly, got.Period)
	assert.Equal(t, message.StatusScheduled, got.Status)
	assert.True(t, got.Active, "periodic messages default to active")
	require.NotNil(t, got.ScheduledAt)

	stored, err := e.messages.GetByID(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Equal(t, "monthly invoice", stored.Title)
}

func TestCreateMessage_Validation(t *testing.T) {
	e := newEnv(t)
	gid := uuid.New().String()

	cases := map[string]string{
		"missing title": `{"body":"b","group_ids":["` + gid + `"],"kind":"single","scheduled_at":"2024-03-01 09:00"}`,
		"empty targets": `{"title":"t","body":"b","group_ids":[],"kind":"single","scheduled_at":"2024-03-01 09:00"}`,
		"bad kind":      `{"title":"t","body":"b","group_ids":["` + gid + `"],"kind":"hourly","scheduled_at":"2024-03-01 09:00"}`,
		"bad currency":  `{"title":"t","body":"b","group_ids":["` + gid + `"],"kind":"single","currency":"EUR","amount":"5","scheduled_at":"2024-03-01 09:00"}`,
		"text amount":   `{"title":"t","body":"b","group_ids":["` + gid + `"],"kind":"single","currency":"TWD","amount":"five","scheduled_at":"2024-03-01 09:00"}`,
		"periodic without period": `{"title":"t","body":"b","group_ids":["` + gid + `"],
			"kind":"periodic","scheduled_at":"2024-03-01 09:00"}`,
		"currency without amount": `{"title":"t","body":"b","group_ids":["` + gid + `"],
			"kind":"single","currency":"TWD","scheduled_at":"2024-03-01 09:00"}`,
		"bad timestamp": `{"title":"t","body":"b","group_ids":["` + gid + `"],"kind":"single","scheduled_at":"tomorrow"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/api/messages", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestGetMessage_NotFound(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/messages/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/api/messages/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateMessage_ReArmsStatus(t *testing.T) {
	e := newEnv(t)
	id := uuid.New()
	e.messages.byID[id] = &message.Message{
		ID:       id,
		Title:    "old",
		Body:     "old",
		GroupIDs: []uuid.UUID{uuid.New()},
		Kind:     message.KindSingle,
		Status:   message.StatusFailed,
	}

	gid := uuid.New()
	w := e.do(t, http.MethodPut, "/api/messages/"+id.String(), `{
		"title": "fixed",
		"body": "fixed body",
		"group_ids": ["`+gid.String()+`"],
		"kind": "single",
		"scheduled_at": "2024-04-01T09:00:00+08:00"
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored := e.messages.byID[id]
	assert.Equal(t, "fixed", stored.Title)
	assert.Equal(t, message.StatusScheduled, stored.Status)
}

func TestDeleteMessage(t *testing.T) {
	e := newEnv(t)
	id := uuid.New()
	e.messages.byID[id] = &message.Message{ID: id, Kind: message.KindSingle}

	w := e.do(t, http.MethodDelete, "/api/messages/"+id.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodDelete, "/api/messages/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupCRUD(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/groups", `{"name":"ops","channel_id":"Cdeadbeef"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var g group.Group
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	assert.Equal(t, "ops", g.Name)
	assert.Equal(t, "Cdeadbeef", g.ChannelID)

	w = e.do(t, http.MethodGet, "/api/groups/"+g.ID.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPut, "/api/groups/"+g.ID.String(), `{"name":"ops2","channel_id":"Cdeadbeef"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops2", e.groups.byID[g.ID].Name)

	w = e.do(t, http.MethodPost, "/api/groups", `{"name":"no channel"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/groups", `{"name":"dup","channel_id":"Cdeadbeef"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTemplateCRUD(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/templates", `{"title":"receipt","body":"已收到款項。"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tpl template.Template
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tpl))

	w = e.do(t, http.MethodGet, "/api/templates", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodDelete, "/api/templates/"+tpl.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodGet, "/api/templates/"+tpl.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var before map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &before))
	assert.Equal(t, false, before["configured"])

	w = e.do(t, http.MethodPut, "/api/settings", `{"channel_token":"tok-1234567890","channel_secret":"sh"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var after map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	assert.Equal(t, true, after["configured"])

	masked, _ := after["channel_token"].(string)
	assert.True(t, strings.HasSuffix(masked, "7890"))
	assert.NotContains(t, masked, "tok-123456")

	w = e.do(t, http.MethodPut, "/api/settings", `{"channel_secret":"only"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
