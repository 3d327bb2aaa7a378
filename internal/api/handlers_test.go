package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosan/sanitrack/internal/consent"
	"github.com/ecosan/sanitrack/internal/domain"
	"github.com/ecosan/sanitrack/internal/service/client"
)

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

// memClientRepo is an in-memory client.Repository for handler tests.
type memClientRepo struct {
	mu      sync.Mutex
	records map[string]domain.Client
	seq     int
}

func newMemClientRepo() *memClientRepo {
	return &memClientRepo{records: make(map[string]domain.Client)}
}

func (r *memClientRepo) ListActive(context.Context) ([]domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Client
	for _, c := range r.records {
		if c.Active {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memClientRepo) Insert(_ context.Context, c *domain.Client) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *c
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	r.seq++
	stored.CreatedAt = testNow.Add(time.Duration(r.seq) * time.Second)
	stored.UpdatedAt = stored.CreatedAt
	r.records[stored.ID] = stored
	return &stored, nil
}

func (r *memClientRepo) Update(_ context.Context, id string, u client.UpdateFields) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.records[id]
	if !ok || !c.Active {
		return nil, client.ErrNotFound
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.Phone != nil {
		c.Phone = *u.Phone
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.DurationDays != nil {
		c.DurationDays = *u.DurationDays
	}
	if u.Progress != nil {
		c.Progress = *u.Progress
	}
	r.records[id] = c
	return &c, nil
}

func (r *memClientRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.records[id]
	if !ok || !c.Active {
		return client.ErrNotFound
	}
	c.Active = false
	r.records[id] = c
	return nil
}

func (r *memClientRepo) CountActive(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.records {
		if c.Active {
			n++
		}
	}
	return n, nil
}

type fakeUploader struct {
	key string
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ []byte) (string, error) {
	f.key = key
	return "https://store.example/" + key, nil
}

func setupTestServer(t *testing.T) (http.Handler, *memClientRepo, *client.Store) {
	t.Helper()
	repo := newMemClientRepo()
	store := client.NewStoreWithOptions(repo, nil, client.StoreOptions{
		Clock: func() time.Time { return testNow },
	})
	require.NoError(t, store.Load(context.Background()))

	h := NewHandlers(store)
	h.SetActiveCounter(repo)
	h.SetConsentService(consent.NewService(&fakeUploader{}, "consent/"))

	router := SetupRoutes(h, nil, nil, []string{"http://localhost:5173"})
	return router, repo, store
}

func seedClient(t *testing.T, repo *memClientRepo, name, email string, startDaysAgo, duration int) domain.Client {
	t.Helper()
	c, err := repo.Insert(context.Background(), &domain.Client{
		Name:         name,
		Email:        email,
		Phone:        "555-0101",
		Status:       domain.StatusActive,
		StartDate:    testNow.AddDate(0, 0, -startDaysAgo).Truncate(24 * time.Hour),
		DurationDays: duration,
		Active:       true,
	})
	require.NoError(t, err)
	return *c
}

func signaturePayload(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(5, 5, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestListClientsDerivedFields(t *testing.T) {
	router, repo, store := setupTestServer(t)
	seedClient(t, repo, "Maria Gomez", "maria@example.com", 15, 30)
	require.NoError(t, store.Load(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/api/clients/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Clients []clientView `json:"clients"`
		Total   int          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)

	v := resp.Clients[0]
	assert.Equal(t, 15, v.ElapsedDays)
	assert.Equal(t, 50, v.Progress)
	assert.Equal(t, 15, v.RemainingDays)
	assert.Equal(t, 15, v.DaysUntilExpiry)
}

func TestListClientsFiltered(t *testing.T) {
	router, repo, store := setupTestServer(t)
	seedClient(t, repo, "Maria Gomez", "maria@example.com", 5, 30)
	seedClient(t, repo, "Carlos Ruiz", "carlos@example.com", 5, 30)
	require.NoError(t, store.Load(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/api/clients/?search=mar", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestCreateClient(t *testing.T) {
	router, _, _ := setupTestServer(t)

	body := bytes.NewBufferString(`{"name":"Pedro Martinez","email":"pedro@example.com","phone":"555-0102","duration_days":45}`)
	req := httptest.NewRequest(http.MethodPost, "/api/clients/", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var v clientView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "Pedro Martinez", v.Name)
	assert.Equal(t, domain.StatusActive, v.Status)
	assert.Equal(t, 0, v.Progress)
	assert.NotEmpty(t, v.ID)
}

func TestCreateClientValidation(t *testing.T) {
	router, _, _ := setupTestServer(t)

	cases := []string{
		`{"email":"x@example.com","phone":"1","duration_days":30}`, // missing name
		`{"name":"X","email":"x@example.com","phone":"1"}`,         // missing duration
		`{"name":"X","email":"x@example.com","phone":"1","duration_days":-5}`,
		`not json`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/clients/", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestUpdateClient(t *testing.T) {
	router, repo, store := setupTestServer(t)
	c := seedClient(t, repo, "Maria Gomez", "maria@example.com", 5, 30)
	require.NoError(t, store.Load(context.Background()))

	body := bytes.NewBufferString(`{"name":"Maria G. Lopez","status":"in_progress"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/clients/"+c.ID, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var v clientView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "Maria G. Lopez", v.Name)
	assert.Equal(t, domain.StatusInProgress, v.Status)
}

func TestUpdateClientNotFound(t *testing.T) {
	router, _, _ := setupTestServer(t)

	body := bytes.NewBufferString(`{"name":"X"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/clients/"+uuid.New().String(), body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteClient(t *testing.T) {
	router, repo, store := setupTestServer(t)
	c := seedClient(t, repo, "Maria Gomez", "maria@example.com", 5, 30)
	require.NoError(t, store.Load(context.Background()))

	req := httptest.NewRequest(http.MethodDelete, "/api/clients/"+c.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Gone from the listing.
	req = httptest.NewRequest(http.MethodGet, "/api/clients/"+c.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAlerts(t *testing.T) {
	router, repo, store := setupTestServer(t)
	// Expires in 10 days: inside the alert window.
	seedClient(t, repo, "Maria Gomez", "maria@example.com", 20, 30)
	// Expires in 40 days: outside.
	seedClient(t, repo, "Carlos Ruiz", "carlos@example.com", 20, 60)
	require.NoError(t, store.Load(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var view client.AlertView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, 1, view.Total)
	assert.Equal(t, "Maria Gomez", view.Top[0].Name)
	assert.Equal(t, 10, view.Top[0].DaysLeft)
}

func TestGetDashboard(t *testing.T) {
	router, repo, store := setupTestServer(t)
	seedClient(t, repo, "Maria Gomez", "maria@example.com", 5, 30)
	seedClient(t, repo, "Carlos Ruiz", "carlos@example.com", 5, 30)
	require.NoError(t, store.Load(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ActiveCount int          `json:"active_count"`
		Stats       client.Stats `json:"stats"`
		Loaded      bool         `json:"loaded"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.ActiveCount)
	assert.Equal(t, 2, resp.Stats.Total)
	assert.True(t, resp.Loaded)
}

func TestSignConsentJSON(t *testing.T) {
	router, _, _ := setupTestServer(t)

	payload := map[string]string{
		"name":      "Maria Gomez",
		"signature": signaturePayload(t),
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/consent", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var receipt consent.Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, "Maria Gomez", receipt.ClientName)
	assert.Contains(t, receipt.URL, receipt.Key)
}

func TestSignConsentMissingSignature(t *testing.T) {
	router, _, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/consent", bytes.NewBufferString(`{"name":"Maria"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthLiveness(t *testing.T) {
	repo := newMemClientRepo()
	store := client.NewStoreWithOptions(repo, nil, client.StoreOptions{
		Clock: func() time.Time { return testNow },
	})
	require.NoError(t, store.Load(context.Background()))

	hc := NewHealthChecker(nil, nil, nil, "", store)
	h := NewHandlers(store)
	router := SetupRoutes(h, hc, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
