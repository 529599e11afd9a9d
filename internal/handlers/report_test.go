package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pinmov/atlas-server/internal/auth"
	"github.com/pinmov/atlas-server/internal/models"
)

type fakeReportStore struct {
	reports   []models.Report
	listErr   error
	byID      map[uuid.UUID]*models.Report
	created   []*models.CreateReportRequest
	createErr error
	updated   *models.Report
	updateErr error
}

func (f *fakeReportStore) List(ctx context.Context) ([]models.Report, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.reports, nil
}

func (f *fakeReportStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	if r, ok := f.byID[id]; ok {
		return r, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeReportStore) Create(ctx context.Context, ownerID uuid.UUID, req *models.CreateReportRequest) (*models.Report, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &models.Report{
		ID:       uuid.New(),
		Title:    req.Title,
		Lat:      *req.Lat,
		Lng:      *req.Lng,
		Severity: req.Priority,
		Status:   models.StatusSubmitted,
		UserID:   &ownerID,
	}, nil
}

func (f *fakeReportStore) Update(ctx context.Context, id uuid.UUID, req *models.UpdateReportRequest) (*models.Report, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updated, nil
}

type fakeUserStore struct {
	ensured []models.Identity
	err     error
}

func (f *fakeUserStore) Ensure(ctx context.Context, identity models.Identity) error {
	if f.err != nil {
		return f.err
	}
	f.ensured = append(f.ensured, identity)
	return nil
}

type fakeActivityStore struct {
	logged []*models.ActivityEntry
}

func (f *fakeActivityStore) Log(ctx context.Context, entry *models.ActivityEntry) error {
	f.logged = append(f.logged, entry)
	return nil
}

func (f *fakeActivityStore) ListByReport(ctx context.Context, reportID uuid.UUID, limit int) ([]models.ActivityEntry, error) {
	return nil, nil
}

func (f *fakeActivityStore) ListRecent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	return nil, nil
}

func newTestRouter(rs *fakeReportStore, us *fakeUserStore, as *fakeActivityStore) chi.Router {
	h := NewReportHandler(rs, us, as, zap.NewNop().Sugar())
	r := chi.NewRouter()
	r.Get("/report", h.List)
	r.Post("/report", h.Create)
	r.Patch("/report/{id}", h.Update)
	return r
}

func identityRequest(method, target string, body []byte, identity models.Identity) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(auth.WithIdentity(req.Context(), identity))
}

func TestListReports(t *testing.T) {
	t.Parallel()

	name := "Ada"
	store := &fakeReportStore{reports: []models.Report{
		{ID: uuid.New(), Title: "Pothole on Via Roma", Severity: models.SeverityUrgent, Name: &name},
		{ID: uuid.New(), Title: "Blocked ramp", Severity: models.SeverityLow},
	}}
	router := newTestRouter(store, &fakeUserStore{}, &fakeActivityStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, identityRequest(http.MethodGet, "/report", nil, models.Identity{ID: uuid.New()}))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Pothole on Via Roma", got[0].Title)
	require.NotNil(t, got[0].Name)
	assert.Equal(t, "Ada", *got[0].Name)
}

func TestListReportsStorageFailureIsGeneric(t *testing.T) {
	t.Parallel()

	store := &fakeReportStore{listErr: models.ErrStorage}
	router := newTestRouter(store, &fakeUserStore{}, &fakeActivityStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, identityRequest(http.MethodGet, "/report", nil, models.Identity{ID: uuid.New()}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}

func TestCreateReportWithoutIdentity(t *testing.T) {
	t.Parallel()

	store := &fakeReportStore{}
	router := newTestRouter(store, &fakeUserStore{}, &fakeActivityStore{})

	body := []byte(`{"title":"Pothole","lat":43.7,"lng":10.4,"priority":"medium"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/report", bytes.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, store.created, "no insert may happen without an identity")
}

func TestCreateReportMissingLat(t *testing.T) {
	t.Parallel()

	store := &fakeReportStore{}
	users := &fakeUserStore{}
	router := newTestRouter(store, users, &fakeActivityStore{})

	body := []byte(`{"title":"Pothole","lng":10.4,"priority":"medium"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, identityRequest(http.MethodPost, "/report", body, models.Identity{ID: uuid.New()}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.created, "validation must fail before the insert")
	assert.Empty(t, users.ensured)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, false, envelope["success"])
}

func TestCreateReport(t *testing.T) {
	t.Parallel()

	store := &fakeReportStore{}
	users := &fakeUserStore{}
	router := newTestRouter(store, users, &fakeActivityStore{})
	identity := models.Identity{ID: uuid.New(), Email: "ada@example.com", Name: "Ada"}

	body := []byte(`{"title":"Pothole","description":"deep one","lat":43.723,"lng":10.3966,"priority":"urgent"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, identityRequest(http.MethodPost, "/report", body, identity))

	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, users.ensured, 1)
	assert.Equal(t, identity, users.ensured[0])

	require.Len(t, store.created, 1)
	assert.Equal(t, models.SeverityUrgent, store.created[0].Priority)
	assert.Equal(t, 43.723, *store.created[0].Lat)

	var envelope struct {
		Success bool          `json:"success"`
		Data    models.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "Pothole", envelope.Data.Title)
	require.NotNil(t, envelope.Data.UserID)
	assert.Equal(t, identity.ID, *envelope.Data.UserID)
}

func TestUpdateReportNotFound(t *testing.T) {
	t.Parallel()

	store := &fakeReportStore{byID: map[uuid.UUID]*models.Report{}}
	router := newTestRouter(store, &fakeUserStore{}, &fakeActivityStore{})

	body := []byte(`{"status":"resolved"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, identityRequest(http.MethodPatch, "/report/"+uuid.NewString(), body, models.Identity{ID: uuid.New()}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateReportLogsActivity(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := &fakeReportStore{
		byID: map[uuid.UUID]*models.Report{
			id: {ID: id, Title: "Pothole", Status: models.StatusSubmitted},
		},
		updated: &models.Report{ID: id, Title: "Pothole", Status: models.StatusResolved},
	}
	activity := &fakeActivityStore{}
	router := newTestRouter(store, &fakeUserStore{}, activity)

	body := []byte(`{"status":"resolved","municipal_notes":"filled"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, identityRequest(http.MethodPatch, "/report/"+id.String(), body,
		models.Identity{ID: uuid.New(), Email: "staff@comune.it"}))

	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, activity.logged, 1)
	entry := activity.logged[0]
	assert.Equal(t, id, entry.ReportID)
	assert.Equal(t, "staff@comune.it", entry.Actor)
	require.NotNil(t, entry.FromStatus)
	assert.Equal(t, models.StatusSubmitted, *entry.FromStatus)
	require.NotNil(t, entry.ToStatus)
	assert.Equal(t, models.StatusResolved, *entry.ToStatus)
	assert.Equal(t, "filled", entry.Note)
}

func TestUpdateReportBadID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeReportStore{}, &fakeUserStore{}, &fakeActivityStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, identityRequest(http.MethodPatch, "/report/not-a-uuid", []byte(`{"status":"resolved"}`), models.Identity{ID: uuid.New()}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
