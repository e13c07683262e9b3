package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecosnap/internal/models"
	"ecosnap/internal/services"
	"ecosnap/internal/utils"
)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
	Count   int             `json:"count"`
	Total   int64           `json:"total"`
	Page    int64           `json:"page"`
	Pages   int64           `json:"pages"`
	Data    json.RawMessage `json:"data"`
}

type stubReports struct {
	services.ReportService
	principal models.Principal
	filter    models.ReportFilter
	page      models.Page[models.Report]
	err       error
}

func (s *stubReports) CreateReport(_ context.Context, p models.Principal, in models.CreateReportInput) (*models.Report, error) {
	s.principal = p
	if s.err != nil {
		return nil, s.err
	}
	return &models.Report{ID: primitive.NewObjectID(), Title: in.Title, UserID: p.ID, Status: models.ReportPending}, nil
}

func (s *stubReports) ListReports(_ context.Context, f models.ReportFilter) (models.Page[models.Report], error) {
	s.filter = f
	if err := f.Validate(); err != nil {
		return models.Page[models.Report]{}, err
	}
	return s.page, s.err
}

func (s *stubReports) GetReport(_ context.Context, id primitive.ObjectID) (*models.Report, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Report{ID: id}, nil
}

func (s *stubReports) RejectReport(_ context.Context, p models.Principal, id primitive.ObjectID, reason string) (*models.Report, error) {
	return &models.Report{ID: id, Status: models.ReportRejected, RejectionReason: reason}, nil
}

type stubUsers struct {
	services.UserService
	registered models.RegisterInput
}

func (s *stubUsers) Register(_ context.Context, in models.RegisterInput) (*models.User, error) {
	s.registered = in
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &models.User{ID: primitive.NewObjectID(), Email: in.Email, Role: in.Role}, nil
}

type stubWorkOrders struct {
	services.WorkOrderService
	completed *models.CompleteWorkOrderInput
}

func (s *stubWorkOrders) Complete(_ context.Context, p models.Principal, id primitive.ObjectID, in models.CompleteWorkOrderInput) (*models.WorkOrder, error) {
	s.completed = &in
	return &models.WorkOrder{ID: id, OrganizationID: p.ID, Status: models.WorkOrderCompleted}, nil
}

type stubMedia struct {
	in   services.UploadInput
	body string
}

func (s *stubMedia) Upload(_ context.Context, p models.Principal, in services.UploadInput) (*models.Media, error) {
	b, _ := io.ReadAll(in.Body)
	s.in, s.body = in, string(b)
	return &models.Media{Kind: in.Kind, UserID: p.ID, URL: "http://cdn.test/" + in.FileName}, nil
}

type testAPI struct {
	router  *gin.Engine
	reports *stubReports
	users   *stubUsers
	orders  *stubWorkOrders
	media   *stubMedia
	jwt     *utils.JWTUtil
}

func newTestAPI(checks map[string]Check) *testAPI {
	gin.SetMode(gin.TestMode)
	api := &testAPI{
		reports: &stubReports{},
		users:   &stubUsers{},
		orders:  &stubWorkOrders{},
		media:   &stubMedia{},
		jwt:     utils.NewJWTUtil(testSecret),
	}
	resp := NewResponder(zerolog.Nop(), true)
	api.router = gin.New()
	RegisterRoutes(api.router, Handlers{
		Health:     NewHealthHandler(checks),
		Users:      NewUserHandler(api.users, nil, resp),
		Reports:    NewReportHandler(api.reports, resp),
		WorkOrders: NewWorkOrderHandler(api.orders, resp),
		Reviews:    NewReviewHandler(nil, resp),
		Media:      NewMediaHandler(api.media, resp),
		Stats:      NewStatsHandler(nil, resp),
	}, api.jwt)
	return api
}

func (a *testAPI) token(t *testing.T, id primitive.ObjectID, role models.Role) string {
	t.Helper()
	tok, err := a.jwt.GenerateToken(id.Hex(), string(role))
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func (a *testAPI) do(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return w, env
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.NewValidationError("title field is required"), http.StatusBadRequest},
		{models.ErrInvalidID, http.StatusBadRequest},
		{fmt.Errorf("%w: cannot move", models.ErrInvalidTransition), http.StatusBadRequest},
		{models.ErrInvalidRole, http.StatusBadRequest},
		{models.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: admins only", models.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("report: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrDuplicateReview, http.StatusConflict},
		{models.ErrDuplicate, http.StatusConflict},
		{models.ErrConflict, http.StatusConflict},
		{models.ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestInternalErrorsAreHiddenInProduction(t *testing.T) {
	api := newTestAPI(nil)
	api.reports.err = errors.New("mongo: server selection timeout")

	w, env := api.do(t, httptest.NewRequest(http.MethodGet, "/api/reports/"+primitive.NewObjectID().Hex(), nil), "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if env.Success || env.Message != "internal server error" {
		t.Errorf("envelope = %+v, want generic failure", env)
	}
}

func TestCreateReportUsesTokenPrincipal(t *testing.T) {
	api := newTestAPI(nil)
	citizenID := primitive.NewObjectID()
	body := `{"title":"Overflowing bins","description":"Near the park gate","category":"general-waste","location":{"longitude":-0.12,"latitude":51.5}}`

	w, env := api.do(t, jsonRequest(http.MethodPost, "/api/reports", body), api.token(t, citizenID, models.RoleCitizen))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if !env.Success || env.Message != "Report created successfully" {
		t.Errorf("envelope = %+v", env)
	}
	want := models.Principal{ID: citizenID, Role: models.RoleCitizen}
	if api.reports.principal != want {
		t.Errorf("principal = %+v, want %+v", api.reports.principal, want)
	}

	var report models.Report
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Title != "Overflowing bins" || report.UserID != citizenID {
		t.Errorf("report = %+v", report)
	}
}

func TestCreateReportAccess(t *testing.T) {
	api := newTestAPI(nil)
	body := `{"title":"x"}`

	w, _ := api.do(t, jsonRequest(http.MethodPost, "/api/reports", body), "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	w, _ = api.do(t, jsonRequest(http.MethodPost, "/api/reports", body), api.token(t, primitive.NewObjectID(), models.RoleOrganization))
	if w.Code != http.StatusForbidden {
		t.Errorf("organization status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestRateLimitedCreateIs429(t *testing.T) {
	api := newTestAPI(nil)
	api.reports.err = fmt.Errorf("%w: slow down", models.ErrRateLimited)

	w, env := api.do(t, jsonRequest(http.MethodPost, "/api/reports", `{}`), api.token(t, primitive.NewObjectID(), models.RoleCitizen))
	if w.Code != http.StatusTooManyRequests || env.Success {
		t.Errorf("status = %d success %v, want %d", w.Code, env.Success, http.StatusTooManyRequests)
	}
}

func TestListReportsPassesFilterAndPaging(t *testing.T) {
	api := newTestAPI(nil)
	api.reports.page = models.Page[models.Report]{
		Items:      []models.Report{{ID: primitive.NewObjectID()}, {ID: primitive.NewObjectID()}},
		Total:      12,
		Pagination: models.Pagination{Page: 2, Limit: 10},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/reports?status=pending&category=graffiti&lat=51.5&lng=-0.12&radius=5&page=2&limit=10", nil)
	w, env := api.do(t, req, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	f := api.reports.filter
	if f.Status != models.ReportPending || f.Category != models.CategoryGraffiti || f.RadiusKm != 5 {
		t.Errorf("filter = %+v", f)
	}
	if f.Lat == nil || *f.Lat != 51.5 || f.Lon == nil || *f.Lon != -0.12 {
		t.Errorf("filter coordinates = %v, %v", f.Lat, f.Lon)
	}
	if f.Pagination != (models.Pagination{Page: 2, Limit: 10}) {
		t.Errorf("Pagination = %+v", f.Pagination)
	}
	if env.Count != 2 || env.Total != 12 || env.Page != 2 || env.Pages != 2 {
		t.Errorf("list envelope = count %d total %d page %d pages %d, want 2/12/2/2", env.Count, env.Total, env.Page, env.Pages)
	}
}

func TestListReportsRejectsMalformedQuery(t *testing.T) {
	api := newTestAPI(nil)

	w, _ := api.do(t, httptest.NewRequest(http.MethodGet, "/api/reports?lat=north", nil), "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListReportsAcceptsLatitudeLongitude(t *testing.T) {
	api := newTestAPI(nil)

	w, _ := api.do(t, httptest.NewRequest(http.MethodGet, "/api/reports?latitude=51.5&longitude=-0.12", nil), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	f := api.reports.filter
	if f.Lat == nil || *f.Lat != 51.5 || f.Lon == nil || *f.Lon != -0.12 {
		t.Errorf("filter coordinates = %v, %v", f.Lat, f.Lon)
	}
}

func TestListReportsRejectsNonFiniteCoordinates(t *testing.T) {
	for _, q := range []string{"lat=NaN&lng=0", "lat=0&lng=Inf", "lat=1&lng=1&radius=NaN"} {
		t.Run(q, func(t *testing.T) {
			api := newTestAPI(nil)
			w, _ := api.do(t, httptest.NewRequest(http.MethodGet, "/api/reports?"+q, nil), "")
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestCompleteWorkOrderWithoutBody(t *testing.T) {
	api := newTestAPI(nil)
	org := primitive.NewObjectID()
	path := "/api/work-orders/" + primitive.NewObjectID().Hex() + "/complete"

	req := httptest.NewRequest(http.MethodPut, path, nil)
	w, env := api.do(t, req, api.token(t, org, models.RoleOrganization))
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d (%s), want %d", w.Code, env.Message, http.StatusOK)
	}
	if api.orders.completed == nil || api.orders.completed.ActualDuration != 0 {
		t.Errorf("completed with %+v, want an empty input", api.orders.completed)
	}
}

func TestMalformedIDIs400(t *testing.T) {
	api := newTestAPI(nil)

	w, env := api.do(t, httptest.NewRequest(http.MethodGet, "/api/reports/not-an-id", nil), "")
	if w.Code != http.StatusBadRequest || env.Message != models.ErrInvalidID.Error() {
		t.Errorf("status = %d message %q, want 400 %q", w.Code, env.Message, models.ErrInvalidID.Error())
	}
}

func TestRejectWithoutBody(t *testing.T) {
	api := newTestAPI(nil)
	id := primitive.NewObjectID()
	admin := api.token(t, primitive.NewObjectID(), models.RoleAdmin)

	w, env := api.do(t, httptest.NewRequest(http.MethodPut, "/api/reports/"+id.Hex()+"/reject", nil), admin)
	if w.Code != http.StatusOK || env.Message != "Report rejected" {
		t.Errorf("status = %d message %q, want 200", w.Code, env.Message)
	}

	w, _ = api.do(t, jsonRequest(http.MethodPut, "/api/reports/"+id.Hex()+"/reject", `{"reason":`), admin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("broken body status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRegisterValidationEnvelope(t *testing.T) {
	api := newTestAPI(nil)

	w, env := api.do(t, jsonRequest(http.MethodPost, "/api/users/register", `{"email":"nope","password":"123","role":"citizen"}`), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	want := []string{"email must be a valid email", "password length must be greater than or equal to 6"}
	if env.Success || !reflect.DeepEqual(env.Errors, want) {
		t.Errorf("errors = %v, want %v", env.Errors, want)
	}
}

func TestMediaUploadMultipart(t *testing.T) {
	api := newTestAPI(nil)
	userID := primitive.NewObjectID()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("kind", "completion"); err != nil {
		t.Fatal(err)
	}
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="after.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("\x89PNG"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, env := api.do(t, req, api.token(t, userID, models.RoleOrganization))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	got := api.media.in
	if got.Kind != models.MediaCompletion || got.FileName != "after.png" || got.ContentType != "image/png" || got.Size != 4 {
		t.Errorf("upload input = %+v", got)
	}
	if api.media.body != "\x89PNG" {
		t.Errorf("body = %q", api.media.body)
	}
	var media models.Media
	if err := json.Unmarshal(env.Data, &media); err != nil {
		t.Fatal(err)
	}
	if media.URL != "http://cdn.test/after.png" {
		t.Errorf("URL = %q", media.URL)
	}
}

func TestMediaUploadRequiresFile(t *testing.T) {
	api := newTestAPI(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", strings.NewReader(""))
	w, _ := api.do(t, req, api.token(t, primitive.NewObjectID(), models.RoleCitizen))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	api := newTestAPI(map[string]Check{"mongo": ok, "redis": ok})
	w, env := api.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil), "")
	if w.Code != http.StatusOK || !env.Success {
		t.Errorf("healthy status = %d success %v", w.Code, env.Success)
	}

	api = newTestAPI(map[string]Check{"mongo": ok, "redis": down})
	w, env = api.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil), "")
	if w.Code != http.StatusServiceUnavailable || env.Success {
		t.Errorf("degraded status = %d success %v, want %d", w.Code, env.Success, http.StatusServiceUnavailable)
	}
}
