package router

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AttendTrack/internal/handler"
	"AttendTrack/internal/middleware"
	"AttendTrack/internal/repository/memory"
	"AttendTrack/internal/service"
	"AttendTrack/pkg/export"
	"AttendTrack/pkg/snowflake"
	"AttendTrack/pkg/token"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type testApp struct {
	t      *testing.T
	engine *route.Engine
	clock  *clock
}

func newApp(t *testing.T) *testApp {
	t.Helper()
	store := memory.New()
	ids, err := snowflake.New(1, 1)
	require.NoError(t, err)

	// 令牌使用真实时钟，考勤使用可控时钟
	issuer := token.NewIssuer(token.Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	clk := &clock{now: time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)}

	authSvc, err := service.NewAuthService(service.AuthDeps{
		Users:      store.Users(),
		Issuer:     issuer,
		IDs:        ids,
		BcryptCost: 4,
	})
	require.NoError(t, err)
	attendanceSvc := service.NewAttendanceService(service.AttendanceDeps{
		Records:  store.Attendances(),
		Users:    store.Users(),
		IDs:      ids,
		Clock:    clk.Now,
		Location: time.UTC,
		LateHour: 9,
	})
	managerSvc := service.NewManagerService(service.ManagerDeps{
		Records:  store.Attendances(),
		Users:    store.Users(),
		Clock:    clk.Now,
		Location: time.UTC,
	})

	auth, err := middleware.NewAuth(issuer)
	require.NoError(t, err)

	engine := route.NewEngine(config.NewOptions([]config.Option{}))
	Register(engine, Deps{
		Handler: handler.New(handler.Deps{Auth: authSvc, Attendance: attendanceSvc, Manager: managerSvc}),
		Auth:    auth,
		Global:  middleware.Global(middleware.GlobalOptions{Recover: middleware.DefaultRecoverConfig}),
	})
	return &testApp{t: t, engine: engine, clock: clk}
}

func (a *testApp) do(method, path, token string, body interface{}) (int, envelope, *ut.ResponseRecorder) {
	a.t.Helper()
	headers := []ut.Header{{Key: "Content-Type", Value: "application/json"}}
	if token != "" {
		headers = append(headers, ut.Header{Key: "Authorization", Value: "Bearer " + token})
	}

	var reqBody *ut.Body
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reqBody = &ut.Body{Body: bytes.NewReader(raw), Len: len(raw)}
	}

	w := ut.PerformRequest(a.engine, method, path, reqBody, headers...)
	resp := w.Result()
	var env envelope
	if strings.HasPrefix(string(resp.Header.ContentType()), "application/json") {
		require.NoError(a.t, json.Unmarshal(resp.Body(), &env))
	}
	return resp.StatusCode(), env, w
}

// register 返回 access token 与用户 ID
func (a *testApp) register(name, email, role string) (string, string) {
	a.t.Helper()
	status, env, _ := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "Secret@123",
		"role":     role,
	})
	require.Equal(a.t, http.StatusCreated, status, env.Error)

	var data struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Tokens struct {
			Access string `json:"access"`
		} `json:"tokens"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &data))
	return data.Tokens.Access, data.User.ID
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	status, env, _ := a.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"status":"ok"`)
}

func TestRegisterValidation(t *testing.T) {
	a := newApp(t)

	status, env, _ := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Al",
		"password": "Secret@123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
	assert.Equal(t, "INVALID_REQUEST", env.Code)

	a.register("Alice", "alice@company.com", "")
	status, env, _ = a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Alice Again",
		"email":    "ALICE@company.com",
		"password": "Secret@123",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "EMAIL_ALREADY_REGISTERED", env.Code)
}

func TestLoginFailuresAreIdentical(t *testing.T) {
	a := newApp(t)
	a.register("Alice", "alice@company.com", "")

	wrongStatus, _, wrong := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@company.com", "password": "nope",
	})
	unknownStatus, _, unknown := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ghost@company.com", "password": "Secret@123",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongStatus)
	assert.Equal(t, wrongStatus, unknownStatus)
	assert.Equal(t, string(wrong.Result().Body()), string(unknown.Result().Body()))

	status, env, _ := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@company.com", "password": "Secret@123",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"access"`)
	assert.NotContains(t, string(env.Data), "passwordHash")
}

func TestMe(t *testing.T) {
	a := newApp(t)
	access, id := a.register("Alice", "alice@company.com", "")

	status, env, _ := a.do(http.MethodGet, "/api/auth/me", access, nil)
	require.Equal(t, http.StatusOK, status)

	var me map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, id, me["id"])
	assert.Equal(t, "employee", me["role"])
	assert.NotContains(t, me, "passwordHash")
}

func TestRequiresToken(t *testing.T) {
	a := newApp(t)
	for _, path := range []string{"/api/attendance/today", "/api/auth/me", "/api/manager/attendance/all", "/api/dashboard/manager"} {
		status, env, _ := a.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, "UNAUTHORIZED", env.Code, path)
	}

	status, _, _ := a.do(http.MethodGet, "/api/attendance/today", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestEmployeeForbiddenOnManagerRoutes(t *testing.T) {
	a := newApp(t)
	employee, _ := a.register("Alice", "alice@company.com", "")
	manager, _ := a.register("Mia Manager", "mia@company.com", "manager")

	for _, path := range []string{
		"/api/manager/attendance/all",
		"/api/manager/attendance/summary",
		"/api/manager/attendance/today-status",
		"/api/manager/attendance/export",
		"/api/dashboard/manager",
	} {
		status, env, _ := a.do(http.MethodGet, path, employee, nil)
		assert.Equal(t, http.StatusForbidden, status, path)
		assert.Equal(t, "FORBIDDEN", env.Code, path)

		status, _, _ = a.do(http.MethodGet, path, manager, nil)
		assert.Equal(t, http.StatusOK, status, path)
	}
}

func TestCheckInCheckOutFlow(t *testing.T) {
	a := newApp(t)
	access, _ := a.register("Alice", "alice@company.com", "")

	status, env, _ := a.do(http.MethodGet, "/api/attendance/today", access, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", string(env.Data))

	status, env, _ = a.do(http.MethodPost, "/api/attendance/checkout", access, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NOT_CHECKED_IN", env.Code)

	status, env, _ = a.do(http.MethodPost, "/api/attendance/checkin", access, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, "2024-03-01", record["date"])
	assert.Equal(t, "present", record["status"])
	assert.Nil(t, record["totalHours"])

	status, env, _ = a.do(http.MethodPost, "/api/attendance/checkin", access, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ALREADY_CHECKED_IN", env.Code)

	a.clock.Advance(8*time.Hour + 30*time.Minute)
	status, env, _ = a.do(http.MethodPost, "/api/attendance/checkout", access, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, 8.5, record["totalHours"])

	status, env, _ = a.do(http.MethodPost, "/api/attendance/checkout", access, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ALREADY_CHECKED_OUT", env.Code)

	status, env, _ = a.do(http.MethodGet, "/api/attendance/my-summary", access, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"presentDays":1,"averageHours":8.5}`, string(env.Data))

	status, env, _ = a.do(http.MethodGet, "/api/attendance/my-history?startDate=2024-03-01&endDate=2024-03-01", access, nil)
	require.Equal(t, http.StatusOK, status)
	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history, 1)

	status, env, _ = a.do(http.MethodGet, "/api/attendance/my-history?startDate=03/01/2024", access, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", env.Code)

	status, env, _ = a.do(http.MethodGet, "/api/dashboard/employee", access, nil)
	require.Equal(t, http.StatusOK, status)
	var dash struct {
		Today  map[string]interface{}   `json:"today"`
		Recent []map[string]interface{} `json:"recent"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, "present", dash.Today["status"])
	assert.Len(t, dash.Recent, 1)
}

func TestManagerViews(t *testing.T) {
	a := newApp(t)
	employee, employeeID := a.register("Alice", "alice@company.com", "")
	manager, _ := a.register("Mia Manager", "mia@company.com", "manager")

	a.clock.Advance(time.Hour) // 09:30 迟到
	status, _, _ := a.do(http.MethodPost, "/api/attendance/checkin", employee, nil)
	require.Equal(t, http.StatusOK, status)

	status, env, _ := a.do(http.MethodGet, "/api/manager/attendance/all", manager, nil)
	require.Equal(t, http.StatusOK, status)
	var all []struct {
		Status string `json:"status"`
		User   struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &all))
	require.Len(t, all, 1)
	assert.Equal(t, "late", all[0].Status)
	assert.Equal(t, "alice@company.com", all[0].User.Email)

	status, env, _ = a.do(http.MethodGet, "/api/manager/attendance/employee/"+employeeID, manager, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env, _ = a.do(http.MethodGet, "/api/manager/attendance/employee/abc", manager, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_USER_ID", env.Code)

	status, env, _ = a.do(http.MethodGet, "/api/manager/attendance/employee/"+strconv.Itoa(999), manager, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "USER_NOT_FOUND", env.Code)

	status, env, _ = a.do(http.MethodGet, "/api/manager/attendance/summary", manager, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"date":"2024-03-01","count":1}]`, string(env.Data))

	status, env, _ = a.do(http.MethodGet, "/api/dashboard/manager", manager, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"totalEmployees":1,"presentToday":1}`, string(env.Data))
}

func TestExportCSV(t *testing.T) {
	a := newApp(t)
	employee, _ := a.register("Alice", "alice@company.com", "")
	manager, _ := a.register("Mia Manager", "mia@company.com", "manager")

	status, _, _ := a.do(http.MethodPost, "/api/attendance/checkin", employee, nil)
	require.Equal(t, http.StatusOK, status)

	status, _, w := a.do(http.MethodGet, "/api/manager/attendance/export", manager, nil)
	require.Equal(t, http.StatusOK, status)
	resp := w.Result()
	assert.Contains(t, string(resp.Header.ContentType()), "text/csv")
	assert.Equal(t, `attachment; filename="attendance-20240301.csv"`, resp.Header.Get("Content-Disposition"))

	rows, err := csv.NewReader(bytes.NewReader(resp.Body())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, export.Header, rows[0])
	assert.Equal(t, []string{
		"2024-03-01", "Alice", "alice@company.com", "2024-03-01T08:30:00.000Z", "", "present", "",
	}, rows[1])
}

func TestExportXLSXAndUnknownFormat(t *testing.T) {
	a := newApp(t)
	manager, _ := a.register("Mia Manager", "mia@company.com", "manager")

	status, _, w := a.do(http.MethodGet, "/api/manager/attendance/export?format=xlsx", manager, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, bytes.HasPrefix(w.Result().Body(), []byte("PK")))
	assert.Contains(t, w.Result().Header.Get("Content-Disposition"), ".xlsx")

	status, env, _ := a.do(http.MethodGet, "/api/manager/attendance/export?format=pdf", manager, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", env.Code)
}
