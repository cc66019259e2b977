package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/handler"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/service"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/sse"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/testutil"
	"github.com/xuri/excelize/v2"
)

func setupAPI(t *testing.T) (*gin.Engine, *testutil.TestEnv) {
	t.Helper()
	env := testutil.NewEnv(t)
	h := handler.NewHandlers(env.Services, env.Hub, nil, handler.Options{MaxUploadBytes: 1 << 20})

	router := testutil.SetupRouter()
	handler.RegisterRoutes(router, h, handler.RouteOptions{
		Auth:      testutil.AuthOptions(),
		Version:   "test",
		BuildTime: "now",
	})
	return router, env
}

func createProject(t *testing.T, router *gin.Engine, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(router, "POST", "/api/projects", body, testutil.MockToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)
}

func seedLeads(t *testing.T, env *testutil.TestEnv) {
	t.Helper()
	reqs := []service.CreateLeadRequest{
		{Name: "Amit Sharma", Source: "Website", Status: entity.LeadStatusNew, City: "Pune"},
		{Name: "Amita Rao", Source: "Referral", Status: entity.LeadStatusContacted, City: "Mumbai"},
		{Name: "Rahul Verma", Source: "Website", Status: entity.LeadStatusNew, City: "Pune"},
		{Name: "Sneha Iyer", Source: "Walk-in", Status: entity.LeadStatusNew, City: "Bengaluru"},
		{Name: "Vikram Singh", Source: "Referral", Status: entity.LeadStatusLost, City: "Delhi"},
	}
	for i := range reqs {
		if _, err := env.Services.Lead.Create(context.Background(), "tester", &reqs[i]); err != nil {
			t.Fatalf("seed lead: %v", err)
		}
	}
}

func multipartRequest(t *testing.T, path, filename string, content []byte, token string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(content)
	writer.Close()

	req, _ := http.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestPublicEndpoints(t *testing.T) {
	router, _ := setupAPI(t)

	for _, path := range []string{"/", "/health/live", "/health/ready", "/version"} {
		w := testutil.DoRequest(router, "GET", path, nil, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}

	resp := testutil.ParseResponse(testutil.DoRequest(router, "GET", "/version", nil, ""))
	if resp["version"] != "test" {
		t.Errorf("Expected version 'test', got %v", resp["version"])
	}
}

func TestAPIRequiresToken(t *testing.T) {
	router, _ := setupAPI(t)

	w := testutil.DoRequest(router, "GET", "/api/projects", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}
	if resp := testutil.ParseResponse(w); resp["error"] != "Unauthorized" {
		t.Errorf("Expected Unauthorized error, got %v", resp["error"])
	}

	w = testutil.DoRequest(router, "GET", "/api/projects", nil, "not-a-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for garbage token, got %d", w.Code)
	}

	w = testutil.DoRequest(router, "GET", "/api/projects", nil, testutil.MockToken)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for mock token, got %d", w.Code)
	}

	w = testutil.DoRequest(router, "GET", "/api/projects", nil, testutil.DefaultTestToken())
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for signed token, got %d", w.Code)
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	router, _ := setupAPI(t)

	w := testutil.DoRequest(router, "GET", "/api/nope/nothing", nil, testutil.MockToken)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
}

func TestProjectLifecycle(t *testing.T) {
	router, _ := setupAPI(t)
	token := testutil.MockToken

	project := createProject(t, router, map[string]interface{}{"name": "X", "totalUnits": 10, "availableUnits": 10})
	id := project["id"].(string)
	if project["status"] != entity.ProjectStatusActive {
		t.Errorf("Expected default status Active, got %v", project["status"])
	}

	w := testutil.DoRequest(router, "PATCH", "/api/projects/"+id+"/status", map[string]string{"status": "Sold Out"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	change := testutil.ParseResponse(w)
	if change["previousStatus"] != entity.ProjectStatusActive || change["status"] != "Sold Out" {
		t.Errorf("Unexpected status change: %v", change)
	}

	w = testutil.DoRequest(router, "GET", "/api/projects/"+id, nil, token)
	got := testutil.ParseResponse(w)
	acts := got["activities"].([]interface{})
	found := false
	for _, a := range acts {
		desc := a.(map[string]interface{})["description"].(string)
		if strings.Contains(desc, "Active") && strings.Contains(desc, "Sold Out") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a status activity mentioning Active and Sold Out, got %v", acts)
	}

	w = testutil.DoRequest(router, "PUT", "/api/projects/"+id, map[string]string{"city": "Pune"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	updated := testutil.ParseResponse(w)
	if updated["city"] != "Pune" || updated["name"] != "X" {
		t.Errorf("Expected merged record, got %v", updated)
	}

	w = testutil.DoRequest(router, "DELETE", "/api/projects/"+id, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if msg := testutil.ParseResponse(w)["message"]; msg != "Project deleted successfully" {
		t.Errorf("Unexpected delete message: %v", msg)
	}

	w = testutil.DoRequest(router, "GET", "/api/projects/"+id, nil, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 after delete, got %d", w.Code)
	}
	if e := testutil.ParseResponse(w)["error"]; e != "Project not found" {
		t.Errorf("Unexpected error body: %v", e)
	}
}

func TestCreateAndStatusValidation(t *testing.T) {
	router, _ := setupAPI(t)
	token := testutil.MockToken

	w := testutil.DoRequest(router, "POST", "/api/projects", map[string]interface{}{}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing name, got %d", w.Code)
	}
	if _, ok := testutil.ParseResponse(w)["error"]; !ok {
		t.Error("Expected error field in 400 body")
	}

	project := createProject(t, router, map[string]interface{}{"name": "Skyline"})
	w = testutil.DoRequest(router, "PATCH", "/api/projects/"+project["id"].(string)+"/status",
		map[string]string{"status": "Bogus"}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status, got %d", w.Code)
	}

	w = testutil.DoRequest(router, "PATCH", "/api/site-visits/missing/status", map[string]string{"status": "Completed"}, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	if e := testutil.ParseResponse(w)["error"]; e != "Site visit not found" {
		t.Errorf("Unexpected error body: %v", e)
	}

	w = testutil.DoRequest(router, "DELETE", "/api/bookings/missing", nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing booking, got %d", w.Code)
	}
}

func TestLeadListScenario(t *testing.T) {
	router, env := setupAPI(t)
	seedLeads(t, env)

	w := testutil.DoRequest(router, "GET", "/api/leads?status=New&search=amit", nil, testutil.MockToken)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	leads := resp["leads"].([]interface{})
	if len(leads) != 1 {
		t.Fatalf("Expected 1 lead, got %d", len(leads))
	}
	if name := leads[0].(map[string]interface{})["name"]; name != "Amit Sharma" {
		t.Errorf("Expected Amit Sharma, got %v", name)
	}
	if resp["total"].(float64) != 1 || resp["page"].(float64) != 1 || resp["totalPages"].(float64) != 1 {
		t.Errorf("Unexpected paging metadata: %v", resp)
	}

	w = testutil.DoRequest(router, "GET", "/api/leads?status=All&limit=2&page=3&sortBy=name&sortOrder=asc", nil, testutil.MockToken)
	resp = testutil.ParseResponse(w)
	if resp["total"].(float64) != 5 || resp["totalPages"].(float64) != 3 {
		t.Errorf("Unexpected paging metadata: %v", resp)
	}
	if leads := resp["leads"].([]interface{}); len(leads) != 1 {
		t.Errorf("Expected 1 lead on last page, got %d", len(leads))
	}
}

func TestLeadAssignAndActivities(t *testing.T) {
	router, env := setupAPI(t)
	token := testutil.MockToken
	seedLeads(t, env)

	list := testutil.ParseResponse(testutil.DoRequest(router, "GET", "/api/leads?search=rahul", nil, token))
	id := list["leads"].([]interface{})[0].(map[string]interface{})["id"].(string)

	w := testutil.DoRequest(router, "PATCH", "/api/leads/"+id+"/assign", map[string]string{}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without assignee, got %d", w.Code)
	}

	w = testutil.DoRequest(router, "PATCH", "/api/leads/"+id+"/assign", map[string]string{"assignedTo": "Priya Agent"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := testutil.ParseResponse(w)["assignedTo"]; got != "Priya Agent" {
		t.Errorf("Expected assignedTo Priya Agent, got %v", got)
	}

	w = testutil.DoRequest(router, "POST", "/api/leads/"+id+"/activities",
		map[string]string{"type": "call", "description": "Called about 3BHK"}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if by := testutil.ParseResponse(w)["createdBy"]; by != "Admin" {
		t.Errorf("Expected createdBy Admin, got %v", by)
	}

	w = testutil.DoRequest(router, "POST", "/api/leads/"+id+"/activities",
		map[string]string{"type": "telepathy", "description": "x"}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown activity type, got %d", w.Code)
	}

	w = testutil.DoRequest(router, "GET", "/api/leads/"+id+"/activities", nil, token)
	resp := testutil.ParseResponse(w)
	if resp["total"].(float64) < 3 {
		t.Errorf("Expected at least 3 activities, got %v", resp["total"])
	}
}

func TestLoginAndMe(t *testing.T) {
	router, env := setupAPI(t)

	_, err := env.Services.User.Create(context.Background(), "tester", &service.CreateUserRequest{
		Name:     "Priya Agent",
		Email:    "priya@gajrajah.com",
		Role:     entity.RoleSalesExecutive,
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	w := testutil.DoRequest(router, "POST", "/api/auth/login",
		map[string]string{"email": "priya@gajrajah.com", "password": "wrong-pass"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", w.Code)
	}

	w = testutil.DoRequest(router, "POST", "/api/auth/login",
		map[string]string{"email": "Priya@Gajrajah.com", "password": "secret123"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	login := testutil.ParseResponse(w)
	token, _ := login["token"].(string)
	if token == "" {
		t.Fatal("Expected token in login response")
	}
	if _, leaked := login["user"].(map[string]interface{})["passwordHash"]; leaked {
		t.Error("Password hash must not be serialised")
	}

	w = testutil.DoRequest(router, "GET", "/api/auth/me", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	me := testutil.ParseResponse(w)
	if me["email"] != "priya@gajrajah.com" || me["role"] != entity.RoleSalesExecutive {
		t.Errorf("Unexpected current user: %v", me)
	}

	me = testutil.ParseResponse(testutil.DoRequest(router, "GET", "/api/auth/me", nil, testutil.MockToken))
	if me["name"] != "Admin" {
		t.Errorf("Expected mock user Admin, got %v", me["name"])
	}
}

func TestDuplicateUserEmail(t *testing.T) {
	router, _ := setupAPI(t)
	body := map[string]string{"name": "Ravi", "email": "ravi@gajrajah.com", "password": "secret123"}

	w := testutil.DoRequest(router, "POST", "/api/users", body, testutil.MockToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(router, "POST", "/api/users", body, testutil.MockToken)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
}

func TestProjectFiles(t *testing.T) {
	router, env := setupAPI(t)
	token := testutil.MockToken
	project := createProject(t, router, map[string]interface{}{"name": "Green Valley"})
	id := project["id"].(string)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/projects/"+id+"/files", "brochure.pdf", []byte("PDF content"), token))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	file := testutil.ParseResponse(w)
	fileID := file["id"].(string)
	if file["name"] != "brochure.pdf" {
		t.Errorf("Expected name brochure.pdf, got %v", file["name"])
	}
	if env.Blobs.Len() != 1 {
		t.Errorf("Expected 1 stored object, got %d", env.Blobs.Len())
	}

	list := testutil.ParseResponse(testutil.DoRequest(router, "GET", "/api/projects/"+id+"/files", nil, token))
	if list["total"].(float64) != 1 {
		t.Errorf("Expected 1 file, got %v", list["total"])
	}

	w = testutil.DoRequest(router, "GET", "/api/projects/"+id+"/files/"+fileID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w.Body.String() != "PDF content" {
		t.Errorf("Unexpected file content %q", w.Body.String())
	}

	w = testutil.DoRequest(router, "DELETE", "/api/projects/"+id+"/files/"+fileID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if env.Blobs.Len() != 0 {
		t.Errorf("Expected blob removed, got %d objects", env.Blobs.Len())
	}

	w = httptest.NewRecorder()
	big := bytes.Repeat([]byte("x"), 2<<20)
	router.ServeHTTP(w, multipartRequest(t, "/api/projects/"+id+"/files", "big.bin", big, token))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for oversized upload, got %d", w.Code)
	}
}

func TestProjectInventory(t *testing.T) {
	router, _ := setupAPI(t)
	token := testutil.MockToken
	project := createProject(t, router, map[string]interface{}{"name": "Green Valley", "totalUnits": 2})
	id := project["id"].(string)

	for _, unit := range []string{"A-101", "A-102"} {
		w := testutil.DoRequest(router, "POST", "/api/inventory",
			map[string]interface{}{"projectId": id, "unitNumber": unit, "unitType": "2BHK", "price": 6500000}, token)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
	}

	resp := testutil.ParseResponse(testutil.DoRequest(router, "GET", "/api/projects/"+id+"/inventory", nil, token))
	if resp["total"].(float64) != 2 {
		t.Errorf("Expected 2 units, got %v", resp["total"])
	}
	if _, ok := resp["inventory"].([]interface{}); !ok {
		t.Errorf("Expected inventory array, got %v", resp)
	}
}

func TestListBodiesNeverHaveNullActivities(t *testing.T) {
	router, env := setupAPI(t)
	token := testutil.MockToken
	seedLeads(t, env)
	project := createProject(t, router, map[string]interface{}{"name": "Green Valley", "totalUnits": 2})
	id := project["id"].(string)

	w := testutil.DoRequest(router, "POST", "/api/inventory",
		map[string]interface{}{"projectId": id, "unitNumber": "A-101", "price": 6500000}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(router, "POST", "/api/site-visits", map[string]interface{}{
		"leadName":    "Amit Sharma",
		"projectId":   id,
		"scheduledAt": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	paths := []string{
		"/api/projects",
		"/api/leads",
		"/api/inventory",
		"/api/site-visits",
		"/api/projects/" + id + "/inventory",
		"/api/dashboard/stats",
	}
	for _, path := range paths {
		w := testutil.DoRequest(router, "GET", path, nil, token)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
		if strings.Contains(w.Body.String(), `"activities":null`) {
			t.Errorf("%s: body has null activities: %s", path, w.Body.String())
		}
	}
}

func TestListPageBeyondRange(t *testing.T) {
	router, env := setupAPI(t)
	seedLeads(t, env)

	w := testutil.DoRequest(router, "GET", "/api/leads?page=9223372036854775807&limit=10", nil, testutil.MockToken)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	leads, ok := resp["leads"].([]interface{})
	if !ok || len(leads) != 0 {
		t.Errorf("Expected empty leads array, got %v", resp["leads"])
	}
	if resp["total"].(float64) != 5 {
		t.Errorf("Expected total 5, got %v", resp["total"])
	}
}

func TestLeadExportAndImport(t *testing.T) {
	router, env := setupAPI(t)
	token := testutil.MockToken
	seedLeads(t, env)

	w := testutil.DoRequest(router, "GET", "/api/reports/leads/export?status=New", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Unexpected content type %q", ct)
	}
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	rows, _ := f.GetRows("Leads")
	f.Close()
	if len(rows) != 4 {
		t.Errorf("Expected header plus 3 New leads, got %d rows", len(rows))
	}

	tpl := excelize.NewFile()
	tpl.SetSheetRow("Sheet1", "A1", &[]interface{}{"Name", "Email", "Source", "City"})
	tpl.SetSheetRow("Sheet1", "A2", &[]interface{}{"Kiran Rao", "kiran@example.com", "Website", "Pune"})
	tpl.SetSheetRow("Sheet1", "A3", &[]interface{}{"", "", "", ""})
	var buf bytes.Buffer
	if err := tpl.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/leads/import", "leads.xlsx", buf.Bytes(), token))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if n := testutil.ParseResponse(w)["imported"]; n != float64(1) {
		t.Errorf("Expected 1 imported lead, got %v", n)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/leads/import", "leads.xlsx", []byte("not a workbook"), token))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid workbook, got %d", w.Code)
	}

	w = testutil.DoRequest(router, "GET", "/api/reports/leads/template", nil, token)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for template, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "lead_import_template.xlsx") {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
}

func TestSettingsDashboardAndSummary(t *testing.T) {
	router, env := setupAPI(t)
	token := testutil.MockToken
	seedLeads(t, env)

	w := testutil.DoRequest(router, "PUT", "/api/settings", map[string]string{"companyName": "Gajrajah Realty"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	settings := testutil.ParseResponse(testutil.DoRequest(router, "GET", "/api/settings", nil, token))
	if settings["companyName"] != "Gajrajah Realty" {
		t.Errorf("Expected updated company name, got %v", settings["companyName"])
	}

	w = testutil.DoRequest(router, "PUT", "/api/settings", map[string]string{"email": "not-an-email"}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid email, got %d", w.Code)
	}

	stats := testutil.ParseResponse(testutil.DoRequest(router, "GET", "/api/dashboard/stats", nil, token))
	if stats["totalLeads"] != float64(5) || stats["newLeads"] != float64(3) {
		t.Errorf("Unexpected dashboard stats: %v", stats)
	}

	w = testutil.DoRequest(router, "GET", "/api/reports/summary", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if _, ok := testutil.ParseResponse(w)["leadsBySource"]; !ok {
		t.Error("Expected leadsBySource in summary")
	}

	w = testutil.DoRequest(router, "GET", "/api/reports/bookings/export", nil, token)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for bookings export, got %d", w.Code)
	}
}

func TestEventStream(t *testing.T) {
	router, env := setupAPI(t)

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, "GET", "/api/events?token="+testutil.MockToken, nil)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for env.Hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	payload, _ := json.Marshal(map[string]string{"id": "p1"})
	env.Hub.Broadcast(sse.Event{EventType: "project_update", Data: string(payload)})
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}

	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "event: connected") {
		t.Errorf("Expected connected event, got %q", body)
	}
	if !strings.Contains(string(body), fmt.Sprintf("event: project_update\ndata: %s", payload)) {
		t.Errorf("Expected broadcast event, got %q", body)
	}
	if env.Hub.ClientCount() != 0 {
		t.Errorf("Expected client unregistered, got %d", env.Hub.ClientCount())
	}
}
