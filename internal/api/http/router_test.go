package http

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/triage-desk/ticket-router/internal/api/http/handlers"
	"github.com/triage-desk/ticket-router/internal/domain"
	"github.com/triage-desk/ticket-router/internal/events"
	"github.com/triage-desk/ticket-router/internal/observability"
	"github.com/triage-desk/ticket-router/internal/realtime"
	"github.com/triage-desk/ticket-router/internal/repository"
	"github.com/triage-desk/ticket-router/internal/service"
)

type testServer struct {
	app                *fiber.App
	customer, business *domain.User
	vendor             *domain.User
	hub                *realtime.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	hub := realtime.NewHub(logger)
	service.NewNotificationService(dispatcher, hub, nil, logger).RegisterHandlers()

	directory := service.NewDirectory(store, nil, logger)
	ledger := service.NewMessageLedger(store)
	visibility := service.NewVisibility(store, directory, ledger)
	workflow := service.NewWorkflowService(service.WorkflowDependencies{
		Store:      store,
		Directory:  directory,
		Ledger:     ledger,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	srv := &testServer{hub: hub}
	for _, u := range []struct {
		dst  **domain.User
		name string
		role domain.Role
	}{
		{&srv.customer, "Customer", domain.RoleCustomer},
		{&srv.business, "Business", domain.RoleBusiness},
		{&srv.vendor, "Vendor", domain.RoleVendor},
	} {
		user := &domain.User{Username: u.name, Role: u.role}
		if err := store.Repos().Users.Create(context.Background(), user); err != nil {
			t.Fatalf("create user: %v", err)
		}
		*u.dst = user
	}

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, MiddlewareConfig{Logger: logger, Metrics: metrics, CORSOrigins: []string{"http://localhost:3000"}})
	RegisterRoutes(app, RouteConfig{
		Health:  handlers.NewHealthHandler("ticket-router", "test", nil, hub, metrics),
		Users:   handlers.NewUsersHandler(directory),
		Tickets: handlers.NewTicketsHandler(workflow, visibility),
		WS:      handlers.NewWSHandler(directory, hub, 0, 0, logger),
	})
	srv.app = app
	return srv
}

func (s *testServer) form(t *testing.T, path string, values url.Values) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(t, req)
}

func (s *testServer) get(t *testing.T, path string) (int, []byte) {
	t.Helper()
	resp, err := s.app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func (s *testServer) do(t *testing.T, req *nethttp.Request) (int, map[string]any) {
	t.Helper()
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestTicketFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, body := s.form(t, "/tickets", url.Values{
		"title":       {"Printer jammed"},
		"description": {"Paper stuck in tray 2"},
		"customer_id": {s.customer.ID},
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d body=%v", status, body)
	}
	ticketID, _ := body["id"].(string)
	if ticketID == "" || body["status"] != "open" {
		t.Fatalf("unexpected create body %v", body)
	}

	status, body = s.form(t, "/tickets/"+ticketID+"/contact-vendor", url.Values{
		"vendor_id":   {s.vendor.ID},
		"message":     {"please help"},
		"business_id": {s.business.ID},
	})
	if status != fiber.StatusConflict || errorCode(body) != "INVALID_TRANSITION" {
		t.Fatalf("contact before assign: status=%d body=%v", status, body)
	}

	status, body = s.form(t, "/tickets/"+ticketID+"/assign", url.Values{"business_id": {s.business.ID}})
	if status != fiber.StatusOK || body["status"] != "business_assigned" {
		t.Fatalf("assign: status=%d body=%v", status, body)
	}

	status, body = s.form(t, "/tickets/"+ticketID+"/contact-vendor", url.Values{
		"vendor_id": {s.vendor.ID},
		"message":   {"Need a new roller"},
	})
	if status != fiber.StatusOK || body["status"] != "vendor_contacted" {
		t.Fatalf("contact: status=%d body=%v", status, body)
	}

	status, body = s.form(t, "/tickets/"+ticketID+"/send-message", url.Values{
		"sender_id": {s.customer.ID},
		"content":   {"any news?"},
	})
	if status != fiber.StatusForbidden || errorCode(body) != "INVALID_ROLE" {
		t.Fatalf("customer message: status=%d body=%v", status, body)
	}

	status, body = s.form(t, "/tickets/"+ticketID+"/send-message", url.Values{
		"sender_id": {s.vendor.ID},
		"content":   {"Shipping today"},
	})
	if status != fiber.StatusCreated || body["status"] != "vendor_responded" {
		t.Fatalf("vendor message: status=%d body=%v", status, body)
	}

	status, body = s.form(t, "/tickets/"+ticketID+"/resolve", url.Values{
		"business_id": {s.business.ID},
		"resolution":  {"Roller replaced"},
	})
	if status != fiber.StatusOK || body["status"] != "resolved" {
		t.Fatalf("resolve: status=%d body=%v", status, body)
	}

	code, raw := s.get(t, "/tickets/"+ticketID+"/messages?user_id="+s.customer.ID)
	if code != fiber.StatusOK {
		t.Fatalf("customer messages status = %d", code)
	}
	var customerView []map[string]any
	if err := json.Unmarshal(raw, &customerView); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(customerView) != 1 || customerView[0]["message_type"] != "resolution" {
		t.Fatalf("customer should only see the resolution: %s", raw)
	}

	code, raw = s.get(t, "/tickets/"+ticketID+"/messages?user_id="+s.vendor.ID)
	var vendorView []map[string]any
	if err := json.Unmarshal(raw, &vendorView); err != nil || code != fiber.StatusOK {
		t.Fatalf("vendor messages: %d %v", code, err)
	}
	if len(vendorView) != 3 {
		t.Fatalf("vendor should see the full ledger, got %d", len(vendorView))
	}
	sender, _ := vendorView[0]["sender"].(map[string]any)
	if sender["username"] != "Business" || sender["role"] != "business" {
		t.Fatalf("unexpected sender %v", sender)
	}

	code, raw = s.get(t, "/tickets/"+s.customer.ID)
	var tickets []map[string]any
	if err := json.Unmarshal(raw, &tickets); err != nil || code != fiber.StatusOK {
		t.Fatalf("list tickets: %d %v", code, err)
	}
	if len(tickets) != 1 {
		t.Fatalf("customer should see one ticket, got %d", len(tickets))
	}
	vendor, _ := tickets[0]["vendor"].(map[string]any)
	if vendor["username"] != "Vendor" {
		t.Fatalf("vendor summary missing: %v", tickets[0])
	}
}

func TestJSONBodiesAreAccepted(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("POST", "/tickets", strings.NewReader(`{"title":"A","description":"B","customer_id":"`+s.customer.ID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	status, body := s.do(t, req)
	if status != fiber.StatusCreated {
		t.Fatalf("status=%d body=%v", status, body)
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name   string
		path   string
		values url.Values
		status int
		code   string
	}{
		{"missing customer id", "/tickets", url.Values{"title": {"a"}, "description": {"b"}}, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown customer", "/tickets", url.Values{"title": {"a"}, "description": {"b"}, "customer_id": {"nobody"}}, fiber.StatusNotFound, "NOT_FOUND"},
		{"unknown ticket", "/tickets/nope/assign", url.Values{"business_id": {s.business.ID}}, fiber.StatusNotFound, "NOT_FOUND"},
		{"business opens ticket", "/tickets", url.Values{"title": {"a"}, "description": {"b"}, "customer_id": {s.business.ID}}, fiber.StatusForbidden, "INVALID_ROLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := s.form(t, tc.path, tc.values)
			if status != tc.status || errorCode(body) != tc.code {
				t.Fatalf("status=%d body=%v, want %d %s", status, body, tc.status, tc.code)
			}
		})
	}
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	s := newTestServer(t)
	for _, id := range []string{"abc", "42", "not-a-uuid"} {
		t.Run(id, func(t *testing.T) {
			status, body := s.form(t, "/tickets/"+id+"/assign", url.Values{"business_id": {s.business.ID}})
			if status != fiber.StatusNotFound || errorCode(body) != "NOT_FOUND" {
				t.Fatalf("assign: status=%d body=%v", status, body)
			}
			status, body = s.form(t, "/tickets/"+id+"/resolve", url.Values{"business_id": {s.business.ID}, "resolution": {"done"}})
			if status != fiber.StatusNotFound || errorCode(body) != "NOT_FOUND" {
				t.Fatalf("resolve: status=%d body=%v", status, body)
			}
			if code, raw := s.get(t, "/tickets/"+id+"/messages?user_id="+s.customer.ID); code != fiber.StatusNotFound {
				t.Fatalf("messages: %d %s", code, raw)
			}
			if code, raw := s.get(t, "/tickets/"+id); code != fiber.StatusNotFound {
				t.Fatalf("ticket list: %d %s", code, raw)
			}
			if code, _ := s.get(t, "/ws/"+id); code != fiber.StatusNotFound {
				t.Fatalf("websocket: %d", code)
			}
		})
	}
}

func TestUsersEndpoint(t *testing.T) {
	s := newTestServer(t)

	code, raw := s.get(t, "/users")
	var users []map[string]any
	if err := json.Unmarshal(raw, &users); err != nil || code != fiber.StatusOK || len(users) != 3 {
		t.Fatalf("users: %d %s", code, raw)
	}

	code, raw = s.get(t, "/users?role=vendor")
	users = nil
	if err := json.Unmarshal(raw, &users); err != nil || code != fiber.StatusOK || len(users) != 1 || users[0]["role"] != "vendor" {
		t.Fatalf("vendors: %d %s", code, raw)
	}

	if code, _ := s.get(t, "/users?role=admin"); code != fiber.StatusBadRequest {
		t.Fatalf("unknown role should be 400, got %d", code)
	}
}

func TestWebsocketRefusesUnknownUserBeforeUpgrade(t *testing.T) {
	s := newTestServer(t)
	if code, _ := s.get(t, "/ws/ghost"); code != fiber.StatusNotFound {
		t.Fatalf("unknown user should be 404, got %d", code)
	}
	if code, _ := s.get(t, "/ws/"+s.customer.ID); code != fiber.StatusUpgradeRequired {
		t.Fatalf("plain GET should require upgrade, got %d", code)
	}
	if s.hub.Connected() != 0 {
		t.Fatalf("nothing should be registered")
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	if code, _ := s.get(t, "/health/live"); code != fiber.StatusOK {
		t.Fatalf("live = %d", code)
	}
	if code, _ := s.get(t, "/health/ready"); code != fiber.StatusOK {
		t.Fatalf("ready = %d", code)
	}
	code, raw := s.get(t, "/health/metrics")
	if code != fiber.StatusOK || !strings.Contains(string(raw), "/health/ready|GET|200") {
		t.Fatalf("metrics: %d %s", code, raw)
	}
}
