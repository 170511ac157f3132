package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/lofiradio/automation/internal/middleware"
	"github.com/lofiradio/automation/internal/model"
	"github.com/lofiradio/automation/internal/service"
)

const testJWTSecret = "test-secret"

func setupApp(t *testing.T) (*fiber.App, *service.RunService, string) {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() {
		asynqClient.Close()
		redisClient.Close()
	})

	runService := service.NewRunService(redisClient, asynqClient)
	runHandler := NewRunHandler(runService)
	auth := middleware.NewAuthMiddleware(testJWTSecret)

	app := fiber.New()
	api := app.Group("/api", auth.Authenticate())
	api.Post("/runs/:slot", runHandler.Trigger)
	api.Get("/runs", runHandler.Recent)
	api.Get("/runs/:runId", runHandler.Status)
	api.Get("/runs/:runId/result", runHandler.Result)

	token, err := auth.GenerateToken("operator", "ops@example.com")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return app, runService, token
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	resp.Body.Close()
	return resp, body
}

func TestTriggerRun(t *testing.T) {
	app, _, token := setupApp(t)

	resp, body := doRequest(t, app, "POST", "/api/runs/night", token)
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", resp.StatusCode, body)
	}

	var started model.RunStartResponse
	if err := json.Unmarshal(body, &started); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if started.RunID == "" {
		t.Error("response missing runId")
	}
	if started.Slot != model.SlotNight {
		t.Errorf("slot = %v, want night", started.Slot)
	}
	if started.Status != model.RunStatusQueued {
		t.Errorf("status = %v, want queued", started.Status)
	}
}

func TestTriggerRunInvalidSlot(t *testing.T) {
	app, _, token := setupApp(t)

	resp, body := doRequest(t, app, "POST", "/api/runs/dawn", token)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", resp.StatusCode, body)
	}

	var errResp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("failed to parse error response: %v", err)
	}
	if errResp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error code = %q, want VALIDATION_ERROR", errResp.Error.Code)
	}
}

func TestTriggerRunRequiresAuth(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, _ := doRequest(t, app, "POST", "/api/runs/night", "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	resp, _ = doRequest(t, app, "POST", "/api/runs/night", "not-a-token")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status with bad token = %d, want 401", resp.StatusCode)
	}
}

func TestRunStatus(t *testing.T) {
	app, runService, token := setupApp(t)

	started, err := runService.StartRun(context.Background(), model.SlotMorning)
	if err != nil {
		t.Fatalf("StartRun returned error: %v", err)
	}

	resp, body := doRequest(t, app, "GET", "/api/runs/"+started.RunID, token)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}

	var run model.PipelineRun
	if err := json.Unmarshal(body, &run); err != nil {
		t.Fatalf("failed to parse run: %v", err)
	}
	if run.ID != started.RunID || run.Slot != model.SlotMorning {
		t.Errorf("run = %+v", run)
	}
}

func TestRunStatusNotFound(t *testing.T) {
	app, _, token := setupApp(t)

	resp, _ := doRequest(t, app, "GET", "/api/runs/no-such-run", token)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRunResultBeforeCompletion(t *testing.T) {
	app, runService, token := setupApp(t)

	started, err := runService.StartRun(context.Background(), model.SlotNight)
	if err != nil {
		t.Fatalf("StartRun returned error: %v", err)
	}

	resp, body := doRequest(t, app, "GET", "/api/runs/"+started.RunID+"/result", token)
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", resp.StatusCode, body)
	}
}

func TestRunResultAfterFailure(t *testing.T) {
	app, runService, token := setupApp(t)
	ctx := context.Background()

	started, err := runService.StartRun(ctx, model.SlotNight)
	if err != nil {
		t.Fatalf("StartRun returned error: %v", err)
	}
	if err := runService.FailRun(ctx, started.RunID, "stage audio failed"); err != nil {
		t.Fatalf("FailRun returned error: %v", err)
	}

	resp, body := doRequest(t, app, "GET", "/api/runs/"+started.RunID+"/result", token)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}

	var result struct {
		Status model.RunStatus `json:"status"`
		Error  *string         `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if result.Status != model.RunStatusFailed {
		t.Errorf("status = %v, want failed", result.Status)
	}
	if result.Error == nil || *result.Error != "stage audio failed" {
		t.Errorf("error = %v", result.Error)
	}
}

func TestRecentRuns(t *testing.T) {
	app, runService, token := setupApp(t)

	for _, slot := range []model.Slot{model.SlotMorning, model.SlotNight} {
		if _, err := runService.StartRun(context.Background(), slot); err != nil {
			t.Fatalf("StartRun returned error: %v", err)
		}
	}

	resp, body := doRequest(t, app, "GET", "/api/runs?limit=10", token)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}

	var listing struct {
		Runs []*model.PipelineRun `json:"runs"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		t.Fatalf("failed to parse listing: %v", err)
	}
	if len(listing.Runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(listing.Runs))
	}
	if listing.Runs[0].Slot != model.SlotNight {
		t.Errorf("first run slot = %v, want the newest (night)", listing.Runs[0].Slot)
	}
}

func TestRecentRunsRejectsBadLimit(t *testing.T) {
	app, _, token := setupApp(t)

	resp, _ := doRequest(t, app, "GET", "/api/runs?limit=zero", token)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
