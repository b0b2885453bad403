package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/procrisk/pkg/controller/http"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/secmon-lab/procrisk/pkg/repository/memory"
	"github.com/secmon-lab/procrisk/pkg/usecase"
)

type client struct {
	t      *testing.T
	server *httptest.Server
}

func newClient(t *testing.T, opts ...httpctrl.Options) *client {
	t.Helper()
	uc := usecase.New(memory.New())
	server := httptest.NewServer(httpctrl.New(uc, opts...))
	t.Cleanup(server.Close)
	return &client{t: t, server: server}
}

// do sends body as JSON on behalf of user with roles. An empty user sends
// an anonymous request.
func (c *client) do(method, path, user, roles string, body any) (int, []byte) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		gt.NoError(c.t, err).Required()
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	gt.NoError(c.t, err).Required()
	if user != "" {
		req.Header.Set("X-User-ID", user)
		req.Header.Set("X-User-Roles", roles)
	}

	resp, err := http.DefaultClient.Do(req)
	gt.NoError(c.t, err).Required()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	gt.NoError(c.t, err).Required()
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	gt.NoError(t, json.Unmarshal(data, &v)).Required()
	return v
}

type idResponse struct {
	ID int64 `json:"id"`
}

type riskResponse struct {
	ID        int64  `json:"id"`
	Confirmed bool   `json:"confirmed"`
	Status    string `json:"status"`
	StageName string `json:"stage_name"`
	Priority  int    `json:"priority"`
}

const (
	reporterID = "U-reporter"
	managerID  = "U-manager"
	managers   = "risk_manager,process_manager"
)

func TestHealth(t *testing.T) {
	c := newClient(t)
	status, body := c.do(http.MethodGet, "/health", "", "", nil)
	gt.Value(t, status).Equal(http.StatusOK)
	gt.Value(t, string(body)).Equal("ok")
}

func TestRiskLifecycleOverHTTP(t *testing.T) {
	c := newClient(t)

	status, body := c.do(http.MethodPost, "/api/v1/risk-infos", reporterID, "", map[string]any{
		"name":       "Supplier default",
		"short_name": "Supplier",
	})
	gt.Value(t, status).Equal(http.StatusCreated)
	info := decode[idResponse](t, body)

	status, body = c.do(http.MethodPost, "/api/v1/processes/zero?unit=plant", managerID, managers, nil)
	gt.Value(t, status).Equal(http.StatusOK)
	zero := decode[idResponse](t, body)

	report := map[string]any{
		"info_id": info.ID,
		"kind":    "T",
		"context": map[string]any{"scope": "business", "unit_id": "plant", "process_id": zero.ID},
	}

	t.Run("anonymous report is denied", func(t *testing.T) {
		status, _ := c.do(http.MethodPost, "/api/v1/risks", "", "", report)
		gt.Value(t, status).Equal(http.StatusForbidden)
	})

	status, body = c.do(http.MethodPost, "/api/v1/risks", reporterID, "", report)
	gt.Value(t, status).Equal(http.StatusCreated)
	risk := decode[riskResponse](t, body)
	gt.Bool(t, risk.Confirmed).False()
	gt.Value(t, risk.StageName).Equal(types.RiskStageUnconfirmed.String())

	t.Run("duplicate report conflicts", func(t *testing.T) {
		status, _ := c.do(http.MethodPost, "/api/v1/risks", reporterID, "", report)
		gt.Value(t, status).Equal(http.StatusConflict)
	})

	riskPath := fmt.Sprintf("/api/v1/risks/%d", risk.ID)

	t.Run("reporter cannot confirm", func(t *testing.T) {
		status, _ := c.do(http.MethodPost, riskPath+"/confirm", reporterID, "", nil)
		gt.Value(t, status).Equal(http.StatusForbidden)
	})

	status, body = c.do(http.MethodPost, riskPath+"/confirm", managerID, managers, nil)
	gt.Value(t, status).Equal(http.StatusOK)
	gt.Bool(t, decode[riskResponse](t, body).Confirmed).True()

	status, body = c.do(http.MethodGet, riskPath+"/activities", managerID, managers, nil)
	gt.Value(t, status).Equal(http.StatusOK)
	activities := decode[[]map[string]any](t, body)
	gt.Array(t, activities).Length(2)

	status, body = c.do(http.MethodPost, riskPath+"/evaluations", managerID, managers, map[string]any{
		"criteria": map[string]int{"d": 5, "o": 5, "s": 5},
		"comment":  "single source",
	})
	gt.Value(t, status).Equal(http.StatusCreated)
	eval := decode[idResponse](t, body)

	status, body = c.do(http.MethodPost, fmt.Sprintf("/api/v1/evaluations/%d/validate", eval.ID), managerID, managers, nil)
	gt.Value(t, status).Equal(http.StatusOK)
	validated := decode[riskResponse](t, body)
	gt.Value(t, validated.Status).Equal(types.RiskStatusUnacceptable.String())
	gt.Number(t, validated.Priority).Equal(1)

	status, body = c.do(http.MethodGet, riskPath+"/treatment", managerID, managers, nil)
	gt.Value(t, status).Equal(http.StatusOK)
	task := decode[struct {
		Active bool `json:"active"`
	}](t, body)
	gt.Bool(t, task.Active).True()

	status, body = c.do(http.MethodPost, riskPath+"/subtasks", managerID, managers, map[string]any{
		"name":      "Qualify second supplier",
		"criterion": "O",
	})
	gt.Value(t, status).Equal(http.StatusCreated)
	subtask := decode[idResponse](t, body)

	status, _ = c.do(http.MethodPost, fmt.Sprintf("/api/v1/subtasks/%d/close", subtask.ID), managerID, managers, nil)
	gt.Value(t, status).Equal(http.StatusOK)

	status, body = c.do(http.MethodGet, riskPath, "", "", nil)
	gt.Value(t, status).Equal(http.StatusOK)
	gt.Value(t, decode[riskResponse](t, body).StageName).Equal(types.RiskStageDone.String())

	status, body = c.do(http.MethodGet, "/api/v1/risks?unit=plant&active=true", "", "", nil)
	gt.Value(t, status).Equal(http.StatusOK)
	gt.Array(t, decode[[]riskResponse](t, body)).Length(1)

	status, body = c.do(http.MethodGet, "/api/v1/risks?kind=O", "", "", nil)
	gt.Value(t, status).Equal(http.StatusOK)
	gt.Array(t, decode[[]riskResponse](t, body)).Length(0)

	status, body = c.do(http.MethodGet, "/api/v1/profile?unit=plant", "", "", nil)
	gt.Value(t, status).Equal(http.StatusOK)
	profile := decode[struct {
		All struct {
			Threats int `json:"threats"`
		} `json:"all"`
		ByStage map[string]int `json:"by_stage"`
	}](t, body)
	gt.Number(t, profile.All.Threats).Equal(1)
	gt.Number(t, profile.ByStage[types.RiskStageDone.String()]).Equal(1)
}

func TestErrorStatus(t *testing.T) {
	c := newClient(t)

	testCases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown risk", http.MethodGet, "/api/v1/risks/999", nil, http.StatusNotFound},
		{"malformed ID", http.MethodGet, "/api/v1/risks/abc", nil, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/risk-infos", map[string]any{"name": "x", "color": "red"}, http.StatusBadRequest},
		{"missing name", http.MethodPost, "/api/v1/risk-infos", map[string]any{"short_name": "x"}, http.StatusBadRequest},
		{"invalid kind filter", http.MethodGet, "/api/v1/risks?kind=X", nil, http.StatusBadRequest},
		{"catalog owner required", http.MethodGet, "/api/v1/processes", nil, http.StatusBadRequest},
		{"sweep needs a manager", http.MethodPost, "/api/v1/review/sweep", nil, http.StatusForbidden},
		{"validation needs a manager", http.MethodPost, "/api/v1/evaluations/5/validate", nil, http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := c.do(tc.method, tc.path, reporterID, "", tc.body)
			gt.Value(t, status).Equal(tc.want)
		})
	}
}

func TestProcessCatalogOverHTTP(t *testing.T) {
	c := newClient(t)

	status, body := c.do(http.MethodPost, "/api/v1/partners", managerID, managers, map[string]any{
		"name":        "Customers",
		"is_customer": true,
	})
	gt.Value(t, status).Equal(http.StatusCreated)
	customers := decode[idResponse](t, body)

	status, body = c.do(http.MethodPost, "/api/v1/processes", managerID, managers, map[string]any{
		"name":  "Sales",
		"type":  "O",
		"owner": map[string]any{"unit_id": "plant"},
	})
	gt.Value(t, status).Equal(http.StatusCreated)
	sales := decode[idResponse](t, body)

	status, _ = c.do(http.MethodPost, "/api/v1/data", managerID, managers, map[string]any{
		"name":                 "Order",
		"owner":                map[string]any{"unit_id": "plant"},
		"provider_partner_id":  customers.ID,
		"consumer_process_ids": []int64{sales.ID},
	})
	gt.Value(t, status).Equal(http.StatusCreated)

	status, body = c.do(http.MethodGet, "/api/v1/processes?unit=plant", "", "", nil)
	gt.Value(t, status).Equal(http.StatusOK)
	processes := decode[[]struct {
		Name     string `json:"name"`
		Sequence int    `json:"sequence"`
		IsCore   bool   `json:"is_core"`
	}](t, body)
	gt.Array(t, processes).Length(1)
	gt.Bool(t, processes[0].IsCore).True()
	gt.Number(t, processes[0].Sequence).Equal(10)

	status, body = c.do(http.MethodGet, "/api/v1/processes/graph?unit=plant", "", "", nil)
	gt.Value(t, status).Equal(http.StatusOK)
	gt.Array(t, decode[[]map[string]any](t, body)).Length(1)

	t.Run("rerank keeps the stored sequence", func(t *testing.T) {
		status, body := c.do(http.MethodPost, "/api/v1/processes/rerank?unit=plant", managerID, managers, nil)
		gt.Value(t, status).Equal(http.StatusOK)
		reranked := decode[[]struct {
			Sequence int `json:"sequence"`
		}](t, body)
		gt.Array(t, reranked).Length(1)
		gt.Number(t, reranked[0].Sequence).Equal(10)

		status, _ = c.do(http.MethodPost, "/api/v1/processes/rerank?unit=plant", reporterID, "", nil)
		gt.Value(t, status).Equal(http.StatusForbidden)
	})

	t.Run("referenced partner cannot be deleted", func(t *testing.T) {
		status, _ := c.do(http.MethodDelete, fmt.Sprintf("/api/v1/partners/%d", customers.ID), managerID, managers, nil)
		gt.Value(t, status).Equal(http.StatusConflict)
	})

	t.Run("reporter cannot edit the catalog", func(t *testing.T) {
		status, _ := c.do(http.MethodPost, "/api/v1/processes", reporterID, "", map[string]any{
			"name":  "Purchasing",
			"type":  "S",
			"owner": map[string]any{"unit_id": "plant"},
		})
		gt.Value(t, status).Equal(http.StatusForbidden)
	})
}

func TestNoAuthn(t *testing.T) {
	c := newClient(t, httpctrl.WithNoAuthn(model.Actor{
		UserID: "local",
		Roles:  []types.Role{types.RoleRiskManager},
	}))

	status, body := c.do(http.MethodPost, "/api/v1/review/sweep", "", "", nil)
	gt.Value(t, status).Equal(http.StatusOK)
	result := decode[struct {
		Checked int `json:"checked"`
	}](t, body)
	gt.Number(t, result.Checked).Equal(0)

	status, body = c.do(http.MethodGet, "/api/v1/review/validate", "", "", nil)
	gt.Value(t, status).Equal(http.StatusOK)
	gt.Array(t, decode[[]map[string]any](t, body)).Length(0)
}
