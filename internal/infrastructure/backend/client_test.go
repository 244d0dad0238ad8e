package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"damage-portal/internal/domain/entity"
	"damage-portal/internal/domain/port"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second)
}

func TestListAndFetchImages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images":
			_, _ = io.WriteString(w, `{"images":["a.jpg","b c.jpg"]}`)
		case "/images/b c.jpg":
			_, _ = w.Write([]byte{0xff, 0xd8})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Image not found."}`)
		}
	})

	images, err := c.ListImages(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a.jpg", "b c.jpg"}, images)

	data, err := c.FetchImage(context.Background(), "b c.jpg")
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xd8}, data)

	_, err = c.FetchImage(context.Background(), "missing.jpg")
	var svcErr *entity.ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusNotFound, svcErr.Status)
	require.Equal(t, "Image not found.", err.Error())
}

func TestPredict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/predict", r.URL.Path)
		require.Equal(t, "damage", r.URL.Query().Get("task"))
		require.Equal(t, "car 1.jpg", r.URL.Query().Get("image_name"))
		_, _ = io.WriteString(w, `{"width":1000,"height":500,"predictions":[{"class_id":2,"label":"dent","confidence":0.8,"bbox":[1,2,3,4]}]}`)
	})

	res, err := c.Predict(context.Background(), "car 1.jpg", entity.TaskDamage)
	require.NoError(t, err)
	require.Equal(t, 1000.0, res.Width)
	require.Len(t, res.Predictions, 1)
	require.Equal(t, entity.BBox{X1: 1, Y1: 2, X2: 3, Y2: 4}, res.Predictions[0].BBox)
	require.Equal(t, 2, *res.Predictions[0].ClassID)
}

func TestServiceErrorDefaults(t *testing.T) {
	tests := []struct {
		name string
		body string
		call func(*Client) error
		want string
	}{
		{
			name: "predict with detail",
			body: `{"detail":"image_name is required."}`,
			call: func(c *Client) error {
				_, err := c.Predict(context.Background(), "", entity.TaskParts)
				return err
			},
			want: "image_name is required.",
		},
		{
			name: "predict without detail",
			body: `{}`,
			call: func(c *Client) error {
				_, err := c.Predict(context.Background(), "a.jpg", entity.TaskParts)
				return err
			},
			want: "Prediction failed.",
		},
		{
			name: "analysis with validation array",
			body: `{"detail":[{"msg":"field required"}]}`,
			call: func(c *Client) error {
				_, err := c.Analyze(context.Background(), "a.jpg", []string{"door"})
				return err
			},
			want: "Damage analysis failed.",
		},
		{
			name: "chat with html body",
			body: `<html>bad gateway</html>`,
			call: func(c *Client) error {
				_, err := c.Reply(context.Background(), port.ChatRequest{Report: &entity.CanonicalReport{}})
				return err
			},
			want: "Chat failed.",
		},
		{
			name: "images",
			body: ``,
			call: func(c *Client) error {
				_, err := c.ListImages(context.Background())
				return err
			},
			want: "Failed to load images from backend.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = io.WriteString(w, tt.body)
			})
			err := tt.call(c)
			require.Error(t, err)
			require.Equal(t, tt.want, err.Error())
		})
	}
}

func TestMalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})

	_, err := c.Predict(context.Background(), "a.jpg", entity.TaskParts)
	require.EqualError(t, err, "Prediction failed.")

	_, err = c.Analyze(context.Background(), "a.jpg", nil)
	require.EqualError(t, err, "Damage analysis failed.")
}

func TestAnalyze_SendsPartsAndNormalizes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/damage-analysis", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req analysisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "car.jpg", req.ImageName)
		require.Equal(t, []string{"door", "hood"}, req.Parts)
		_, _ = io.WriteString(w, `{"summary":" {\"overall_severity\":\"high\",\"items\":[{\"part\":\"door\",\"estimated_repair_cost_usd\":250}]} "}`)
	})

	rep, err := c.Analyze(context.Background(), "car.jpg", []string{"door", "hood"})
	require.NoError(t, err)
	require.Equal(t, "high", rep.OverallSeverity)
	require.Len(t, rep.Items, 1)
	require.True(t, rep.Items[0].EstimatedRepairCostUSD.Amount.Equal(decimal.NewFromInt(250)))
}

func TestReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat", r.URL.Path)
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		require.Equal(t, "car.jpg", raw["image_name"])
		items := raw["report"].(map[string]any)["items"].([]any)
		require.Equal(t, 99.5, items[0].(map[string]any)["estimated_repair_cost_usd"])
		require.Len(t, raw["messages"], 1)
		_, _ = io.WriteString(w, `{"reply":"Replace the door."}`)
	})

	reply, err := c.Reply(context.Background(), port.ChatRequest{
		ImageName: "car.jpg",
		Report: &entity.CanonicalReport{Items: []entity.Finding{
			{Part: "door", EstimatedRepairCostUSD: entity.NewAmount(decimal.RequireFromString("99.5"))},
		}},
		Messages: []entity.ChatMessage{{Role: entity.RoleUser, Content: "what now?"}},
	})
	require.NoError(t, err)
	require.Equal(t, "Replace the door.", reply)
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"images":[]}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListImages(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
