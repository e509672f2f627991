package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AutoLotSync/AutoLotSync/internal/vehicle"
)

// AgentClient 通过 HTTP-JSON 调用进程外的发布代理（poster agent）。
// 代理负责驱动浏览器完成真正的挂牌动作，本客户端只提交车辆数据
// 并取回结果，保持“单台发布 = 一次不透明调用”的边界。
type AgentClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewAgentClient 创建发布代理客户端。
// 请求节流到每 2 秒一次：代理端是单浏览器会话，本来也无法并发。
func NewAgentClient(baseURL string) *AgentClient {
	return &AgentClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			// 代理要驱动完整的浏览器流程，给足时间
			Timeout: 5 * time.Minute,
		},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// listingRequest 提交给代理的车辆数据。
type listingRequest struct {
	VehicleID   string   `json:"vehicle_id"`
	Year        string   `json:"year"`
	Make        string   `json:"make"`
	Model       string   `json:"model"`
	Trim        string   `json:"trim,omitempty"`
	VIN         string   `json:"vin,omitempty"`
	Price       string   `json:"price"`
	Mileage     string   `json:"mileage,omitempty"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
}

// listingResponse 代理返回的结果。
type listingResponse struct {
	Success    bool   `json:"success"`
	ListingURL string `json:"listingUrl,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Publish 把一台车提交给发布代理，成功时返回挂牌 URL。
func (c *AgentClient) Publish(ctx context.Context, v *vehicle.Vehicle) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("agent client not initialized")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(listingRequest{
		VehicleID:   v.ID,
		Year:        v.Year,
		Make:        v.Make,
		Model:       v.Model,
		Trim:        v.Trim,
		VIN:         v.VIN,
		Price:       v.Price,
		Mileage:     v.Mileage,
		Description: v.Description,
		Photos:      v.Photos,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/listings", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("poster agent unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("poster agent returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result listingResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("bad poster agent response: %w", err)
	}
	if !result.Success {
		if result.Error == "" {
			result.Error = "unknown publish failure"
		}
		return "", fmt.Errorf("publish failed: %s", result.Error)
	}
	return result.ListingURL, nil
}
