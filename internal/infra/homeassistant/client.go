package homeassistant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"home-voice/internal/domain"
	"home-voice/internal/infra"
)

const gradientStepPct = 20

// Entity binds a (location, subject) pair to a Home Assistant entity id
// such as "light.living_room".
type Entity struct {
	Location string
	Subject  domain.Subject
	EntityID string
}

type entityKey struct {
	location string
	subject  domain.Subject
}

// Client executes commands as Home Assistant service calls.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	entities   map[entityKey]string
	retry      infra.RetryConfig
	logger     *slog.Logger
}

func NewClient(baseURL, token string, entities []Entity, logger *slog.Logger) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		entities:   make(map[entityKey]string, len(entities)),
		retry:      infra.DefaultRetryConfig(),
		logger:     logger,
	}
	for _, e := range entities {
		c.entities[entityKey{e.Location, e.Subject}] = e.EntityID
	}
	return c
}

// WithRetry replaces the default retry policy.
func (c *Client) WithRetry(cfg infra.RetryConfig) *Client {
	c.retry = cfg
	return c
}

func (c *Client) Execute(ctx context.Context, cmd domain.Command) error {
	entityID, ok := c.entities[entityKey{cmd.Location, cmd.Subject}]
	if !ok {
		c.logger.Info("no entity mapped, skipping", "command", cmd.String())
		return nil
	}

	service, data := buildServiceCall(entityID, cmd.Action)
	if service == "" {
		c.logger.Info("action not available for entity, skipping", "command", cmd.String(), "entity", entityID)
		return nil
	}

	// "light.turn_on" -> /api/services/light/turn_on
	parts := strings.SplitN(service, ".", 2)
	path := fmt.Sprintf("/api/services/%s/%s", parts[0], parts[1])

	data["entity_id"] = entityID
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	if _, err := c.doRequest(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("calling %s: %w", service, err)
	}

	c.logger.Info("command executed", "command", cmd.String(), "service", service, "entity", entityID)
	return nil
}

func buildServiceCall(entityID string, action domain.Action) (string, map[string]any) {
	data := make(map[string]any)

	entityDomain := "light"
	if parts := strings.SplitN(entityID, ".", 2); len(parts) == 2 {
		entityDomain = parts[0]
	}

	if entityDomain == "cover" {
		if opens(action) {
			return "cover.open_cover", data
		}
		return "cover.close_cover", data
	}

	if action.Family == domain.ActionSwitch {
		if action.Switch == domain.SwitchOn {
			return entityDomain + ".turn_on", data
		}
		return entityDomain + ".turn_off", data
	}

	switch action.Gradient {
	case domain.GradientMax:
		return entityDomain + ".turn_on", data
	case domain.GradientMin:
		return entityDomain + ".turn_off", data
	}

	step := gradientStepPct
	if action.Gradient == domain.GradientLess {
		step = -step
	}
	switch entityDomain {
	case "light":
		data["brightness_step_pct"] = step
		return "light.turn_on", data
	case "fan":
		if step > 0 {
			return "fan.increase_speed", data
		}
		return "fan.decrease_speed", data
	default:
		return "", nil
	}
}

func opens(a domain.Action) bool {
	if a.Family == domain.ActionSwitch {
		return a.Switch == domain.SwitchOn
	}
	return a.Gradient == domain.GradientMax || a.Gradient == domain.GradientMore
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var respBody []byte

	err := infra.WithRetry(ctx, c.retry, func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = strings.NewReader(string(body))
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return infra.Permanent(fmt.Errorf("unauthorized: check your Home Assistant token"))
		}
		if resp.StatusCode >= 400 {
			return &infra.StatusError{Service: "home assistant", Code: resp.StatusCode, Body: string(respBody)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return respBody, nil
}
