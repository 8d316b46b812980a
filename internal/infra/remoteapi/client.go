// Package remoteapi talks to a remote appointment service over HTTP/JSON.
package remoteapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/ledger"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/pricing"
	"github.com/BruksfildServices01/studio-agenda/internal/metrics"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
	"github.com/BruksfildServices01/studio-agenda/internal/tenancy"
)

const (
	defaultTimeout = 10 * time.Second
	cachePrefix    = "agenda:remote:"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

func NewClient(baseURL, apiKey string, m *metrics.Metrics, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		metrics:    m,
		logger:     logger.With().Str("component", "remoteapi").Logger(),
	}
}

// UseRedisCache liga o cache de dados de referência (serviços).
func (c *Client) UseRedisCache(rdb *redis.Client, ttl time.Duration) {
	c.redis = rdb
	c.cacheTTL = ttl
}

// ======================================================
// WIRE TYPES
// ======================================================

type remoteError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`

	From       string          `json:"from,omitempty"`
	To         string          `json:"to,omitempty"`
	Status     string          `json:"status,omitempty"`
	MaterialID uint            `json:"material_id,omitempty"`
	Material   string          `json:"material,omitempty"`
	Available  decimal.Decimal `json:"available"`
	Requested  decimal.Decimal `json:"requested"`
}

type updatePayload struct {
	StartTime         *time.Time       `json:"start_time,omitempty"`
	EndTime           *time.Time       `json:"end_time,omitempty"`
	Notes             *string          `json:"notes,omitempty"`
	ServiceID         *uint            `json:"service_id,omitempty"`
	CustomName        *string          `json:"custom_name,omitempty"`
	CustomDescription *string          `json:"custom_description,omitempty"`
	CustomValue       *decimal.Decimal `json:"custom_value,omitempty"`
	BaseValue         *decimal.Decimal `json:"base_value,omitempty"`
	DiscountValue     *decimal.Decimal `json:"discount_value,omitempty"`
	Rating            *int             `json:"rating,omitempty"`
	RatingComment     *string          `json:"rating_comment,omitempty"`
}

func toPayload(d domain.UpdateData) updatePayload {
	p := updatePayload{
		StartTime:     d.StartTime,
		EndTime:       d.EndTime,
		Notes:         d.Notes,
		Rating:        d.Rating,
		RatingComment: d.Comment,
	}

	switch s := d.Selection.(type) {
	case domain.Predefined:
		id := s.ServiceID
		p.ServiceID = &id
	case domain.Custom:
		name, desc, value := s.Name, s.Description, s.Value
		p.CustomName = &name
		p.CustomDescription = &desc
		p.CustomValue = &value
	}

	if d.Price != nil {
		base, discount := d.Price.Base, d.Price.Discount
		p.BaseValue = &base
		p.DiscountValue = &discount
	}
	return p
}

// ======================================================
// APPOINTMENTS
// ======================================================

func (c *Client) CreateAppointment(ctx context.Context, ap *models.Appointment) (*models.Appointment, error) {
	var out models.Appointment
	if err := c.send(ctx, "create_appointment", http.MethodPost, "/v1/appointments", ap, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAppointment(ctx context.Context, id uint, data domain.UpdateData) (*models.Appointment, error) {
	var out models.Appointment
	path := fmt.Sprintf("/v1/appointments/%d", id)
	if err := c.send(ctx, "update_appointment", http.MethodPatch, path, toPayload(data), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id uint, status domain.Status) (*models.Appointment, error) {
	var out models.Appointment
	path := fmt.Sprintf("/v1/appointments/%d/status", id)
	body := map[string]string{"status": string(status)}
	if err := c.send(ctx, "update_status", http.MethodPatch, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelAppointment(ctx context.Context, id uint) error {
	path := fmt.Sprintf("/v1/appointments/%d/cancel", id)
	return c.send(ctx, "cancel_appointment", http.MethodPost, path, nil, nil)
}

func (c *Client) DeleteAppointment(ctx context.Context, id uint) error {
	path := fmt.Sprintf("/v1/appointments/%d", id)
	return c.send(ctx, "delete_appointment", http.MethodDelete, path, nil, nil)
}

func (c *Client) GetAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	var out models.Appointment
	path := fmt.Sprintf("/v1/appointments/%d", id)
	if err := c.send(ctx, "get_appointment", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAppointments(ctx context.Context, filter domain.ListFilter) ([]models.Appointment, error) {
	q := url.Values{}
	q.Set("from", filter.From.UTC().Format(time.RFC3339))
	q.Set("to", filter.To.UTC().Format(time.RFC3339))
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		q.Set("status", strings.Join(statuses, ","))
	}
	if filter.ClientID != nil {
		q.Set("client_id", strconv.FormatUint(uint64(*filter.ClientID), 10))
	}

	var wrap struct {
		Data []models.Appointment `json:"data"`
	}
	if err := c.send(ctx, "list_appointments", http.MethodGet, "/v1/appointments?"+q.Encode(), nil, &wrap); err != nil {
		return nil, err
	}
	return wrap.Data, nil
}

// ======================================================
// REFERENCE DATA
// ======================================================

func (c *Client) GetService(ctx context.Context, id uint) (*models.Service, error) {
	businessID, _ := tenancy.BusinessIDFromContext(ctx)
	cacheKey := fmt.Sprintf("%sservice:%d:%d", cachePrefix, businessID, id)

	var out models.Service
	if c.readCache(ctx, cacheKey, &out) {
		return &out, nil
	}

	path := fmt.Sprintf("/v1/services/%d", id)
	if err := c.send(ctx, "get_service", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, out)
	return &out, nil
}

// GetClient nunca usa cache: o saldo de pontos muda a cada resgate.
func (c *Client) GetClient(ctx context.Context, id uint) (*models.Client, error) {
	var out models.Client
	path := fmt.Sprintf("/v1/clients/%d", id)
	if err := c.send(ctx, "get_client", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ======================================================
// MATERIALS / LOYALTY
// ======================================================

func (c *Client) ListMaterials(ctx context.Context) ([]models.Material, error) {
	var wrap struct {
		Data []models.Material `json:"data"`
	}
	if err := c.send(ctx, "list_materials", http.MethodGet, "/v1/materials", nil, &wrap); err != nil {
		return nil, err
	}
	return wrap.Data, nil
}

func (c *Client) RecordConsumption(ctx context.Context, appointmentID uint, items []ledger.Item) ([]models.ConsumptionRecord, error) {
	var wrap struct {
		Data []models.ConsumptionRecord `json:"data"`
	}
	path := fmt.Sprintf("/v1/appointments/%d/consumption", appointmentID)
	body := map[string]any{"items": items}
	if err := c.send(ctx, "record_consumption", http.MethodPost, path, body, &wrap); err != nil {
		return nil, err
	}
	return wrap.Data, nil
}

func (c *Client) ListAvailableRewards(ctx context.Context, clientID uint) ([]pricing.RewardAvailability, error) {
	var wrap struct {
		Data []pricing.RewardAvailability `json:"data"`
	}
	path := fmt.Sprintf("/v1/clients/%d/rewards", clientID)
	if err := c.send(ctx, "list_rewards", http.MethodGet, path, nil, &wrap); err != nil {
		return nil, err
	}
	return wrap.Data, nil
}

func (c *Client) GetReward(ctx context.Context, id uint) (*models.LoyaltyReward, error) {
	var out models.LoyaltyReward
	path := fmt.Sprintf("/v1/rewards/%d", id)
	if err := c.send(ctx, "get_reward", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RedeemReward(ctx context.Context, clientID, rewardID uint, pointsCost int) error {
	path := fmt.Sprintf("/v1/clients/%d/redemptions", clientID)
	body := map[string]any{"reward_id": rewardID, "points_cost": pointsCost}
	return c.send(ctx, "redeem_reward", http.MethodPost, path, body, nil)
}

// ======================================================
// TRANSPORT
// ======================================================

func (c *Client) send(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}
	c.addHeaders(ctx, req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRemote(op, "transport_error", time.Since(start).Seconds())
		return apperr.Network(op, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveRemote(op, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode >= 500 {
		c.logger.Warn().Str("op", op).Int("status", resp.StatusCode).Msg("remote server error")
		return &apperr.NetworkError{Op: op, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Network(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// decodeError devolve o erro tipado correspondente ao corpo 4xx.
func decodeError(resp *http.Response) error {
	var re remoteError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &re); err != nil || (re.Code == "" && re.Message == "") {
		return apperr.Validation("", http.StatusText(resp.StatusCode))
	}

	switch re.Code {
	case "invalid_transition":
		return &apperr.InvalidTransitionError{From: re.From, To: re.To}
	case "immutable_state":
		return &apperr.ImmutableStateError{Status: re.Status}
	case "insufficient_stock":
		return &apperr.InsufficientStockError{
			MaterialID: re.MaterialID,
			Material:   re.Material,
			Available:  re.Available,
			Requested:  re.Requested,
		}
	}
	return apperr.Validation(re.Code, re.Message)
}

func (c *Client) addHeaders(ctx context.Context, req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if id, ok := tenancy.BusinessIDFromContext(ctx); ok {
		req.Header.Set("X-Business-ID", strconv.FormatUint(uint64(id), 10))
	}
	requestID, ok := tenancy.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)
}

// ======================================================
// CACHE
// ======================================================

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug().Err(err).Msg("cache read")
		}
		return false
	}
	return json.Unmarshal(val, out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

var _ domain.Remote = (*Client)(nil)
