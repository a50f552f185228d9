package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PubSubChannel carries odds updates for the WebSocket stream.
const PubSubChannel = "odds_updates"

func oddsKey(eventID, market string) string {
	return "odds:current:" + eventID + ":" + market
}

func cashoutKey(betID uuid.UUID) string {
	return "cashout:current:" + betID.String()
}

// RedisGateway is the odds-feed view the bet engine consults. A market is
// open while the feed keeps its quote alive in Redis; quotes expire on
// their TTL, so a stalled feed closes betting instead of serving stale
// prices. Implements bet.MarketGateway.
type RedisGateway struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGateway(client *redis.Client, ttl time.Duration) *RedisGateway {
	return &RedisGateway{client: client, ttl: ttl}
}

// IsMarketOpen reports whether a live quote exists for the market.
func (g *RedisGateway) IsMarketOpen(ctx context.Context, eventID, market string) (bool, error) {
	n, err := g.client.Exists(ctx, oddsKey(eventID, market)).Result()
	if err != nil {
		return false, fmt.Errorf("market open check: %w", err)
	}
	return n > 0, nil
}

// CurrentCashoutValue returns the feed's live valuation for a bet.
func (g *RedisGateway) CurrentCashoutValue(ctx context.Context, betID uuid.UUID) (int64, bool, error) {
	raw, err := g.client.Get(ctx, cashoutKey(betID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("cashout value: %w", err)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("cashout value parse: %w", err)
	}
	return value, true, nil
}

// GetQuote returns the cached odds for one market.
func (g *RedisGateway) GetQuote(ctx context.Context, eventID, market string) (*OddsQuote, error) {
	raw, err := g.client.Get(ctx, oddsKey(eventID, market)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoQuote
	}
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	var q OddsQuote
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}
	return &q, nil
}

// SetQuote caches a quote with the gateway TTL and broadcasts it on the
// pub/sub channel for connected stream clients.
func (g *RedisGateway) SetQuote(ctx context.Context, q OddsQuote) error {
	q.UpdatedAt = time.Now()
	b, err := json.Marshal(q)
	if err != nil {
		return err
	}
	if err := g.client.Set(ctx, oddsKey(q.EventID, q.Market), b, g.ttl).Err(); err != nil {
		return fmt.Errorf("set quote: %w", err)
	}
	return g.client.Publish(ctx, PubSubChannel, b).Err()
}

// CloseMarket drops the quote, closing the market for new bets.
func (g *RedisGateway) CloseMarket(ctx context.Context, eventID, market string) error {
	return g.client.Del(ctx, oddsKey(eventID, market)).Err()
}

// SetCashoutValue publishes a live valuation for a bet.
func (g *RedisGateway) SetCashoutValue(ctx context.Context, betID uuid.UUID, value int64) error {
	return g.client.Set(ctx, cashoutKey(betID), strconv.FormatInt(value, 10), g.ttl).Err()
}
