package market

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/betpulse/betpulse-api/internal/domain/bet"
)

// MemoryGateway is an in-memory bet.MarketGateway for tests and local
// runs without a feed.
type MemoryGateway struct {
	mu       sync.RWMutex
	open     map[string]bool
	cashouts map[uuid.UUID]int64
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		open:     make(map[string]bool),
		cashouts: make(map[uuid.UUID]int64),
	}
}

func marketKey(eventID, market string) string {
	return eventID + "|" + market
}

func (g *MemoryGateway) OpenMarket(eventID, market string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open[marketKey(eventID, market)] = true
}

func (g *MemoryGateway) CloseMarket(eventID, market string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.open, marketKey(eventID, market))
}

func (g *MemoryGateway) SetCashoutValue(betID uuid.UUID, value int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cashouts[betID] = value
}

func (g *MemoryGateway) IsMarketOpen(_ context.Context, eventID, market string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.open[marketKey(eventID, market)], nil
}

func (g *MemoryGateway) CurrentCashoutValue(_ context.Context, betID uuid.UUID) (int64, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	value, ok := g.cashouts[betID]
	return value, ok, nil
}

// MemoryCatalog is an in-memory bet.EventCatalog for tests.
type MemoryCatalog struct {
	mu     sync.RWMutex
	events map[string]bet.EventInfo
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{events: make(map[string]bet.EventInfo)}
}

func (c *MemoryCatalog) PutEvent(ev bet.EventInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[ev.ID] = ev
}

func (c *MemoryCatalog) SetStatus(eventID string, status bet.EventStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ev, ok := c.events[eventID]; ok {
		ev.Status = status
		c.events[eventID] = ev
	}
}

func (c *MemoryCatalog) GetEvent(_ context.Context, eventID string) (*bet.EventInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ev, ok := c.events[eventID]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}
