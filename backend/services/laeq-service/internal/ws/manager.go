package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"noisemap/backend/libs/laeq"
)

// ResultSource computes the current trailing-hour result for a cell.
type ResultSource interface {
	Current(cellID string) (laeq.Result, error)
}

// ConnectionObserver tracks the number of open connections.
type ConnectionObserver interface {
	LiveConnections(delta float64)
}

// Frame is one live update pushed to subscribers. Levels are rounded to 0.1 dB and are
// absent only on error frames.
type Frame struct {
	Cell   string      `json:"cell"`
	At     time.Time   `json:"at"`
	Window laeq.Window `json:"window"`
	LAeq   *float64    `json:"laeq,omitempty"`
	Count  int         `json:"count"`
	Min    *float64    `json:"min,omitempty"`
	Max    *float64    `json:"max,omitempty"`
	Avg    *float64    `json:"avg,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Manager tracks live connections and pushes a fresh result to each on every tick.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	source      ResultSource
	obs         ConnectionObserver
	interval    time.Duration
	clock       func() time.Time
	logger      *zap.Logger
}

// NewManager builds connection manager.
func NewManager(source ResultSource, interval time.Duration, obs ConnectionObserver, logger *zap.Logger) *Manager {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Manager{
		connections: make(map[string]*Connection),
		source:      source,
		obs:         obs,
		interval:    interval,
		clock:       time.Now,
		logger:      logger,
	}
}

// Add registers a connection and sends it an immediate update.
func (m *Manager) Add(conn *Connection) {
	m.mu.Lock()
	m.connections[conn.ID()] = conn
	m.mu.Unlock()
	if m.obs != nil {
		m.obs.LiveConnections(1)
	}
	conn.Send(m.frame(conn.CellID()))
}

// Remove removes connection.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	_, ok := m.connections[id]
	delete(m.connections, id)
	m.mu.Unlock()
	if ok && m.obs != nil {
		m.obs.LiveConnections(-1)
	}
}

// Len returns the number of open connections.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// Start pushes updates until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.broadcast()
		}
	}
}

func (m *Manager) broadcast() {
	m.mu.RLock()
	byCell := make(map[string][]*Connection)
	for _, conn := range m.connections {
		byCell[conn.CellID()] = append(byCell[conn.CellID()], conn)
	}
	m.mu.RUnlock()

	for cell, conns := range byCell {
		frame := m.frame(cell)
		for _, conn := range conns {
			conn.Send(frame)
		}
	}
}

func (m *Manager) frame(cellID string) []byte {
	f := Frame{Cell: cellID, At: m.clock().UTC(), Window: laeq.Hourly1h}
	res, err := m.source.Current(cellID)
	if err != nil {
		f.Error = "no data for window"
		if !errors.Is(err, laeq.ErrNoData) {
			m.logger.Warn("live computation failed", zap.String("cell", cellID), zap.Error(err))
			f.Error = err.Error()
		}
	} else {
		f.LAeq = rounded(res.LAeqDb)
		f.Count = res.Count
		f.Min = rounded(res.MinDb)
		f.Max = rounded(res.MaxDb)
		f.Avg = rounded(res.AvgDb)
	}
	data, _ := json.Marshal(f)
	return data
}

func rounded(v float64) *float64 {
	r := laeq.Round1(v)
	return &r
}
