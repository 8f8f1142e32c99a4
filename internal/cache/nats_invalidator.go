package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/annel0/noisefield/internal/logging"
)

// InvalidationHandler удаляет поле из локального кеша по ключу.
type InvalidationHandler func(ctx context.Context, key string) error

// InvalidatorConfig содержит настройки рассылки инвалидаций между репликами.
type InvalidatorConfig struct {
	NATSURL       string        `yaml:"nats_url"`
	Subject       string        `yaml:"subject"`
	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	// Окно, в котором повторно доставленное сообщение игнорируется.
	DedupeWindow time.Duration `yaml:"dedupe_window"`
	// Время на обработку одного сообщения локальным кешем.
	HandleTimeout time.Duration `yaml:"handle_timeout"`
}

func (c *InvalidatorConfig) applyDefaults() {
	if c.Subject == "" {
		c.Subject = "noisefield.fields.invalidate"
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = 10
	}
	if c.ReconnectWait == 0 {
		c.ReconnectWait = 2 * time.Second
	}
	if c.DedupeWindow == 0 {
		c.DedupeWindow = 30 * time.Second
	}
	if c.HandleTimeout == 0 {
		c.HandleTimeout = 5 * time.Second
	}
}

// InvalidationMessage — сообщение об удалении поля, рассылаемое репликам.
type InvalidationMessage struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	NodeID    string    `json:"node_id"`
	Timestamp time.Time `json:"timestamp"`
}

// InvalidatorStats — счётчики для /api/stats.
type InvalidatorStats struct {
	NodeID    string `json:"node_id"`
	Published int64  `json:"published"`
	Received  int64  `json:"received"`
	Applied   int64  `json:"applied"`
	Errors    int64  `json:"errors"`
	Connected bool   `json:"connected"`
}

// NATSInvalidator рассылает ключи удалённых полей другим экземплярам
// сервиса и применяет их рассылки к локальному кешу. Свои сообщения
// и повторные доставки пропускаются.
type NATSInvalidator struct {
	conn   *nats.Conn
	config InvalidatorConfig
	nodeID string

	mu      sync.Mutex
	sub     *nats.Subscription
	handler InvalidationHandler
	seen    map[string]time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	published atomic.Int64
	received  atomic.Int64
	applied   atomic.Int64
	errors    atomic.Int64
}

// NewNATSInvalidator подключается к NATS. Пустой nodeID заменяется случайным.
func NewNATSInvalidator(config InvalidatorConfig, nodeID string) (*NATSInvalidator, error) {
	config.applyDefaults()
	log := logging.GetCacheLogger()

	conn, err := nats.Connect(config.NATSURL,
		nats.Name("noisefield"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n := newInvalidator(conn, config, nodeID)
	n.startDedupeCleanup()
	log.Info("NATS invalidator connected: %s (subject: %s, node: %s)", config.NATSURL, config.Subject, n.nodeID)
	return n, nil
}

func newInvalidator(conn *nats.Conn, config InvalidatorConfig, nodeID string) *NATSInvalidator {
	config.applyDefaults()
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	return &NATSInvalidator{
		conn:   conn,
		config: config,
		nodeID: nodeID,
		seen:   make(map[string]time.Time),
		stop:   make(chan struct{}),
	}
}

// NodeID возвращает идентификатор этого экземпляра.
func (n *NATSInvalidator) NodeID() string {
	return n.nodeID
}

// PublishInvalidation сообщает остальным репликам, что поле key удалено.
func (n *NATSInvalidator) PublishInvalidation(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(InvalidationMessage{
		ID:        uuid.NewString(),
		Key:       key,
		NodeID:    n.nodeID,
		Timestamp: time.Now(),
	})
	if err != nil {
		n.errors.Add(1)
		return fmt.Errorf("failed to marshal invalidation: %w", err)
	}
	if err := n.conn.Publish(n.config.Subject, data); err != nil {
		n.errors.Add(1)
		return fmt.Errorf("failed to publish invalidation for %s: %w", key, err)
	}
	n.published.Add(1)
	logging.GetCacheLogger().Debug("Published invalidation for field %s", key)
	return nil
}

// Subscribe применяет чужие инвалидации через handler до отмены ctx или Close.
func (n *NATSInvalidator) Subscribe(ctx context.Context, handler InvalidationHandler) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sub != nil {
		return fmt.Errorf("already subscribed to %s", n.config.Subject)
	}

	n.handler = handler
	sub, err := n.conn.Subscribe(n.config.Subject, n.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", n.config.Subject, err)
	}
	n.sub = sub

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		select {
		case <-ctx.Done():
		case <-n.stop:
		}
		n.unsubscribe()
	}()

	logging.GetCacheLogger().Info("Subscribed to field invalidations on %s", n.config.Subject)
	return nil
}

func (n *NATSInvalidator) handleMessage(msg *nats.Msg) {
	n.received.Add(1)
	log := logging.GetCacheLogger()

	var m InvalidationMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil || m.Key == "" {
		n.errors.Add(1)
		log.Warn("Malformed invalidation message dropped: %v", err)
		return
	}
	if m.NodeID == n.nodeID {
		return
	}
	if !n.markSeen(m.ID) {
		log.Debug("Duplicate invalidation %s for field %s", m.ID, m.Key)
		return
	}

	n.mu.Lock()
	handler := n.handler
	n.mu.Unlock()
	if handler == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.config.HandleTimeout)
	defer cancel()
	if err := handler(ctx, m.Key); err != nil {
		n.errors.Add(1)
		log.Error("Invalidation of field %s from node %s failed: %v", m.Key, m.NodeID, err)
		return
	}
	n.applied.Add(1)
	log.Debug("Field %s invalidated by node %s", m.Key, m.NodeID)
}

// markSeen запоминает id сообщения и сообщает, встретилось ли оно впервые.
func (n *NATSInvalidator) markSeen(id string) bool {
	if id == "" {
		return true
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if at, ok := n.seen[id]; ok && time.Since(at) < n.config.DedupeWindow {
		return false
	}
	n.seen[id] = time.Now()
	return true
}

func (n *NATSInvalidator) startDedupeCleanup() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ticker := time.NewTicker(n.config.DedupeWindow)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n.cleanupSeen()
			case <-n.stop:
				return
			}
		}
	}()
}

func (n *NATSInvalidator) cleanupSeen() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, at := range n.seen {
		if time.Since(at) >= n.config.DedupeWindow {
			delete(n.seen, id)
		}
	}
}

func (n *NATSInvalidator) unsubscribe() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sub == nil {
		return
	}
	if err := n.sub.Unsubscribe(); err != nil {
		logging.GetCacheLogger().Warn("Failed to unsubscribe from %s: %v", n.config.Subject, err)
	}
	n.sub = nil
}

// Stats возвращает счётчики инвалидатора.
func (n *NATSInvalidator) Stats() InvalidatorStats {
	return InvalidatorStats{
		NodeID:    n.nodeID,
		Published: n.published.Load(),
		Received:  n.received.Load(),
		Applied:   n.applied.Load(),
		Errors:    n.errors.Load(),
		Connected: n.conn != nil && n.conn.IsConnected(),
	}
}

// Close отписывается и закрывает соединение.
func (n *NATSInvalidator) Close() error {
	n.once.Do(func() {
		close(n.stop)
		n.wg.Wait()
		n.unsubscribe()
		if n.conn != nil {
			n.conn.Close()
		}
		logging.GetCacheLogger().Info("NATS invalidator closed")
	})
	return nil
}
