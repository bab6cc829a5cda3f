package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	"github.com/fd1az/cex-arb/internal/logger"
)

// Default Redis targets for published opportunities.
const (
	OpportunityChannel = "cexarb:opportunities"
	OpportunityStream  = "cexarb:opportunities:stream"

	// streamMaxLen trims the stream via XADD MAXLEN ~.
	streamMaxLen int64 = 10000
)

// RedisPublisher pushes ranked opportunities to Redis. Each round is
// published once on a Pub/Sub channel for live consumers and appended to
// a capped stream for late joiners.
type RedisPublisher struct {
	rdb *redis.Client
	log logger.LoggerInterface
}

// RedisConfig holds connection parameters for the publisher.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisPublisher connects and pings the Redis server.
func NewRedisPublisher(ctx context.Context, cfg RedisConfig, log logger.LoggerInterface) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("publisher: ping: %w", err)
	}

	return &RedisPublisher{
		rdb: rdb,
		log: log.With("component", "redis_publisher"),
	}, nil
}

// publishedOpportunity is the wire form of one opportunity.
type publishedOpportunity struct {
	Kind          string `json:"kind"`
	Description   string `json:"description"`
	NetProfitRate string `json:"net_profit_rate"`
}

type publishedRound struct {
	Timestamp     time.Time              `json:"timestamp"`
	Opportunities []publishedOpportunity `json:"opportunities"`
}

// Publish serializes the round and sends it to the channel and stream.
func (p *RedisPublisher) Publish(ctx context.Context, opps []domain.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}

	round := publishedRound{
		Timestamp:     time.Now().UTC(),
		Opportunities: make([]publishedOpportunity, 0, len(opps)),
	}
	for _, opp := range opps {
		round.Opportunities = append(round.Opportunities, publishedOpportunity{
			Kind:          string(opp.Kind()),
			Description:   opp.Describe(),
			NetProfitRate: opp.NetProfitRate().String(),
		})
	}

	payload, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("publisher: marshal round: %w", err)
	}

	if err := p.rdb.Publish(ctx, OpportunityChannel, payload).Err(); err != nil {
		return fmt.Errorf("publisher: publish %s: %w", OpportunityChannel, err)
	}

	args := &redis.XAddArgs{
		Stream: OpportunityStream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": payload},
	}
	if err := p.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publisher: stream append %s: %w", OpportunityStream, err)
	}

	p.log.Debug(ctx, "round published", "opportunities", len(opps))
	return nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
