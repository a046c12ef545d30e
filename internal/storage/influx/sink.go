package influx

import (
	"context"
	"fmt"
	"math/big"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"simpleSwap/internal/model"
)

const measurement = "simpleswap"

// PointWriter is the blocking write surface of the InfluxDB client.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Config describes where points go and how to scale raw amounts.
type Config struct {
	URL       string
	Token     string
	Org       string
	Bucket    string
	Pool      string
	Decimals0 uint8
	Decimals1 uint8
}

// Sink writes one reserve point per applied operation.
type Sink struct {
	cfg    Config
	client influxdb2.Client
	writer PointWriter
}

// NewSink connects to InfluxDB with a blocking write API.
func NewSink(cfg Config) (*Sink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("influx url is required")
	}
	if cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx org and bucket are required")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Sink{cfg: cfg, client: client, writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket)}, nil
}

// NewSinkWithWriter builds a sink on an existing writer.
func NewSinkWithWriter(cfg Config, writer PointWriter) *Sink {
	return &Sink{cfg: cfg, writer: writer}
}

func (s *Sink) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// PutResults writes a point for every successful result. Failed operations
// leave the reserves unchanged and are skipped.
func (s *Sink) PutResults(ctx context.Context, results []model.OperationResult) error {
	points := make([]*write.Point, 0, len(results))
	for _, result := range results {
		if result.Status != model.StatusOK {
			continue
		}
		point, err := s.point(result)
		if err != nil {
			return err
		}
		points = append(points, point)
	}
	if len(points) == 0 {
		return nil
	}
	if err := s.writer.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("write points: %w", err)
	}
	return nil
}

func (s *Sink) point(result model.OperationResult) (*write.Point, error) {
	reserve0, err := toFloat(result.Reserve0, s.cfg.Decimals0)
	if err != nil {
		return nil, fmt.Errorf("result %s reserve0: %w", result.ID, err)
	}
	reserve1, err := toFloat(result.Reserve1, s.cfg.Decimals1)
	if err != nil {
		return nil, fmt.Errorf("result %s reserve1: %w", result.ID, err)
	}
	supply, err := toFloat(result.TotalSupply, 18)
	if err != nil {
		return nil, fmt.Errorf("result %s total supply: %w", result.ID, err)
	}

	tags := map[string]string{
		"pool": s.cfg.Pool,
		"op":   result.Op,
	}
	fields := map[string]interface{}{
		"reserve0":     reserve0,
		"reserve1":     reserve1,
		"total_supply": supply,
		"sequence":     int64(result.Sequence),
		"events":       len(result.Events),
	}
	if reserve0 > 0 {
		fields["price"] = reserve1 / reserve0
	}

	timestamp := time.Unix(int64(result.Timestamp), 0).UTC()
	return write.NewPoint(measurement, tags, fields, timestamp), nil
}

func toFloat(amount string, decimals uint8) (float64, error) {
	value, ok := new(big.Float).SetString(amount)
	if !ok {
		return 0, fmt.Errorf("invalid amount %q", amount)
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	f, _ := new(big.Float).Quo(value, scale).Float64()
	return f, nil
}
