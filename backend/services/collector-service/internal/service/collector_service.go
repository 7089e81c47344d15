package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"powerlog/backend/services/collector-service/internal/models"
	"powerlog/backend/services/collector-service/internal/reading"
)

const mirrorTimeout = 5 * time.Second

// ErrMirrorDisabled is returned by Recent when no database mirror is configured.
var ErrMirrorDisabled = errors.New("reading mirror disabled")

// RowAppender is the primary sink for formatted rows.
type RowAppender interface {
	Append(row models.Row) error
}

// ReadingMirror keeps a queryable copy of written rows.
type ReadingMirror interface {
	Insert(ctx context.Context, rec *models.ReadingRecord) error
	Recent(ctx context.Context, limit int) ([]models.ReadingRecord, error)
}

// LatestStore keeps the last written snapshot per topic.
type LatestStore interface {
	Save(ctx context.Context, snap models.Snapshot) error
	Latest(ctx context.Context, topic string) (*models.Snapshot, error)
}

// RowBroadcaster pushes encoded snapshots to live subscribers.
type RowBroadcaster interface {
	Broadcast(msg []byte)
}

// Stats are message counters since process start.
type Stats struct {
	Received uint64 `json:"received"`
	Written  uint64 `json:"written"`
	Rejected uint64 `json:"rejected"`
	Failed   uint64 `json:"failed"`
}

// CollectorService turns inbound payloads into CSV rows.
type CollectorService struct {
	topic  string
	csv    RowAppender
	mirror ReadingMirror
	latest LatestStore
	feed   RowBroadcaster
	logger *zap.Logger
	now    func() time.Time

	received atomic.Uint64
	written  atomic.Uint64
	rejected atomic.Uint64
	failed   atomic.Uint64
}

// NewCollectorService returns service instance. mirror and feed may be nil;
// a nil latest store falls back to an in-memory one.
func NewCollectorService(topic string, csv RowAppender, mirror ReadingMirror, latest LatestStore, feed RowBroadcaster, logger *zap.Logger) *CollectorService {
	if latest == nil {
		latest = NewMemoryLatestStore()
	}
	return &CollectorService{
		topic:  topic,
		csv:    csv,
		mirror: mirror,
		latest: latest,
		feed:   feed,
		logger: logger,
		now:    time.Now,
	}
}

// Handle processes one payload. A payload that cannot be decoded or a failed
// append produces no row; everything after the append is best effort.
func (s *CollectorService) Handle(ctx context.Context, topic string, payload []byte) error {
	s.received.Add(1)

	rd, err := reading.Decode(payload)
	if err != nil {
		s.rejected.Add(1)
		s.logger.Warn("discarding payload",
			zap.String("topic", topic),
			zap.ByteString("payload", payload),
			zap.Error(err),
		)
		return err
	}
	rd.Topic = topic
	rd.ReceivedAt = s.now().UTC()

	row := reading.FormatRow(rd)
	if err := s.csv.Append(row); err != nil {
		s.failed.Add(1)
		s.logger.Error("failed to append row", zap.String("topic", topic), zap.Error(err))
		return fmt.Errorf("append row: %w", err)
	}
	s.written.Add(1)
	s.logger.Info("row written", zap.String("topic", topic), zap.Strings("row", row.Fields()))

	s.fanOut(ctx, rd, row)
	return nil
}

func (s *CollectorService) fanOut(ctx context.Context, rd *models.Reading, row models.Row) {
	ctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()

	if s.mirror != nil {
		rec := &models.ReadingRecord{
			DeviceID:   rd.DeviceID,
			Topic:      rd.Topic,
			Row:        row,
			ReceivedAt: rd.ReceivedAt,
		}
		if err := s.mirror.Insert(ctx, rec); err != nil {
			s.logger.Warn("failed to mirror row", zap.Error(err))
		}
	}

	snap := models.Snapshot{
		DeviceID:   rd.DeviceID,
		Topic:      rd.Topic,
		ReceivedAt: rd.ReceivedAt,
		Columns:    models.Header.Fields(),
		Row:        row,
	}
	if err := s.latest.Save(ctx, snap); err != nil {
		s.logger.Warn("failed to store latest row", zap.Error(err))
	}

	if s.feed == nil {
		return
	}
	msg, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warn("failed to encode row for feed", zap.Error(err))
		return
	}
	s.feed.Broadcast(msg)
}

// Latest returns the last row written for the subscribed topic.
func (s *CollectorService) Latest(ctx context.Context) (*models.Snapshot, error) {
	return s.latest.Latest(ctx, s.topic)
}

// Recent returns up to limit mirrored rows, newest first.
func (s *CollectorService) Recent(ctx context.Context, limit int) ([]models.ReadingRecord, error) {
	if s.mirror == nil {
		return nil, ErrMirrorDisabled
	}
	return s.mirror.Recent(ctx, limit)
}

// MirrorEnabled reports whether Recent can serve rows.
func (s *CollectorService) MirrorEnabled() bool {
	return s.mirror != nil
}

// Stats returns a copy of the counters.
func (s *CollectorService) Stats() Stats {
	return Stats{
		Received: s.received.Load(),
		Written:  s.written.Load(),
		Rejected: s.rejected.Load(),
		Failed:   s.failed.Load(),
	}
}
