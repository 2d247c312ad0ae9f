package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/gophtasks/internal/api"
	"github.com/dmitrijs2005/gophtasks/internal/client/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type grpcSubscription struct {
	cancel context.CancelFunc
	once   sync.Once
	closed atomic.Bool
}

// Close stops the reader. It never waits for it, so it may be called from a
// callback.
func (g *grpcSubscription) Close() {
	g.once.Do(func() {
		g.closed.Store(true)
		g.cancel()
	})
}

func (s *GRPCClient) openStream(ctx context.Context, req *api.SubscribeRequest) (grpc.ServerStreamingClient[api.FeedMessage], string, error) {
	token := s.accessToken()
	stream, err := s.client.Subscribe(withAccessToken(ctx, token), req)
	return stream, token, err
}

// Subscribe opens a change feed for ch. Callbacks run on a reader goroutine
// that lives until Close, ctx cancellation, or the end of the stream.
func (s *GRPCClient) Subscribe(ctx context.Context, ch models.Channel, onEvent EventHandler, onStatus StatusHandler) (Subscription, error) {
	if ch.Filter.UserID == "" {
		return nil, errUserFilterRequired
	}

	req := &api.SubscribeRequest{Table: ch.Table, UserID: ch.Filter.UserID}
	for _, e := range ch.Events {
		req.Events = append(req.Events, string(e))
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, token, err := s.openStream(streamCtx, req)
	if err != nil {
		cancel()
		return nil, mapError(err)
	}

	sub := &grpcSubscription{cancel: cancel}
	go s.readFeed(streamCtx, sub, stream, token, req, onEvent, onStatus)
	return sub, nil
}

func (s *GRPCClient) readFeed(
	ctx context.Context,
	sub *grpcSubscription,
	stream grpc.ServerStreamingClient[api.FeedMessage],
	token string,
	req *api.SubscribeRequest,
	onEvent EventHandler,
	onStatus StatusHandler,
) {
	defer sub.cancel()

	report := func(st models.FeedStatus, err error) {
		if !sub.closed.Load() && onStatus != nil {
			onStatus(st, err)
		}
	}

	retried := false
	for {
		msg, err := stream.Recv()
		if sub.closed.Load() {
			return
		}

		if err != nil {
			if !retried && isTokenExpired(err) {
				retried = true
				if err = s.refresh(ctx, token); err == nil {
					if stream, token, err = s.openStream(ctx, req); err == nil {
						continue
					}
				}
			}
			s.reportFeedError(ctx, err, report)
			return
		}

		if msg.Event != nil {
			if onEvent != nil && !sub.closed.Load() {
				onEvent(models.ChangeEvent{
					Type:        models.EventType(msg.Event.Type),
					Table:       msg.Event.Table,
					TaskID:      msg.Event.TaskID,
					UserID:      msg.Event.UserID,
					CommittedAt: msg.Event.CommittedAt,
				})
			}
			continue
		}

		switch st := models.FeedStatus(msg.Status); st {
		case models.FeedSubscribed:
			report(st, nil)
		case models.FeedClosed, models.FeedChannelError, models.FeedTimedOut:
			report(st, nil)
			return
		default:
			s.logger.Debug(ctx, "unknown feed frame", "status", msg.Status)
		}
	}
}

func (s *GRPCClient) reportFeedError(ctx context.Context, err error, report func(models.FeedStatus, error)) {
	if errors.Is(err, io.EOF) {
		report(models.FeedClosed, errStreamEnded)
		return
	}

	code := status.Code(err)
	if code == codes.Canceled && ctx.Err() != nil {
		return
	}

	s.logger.Warn(ctx, "feed failed", "error", err)
	if code == codes.DeadlineExceeded {
		report(models.FeedTimedOut, mapError(err))
		return
	}
	report(models.FeedChannelError, mapError(err))
}

// errStreamEnded marks a feed the server finished without a CLOSED frame.
var errStreamEnded = errors.New("stream ended")
