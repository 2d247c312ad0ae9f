package grpc

import (
	"fmt"

	"github.com/dmitrijs2005/gophtasks/internal/api"
	"github.com/dmitrijs2005/gophtasks/internal/common"
	"github.com/dmitrijs2005/gophtasks/internal/server/feed"
	"github.com/dmitrijs2005/gophtasks/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Subscribe streams the caller's task changes. The first frame is a
// SUBSCRIBED status; a CLOSED status is sent when the server shuts the feed
// down. The stream ends when the client cancels.
func (s *GRPCServer) Subscribe(req *api.SubscribeRequest, stream grpc.ServerStreamingServer[api.FeedMessage]) error {
	ctx := stream.Context()

	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	if err := checkOwner(userID, req.UserID); err != nil {
		return err
	}
	if req.Table != common.TasksTable {
		return status.Error(codes.InvalidArgument, fmt.Sprintf("unknown table %q", req.Table))
	}
	mask, err := parseMask(req.Events)
	if err != nil {
		return err
	}

	sub := s.feed.Subscribe(userID, mask)
	defer sub.Close()

	log := s.logger.With("user_id", userID, "subscription", sub.ID)
	log.Info(ctx, "Feed subscribed")

	if err := stream.Send(&api.FeedMessage{Status: api.StatusSubscribed}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "Feed closed by client")
			return nil
		case ev, ok := <-sub.Events:
			if !ok {
				log.Info(ctx, "Feed closed by server")
				return stream.Send(&api.FeedMessage{Status: api.StatusClosed})
			}
			if err := stream.Send(&api.FeedMessage{Event: &api.ChangeEvent{
				Type:        string(ev.Type),
				Table:       ev.Table,
				TaskID:      ev.TaskID,
				UserID:      ev.UserID,
				CommittedAt: ev.CommittedAt,
			}}); err != nil {
				return err
			}
		}
	}
}

func parseMask(events []string) (feed.Mask, error) {
	types := make([]models.ChangeType, 0, len(events))
	for _, e := range events {
		switch models.ChangeType(e) {
		case models.ChangeInsert, models.ChangeUpdate, models.ChangeDelete:
			types = append(types, models.ChangeType(e))
		default:
			return 0, status.Error(codes.InvalidArgument, fmt.Sprintf("unknown event %q", e))
		}
	}
	return feed.MaskOf(types), nil
}
