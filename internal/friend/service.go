package friend

import (
	"context"
	"errors"
	"log/slog"

	"chatline/internal/apperr"
	"chatline/internal/realtime"
	"chatline/internal/user"
)

// PairChats is the slice of the chat layer the state machine drives: hiding
// and unhiding the pair's one-to-one chat.
type PairChats interface {
	ReactivatePair(ctx context.Context, userA, userB string) error
	DeactivatePair(ctx context.Context, userA, userB string) error
}

// UserFinder resolves counterpart summaries for the query projections.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

// Service owns friend-request transitions for unordered user pairs and the
// coupled activation state of the pair's one-to-one chat.
type Service interface {
	SendRequest(ctx context.Context, senderID, receiverID string) (*Request, error)
	Accept(ctx context.Context, acceptorID, requestID string) (*Request, error)
	Reject(ctx context.Context, rejectorID, requestID string) error
	Unfollow(ctx context.Context, initiatorID, counterpartID string) error

	PendingForMe(ctx context.Context, userID string) ([]*Friend, error)
	SentByMe(ctx context.Context, userID string) ([]*Friend, error)
	ActiveFriends(ctx context.Context, userID string) ([]*Friend, error)
}

type service struct {
	repo    Repository
	chats   PairChats
	users   UserFinder
	emitter realtime.Emitter
}

// NewService creates a new friend service.
func NewService(repo Repository, chats PairChats, users UserFinder, emitter realtime.Emitter) Service {
	return &service{repo: repo, chats: chats, users: users, emitter: emitter}
}

// SendRequest moves the pair to pending. An existing accepted or rejected
// document is reused in place with sender/receiver re-pointed to the new
// direction; an existing pending one fails. Two concurrent first sends both
// pass the lookup, and the unique pair index decides the race.
func (s *service) SendRequest(ctx context.Context, senderID, receiverID string) (*Request, error) {
	if receiverID == "" {
		return nil, apperr.Validation("receiverId is required")
	}
	if senderID == receiverID {
		return nil, apperr.Validation("cannot send request to yourself")
	}

	existing, err := s.repo.FindByPair(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	var request *Request
	if existing != nil {
		if existing.Status == StatusPending {
			return nil, apperr.Validation("friend request already pending")
		}
		if err := s.repo.Repoint(ctx, existing.ID, senderID, receiverID); err != nil {
			return nil, err
		}
		existing.Status = StatusPending
		existing.Sender = senderID
		existing.Receiver = receiverID
		request = existing
	} else {
		request = &Request{Sender: senderID, Receiver: receiverID}
		err := s.repo.Insert(ctx, request)
		if errors.Is(err, ErrDuplicatePair) {
			return nil, apperr.Validation("friend request already pending")
		}
		if err != nil {
			return nil, err
		}
	}

	s.emitter.Emit(receiverID, realtime.NewFriendRequest(realtime.NewFriendRequestPayload{
		RequestID: request.ID,
		SenderID:  senderID,
		Status:    StatusPending,
	}))
	return request, nil
}

// Accept sets the request to accepted and, as a coupled side effect,
// unhides the pair's one-to-one chat for both users, restoring its history.
func (s *service) Accept(ctx context.Context, acceptorID, requestID string) (*Request, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, apperr.NotFound("friend request not found")
	}
	if request.Receiver != acceptorID {
		return nil, apperr.Authorization("not authorized to accept this request")
	}

	if err := s.repo.SetStatus(ctx, requestID, StatusAccepted); err != nil {
		return nil, err
	}
	request.Status = StatusAccepted

	if err := s.chats.ReactivatePair(ctx, request.Sender, request.Receiver); err != nil {
		slog.Warn("failed to reactivate pair chat", slog.String("request", requestID),
			slog.Any("error", err))
	}

	s.emitter.Emit(request.Sender, realtime.FriendStatusUpdate(realtime.FriendStatusPayload{
		RequestID:  request.ID,
		ReceiverID: acceptorID,
		Status:     StatusAccepted,
	}))
	return request, nil
}

// Reject sets the request to rejected. Chat activation is untouched.
func (s *service) Reject(ctx context.Context, rejectorID, requestID string) error {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return apperr.NotFound("friend request not found")
	}
	if request.Receiver != rejectorID {
		return apperr.Authorization("you cannot reject this request")
	}

	if err := s.repo.SetStatus(ctx, requestID, StatusRejected); err != nil {
		return err
	}

	s.emitter.Emit(request.Sender, realtime.FriendStatusUpdate(realtime.FriendStatusPayload{
		RequestID:  request.ID,
		ReceiverID: rejectorID,
		Status:     StatusRejected,
	}))
	return nil
}

// Unfollow returns the pair to none: an accepted request, if present, is
// deleted outright, and the pair chat, if present, is hidden for both users.
// The two effects are independent and each may be a no-op; the operation
// succeeds either way.
func (s *service) Unfollow(ctx context.Context, initiatorID, counterpartID string) error {
	if counterpartID == "" {
		return apperr.Validation("friendId is required")
	}

	request, err := s.repo.FindAcceptedPair(ctx, initiatorID, counterpartID)
	if err != nil {
		return err
	}
	if request != nil {
		if err := s.repo.Delete(ctx, request.ID); err != nil {
			return err
		}
	}

	return s.chats.DeactivatePair(ctx, initiatorID, counterpartID)
}

func (s *service) PendingForMe(ctx context.Context, userID string) ([]*Friend, error) {
	requests, err := s.repo.FindPendingForReceiver(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, requests, func(r *Request) string { return r.Sender })
}

func (s *service) SentByMe(ctx context.Context, userID string) ([]*Friend, error) {
	requests, err := s.repo.FindSentBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, requests, func(r *Request) string { return r.Receiver })
}

func (s *service) ActiveFriends(ctx context.Context, userID string) ([]*Friend, error) {
	requests, err := s.repo.FindAcceptedFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, requests, func(r *Request) string {
		if r.Sender == userID {
			return r.Receiver
		}
		return r.Sender
	})
}

// project maps request documents to counterpart summaries. A counterpart
// that fails to resolve is skipped rather than failing the whole list.
func (s *service) project(ctx context.Context, requests []*Request, pick func(*Request) string) ([]*Friend, error) {
	friends := make([]*Friend, 0, len(requests))
	for _, r := range requests {
		u, err := s.users.FindByID(ctx, pick(r))
		if err != nil {
			slog.Warn("failed to resolve friend", slog.String("request", r.ID), slog.Any("error", err))
			continue
		}
		friends = append(friends, &Friend{
			Summary:   u.Summary(),
			Email:     u.Email,
			Status:    r.Status,
			RequestID: r.ID,
		})
	}
	return friends, nil
}
