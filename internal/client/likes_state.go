package client

import (
	"context"
	"sync"
)

// Liker is the part of the API LikeState drives. *Client implements it.
type Liker interface {
	Like(ctx context.Context, documentID int64) (int, error)
	Unlike(ctx context.Context, documentID int64) (int, error)
}

type LikeStatus struct {
	Liked bool
	Count int
}

type likeEntry struct {
	op     sync.Mutex
	status LikeStatus
}

// LikeState tracks per-document like status and applies toggles optimistically.
type LikeState struct {
	api Liker

	mu   sync.Mutex
	docs map[int64]*likeEntry
}

func NewLikeState(api Liker) *LikeState {
	return &LikeState{api: api, docs: make(map[int64]*likeEntry)}
}

// Seed records the status reported by a document listing.
func (s *LikeState) Seed(documentID int64, liked bool, count int) {
	e := s.entry(documentID)
	s.mu.Lock()
	e.status = LikeStatus{Liked: liked, Count: max(count, 0)}
	s.mu.Unlock()
}

func (s *LikeState) Get(documentID int64) LikeStatus {
	e := s.entry(documentID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.status
}

// Toggle flips the like of a document and confirms it with the server. The
// previous status is restored when the call fails.
func (s *LikeState) Toggle(ctx context.Context, documentID int64) (LikeStatus, error) {
	e := s.entry(documentID)
	e.op.Lock()
	defer e.op.Unlock()

	s.mu.Lock()
	prev := e.status
	next := LikeStatus{Liked: !prev.Liked, Count: prev.Count + 1}
	if prev.Liked {
		next.Count = max(prev.Count-1, 0)
	}
	e.status = next
	s.mu.Unlock()

	var (
		count int
		err   error
	)
	if next.Liked {
		count, err = s.api.Like(ctx, documentID)
	} else {
		count, err = s.api.Unlike(ctx, documentID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case err == nil:
		e.status.Count = max(count, 0)
	case IsCode(err, "ALREADY_LIKED"), IsCode(err, "LIKE_NOT_FOUND"):
		// The server already had the target state, so prev.Count included it.
		e.status.Count = prev.Count
	default:
		e.status = prev
		return prev, err
	}
	return e.status, nil
}

func (s *LikeState) entry(documentID int64) *likeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[documentID]
	if !ok {
		e = &likeEntry{}
		s.docs[documentID] = e
	}
	return e
}
