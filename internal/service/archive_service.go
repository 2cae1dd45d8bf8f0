package service

import (
	"context"
	"log"

	"github.com/okso-hub/scrum-poker-sub000/internal/cache"
	"github.com/okso-hub/scrum-poker-sub000/internal/model"
	"github.com/okso-hub/scrum-poker-sub000/internal/repository"
)

// ArchiveService stores session summaries after their room is torn down.
// Both backends are optional; with neither configured this is a no-op and
// the service runs fully in-memory.
type ArchiveService struct {
	repo  repository.SummaryRepo
	cache cache.SummaryCache
}

func NewArchiveService(repo repository.SummaryRepo, summaryCache cache.SummaryCache) *ArchiveService {
	return &ArchiveService{repo: repo, cache: summaryCache}
}

// Archive writes the summary best-effort. A failed write must never fail the
// summary request itself, so errors are logged and swallowed.
func (s *ArchiveService) Archive(ctx context.Context, summary *model.SessionSummary) {
	if s.repo != nil {
		if err := s.repo.Save(ctx, summary); err != nil {
			log.Printf("failed to archive summary for room %d: %v", summary.RoomID, err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			log.Printf("failed to cache summary for room %d: %v", summary.RoomID, err)
		}
	}
}

// Get reads a summary, cache first, then the repository. A nil result with
// nil error means the session was never archived.
func (s *ArchiveService) Get(ctx context.Context, roomID int64) (*model.SessionSummary, error) {
	if s.cache != nil {
		summary, err := s.cache.Get(ctx, roomID)
		if err != nil {
			log.Printf("summary cache read failed for room %d: %v", roomID, err)
		} else if summary != nil {
			return summary, nil
		}
	}
	if s.repo != nil {
		return s.repo.GetByRoomID(ctx, roomID)
	}
	return nil, nil
}
