package match

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/logger"
	"github.com/oggyb/matchmaker/internal/metrics"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/utils/pagination"
)

const (
	defaultCandidateLimit = 10
	defaultMatchesPage    = 20
)

// SwipeResult is the outcome of a recorded swipe.
type SwipeResult struct {
	IsMatch bool
}

// Service implements candidate selection, swipe recording and match listing.
// It contains the business logic on top of repository and cache layers.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	swipes *repository.SwipeRepository
	rule   CompatibilityRule
	now    func() time.Time
}

// NewMatchService creates a new match service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via UserRepository and SwipeRepository)
//   - RedisCache for match counts and the swipe rate window
//   - the gender rule, parsed from config
func NewMatchService(appCtx *app.AppContext, rule CompatibilityRule) *Service {
	if rule == nil {
		rule = DefaultGenderMatrix()
	}
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		swipes: repository.NewSwipeRepository(appCtx.DB),
		rule:   rule,
		now:    time.Now,
	}
}

// SelectCandidates returns up to limit users the requester may swipe on.
//
// Behavior:
//   - Unknown requester → NotFound.
//   - Genders come from the compatibility rule; no eligible gender → empty list.
//   - Already-swiped users and the requester are excluded.
//   - Same location first, then newest accounts.
//   - limit <= 0 uses the configured default; large values are capped.
//
// Example:
//
//	svc.SelectCandidates(ctx, 1, 0) // first 10 candidates for user 1
func (s *Service) SelectCandidates(ctx context.Context, requesterID uint64, limit int) ([]repository.Candidate, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	limit = s.candidateLimit(limit)

	requester, err := s.users.FindByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotFound("user not found")
		}
		log.Error("load requester failed", "user_id", requesterID, "err", err)
		return nil, svcErr.Map(err)
	}

	candidates, err := s.users.ListCandidates(ctx, repository.CandidateQuery{
		RequesterID: requesterID,
		Genders:     s.rule.EligibleGenders(requester),
		LocationID:  requester.CurrentLocationID,
		Limit:       limit,
	})
	if err != nil {
		log.Error("list candidates failed", "user_id", requesterID, "err", err)
		return nil, svcErr.Map(err)
	}

	log.Debug("candidates selected", "user_id", requesterID, "count", len(candidates))
	return candidates, nil
}

// RecordSwipe stores swiper's judgment of target and reports whether it
// completed a match.
//
// Behavior:
//   - Bad direction, self-swipe or unknown target are rejected before any write.
//   - A repeat swipe on the same target → AlreadyExists; the first one stands.
//   - A like answered by an earlier like from target flags both rows as a
//     match in the same transaction.
//   - Deadlocks and lock wait timeouts replay the transaction.
//
// Example:
//
//	svc.RecordSwipe(ctx, 1, 2, db.DirectionLike) // user 1 likes user 2
func (s *Service) RecordSwipe(ctx context.Context, swiperID, targetID uint64, direction db.Direction) (SwipeResult, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)

	if !direction.Valid() || targetID == 0 {
		metrics.SwipeRejections.WithLabelValues("invalid").Inc()
		return SwipeResult{}, svcErr.InvalidArgument("targetId and direction (like/nope) are required")
	}
	if swiperID == targetID {
		metrics.SwipeRejections.WithLabelValues("invalid").Inc()
		return SwipeResult{}, svcErr.InvalidArgument("cannot swipe on yourself")
	}
	if err := s.allowSwipe(ctx, swiperID); err != nil {
		metrics.SwipeRejections.WithLabelValues("rate_limited").Inc()
		return SwipeResult{}, err
	}

	var (
		matched  bool
		attempts int
	)
	err := repository.WithTx(ctx, s.appCtx.DB, s.appCtx.Config.Match.SwipeRetries, func(tx *gorm.DB) error {
		attempts++
		matched = false

		locked, err := s.users.Tx(tx).LockPair(ctx, swiperID, targetID)
		if err != nil {
			return err
		}
		if locked < 2 {
			return svcErr.NotFound("target user not found")
		}

		swipes := s.swipes.Tx(tx)
		if err := swipes.Insert(ctx, swiperID, targetID, direction); err != nil {
			return err
		}
		if direction != db.DirectionLike {
			return nil
		}

		liked, err := swipes.HasLiked(ctx, targetID, swiperID)
		if err != nil || !liked {
			return err
		}
		if err := swipes.MarkMatched(ctx, swiperID, targetID, s.now().UTC().Truncate(time.Millisecond)); err != nil {
			return err
		}
		matched = true
		return nil
	})
	if attempts > 1 {
		metrics.SwipeRetries.Add(float64(attempts - 1))
	}
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			metrics.SwipeRejections.WithLabelValues("duplicate").Inc()
			return SwipeResult{}, svcErr.AlreadyExists("already swiped on this user")
		case svcErr.Is(err, svcErr.KindNotFound):
			metrics.SwipeRejections.WithLabelValues("not_found").Inc()
			return SwipeResult{}, err
		}
		log.Error("record swipe failed", "swiper", swiperID, "target", targetID, "attempts", attempts, "err", err)
		return SwipeResult{}, svcErr.Map(err)
	}

	metrics.Swipes.WithLabelValues(string(direction)).Inc()
	if matched {
		metrics.Matches.Inc()
		// counts are rebuilt from the DB on next read
		if err := s.appCtx.RedisCache.InvalidateMatchCounts(ctx, swiperID, targetID); err != nil {
			log.Warn("invalidate match counts failed", "swiper", swiperID, "target", targetID, "err", err)
		}
		log.Info("match created", "swiper", swiperID, "target", targetID)
	}

	return SwipeResult{IsMatch: matched}, nil
}

// ListMatches returns the caller's matches, newest first, one page at a time.
func (s *Service) ListMatches(ctx context.Context, userID uint64, paginationToken *string) ([]repository.MatchEntry, *string, error) {
	pageSize := s.appCtx.Config.Match.MatchesPageSize
	if pageSize <= 0 {
		pageSize = defaultMatchesPage
	}

	if paginationToken != nil {
		if _, err := pagination.Decode(*paginationToken); err != nil {
			return nil, nil, svcErr.InvalidArgument("invalid pagination token")
		}
	}

	entries, next, err := s.swipes.ListMatches(ctx, userID, paginationToken, pageSize)
	if err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Error("list matches failed", "user_id", userID, "err", err)
		return nil, nil, svcErr.Map(err)
	}
	return entries, next, nil
}

// CountMatches returns how many matches the user has.
// Cache-first strategy:
//  1. Attempts to read from Redis (matches:count:userID).
//  2. If cache miss or Redis error, falls back to DB via repository.CountMatches.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) CountMatches(ctx context.Context, userID uint64) (int64, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)

	n, ok, err := s.appCtx.RedisCache.GetMatchCount(ctx, userID)
	if err != nil {
		log.Warn("match count cache read failed", "user_id", userID, "err", err)
	}
	if ok {
		metrics.MatchCountCacheHits.Inc()
		return n, nil
	}
	metrics.MatchCountCacheMisses.Inc()

	count, err := s.swipes.CountMatches(ctx, userID)
	if err != nil {
		log.Error("count matches failed", "user_id", userID, "err", err)
		return 0, svcErr.Map(err)
	}

	if err := s.appCtx.RedisCache.SetMatchCount(ctx, userID, count); err != nil {
		log.Warn("match count cache write failed", "user_id", userID, "err", err)
	}
	return count, nil
}

// allowSwipe enforces the per-minute swipe budget. Redis trouble lets the
// swipe through.
func (s *Service) allowSwipe(ctx context.Context, swiperID uint64) error {
	limit := s.appCtx.Config.Match.SwipeRatePerMin
	if limit <= 0 || s.appCtx.RedisCache == nil {
		return nil
	}

	count, err := s.appCtx.RedisCache.IncrementSwipeWindow(ctx, swiperID, s.now())
	if err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Warn("swipe rate check failed", "swiper", swiperID, "err", err)
		return nil
	}
	if count > int64(limit) {
		return svcErr.ResourceExhausted("too many swipes, slow down (limit " + strconv.Itoa(limit) + "/min)")
	}
	return nil
}

func (s *Service) candidateLimit(limit int) int {
	cfg := s.appCtx.Config.Match
	if limit <= 0 {
		limit = cfg.CandidateLimit
	}
	if limit <= 0 {
		limit = defaultCandidateLimit
	}
	if cfg.CandidateMaxLimit > 0 && limit > cfg.CandidateMaxLimit {
		limit = cfg.CandidateMaxLimit
	}
	return limit
}
