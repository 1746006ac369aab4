package cart

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const MaxQuantity = 99

var (
	ErrInvalidQuantity = errors.New("cart: quantity must be between 1 and 99")
	ErrProductNotFound = errors.New("cart: product not found")
	ErrNotFound        = errors.New("cart: item not found")
)

const (
	cacheOpTimeout = 500 * time.Millisecond
	genSlots       = 256
)

type Service struct {
	repo  *Repo
	cache Cache
	log   *slog.Logger
	sfg   singleflight.Group
	// invalidations per user slot; users sharing a slot only cost a skipped fill
	gens  [genSlots]atomic.Uint64
}

func NewService(repo *Repo, cache Cache, log *slog.Logger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, cache: cache, log: log}
}

// Repo exposes the transactional helpers used by checkout and the callback.
func (s *Service) Repo() *Repo { return s.repo }

func (s *Service) Add(ctx context.Context, userID, productID uint, qty int) error {
	if qty < 1 || qty > MaxQuantity {
		return ErrInvalidQuantity
	}
	ok, err := s.repo.productExists(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}
	if err := s.repo.Upsert(ctx, userID, productID, qty); err != nil {
		return err
	}
	s.Invalidate(ctx, userID)
	return nil
}

// SetQuantity overwrites the line quantity; zero or less removes the line.
func (s *Service) SetQuantity(ctx context.Context, userID, itemID uint, qty int) error {
	if qty > MaxQuantity {
		return ErrInvalidQuantity
	}
	ok, err := s.repo.UpdateQty(ctx, userID, itemID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.Invalidate(ctx, userID)
	return nil
}

func (s *Service) Remove(ctx context.Context, userID, itemID uint) error {
	ok, err := s.repo.Delete(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.Invalidate(ctx, userID)
	return nil
}

func (s *Service) Items(ctx context.Context, userID uint) ([]Item, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Total is computed from the current rows on every call.
func (s *Service) Total(ctx context.Context, userID uint) (decimal.Decimal, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return TotalOf(items), nil
}

func (s *Service) Clear(ctx context.Context, userID uint) error {
	err := s.repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.DeleteAllTx(ctx, tx, userID)
	})
	if err != nil {
		return err
	}
	s.Invalidate(ctx, userID)
	return nil
}

// ClearTx empties the cart inside tx. The caller invalidates the cache
// after commit.
func (s *Service) ClearTx(ctx context.Context, tx *gorm.DB, userID uint) error {
	return s.repo.DeleteAllTx(ctx, tx, userID)
}

// Summary serves the badge count and total, from cache when possible.
func (s *Service) Summary(ctx context.Context, userID uint) (Summary, error) {
	v, err, _ := s.sfg.Do(strconv.FormatUint(uint64(userID), 10), func() (any, error) {
		cctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
		cached, err := s.cache.Get(cctx, userID)
		cancel()
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("cart_cache_get_failed", "user_id", userID, "err", err)
		}

		gen := s.generation(userID)
		items, err := s.repo.ListByUser(ctx, userID)
		if err != nil {
			return Summary{}, err
		}
		sum := summarize(items)
		if s.generation(userID) != gen {
			return sum, nil
		}

		cctx, cancel = context.WithTimeout(ctx, cacheOpTimeout)
		defer cancel()
		if err := s.cache.Set(cctx, userID, sum); err != nil {
			s.log.Warn("cart_cache_set_failed", "user_id", userID, "err", err)
			return sum, nil
		}
		// An Invalidate that landed while Set was in flight may have deleted
		// before we wrote.
		if s.generation(userID) != gen {
			s.dropCached(ctx, userID)
		}
		return sum, nil
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

// Invalidate drops the cached summary and moves the user's generation on,
// so a Summary load already in flight does not write its result back.
// Failures are logged only.
func (s *Service) Invalidate(ctx context.Context, userID uint) {
	s.gens[userID%genSlots].Add(1)
	s.dropCached(ctx, userID)
}

func (s *Service) generation(userID uint) uint64 {
	return s.gens[userID%genSlots].Load()
}

func (s *Service) dropCached(ctx context.Context, userID uint) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheOpTimeout)
	defer cancel()
	if err := s.cache.Delete(cctx, userID); err != nil {
		s.log.Warn("cart_cache_delete_failed", "user_id", userID, "err", err)
	}
}

func summarize(items []Item) Summary {
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	return Summary{Count: count, Total: TotalOf(items)}
}
