package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"invoice-desk/internal/cart"
	"invoice-desk/internal/catalog"
	"invoice-desk/internal/customer"
	"invoice-desk/internal/invoice"
	"invoice-desk/internal/models"
	"invoice-desk/internal/util"

	"go.uber.org/zap"
)

// Desk is the working state of one logged-in session: the catalog view,
// the cart, the customer draft and the submission flow.
type Desk struct {
	SessionID string
	User      models.User
	Catalog   *catalog.Cache
	Ledger    *cart.Ledger
	Customer  *customer.Selection
	Flow      *invoice.Flow

	lastSeen atomic.Int64
}

func (d *Desk) touch(now time.Time) {
	d.lastSeen.Store(now.UnixNano())
}

// LastSeen is when the desk was last used
func (d *Desk) LastSeen() time.Time {
	return time.Unix(0, d.lastSeen.Load())
}

type registry struct {
	mu    sync.Mutex
	desks map[string]*Desk
}

// OpenDesk returns the desk for sessionID, creating an empty one when the
// session has none yet.
func (s *DeskService) OpenDesk(sessionID string, user models.User) *Desk {
	s.desks.mu.Lock()
	defer s.desks.mu.Unlock()

	if d, ok := s.desks.desks[sessionID]; ok {
		d.touch(s.now())
		return d
	}

	ledger := cart.NewLedger()
	selection := customer.NewSelection()

	d := &Desk{
		SessionID: sessionID,
		User:      user,
		Catalog:   catalog.NewCache(s.remote, s.snapshots, s.opts.SearchDebounce),
		Ledger:    ledger,
		Customer:  selection,
	}
	d.Flow = invoice.NewFlow(invoice.Deps{
		SessionID: sessionID,
		Gateway:   s.remote,
		Ledger:    ledger,
		Customer:  selection,
		Journal:   s.journal,
		Events:    s.events,
		Timeout:   s.opts.SubmitTimeout,
	})
	d.touch(s.now())

	s.desks.desks[sessionID] = d
	util.ActiveDesks.Set(float64(len(s.desks.desks)))

	s.logger.Info("Desk opened",
		zap.String("session_id", sessionID),
		zap.String("shop_name", user.ShopName))
	return d
}

// GetDesk looks up an open desk
func (s *DeskService) GetDesk(sessionID string) (*Desk, bool) {
	s.desks.mu.Lock()
	defer s.desks.mu.Unlock()

	d, ok := s.desks.desks[sessionID]
	if ok {
		d.touch(s.now())
	}
	return d, ok
}

// CloseDesk drops a session's desk and everything in it
func (s *DeskService) CloseDesk(sessionID string) {
	s.desks.mu.Lock()
	defer s.desks.mu.Unlock()

	delete(s.desks.desks, sessionID)
	util.ActiveDesks.Set(float64(len(s.desks.desks)))
}

// SweepIdle closes desks unused for longer than the idle TTL
func (s *DeskService) SweepIdle() int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.opts.IdleTTL)

	s.desks.mu.Lock()
	defer s.desks.mu.Unlock()

	closed := 0
	for id, d := range s.desks.desks {
		if d.LastSeen().Before(cutoff) {
			delete(s.desks.desks, id)
			closed++
		}
	}
	util.ActiveDesks.Set(float64(len(s.desks.desks)))

	if closed > 0 {
		s.logger.Info("Closed idle desks", zap.Int("count", closed))
	}
	return closed
}

// RunSweeper calls SweepIdle every interval until ctx is done
func (s *DeskService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepIdle()
		}
	}
}
