package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/dmoreno/shopfront/pkg/storage"
)

const (
	tooltipSeenKey  = "ui:tooltip_seen"
	snapshotVersion = 1
)

// GenericModal is a one-shot confirmation dialog. OnConfirm runs at most
// once, when the shopper confirms; closing the modal discards it.
type GenericModal struct {
	Title     string
	Message   string
	OnConfirm func()
}

// Store owns transient UI notification state: the banned-account modal,
// the generic confirmation modal, and the one-time search tooltip flag.
type Store interface {
	ShowBanned(ctx context.Context)
	HideBanned(ctx context.Context)
	BannedVisible() bool

	ShowGeneric(ctx context.Context, modal GenericModal)
	CloseGeneric(ctx context.Context)
	ConfirmGeneric(ctx context.Context)
	Generic() (GenericModal, bool)

	TooltipSeen(ctx context.Context) bool
	MarkTooltipSeen(ctx context.Context) error
}

type store struct {
	mu sync.Mutex

	banned       bool
	generic      *GenericModal
	tooltipSeen  bool
	tooltipKnown bool

	snapshots storage.Store
	logger    *logger.Logger
}

// NewStore builds the notification store. Snapshot storage backs only the
// tooltip flag; modal state is session-local and never persisted.
func NewStore(snapshots storage.Store, logg *logger.Logger) (Store, error) {
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot storage required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &store{
		snapshots: snapshots,
		logger:    logg,
	}, nil
}

func (s *store) ShowBanned(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.banned {
		s.logger.Warn(s.logger.WithComponent(ctx, "notify"), "showing banned account modal")
	}
	s.banned = true
}

func (s *store) HideBanned(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banned = false
}

func (s *store) BannedVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banned
}

func (s *store) ShowGeneric(ctx context.Context, modal GenericModal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generic = &modal
}

// CloseGeneric dismisses the modal without running its confirmation
// callback. The callback is detached so a late confirm cannot fire it.
func (s *store) CloseGeneric(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generic = nil
}

func (s *store) ConfirmGeneric(ctx context.Context) {
	s.mu.Lock()
	modal := s.generic
	s.generic = nil
	s.mu.Unlock()

	if modal != nil && modal.OnConfirm != nil {
		modal.OnConfirm()
	}
}

func (s *store) Generic() (GenericModal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generic == nil {
		return GenericModal{}, false
	}
	return *s.generic, true
}

func (s *store) TooltipSeen(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tooltipKnown {
		var seen bool
		ok, err := storage.LoadJSON(ctx, s.snapshots, tooltipSeenKey, snapshotVersion, &seen)
		if err != nil {
			s.logger.Error(s.logger.WithComponent(ctx, "notify"), "load tooltip flag", err)
		}
		s.tooltipSeen = ok && seen
		s.tooltipKnown = true
	}
	return s.tooltipSeen
}

func (s *store) MarkTooltipSeen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tooltipSeen = true
	s.tooltipKnown = true
	return storage.SaveJSON(ctx, s.snapshots, tooltipSeenKey, snapshotVersion, true)
}
