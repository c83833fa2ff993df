package constellation

import (
	"fmt"
	"slices"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/oxygene76/exosky/internal/types"
)

// Service acknowledges custom constellations. Nothing is stored: Save only
// confirms the request.
type Service struct {
	logger log.Logger
	now    func() time.Time
}

// NewService creates a new constellation service
func NewService(logger log.Logger) *Service {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Service{logger: logger, now: time.Now}
}

// Save acknowledges a named selection of stars
func (s *Service) Save(name string, starIDs []string) types.Acknowledgement {
	ack := types.Acknowledgement{
		ID:        uuid.NewString(),
		Name:      name,
		StarIDs:   slices.Clone(starIDs),
		StarCount: len(starIDs),
		Message:   fmt.Sprintf("Constellation %q saved", name),
		Timestamp: s.now().UTC(),
	}
	if ack.StarIDs == nil {
		ack.StarIDs = []string{}
	}

	s.logger.Info("constellation saved", "id", ack.ID, "name", name, "stars", ack.StarCount)
	return ack
}

// CheckSelection verifies that every id names a star visible in view
func CheckSelection(view *types.SkyView, starIDs []string) error {
	visible := make(map[string]struct{}, len(view.Stars))
	for _, s := range view.Stars {
		visible[s.SourceID] = struct{}{}
	}

	for _, id := range starIDs {
		if _, ok := visible[id]; !ok {
			return errorsmod.Wrapf(types.ErrInvalidInput, "star %q is not visible from %s", id, view.Planet.Name)
		}
	}
	return nil
}
