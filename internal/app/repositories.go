package app

import (
	"context"
	"errors"

	"decodex/internal/domain"
)

// errNoChange aborts a TeamRepository.Update without committing; callers treat it as success.
var errNoChange = errors.New("no change")

// TeamRepository stores team progress.
// Update loads the team, applies fn to a private copy and commits the whole record atomically.
// If fn returns an error nothing is written and the error is returned.
type TeamRepository interface {
	Create(ctx context.Context, team domain.Team) error
	Get(ctx context.Context, name string) (domain.Team, error)
	List(ctx context.Context) ([]domain.Team, error)
	Update(ctx context.Context, name string, fn func(*domain.Team) error) (domain.Team, error)
	CountCompleted(ctx context.Context) (int, error)
}

// CatalogLoader reads the full question catalog from a backing store.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
}

// CatalogReader serves immutable catalog snapshots.
type CatalogReader interface {
	Catalog(ctx context.Context) (domain.Catalog, error)
}

// CatalogCache is a CatalogReader that can drop its snapshot after authoring writes.
type CatalogCache interface {
	CatalogReader
	Invalidate(ctx context.Context) error
}

// QuestionRepository persists authoring changes.
type QuestionRepository interface {
	InsertQuestion(ctx context.Context, q domain.Question) error
	// InsertBranch stores a branch point and both of its choice questions in one unit.
	InsertBranch(ctx context.Context, q domain.Question, easy, hard domain.ChoiceQuestion) error
	SetActive(ctx context.Context, id string, active bool) error
	// DeleteChoices removes the choice questions of a branch point and clears its branch flag.
	DeleteChoices(ctx context.Context, branchID string) error
	// DeleteQuestion removes a question with its choices, clears next-question references to it
	// and renumbers the remaining ordinals contiguously.
	DeleteQuestion(ctx context.Context, id string) error
	// SetOrder assigns OrderIndex = i+1 to ids[i].
	SetOrder(ctx context.Context, ids []string) error
}

// SettingsRepository stores the GameSettings singleton.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (domain.GameSettings, error)
	SaveSettings(ctx context.Context, s domain.GameSettings) error
}

// AnnouncementRepository stores admin broadcasts.
type AnnouncementRepository interface {
	CreateAnnouncement(ctx context.Context, a domain.Announcement) error
	ListAnnouncements(ctx context.Context) ([]domain.Announcement, error)
}
