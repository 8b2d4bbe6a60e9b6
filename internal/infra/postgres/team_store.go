package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"decodex/internal/domain"
	"github.com/uptrace/bun"
)

// TeamStore keeps teams in Postgres. Update locks the row with SELECT ... FOR UPDATE.
type TeamStore struct {
	db         *bun.DB
	maxRetries int
}

// finishLockKey is the advisory lock that serializes completions across server instances.
const finishLockKey = 0x6465636f

const defaultMaxRetries = 16

// errRankTaken rolls back an update whose finish rank another team claimed first.
var errRankTaken = errors.New("completion rank taken")

func NewTeamStore(db *bun.DB) *TeamStore {
	return &TeamStore{db: db, maxRetries: defaultMaxRetries}
}

func (s *TeamStore) Create(ctx context.Context, team domain.Team) error {
	row := teamFromDomain(team)
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTeamExists
		}
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

func (s *TeamStore) Get(ctx context.Context, name string) (domain.Team, error) {
	row := new(teamRow)
	err := s.db.NewSelect().Model(row).Where("name = ?", name).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Team{}, domain.ErrTeamNotFound
	}
	if err != nil {
		return domain.Team{}, fmt.Errorf("get team %s: %w", name, err)
	}
	return row.toDomain(), nil
}

func (s *TeamStore) List(ctx context.Context) ([]domain.Team, error) {
	var rows []teamRow
	if err := s.db.NewSelect().Model(&rows).Order("created_at ASC", "name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	teams := make([]domain.Team, 0, len(rows))
	for i := range rows {
		teams = append(teams, rows[i].toDomain())
	}
	return teams, nil
}

// Update applies fn to the locked row. When fn finishes the team, the transaction also takes
// the finish lock and checks the rank against the committed finishers; if another instance got
// there first the whole update is retried so fn sees the new count.
func (s *TeamStore) Update(ctx context.Context, name string, fn func(*domain.Team) error) (domain.Team, error) {
	for i := 0; i < s.maxRetries; i++ {
		out, err := s.update(ctx, name, fn)
		if !errors.Is(err, errRankTaken) {
			return out, err
		}
		if ctx.Err() != nil {
			return domain.Team{}, ctx.Err()
		}
	}
	return domain.Team{}, fmt.Errorf("team %s kept losing its completion rank: %w", name, domain.ErrUnavailable)
}

func (s *TeamStore) update(ctx context.Context, name string, fn func(*domain.Team) error) (domain.Team, error) {
	var out domain.Team
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		row := new(teamRow)
		err := tx.NewSelect().Model(row).Where("name = ?", name).For("UPDATE").Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrTeamNotFound
		}
		if err != nil {
			return fmt.Errorf("lock team %s: %w", name, err)
		}

		current := row.toDomain()
		next := current.Clone()
		if err := fn(&next); err != nil {
			return err
		}
		next.Name = current.Name
		next.Version = current.Version + 1

		if next.Finished() && !current.Finished() {
			if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(?)", finishLockKey); err != nil {
				return fmt.Errorf("take finish lock: %w", err)
			}
			done, err := tx.NewSelect().Model((*teamRow)(nil)).
				Where("completion_time IS NOT NULL").
				Where("name <> ?", name).
				Count(ctx)
			if err != nil {
				return fmt.Errorf("count completed teams: %w", err)
			}
			if next.CompletionRank != done+1 {
				return errRankTaken
			}
		}

		if _, err := tx.NewUpdate().Model(teamFromDomain(next)).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("update team %s: %w", name, err)
		}
		out = next
		return nil
	})
	if err != nil {
		return domain.Team{}, err
	}
	return out, nil
}

func (s *TeamStore) CountCompleted(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*teamRow)(nil)).Where("completion_time IS NOT NULL").Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count completed teams: %w", err)
	}
	return n, nil
}
