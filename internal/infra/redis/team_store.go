package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"decodex/internal/domain"
	"github.com/redis/go-redis/v9"
)

// TeamStore keeps each team as one JSON document and commits updates with WATCH/MULTI.
// Keys:
//
//	decodex:team:{name}        team document
//	decodex:teams              SET of team names
//	decodex:team-emails        HASH email -> name
//	decodex:teams:completed    SET of finished team names
type TeamStore struct {
	client     *redis.Client
	maxRetries int
}

const (
	teamNamesKey     = "decodex:teams"
	teamEmailsKey    = "decodex:team-emails"
	teamsCompleteKey = "decodex:teams:completed"

	defaultMaxRetries = 16
)

// storedTeam carries the password hash, which domain.Team never serializes.
type storedTeam struct {
	domain.Team
	PasswordHash string `json:"passwordHash"`
}

func NewTeamStore(client *redis.Client) *TeamStore {
	return &TeamStore{client: client, maxRetries: defaultMaxRetries}
}

func (s *TeamStore) Create(ctx context.Context, team domain.Team) error {
	key := s.key(team.Name)
	email := strings.ToLower(team.Email)
	raw, err := encodeTeam(team)
	if err != nil {
		return err
	}

	return s.retry(ctx, func() error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if exists > 0 {
				return domain.ErrTeamExists
			}
			if email != "" {
				taken, err := tx.HExists(ctx, teamEmailsKey, email).Result()
				if err != nil {
					return err
				}
				if taken {
					return domain.ErrTeamExists
				}
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, raw, 0)
				pipe.SAdd(ctx, teamNamesKey, team.Name)
				if email != "" {
					pipe.HSet(ctx, teamEmailsKey, email, team.Name)
				}
				if team.Finished() {
					pipe.SAdd(ctx, teamsCompleteKey, team.Name)
				}
				return nil
			})
			return err
		}, key, teamEmailsKey)
	})
}

func (s *TeamStore) Get(ctx context.Context, name string) (domain.Team, error) {
	raw, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Team{}, domain.ErrTeamNotFound
	}
	if err != nil {
		return domain.Team{}, fmt.Errorf("get team %s: %w", name, err)
	}
	return decodeTeam(raw)
}

func (s *TeamStore) List(ctx context.Context) ([]domain.Team, error) {
	names, err := s.client.SMembers(ctx, teamNamesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list team names: %w", err)
	}
	if len(names) == 0 {
		return []domain.Team{}, nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = s.key(n)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	teams := make([]domain.Team, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		team, err := decodeTeam([]byte(str))
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// Update runs fn inside an optimistic transaction and retries when another writer commits
// first. fn may therefore run more than once. The completed set is watched too, so a finish
// rank computed from CountCompleted is invalidated when any other team finishes meanwhile.
func (s *TeamStore) Update(ctx context.Context, name string, fn func(*domain.Team) error) (domain.Team, error) {
	key := s.key(name)
	var out domain.Team
	err := s.retry(ctx, func() error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return domain.ErrTeamNotFound
			}
			if err != nil {
				return err
			}
			team, err := decodeTeam(raw)
			if err != nil {
				return err
			}
			next := team.Clone()
			if err := fn(&next); err != nil {
				return err
			}
			next.Name = team.Name
			next.Version = team.Version + 1
			encoded, err := encodeTeam(next)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				if next.Finished() {
					pipe.SAdd(ctx, teamsCompleteKey, next.Name)
				}
				return nil
			})
			if err == nil {
				out = next
			}
			return err
		}, key, teamsCompleteKey)
	})
	if err != nil {
		return domain.Team{}, err
	}
	return out, nil
}

func (s *TeamStore) CountCompleted(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, teamsCompleteKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count completed teams: %w", err)
	}
	return int(n), nil
}

func (s *TeamStore) retry(ctx context.Context, op func() error) error {
	for i := 0; i < s.maxRetries; i++ {
		err := op()
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("team transaction kept conflicting: %w", domain.ErrUnavailable)
}

func (s *TeamStore) key(name string) string {
	return "decodex:team:" + name
}

func encodeTeam(team domain.Team) ([]byte, error) {
	raw, err := json.Marshal(storedTeam{Team: team, PasswordHash: team.PasswordHash})
	if err != nil {
		return nil, fmt.Errorf("encode team %s: %w", team.Name, err)
	}
	return raw, nil
}

func decodeTeam(raw []byte) (domain.Team, error) {
	var st storedTeam
	if err := json.Unmarshal(raw, &st); err != nil {
		return domain.Team{}, fmt.Errorf("decode team: %w", err)
	}
	team := st.Team
	team.PasswordHash = st.PasswordHash
	if team.QuestionPath == nil {
		team.QuestionPath = []domain.PathEntry{}
	}
	return team, nil
}
