package app

import (
	"context"
	"errors"
	"fmt"

	"decodex/internal/domain"
)

// Consume spends one power-up of kind for the team. Re-buying a hint for the same question
// and re-arming an active boost succeed without charging again.
func (e *Engine) Consume(ctx context.Context, teamName string, kind domain.PowerUpKind) (domain.PowerUpResult, error) {
	if !domain.ValidPowerUp(kind) {
		return domain.PowerUpResult{}, fmt.Errorf("power-up %q: %w", kind, domain.ErrValidation)
	}
	if kind == domain.PowerUpSkip {
		team, res, err := e.skip(ctx, teamName)
		if err != nil {
			return domain.PowerUpResult{}, err
		}
		return domain.PowerUpResult{
			Kind:             kind,
			Remaining:        team.PowerUps.Skip,
			BrainBoostActive: team.BrainBoostActive,
			Skip:             &res,
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.gate(ctx); err != nil {
		return domain.PowerUpResult{}, err
	}
	c, err := e.catalog.Catalog(ctx)
	if err != nil {
		return domain.PowerUpResult{}, classify("load catalog", err)
	}

	var res domain.PowerUpResult
	_, err = e.teams.Update(ctx, teamName, func(t *domain.Team) error {
		res = domain.PowerUpResult{Kind: kind, Remaining: t.PowerUps.Count(kind), BrainBoostActive: t.BrainBoostActive}
		switch kind {
		case domain.PowerUpHint:
			return consumeHint(c, t, &res)
		default:
			if t.BrainBoostActive {
				return errNoChange
			}
			if t.PowerUps.Count(kind) <= 0 {
				return fmt.Errorf("%s: %w", kind, domain.ErrExhausted)
			}
			t.PowerUps.Set(kind, t.PowerUps.Count(kind)-1)
			t.BrainBoostActive = true
		}
		res.Remaining = t.PowerUps.Count(kind)
		res.BrainBoostActive = t.BrainBoostActive
		return nil
	})
	if errors.Is(err, errNoChange) {
		return res, nil
	}
	if err != nil {
		return domain.PowerUpResult{}, classify("consume power-up", err)
	}

	e.logger.Info("power-up used", "team", teamName, "kind", kind, "remaining", res.Remaining)
	return res, nil
}

func consumeHint(c domain.Catalog, t *domain.Team, res *domain.PowerUpResult) error {
	state, tg := resolve(c, *t)
	switch state {
	case domain.StateComplete:
		return domain.ErrTeamComplete
	case domain.StateAwaitingChoice:
		return domain.ErrChoicePending
	}
	if tg.hint() == "" {
		return fmt.Errorf("question %s has no hint: %w", tg.id(), domain.ErrInvalidState)
	}
	if t.HintRevealedFor == tg.id() {
		res.Hint = tg.hint()
		return errNoChange
	}
	if t.PowerUps.Hint <= 0 {
		return fmt.Errorf("hint: %w", domain.ErrExhausted)
	}
	t.PowerUps.Hint--
	t.HintRevealedFor = tg.id()
	res.Hint = tg.hint()
	res.Remaining = t.PowerUps.Hint
	return nil
}

// Grant adjusts a team's balance of kind by delta, clamping at zero. Admin only.
func (e *Engine) Grant(ctx context.Context, teamName string, kind domain.PowerUpKind, delta int) (domain.Team, error) {
	if !domain.ValidPowerUp(kind) {
		return domain.Team{}, fmt.Errorf("power-up %q: %w", kind, domain.ErrValidation)
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	team, err := e.teams.Update(ctx, teamName, func(t *domain.Team) error {
		t.PowerUps.Set(kind, t.PowerUps.Count(kind)+delta)
		return nil
	})
	if err != nil {
		return domain.Team{}, classify("grant power-up", err)
	}
	e.logger.Info("power-up granted", "team", teamName, "kind", kind, "delta", delta, "balance", team.PowerUps.Count(kind))
	return team, nil
}

// AdjustScore adds delta to a team's score, never going below zero. Admin only.
func (e *Engine) AdjustScore(ctx context.Context, teamName string, delta int) (domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	team, err := e.teams.Update(ctx, teamName, func(t *domain.Team) error {
		t.Score += delta
		if t.Score < 0 {
			t.Score = 0
		}
		return nil
	})
	if err != nil {
		return domain.Team{}, classify("adjust score", err)
	}
	e.logger.Info("score adjusted", "team", teamName, "delta", delta, "score", team.Score)
	e.publish()
	return team, nil
}
