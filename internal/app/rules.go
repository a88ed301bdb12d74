package app

import (
	"context"
	"fmt"

	"availability-engine/internal/engine"
)

func (a *App) ListRules(ctx context.Context, resourceID string) ([]engine.AvailabilityRule, error) {
	rules, err := a.Rules.ListRules(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("app.ListRules: %w", err)
	}
	return rules, nil
}

// CreateRules validates and stores rules for resourceID. Nothing is stored if
// any rule is invalid.
func (a *App) CreateRules(ctx context.Context, resourceID string, rules []engine.AvailabilityRule) ([]engine.AvailabilityRule, error) {
	const op = "app.CreateRules"

	for i := range rules {
		rules[i].ResourceID = resourceID
		if err := rules[i].Validate(); err != nil {
			return nil, fmt.Errorf("%s: rule %d: %w", op, i, err)
		}
	}
	for i := range rules {
		if err := a.Rules.CreateRule(ctx, &rules[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return rules, nil
}

func (a *App) UpdateRule(ctx context.Context, rule engine.AvailabilityRule) (engine.AvailabilityRule, error) {
	const op = "app.UpdateRule"

	if err := rule.Validate(); err != nil {
		return engine.AvailabilityRule{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := a.Rules.UpdateRule(ctx, &rule); err != nil {
		return engine.AvailabilityRule{}, fmt.Errorf("%s: %w", op, err)
	}
	return rule, nil
}

// DeactivateRule soft-deletes a rule.
func (a *App) DeactivateRule(ctx context.Context, resourceID, ruleID string) error {
	if err := a.Rules.DeactivateRule(ctx, resourceID, ruleID); err != nil {
		return fmt.Errorf("app.DeactivateRule: %w", err)
	}
	return nil
}

// EnsureDefaultSchedule seeds Monday-Friday 09:00-17:00 for a resource with no
// active rules and does nothing otherwise. It returns the resource's active
// rules and whether they were just created.
func (a *App) EnsureDefaultSchedule(ctx context.Context, resourceID string) ([]engine.AvailabilityRule, bool, error) {
	const op = "app.EnsureDefaultSchedule"

	if resourceID == "" {
		return nil, false, fmt.Errorf("%s: %w: resource id is required", op, engine.ErrInvalidInput)
	}

	var created bool
	err := a.withResourceLock(ctx, resourceID, func() error {
		var err error
		created, err = a.Rules.SeedDefaultRules(ctx, resourceID, engine.DefaultWeeklyRules(resourceID))
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if created {
		a.log().Info("default schedule created", "resource_id", resourceID)
	}

	rules, err := a.Rules.ListActiveRules(ctx, resourceID)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return rules, created, nil
}
