package git

import (
	"context"
	"fmt"
)

// MergeBranch lands feature onto base inside the main working copy at dir:
// checkout, pull, merge with no fast-forward, push. The first failing step
// aborts the sequence; completed steps are not undone, so a merge that lands
// locally but fails to push is left for the operator to push by hand.
func (g *Gateway) MergeBranch(ctx context.Context, dir, base, feature, message string) error {
	if _, err := g.run(ctx, dir, "checkout", base); err != nil {
		return fmt.Errorf("checkout %s: %w", base, err)
	}

	if _, err := g.run(ctx, dir, "pull", "origin", base); err != nil {
		return fmt.Errorf("pull origin %s: %w", base, err)
	}

	if _, err := g.run(ctx, dir, "merge", "--no-ff", feature, "-m", message); err != nil {
		return fmt.Errorf("merge %s: %w", feature, err)
	}

	if _, err := g.run(ctx, dir, "push", "origin", base); err != nil {
		return fmt.Errorf("push origin %s: %w", base, err)
	}

	return nil
}
