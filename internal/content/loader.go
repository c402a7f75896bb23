package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/hanzi/internal/database"
	"go.uber.org/zap"
)

// Action tells what EnsureLoaded did
type Action string

const (
	ActionSkipped    Action = "skipped"
	ActionImported   Action = "imported"
	ActionReimported Action = "reimported"
)

// LoadResult summarizes a load
type LoadResult struct {
	Action    Action `json:"action"`
	Expected  int    `json:"expected"`
	Found     int    `json:"found"`
	Committed int    `json:"committed"`
}

// Import inserts every row under its positional id. Each character and its
// sentence are committed on their own; a failing row is logged and counted
// as a miss. It returns the number of committed rows.
func (l *Library) Import(ctx context.Context, rows []Row) (int, error) {
	if _, err := l.characters.Count(ctx); err != nil {
		return 0, fmt.Errorf("failed to start import: %w", err)
	}

	committed := 0
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return committed, err
		}

		if err := l.validate.Struct(row); err != nil {
			l.log.Warn("skipping invalid row", zap.Int("row", i+1), zap.String("character", row.Character), zap.Error(err))
			continue
		}

		c, s := row.toModels(i)
		if err := l.characters.CreateWithSentence(ctx, c, s); err != nil {
			if errors.Is(err, database.ErrPrecondition) {
				return committed, err
			}
			l.log.Warn("failed to import row", zap.Int("row", i+1), zap.String("character", row.Character), zap.Error(err))
			continue
		}
		committed++
	}

	if missed := len(rows) - committed; missed > 0 {
		l.log.Warn("import finished with misses", zap.Int("committed", committed), zap.Int("missed", missed))
	} else {
		l.log.Info("import finished", zap.Int("committed", committed))
	}
	return committed, nil
}

// EnsureLoaded makes the stored content match rows. When the stored
// character count equals len(rows) nothing happens. Any other non-zero count
// means an older dataset: content and all progress are cleared and rows are
// imported again, since character ids are positional.
func (l *Library) EnsureLoaded(ctx context.Context, rows []Row) (LoadResult, error) {
	result := LoadResult{Expected: len(rows)}

	found, err := l.CountCharacters(ctx)
	if err != nil {
		return result, err
	}
	result.Found = found

	if found == len(rows) {
		result.Action = ActionSkipped
		result.Committed = found
		l.log.Debug("content up to date", zap.Int("characters", found))
		return result, nil
	}

	result.Action = ActionImported
	if found > 0 {
		l.log.Info("stored content does not match dataset, reloading",
			zap.Int("found", found), zap.Int("expected", len(rows)))
		if err := l.characters.ClearAll(ctx); err != nil {
			return result, fmt.Errorf("failed to clear content: %w", err)
		}
		result.Action = ActionReimported
	}

	return l.importAll(ctx, rows, result)
}

// Reload clears all content and progress and imports rows
func (l *Library) Reload(ctx context.Context, rows []Row) (LoadResult, error) {
	result := LoadResult{Expected: len(rows), Action: ActionReimported}

	found, err := l.CountCharacters(ctx)
	if err != nil {
		return result, err
	}
	result.Found = found

	if err := l.characters.ClearAll(ctx); err != nil {
		return result, fmt.Errorf("failed to clear content: %w", err)
	}
	return l.importAll(ctx, rows, result)
}

func (l *Library) importAll(ctx context.Context, rows []Row, result LoadResult) (LoadResult, error) {
	committed, err := l.Import(ctx, rows)
	result.Committed = committed
	if err != nil {
		return result, err
	}
	if committed < len(rows) {
		return result, fmt.Errorf("%w: committed %d of %d rows", ErrIncompleteImport, committed, len(rows))
	}
	return result, nil
}
