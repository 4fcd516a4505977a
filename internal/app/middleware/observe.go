package middleware

import (
	"context"
	"log/slog"
	"time"

	"hotelaudit/internal/app/commands"
	"hotelaudit/internal/app/queries"
)

// Observer receives the outcome of every dispatched message.
type Observer interface {
	Observe(kind, key string, elapsed time.Duration, err error)
}

// Logging writes one log line per command, at warn level on failure.
func Logging(logger *slog.Logger) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			if logger == nil {
				return res, err
			}
			if err != nil {
				logger.WarnContext(ctx, "command failed", "command", cmd.Key(), "duration", time.Since(start), "error", err)
			} else {
				logger.InfoContext(ctx, "command handled", "command", cmd.Key(), "duration", time.Since(start))
			}
			return res, err
		})
	}
}

// ObserveCommands reports command timings and errors to obs.
func ObserveCommands(obs Observer) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		if obs == nil {
			return next
		}
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			obs.Observe("command", cmd.Key(), time.Since(start), err)
			return res, err
		})
	}
}

// ObserveQueries reports query timings and errors to obs.
func ObserveQueries(obs Observer) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		if obs == nil {
			return next
		}
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			obs.Observe("query", q.Key(), time.Since(start), err)
			return res, err
		})
	}
}
