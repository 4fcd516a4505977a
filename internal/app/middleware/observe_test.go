package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelaudit/internal/app/commands"
	"hotelaudit/internal/app/queries"
)

type pingCommand struct{}

func (pingCommand) Key() string { return "test.ping" }

type pingQuery struct{}

func (pingQuery) Key() string { return "test.ping" }

type observation struct {
	kind, key string
	err       error
}

type recorder struct{ seen []observation }

func (r *recorder) Observe(kind, key string, _ time.Duration, err error) {
	r.seen = append(r.seen, observation{kind: kind, key: key, err: err})
}

func TestChainCommands_Order(t *testing.T) {
	var order []string
	tag := func(name string) CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
				order = append(order, name)
				return next.Dispatch(ctx, cmd)
			})
		}
	}
	base := commandFunc(func(context.Context, commands.Command) (any, error) {
		order = append(order, "handler")
		return "done", nil
	})

	res, err := ChainCommands(base, tag("outer"), tag("inner")).Dispatch(t.Context(), pingCommand{})

	require.NoError(t, err)
	assert.Equal(t, "done", res)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestObserveCommands(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	base := commandFunc(func(context.Context, commands.Command) (any, error) { return nil, boom })

	_, err := ChainCommands(base, ObserveCommands(rec)).Dispatch(t.Context(), pingCommand{})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []observation{{kind: "command", key: "test.ping", err: boom}}, rec.seen)
}

func TestObserveQueries(t *testing.T) {
	rec := &recorder{}
	base := queryFunc(func(context.Context, queries.Query) (any, error) { return 1, nil })

	res, err := ChainQueries(base, ObserveQueries(rec)).Ask(t.Context(), pingQuery{})

	require.NoError(t, err)
	assert.Equal(t, 1, res)
	assert.Equal(t, []observation{{kind: "query", key: "test.ping"}}, rec.seen)
}

func TestObserve_NilObserverIsPassThrough(t *testing.T) {
	base := queryFunc(func(context.Context, queries.Query) (any, error) { return "x", nil })

	res, err := ObserveQueries(nil)(base).Ask(t.Context(), pingQuery{})

	require.NoError(t, err)
	assert.Equal(t, "x", res)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ok := commandFunc(func(context.Context, commands.Command) (any, error) { return nil, nil })
	failing := commandFunc(func(context.Context, commands.Command) (any, error) { return nil, errors.New("nope") })

	_, _ = Logging(logger)(ok).Dispatch(t.Context(), pingCommand{})
	_, _ = Logging(logger)(failing).Dispatch(t.Context(), pingCommand{})

	out := buf.String()
	assert.Contains(t, out, `msg="command handled" command=test.ping`)
	assert.Contains(t, out, `level=WARN msg="command failed" command=test.ping`)
	assert.Contains(t, out, "error=nope")

	_, err := Logging(nil)(failing).Dispatch(t.Context(), pingCommand{})
	assert.EqualError(t, err, "nope")
}
