package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/paiml/forge-go/internal/forgerr"
	"github.com/paiml/forge-go/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredFieldsPassesValidRequest(t *testing.T) {
	v := middleware.RequiredFields{Fields: []string{"name", "age"}}
	_, _, err := v.Before(context.Background(), map[string]any{"name": "ada", "age": 30})
	require.NoError(t, err)
}

func TestRequiredFieldsFailsOnMissingField(t *testing.T) {
	v := middleware.RequiredFields{Fields: []string{"name", "age"}}
	_, _, err := v.Before(context.Background(), map[string]any{"name": "ada"})
	require.Error(t, err)
	var fe *forgerr.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, forgerr.KindHandlerFailure, fe.Kind)
	assert.Contains(t, err.Error(), "age")
}

type fakeBreaker struct {
	allowErr  error
	successes int
	failures  int
}

func (b *fakeBreaker) Allow(ctx context.Context) (context.Context, error) { return ctx, b.allowErr }
func (b *fakeBreaker) Succeed(context.Context)                           { b.successes++ }
func (b *fakeBreaker) Fail(context.Context)                              { b.failures++ }

func TestRecoveryRejectsWhenBreakerRejects(t *testing.T) {
	breaker := &fakeBreaker{allowErr: errors.New("open")}
	r := middleware.Recovery{Breaker: breaker}
	_, _, err := r.Before(context.Background(), nil)
	require.Error(t, err)
}

func TestRecoveryRecordsOutcomes(t *testing.T) {
	breaker := &fakeBreaker{}
	r := middleware.Recovery{Breaker: breaker}

	_, err := r.After(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, breaker.successes)

	_, err = r.OnError(context.Background(), nil, errors.New("boom"))
	require.Error(t, err)
	assert.Equal(t, 1, breaker.failures)
}
