package schedulerRepo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestClassifyError(t *testing.T) {
	t.Run("write conflict is contention", func(t *testing.T) {
		err := classifyError("update booking status", mongo.CommandError{
			Code:   writeConflictCode,
			Name:   "WriteConflict",
			Labels: []string{"TransientTransactionError"},
		})
		assert.ErrorIs(t, err, ErrCalendarContention)
		assert.NotErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("transient label alone is contention", func(t *testing.T) {
		err := classifyError("calendar transaction", mongo.CommandError{
			Code:   251,
			Labels: []string{"TransientTransactionError"},
		})
		assert.ErrorIs(t, err, ErrCalendarContention)
	})

	t.Run("duplicate key is contention", func(t *testing.T) {
		err := classifyError("insert booking", mongo.WriteException{
			WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
		})
		assert.ErrorIs(t, err, ErrCalendarContention)
	})

	t.Run("deadline is unavailability", func(t *testing.T) {
		err := classifyError("read bookings", fmt.Errorf("find: %w", context.DeadlineExceeded))
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		cause := errors.New("bad document")
		err := classifyError("insert booking", cause)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrCalendarContention)
		assert.NotErrorIs(t, err, ErrStoreUnavailable)
	})

	assert.NoError(t, classifyError("noop", nil))
}
