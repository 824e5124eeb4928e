package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"backend/internal/models"
)

func claimUpdateResponse(modified int) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: modified},
		bson.E{Key: "nModified", Value: modified},
	)
}

func TestClaimPaidOnlyOneConfirmerWins(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("racing confirmers", func(mt *mtest.T) {
		// The first conditional update flips pending to paid; the second
		// matches nothing because the session is no longer pending.
		mt.AddMockResponses(claimUpdateResponse(1), claimUpdateResponse(0))

		store := NewSessionStore(mt.DB)

		won, err := store.ClaimPaid(context.Background(), "SESSION1700000000000", PaymentEvidence{})
		require.NoError(mt, err)
		assert.True(mt, won)

		won, err = store.ClaimPaid(context.Background(), "SESSION1700000000000", PaymentEvidence{})
		require.NoError(mt, err)
		assert.False(mt, won, "a confirmer racing the winner must observe a lost claim")
	})
}

func TestClaimPaidFilterGuardsStatusAndExpiry(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("filter shape", func(mt *mtest.T) {
		mt.AddMockResponses(claimUpdateResponse(1))

		store := NewSessionStore(mt.DB)
		_, err := store.ClaimPaid(context.Background(), "SESSION1700000000000", PaymentEvidence{})
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		require.Equal(mt, "update", evt.CommandName)

		q := evt.Command.Lookup("updates").Array().Lookup("0").Document().Lookup("q").Document()
		assert.Equal(mt, "SESSION1700000000000", q.Lookup("sessionId").StringValue())
		assert.Equal(mt, models.SessionPending, q.Lookup("status").StringValue(),
			"the claim must be conditional on the pending state")
		_, err = q.Lookup("expiresAt").Document().LookupErr("$gt")
		assert.NoError(mt, err, "an expired session must never match the paid claim")
	})
}

func TestClaimConfirmWon(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("claim won", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "sessionId", Value: "SESSION1700000000000"},
			{Key: "status", Value: models.SessionPaid},
			{Key: "confirming", Value: true},
		}}))

		store := NewSessionStore(mt.DB)
		session, won, err := store.ClaimConfirm(context.Background(), "SESSION1700000000000")
		require.NoError(mt, err)
		require.True(mt, won)
		assert.Equal(mt, "SESSION1700000000000", session.SessionID)
		assert.True(mt, session.Confirming)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		require.Equal(mt, "findAndModify", evt.CommandName)

		q := evt.Command.Lookup("query").Document()
		assert.Equal(mt, models.SessionPaid, q.Lookup("status").StringValue())
		assert.False(mt, q.Lookup("orderNumber").Document().Lookup("$exists").Boolean(),
			"a session that already carries an order number must never be claimed again")
	})
}

func TestClaimConfirmLost(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("claim lost", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		store := NewSessionStore(mt.DB)
		session, won, err := store.ClaimConfirm(context.Background(), "SESSION1700000000000")
		require.NoError(mt, err, "losing the claim is a normal outcome, not an error")
		assert.False(mt, won)
		assert.Nil(mt, session)
	})
}
