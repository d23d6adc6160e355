package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apptrueq/pkg/errors"
)

func TestTradeGetIsLimitedToParticipants(t *testing.T) {
	f := newFixture()
	_, guitar := seedMarket(f)
	ctx := context.Background()

	p, err := f.proposals.Submit(ctx, "bruno", SubmitProposalInput{PublicationID: guitar.ID, Message: "Te ofrezco mi bicicleta"})
	require.NoError(t, err)
	result, err := f.proposals.Accept(ctx, "ana", p.ID)
	require.NoError(t, err)

	for _, uid := range []string{"ana", "bruno"} {
		trade, err := f.trades.Get(ctx, uid, result.Trade.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, trade.ProposalID)
	}

	_, err = f.trades.Get(ctx, "carla", result.Trade.ID)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.trades.Get(ctx, "ana", "missing")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}
