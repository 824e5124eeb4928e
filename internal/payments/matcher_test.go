package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidatePatternsPlainSessionID(t *testing.T) {
	patterns := candidatePatterns("SESSION1700000000000")

	require.Equal(t, []string{"SESSION1700000000000", "1700000000000"}, patterns)
}

func TestCandidatePatternsUnderscoredSessionID(t *testing.T) {
	patterns := candidatePatterns("SESSION_1749192317927_cx67a1uwz")

	require.Equal(t, []string{
		"SESSION_1749192317927_cx67a1uwz",
		"SESSION1749192317927cx67a1uwz",
		"SESSION1749192317927",
		"1749192317927",
	}, patterns)
}

func TestAmountMatchesWithinTolerance(t *testing.T) {
	// 149000 against expected 150000 with tolerance 1000 is accepted,
	// 148000 is not.
	assert.True(t, amountMatches(149000, 150000, 1000))
	assert.True(t, amountMatches(151000, 150000, 1000))
	assert.False(t, amountMatches(148000, 150000, 1000))
	assert.False(t, amountMatches(152000, 150000, 1000))
}

func TestAmountMatchesExactBoundary(t *testing.T) {
	assert.True(t, amountMatches(150000, 150000, 0))
	assert.False(t, amountMatches(150001, 150000, 0))
}

func TestDescriptionMatches(t *testing.T) {
	patterns := candidatePatterns("SESSION1700000000000")

	assert.True(t, descriptionMatches("bank transfer SESSION1700000000000 ref 9921", patterns))
	assert.True(t, descriptionMatches("truncated ref 1700000000000", patterns))
	assert.False(t, descriptionMatches("unrelated transfer", patterns))
	assert.False(t, descriptionMatches("", patterns))
}

func TestDescriptionMatchesIsFirstMatchOnly(t *testing.T) {
	// The heuristic accepts any row containing a pattern; overlapping
	// sessions with the same amount can be misattributed. This pins the
	// accepted limitation.
	patterns := candidatePatterns("SESSION1700000000000")
	assert.True(t, descriptionMatches("SESSION1700000000000 but meant for someone else", patterns))
}

func TestExtractSessionToken(t *testing.T) {
	assert.Equal(t, "SESSION1700000000000", ExtractSessionToken("payment for SESSION1700000000000 thanks"))
	assert.Equal(t, "SESSION123", ExtractSessionToken("session123 lowercase"))
	assert.Equal(t, "", ExtractSessionToken("no token here"))
	assert.Equal(t, "", ExtractSessionToken(""))
}

func TestExtractOrderCode(t *testing.T) {
	assert.Equal(t, "ORD123456", ExtractOrderCode("transfer ORD123456 complete"))
	assert.Equal(t, "ORD938", ExtractOrderCode("ord938"))
	assert.Equal(t, "", ExtractOrderCode("ORD12 too short"))
	assert.Equal(t, "", ExtractOrderCode("no code"))
}
