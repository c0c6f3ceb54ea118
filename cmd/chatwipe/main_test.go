package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/chatwipe/internal/chat"
	"github.com/shehryarbajwa/chatwipe/internal/wipe"
	"github.com/shehryarbajwa/chatwipe/pkg/models"
)

func TestConcludeCleanRun(t *testing.T) {
	code := conclude(nil, &models.Report{Deleted: 3})
	require.Equal(t, 0, code)
}

func TestConcludeSkippedConversationsExitNonZero(t *testing.T) {
	// A converged run with skips is not a success: skipped threads remain
	// in the account and absent from the ledger.
	code := conclude(nil, &models.Report{Deleted: 2, Skipped: 1})
	require.Equal(t, 1, code)
}

func TestConcludeErrors(t *testing.T) {
	cases := map[string]error{
		"interrupted":        context.Canceled,
		"budget exhausted":   wipe.ErrBudgetExhausted,
		"structure mismatch": chat.ErrStructureMismatch,
		"other":              errors.New("boom"),
	}
	for name, err := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, 1, conclude(err, &models.Report{}))
		})
	}
}

func TestConcludeNilReport(t *testing.T) {
	require.Equal(t, 0, conclude(nil, nil))
}
