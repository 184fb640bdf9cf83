package assistant

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/prodpulse/knowledgesync/internal/mylog"
	productdatatest "github.com/prodpulse/knowledgesync/productdata/test"
)

func TestBuildInstructionsMergesTenantGuidance(t *testing.T) {
	store := productdatatest.NewStore()
	store.SetInstructions("t1", "Answer tersely.")
	logger := mylog.NewLogger("error", "default")

	instructions := buildInstructions(context.Background(), store, "t1", logger)
	require.Contains(t, instructions, "Workspace: t1")
	require.Contains(t, instructions, "Workspace guidance:\nAnswer tersely.")
}

func TestBuildInstructionsWithoutSettings(t *testing.T) {
	logger := mylog.NewLogger("error", "default")

	instructions := buildInstructions(context.Background(), nil, "t1", logger)
	require.Contains(t, instructions, "Workspace: t1")
	require.NotContains(t, instructions, "Workspace guidance:")
}

func TestBuildInstructionsDegradesOnSettingsError(t *testing.T) {
	store := productdatatest.NewStore()
	store.InstructionsErr = errors.New("settings backend down")
	logger := mylog.NewLogger("error", "default")

	instructions := buildInstructions(context.Background(), store, "t1", logger)
	require.Contains(t, instructions, "Workspace: t1")
	require.NotContains(t, instructions, "Workspace guidance:")
}
