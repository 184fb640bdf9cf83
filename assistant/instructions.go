package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/prodpulse/knowledgesync/internal/mylog"
	"github.com/prodpulse/knowledgesync/productdata"
)

const baseInstructions = `You are the product knowledge assistant for this workspace.
Answer questions about the workspace's projects, features, releases, roadmaps
and customer feedback using the attached knowledge files. Prefer information
from the knowledge files over general knowledge. When the files do not cover a
question, say so instead of guessing.`

// buildInstructions merges the fixed base instructions with the tenant's
// free-text settings blob. Settings read failures degrade to the base
// instructions; a missing blob must not block assistant creation.
func buildInstructions(ctx context.Context, settings productdata.Settings, tenantID string, logger *mylog.Logger) string {
	instructions := fmt.Sprintf("%s\n\nWorkspace: %s", baseInstructions, tenantID)

	if settings == nil {
		return instructions
	}

	custom, err := settings.GetAssistantInstructions(ctx, tenantID)
	if err != nil {
		logger.Warn("failed to read tenant instructions, using defaults",
			"tenant_id", tenantID, mylog.Err(err))
		return instructions
	}
	if custom = strings.TrimSpace(custom); custom != "" {
		instructions += "\n\nWorkspace guidance:\n" + custom
	}

	return instructions
}
