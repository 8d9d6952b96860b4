package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandsMatchRouter(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range Commands() {
		names[cmd.Name] = true
		assert.NotEmpty(t, cmd.Description, cmd.Name)
		assert.NotNil(t, cmd.DefaultMemberPermissions, cmd.Name)
	}
	for _, want := range []string{CommandApplyPanel, CommandAudit, CommandBlacklistAdd, CommandBlacklistRemove, CommandBlacklistList} {
		assert.True(t, names[want], want)
	}
}

func TestAuditChoicesCoverEveryAction(t *testing.T) {
	choices := auditChoices()
	assert.Len(t, choices, 5)
	assert.Equal(t, "fire", choices[3].Value)
}
