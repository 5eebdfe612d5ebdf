package anthropic

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
)

func TestToSDKMessages(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "check this record"},
		{Role: "assistant", Content: "looks fine"},
		{Role: "", Content: "defaults to user"},
	})

	assert.Len(t, msgs, 3)
	assert.Empty(t, toSDKMessages(nil))
}

func TestToSDKSystemBlocks(t *testing.T) {
	blocks := toSDKSystemBlocks([]SystemBlock{{Text: "you are a data auditor"}})

	assert.Len(t, blocks, 1)
	assert.Equal(t, "you are a data auditor", blocks[0].Text)
}

func TestFromSDKMessage(t *testing.T) {
	msg := &sdk.Message{
		ID:    "msg-1",
		Model: "claude-haiku-4-5-20251001",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: `{"suggested_phone":"555-123-4567"}`},
		},
		StopReason: "end_turn",
		Usage:      sdk.Usage{InputTokens: 120, OutputTokens: 30},
	}

	resp := fromSDKMessage(msg)

	assert.Equal(t, "msg-1", resp.ID)
	assert.Equal(t, "claude-haiku-4-5-20251001", resp.Model)
	assert.Len(t, resp.Content, 1)
	assert.Equal(t, `{"suggested_phone":"555-123-4567"}`, resp.Content[0].Text)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, int64(120), resp.Usage.InputTokens)
	assert.Equal(t, int64(30), resp.Usage.OutputTokens)
}
