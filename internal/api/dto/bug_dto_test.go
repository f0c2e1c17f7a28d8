package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateBugRequestAssigneeAbsent(t *testing.T) {
	var req UpdateBugRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"new title"}`), &req))

	assert.False(t, req.AssignedTo.Present)
	assert.Nil(t, req.AssignedTo.Value)
	require.NotNil(t, req.Title)
	assert.Equal(t, "new title", *req.Title)
}

func TestUpdateBugRequestAssigneeExplicitNull(t *testing.T) {
	var req UpdateBugRequest
	require.NoError(t, json.Unmarshal([]byte(`{"assigned_to":null}`), &req))

	assert.True(t, req.AssignedTo.Present)
	assert.Nil(t, req.AssignedTo.Value)
}

func TestUpdateBugRequestAssigneeValue(t *testing.T) {
	var req UpdateBugRequest
	require.NoError(t, json.Unmarshal([]byte(`{"assigned_to":"user-42"}`), &req))

	assert.True(t, req.AssignedTo.Present)
	require.NotNil(t, req.AssignedTo.Value)
	assert.Equal(t, "user-42", *req.AssignedTo.Value)
}
