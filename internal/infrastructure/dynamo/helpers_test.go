package dynamo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldStatus: "IN_PROGRESS"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "status"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		fieldDescription: "new",
		fieldDateTo:      "2024-02-01",
		fieldDateFrom:    "2024-01-01",
	}
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)
	assert.Equal(t, "date_from", ue1.Names["#f0"])
	assert.Equal(t, "date_to", ue1.Names["#f1"])
	assert.Equal(t, "description", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldReaded: 1})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"]
	require.True(t, ok)
	n, isNum := av.(*types.AttributeValueMemberN)
	require.True(t, isNum)
	assert.Equal(t, "1", n.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestConditionalCheckFailed(t *testing.T) {
	wrapped := fmt.Errorf("put: %w", &types.ConditionalCheckFailedException{})
	assert.True(t, conditionalCheckFailed(wrapped))
	assert.False(t, conditionalCheckFailed(errors.New("boom")))
}

func TestStrKey(t *testing.T) {
	k := strKey("task_id", "t1")
	s, ok := k["task_id"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "t1", s.Value)
}
