package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCondition(t *testing.T) {
	assert.Equal(t, ConditionGood, ParseCondition("Good"))
	assert.Equal(t, ConditionOkay, ParseCondition("Okay"))
	assert.Equal(t, ConditionBad, ParseCondition("Bad"))
	assert.Equal(t, ConditionUnknown, ParseCondition(""))
	assert.Equal(t, ConditionUnknown, ParseCondition("bad"))
	assert.Equal(t, ConditionUnknown, ParseCondition("TERRIBLE"))
}

func TestIsBad(t *testing.T) {
	assert.True(t, ConditionBad.IsBad())
	assert.False(t, ConditionGood.IsBad())
	assert.False(t, ConditionOkay.IsBad())
	assert.False(t, ConditionUnknown.IsBad())
}
