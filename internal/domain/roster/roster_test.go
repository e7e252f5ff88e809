package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRMT_NoteRule(t *testing.T) {
	assert.True(t, Student{Name: "Ali", Note: "RMT"}.IsRMT(RMTRuleNote))
	assert.True(t, Student{Name: "Ali", Note: " rmt "}.IsRMT(RMTRuleNote))
	assert.False(t, Student{Name: "Ali", Note: ""}.IsRMT(RMTRuleNote))
	assert.False(t, Student{Name: "Ali RMT"}.IsRMT(RMTRuleNote))
}

func TestIsRMT_NameSuffixRule(t *testing.T) {
	assert.True(t, Student{Name: "Ali RMT"}.IsRMT(RMTRuleNameSuffix))
	assert.False(t, Student{Name: "Ali", Note: "RMT"}.IsRMT(RMTRuleNameSuffix))
}

func TestIsRMT_FlagRule(t *testing.T) {
	assert.True(t, Student{Name: "Ali", Note: "1"}.IsRMT(RMTRuleFlag))
	assert.True(t, Student{Name: "Ali", Note: "Ya"}.IsRMT(RMTRuleFlag))
	assert.False(t, Student{Name: "Ali", Note: "0"}.IsRMT(RMTRuleFlag))
	assert.False(t, Student{Name: "Ali", Note: "RMT"}.IsRMT(RMTRuleFlag))
}

func TestNormalizeClass(t *testing.T) {
	assert.Equal(t, "4 amber", NormalizeClass("4  Amber "))
	assert.Equal(t, "4 amber", NormalizeClass("4 AMBER"))
	assert.Equal(t, NormalizeClass("Pra Sekolah"), NormalizeClass("  pra   sekolah"))
}

func TestYearLabel(t *testing.T) {
	assert.Equal(t, "4", YearLabel("4 Amber"))
	assert.Equal(t, "6", YearLabel(" 6 Bestari"))
	assert.Equal(t, "", YearLabel("Pra Sekolah"))
	assert.Equal(t, "10", YearLabel("10A"))
}

func TestNames_PreservesOrder(t *testing.T) {
	students := []Student{{Name: "Chong"}, {Name: "Ali"}, {Name: "Bee"}}
	assert.Equal(t, []string{"Chong", "Ali", "Bee"}, Names(students))
}
