package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"owo.codes/whats-this/release-catalog/lib/settings"
)

func TestVisibility(t *testing.T) {
	tests := []struct {
		name     string
		setting  interface{}
		wantExpr string
		wantArg  int
	}{
		{"hide all passworded", 0, "r.passwordstatus = ?", 0},
		{"show potential", 1, "r.passwordstatus <= ?", 1},
		{"hide passworded keep unprocessed", 2, "r.passwordstatus <= ?", 0},
		{"show everything", 10, "r.passwordstatus <= ?", 10},
		{"unknown value shows everything", 7, "r.passwordstatus <= ?", 10},
		{"absent setting shows everything", nil, "r.passwordstatus <= ?", 10},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := settings.Static{}
			if test.setting != nil {
				s[settings.ShowPasswordedReleases] = test.setting
			}
			cond := Visibility(s)
			assert.Equal(t, test.wantExpr, cond.Expr())
			assert.Equal(t, []interface{}{test.wantArg}, cond.Args())
		})
	}
}

func TestVisibilityOrdering(t *testing.T) {
	// The password statuses form a strict order so the <= comparisons in the
	// visibility policy stay meaningful.
	assert.True(t, PasswdNone < PasswdPotential)
	assert.True(t, PasswdPotential < BadFile)
	assert.True(t, BadFile < PasswdRar)
}
