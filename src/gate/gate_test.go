package gate

import (
	"testing"

	"hbrelay/src/model"
	"hbrelay/src/settings"

	"github.com/stretchr/testify/assert"
)

func TestShouldForwardTable(t *testing.T) {
	cases := []struct {
		kind        model.Kind
		nonFatal    bool
		deprecation bool
		want        bool
	}{
		{model.KindFatal, false, false, true},
		{model.KindFatal, true, true, true},
		{model.KindNonFatal, false, false, false},
		{model.KindNonFatal, false, true, false},
		{model.KindNonFatal, true, false, true},
		{model.KindDeprecation, false, false, false},
		{model.KindDeprecation, true, false, false},
		{model.KindDeprecation, false, true, true},
	}

	for _, tc := range cases {
		p := settings.Policy{Enabled: true, ReportNonFatal: tc.nonFatal, ReportDeprecations: tc.deprecation}
		assert.Equalf(t, tc.want, ShouldForward(tc.kind, p), "kind=%s nonFatal=%v deprecation=%v", tc.kind, tc.nonFatal, tc.deprecation)
	}
}

func TestShouldForwardDisabled(t *testing.T) {
	assert.False(t, ShouldForward(model.KindFatal, settings.Policy{Enabled: false}))
}

func TestRegisterNewKind(t *testing.T) {
	kind := model.Kind("performance")
	p := settings.Policy{Enabled: true}

	assert.False(t, ShouldForward(kind, p))

	Register(kind, func(p settings.Policy) bool { return p.ReportNonFatal })
	t.Cleanup(func() {
		mu.Lock()
		delete(rules, kind)
		mu.Unlock()
	})

	assert.False(t, ShouldForward(kind, p))
	p.ReportNonFatal = true
	assert.True(t, ShouldForward(kind, p))
}
