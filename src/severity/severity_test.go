package severity

import (
	"testing"

	"hbrelay/src/model"

	"github.com/stretchr/testify/assert"
)

func TestUnsilenceableMask(t *testing.T) {
	assert.Equal(t, 4437, UnsilenceableMask())
}

func TestClassifyUnsilenceableAlwaysPasses(t *testing.T) {
	masks := []int{0, 4437, 32767, 2, 8}
	for _, level := range unsilenceable {
		for _, mask := range masks {
			for _, major := range []int{7, 8} {
				d := Classify(model.Signal{Level: level, Origin: model.OriginRuntimeError}, mask, major)
				assert.Truef(t, d.Pass, "level %s mask %d major %d should pass", level, mask, major)
				assert.Equal(t, model.KindFatal, d.Kind)
			}
		}
	}
}

func TestClassifySuppressionOperator(t *testing.T) {
	cases := []struct {
		name  string
		level model.Level
		mask  int
		major int
		want  bool
	}{
		{name: "php8 suppressed warning", level: model.LevelWarning, mask: 4437, major: 8, want: false},
		{name: "php8 configured mask", level: model.LevelWarning, mask: 32767, major: 8, want: true},
		{name: "php8 narrow mask", level: model.LevelNotice, mask: int(model.LevelNotice), major: 8, want: true},
		{name: "php8 zero mask is not suppression", level: model.LevelNotice, mask: 0, major: 8, want: true},
		{name: "php7 zero mask suppresses", level: model.LevelDeprecated, mask: 0, major: 7, want: false},
		{name: "php7 unsilenceable mask is configured", level: model.LevelDeprecated, mask: 4437, major: 7, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Classify(model.Signal{Level: tc.level, Origin: model.OriginRuntimeError}, tc.mask, tc.major)
			assert.Equal(t, tc.want, d.Pass)
		})
	}
}

func TestClassifyUncaughtExceptionIgnoresMask(t *testing.T) {
	d := Classify(model.Signal{Origin: model.OriginUncaughtException, Class: "RuntimeException"}, 4437, 8)
	assert.True(t, d.Pass)
	assert.Equal(t, model.KindFatal, d.Kind)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, model.KindNonFatal, KindOf(model.LevelWarning))
	assert.Equal(t, model.KindNonFatal, KindOf(model.LevelUserNotice))
	assert.Equal(t, model.KindDeprecation, KindOf(model.LevelUserDeprecated))
	assert.Equal(t, model.KindFatal, KindOf(model.LevelRecoverableError))
	assert.Equal(t, model.KindNonFatal, KindOf(model.Level(1<<20)))
}

func TestIsShutdownFatal(t *testing.T) {
	assert.True(t, IsShutdownFatal(model.LevelError))
	assert.True(t, IsShutdownFatal(model.LevelCompileError))
	assert.False(t, IsShutdownFatal(model.LevelWarning))
	assert.False(t, IsShutdownFatal(model.LevelRecoverableError))
}
