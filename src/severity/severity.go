// Package severity decides whether a raw PHP error signal is reportable and
// which reporting category it falls into.
package severity

import "hbrelay/src/model"

// UnsilenceablePlatformMajor is the first PHP major version whose "@"
// operator narrows the reporting mask to the unsilenceable levels instead
// of zeroing it.
const UnsilenceablePlatformMajor = 8

var unsilenceable = []model.Level{
	model.LevelError,
	model.LevelParse,
	model.LevelCoreError,
	model.LevelCompileError,
	model.LevelUserError,
	model.LevelRecoverableError,
}

var shutdownFatal = map[model.Level]struct{}{
	model.LevelError:        {},
	model.LevelParse:        {},
	model.LevelCoreError:    {},
	model.LevelCompileError: {},
	model.LevelUserError:    {},
}

var kinds = map[model.Level]model.Kind{
	model.LevelError:            model.KindFatal,
	model.LevelParse:            model.KindFatal,
	model.LevelCoreError:        model.KindFatal,
	model.LevelCompileError:     model.KindFatal,
	model.LevelUserError:        model.KindFatal,
	model.LevelRecoverableError: model.KindFatal,
	model.LevelWarning:          model.KindNonFatal,
	model.LevelNotice:           model.KindNonFatal,
	model.LevelCoreWarning:      model.KindNonFatal,
	model.LevelCompileWarning:   model.KindNonFatal,
	model.LevelUserWarning:      model.KindNonFatal,
	model.LevelUserNotice:       model.KindNonFatal,
	model.LevelStrict:           model.KindDeprecation,
	model.LevelDeprecated:       model.KindDeprecation,
	model.LevelUserDeprecated:   model.KindDeprecation,
}

// Decision is the classifier output.
type Decision struct {
	Pass bool
	Kind model.Kind
}

// UnsilenceableMask is the union of the levels the suppression operator
// cannot hide: 4437 on current runtimes.
func UnsilenceableMask() int {
	mask := 0
	for _, l := range unsilenceable {
		mask |= int(l)
	}
	return mask
}

// IsUnsilenceable reports whether level always passes regardless of the mask.
func IsUnsilenceable(level model.Level) bool {
	for _, l := range unsilenceable {
		if l == level {
			return true
		}
	}
	return false
}

// IsShutdownFatal reports whether level is one the termination hook forwards.
func IsShutdownFatal(level model.Level) bool {
	_, ok := shutdownFatal[level]
	return ok
}

// KindOf maps a level into its reporting category. Unknown levels are
// treated as non-fatal.
func KindOf(level model.Level) model.Kind {
	if k, ok := kinds[level]; ok {
		return k
	}
	return model.KindNonFatal
}

// Suppressed reports whether mask is what the runtime sets while evaluating
// an expression under the suppression operator.
func Suppressed(mask int, platformMajor int) bool {
	if platformMajor < UnsilenceablePlatformMajor {
		return mask == 0
	}
	return mask == UnsilenceableMask()
}

// Classify drops suppressed signals and tags the rest with their kind.
// Uncaught exceptions are never subject to the mask.
func Classify(signal model.Signal, mask int, platformMajor int) Decision {
	if signal.Origin == model.OriginUncaughtException {
		return Decision{Pass: true, Kind: model.KindFatal}
	}

	kind := KindOf(signal.Level)
	if IsUnsilenceable(signal.Level) {
		return Decision{Pass: true, Kind: kind}
	}
	if Suppressed(mask, platformMajor) {
		return Decision{Pass: false, Kind: kind}
	}
	return Decision{Pass: true, Kind: kind}
}
