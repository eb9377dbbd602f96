package catalog

import (
	"owo.codes/whats-this/release-catalog/lib/predicate"
	"owo.codes/whats-this/release-catalog/lib/settings"
)

// Visibility derives the password-status filter from the site-wide
// showPasswordedReleases setting. The condition is computed once per engine
// construction; changing the setting requires reconstructing the engine.
//
// Setting values:
//
//	0  - hide releases with a password or a potential password
//	1  - show releases with no password or a potential password
//	2  - hide passworded releases but show unprocessed ones; the numeric
//	     bound matches case 0 but the site documents it as a separate mode,
//	     so it is kept as a distinct case
//	10 - show everything (default, and any unrecognized value)
func Visibility(p settings.Provider) predicate.Cond {
	switch p.Int(settings.ShowPasswordedReleases, settings.DefaultShowPasswordedReleases) {
	case 0:
		return predicate.Eq("r.passwordstatus", int(PasswdNone))
	case 1:
		return predicate.LtEq("r.passwordstatus", int(PasswdPotential))
	case 2:
		return predicate.LtEq("r.passwordstatus", int(PasswdNone))
	default:
		return predicate.LtEq("r.passwordstatus", int(PasswdRar))
	}
}
