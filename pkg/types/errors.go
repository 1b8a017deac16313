// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// IdentityError reports an unresolvable publication identity: no primary
// identifier and no non-empty title. It is the only error class that
// propagates to callers as an error; environmental failures are folded
// into DownloadOutcome trails instead.
type IdentityError struct {
	Reason string
}

func (e *IdentityError) Error() string {
	return "unresolvable publication identity: " + e.Reason
}

// IsIdentityError reports whether err is (or wraps) an IdentityError.
func IsIdentityError(err error) bool {
	var ie *IdentityError
	return errors.As(err, &ie)
}
