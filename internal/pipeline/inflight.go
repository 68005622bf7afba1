package pipeline

import (
	"github.com/nao1215/aiaudit/internal/model"
	"golang.org/x/sync/singleflight"
)

// InFlight deduplicates concurrent audits of the same site key. Callers
// that arrive while an audit of their key is running wait for it and
// receive the same result, which is read-only after creation.
type InFlight struct {
	group singleflight.Group
}

// Do runs fn unless an audit of key is already running, in which case it
// waits for that audit. shared reports whether the result was shared
// with another caller.
func (f *InFlight) Do(key string, fn func() (*model.AuditResult, error)) (result *model.AuditResult, shared bool, err error) {
	v, err, shared := f.group.Do(key, func() (any, error) {
		return fn()
	})
	if v != nil {
		result = v.(*model.AuditResult) //nolint:forcetypeassert // fn only returns *model.AuditResult
	}
	return result, shared, err
}
