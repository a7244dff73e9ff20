// Package mixin provides reusable field sets for entity schemas
package mixin

import (
	"context"

	"github.com/conduit-lang/restbind/internal/orm/model"
	"github.com/conduit-lang/restbind/internal/orm/schema"
	"github.com/conduit-lang/restbind/internal/orm/session"
)

// ActiveKey is the column added by Activation
const ActiveKey = "is_active"

// Activation adds an is_active flag, exported as isActive. New entities start
// inactive.
type Activation struct{}

// Apply declares the flag on s
func (Activation) Apply(s *schema.EntitySchema) error {
	return s.Add(
		schema.Column(ActiveKey, schema.TypeBool).
			Default(false).
			Label("Active"),
	)
}

// IsActive reports whether e is active
func (Activation) IsActive(e model.Entity) bool {
	active, _ := e.Get(ActiveKey).(bool)
	return active
}

// Activate sets the flag through the model
func (Activation) Activate(m *model.Model, e model.Entity) error {
	return m.Set(e, ActiveKey, true)
}

// Deactivate clears the flag through the model
func (Activation) Deactivate(m *model.Model, e model.Entity) error {
	return m.Set(e, ActiveKey, false)
}

// ActivatedCondition is the SQL predicate selecting active rows
func (Activation) ActivatedCondition(d session.Dialect) session.Raw {
	return session.Raw(d.Quote(ActiveKey) + " = " + d.True())
}

// CountActivated counts the active rows of s
func (a Activation) CountActivated(ctx context.Context, sess *session.Session, s *schema.EntitySchema) (int64, error) {
	return sess.Count(ctx, s, map[string]interface{}{
		ActiveKey: a.ActivatedCondition(sess.Dialect()),
	})
}
