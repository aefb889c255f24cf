package state

import (
	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/pkg/logger"
)

// Manager applies session and identity transitions and logs each one.
type Manager struct {
	logger logger.ILogger
}

// NewManager creates a new state manager
func NewManager(logger logger.ILogger) *Manager {
	return &Manager{logger: logger}
}

// TransitionPhase moves the session to a new phase
func (m *Manager) TransitionPhase(session *entity.CoachingSession, to constant.Phase) error {
	from := session.Phase
	if err := TransitionPhase(session, to); err != nil {
		return err
	}
	m.logger.Info("STATE", "Phase transitioned", map[string]interface{}{
		"user_id": session.UserId.String(),
		"from":    string(from),
		"to":      string(to),
	})
	return nil
}

// AdvanceIdentity moves an identity forward in its lifecycle
func (m *Manager) AdvanceIdentity(identity *entity.Identity, target constant.LifecycleState) (bool, error) {
	from := identity.State
	changed, err := Advance(identity, target)
	if err != nil {
		return false, err
	}
	if changed {
		m.logger.Info("STATE", "Identity advanced", map[string]interface{}{
			"identity_id": identity.Id.String(),
			"label":       identity.Label,
			"from":        string(from),
			"to":          string(target),
		})
	}
	return changed, nil
}

// ArchiveIdentity moves an identity to the terminal archived state
func (m *Manager) ArchiveIdentity(identity *entity.Identity) bool {
	from := identity.State
	if !Archive(identity) {
		return false
	}
	m.logger.Info("STATE", "Identity archived", map[string]interface{}{
		"identity_id": identity.Id.String(),
		"label":       identity.Label,
		"from":        string(from),
	})
	return true
}

// RepointCurrent points the session at the next pending identity for its phase
func (m *Manager) RepointCurrent(session *entity.CoachingSession, identities []*entity.Identity) *entity.Identity {
	next := NextPending(identities, session.Phase)
	PointCurrent(session, next)
	details := map[string]interface{}{
		"user_id": session.UserId.String(),
		"phase":   string(session.Phase),
	}
	if next != nil {
		details["identity_id"] = next.Id.String()
	}
	m.logger.Debug("STATE", "Current identity re-pointed", details)
	return next
}
