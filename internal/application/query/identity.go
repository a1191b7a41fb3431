// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
	"github.com/eduplatform/insight-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IDENTITY RESOLVER
// Проверяет внешние идентификаторы и находит студента.
// ══════════════════════════════════════════════════════════════════════════════

// IdentityResolver превращает внешние строки в типизированные ID.
type IdentityResolver struct {
	repo academic.Repository
}

// NewIdentityResolver создаёт резолвер.
func NewIdentityResolver(repo academic.Repository) *IdentityResolver {
	return &IdentityResolver{repo: repo}
}

// ResolveStudent проверяет ID и находит пользователя с ролью "student".
// Ошибки: shared.ErrInvalidIdentifier для некорректного ID,
// shared.ErrStudentNotFound, если записи нет или роль другая.
func (r *IdentityResolver) ResolveStudent(ctx context.Context, raw string) (*academic.User, error) {
	id, err := academic.ParseID(raw)
	if err != nil {
		return nil, err
	}

	user, err := r.repo.GetUser(ctx, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.WrapError("academic", "ResolveStudent", shared.ErrStudentNotFound,
				"no student with id "+id.String(), err)
		}
		return nil, shared.WrapError("academic", "ResolveStudent", shared.ErrExternalService,
			"failed to load student", err)
	}
	if !user.IsStudent() {
		return nil, shared.WrapError("academic", "ResolveStudent", shared.ErrStudentNotFound,
			"user "+id.String()+" is not a student", nil)
	}
	return user, nil
}

// ResolveOrganization разбирает необязательный ID организации.
// Некорректное значение отклоняет весь запрос.
func (r *IdentityResolver) ResolveOrganization(raw string) (*academic.ID, error) {
	id, err := academic.ParseOptionalID(raw)
	if err != nil {
		return nil, shared.WrapError("academic", "ResolveOrganization", shared.ErrInvalidIdentifier,
			"malformed organization id", err)
	}
	return id, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION FILTER
// ══════════════════════════════════════════════════════════════════════════════

// SessionFilter находит активные учебные сессии.
type SessionFilter struct {
	repo academic.Repository
}

// NewSessionFilter создаёт фильтр.
func NewSessionFilter(repo academic.Repository) *SessionFilter {
	return &SessionFilter{repo: repo}
}

// ActiveSessionIDs возвращает ID сессий в состоянии ACTIVE, при collegeID != nil
// только этой организации. Пустой результат - не ошибка.
func (f *SessionFilter) ActiveSessionIDs(ctx context.Context, collegeID *academic.ID) ([]academic.ID, error) {
	sessions, err := f.repo.FindActiveSessions(ctx, collegeID)
	if err != nil {
		return nil, shared.WrapError("academic", "FindActiveSessions", shared.ErrExternalService,
			"failed to load active sessions", err)
	}

	ids := make([]academic.ID, 0, len(sessions))
	for _, s := range sessions {
		if s.IsActive() {
			ids = append(ids, s.ID)
		}
	}
	return academic.UniqueIDs(ids), nil
}
