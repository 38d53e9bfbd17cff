package contract

// EffectiveRole resolves a user's authorization level for a project: the
// owner is MANAGER whether or not a member row exists, members carry
// their row's role, everyone else is RoleNone.
func EffectiveRole(p *Project, userID string) ProjectRole {
	if p.OwnerID == userID {
		return RoleManager
	}
	for i := range p.Members {
		if p.Members[i].UserID == userID {
			return p.Members[i].Role
		}
	}
	return RoleNone
}

// ProjectVisible is the list-projects filter predicate: a project shows
// up for a requester when it is PUBLIC, or the requester is its owner or
// a member. ADMIN sees everything.
func ProjectVisible(requester *User, p *Project) bool {
	if requester.Role == RoleAdmin {
		return true
	}
	if p.Visibility == VisibilityPublic {
		return true
	}
	return EffectiveRole(p, requester.ID) != RoleNone
}

// Authorize decides whether requester may run op against project p.
// A denial is always AUTHORIZATION_DENIED (403), also for PRIVATE
// projects the requester cannot see; existence is not masked as 404.
// System-role ADMIN bypasses the whole table.
func Authorize(requester *User, p *Project, op Operation) error {
	if requester.Role == RoleAdmin {
		return nil
	}

	role := EffectiveRole(p, requester.ID)

	switch op {
	case OpViewProject, OpListMembers, OpViewTask:
		if role != RoleNone || p.Visibility == VisibilityPublic {
			return nil
		}
	case OpUpdateProject, OpDeleteProject, OpAddMember, OpUpdateMemberRole, OpRemoveMember:
		if role == RoleManager {
			return nil
		}
	case OpCreateTask, OpUpdateTask, OpDeleteTask:
		if role == RoleManager || role == RoleCollaborator {
			return nil
		}
	default:
		return Errorf(CodeForbidden, "operation %s is not project-scoped", op)
	}

	return Errorf(CodeForbidden, "insufficient project role")
}
