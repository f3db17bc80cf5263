package rbac

// Action constants consulted by every operation. Ownership checks
// (this company owns that project) stay in the services; rbac only
// answers whether a role may attempt the action at all.
const (
	ActionProjectCreate = "project:create"
	ActionProjectUpdate = "project:update"
	ActionProjectDelete = "project:delete"

	ActionProposalSubmit     = "proposal:submit"
	ActionProposalList       = "proposal:list"
	ActionProposalTransition = "proposal:transition"

	ActionContractComplete        = "contract:complete"
	ActionContractCompanyComplete = "contract:company_complete"

	ActionReviewSubmit = "review:submit"

	ActionMessageSend = "message:send"

	ActionAdminUsers    = "admin:users"
	ActionAdminProjects = "admin:projects"
)

// Role constants
const (
	RoleCompany    = "company"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
)

var roleCapabilities = map[string][]string{
	RoleCompany: {
		ActionProjectCreate,
		ActionProjectUpdate,
		ActionProjectDelete,
		ActionProposalList,
		ActionProposalTransition,
		ActionContractCompanyComplete,
		ActionReviewSubmit,
		ActionMessageSend,
	},
	RoleFreelancer: {
		ActionProposalSubmit,
		ActionProposalList,
		ActionContractComplete,
		ActionReviewSubmit,
		ActionMessageSend,
	},
	RoleAdmin: {
		ActionProjectCreate,
		ActionProjectUpdate,
		ActionProjectDelete,
		ActionProposalSubmit,
		ActionProposalList,
		ActionProposalTransition,
		ActionContractComplete,
		ActionContractCompanyComplete,
		ActionReviewSubmit,
		ActionMessageSend,
		ActionAdminUsers,
		ActionAdminProjects,
	},
}

// Can reports whether the role may attempt the action.
func Can(role, action string) bool {
	capabilities, ok := roleCapabilities[role]
	if !ok {
		return false
	}

	for _, c := range capabilities {
		if c == action {
			return true
		}
	}
	return false
}

// CheckPermission returns a typed error when the role lacks the action.
func CheckPermission(role, action string) error {
	if !Can(role, action) {
		return &PermissionDeniedError{
			Role:   role,
			Action: action,
		}
	}
	return nil
}

// PermissionDeniedError reports a role/action mismatch.
type PermissionDeniedError struct {
	Role   string
	Action string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}
