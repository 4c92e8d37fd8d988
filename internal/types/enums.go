package types

// Phase is the named stage of the workflow a session is in
type Phase string

const (
	// PhasePlanning gathers requirements from the user
	PhasePlanning Phase = "planning"
	// PhaseCodeGeneration asks the model for a complete script
	PhaseCodeGeneration Phase = "code_generation"
	// PhaseImportCheck probes every imported module in isolation
	PhaseImportCheck Phase = "import_check"
	// PhaseTesting compiles the generated script without running it
	PhaseTesting Phase = "testing"
	// PhaseComplete is terminal for the current task
	PhaseComplete Phase = "complete"
)

// IsValid checks if a phase value is valid
func (p Phase) IsValid() bool {
	for _, valid := range AllPhases() {
		if p == valid {
			return true
		}
	}
	return false
}

// AllPhases returns all valid phase values in workflow order
func AllPhases() []Phase {
	return []Phase{PhasePlanning, PhaseCodeGeneration, PhaseImportCheck, PhaseTesting, PhaseComplete}
}

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// Role tags who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid checks if a role value is valid
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// TestModeSyntaxOnly marks test results produced without executing the code
const TestModeSyntaxOnly = "syntax_only"
