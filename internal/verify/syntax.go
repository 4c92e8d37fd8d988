package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"
)

// Syntax checker modes accepted by NewSyntaxChecker
const (
	SyntaxModeAuto        = "auto"
	SyntaxModeInterpreter = "interpreter"
	SyntaxModeTreeSitter  = "treesitter"
)

// SyntaxResult is the outcome of compiling a code string
type SyntaxResult struct {
	Valid   bool
	Message string // Compiler message without location
	Line    int    // 1-based offending line, 0 when unknown
	Error   string // Human-readable diagnostic, empty when valid
}

// SyntaxChecker compiles code without executing any statement
type SyntaxChecker interface {
	Check(ctx context.Context, code string) SyntaxResult
}

func syntaxError(msg string, line int) SyntaxResult {
	return SyntaxResult{
		Message: msg,
		Line:    line,
		Error:   fmt.Sprintf("Syntax error: %s at line %d", msg, line),
	}
}

func otherError(msg string) SyntaxResult {
	return SyntaxResult{Message: msg, Error: "Error: " + msg}
}

// compileScript reads source from stdin and compiles it. It prints a JSON
// object describing the first problem and exits 1, or exits 0 silently.
const compileScript = `import json, sys
src = sys.stdin.read()
try:
    compile(src, "<string>", "exec")
except SyntaxError as e:
    print(json.dumps({"kind": "syntax", "msg": e.msg, "lineno": e.lineno or 0}))
    sys.exit(1)
except Exception as e:
    print(json.dumps({"kind": "other", "msg": str(e), "lineno": 0}))
    sys.exit(1)
`

type compileReport struct {
	Kind   string `json:"kind"`
	Msg    string `json:"msg"`
	Lineno int    `json:"lineno"`
}

// InterpreterChecker compiles code with the real interpreter in a subprocess
type InterpreterChecker struct {
	runner      Runner
	interpreter string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewInterpreterChecker creates a checker that shells out to interpreter
func NewInterpreterChecker(runner Runner, interpreter string, timeout time.Duration, logger *zap.Logger) *InterpreterChecker {
	if timeout <= 0 {
		timeout = DefaultImportTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterpreterChecker{runner: runner, interpreter: interpreter, timeout: timeout, logger: logger}
}

// Check compiles code. Runner failures are reported as diagnostics, never raised.
func (c *InterpreterChecker) Check(ctx context.Context, code string) SyntaxResult {
	res, err := c.runner.Run(ctx, Command{
		Binary:  c.interpreter,
		Args:    []string{"-c", compileScript},
		Stdin:   code,
		Timeout: c.timeout,
	})
	if err != nil {
		c.logger.Warn("Syntax check could not start", zap.Error(err))
		return otherError(err.Error())
	}
	if res.TimedOut {
		return otherError(fmt.Sprintf("syntax check timed out after %s", c.timeout))
	}
	if res.ExitCode == 0 {
		return SyntaxResult{Valid: true}
	}

	var report compileReport
	line := lastLine(res.Stdout)
	if err := json.Unmarshal([]byte(line), &report); err != nil {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("interpreter exited with status %d", res.ExitCode)
		}
		return otherError(msg)
	}
	if report.Kind == "syntax" {
		return syntaxError(report.Msg, report.Lineno)
	}
	return otherError(report.Msg)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// TreeSitterChecker validates syntax in-process with the tree-sitter grammar.
// It catches grammar errors only; semantic compile errors such as a stray
// return at module level pass. The grammar also still accepts Python 2 print
// statements (print "x"), which Python 3 rejects. Prefer SyntaxModeAuto so the
// interpreter is used whenever one is installed.
type TreeSitterChecker struct{}

// Check parses code and reports the first ERROR or MISSING node
func (TreeSitterChecker) Check(ctx context.Context, code string) SyntaxResult {
	content := []byte(code)
	tree, err := parsePython(ctx, content)
	if err != nil || tree == nil {
		msg := "parse failed"
		if err != nil {
			msg = err.Error()
		}
		return otherError(msg)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return SyntaxResult{Valid: true}
	}

	bad := firstErrorNode(root)
	if bad == nil {
		return syntaxError("invalid syntax", 1)
	}
	line := int(bad.StartPoint().Row) + 1
	if bad.IsMissing() {
		return syntaxError(fmt.Sprintf("missing %s", bad.Type()), line)
	}
	return syntaxError("invalid syntax", line)
}

// firstErrorNode returns the first ERROR or MISSING node in document order
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

// NewSyntaxChecker picks a checker for mode. In auto mode the interpreter is
// used when available, otherwise tree-sitter.
func NewSyntaxChecker(mode string, runner Runner, interpreter string, interpreterAvailable bool, timeout time.Duration, logger *zap.Logger) (SyntaxChecker, error) {
	switch mode {
	case "", SyntaxModeAuto:
		if interpreterAvailable {
			return NewInterpreterChecker(runner, interpreter, timeout, logger), nil
		}
		return TreeSitterChecker{}, nil
	case SyntaxModeInterpreter:
		return NewInterpreterChecker(runner, interpreter, timeout, logger), nil
	case SyntaxModeTreeSitter:
		return TreeSitterChecker{}, nil
	default:
		return nil, fmt.Errorf("unknown syntax mode %q (valid: auto, interpreter, treesitter)", mode)
	}
}
