package verify

import (
	"context"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// moduleNamePattern matches a dotted Python identifier path
var moduleNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// parsePython parses src with the tree-sitter Python grammar. The caller must
// Close the returned tree.
func parsePython(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())
	return parser.ParseCtx(ctx, nil, src)
}

// DiscoverImports returns the sorted, deduplicated root segments of every
// absolute import in src. Relative imports are excluded. Source that does not
// parse yields an empty slice.
func DiscoverImports(src string) []string {
	content := []byte(src)
	tree, err := parsePython(context.Background(), content)
	if err != nil || tree == nil {
		return []string{}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return []string{}
	}

	seen := make(map[string]bool)
	walkNodes(root, func(node *sitter.Node) {
		switch node.Type() {
		case "import_statement":
			for i := 0; i < int(node.NamedChildCount()); i++ {
				child := node.NamedChild(i)
				switch child.Type() {
				case "dotted_name":
					addRoot(seen, child.Content(content))
				case "aliased_import":
					// import numpy.linalg as la
					if name := child.ChildByFieldName("name"); name != nil {
						addRoot(seen, name.Content(content))
					}
				}
			}

		case "import_from_statement":
			// from .foo import bar parses module_name as relative_import
			module := node.ChildByFieldName("module_name")
			if module != nil && module.Type() == "dotted_name" {
				addRoot(seen, module.Content(content))
			}

		case "future_import_statement":
			seen["__future__"] = true
		}
	})

	modules := make([]string, 0, len(seen))
	for m := range seen {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules
}

// addRoot records the first dotted component of an import path
func addRoot(seen map[string]bool, path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	root := strings.TrimSpace(strings.SplitN(path, ".", 2)[0])
	if root != "" {
		seen[root] = true
	}
}

// walkNodes visits node and all of its descendants depth-first
func walkNodes(node *sitter.Node, visit func(*sitter.Node)) {
	if node == nil {
		return
	}
	visit(node)
	for i := 0; i < int(node.ChildCount()); i++ {
		walkNodes(node.Child(i), visit)
	}
}

// ValidModuleName reports whether name is a dotted Python identifier path
func ValidModuleName(name string) bool {
	return moduleNamePattern.MatchString(name)
}
